package decompiler

import (
	"github.com/pontaoski/bytetree/insn"
	"github.com/pontaoski/bytetree/opcodes"
)

var (
	constants   Rule = constRule{}
	loads       Rule = loadRule{}
	stores      Rule = storeRule{}
	arithmetic  Rule = arithRule{}
	casts       Rule = castRule{}
	checkCasts  Rule = checkCastRule{}
	fields      Rule = fieldRule{}
	invokes     Rule = invokeRule{}
	specials    Rule = specialRule{}
	news        Rule = newRule{}
	dups        Rule = dupRule{}
	pops        Rule = popRule{}
	newArrays   Rule = newArrayRule{}
	arrayStores Rule = arrayStoreRule{}
	branches    Rule = branchRule{}
	returns     Rule = returnRule{}
	labels      Rule = labelRule{}
	passthrough Rule = passthroughRule{}
)

// Rules lists every rule, the fallback last.
func Rules() []Rule {
	return []Rule{
		constants, loads, stores, arithmetic, casts, checkCasts, fields,
		invokes, specials, news, dups, pops, newArrays, arrayStores,
		branches, returns, labels, passthrough,
	}
}

// Route picks the one rule responsible for in. Opcodes no rule claims go
// to the passthrough rule.
func Route(in insn.Instruction) Rule {
	if in.IsLabel {
		return labels
	}

	switch in.Opcode {
	case opcodes.ACONST_NULL,
		opcodes.ICONST_M1, opcodes.ICONST_0, opcodes.ICONST_1, opcodes.ICONST_2,
		opcodes.ICONST_3, opcodes.ICONST_4, opcodes.ICONST_5,
		opcodes.LCONST_0, opcodes.LCONST_1,
		opcodes.FCONST_0, opcodes.FCONST_1, opcodes.FCONST_2,
		opcodes.DCONST_0, opcodes.DCONST_1,
		opcodes.BIPUSH, opcodes.SIPUSH,
		opcodes.LDC, opcodes.LDC_W, opcodes.LDC2_W:
		return constants
	case opcodes.ILOAD, opcodes.LLOAD, opcodes.FLOAD, opcodes.DLOAD, opcodes.ALOAD:
		return loads
	case opcodes.ISTORE, opcodes.LSTORE, opcodes.FSTORE, opcodes.DSTORE, opcodes.ASTORE:
		return stores
	case opcodes.IADD, opcodes.LADD, opcodes.FADD, opcodes.DADD,
		opcodes.ISUB, opcodes.LSUB, opcodes.FSUB, opcodes.DSUB,
		opcodes.IMUL, opcodes.LMUL, opcodes.FMUL, opcodes.DMUL:
		return arithmetic
	case opcodes.I2L, opcodes.I2F, opcodes.I2D,
		opcodes.L2I, opcodes.L2F, opcodes.L2D,
		opcodes.F2I, opcodes.F2L, opcodes.F2D,
		opcodes.D2I, opcodes.D2L, opcodes.D2F,
		opcodes.I2B, opcodes.I2C, opcodes.I2S:
		return casts
	case opcodes.CHECKCAST:
		return checkCasts
	case opcodes.GETSTATIC, opcodes.PUTSTATIC, opcodes.GETFIELD, opcodes.PUTFIELD:
		return fields
	case opcodes.INVOKEVIRTUAL, opcodes.INVOKESTATIC, opcodes.INVOKEINTERFACE, opcodes.INVOKEDYNAMIC:
		return invokes
	case opcodes.INVOKESPECIAL:
		return specials
	case opcodes.NEW:
		return news
	case opcodes.DUP:
		return dups
	case opcodes.POP:
		return pops
	case opcodes.NEWARRAY, opcodes.ANEWARRAY:
		return newArrays
	case opcodes.IASTORE, opcodes.LASTORE, opcodes.FASTORE, opcodes.DASTORE,
		opcodes.AASTORE, opcodes.BASTORE, opcodes.CASTORE, opcodes.SASTORE:
		return arrayStores
	case opcodes.IF_ICMPGT:
		return branches
	case opcodes.IRETURN, opcodes.LRETURN, opcodes.FRETURN, opcodes.DRETURN,
		opcodes.ARETURN, opcodes.RETURN:
		return returns
	default:
		return passthrough
	}
}
