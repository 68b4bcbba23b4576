package opcodes

import "fmt"

// Opcode identifies a JVM instruction. Values 0 through 201 are the
// instruction set; negative values are pseudo-instructions that never
// appear in a class file.
type Opcode int

const (
	// LABEL marks a jump target in an instruction listing.
	LABEL Opcode = -1
	// NOOP is returned by conversions between identical types. It is a
	// marker only and flattens to nothing.
	NOOP Opcode = -2
)

const (
	// Constants
	NOP Opcode = iota
	ACONST_NULL
	ICONST_M1
	ICONST_0
	ICONST_1
	ICONST_2
	ICONST_3
	ICONST_4
	ICONST_5
	LCONST_0
	LCONST_1
	FCONST_0
	FCONST_1
	FCONST_2
	DCONST_0
	DCONST_1
	BIPUSH
	SIPUSH
	LDC
	LDC_W
	LDC2_W

	// Loads
	ILOAD
	LLOAD
	FLOAD
	DLOAD
	ALOAD
	ILOAD_0
	ILOAD_1
	ILOAD_2
	ILOAD_3
	LLOAD_0
	LLOAD_1
	LLOAD_2
	LLOAD_3
	FLOAD_0
	FLOAD_1
	FLOAD_2
	FLOAD_3
	DLOAD_0
	DLOAD_1
	DLOAD_2
	DLOAD_3
	ALOAD_0
	ALOAD_1
	ALOAD_2
	ALOAD_3
	IALOAD
	LALOAD
	FALOAD
	DALOAD
	AALOAD
	BALOAD
	CALOAD
	SALOAD

	// Stores
	ISTORE
	LSTORE
	FSTORE
	DSTORE
	ASTORE
	ISTORE_0
	ISTORE_1
	ISTORE_2
	ISTORE_3
	LSTORE_0
	LSTORE_1
	LSTORE_2
	LSTORE_3
	FSTORE_0
	FSTORE_1
	FSTORE_2
	FSTORE_3
	DSTORE_0
	DSTORE_1
	DSTORE_2
	DSTORE_3
	ASTORE_0
	ASTORE_1
	ASTORE_2
	ASTORE_3
	IASTORE
	LASTORE
	FASTORE
	DASTORE
	AASTORE
	BASTORE
	CASTORE
	SASTORE

	// Stack
	POP
	POP2
	DUP
	DUP_X1
	DUP_X2
	DUP2
	DUP2_X1
	DUP2_X2
	SWAP

	// Math
	IADD
	LADD
	FADD
	DADD
	ISUB
	LSUB
	FSUB
	DSUB
	IMUL
	LMUL
	FMUL
	DMUL
	IDIV
	LDIV
	FDIV
	DDIV
	IREM
	LREM
	FREM
	DREM
	INEG
	LNEG
	FNEG
	DNEG
	ISHL
	LSHL
	ISHR
	LSHR
	IUSHR
	LUSHR
	IAND
	LAND
	IOR
	LOR
	IXOR
	LXOR
	IINC

	// Conversions
	I2L
	I2F
	I2D
	L2I
	L2F
	L2D
	F2I
	F2L
	F2D
	D2I
	D2L
	D2F
	I2B
	I2C
	I2S

	// Comparisons
	LCMP
	FCMPL
	FCMPG
	DCMPL
	DCMPG
	IFEQ
	IFNE
	IFLT
	IFGE
	IFGT
	IFLE
	IF_ICMPEQ
	IF_ICMPNE
	IF_ICMPLT
	IF_ICMPGE
	IF_ICMPGT
	IF_ICMPLE
	IF_ACMPEQ
	IF_ACMPNE

	// Control
	GOTO
	JSR
	RET
	TABLESWITCH
	LOOKUPSWITCH
	IRETURN
	LRETURN
	FRETURN
	DRETURN
	ARETURN
	RETURN

	// References
	GETSTATIC
	PUTSTATIC
	GETFIELD
	PUTFIELD
	INVOKEVIRTUAL
	INVOKESPECIAL
	INVOKESTATIC
	INVOKEINTERFACE
	INVOKEDYNAMIC
	NEW
	NEWARRAY
	ANEWARRAY
	ARRAYLENGTH
	ATHROW
	CHECKCAST
	INSTANCEOF
	MONITORENTER
	MONITOREXIT

	// Extended
	WIDE
	MULTIANEWARRAY
	IFNULL
	IFNONNULL
	GOTO_W
	JSR_W
)

// Count is the number of real opcodes.
const Count = int(JSR_W) + 1

var names = [Count]string{
	NOP:             "NOP",
	ACONST_NULL:     "ACONST_NULL",
	ICONST_M1:       "ICONST_M1",
	ICONST_0:        "ICONST_0",
	ICONST_1:        "ICONST_1",
	ICONST_2:        "ICONST_2",
	ICONST_3:        "ICONST_3",
	ICONST_4:        "ICONST_4",
	ICONST_5:        "ICONST_5",
	LCONST_0:        "LCONST_0",
	LCONST_1:        "LCONST_1",
	FCONST_0:        "FCONST_0",
	FCONST_1:        "FCONST_1",
	FCONST_2:        "FCONST_2",
	DCONST_0:        "DCONST_0",
	DCONST_1:        "DCONST_1",
	BIPUSH:          "BIPUSH",
	SIPUSH:          "SIPUSH",
	LDC:             "LDC",
	LDC_W:           "LDC_W",
	LDC2_W:          "LDC2_W",
	ILOAD:           "ILOAD",
	LLOAD:           "LLOAD",
	FLOAD:           "FLOAD",
	DLOAD:           "DLOAD",
	ALOAD:           "ALOAD",
	ILOAD_0:         "ILOAD_0",
	ILOAD_1:         "ILOAD_1",
	ILOAD_2:         "ILOAD_2",
	ILOAD_3:         "ILOAD_3",
	LLOAD_0:         "LLOAD_0",
	LLOAD_1:         "LLOAD_1",
	LLOAD_2:         "LLOAD_2",
	LLOAD_3:         "LLOAD_3",
	FLOAD_0:         "FLOAD_0",
	FLOAD_1:         "FLOAD_1",
	FLOAD_2:         "FLOAD_2",
	FLOAD_3:         "FLOAD_3",
	DLOAD_0:         "DLOAD_0",
	DLOAD_1:         "DLOAD_1",
	DLOAD_2:         "DLOAD_2",
	DLOAD_3:         "DLOAD_3",
	ALOAD_0:         "ALOAD_0",
	ALOAD_1:         "ALOAD_1",
	ALOAD_2:         "ALOAD_2",
	ALOAD_3:         "ALOAD_3",
	IALOAD:          "IALOAD",
	LALOAD:          "LALOAD",
	FALOAD:          "FALOAD",
	DALOAD:          "DALOAD",
	AALOAD:          "AALOAD",
	BALOAD:          "BALOAD",
	CALOAD:          "CALOAD",
	SALOAD:          "SALOAD",
	ISTORE:          "ISTORE",
	LSTORE:          "LSTORE",
	FSTORE:          "FSTORE",
	DSTORE:          "DSTORE",
	ASTORE:          "ASTORE",
	ISTORE_0:        "ISTORE_0",
	ISTORE_1:        "ISTORE_1",
	ISTORE_2:        "ISTORE_2",
	ISTORE_3:        "ISTORE_3",
	LSTORE_0:        "LSTORE_0",
	LSTORE_1:        "LSTORE_1",
	LSTORE_2:        "LSTORE_2",
	LSTORE_3:        "LSTORE_3",
	FSTORE_0:        "FSTORE_0",
	FSTORE_1:        "FSTORE_1",
	FSTORE_2:        "FSTORE_2",
	FSTORE_3:        "FSTORE_3",
	DSTORE_0:        "DSTORE_0",
	DSTORE_1:        "DSTORE_1",
	DSTORE_2:        "DSTORE_2",
	DSTORE_3:        "DSTORE_3",
	ASTORE_0:        "ASTORE_0",
	ASTORE_1:        "ASTORE_1",
	ASTORE_2:        "ASTORE_2",
	ASTORE_3:        "ASTORE_3",
	IASTORE:         "IASTORE",
	LASTORE:         "LASTORE",
	FASTORE:         "FASTORE",
	DASTORE:         "DASTORE",
	AASTORE:         "AASTORE",
	BASTORE:         "BASTORE",
	CASTORE:         "CASTORE",
	SASTORE:         "SASTORE",
	POP:             "POP",
	POP2:            "POP2",
	DUP:             "DUP",
	DUP_X1:          "DUP_X1",
	DUP_X2:          "DUP_X2",
	DUP2:            "DUP2",
	DUP2_X1:         "DUP2_X1",
	DUP2_X2:         "DUP2_X2",
	SWAP:            "SWAP",
	IADD:            "IADD",
	LADD:            "LADD",
	FADD:            "FADD",
	DADD:            "DADD",
	ISUB:            "ISUB",
	LSUB:            "LSUB",
	FSUB:            "FSUB",
	DSUB:            "DSUB",
	IMUL:            "IMUL",
	LMUL:            "LMUL",
	FMUL:            "FMUL",
	DMUL:            "DMUL",
	IDIV:            "IDIV",
	LDIV:            "LDIV",
	FDIV:            "FDIV",
	DDIV:            "DDIV",
	IREM:            "IREM",
	LREM:            "LREM",
	FREM:            "FREM",
	DREM:            "DREM",
	INEG:            "INEG",
	LNEG:            "LNEG",
	FNEG:            "FNEG",
	DNEG:            "DNEG",
	ISHL:            "ISHL",
	LSHL:            "LSHL",
	ISHR:            "ISHR",
	LSHR:            "LSHR",
	IUSHR:           "IUSHR",
	LUSHR:           "LUSHR",
	IAND:            "IAND",
	LAND:            "LAND",
	IOR:             "IOR",
	LOR:             "LOR",
	IXOR:            "IXOR",
	LXOR:            "LXOR",
	IINC:            "IINC",
	I2L:             "I2L",
	I2F:             "I2F",
	I2D:             "I2D",
	L2I:             "L2I",
	L2F:             "L2F",
	L2D:             "L2D",
	F2I:             "F2I",
	F2L:             "F2L",
	F2D:             "F2D",
	D2I:             "D2I",
	D2L:             "D2L",
	D2F:             "D2F",
	I2B:             "I2B",
	I2C:             "I2C",
	I2S:             "I2S",
	LCMP:            "LCMP",
	FCMPL:           "FCMPL",
	FCMPG:           "FCMPG",
	DCMPL:           "DCMPL",
	DCMPG:           "DCMPG",
	IFEQ:            "IFEQ",
	IFNE:            "IFNE",
	IFLT:            "IFLT",
	IFGE:            "IFGE",
	IFGT:            "IFGT",
	IFLE:            "IFLE",
	IF_ICMPEQ:       "IF_ICMPEQ",
	IF_ICMPNE:       "IF_ICMPNE",
	IF_ICMPLT:       "IF_ICMPLT",
	IF_ICMPGE:       "IF_ICMPGE",
	IF_ICMPGT:       "IF_ICMPGT",
	IF_ICMPLE:       "IF_ICMPLE",
	IF_ACMPEQ:       "IF_ACMPEQ",
	IF_ACMPNE:       "IF_ACMPNE",
	GOTO:            "GOTO",
	JSR:             "JSR",
	RET:             "RET",
	TABLESWITCH:     "TABLESWITCH",
	LOOKUPSWITCH:    "LOOKUPSWITCH",
	IRETURN:         "IRETURN",
	LRETURN:         "LRETURN",
	FRETURN:         "FRETURN",
	DRETURN:         "DRETURN",
	ARETURN:         "ARETURN",
	RETURN:          "RETURN",
	GETSTATIC:       "GETSTATIC",
	PUTSTATIC:       "PUTSTATIC",
	GETFIELD:        "GETFIELD",
	PUTFIELD:        "PUTFIELD",
	INVOKEVIRTUAL:   "INVOKEVIRTUAL",
	INVOKESPECIAL:   "INVOKESPECIAL",
	INVOKESTATIC:    "INVOKESTATIC",
	INVOKEINTERFACE: "INVOKEINTERFACE",
	INVOKEDYNAMIC:   "INVOKEDYNAMIC",
	NEW:             "NEW",
	NEWARRAY:        "NEWARRAY",
	ANEWARRAY:       "ANEWARRAY",
	ARRAYLENGTH:     "ARRAYLENGTH",
	ATHROW:          "ATHROW",
	CHECKCAST:       "CHECKCAST",
	INSTANCEOF:      "INSTANCEOF",
	MONITORENTER:    "MONITORENTER",
	MONITOREXIT:     "MONITOREXIT",
	WIDE:            "WIDE",
	MULTIANEWARRAY:  "MULTIANEWARRAY",
	IFNULL:          "IFNULL",
	IFNONNULL:       "IFNONNULL",
	GOTO_W:          "GOTO_W",
	JSR_W:           "JSR_W",
}

var byName = func() map[string]Opcode {
	m := make(map[string]Opcode, Count+2)
	for op, name := range names {
		m[name] = Opcode(op)
	}
	m["LABEL"] = LABEL
	m["NOOP"] = NOOP
	return m
}()

func (o Opcode) String() string {
	switch o {
	case LABEL:
		return "LABEL"
	case NOOP:
		return "NOOP"
	}
	if o.Valid() {
		return names[o]
	}
	return fmt.Sprintf("OPCODE_%d", int(o))
}

// Valid reports whether o is a real instruction.
func (o Opcode) Valid() bool {
	return o >= 0 && int(o) < Count
}

// Lookup finds an opcode by its mnemonic.
func Lookup(name string) (Opcode, bool) {
	op, ok := byName[name]
	return op, ok
}

// All lists every real opcode in numeric order.
func All() []Opcode {
	ret := make([]Opcode, Count)
	for i := range ret {
		ret[i] = Opcode(i)
	}
	return ret
}
