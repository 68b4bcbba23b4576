package listing

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pontaoski/bytetree/insn"
	"github.com/pontaoski/bytetree/opcodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `units:
- name: greet
  owner: com/example/Greeter
  descriptor: (I)V
  instructions:
  - 'top:'
  - ILOAD 1
  - BIPUSH 10
  - IF_ICMPGT top
  - LDC "hello world"
  - LDC 5L
  - LDC 0.5F
  - LDC 2.25D
  - LDC java/lang/String.class
  - INVOKESTATIC "com/example/Greeter" "say" "(Ljava/lang/String;)V"
  - RETURN
`

func TestRead(t *testing.T) {
	f, err := Read(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, f.Units, 1)

	u, err := f.Units[0].Decode()
	require.NoError(t, err)
	assert.Equal(t, "com/example/Greeter", u.Owner)
	assert.False(t, u.Static)

	insns := u.Instructions
	require.Len(t, insns, 11)
	assert.True(t, insns[0].IsLabel)
	assert.Same(t, insns[0].Target(), insns[3].Target())
	assert.Equal(t, insn.New(opcodes.BIPUSH, insn.Int(10)), insns[2])
	assert.Equal(t, insn.String("hello world"), insns[4].Operands[0])
	assert.Equal(t, insn.Long(5), insns[5].Operands[0])
	assert.Equal(t, insn.Float(0.5), insns[6].Operands[0])
	assert.Equal(t, insn.Double(2.25), insns[7].Operands[0])
	assert.Equal(t, insn.TypeRef("java/lang/String"), insns[8].Operands[0])
	assert.Len(t, insns[9].Operands, 3)
}

func TestReadRejectsUnknownFields(t *testing.T) {
	_, err := Read(strings.NewReader("units:\n- name: a\n  colour: blue\n"))
	assert.Error(t, err)

	_, err = Read(strings.NewReader("units:\n- owner: a/B\n"))
	assert.Error(t, err)
}

func TestParseInstructionErrors(t *testing.T) {
	labels := map[string]*insn.Label{}
	for _, line := range []string{"", "FROB 1", "LDC \"open", "BIPUSH 1x", "LABEL", "9bad:"} {
		_, err := ParseInstruction(line, labels)
		assert.Error(t, err, "%q", line)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	f, err := Read(strings.NewReader(sample))
	require.NoError(t, err)
	u, err := f.Units[0].Decode()
	require.NoError(t, err)

	out := Context(u)
	out.Encode(u.Instructions)
	assert.Equal(t, f.Units[0], out)

	var buf bytes.Buffer
	require.NoError(t, (&File{Units: []Unit{out}}).Write(&buf))
	again, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, f.Units, again.Units)
}

func TestFormatRenamesClashingLabels(t *testing.T) {
	a, b := insn.NewLabel("x"), insn.NewLabel("x")
	lines := Format([]insn.Instruction{insn.Mark(a), insn.New(opcodes.GOTO, b), insn.Mark(b), insn.Mark(insn.NewLabel("12"))})
	assert.Equal(t, []string{"x:", "GOTO L1", "L1:", "L2:"}, lines)
}
