package insn

// Stream is a forward-only cursor over an instruction list.
type Stream struct {
	insns []Instruction
	pos   int
}

func NewStream(insns []Instruction) *Stream {
	return &Stream{insns: insns}
}

func (s *Stream) Empty() bool {
	return s.pos >= len(s.insns)
}

// Current returns the instruction under the cursor. It must not be
// called on an empty stream.
func (s *Stream) Current() Instruction {
	return s.insns[s.pos]
}

func (s *Stream) Advance() {
	if s.pos < len(s.insns) {
		s.pos++
	}
}

// Position is the index of the current instruction.
func (s *Stream) Position() int {
	return s.pos
}

func (s *Stream) Len() int {
	return len(s.insns)
}
