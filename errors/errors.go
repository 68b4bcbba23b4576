package errors

import (
	"fmt"

	"github.com/pontaoski/bytetree/types"
)

type ExpectedKindGotKind struct {
	Expected types.TokenKind
	Got      types.TokenKind
	Location types.Span
}

func (e ExpectedKindGotKind) Error() string {
	return fmt.Sprintf("got a %s, expected a %s. %s", e.Got, e.Expected, e.Location)
}

type ExpectedOneOfKindGotKind struct {
	Expected []types.TokenKind
	Got      types.TokenKind
	Location types.Span
}

func (e ExpectedOneOfKindGotKind) Error() string {
	return fmt.Sprintf("got a %s, expected one of %s. %s", e.Got, e.Expected, e.Location)
}

// StackUnderflow is raised when a pop asks for more values than the
// operand stack holds.
type StackUnderflow struct {
	Requested int
	Available int
	At        int
}

func (e StackUnderflow) Error() string {
	return fmt.Sprintf("stack underflow at instruction %d: wanted %d value(s), have %d", e.At, e.Requested, e.Available)
}

// TypeResolutionFailure is raised when an untyped node is used where a
// type is required.
type TypeResolutionFailure struct {
	Node   string
	Reason string
}

func (e TypeResolutionFailure) Error() string {
	return fmt.Sprintf("cannot resolve type of %s: %s", e.Node, e.Reason)
}

type CastNotMapped struct {
	From types.Type
	To   types.Type
}

func (e CastNotMapped) Error() string {
	return fmt.Sprintf("no conversion from %s to %s", e.From, e.To)
}

// MalformedTree is raised while reading an externally supplied tree.
type MalformedTree struct {
	Base    string
	Missing string
	Detail  string
}

func (e MalformedTree) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("malformed %s node: %s", e.Base, e.Detail)
	}
	return fmt.Sprintf("malformed %s node: missing %s", e.Base, e.Missing)
}

// InvalidMachineState is raised when a rule returns without consuming
// its instruction.
type InvalidMachineState struct {
	Rule     string
	Opcode   string
	Position int
}

func (e InvalidMachineState) Error() string {
	return fmt.Sprintf("rule %s did not consume %s at instruction %d", e.Rule, e.Opcode, e.Position)
}

type BadDescriptor struct {
	Descriptor string
	Err        error
}

func (e BadDescriptor) Error() string {
	return fmt.Sprintf("bad descriptor %q: %s", e.Descriptor, e.Err)
}

func (e BadDescriptor) Unwrap() error {
	return e.Err
}

type BadOperand struct {
	Opcode string
	Index  int
	Want   string
}

func (e BadOperand) Error() string {
	return fmt.Sprintf("%s: operand %d is not %s", e.Opcode, e.Index, e.Want)
}

// Unsupported is raised by lowering passes that only handle a subset of
// the node model.
type Unsupported struct {
	What string
}

func (e Unsupported) Error() string {
	return fmt.Sprintf("unsupported: %s", e.What)
}

// UnknownReference is raised when a serialized tree refers to a
// duplicated value that was never defined.
type UnknownReference struct {
	ID       int
	Location types.Span
}

func (e UnknownReference) Error() string {
	return fmt.Sprintf("reference to undefined value #%d. %s", e.ID, e.Location)
}

type IllegalCharacter struct {
	Char     rune
	Location types.Span
}

func (e IllegalCharacter) Error() string {
	return fmt.Sprintf("illegal character %q. %s", e.Char, e.Location)
}

// RoundTripMismatch is reported when recompiling a decompiled unit does
// not give back its instructions.
type RoundTripMismatch struct {
	Unit string
	Err  error
}

func (e RoundTripMismatch) Error() string {
	return fmt.Sprintf("%s does not round trip: %s", e.Unit, e.Err)
}

func (e RoundTripMismatch) Unwrap() error {
	return e.Err
}
