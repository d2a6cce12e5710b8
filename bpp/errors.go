package bpp

import "github.com/pkg/errors"

// FatalError is what the BPP reports for anything that makes the wire
// stream impossible to continue parsing: a MAC or tag mismatch, a
// padding-length violation, a packet over the length ceiling, or an
// unexpected close of the input stream. Once returned from Pump the engine must
// not be driven again.
type FatalError struct {
	// Msg is suitable for inclusion in our own outgoing disconnect
	// message; it must not echo attacker-controlled bytes verbatim
	// (VU#958563 is exactly about a peer using error content as an
	// oracle), so construction sites pass fixed strings.
	Msg string
	err error
}

func (e *FatalError) Error() string { return e.Msg }
func (e *FatalError) Unwrap() error { return e.err }

func fatalf(msg string) *FatalError {
	return &FatalError{Msg: msg, err: errors.New(msg)}
}

func fatalWrap(msg string, cause error) *FatalError {
	return &FatalError{Msg: msg, err: errors.Wrap(cause, msg)}
}
