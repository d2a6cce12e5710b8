package sftp

import "fmt"

// StatusError is a semantic SSH_FX_* failure returned by the remote
// end: the "*Recv" functions booleanize this, but the code and message
// are preserved on the Client so callers can inspect what actually
// went wrong.
type StatusError struct {
	Code    uint32
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("sftp: %s (code %d)", e.Message, e.Code)
	}
	return fmt.Sprintf("sftp: %s", statusMessage(e.Code))
}

// ProtocolError reports a malformed NAME/HANDLE/ATTRS/DATA response:
// protocol-local and non-fatal to the underlying SSH session.
type ProtocolError struct {
	Op  string
	Msg string
}

func (e *ProtocolError) Error() string { return fmt.Sprintf("sftp: %s: %s", e.Op, e.Msg) }

func protoErrf(op, format string, args ...interface{}) error {
	return &ProtocolError{Op: op, Msg: fmt.Sprintf(format, args...)}
}
