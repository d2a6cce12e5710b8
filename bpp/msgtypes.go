package bpp

// SSH-2 transport-layer message numbers the engine itself must
// recognize, per RFC 4253 §12. Everything else is opaque payload as far
// as the BPP is concerned; it only inspects the type byte to catch
// NEWKEYS (rekey boundary) and to decide whether an inbound packet type
// is outside the range the upper layer is expected to have a handler
// for (triggering SSH_MSG_UNIMPLEMENTED). Inbound DISCONNECT, IGNORE and
// DEBUG packets are delivered to the upper queue like any other.
const (
	MsgDisconnect     byte = 1
	MsgIgnore         byte = 2
	MsgUnimplemented  byte = 3
	MsgDebug          byte = 4
	MsgServiceRequest byte = 5
	MsgServiceAccept  byte = 6
	MsgKexInit        byte = 20
	MsgNewKeys        byte = 21

	msgTransportMax    byte = 49
	msgConnectionMin   byte = 80
	msgConnectionMax   byte = 127
)

// isUnimplementedRange reports whether the engine consumes a packet
// type itself rather than delivering it to the upper queue: the gap
// between the transport range and the connection range, where numbers
// are reserved but undefined and no layer above registers a handler.
func isUnimplementedRange(t byte) bool {
	return t > msgTransportMax && t < msgConnectionMin
}

// DisconnectReason codes from RFC 4253 §11.1, for QueueDisconnect
// callers.
const (
	DisconnectProtocolError               = 2
	DisconnectKeyExchangeFailed           = 3
	DisconnectMacError                    = 5
	DisconnectProtocolVersionNotSupported = 10
	DisconnectByApplication               = 11
)
