// Package sftp implements the SFTP client core atop an established SSH
// channel: request-ID allocation, the wire packet layer, the
// split-phase REALPATH/OPEN/READ/WRITE/... primitives, and the xfer
// pipelining engine for bulk downloads and uploads.
package sftp

// ProtoVersion is the SFTP protocol version this client advertises in
// its INIT packet. Version negotiation is accept-if-not-newer: any
// remote version above ours is rejected.
const ProtoVersion = 3

// SSH_FXP_* message type codes, IETF SFTP draft-ietf-secsh-filexfer-02.
const (
	FxpInit     byte = 1
	FxpVersion  byte = 2
	FxpOpen     byte = 3
	FxpClose    byte = 4
	FxpRead     byte = 5
	FxpWrite    byte = 6
	FxpLstat    byte = 7
	FxpFstat    byte = 8
	FxpSetstat  byte = 9
	FxpFsetstat byte = 10
	FxpOpendir  byte = 11
	FxpReaddir  byte = 12
	FxpRemove   byte = 13
	FxpMkdir    byte = 14
	FxpRmdir    byte = 15
	FxpRealpath byte = 16
	FxpStat     byte = 17
	FxpRename   byte = 18
	FxpReadlink byte = 19
	FxpSymlink  byte = 20

	FxpStatus byte = 101
	FxpHandle byte = 102
	FxpData   byte = 103
	FxpName   byte = 104
	FxpAttrs  byte = 105
)

// SSH_FX_* status codes. statusMessages indexes this table directly.
const (
	FxOK               uint32 = 0
	FxEOF              uint32 = 1
	FxNoSuchFile       uint32 = 2
	FxPermissionDenied uint32 = 3
	FxFailure          uint32 = 4
	FxBadMessage       uint32 = 5
	FxNoConnection     uint32 = 6
	FxConnectionLost   uint32 = 7
	FxOpUnsupported    uint32 = 8
)

var statusMessages = [...]string{
	FxOK:               "Succeeded",
	FxEOF:              "End of file",
	FxNoSuchFile:       "No such file or directory",
	FxPermissionDenied: "Permission denied",
	FxFailure:          "Failure",
	FxBadMessage:       "Bad message",
	FxNoConnection:     "No connection",
	FxConnectionLost:   "Connection lost",
	FxOpUnsupported:    "Operation unsupported",
}

func statusMessage(code uint32) string {
	if int(code) < len(statusMessages) {
		return statusMessages[code]
	}
	return "Unknown error"
}

// SSH_FXF_* open flags (draft-02, used by OPEN's pflags field).
const (
	FxfRead   uint32 = 0x00000001
	FxfWrite  uint32 = 0x00000002
	FxfAppend uint32 = 0x00000004
	FxfCreat  uint32 = 0x00000008
	FxfTrunc  uint32 = 0x00000010
	FxfExcl   uint32 = 0x00000020
)
