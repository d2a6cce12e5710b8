package bpp

import "github.com/OpenListTeam/sftpd-openlist/binp"

// MsgType is an SSH-2 packet type byte widened so NoTypeCode (a sentinel
// that must not collide with any real wire value) fits.
type MsgType int

// NoTypeCode marks a PktIn whose (decompressed) payload region was
// empty, so it carried no type byte.
const NoTypeCode MsgType = 256

// PktIn is one fully decrypted, decompressed, verified incoming packet.
// Its payload is read with the same chained-call style as binp.Reader,
// which it embeds; callers consume it once and then discard it.
type PktIn struct {
	*binp.Reader

	Type     MsgType
	Sequence uint32
}

func newPktIn(typ MsgType, seq uint32, payload []byte) *PktIn {
	return &PktIn{Reader: binp.NewReader(payload), Type: typ, Sequence: seq}
}

// PktOut is an outgoing packet under construction. Payload fields are
// written through PktOut's Printer-style methods, which forward to a
// wrapped binp.Printer; NewPktOut writes the type byte, and the BPP
// fills in the length and padding header when it formats the packet.
type PktOut struct {
	p      *binp.Printer
	Type   byte
	prefix int

	// MinLen is a lower bound on the wire bytes this packet occupies.
	// With identity compression a random-filled SSH_MSG_IGNORE packet is
	// sent ahead of it to close any gap; with a real compressor the
	// compressed payload is padded instead. Zero means no minimum.
	MinLen int
	// ForcePad is a minimum padding length: when it exceeds the padding
	// the engine computes, it is used instead. Zero means no minimum.
	ForcePad int
}

// NewPktOut starts a packet of the given SSH-2 message type. Write the
// payload through the returned value's Printer-style methods, then hand
// it to Engine.Send.
func NewPktOut(typ byte) *PktOut {
	p := binp.OutCap(64)
	p.Skip(5).Byte(typ) // 4-byte length + 1-byte padlen, filled in later
	return &PktOut{p: p, Type: typ, prefix: p.Len()}
}

func (pk *PktOut) Byte(d byte) *PktOut          { pk.p.Byte(d); return pk }
func (pk *PktOut) B32(d uint32) *PktOut         { pk.p.B32(d); return pk }
func (pk *PktOut) B64(d uint64) *PktOut         { pk.p.B64(d); return pk }
func (pk *PktOut) B32String(d string) *PktOut   { pk.p.B32String(d); return pk }
func (pk *PktOut) B32Bytes(d []byte) *PktOut    { pk.p.B32Bytes(d); return pk }
func (pk *PktOut) Bytes(d []byte) *PktOut       { pk.p.Bytes(d); return pk }
func (pk *PktOut) String0(d string) *PktOut     { pk.p.String0(d); return pk }

// Len reports the current size of the packet, header included.
func (pk *PktOut) Len() int { return pk.p.Len() }
