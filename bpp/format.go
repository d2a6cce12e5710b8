package bpp

import (
	"crypto/rand"

	"github.com/OpenListTeam/sftpd-openlist/bytechain"
)

// Send enqueues pkt for the next Drain call. Producers own pkt until
// they call Send; the engine owns it (and may mutate its buffer
// in-place) afterwards.
func (e *Engine) Send(pkt *PktOut) {
	e.outQueue = append(e.outQueue, pkt)
}

// Drain formats every packet enqueued by Send since the last call and
// appends the framed bytes to chain, which is the transport's actual
// outbound byte-chain — the CBC IGNORE workaround below reads its
// pending size to judge whether the previous packet is already on the
// wire.
func (e *Engine) Drain(chain *bytechain.Chain) {
	if len(e.outQueue) == 0 {
		return
	}
	cipherblk := e.out.cipherBlockSize()
	maclen := e.out.macLen()

	if e.cbcIgnoreWorkaroundDue(chain, cipherblk, maclen) {
		ignore := NewPktOut(MsgIgnore)
		ignore.B32String("")
		chain.Append(e.formatPacketInner(ignore, cipherblk, maclen))
	}

	for _, pkt := range e.outQueue {
		chain.Append(e.formatPacket(pkt, cipherblk, maclen))
	}
	e.outQueue = nil
}

// QueueDisconnect builds and sends a literal SSH_MSG_DISCONNECT packet
// (reason code + message + empty language tag).
func (e *Engine) QueueDisconnect(msg string, category int) {
	pkt := NewPktOut(MsgDisconnect)
	pkt.B32(uint32(category)).B32String(msg).B32String("")
	e.Send(pkt)
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return b
}

// formatPacket runs the MinLen IGNORE-padding strategy
// followed by the real packet's framing (compression, padding, the
// SEPARATE_LENGTH length-encryption hook, and the EtM vs mac-then-
// encrypt/no-mac split).
func (e *Engine) formatPacket(pkt *PktOut, cipherblk, maclen int) []byte {
	var out []byte
	if pkt.MinLen > 0 && isIdentityCompressor(e.comp) {
		if ignoreBytes := e.maybeMinLenIgnore(pkt, cipherblk, maclen); ignoreBytes != nil {
			out = append(out, ignoreBytes...)
		}
	}
	out = append(out, e.formatPacketInner(pkt, cipherblk, maclen)...)
	return out
}

func isIdentityCompressor(c interface{ Compress([]byte, int) []byte }) bool {
	type identity interface{ IsIdentity() bool }
	id, ok := c.(identity)
	return ok && id.IsIdentity()
}

// maybeMinLenIgnore computes whether pkt's eventual wire size will
// fall short of pkt.MinLen once padded (no compressor active to absorb
// the slack), and if so builds an SSH_MSG_IGNORE sized to close the
// gap.
func (e *Engine) maybeMinLenIgnore(pkt *PktOut, cipherblk, maclen int) []byte {
	block := cipherblk
	length := pkt.Len() + 4 // minimum 4-byte padding
	length += block - 1
	length -= length % block
	length += maclen

	if length >= pkt.MinLen {
		return nil
	}
	fill := pkt.MinLen - length
	fill -= maclen
	fill -= 8 // length field + min padding
	fill -= 5 // type code + string length prefix
	if fill < 0 {
		fill = 0
	}
	ignore := NewPktOut(MsgIgnore)
	ignore.B32Bytes(randomBytes(fill))
	return e.formatPacketInner(ignore, cipherblk, maclen)
}

// cbcIgnoreWorkaroundDue reports whether the previous packet's last
// cipher block has plausibly already reached the wire: the outbound
// chain holds less than one cipher block plus a MAC of pending bytes.
func (e *Engine) cbcIgnoreWorkaroundDue(chain *bytechain.Chain, cipherblk, maclen int) bool {
	if !e.cbcIgnoreWorkaround {
		return false
	}
	return chain.Size() < cipherblk+maclen
}

// formatPacketInner does the actual framing math and crypto for one
// packet, without the MinLen/CBC-workaround decision logic that wraps
// it.
func (e *Engine) formatPacketInner(pkt *PktOut, cipherblk, maclen int) []byte {
	if e.Logger != nil || e.Debugf != nil {
		e.logPacket(true, e.out.Sequence, pkt.Type, pkt.p.Out()[pkt.prefix:])
	}

	if e.comp != nil {
		minlen := 0
		// Only a real (non-identity) compressor is asked to pad its
		// output to close a MinLen gap; identity compression leaves
		// MinLen to the SSH_MSG_IGNORE strategy in formatPacket, since
		// zero-padding identity "compression" would corrupt the
		// payload rather than pad the wire frame.
		if pkt.MinLen > 0 && !isIdentityCompressor(e.comp) {
			minlen = pkt.MinLen - maclen - 8
		}
		payload := pkt.p.Out()[5:]
		compressed := e.comp.Compress(payload, minlen)
		pkt.p.Truncate(5)
		pkt.p.Bytes(compressed)
	}

	length := pkt.Len()
	unencryptedPrefix := 0
	if e.out.Mac != nil && e.out.EtmMode {
		unencryptedPrefix = 4
	}
	padding := 4
	padding += (cipherblk - (length-unencryptedPrefix+padding)%cipherblk) % cipherblk
	if pkt.ForcePad > padding {
		padding = pkt.ForcePad
	}
	if padding > 255 {
		panic("bpp: padding computation exceeded 255 bytes")
	}

	origlen := length
	pkt.p.Bytes(randomBytes(padding))
	data := pkt.p.Out()
	data[4] = byte(padding)
	putU32(data[0:4], uint32(origlen+padding-4))

	if e.out.separateLength() {
		e.out.Cipher.EncryptLength(data[0:4], e.out.Sequence)
	}

	data = append(data, make([]byte, maclen)...)

	if e.out.Mac != nil && e.out.EtmMode {
		if e.out.Cipher != nil {
			e.out.Cipher.Encrypt(data[4 : origlen+padding])
		}
		e.out.Mac.Generate(data, origlen+padding, e.out.Sequence)
	} else {
		if e.out.Mac != nil {
			e.out.Mac.Generate(data, origlen+padding, e.out.Sequence)
		}
		if e.out.Cipher != nil {
			e.out.Cipher.Encrypt(data[0 : origlen+padding])
		}
	}

	e.out.Sequence++
	if e.stats.ConsumeOut(uint64(origlen + padding)) {
		e.needRekeyOut = true
	}

	return data
}
