package sshcrypto

import (
	"encoding/binary"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/poly1305"
)

// chacha20-poly1305@openssh.com is the reference grounding for the
// SEPARATE_LENGTH cipher flag: the 4-byte length prefix is encrypted
// with an independent chacha20 instance (keyed separately) so the
// packet length can be recovered before the body or the MAC is
// checked. The body cipher and the MAC share the same main key, the
// way the real OpenSSH scheme derives its Poly1305 one-time key from
// block zero of the body cipher's keystream. It is kept intentionally
// close to the real construction so the SeparateLength round-trip
// tests exercise a believable wire format.
type chachaCipher struct {
	mainKey [32]byte
	lenKey  [32]byte
	seq     uint64
	decrypt bool
}

// NewChaCha20Poly1305 returns a paired Cipher/Mac set. mainKey is used
// both to derive the per-packet body keystream and (via block zero) the
// Poly1305 one-time key; lenKey is used only for the length field.
func NewChaCha20Poly1305(mainKey, lenKey [32]byte, decrypt bool) (Cipher, Mac) {
	c := &chachaCipher{mainKey: mainKey, lenKey: lenKey, decrypt: decrypt}
	m := &chachaPolyMac{mainKey: mainKey}
	return c, m
}

func nonceFor(seq uint64) [12]byte {
	var n [12]byte
	binary.BigEndian.PutUint64(n[4:], seq)
	return n
}

func (c *chachaCipher) BlockSize() int { return 1 }
func (c *chachaCipher) Flags() Flags   { return SeparateLength }

func (c *chachaCipher) crypt(buf []byte) {
	nonce := nonceFor(c.seq)
	c.seq++

	stream, err := chacha20.NewUnauthenticatedCipher(c.mainKey[:], nonce[:])
	if err != nil {
		panic(err)
	}
	stream.SetCounter(1) // block 0 is reserved for the Poly1305 subkey
	stream.XORKeyStream(buf, buf)
}

func (c *chachaCipher) Encrypt(buf []byte) { c.crypt(buf) }
func (c *chachaCipher) Decrypt(buf []byte) { c.crypt(buf) }

func (c *chachaCipher) lenCrypt(buf []byte, seq uint32) {
	nonce := nonceFor(uint64(seq))
	stream, err := chacha20.NewUnauthenticatedCipher(c.lenKey[:], nonce[:])
	if err != nil {
		panic(err)
	}
	stream.XORKeyStream(buf[:4], buf[:4])
}

func (c *chachaCipher) EncryptLength(buf []byte, seq uint32) { c.lenCrypt(buf, seq) }
func (c *chachaCipher) DecryptLength(buf []byte, seq uint32) { c.lenCrypt(buf, seq) }

// chachaPolyMac implements Mac via Poly1305 one-time keys derived per
// packet from the body cipher's main key, matching the integrated MAC
// of chacha20-poly1305@openssh.com. The incremental Start/Put/
// VerifyResult API only exists to satisfy the Mac interface used by the
// CBC mac-then-encrypt path; this cipher never sets
// IsCBC, so that path is never taken with it and those methods panic
// rather than pretend to support a mode this MAC cannot.
type chachaPolyMac struct {
	mainKey [32]byte
}

func (m *chachaPolyMac) Len() int { return poly1305.TagSize }

func (m *chachaPolyMac) Start() {
	panic("sshcrypto: chacha20-poly1305 mac does not support incremental use")
}
func (m *chachaPolyMac) Put(data []byte) {
	panic("sshcrypto: chacha20-poly1305 mac does not support incremental use")
}
func (m *chachaPolyMac) VerifyResult(tag []byte) bool {
	panic("sshcrypto: chacha20-poly1305 mac does not support incremental use")
}

func (m *chachaPolyMac) subkey(seq uint32) [32]byte {
	nonce := nonceFor(uint64(seq))
	stream, err := chacha20.NewUnauthenticatedCipher(m.mainKey[:], nonce[:])
	if err != nil {
		panic(err)
	}
	var key [32]byte
	var zero [32]byte
	stream.XORKeyStream(key[:], zero[:])
	return key
}

func (m *chachaPolyMac) Generate(data []byte, n int, seq uint32) {
	key := m.subkey(seq)
	var tag [poly1305.TagSize]byte
	poly1305.Sum(&tag, data[:n], &key)
	copy(data[n:n+poly1305.TagSize], tag[:])
}

func (m *chachaPolyMac) Verify(data []byte, n int, seq uint32) bool {
	key := m.subkey(seq)
	var tag [poly1305.TagSize]byte
	poly1305.Sum(&tag, data[:n], &key)
	return poly1305Equal(tag[:], data[n:n+poly1305.TagSize])
}

func poly1305Equal(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}
