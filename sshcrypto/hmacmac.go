package sshcrypto

import (
	"crypto/hmac"
	"encoding/binary"
	"hash"
)

// hmacMac implements Mac over any stdlib hash constructor (sha1, sha256,
// ...). crypto/hmac is the only reasonable choice here: it's the
// primitive itself, not a format/feature library, so there is no
// ecosystem alternative to reach for instead.
type hmacMac struct {
	newHash func() hash.Hash
	key     []byte
	length  int

	running hash.Hash // used by Start/Put/VerifyResult
}

// NewHMAC builds a Mac around HMAC with the given hash constructor
// (e.g. sha256.New) and key.
func NewHMAC(newHash func() hash.Hash, key []byte) Mac {
	h := hmac.New(newHash, key)
	return &hmacMac{newHash: newHash, key: append([]byte(nil), key...), length: h.Size()}
}

func (m *hmacMac) Len() int { return m.length }

func (m *hmacMac) Start() {
	m.running = hmac.New(m.newHash, m.key)
}

func (m *hmacMac) Put(data []byte) {
	m.running.Write(data)
}

func (m *hmacMac) VerifyResult(tag []byte) bool {
	sum := m.running.Sum(nil)
	return hmac.Equal(sum, tag[:m.length])
}

func (m *hmacMac) Generate(data []byte, n int, seq uint32) {
	sum := m.sum(data[:n], seq)
	copy(data[n:n+m.length], sum)
}

func (m *hmacMac) Verify(data []byte, n int, seq uint32) bool {
	sum := m.sum(data[:n], seq)
	return hmac.Equal(sum, data[n:n+m.length])
}

func (m *hmacMac) sum(data []byte, seq uint32) []byte {
	h := hmac.New(m.newHash, m.key)
	var seqBuf [4]byte
	binary.BigEndian.PutUint32(seqBuf[:], seq)
	h.Write(seqBuf[:])
	h.Write(data)
	return h.Sum(nil)
}
