// Package sshcrypto defines the capability-interface contracts the BPP
// depends on for ciphers, MACs, and compression, plus a handful of
// concrete handles the rest of the module and its tests drive them with.
// The BPP itself never knows which concrete algorithm it's holding; it
// only consults the flags and operations declared here.
package sshcrypto

// Flags describes cipher capabilities the BPP's framing logic branches
// on.
type Flags uint32

const (
	// IsCBC marks a cipher operating in CBC mode, which triggers the
	// mac-then-encrypt incremental-verification input path (VU#958563).
	IsCBC Flags = 1 << iota
	// SeparateLength marks a cipher that encrypts the 4-byte length
	// prefix with its own operation distinct from the body cipher
	// (e.g. chacha20-poly1305@openssh.com).
	SeparateLength
)

// Cipher is a block or stream cipher handle. BlockSize reports the
// cipher's natural block size; callers treat anything under 8 as 8 for
// framing purposes. Encrypt and Decrypt operate in place and
// require n to be a multiple of BlockSize unless the cipher is a stream
// cipher (BlockSize==1).
type Cipher interface {
	BlockSize() int
	Flags() Flags
	Encrypt(buf []byte)
	Decrypt(buf []byte)

	// EncryptLength and DecryptLength operate on the first 4 bytes of
	// buf (the wire length prefix) using a cipher state independent of
	// the body cipher's stream position. Only meaningful when Flags
	// includes SeparateLength.
	EncryptLength(buf []byte, seq uint32)
	DecryptLength(buf []byte, seq uint32)
}

// Mac is a message authentication code handle. Len reports the fixed
// tag size in bytes. The incremental Start/Put/VerifyResult trio backs
// the CBC mac-then-encrypt retry loop; Generate/Verify are
// the one-shot form used everywhere else.
type Mac interface {
	Len() int

	Start()
	Put(data []byte)
	// VerifyResult compares the MAC's running state against the tag
	// found at the given location without resetting the running state,
	// so the caller can keep feeding more data and try again.
	VerifyResult(tag []byte) bool

	// Generate computes the tag for packet sequence number seq over
	// data[0:n] and writes it at data[n:n+Len()], which the caller has
	// already allocated.
	Generate(data []byte, n int, seq uint32)
	// Verify checks the tag stored at data[n:n+Len()] against the tag
	// Generate would compute for seq and data[0:n].
	Verify(data []byte, n int, seq uint32) bool
}

// Compressor compresses outbound packet payloads.
type Compressor interface {
	// Compress returns compressed output for in, padded (with an
	// algorithm-defined filler, e.g. empty deflate blocks) to at least
	// minOutLen bytes if minOutLen > 0.
	Compress(in []byte, minOutLen int) []byte
}

// Decompressor decompresses inbound packet payloads.
type Decompressor interface {
	// Decompress returns the decompressed form of in and true, or
	// (nil, false) if this payload should be passed through unchanged
	// (used by the identity algorithm and to let callers share one
	// decompressor across packet types that are never compressed).
	Decompress(in []byte) ([]byte, bool)
}
