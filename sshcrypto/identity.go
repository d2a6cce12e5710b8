package sshcrypto

// noCompressor is the designated null compression algorithm: installing
// it always yields a non-nil Compressor/Decompressor pair (compression
// is never represented by a nil handle), but both are
// identity operations. Decompress reports false so the BPP leaves the
// payload untouched rather than reallocating PktIn for a no-op copy.
type noCompressor struct{}

func (noCompressor) Compress(in []byte, minOutLen int) []byte {
	// Identity output has nowhere to hide filler: minOutLen is ignored,
	// and the BPP's formatter closes any MinLen gap with an IGNORE
	// packet instead.
	return in
}

// IsIdentity lets the packet formatter tell whether a Compressor is
// the identity algorithm: identity is always installed as a non-nil
// handle, and the MinLen strategy branches on "no real compression"
// rather than on a nil check.
func (noCompressor) IsIdentity() bool { return true }

type noDecompressor struct{}

func (noDecompressor) Decompress(in []byte) ([]byte, bool) { return nil, false }

// NewNoCompressor returns the identity Compressor.
func NewNoCompressor() Compressor { return noCompressor{} }

// NewNoDecompressor returns the identity Decompressor.
func NewNoDecompressor() Decompressor { return noDecompressor{} }
