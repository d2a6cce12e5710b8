package sshcrypto

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"
)

// zlibCompressor/zlibDecompressor implement the SSH "zlib" packet
// compression algorithm (a raw deflate stream per direction, continued
// across packets with a sync flush at every packet boundary) on top of
// klauspost/compress's drop-in, faster flate implementation — the same
// package rclone depends on, rather than the standard library's
// compress/flate.
type zlibCompressor struct {
	w   *flate.Writer
	buf bytes.Buffer
}

// NewZlibCompressor returns a Compressor backed by a continuous deflate
// stream, matching SSH's "zlib" algorithm semantics.
func NewZlibCompressor() Compressor {
	c := &zlibCompressor{}
	w, _ := flate.NewWriter(&c.buf, flate.DefaultCompression)
	c.w = w
	return c
}

func (c *zlibCompressor) Compress(in []byte, minOutLen int) []byte {
	c.buf.Reset()
	if len(in) > 0 {
		_, _ = c.w.Write(in)
	}
	_ = c.w.Flush()
	out := append([]byte(nil), c.buf.Bytes()...)

	// Pad with additional empty stored blocks (each Flush emits one),
	// which decompress to nothing, until the wire form reaches minOutLen.
	for len(out) < minOutLen {
		c.buf.Reset()
		_ = c.w.Flush()
		out = append(out, c.buf.Bytes()...)
	}
	return out
}

// maxDictSize is deflate's sliding-window size: back-references in one
// packet can reach at most this far into previously decompressed data.
const maxDictSize = 32768

type zlibDecompressor struct {
	r    io.ReadCloser
	dict []byte
}

// NewZlibDecompressor returns a Decompressor matching NewZlibCompressor.
// Each packet's compressed data starts at a sync-flush boundary, so it
// can be decoded as a fresh deflate block sequence primed with the last
// window's worth of previously decompressed output as dictionary.
func NewZlibDecompressor() Decompressor {
	return &zlibDecompressor{r: flate.NewReader(bytes.NewReader(nil))}
}

func (d *zlibDecompressor) Decompress(in []byte) ([]byte, bool) {
	if err := d.r.(flate.Resetter).Reset(bytes.NewReader(in), d.dict); err != nil {
		return nil, false
	}
	// The stream never carries a final-block marker (the compressor only
	// ever sync-flushes), so draining it ends in ErrUnexpectedEOF; that
	// is the expected terminator here, not a failure.
	out, err := io.ReadAll(d.r)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, false
	}

	d.dict = append(d.dict, out...)
	if len(d.dict) > maxDictSize {
		d.dict = d.dict[len(d.dict)-maxDictSize:]
	}
	return out, true
}
