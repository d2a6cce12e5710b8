package binp

import "encoding/binary"

// Reader is the binary source half of binp: a cursor over a fixed byte
// slice that decodes big-endian integers and length-prefixed strings,
// chaining the way Printer does. Once any read runs past the end of the
// slice the error flag sticks — every subsequent call becomes a no-op so
// a long chain of field reads can be written without checking each one,
// and End (or Err) reports the truncation once at the end of the chain.
type Reader struct {
	b   []byte
	pos int
	err bool
}

// NewReader wraps buf for reading. The slice is not copied.
func NewReader(buf []byte) *Reader {
	return &Reader{b: buf}
}

// Err reports whether any read on this Reader has run past the end of
// the underlying slice.
func (r *Reader) Err() bool { return r.err }

// Avail returns the number of unread bytes, or 0 once the sticky error
// flag is set.
func (r *Reader) Avail() int {
	if r.err {
		return 0
	}
	return len(r.b) - r.pos
}

func (r *Reader) take(n int) []byte {
	if r.err || n < 0 || r.pos+n > len(r.b) {
		r.err = true
		return nil
	}
	out := r.b[r.pos : r.pos+n]
	r.pos += n
	return out
}

// Byte reads one byte into *d.
func (r *Reader) Byte(d *byte) *Reader {
	bs := r.take(1)
	if bs != nil {
		*d = bs[0]
	}
	return r
}

// B32 reads a big-endian uint32 into *d.
func (r *Reader) B32(d *uint32) *Reader {
	bs := r.take(4)
	if bs != nil {
		*d = binary.BigEndian.Uint32(bs)
	}
	return r
}

// B64 reads a big-endian uint64 into *d.
func (r *Reader) B64(d *uint64) *Reader {
	bs := r.take(8)
	if bs != nil {
		*d = binary.BigEndian.Uint64(bs)
	}
	return r
}

// B32String reads a uint32 length prefix followed by that many raw
// bytes, and stores the result as a string in *d.
func (r *Reader) B32String(d *string) *Reader {
	var n uint32
	r.B32(&n)
	bs := r.take(int(n))
	if bs != nil {
		*d = string(bs)
	}
	return r
}

// B32Bytes reads a uint32 length prefix followed by that many raw
// bytes, and stores a copy of them in *d.
func (r *Reader) B32Bytes(d *[]byte) *Reader {
	var n uint32
	r.B32(&n)
	bs := r.take(int(n))
	if bs != nil {
		cp := make([]byte, len(bs))
		copy(cp, bs)
		*d = cp
	}
	return r
}

// BytesPeek reads exactly n raw bytes (no length prefix) into *d,
// referencing the underlying slice without copying.
func (r *Reader) BytesPeek(n int, d *[]byte) *Reader {
	bs := r.take(n)
	if bs != nil {
		*d = bs
	}
	return r
}

// Rest returns every remaining unread byte and marks the reader
// exhausted.
func (r *Reader) Rest() []byte {
	bs := r.take(r.Avail())
	return bs
}

// End returns the sticky error, if any, so a long chain of field reads
// can be checked once at its end.
func (r *Reader) End() error {
	if r.err {
		return ErrTruncated
	}
	return nil
}
