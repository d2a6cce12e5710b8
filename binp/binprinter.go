package binp

import "encoding/binary"

// Printer is the binary sink half of binp: an append-only builder for
// big-endian integers, length-prefixed strings, and raw byte runs,
// chaining the way Reader does. Writes cannot fail, so unlike Reader it
// carries no error flag; call Out once the message is complete.
type Printer struct {
	buf []byte
}

// Out returns an empty Printer.
func Out() *Printer {
	return &Printer{}
}

// OutCap returns an empty Printer pre-sized to hold capacity bytes
// before its first reallocation. Use it for messages whose rough size
// is known up front, like SSH-2 packet headers.
func OutCap(capacity int) *Printer {
	return &Printer{buf: make([]byte, 0, capacity)}
}

// Byte appends a single byte.
func (p *Printer) Byte(d byte) *Printer {
	p.buf = append(p.buf, d)
	return p
}

// B32 appends a big-endian uint32.
func (p *Printer) B32(d uint32) *Printer {
	p.buf = binary.BigEndian.AppendUint32(p.buf, d)
	return p
}

// B64 appends a big-endian uint64.
func (p *Printer) B64(d uint64) *Printer {
	p.buf = binary.BigEndian.AppendUint64(p.buf, d)
	return p
}

// B32String appends a uint32 length prefix followed by the string's
// bytes, with no terminator.
func (p *Printer) B32String(d string) *Printer {
	p.buf = binary.BigEndian.AppendUint32(p.buf, uint32(len(d)))
	p.buf = append(p.buf, d...)
	return p
}

// B32Bytes appends a uint32 length prefix followed by the raw bytes.
func (p *Printer) B32Bytes(d []byte) *Printer {
	p.buf = binary.BigEndian.AppendUint32(p.buf, uint32(len(d)))
	p.buf = append(p.buf, d...)
	return p
}

// Bytes appends raw bytes with no length prefix.
func (p *Printer) Bytes(d []byte) *Printer {
	p.buf = append(p.buf, d...)
	return p
}

// String appends the string's bytes with no length prefix.
func (p *Printer) String(d string) *Printer {
	p.buf = append(p.buf, d...)
	return p
}

// String0 appends the string's bytes followed by a single null byte.
func (p *Printer) String0(d string) *Printer {
	p.buf = append(append(p.buf, d...), 0)
	return p
}

// Skip appends n zero bytes, reserving space for a header field to be
// patched once its value is known.
func (p *Printer) Skip(n int) *Printer {
	p.buf = append(p.buf, make([]byte, n)...)
	return p
}

// Truncate discards everything written past offset n, so a region
// reserved with Skip (or a payload being replaced wholesale, as the
// packet compressor does) can be re-populated. n must not exceed Len.
func (p *Printer) Truncate(n int) *Printer {
	p.buf = p.buf[:n]
	return p
}

// Len reports the number of bytes written so far.
func (p *Printer) Len() int {
	return len(p.buf)
}

// Out returns the accumulated bytes. The slice aliases the Printer's
// internal buffer; further writes may grow away from it.
func (p *Printer) Out() []byte {
	return p.buf
}
