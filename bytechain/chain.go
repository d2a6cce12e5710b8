// Package bytechain implements the FIFO byte queues that sit between the
// transport and the BPP in each direction: an input chain the transport
// appends to and the engine consumes from, and an output chain the engine
// appends to and the transport drains.
package bytechain

import "github.com/taruti/bytepool"

// block is one append'd slice plus a read cursor into it. Chain keeps a
// list of these rather than a single flat slice so that Append never has
// to copy existing data, keeping Append amortized O(1).
type block struct {
	data []byte
	pos  int
}

func (b *block) remaining() int { return len(b.data) - b.pos }

// Chain is a single-producer/single-consumer FIFO of opaque bytes.
// It is not safe for concurrent use by multiple goroutines; each
// direction of a session owns exactly one Chain.
type Chain struct {
	blocks []*block
	size   int
	eof    bool
	err    error
}

// New returns an empty Chain.
func New() *Chain {
	return &Chain{}
}

// Size reports the number of unconsumed bytes currently queued.
func (c *Chain) Size() int { return c.size }

// Append adds bytes to the tail of the chain. The caller's slice is
// retained, not copied; callers must not mutate it afterwards.
func (c *Chain) Append(data []byte) {
	if len(data) == 0 {
		return
	}
	c.blocks = append(c.blocks, &block{data: data})
	c.size += len(data)
}

// SetEOF marks that Append will never be called again. Once EOF is set
// and all queued bytes have been consumed, TryFetchConsume always fails.
func (c *Chain) SetEOF() { c.eof = true }

// Fail is SetEOF with the transport error that ended the stream, so
// the consumer can report why rather than just that it stopped.
func (c *Chain) Fail(err error) {
	c.eof = true
	c.err = err
}

// EOF reports whether SetEOF or Fail has been called.
func (c *Chain) EOF() bool { return c.eof }

// Err returns the error recorded by Fail, or nil after a clean SetEOF.
func (c *Chain) Err() error { return c.err }

// TryFetchConsume copies exactly len(dst) bytes out of the head of the
// chain into dst and removes them, returning true, or leaves the chain
// untouched and returns false if fewer than len(dst) bytes are queued.
func (c *Chain) TryFetchConsume(dst []byte) bool {
	n := len(dst)
	if n == 0 {
		return true
	}
	if c.size < n {
		return false
	}

	off := 0
	remaining := n
	for remaining > 0 {
		b := c.blocks[0]
		avail := b.remaining()
		take := avail
		if take > remaining {
			take = remaining
		}
		copy(dst[off:off+take], b.data[b.pos:b.pos+take])
		off += take
		remaining -= take
		if take == avail {
			c.blocks = c.blocks[1:]
		} else {
			b.pos += take
		}
	}
	c.size -= n
	return true
}

// AllocScratch returns a scratch buffer of at least n bytes, drawn from a
// shared pool so repeated per-packet allocation in the BPP hot path
// doesn't thrash the allocator. Pair with FreeScratch once the buffer is
// no longer needed.
func AllocScratch(n int) []byte {
	return bytepool.Alloc(n)
}

// FreeScratch returns a buffer obtained from AllocScratch to the pool.
func FreeScratch(buf []byte) {
	bytepool.Free(buf)
}
