package bpp

// Counter tracks how much data has crossed one direction of the
// connection, for the purpose of triggering an SSH-2 rekey once a
// configured limit is exceeded. Once Running flips false the limit is
// considered hit for good: Remaining is no longer decremented, so it
// can never wrap back around to a small value and re-trigger.
type Counter struct {
	Running   bool
	Remaining uint64
}

// consume subtracts size from the counter and reports whether this
// call is the one that crossed the limit.
func (c *Counter) consume(size uint64) bool {
	if !c.Running {
		return false
	}
	if c.Remaining <= size {
		c.Running = false
		return true
	}
	c.Remaining -= size
	return false
}

// DataTransferStats holds the per-direction rekey counters consulted by
// every framed packet.
type DataTransferStats struct {
	In, Out Counter
}

// NewDataTransferStats returns stats with rekeying disabled in both
// directions; call SetLimits to arm it.
func NewDataTransferStats() *DataTransferStats {
	return &DataTransferStats{}
}

// SetLimits arms both directions with the given byte budgets.
func (s *DataTransferStats) SetLimits(in, out uint64) {
	s.In = Counter{Running: true, Remaining: in}
	s.Out = Counter{Running: true, Remaining: out}
}

// ConsumeIn charges size bytes to the inbound counter, reporting
// whether a rekey should now be requested.
func (s *DataTransferStats) ConsumeIn(size uint64) bool { return s.In.consume(size) }

// ConsumeOut charges size bytes to the outbound counter, reporting
// whether a rekey should now be requested.
func (s *DataTransferStats) ConsumeOut(size uint64) bool { return s.Out.consume(size) }
