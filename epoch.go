package latticeworld

import "sync/atomic"

// Epoch is a monotonically increasing version stamp. Every write-capable
// query consumes one epoch at fetch time; comparisons are strict: a.After(b)
// means a was produced later than b.
type Epoch uint64

// After reports whether e happened strictly after other.
func (e Epoch) After(other Epoch) bool {
	return e > other
}

// epochCounter is the world's single monotonic counter. current() reads
// without consuming; bump() atomically increments and returns the new
// value, consumed once per write-query fetch.
type epochCounter struct {
	value atomic.Uint64
}

func newEpochCounter() *epochCounter {
	c := &epochCounter{}
	// Epoch 0 is reserved to mean "never written"; every real stamp is >= 1,
	// so a freshly zeroed entity/chunk/column epoch compares as "before"
	// any token obtained from current()/bump() after at least one write.
	c.value.Store(0)
	return c
}

func (c *epochCounter) current() Epoch {
	return Epoch(c.value.Load())
}

func (c *epochCounter) bump() Epoch {
	return Epoch(c.value.Add(1))
}
