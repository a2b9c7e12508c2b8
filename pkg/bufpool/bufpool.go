// Package bufpool provides the fixed-size buffer type and process-wide
// recycling pool that back session I/O (spec.md §4.A).
//
// Unlike a general-purpose byte-slice pool sized in tiers, NETCONF framing
// calls for one fixed buffer size: each buffer reserves a StartChunkPad
// prefix so the 1.1 chunk header (`\n#<len>\n`) can be written in place
// once a message is finalized, without a second copy. A per-session free
// list (pkg/session) caches a bounded number of these buffers and asks the
// global Pool for more only when its own cache is empty; the global Pool
// recycles buffers released across sessions via sync.Pool, the way the
// teacher's pkg/bufpool recycles tiered byte slices.
package bufpool

import "sync"

// DefaultBufferSize is the default fixed payload capacity of a session
// buffer, not counting StartChunkPad.
const DefaultBufferSize = 16 << 10 // 16KB

// StartChunkPad is the number of bytes reserved at the start of every
// buffer so a NETCONF 1.1 chunk header can be written into the buffer
// itself during finalization (spec.md §4.A). The largest legal header is
// "\n#2147483647\n" (13 bytes); round up for safety margin.
const StartChunkPad = 16

// Buffer is a fixed-size byte array with three cursors, matching spec.md
// §4.A: Start marks the beginning of payload (after any reserved chunk-
// header pad), Pos is the current read/write offset, End is one past the
// last valid byte.
type Buffer struct {
	data  []byte
	Start int
	Pos   int
	End   int
}

// newBuffer allocates a buffer of the given total capacity with the cursors
// reset past the chunk-header pad.
func newBuffer(capacity int) *Buffer {
	b := &Buffer{data: make([]byte, capacity)}
	b.Reset()
	return b
}

// Reset returns the buffer to an empty, freshly-allocated state: Start,
// Pos, and End all sit just past StartChunkPad, leaving the pad available
// for a 1.1 header write.
func (b *Buffer) Reset() {
	b.Start = StartChunkPad
	b.Pos = StartChunkPad
	b.End = StartChunkPad
}

// Cap returns the total underlying capacity, including the reserved pad.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Bytes returns the valid payload slice [Start:End).
func (b *Buffer) Bytes() []byte {
	return b.data[b.Start:b.End]
}

// Unread returns the unread slice [Pos:End).
func (b *Buffer) Unread() []byte {
	return b.data[b.Pos:b.End]
}

// WriteSpace returns the writable tail slice [End:cap), for appending newly
// read bytes from the network.
func (b *Buffer) WriteSpace() []byte {
	return b.data[b.End:]
}

// Advance marks n additional bytes at the tail as valid payload, used after
// a successful network read fills WriteSpace().
func (b *Buffer) Advance(n int) {
	b.End += n
}

// Raw exposes the full backing array; only the framing codec's chunk-header
// finalization (spec.md §4.A) should use it, to write into the pad region
// and shift Start backward.
func (b *Buffer) Raw() []byte {
	return b.data
}

// Pool recycles fixed-size Buffers via sync.Pool, mirroring the teacher's
// pkg/bufpool.Pool but with a single size class sized for NETCONF framing.
type Pool struct {
	pool sync.Pool
	size int
}

// NewPool creates a buffer pool whose buffers hold size payload bytes; each
// buffer's total capacity is size plus StartChunkPad. If size <= 0,
// DefaultBufferSize is used.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = DefaultBufferSize
	}
	total := size + StartChunkPad
	p := &Pool{size: total}
	p.pool.New = func() any {
		return newBuffer(total)
	}
	return p
}

// Get returns a recycled or freshly allocated Buffer, reset to empty.
func (p *Pool) Get() *Buffer {
	b := p.pool.Get().(*Buffer)
	b.Reset()
	return b
}

// Put returns buf to the pool for reuse. Buffers whose capacity no longer
// matches this pool's size class (e.g. the framing codec grew one for an
// oversized chunk) are dropped and left to the garbage collector.
func (p *Pool) Put(buf *Buffer) {
	if buf == nil || buf.Cap() != p.size {
		return
	}
	p.pool.Put(buf)
}

// globalPool is the process-wide buffer pool, sized with DefaultBufferSize
// until reconfigured via SetGlobalSize. Nothing outside this package's
// tests calls SetGlobalSize, so config.Framing.BufferSize does not resize it.
var globalPool = NewPool(DefaultBufferSize)

// SetGlobalSize replaces the global pool with one of the given size. Must be
// called before the multiplexer loop starts; it is not safe to call while
// sessions are actively borrowing buffers from the previous global pool.
func SetGlobalSize(size int) {
	globalPool = NewPool(size)
}

// Get returns a Buffer from the global pool.
func Get() *Buffer { return globalPool.Get() }

// Put returns a Buffer to the global pool.
func Put(buf *Buffer) { globalPool.Put(buf) }
