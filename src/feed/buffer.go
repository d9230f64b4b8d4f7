package feed

import "sync"

// -----------------------------------------------------------------------------
// OutboundBuffer
// -----------------------------------------------------------------------------

// OutboundBuffer holds outbound control messages while no live connection
// exists. Messages are flushed in FIFO order the instant a connection opens.
//
// The buffer is intentionally unbounded and never expires entries: sends
// against a permanently-down upstream accumulate without limit. That matches
// the upstream design and is a known resource-leak risk, kept rather than
// silently bounded here.
type OutboundBuffer struct {
	mu    sync.Mutex
	queue [][]byte
}

// -----------------------------------------------------------------------------

func NewOutboundBuffer() *OutboundBuffer {
	return &OutboundBuffer{}
}

// -----------------------------------------------------------------------------

// Push appends one pending message.
func (b *OutboundBuffer) Push(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue = append(b.queue, data)
}

// -----------------------------------------------------------------------------

// Drain returns all pending messages in FIFO order and empties the buffer.
func (b *OutboundBuffer) Drain() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.queue
	b.queue = nil
	return out
}

// -----------------------------------------------------------------------------

// Len returns the number of pending messages.
func (b *OutboundBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}
