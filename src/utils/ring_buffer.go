package utils

import (
	"tokenfeed/src/models"
)

// -----------------------------------------------------------------------------
// TradeRing is a fixed-size circular buffer of trades.
// True ring buffer - no resizing on append!
// -----------------------------------------------------------------------------

type TradeRing struct {
	data     []models.MTrade
	capacity int
	index    int // Next write position
	size     int // Current number of elements
}

// -----------------------------------------------------------------------------

// NewTradeRing creates a new buffer with fixed capacity
func NewTradeRing(capacity int) *TradeRing {
	if capacity <= 0 {
		capacity = 50 // Default reasonable size
	}

	return &TradeRing{
		data:     make([]models.MTrade, capacity),
		capacity: capacity,
		index:    0,
		size:     0,
	}
}

// -----------------------------------------------------------------------------

// Append adds one trade, overwriting the oldest entry when full
func (rb *TradeRing) Append(trade models.MTrade) {
	rb.data[rb.index] = trade
	rb.index = (rb.index + 1) % rb.capacity

	// Update size (never exceeds capacity)
	if rb.size < rb.capacity {
		rb.size++
	}
}

// -----------------------------------------------------------------------------

// GetLatest returns the n most recent trades, oldest of them first
func (rb *TradeRing) GetLatest(n int) []models.MTrade {
	if rb.size == 0 || n <= 0 {
		return []models.MTrade{}
	}

	count := n
	if n > rb.size {
		count = rb.size
	}

	result := make([]models.MTrade, count)

	// Latest data is at index-1
	startIdx := (rb.index - count + rb.capacity) % rb.capacity

	for i := 0; i < count; i++ {
		result[i] = rb.data[(startIdx+i)%rb.capacity]
	}

	return result
}

// -----------------------------------------------------------------------------

// GetAll returns all trades in insertion order (oldest to newest)
func (rb *TradeRing) GetAll() []models.MTrade {
	if rb.size == 0 {
		return []models.MTrade{}
	}

	result := make([]models.MTrade, rb.size)

	var startIdx int
	if rb.size == rb.capacity {
		// Buffer is full, oldest is at current index (wrap-around)
		startIdx = rb.index
	} else {
		startIdx = 0
	}

	for i := 0; i < rb.size; i++ {
		result[i] = rb.data[(startIdx+i)%rb.capacity]
	}

	return result
}

// -----------------------------------------------------------------------------

// Size returns current number of elements
func (rb *TradeRing) Size() int {
	return rb.size
}

// -----------------------------------------------------------------------------

// Capacity returns buffer capacity (fixed)
func (rb *TradeRing) Capacity() int {
	return rb.capacity
}

// -----------------------------------------------------------------------------

// IsFull returns whether buffer is full
func (rb *TradeRing) IsFull() bool {
	return rb.size == rb.capacity
}

// -----------------------------------------------------------------------------

// Clear resets the buffer
func (rb *TradeRing) Clear() {
	rb.index = 0
	rb.size = 0
}
