package utils

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"tokenfeed/src/models"
)

// -----------------------------------------------------------------------------

func ringTrade(n int) models.MTrade {
	return models.MTrade{TraderAddress: fmt.Sprintf("trader%d", n), Time: int64(n)}
}

// -----------------------------------------------------------------------------

func TestTradeRingWrapAround(t *testing.T) {
	rb := NewTradeRing(3)

	for i := 1; i <= 5; i++ {
		rb.Append(ringTrade(i))
	}

	assert.Equal(t, 3, rb.Size())
	assert.True(t, rb.IsFull())

	got := rb.GetAll()
	want := []models.MTrade{ringTrade(3), ringTrade(4), ringTrade(5)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetAll mismatch (-want +got):\n%s", diff)
	}
}

// -----------------------------------------------------------------------------

func TestTradeRingGetLatest(t *testing.T) {
	rb := NewTradeRing(5)

	for i := 1; i <= 4; i++ {
		rb.Append(ringTrade(i))
	}

	got := rb.GetLatest(2)
	want := []models.MTrade{ringTrade(3), ringTrade(4)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetLatest mismatch (-want +got):\n%s", diff)
	}

	// Asking for more than stored returns everything.
	assert.Len(t, rb.GetLatest(10), 4)
	assert.Empty(t, rb.GetLatest(0))
}

// -----------------------------------------------------------------------------

func TestTradeRingClearAndEmpty(t *testing.T) {
	rb := NewTradeRing(2)
	assert.Empty(t, rb.GetAll())
	assert.Empty(t, rb.GetLatest(1))

	rb.Append(ringTrade(1))
	rb.Clear()
	assert.Equal(t, 0, rb.Size())
	assert.Empty(t, rb.GetAll())

	// Zero capacity falls back to the default.
	assert.Equal(t, 50, NewTradeRing(0).Capacity())
}
