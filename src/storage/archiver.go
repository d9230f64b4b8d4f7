package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"tokenfeed/src/interfaces"
	"tokenfeed/src/logger"
	"tokenfeed/src/models"
)

// -----------------------------------------------------------------------------
// TradeArchiver
// -----------------------------------------------------------------------------

// TradeArchiver persists live trade frames. Incoming trades accumulate in a
// small in-memory batch that is flushed on a timer, so a busy feed never
// issues one INSERT per trade.
type TradeArchiver struct {
	Config   *models.MConfig
	Database interfaces.IDatabase
	Logger   *logger.Logger

	mu      sync.Mutex
	pending []models.MTrade

	consumerID string
}

// -----------------------------------------------------------------------------

const (
	flushInterval   = 5 * time.Second
	cleanupInterval = 6 * time.Hour
)

// -----------------------------------------------------------------------------

func NewTradeArchiver(cfg *models.MConfig, db interfaces.IDatabase, log *logger.Logger) *TradeArchiver {
	return &TradeArchiver{
		Config:     cfg,
		Database:   db,
		Logger:     log,
		consumerID: "trade-archiver-" + uuid.NewString(),
	}
}

// -----------------------------------------------------------------------------

// Attach subscribes the archiver to live trade frames and starts its flush
// loop. The loop exits when ctx is cancelled, after one final flush.
func (a *TradeArchiver) Attach(ctx context.Context, client interfaces.IFeedClient) {
	client.Subscribe(models.FrameTypeTrade, a.consumerID, func(payload interface{}) {
		trade, ok := payload.(models.MTrade)
		if !ok {
			return
		}
		a.mu.Lock()
		a.pending = append(a.pending, trade)
		a.mu.Unlock()
	})

	go a.run(ctx)
	a.Logger.Info("Trade archiver attached (flush every %s)", flushInterval)
}

// -----------------------------------------------------------------------------

func (a *TradeArchiver) run(ctx context.Context) {
	flush := time.NewTicker(flushInterval)
	cleanup := time.NewTicker(cleanupInterval)
	defer flush.Stop()
	defer cleanup.Stop()

	for {
		select {
		case <-flush.C:
			a.Flush()

		case <-cleanup.C:
			if err := a.Database.CleanupOldData(); err != nil {
				a.Logger.Error("Cleanup failed: %v", err)
			}

		case <-ctx.Done():
			a.Flush()
			return
		}
	}
}

// -----------------------------------------------------------------------------

// Flush writes the pending batch, if any.
func (a *TradeArchiver) Flush() {
	a.mu.Lock()
	batch := a.pending
	a.pending = nil
	a.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	if err := a.Database.SaveTrades(batch); err != nil {
		a.Logger.Error("Failed to archive %d trades: %v", len(batch), err)
		return
	}
	a.Logger.Debug("Archived %d trades", len(batch))
}
