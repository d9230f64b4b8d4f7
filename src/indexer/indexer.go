package indexer

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"tokenfeed/src/interfaces"
	"tokenfeed/src/ledger"
	"tokenfeed/src/logger"
	"tokenfeed/src/models"
	"tokenfeed/src/utils"
)

// -----------------------------------------------------------------------------
// TradeIndexer
// -----------------------------------------------------------------------------

// TradeIndexer turns raw ledger history into classified trade records. It
// composes the signature fetcher with the balance-diff classifier and exposes
// query-shaped views (stats, recent pages) on top of the classified set.
type TradeIndexer struct {
	Config     *models.MConfig
	Fetcher    *ledger.Fetcher
	Classifier *ledger.Classifier
	Database   interfaces.IDatabase
	Logger     *logger.Logger
}

// -----------------------------------------------------------------------------

func NewTradeIndexer(cfg *models.MConfig, fetcher *ledger.Fetcher, classifier *ledger.Classifier, db interfaces.IDatabase, log *logger.Logger) *TradeIndexer {
	return &TradeIndexer{
		Config:     cfg,
		Fetcher:    fetcher,
		Classifier: classifier,
		Database:   db,
		Logger:     log,
	}
}

// -----------------------------------------------------------------------------

// IndexByPool classifies the most recent limit transactions touching one pool
// address, newest first, narrowed by filter. Non-trade transactions are
// dropped silently.
func (t *TradeIndexer) IndexByPool(ctx context.Context, pool string, filter models.MTxFilter, limit int) ([]models.MIndexedTransaction, error) {
	return t.index(ctx, ledger.SignatureSelector{PoolAddress: pool}, pool, filter, limit)
}

// -----------------------------------------------------------------------------

// IndexByProtocol classifies recent activity across every recognized protocol
// program, narrowed by filter. Because the lookup is program-wide the pool
// address of each record is left empty.
func (t *TradeIndexer) IndexByProtocol(ctx context.Context, filter models.MTxFilter, limit int) ([]models.MIndexedTransaction, error) {
	return t.index(ctx, ledger.SignatureSelector{ProgramIDs: utils.ProgramIDs()}, "", filter, limit)
}

// -----------------------------------------------------------------------------

// IndexByUser classifies the most recent limit transactions signed by one
// wallet address, narrowed by filter. A non-empty pool restricts the lookup
// to that pool's history, matching the user against each record instead of
// resolving by account.
func (t *TradeIndexer) IndexByUser(ctx context.Context, user string, pool string, filter models.MTxFilter, limit int) ([]models.MIndexedTransaction, error) {
	filter.User = user
	if pool != "" {
		return t.index(ctx, ledger.SignatureSelector{PoolAddress: pool}, pool, filter, limit)
	}
	return t.index(ctx, ledger.SignatureSelector{AccountAddress: user}, "", filter, limit)
}

// -----------------------------------------------------------------------------

func (t *TradeIndexer) index(ctx context.Context, sel ledger.SignatureSelector, pool string, filter models.MTxFilter, limit int) ([]models.MIndexedTransaction, error) {
	signatures, err := t.Fetcher.ResolveSignatures(ctx, sel, limit)
	if err != nil {
		return nil, err
	}
	if len(signatures) == 0 {
		return nil, nil
	}

	fetched, err := t.Fetcher.FetchBatch(ctx, signatures)
	if err != nil {
		return nil, err
	}

	indexed := make([]models.MIndexedTransaction, 0, len(fetched))
	for _, ftx := range fetched {
		tx, ok := t.Classifier.Classify(ftx.Signature, ftx.Result, pool)
		if !ok {
			continue
		}
		indexed = append(indexed, *tx)
	}
	indexed = FilterTransactions(indexed, filter)

	// FetchBatch preserves chunk order but not intra-chunk order.
	sort.SliceStable(indexed, func(i, j int) bool {
		return indexed[i].BlockTime > indexed[j].BlockTime
	})

	t.Logger.Debug("Indexed %d trades from %d fetched transactions", len(indexed), len(fetched))

	if t.Database != nil && len(indexed) > 0 {
		if err := t.Database.SaveIndexedTransactions(indexed); err != nil {
			t.Logger.Warning("Failed to archive %d indexed transactions: %v", len(indexed), err)
		}
	}

	return indexed, nil
}

// -----------------------------------------------------------------------------

// GetStats aggregates the filtered trade set of one pool. Volume sums the
// input leg of every trade regardless of direction.
func (t *TradeIndexer) GetStats(ctx context.Context, pool string, filter models.MTxFilter) (models.MTradeStats, error) {
	indexed, err := t.IndexByPool(ctx, pool, filter, t.Config.Ledger.SignatureLimit)
	if err != nil {
		return models.MTradeStats{}, err
	}

	return ComputeStats(indexed, filter), nil
}

// -----------------------------------------------------------------------------

// FilterTransactions returns the subset of txs passing filter, order
// preserved.
func FilterTransactions(txs []models.MIndexedTransaction, filter models.MTxFilter) []models.MIndexedTransaction {
	filtered := make([]models.MIndexedTransaction, 0, len(txs))
	for _, tx := range txs {
		if filter.Matches(tx) {
			filtered = append(filtered, tx)
		}
	}
	return filtered
}

// -----------------------------------------------------------------------------

// ComputeStats folds the filtered transaction set into an aggregate.
func ComputeStats(txs []models.MIndexedTransaction, filter models.MTxFilter) models.MTradeStats {
	stats := models.MTradeStats{}
	users := make(map[string]struct{})
	priceSum := decimal.Zero

	for _, tx := range txs {
		if !filter.Matches(tx) {
			continue
		}

		stats.TotalTransactions++
		stats.TotalVolume = stats.TotalVolume.Add(tx.AmountIn.Value)
		priceSum = priceSum.Add(tx.Price)
		users[tx.UserAddress] = struct{}{}

		switch tx.Action {
		case models.TradeSideBuy:
			stats.BuyCount++
		case models.TradeSideSell:
			stats.SellCount++
		}
	}

	if stats.TotalTransactions > 0 {
		stats.AveragePrice = priceSum.Div(decimal.NewFromInt(int64(stats.TotalTransactions)))
	}
	stats.UniqueUsers = len(users)

	return stats
}

// -----------------------------------------------------------------------------

// GetRecent returns one page of the filtered trade set, newest first. Pages
// are 1-based; a page past the end comes back empty rather than failing.
func (t *TradeIndexer) GetRecent(ctx context.Context, pool string, filter models.MTxFilter, page int, pageSize int) (models.MRecentPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	indexed, err := t.IndexByPool(ctx, pool, filter, t.Config.Ledger.SignatureLimit)
	if err != nil {
		return models.MRecentPage{}, err
	}

	return Paginate(indexed, page, pageSize), nil
}

// -----------------------------------------------------------------------------

// Paginate slices one 1-based page out of an already ordered trade set.
func Paginate(items []models.MIndexedTransaction, page int, pageSize int) models.MRecentPage {
	total := len(items)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return models.MRecentPage{
		Items:    items[start:end],
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasMore:  end < total,
	}
}
