package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenfeed/src/ledger"
	"tokenfeed/src/logger"
	"tokenfeed/src/models"
	"tokenfeed/src/utils"
)

// -----------------------------------------------------------------------------
// Fixtures
// -----------------------------------------------------------------------------

const testMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

// testTrade builds a classified transaction whose input leg is amountIn. The
// output leg is deliberately asymmetric so sums over the wrong leg cannot
// coincide with sums over the input leg.
func testTrade(sig string, action string, amountIn int64, user string, blockTime int64) models.MIndexedTransaction {
	tx := models.MIndexedTransaction{
		Signature:       sig,
		BlockTime:       blockTime,
		Action:          action,
		ProtocolVariant: utils.VariantBondingCurve,
		UserAddress:     user,
		PoolAddress:     "pool1",
	}

	if action == models.TradeSideBuy {
		tx.AmountIn = models.MTokenAmount{Value: decimal.NewFromInt(amountIn), Mint: utils.QuoteMint, Decimals: 9}
		tx.AmountOut = models.MTokenAmount{Value: decimal.NewFromInt(amountIn * 100), Mint: testMint, Decimals: 6}
	} else {
		tx.AmountIn = models.MTokenAmount{Value: decimal.NewFromInt(amountIn), Mint: testMint, Decimals: 6}
		tx.AmountOut = models.MTokenAmount{Value: decimal.NewFromInt(999), Mint: utils.QuoteMint, Decimals: 9}
	}
	tx.Price = tx.AmountIn.Value.Div(tx.AmountOut.Value)
	return tx
}

// -----------------------------------------------------------------------------
// Stats
// -----------------------------------------------------------------------------

func TestComputeStats(t *testing.T) {
	txs := []models.MIndexedTransaction{
		testTrade("s1", models.TradeSideBuy, 10, "alice", 100),
		testTrade("s2", models.TradeSideBuy, 20, "bob", 200),
		testTrade("s3", models.TradeSideBuy, 30, "alice", 300),
		testTrade("s4", models.TradeSideSell, 5, "carol", 400),
		testTrade("s5", models.TradeSideSell, 15, "alice", 500),
	}

	stats := ComputeStats(txs, models.MTxFilter{})

	assert.Equal(t, 5, stats.TotalTransactions)
	assert.Equal(t, 3, stats.BuyCount)
	assert.Equal(t, 2, stats.SellCount)
	// Volume sums the input leg of every trade regardless of direction:
	// 10+20+30+5+15. The sells carry an output leg of 999 each, so any
	// fold over the output side would land far away from 80.
	assert.Equal(t, "80", stats.TotalVolume.String())
	assert.Equal(t, 3, stats.UniqueUsers)
	assert.False(t, stats.AveragePrice.IsZero())
}

// -----------------------------------------------------------------------------

func TestComputeStatsWithFilters(t *testing.T) {
	txs := []models.MIndexedTransaction{
		testTrade("s1", models.TradeSideBuy, 10, "alice", 100),
		testTrade("s2", models.TradeSideBuy, 20, "bob", 200),
		testTrade("s3", models.TradeSideSell, 30, "alice", 300),
	}

	testCases := []struct {
		name     string
		filter   models.MTxFilter
		expected int
	}{
		{"no constraints", models.MTxFilter{}, 3},
		{"action", models.MTxFilter{Action: models.TradeSideBuy}, 2},
		{"user", models.MTxFilter{User: "alice"}, 2},
		{"time window", models.MTxFilter{StartTime: 150, EndTime: 250}, 1},
		{"min amount", models.MTxFilter{MinAmount: decimal.NewFromInt(15)}, 2},
		{"max amount", models.MTxFilter{MaxAmount: decimal.NewFromInt(15)}, 1},
		{"variant mismatch", models.MTxFilter{ProtocolVariant: utils.VariantConstantProduct}, 0},
		{"combined", models.MTxFilter{User: "alice", Action: models.TradeSideSell}, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stats := ComputeStats(txs, tc.filter)
			assert.Equal(t, tc.expected, stats.TotalTransactions)
		})
	}
}

// -----------------------------------------------------------------------------

func TestComputeStatsEmptySet(t *testing.T) {
	stats := ComputeStats(nil, models.MTxFilter{})

	assert.Equal(t, 0, stats.TotalTransactions)
	assert.True(t, stats.AveragePrice.IsZero())
	assert.True(t, stats.TotalVolume.IsZero())
}

// -----------------------------------------------------------------------------
// Pagination
// -----------------------------------------------------------------------------

func TestPaginate(t *testing.T) {
	txs := make([]models.MIndexedTransaction, 25)
	for i := range txs {
		txs[i] = testTrade(fmt.Sprintf("s%d", i+1), models.TradeSideBuy, 1, "alice", int64(1000-i))
	}

	// Page 2 of size 10 holds items 11..20.
	page := Paginate(txs, 2, 10)
	require.Len(t, page.Items, 10)
	assert.Equal(t, "s11", page.Items[0].Signature)
	assert.Equal(t, "s20", page.Items[9].Signature)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.True(t, page.HasMore)

	// Last partial page.
	page = Paginate(txs, 3, 10)
	require.Len(t, page.Items, 5)
	assert.Equal(t, "s21", page.Items[0].Signature)
	assert.False(t, page.HasMore)

	// Past the end comes back empty, not an error.
	page = Paginate(txs, 4, 10)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasMore)
	assert.Equal(t, 25, page.Total)
}

// -----------------------------------------------------------------------------
// Filtering
// -----------------------------------------------------------------------------

func TestFilterTransactions(t *testing.T) {
	txs := []models.MIndexedTransaction{
		testTrade("s1", models.TradeSideBuy, 10, "alice", 100),
		testTrade("s2", models.TradeSideSell, 20, "bob", 200),
		testTrade("s3", models.TradeSideBuy, 30, "alice", 300),
	}

	got := FilterTransactions(txs, models.MTxFilter{User: "alice"})
	require.Len(t, got, 2)
	assert.Equal(t, "s1", got[0].Signature)
	assert.Equal(t, "s3", got[1].Signature)

	assert.Empty(t, FilterTransactions(nil, models.MTxFilter{}))
}

// -----------------------------------------------------------------------------
// Selector routing
// -----------------------------------------------------------------------------

// recordingRPC captures the addresses resolved against the ledger endpoint.
type recordingRPC struct {
	mu        sync.Mutex
	addresses []string
}

func (r *recordingRPC) GetSignaturesForAddress(ctx context.Context, address solana.PublicKey, limit int) ([]*rpc.TransactionSignature, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addresses = append(r.addresses, address.String())
	return nil, nil
}

func (r *recordingRPC) GetTransaction(ctx context.Context, signature solana.Signature) (*rpc.GetTransactionResult, error) {
	return nil, errors.New("not found")
}

// -----------------------------------------------------------------------------

func TestIndexByUserPoolScope(t *testing.T) {
	rpcFake := &recordingRPC{}
	cfg := &models.MConfig{
		Name:     "test",
		LogLevel: "INFO",
		Ledger: models.MLedgerConfig{
			SignatureLimit:   10,
			ChunkSize:        2,
			ChunkDelayMs:     1,
			ChunkConcurrency: 2,
		},
	}
	log := logger.NewLogger(cfg, "test")
	idx := NewTradeIndexer(cfg, ledger.NewFetcher(cfg, rpcFake, log), ledger.NewClassifier(), nil, log)

	user := "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	pool := "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R"

	// Without a pool the lookup resolves the user's own history.
	_, err := idx.IndexByUser(context.Background(), user, "", models.MTxFilter{}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{user}, rpcFake.addresses)

	// With a pool the lookup resolves the pool's history and narrows to the
	// user through the record filter.
	_, err = idx.IndexByUser(context.Background(), user, pool, models.MTxFilter{}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{user, pool}, rpcFake.addresses)
}
