package storage

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenfeed/src/logger"
	"tokenfeed/src/models"
	"tokenfeed/src/utils"
)

// -----------------------------------------------------------------------------

func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()

	cfg := &models.MConfig{
		Name:     "test",
		LogLevel: "INFO",
		Storage: models.MStorageConfig{
			Enabled:       true,
			DBType:        "sqlite",
			DBPath:        t.TempDir() + "/archive.db",
			RetentionDays: 7,
		},
	}

	db, err := NewSQLiteDB(cfg, logger.NewLogger(cfg, "test"))
	require.NoError(t, err)
	require.NoError(t, db.Initialize())
	t.Cleanup(func() { db.Close() })
	return db
}

// -----------------------------------------------------------------------------

func countRows(t *testing.T, db *SQLiteDB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.DB.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

// -----------------------------------------------------------------------------

func TestSQLiteSaveTrades(t *testing.T) {
	db := newTestDB(t)

	trades := []models.MTrade{
		{TraderAddress: "alice", Time: 100, PoolAddress: "pool1", AmountIn: decimal.NewFromInt(1), AmountOut: decimal.NewFromInt(2), Type: models.TradeSideBuy},
		{TraderAddress: "bob", Time: 200, PoolAddress: "pool1", AmountIn: decimal.NewFromInt(3), AmountOut: decimal.NewFromInt(4), Type: models.TradeSideSell},
	}

	require.NoError(t, db.SaveTrades(trades))
	assert.Equal(t, 2, countRows(t, db, "trades"))

	// Re-saving the same batch is a no-op, not an error.
	require.NoError(t, db.SaveTrades(trades))
	assert.Equal(t, 2, countRows(t, db, "trades"))

	require.NoError(t, db.SaveTrades(nil))
}

// -----------------------------------------------------------------------------

func TestSQLiteSaveIndexedTransactions(t *testing.T) {
	db := newTestDB(t)

	tx := models.MIndexedTransaction{
		Signature:       "sig1",
		BlockTime:       100,
		Action:          models.TradeSideBuy,
		ProtocolVariant: utils.VariantBondingCurve,
		AmountIn:        models.MTokenAmount{Value: decimal.NewFromInt(60), Mint: utils.QuoteMint, Decimals: 9},
		AmountOut:       models.MTokenAmount{Value: decimal.NewFromInt(500), Mint: "mintA", Decimals: 6},
		Price:           decimal.RequireFromString("0.12"),
		PoolAddress:     "pool1",
		UserAddress:     "alice",
		Fee:             decimal.New(5000, -9),
		Slot:            42,
	}

	require.NoError(t, db.SaveIndexedTransactions([]models.MIndexedTransaction{tx}))
	assert.Equal(t, 1, countRows(t, db, "indexed_transactions"))

	// Signature collisions from overlapping re-index windows are skipped.
	require.NoError(t, db.SaveIndexedTransactions([]models.MIndexedTransaction{tx}))
	assert.Equal(t, 1, countRows(t, db, "indexed_transactions"))

	var price string
	require.NoError(t, db.DB.QueryRow("SELECT price FROM indexed_transactions WHERE signature = ?", "sig1").Scan(&price))
	assert.Equal(t, "0.12", price)
}

// -----------------------------------------------------------------------------

func TestSQLiteCleanupOldData(t *testing.T) {
	db := newTestDB(t)

	// One ancient row, one current one.
	require.NoError(t, db.SaveTrades([]models.MTrade{
		{TraderAddress: "alice", Time: 1, PoolAddress: "pool1"},
		{TraderAddress: "bob", Time: 9999999999, PoolAddress: "pool1"},
	}))

	require.NoError(t, db.CleanupOldData())
	assert.Equal(t, 1, countRows(t, db, "trades"))
}
