package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"tokenfeed/src/interfaces"
	"tokenfeed/src/logger"
	"tokenfeed/src/models"
)

// -----------------------------------------------------------------------------

type SQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

var _ interfaces.IDatabase = (*SQLiteDB)(nil)

// -----------------------------------------------------------------------------

func NewSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*SQLiteDB, error) {
	return &SQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) createTables() error {
	// The archive survives restarts, so tables are created lazily instead of
	// being dropped on startup. Decimal amounts are stored as TEXT to keep
	// full precision.
	query := `
		CREATE TABLE IF NOT EXISTS trades (
			trader_address TEXT,
			time INTEGER,
			pool_address TEXT,
			amount_in TEXT,
			amount_out TEXT,
			base_mint TEXT,
			quote_mint TEXT,
			type TEXT,
			PRIMARY KEY (trader_address, time, pool_address)
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create trades: %w", err)
	}

	query = `
		CREATE TABLE IF NOT EXISTS indexed_transactions (
			signature TEXT PRIMARY KEY,
			block_time INTEGER,
			action TEXT,
			protocol_variant TEXT,
			amount_in TEXT,
			amount_in_mint TEXT,
			amount_out TEXT,
			amount_out_mint TEXT,
			price TEXT,
			pool_address TEXT,
			user_address TEXT,
			fee TEXT,
			slot INTEGER
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create indexed_transactions: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SaveTrades(trades []models.MTrade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO trades (trader_address, time, pool_address, amount_in, amount_out, base_mint, quote_mint, type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (trader_address, time, pool_address) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range trades {
		_, err := stmt.Exec(t.TraderAddress, t.Time, t.PoolAddress, t.AmountIn.String(), t.AmountOut.String(), t.BaseMint, t.QuoteMint, t.Type)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SaveIndexedTransactions(txs []models.MIndexedTransaction) error {
	if len(txs) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Re-indexing fetches overlapping signature windows, so duplicates are
	// expected and skipped.
	stmt, err := tx.Prepare(`
		INSERT INTO indexed_transactions (signature, block_time, action, protocol_variant, amount_in, amount_in_mint, amount_out, amount_out_mint, price, pool_address, user_address, fee, slot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (signature) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range txs {
		_, err := stmt.Exec(
			t.Signature, t.BlockTime, t.Action, t.ProtocolVariant,
			t.AmountIn.Value.String(), t.AmountIn.Mint,
			t.AmountOut.Value.String(), t.AmountOut.Mint,
			t.Price.String(), t.PoolAddress, t.UserAddress, t.Fee.String(), t.Slot,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) CleanupOldData() error {
	retentionDays := d.Config.Storage.RetentionDays
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Unix()

	d.Logger.Info("Cleaning up data older than %d days (timestamp < %d)...", retentionDays, cutoff)

	if _, err := d.DB.Exec("DELETE FROM trades WHERE time < ?", cutoff); err != nil {
		d.Logger.Error("Cleanup trades error: %v", err)
	}
	if _, err := d.DB.Exec("DELETE FROM indexed_transactions WHERE block_time < ?", cutoff); err != nil {
		d.Logger.Error("Cleanup indexed_transactions error: %v", err)
	}

	d.Logger.Info("Cleanup completed")
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
