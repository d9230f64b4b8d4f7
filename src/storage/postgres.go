package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"tokenfeed/src/interfaces"
	"tokenfeed/src/logger"
	"tokenfeed/src/models"
)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

var _ interfaces.IDatabase = (*PostgresDB)(nil)

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	// The executable name becomes the schema so several deployments can share
	// one database.
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable name: %w", err)
	}
	name := filepath.Base(exe)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return &PostgresDB{
		Config: cfg,
		Schema: name,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) createTables() error {
	// NUMERIC keeps the decimal amounts exact.
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."trades" (
			trader_address TEXT,
			time BIGINT,
			pool_address TEXT,
			amount_in NUMERIC,
			amount_out NUMERIC,
			base_mint TEXT,
			quote_mint TEXT,
			type TEXT,
			PRIMARY KEY (trader_address, time, pool_address)
		);
	`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create trades: %w", err)
	}

	query = fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."indexed_transactions" (
			signature TEXT PRIMARY KEY,
			block_time BIGINT,
			action TEXT,
			protocol_variant TEXT,
			amount_in NUMERIC,
			amount_in_mint TEXT,
			amount_out NUMERIC,
			amount_out_mint TEXT,
			price NUMERIC,
			pool_address TEXT,
			user_address TEXT,
			fee NUMERIC,
			slot BIGINT
		);
	`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create indexed_transactions: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveTrades(trades []models.MTrade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO "%s"."trades" (trader_address, time, pool_address, amount_in, amount_out, base_mint, quote_mint, type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (trader_address, time, pool_address) DO NOTHING
	`, d.Schema)
	stmt, err := tx.Prepare(query)
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

func (d *PostgresDB) SaveIndexedTransactions(txs []models.MIndexedTransaction) error {
	if len(txs) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO "%s"."indexed_transactions" (signature, block_time, action, protocol_variant, amount_in, amount_in_mint, amount_out, amount_out_mint, price, pool_address, user_address, fee, slot)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (signature) DO NOTHING
	`, d.Schema)
	stmt, err := tx.Prepare(query)
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

func (d *PostgresDB) CleanupOldData() error {
	retentionDays := d.Config.Storage.RetentionDays
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Unix()

	d.Logger.Info("Cleaning up data older than %d days (timestamp < %d)...", retentionDays, cutoff)

	if _, err := d.DB.Exec(fmt.Sprintf(`DELETE FROM "%s"."trades" WHERE time < $1`, d.Schema), cutoff); err != nil {
		d.Logger.Error("Cleanup trades error: %v", err)
	}
	if _, err := d.DB.Exec(fmt.Sprintf(`DELETE FROM "%s"."indexed_transactions" WHERE block_time < $1`, d.Schema), cutoff); err != nil {
		d.Logger.Error("Cleanup indexed_transactions error: %v", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
