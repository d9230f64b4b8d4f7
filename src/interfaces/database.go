package interfaces

import "tokenfeed/src/models"

// -----------------------------------------------------------------------------
// IDatabase defines the contract for the optional trade archive.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveTrades inserts a batch of normalized live trades.
	SaveTrades(trades []models.MTrade) error

	// -----------------------------------------------------------------------------

	// SaveIndexedTransactions inserts a batch of classified historical trades.
	SaveIndexedTransactions(txs []models.MIndexedTransaction) error

	// -----------------------------------------------------------------------------

	// CleanupOldData removes rows older than the retention policy.
	CleanupOldData() error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
