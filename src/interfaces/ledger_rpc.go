package interfaces

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// -----------------------------------------------------------------------------
// ILedgerRPC is the boundary to the ledger RPC endpoint. The only contract
// required of it: signatures come back newest-first, and parsed transactions
// expose pre/post token-balance snapshots.
// -----------------------------------------------------------------------------

type ILedgerRPC interface {

	// GetSignaturesForAddress returns up to limit of the most recent
	// transaction signatures touching address, newest first.
	GetSignaturesForAddress(ctx context.Context, address solana.PublicKey, limit int) ([]*rpc.TransactionSignature, error)

	// -----------------------------------------------------------------------------

	// GetTransaction fetches one transaction body with balance metadata.
	GetTransaction(ctx context.Context, signature solana.Signature) (*rpc.GetTransactionResult, error)
}
