package ledger

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"tokenfeed/src/interfaces"
)

// -----------------------------------------------------------------------------
// RPCClient
// -----------------------------------------------------------------------------

// RPCClient is the production ILedgerRPC backed by a Solana JSON-RPC node.
type RPCClient struct {
	client *rpc.Client
}

var _ interfaces.ILedgerRPC = (*RPCClient)(nil)

// -----------------------------------------------------------------------------

func NewRPCClient(endpoint string) *RPCClient {
	return &RPCClient{client: rpc.New(endpoint)}
}

// -----------------------------------------------------------------------------

// GetSignaturesForAddress returns up to limit recent signatures for address,
// newest first (the node's native ordering).
func (c *RPCClient) GetSignaturesForAddress(ctx context.Context, address solana.PublicKey, limit int) ([]*rpc.TransactionSignature, error) {
	return c.client.GetSignaturesForAddressWithOpts(ctx, address, &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: rpc.CommitmentConfirmed,
	})
}

// -----------------------------------------------------------------------------

// GetTransaction fetches one transaction with pre/post balance metadata.
func (c *RPCClient) GetTransaction(ctx context.Context, signature solana.Signature) (*rpc.GetTransactionResult, error) {
	maxVersion := uint64(0)
	return c.client.GetTransaction(ctx, signature, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
}
