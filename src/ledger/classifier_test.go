package ledger

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenfeed/src/models"
	"tokenfeed/src/utils"
)

// -----------------------------------------------------------------------------
// Fixtures
// -----------------------------------------------------------------------------

var (
	testActor    = solana.MustPublicKeyFromBase58("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin")
	testAsset    = solana.MustPublicKeyFromBase58("4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R")
	testAssetTwo = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	pumpProgram  = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")
	quoteMint    = solana.MustPublicKeyFromBase58(utils.QuoteMint)
)

// -----------------------------------------------------------------------------

func swapTransaction(program solana.PublicKey) *solana.Transaction {
	return &solana.Transaction{
		Message: solana.Message{
			AccountKeys: []solana.PublicKey{testActor, program},
			Instructions: []solana.CompiledInstruction{
				{ProgramIDIndex: 1},
			},
		},
	}
}

// -----------------------------------------------------------------------------

func tokenBalance(mint solana.PublicKey, owner solana.PublicKey, amount string, decimals uint8) rpc.TokenBalance {
	o := owner
	return rpc.TokenBalance{
		Mint:  mint,
		Owner: &o,
		UiTokenAmount: &rpc.UiTokenAmount{
			Amount:   amount,
			Decimals: decimals,
		},
	}
}

// -----------------------------------------------------------------------------

func swapMeta(quotePre, quotePost, assetPre, assetPost string) *rpc.TransactionMeta {
	return &rpc.TransactionMeta{
		Fee: 5000,
		PreTokenBalances: []rpc.TokenBalance{
			tokenBalance(quoteMint, testActor, quotePre, 0),
			tokenBalance(testAsset, testActor, assetPre, 0),
		},
		PostTokenBalances: []rpc.TokenBalance{
			tokenBalance(quoteMint, testActor, quotePost, 0),
			tokenBalance(testAsset, testActor, assetPost, 0),
		},
	}
}

// -----------------------------------------------------------------------------
// Tests
// -----------------------------------------------------------------------------

func TestClassifyBuy(t *testing.T) {
	c := NewClassifier()

	// Quote 100 -> 40 (spent 60), asset 0 -> 500 (received 500).
	tx, ok := c.classify("sig1", swapTransaction(pumpProgram), swapMeta("100", "40", "0", "500"), 42, 1700000000, "pool1")
	require.True(t, ok)

	assert.Equal(t, "sig1", tx.Signature)
	assert.Equal(t, models.TradeSideBuy, tx.Action)
	assert.Equal(t, utils.VariantBondingCurve, tx.ProtocolVariant)
	assert.Equal(t, "60", tx.AmountIn.Value.String())
	assert.Equal(t, utils.QuoteMint, tx.AmountIn.Mint)
	assert.Equal(t, "500", tx.AmountOut.Value.String())
	assert.Equal(t, testAsset.String(), tx.AmountOut.Mint)
	assert.Equal(t, "0.12", tx.Price.String())
	assert.Equal(t, testActor.String(), tx.UserAddress)
	assert.Equal(t, "pool1", tx.PoolAddress)
	assert.Equal(t, "0.000005", tx.Fee.String())
	assert.Equal(t, uint64(42), tx.Slot)
	assert.Equal(t, int64(1700000000), tx.BlockTime)
}

// -----------------------------------------------------------------------------

func TestClassifySell(t *testing.T) {
	c := NewClassifier()

	// Asset 500 -> 300 (spent 200), quote 40 -> 70 (received 30).
	tx, ok := c.classify("sig2", swapTransaction(pumpProgram), swapMeta("40", "70", "500", "300"), 43, 1700000100, "pool1")
	require.True(t, ok)

	assert.Equal(t, models.TradeSideSell, tx.Action)
	assert.Equal(t, "200", tx.AmountIn.Value.String())
	assert.Equal(t, testAsset.String(), tx.AmountIn.Mint)
	assert.Equal(t, "30", tx.AmountOut.Value.String())
	assert.Equal(t, utils.QuoteMint, tx.AmountOut.Mint)
}

// -----------------------------------------------------------------------------

func TestClassifyRejections(t *testing.T) {
	c := NewClassifier()
	unknownProgram := solana.MustPublicKeyFromBase58("11111111111111111111111111111111")

	testCases := []struct {
		name string
		tx   *solana.Transaction
		meta *rpc.TransactionMeta
	}{
		{
			name: "unrecognized program",
			tx:   swapTransaction(unknownProgram),
			meta: swapMeta("100", "40", "0", "500"),
		},
		{
			name: "no asset movement",
			tx:   swapTransaction(pumpProgram),
			meta: swapMeta("100", "40", "500", "500"),
		},
		{
			name: "no quote movement",
			tx:   swapTransaction(pumpProgram),
			meta: swapMeta("100", "100", "0", "500"),
		},
		{
			name: "same-sign deltas",
			tx:   swapTransaction(pumpProgram),
			meta: swapMeta("40", "100", "0", "500"),
		},
		{
			name: "no account keys",
			tx:   &solana.Transaction{},
			meta: swapMeta("100", "40", "0", "500"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := c.classify("sig", tc.tx, tc.meta, 1, 1, "pool1")
			assert.False(t, ok)
		})
	}
}

// -----------------------------------------------------------------------------

func TestClassifyRejectsMultiAssetSwap(t *testing.T) {
	c := NewClassifier()

	meta := swapMeta("100", "40", "0", "500")
	meta.PreTokenBalances = append(meta.PreTokenBalances, tokenBalance(testAssetTwo, testActor, "10", 0))
	meta.PostTokenBalances = append(meta.PostTokenBalances, tokenBalance(testAssetTwo, testActor, "90", 0))

	_, ok := c.classify("sig", swapTransaction(pumpProgram), meta, 1, 1, "pool1")
	assert.False(t, ok)
}

// -----------------------------------------------------------------------------

func TestClassifyIgnoresForeignBalances(t *testing.T) {
	c := NewClassifier()
	other := solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	// Pool-owned accounts move in the opposite direction; only actor-owned
	// deltas count.
	meta := swapMeta("100", "40", "0", "500")
	meta.PreTokenBalances = append(meta.PreTokenBalances, tokenBalance(testAsset, other, "10000", 0))
	meta.PostTokenBalances = append(meta.PostTokenBalances, tokenBalance(testAsset, other, "9500", 0))

	tx, ok := c.classify("sig", swapTransaction(pumpProgram), meta, 1, 1, "pool1")
	require.True(t, ok)
	assert.Equal(t, models.TradeSideBuy, tx.Action)
	assert.Equal(t, "500", tx.AmountOut.Value.String())
}

// -----------------------------------------------------------------------------

func TestClassifyNativeLamportFallback(t *testing.T) {
	c := NewClassifier()

	// No wrapped-quote token account: the actor paid straight from native
	// balance. Fee is added back so only the swap spend counts.
	meta := &rpc.TransactionMeta{
		Fee:          5000,
		PreBalances:  []uint64{1000000000},
		PostBalances: []uint64{939995000}, // -60000000 swap, -5000 fee
		PostTokenBalances: []rpc.TokenBalance{
			tokenBalance(testAsset, testActor, "500", 0),
		},
	}

	tx, ok := c.classify("sig", swapTransaction(pumpProgram), meta, 1, 1, "pool1")
	require.True(t, ok)
	assert.Equal(t, models.TradeSideBuy, tx.Action)
	assert.Equal(t, "0.06", tx.AmountIn.Value.String())
	assert.Equal(t, "500", tx.AmountOut.Value.String())
}

// -----------------------------------------------------------------------------

func TestClassifyPublicEntryGuards(t *testing.T) {
	c := NewClassifier()
	sig := solana.Signature{}

	_, ok := c.Classify(sig, nil, "pool1")
	assert.False(t, ok)

	_, ok = c.Classify(sig, &rpc.GetTransactionResult{}, "pool1")
	assert.False(t, ok)

	_, ok = c.Classify(sig, &rpc.GetTransactionResult{
		Meta: &rpc.TransactionMeta{Err: map[string]interface{}{"InstructionError": []interface{}{}}},
	}, "pool1")
	assert.False(t, ok)
}
