package ledger

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"

	"tokenfeed/src/models"
	"tokenfeed/src/utils"
)

// -----------------------------------------------------------------------------
// Classifier
// -----------------------------------------------------------------------------

// Classifier derives semantic buy/sell events from low-level balance deltas.
// It is a pure function over its input: no shared mutable state, safe to run
// for many transactions concurrently.
type Classifier struct {
	QuoteMint     string
	QuoteDecimals uint8
	Programs      map[string]string
}

// -----------------------------------------------------------------------------

func NewClassifier() *Classifier {
	return &Classifier{
		QuoteMint:     utils.QuoteMint,
		QuoteDecimals: utils.QuoteDecimals,
		Programs:      utils.ProtocolPrograms,
	}
}

// -----------------------------------------------------------------------------

// Classify inspects one fetched transaction in the context of pool and
// returns the derived trade, or false when the transaction is not a
// recognized protocol trade. Rejection is a classification boundary, not an
// error.
func (c *Classifier) Classify(sig solana.Signature, res *rpc.GetTransactionResult, pool string) (*models.MIndexedTransaction, bool) {
	if res == nil || res.Meta == nil || res.Transaction == nil {
		return nil, false
	}
	if res.Meta.Err != nil {
		return nil, false
	}

	tx, err := res.Transaction.GetTransaction()
	if err != nil || tx == nil {
		return nil, false
	}

	blockTime := int64(0)
	if res.BlockTime != nil {
		blockTime = int64(*res.BlockTime)
	}

	return c.classify(sig.String(), tx, res.Meta, res.Slot, blockTime, pool)
}

// -----------------------------------------------------------------------------

// mintDelta accumulates post-pre movement for one mint in raw token units.
type mintDelta struct {
	delta    decimal.Decimal
	decimals uint8
}

// -----------------------------------------------------------------------------

func (c *Classifier) classify(sig string, tx *solana.Transaction, meta *rpc.TransactionMeta, slot uint64, blockTime int64, pool string) (*models.MIndexedTransaction, bool) {
	variant, ok := c.matchProgram(tx)
	if !ok {
		return nil, false
	}

	if len(tx.Message.AccountKeys) == 0 {
		return nil, false
	}
	// The actor is the fee payer: always the first account key.
	actor := tx.Message.AccountKeys[0]

	deltas := make(map[string]*mintDelta)
	c.applyBalances(meta.PreTokenBalances, actor, deltas, -1)
	c.applyBalances(meta.PostTokenBalances, actor, deltas, +1)

	quoteDelta, quoteDecimals := c.quoteDelta(meta, deltas)

	// Exactly one non-quote mint may have moved; multi-hop and multi-asset
	// transactions are rejected as non-trades.
	assetMint := ""
	var asset *mintDelta
	for mint, d := range deltas {
		if mint == c.QuoteMint || d.delta.IsZero() {
			continue
		}
		if asset != nil {
			return nil, false
		}
		assetMint = mint
		asset = d
	}
	if asset == nil || quoteDelta.IsZero() {
		return nil, false
	}

	quoteValue := quoteDelta.Shift(-int32(quoteDecimals)).Abs()
	assetValue := asset.delta.Shift(-int32(asset.decimals)).Abs()

	var action string
	var amountIn, amountOut models.MTokenAmount

	switch {
	case quoteDelta.IsNegative() && asset.delta.IsPositive():
		// Quote spent, asset received.
		action = models.TradeSideBuy
		amountIn = models.MTokenAmount{Value: quoteValue, Mint: c.QuoteMint, Decimals: quoteDecimals}
		amountOut = models.MTokenAmount{Value: assetValue, Mint: assetMint, Decimals: asset.decimals}

	case quoteDelta.IsPositive() && asset.delta.IsNegative():
		// Asset spent, quote received.
		action = models.TradeSideSell
		amountIn = models.MTokenAmount{Value: assetValue, Mint: assetMint, Decimals: asset.decimals}
		amountOut = models.MTokenAmount{Value: quoteValue, Mint: c.QuoteMint, Decimals: quoteDecimals}

	default:
		// Same-sign or one-sided deltas are not trades.
		return nil, false
	}

	if amountOut.Value.IsZero() {
		return nil, false
	}

	return &models.MIndexedTransaction{
		Signature:       sig,
		BlockTime:       blockTime,
		Action:          action,
		ProtocolVariant: variant,
		AmountIn:        amountIn,
		AmountOut:       amountOut,
		Price:           amountIn.Value.Div(amountOut.Value),
		PoolAddress:     pool,
		UserAddress:     actor.String(),
		Fee:             decimal.New(int64(meta.Fee), -int32(c.QuoteDecimals)),
		Slot:            slot,
	}, true
}

// -----------------------------------------------------------------------------

// matchProgram returns the protocol variant of the first instruction that
// targets a recognized program id.
func (c *Classifier) matchProgram(tx *solana.Transaction) (string, bool) {
	for _, ins := range tx.Message.Instructions {
		program, err := tx.Message.ResolveProgramIDIndex(ins.ProgramIDIndex)
		if err != nil {
			continue
		}
		if variant, ok := c.Programs[program.String()]; ok {
			return variant, true
		}
	}
	return "", false
}

// -----------------------------------------------------------------------------

// applyBalances folds one token-balance snapshot into deltas, restricted to
// accounts owned by the actor. Amounts accumulate in raw token units.
func (c *Classifier) applyBalances(balances []rpc.TokenBalance, actor solana.PublicKey, deltas map[string]*mintDelta, sign int) {
	for _, b := range balances {
		if b.Owner == nil || !b.Owner.Equals(actor) {
			continue
		}
		if b.UiTokenAmount == nil {
			continue
		}

		raw, err := decimal.NewFromString(b.UiTokenAmount.Amount)
		if err != nil {
			continue
		}

		mint := b.Mint.String()
		d, ok := deltas[mint]
		if !ok {
			d = &mintDelta{decimals: b.UiTokenAmount.Decimals}
			deltas[mint] = d
		}

		if sign < 0 {
			d.delta = d.delta.Sub(raw)
		} else {
			d.delta = d.delta.Add(raw)
		}
	}
}

// -----------------------------------------------------------------------------

// quoteDelta returns the actor's quote movement in raw units. Wrapped-quote
// token accounts take precedence; when the quote never appears in the token
// snapshots the native lamport delta of the fee payer is used instead, with
// the transaction fee added back so the fee does not masquerade as spend.
func (c *Classifier) quoteDelta(meta *rpc.TransactionMeta, deltas map[string]*mintDelta) (decimal.Decimal, uint8) {
	if d, ok := deltas[c.QuoteMint]; ok && !d.delta.IsZero() {
		return d.delta, d.decimals
	}

	if len(meta.PreBalances) > 0 && len(meta.PostBalances) > 0 {
		pre := decimal.NewFromUint64(meta.PreBalances[0])
		post := decimal.NewFromUint64(meta.PostBalances[0])
		fee := decimal.NewFromUint64(meta.Fee)
		return post.Sub(pre).Add(fee), c.QuoteDecimals
	}

	return decimal.Zero, c.QuoteDecimals
}
