package models

import "github.com/shopspring/decimal"

// MTokenAmount is one side of a classified trade.
type MTokenAmount struct {
	Value    decimal.Decimal `json:"value"`
	Mint     string          `json:"mint"`
	Decimals uint8           `json:"decimals"`
}

// MIndexedTransaction is a historical buy/sell reconstructed from ledger
// balance deltas. It is a pure derived view: never mutated after construction,
// only recomputed on re-fetch. Signature is globally unique and immutable.
type MIndexedTransaction struct {
	Signature       string          `json:"signature"`
	BlockTime       int64           `json:"block_time"`
	Action          string          `json:"action"` // "buy" | "sell"
	ProtocolVariant string          `json:"protocol_variant"`
	AmountIn        MTokenAmount    `json:"amount_in"`
	AmountOut       MTokenAmount    `json:"amount_out"`
	Price           decimal.Decimal `json:"price"`
	PoolAddress     string          `json:"pool_address"`
	UserAddress     string          `json:"user_address"`
	Fee             decimal.Decimal `json:"fee"`
	Slot            uint64          `json:"slot"`
}
