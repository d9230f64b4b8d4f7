package models

import "github.com/shopspring/decimal"

// Trade side constants
const (
	TradeSideBuy  = "buy"
	TradeSideSell = "sell"
)

// MTrade is a normalized live trade produced from raw TRADE feed frames.
type MTrade struct {
	TraderAddress string          `json:"trader_address"`
	Time          int64           `json:"time"`
	PoolAddress   string          `json:"pool_address"`
	AmountIn      decimal.Decimal `json:"amount_in"`
	AmountOut     decimal.Decimal `json:"amount_out"`
	BaseMint      string          `json:"base_mint"`
	QuoteMint     string          `json:"quote_mint"`
	Type          string          `json:"type"` // "buy" | "sell"
}
