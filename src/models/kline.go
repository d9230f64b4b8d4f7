package models

import "github.com/shopspring/decimal"

// MKline is a normalized candle produced from raw KLINE feed frames.
// Numeric fields arrive as decimal strings on the wire and are parsed before
// arithmetic. The client does not enforce low <= open,close <= high; malformed
// frames are passed through to consumers as-is.
type MKline struct {
	BaseMint    string          `json:"base_mint"`
	Open        decimal.Decimal `json:"open"`
	High        decimal.Decimal `json:"high"`
	Low         decimal.Decimal `json:"low"`
	Close       decimal.Decimal `json:"close"`
	Volume      decimal.Decimal `json:"volume"`
	QuoteVolume decimal.Decimal `json:"quote_volume"`
	StartTime   int64           `json:"start_time"`
	EndTime     int64           `json:"end_time"`
	TradeCount  int64           `json:"trade_count"`
}
