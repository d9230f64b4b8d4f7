package feed

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"tokenfeed/src/models"
)

// -----------------------------------------------------------------------------
// Wire payload shapes. All numeric fields arrive as decimal strings.
// -----------------------------------------------------------------------------

type rawKline struct {
	BaseMint    string `json:"base_mint"`
	Open        string `json:"open"`
	High        string `json:"high"`
	Low         string `json:"low"`
	Close       string `json:"close"`
	Volume      string `json:"volume"`
	QuoteVolume string `json:"quote_volume"`
	StartTime   int64  `json:"start_time"`
	EndTime     int64  `json:"end_time"`
	TradeCount  int64  `json:"trade_count"`
}

type rawTrade struct {
	TraderAddress string `json:"trader_address"`
	Time          int64  `json:"time"`
	PoolAddress   string `json:"pool_address"`
	AmountIn      string `json:"amount_in"`
	AmountOut     string `json:"amount_out"`
	BaseMint      string `json:"base_mint"`
	QuoteMint     string `json:"quote_mint"`
	Type          string `json:"type"`
}

// -----------------------------------------------------------------------------

// parseDecimal parses a wire decimal string; an absent field decodes as zero.
func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// -----------------------------------------------------------------------------

// normalizeKline re-shapes a raw KLINE data frame into a models.MKline.
// OHLC consistency is NOT validated; a frame that parses passes through even
// when low/high are inverted.
func normalizeKline(data json.RawMessage) (models.MKline, error) {
	var raw rawKline
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.MKline{}, fmt.Errorf("kline payload: %w", err)
	}

	k := models.MKline{
		BaseMint:   raw.BaseMint,
		StartTime:  raw.StartTime,
		EndTime:    raw.EndTime,
		TradeCount: raw.TradeCount,
	}

	var err error
	if k.Open, err = parseDecimal(raw.Open); err != nil {
		return models.MKline{}, fmt.Errorf("kline open: %w", err)
	}
	if k.High, err = parseDecimal(raw.High); err != nil {
		return models.MKline{}, fmt.Errorf("kline high: %w", err)
	}
	if k.Low, err = parseDecimal(raw.Low); err != nil {
		return models.MKline{}, fmt.Errorf("kline low: %w", err)
	}
	if k.Close, err = parseDecimal(raw.Close); err != nil {
		return models.MKline{}, fmt.Errorf("kline close: %w", err)
	}
	if k.Volume, err = parseDecimal(raw.Volume); err != nil {
		return models.MKline{}, fmt.Errorf("kline volume: %w", err)
	}
	if k.QuoteVolume, err = parseDecimal(raw.QuoteVolume); err != nil {
		return models.MKline{}, fmt.Errorf("kline quote volume: %w", err)
	}

	return k, nil
}

// -----------------------------------------------------------------------------

// normalizeTrade re-shapes a raw TRADE data frame into a models.MTrade.
func normalizeTrade(data json.RawMessage) (models.MTrade, error) {
	var raw rawTrade
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.MTrade{}, fmt.Errorf("trade payload: %w", err)
	}

	t := models.MTrade{
		TraderAddress: raw.TraderAddress,
		Time:          raw.Time,
		PoolAddress:   raw.PoolAddress,
		BaseMint:      raw.BaseMint,
		QuoteMint:     raw.QuoteMint,
		Type:          raw.Type,
	}

	var err error
	if t.AmountIn, err = parseDecimal(raw.AmountIn); err != nil {
		return models.MTrade{}, fmt.Errorf("trade amount_in: %w", err)
	}
	if t.AmountOut, err = parseDecimal(raw.AmountOut); err != nil {
		return models.MTrade{}, fmt.Errorf("trade amount_out: %w", err)
	}

	return t, nil
}
