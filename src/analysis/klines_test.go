package analysis

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenfeed/src/models"
)

// -----------------------------------------------------------------------------

func candleTrade(blockTime int64, action string, price, quoteAmount, assetAmount string) models.MIndexedTransaction {
	quote := models.MTokenAmount{Value: mustDecimal(quoteAmount), Mint: "quote"}
	asset := models.MTokenAmount{Value: mustDecimal(assetAmount), Mint: "asset"}

	tx := models.MIndexedTransaction{
		BlockTime: blockTime,
		Action:    action,
		Price:     mustDecimal(price),
	}
	if action == models.TradeSideBuy {
		tx.AmountIn, tx.AmountOut = quote, asset
	} else {
		tx.AmountIn, tx.AmountOut = asset, quote
	}
	return tx
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// -----------------------------------------------------------------------------

func TestCalculateWindowBoundaries(t *testing.T) {
	start, end := CalculateWindowBoundaries(125, 60)
	assert.Equal(t, int64(120), start)
	assert.Equal(t, int64(180), end)

	start, end = CalculateWindowBoundaries(120, 60)
	assert.Equal(t, int64(120), start)
	assert.Equal(t, int64(180), end)
}

// -----------------------------------------------------------------------------

func TestBuildKlines(t *testing.T) {
	b := &KlineBuilder{}

	// Two trades inside 120..180, one inside 240..300; input is newest first
	// like the indexer returns it.
	txs := []models.MIndexedTransaction{
		candleTrade(250, models.TradeSideSell, "0.3", "30", "100"),
		candleTrade(150, models.TradeSideSell, "0.1", "10", "100"),
		candleTrade(130, models.TradeSideBuy, "0.2", "20", "100"),
	}

	klines := b.BuildKlines(txs, "mintA", 60)
	require.Len(t, klines, 2)

	first := klines[0]
	assert.Equal(t, "mintA", first.BaseMint)
	assert.Equal(t, int64(120), first.StartTime)
	assert.Equal(t, int64(180), first.EndTime)
	assert.Equal(t, "0.2", first.Open.String())
	assert.Equal(t, "0.1", first.Close.String())
	assert.Equal(t, "0.2", first.High.String())
	assert.Equal(t, "0.1", first.Low.String())
	assert.Equal(t, "200", first.Volume.String())
	assert.Equal(t, "30", first.QuoteVolume.String())
	assert.Equal(t, int64(2), first.TradeCount)

	second := klines[1]
	assert.Equal(t, int64(240), second.StartTime)
	assert.Equal(t, int64(1), second.TradeCount)
	assert.Equal(t, "0.3", second.Open.String())
}

// -----------------------------------------------------------------------------

func TestBuildKlinesEdgeCases(t *testing.T) {
	b := &KlineBuilder{}

	assert.Empty(t, b.BuildKlines(nil, "mintA", 60))
	assert.Empty(t, b.BuildKlines([]models.MIndexedTransaction{candleTrade(1, models.TradeSideBuy, "1", "1", "1")}, "mintA", 0))

	// A single trade is its own candle with O=H=L=C.
	klines := b.BuildKlines([]models.MIndexedTransaction{
		candleTrade(100, models.TradeSideBuy, "0.5", "5", "10"),
	}, "mintA", 60)
	require.Len(t, klines, 1)
	assert.Equal(t, klines[0].Open, klines[0].Close)
	assert.Equal(t, klines[0].High, klines[0].Low)
}
