package analysis

import (
	"sort"

	"github.com/shopspring/decimal"

	"tokenfeed/src/models"
)

// -----------------------------------------------------------------------------
// KlineBuilder
// -----------------------------------------------------------------------------

// KlineBuilder folds classified ledger transactions into OHLC candles. It is
// stateless; each call works on the slice it is given.
type KlineBuilder struct{}

// -----------------------------------------------------------------------------

// CalculateWindowBoundaries aligns ts to its enclosing window.
func CalculateWindowBoundaries(ts int64, window int64) (int64, int64) {
	start := ts - (ts % window)
	return start, start + window
}

// -----------------------------------------------------------------------------

// BuildKlines groups txs into windowSeconds-wide candles, oldest first.
// Windows with no trades produce no candle (gaps are the front end's concern).
// Volume sums the non-quote leg, quote volume the quote leg.
func (b *KlineBuilder) BuildKlines(txs []models.MIndexedTransaction, baseMint string, windowSeconds int64) []models.MKline {
	if len(txs) == 0 || windowSeconds <= 0 {
		return []models.MKline{}
	}

	// Oldest first so the first trade of a window is its open.
	ordered := make([]models.MIndexedTransaction, len(txs))
	copy(ordered, txs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].BlockTime < ordered[j].BlockTime
	})

	var klines []models.MKline
	var current *models.MKline

	for _, tx := range ordered {
		start, end := CalculateWindowBoundaries(tx.BlockTime, windowSeconds)

		if current == nil || current.StartTime != start {
			if current != nil {
				klines = append(klines, *current)
			}
			current = &models.MKline{
				BaseMint:  baseMint,
				Open:      tx.Price,
				High:      tx.Price,
				Low:       tx.Price,
				Close:     tx.Price,
				StartTime: start,
				EndTime:   end,
			}
		}

		if tx.Price.GreaterThan(current.High) {
			current.High = tx.Price
		}
		if tx.Price.LessThan(current.Low) {
			current.Low = tx.Price
		}
		current.Close = tx.Price
		current.Volume = current.Volume.Add(assetLeg(&tx))
		current.QuoteVolume = current.QuoteVolume.Add(quoteLeg(&tx))
		current.TradeCount++
	}

	if current != nil {
		klines = append(klines, *current)
	}

	return klines
}

// -----------------------------------------------------------------------------

func quoteLeg(tx *models.MIndexedTransaction) decimal.Decimal {
	if tx.Action == models.TradeSideBuy {
		return tx.AmountIn.Value
	}
	return tx.AmountOut.Value
}

// -----------------------------------------------------------------------------

func assetLeg(tx *models.MIndexedTransaction) decimal.Decimal {
	if tx.Action == models.TradeSideBuy {
		return tx.AmountOut.Value
	}
	return tx.AmountIn.Value
}
