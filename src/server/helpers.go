package server

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"tokenfeed/src/models"
	"tokenfeed/src/utils"
)

// -----------------------------------------------------------------------------

// assetMint returns the non-quote side of a classified transaction.
func assetMint(tx *models.MIndexedTransaction) string {
	if tx.AmountIn.Mint != utils.QuoteMint {
		return tx.AmountIn.Mint
	}
	return tx.AmountOut.Mint
}

// -----------------------------------------------------------------------------

// parseFilter builds an indexer filter from query parameters. Absent or
// malformed parameters decode as zero values, which the filter treats as
// unconstrained.
func parseFilter(c *gin.Context) models.MTxFilter {
	return models.MTxFilter{
		StartTime:       safeInt64(c.Query("start_time")),
		EndTime:         safeInt64(c.Query("end_time")),
		Action:          c.Query("action"),
		MinAmount:       safeDecimal(c.Query("min_amount")),
		MaxAmount:       safeDecimal(c.Query("max_amount")),
		User:            c.Query("user"),
		ProtocolVariant: c.Query("variant"),
	}
}

// -----------------------------------------------------------------------------

func parsePositiveInt(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

// -----------------------------------------------------------------------------

func safeInt64(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// -----------------------------------------------------------------------------

func safeDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return v
}
