package models

import "github.com/shopspring/decimal"

// MTradeStats is an aggregation folded over a filtered transaction set.
type MTradeStats struct {
	TotalTransactions int             `json:"total_transactions"`
	TotalVolume       decimal.Decimal `json:"total_volume"`
	BuyCount          int             `json:"buy_count"`
	SellCount         int             `json:"sell_count"`
	AveragePrice      decimal.Decimal `json:"average_price"`
	UniqueUsers       int             `json:"unique_users"`
}

// MRecentPage is one offset/limit window over transactions sorted by block
// time descending.
type MRecentPage struct {
	Items    []MIndexedTransaction `json:"items"`
	Total    int                   `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
	HasMore  bool                  `json:"has_more"`
}
