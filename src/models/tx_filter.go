package models

import "github.com/shopspring/decimal"

// MTxFilter narrows indexer results. Zero values mean "no constraint":
// StartTime/EndTime of 0 leave the time window open on that side, an empty
// Action/User/ProtocolVariant matches everything and a zero MaxAmount
// disables the upper amount bound.
type MTxFilter struct {
	StartTime       int64
	EndTime         int64
	Action          string
	MinAmount       decimal.Decimal
	MaxAmount       decimal.Decimal
	User            string
	ProtocolVariant string
}

// Matches reports whether tx passes every constraint of the filter.
func (f MTxFilter) Matches(tx MIndexedTransaction) bool {
	if f.StartTime > 0 && tx.BlockTime < f.StartTime {
		return false
	}
	if f.EndTime > 0 && tx.BlockTime > f.EndTime {
		return false
	}
	if f.Action != "" && tx.Action != f.Action {
		return false
	}
	if !f.MinAmount.IsZero() && tx.AmountIn.Value.LessThan(f.MinAmount) {
		return false
	}
	if !f.MaxAmount.IsZero() && tx.AmountIn.Value.GreaterThan(f.MaxAmount) {
		return false
	}
	if f.User != "" && tx.UserAddress != f.User {
		return false
	}
	if f.ProtocolVariant != "" && tx.ProtocolVariant != f.ProtocolVariant {
		return false
	}
	return true
}
