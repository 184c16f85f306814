package service

import (
	"github.com/govalues/decimal"

	"github.com/quickcart/orders/internal/core/domain"
)

// toMinorUnits converts a decimal amount into the currency's smallest
// unit for the gateway boundary. Only two-decimal currencies are handled.
func toMinorUnits(d decimal.Decimal) (int64, error) {
	whole, frac, ok := d.Round(2).Int64(2)
	if !ok {
		return 0, domain.ErrInternal
	}
	return whole*100 + frac, nil
}

func fromMinorUnits(v int64) (decimal.Decimal, error) {
	return decimal.New(v, 2)
}
