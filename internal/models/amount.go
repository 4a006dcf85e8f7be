package models

import "github.com/shopspring/decimal"

// Amount is a currency value in minor units (paise).
type Amount int64

func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -2)
}

func (a Amount) String() string {
	return a.Decimal().StringFixed(2)
}
