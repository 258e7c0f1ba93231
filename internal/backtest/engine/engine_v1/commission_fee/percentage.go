package commission_fee

import "github.com/shopspring/decimal"

// DefaultPercentageRate is 0.1% of notional, the usual spot crypto taker fee.
const DefaultPercentageRate = 0.001

// PercentageCommissionFee charges a fixed fraction of the fill notional.
type PercentageCommissionFee struct {
	rate decimal.Decimal
}

func NewPercentageCommissionFee(rate float64) CommissionFee {
	return &PercentageCommissionFee{
		rate: decimal.NewFromFloat(rate),
	}
}

func (c *PercentageCommissionFee) Calculate(quantity float64, price float64) float64 {
	notional := decimal.NewFromFloat(quantity).Mul(decimal.NewFromFloat(price)).Abs()

	return notional.Mul(c.rate).InexactFloat64()
}
