package commission_fee

import "github.com/shopspring/decimal"

// InteractiveBrokerCommissionFee charges per unit with a minimum per fill.
type InteractiveBrokerCommissionFee struct {
	perUnit decimal.Decimal
	minimum decimal.Decimal
}

func NewInteractiveBrokerCommissionFee() CommissionFee {
	return &InteractiveBrokerCommissionFee{
		perUnit: decimal.NewFromFloat(0.005),
		minimum: decimal.NewFromInt(1),
	}
}

func (c *InteractiveBrokerCommissionFee) Calculate(quantity float64, _ float64) float64 {
	fee := c.perUnit.Mul(decimal.NewFromFloat(quantity).Abs())
	if fee.LessThan(c.minimum) {
		return c.minimum.InexactFloat64()
	}

	return fee.InexactFloat64()
}
