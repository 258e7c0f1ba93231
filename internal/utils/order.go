package utils

import (
	"github.com/rxtech-lab/argo-chart/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/shopspring/decimal"
)

// CalculateMaxQuantity calculates the maximum quantity that can be bought with the given balance including fees.
func CalculateMaxQuantity(balance float64, price float64, commissionFee commission_fee.CommissionFee) float64 {
	// Handle edge cases
	if price <= 0 || balance <= 0 {
		return 0
	}

	// Initial rough estimate (ignoring fees)
	maxQty := balance / price

	// Iteratively refine by accounting for fees
	for i := 0; i < 10; i++ { // Usually converges quickly, limit iterations
		totalCost := maxQty*price + commissionFee.Calculate(maxQty, price)
		if totalCost <= balance {
			break
		}
		// Adjust quantity down proportionally
		adjustment := balance / totalCost
		maxQty = maxQty * adjustment
	}

	return maxQty
}

// RoundToDecimalPrecision floors the quantity to the specified decimal precision.
func RoundToDecimalPrecision(quantity float64, decimalPrecision int) float64 {
	return decimal.NewFromFloat(quantity).RoundFloor(int32(decimalPrecision)).InexactFloat64()
}

// CalculateRiskQuantity returns the quantity whose loss at the stop equals
// equity * riskFraction, floored to decimalPrecision. A non-positive stop
// distance yields 0.
func CalculateRiskQuantity(equity, riskFraction, stopDistance float64, decimalPrecision int) float64 {
	if stopDistance <= 0 || equity <= 0 || riskFraction <= 0 {
		return 0
	}

	budget := decimal.NewFromFloat(equity).Mul(decimal.NewFromFloat(riskFraction))
	quantity := budget.Div(decimal.NewFromFloat(stopDistance)).RoundFloor(int32(decimalPrecision))

	return quantity.InexactFloat64()
}
