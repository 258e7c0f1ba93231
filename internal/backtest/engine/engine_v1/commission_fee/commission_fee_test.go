package commission_fee

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type CommissionFeeTestSuite struct {
	suite.Suite
}

func TestCommissionFeeSuite(t *testing.T) {
	suite.Run(t, new(CommissionFeeTestSuite))
}

func (suite *CommissionFeeTestSuite) TestZeroCommissionFee() {
	fee := NewZeroCommissionFee()
	suite.NotNil(fee)

	tests := []struct {
		name     string
		quantity float64
		price    float64
	}{
		{"zero quantity", 0, 100},
		{"small quantity", 10, 100},
		{"large quantity", 10000, 25.5},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(0.0, fee.Calculate(tc.quantity, tc.price))
		})
	}
}

func (suite *CommissionFeeTestSuite) TestInteractiveBrokerCommissionFee() {
	fee := NewInteractiveBrokerCommissionFee()
	suite.NotNil(fee)

	tests := []struct {
		name     string
		quantity float64
		expected float64
	}{
		{"zero quantity", 0, 1.0},
		{"small quantity - min fee", 10, 1.0},
		{"quantity at threshold", 200, 1.0},
		{"large quantity", 1000, 5.0},
		{"very large quantity", 10000, 50.0},
		{"short quantity uses magnitude", -1000, 5.0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, fee.Calculate(tc.quantity, 123.45))
		})
	}
}

func (suite *CommissionFeeTestSuite) TestPercentageCommissionFee() {
	fee := NewPercentageCommissionFee(DefaultPercentageRate)

	suite.InDelta(0.2, fee.Calculate(2, 100), 1e-12)
	suite.InDelta(1.5, fee.Calculate(0.5, 3000), 1e-12)
	suite.Equal(0.0, fee.Calculate(0, 3000))
}

func (suite *CommissionFeeTestSuite) TestGetCommissionFeeHandler() {
	tests := []struct {
		name           string
		broker         Broker
		quantity       float64
		price          float64
		expectedResult float64
	}{
		{"interactive broker", BrokerInteractiveBroker, 1000, 10, 5.0},
		{"percentage", BrokerPercentage, 10, 100, 1.0},
		{"zero commission", BrokerZero, 1000, 10, 0.0},
		{"unknown broker defaults to zero", Broker("unknown"), 1000, 10, 0.0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			handler := GetCommissionFeeHandler(tc.broker)
			suite.NotNil(handler)
			suite.InDelta(tc.expectedResult, handler.Calculate(tc.quantity, tc.price), 1e-12)
		})
	}
}
