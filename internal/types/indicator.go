package types

import "fmt"

// IndicatorName identifies one computed indicator line.
type IndicatorName string

const (
	IndicatorRSI           IndicatorName = "rsi"
	IndicatorMACD          IndicatorName = "macd"
	IndicatorMACDSignal    IndicatorName = "macd_signal"
	IndicatorMACDHistogram IndicatorName = "macd_histogram"
	IndicatorBBUpper       IndicatorName = "bb_upper"
	IndicatorBBMiddle      IndicatorName = "bb_middle"
	IndicatorBBLower       IndicatorName = "bb_lower"
	IndicatorBBWidth       IndicatorName = "bb_width"
	IndicatorStochK        IndicatorName = "stoch_k"
	IndicatorStochD        IndicatorName = "stoch_d"
	IndicatorWilliamsR     IndicatorName = "williams_r"
	IndicatorCCI           IndicatorName = "cci"
	IndicatorATR           IndicatorName = "atr"
	IndicatorOBV           IndicatorName = "obv"
	IndicatorVolumeMA      IndicatorName = "volume_ma"
	IndicatorVolumeRatio   IndicatorName = "volume_ratio"
)

// SMAName returns the indicator name of the simple moving average with the given period.
func SMAName(period int) IndicatorName {
	return IndicatorName(fmt.Sprintf("sma_%d", period))
}

// EMAName returns the indicator name of the exponential moving average with the given period.
func EMAName(period int) IndicatorName {
	return IndicatorName(fmt.Sprintf("ema_%d", period))
}
