package types

import "time"

// PositionSide is the side of a simulated position.
type PositionSide string

const (
	PositionSideLong  PositionSide = "long"
	PositionSideShort PositionSide = "short"
)

// Sign returns +1 for long and -1 for short.
func (s PositionSide) Sign() float64 {
	if s == PositionSideShort {
		return -1
	}

	return 1
}

// ExitReason tells why a simulated position was closed.
type ExitReason string

const (
	ExitReasonStopLoss      ExitReason = "stop_loss"
	ExitReasonTakeProfit    ExitReason = "take_profit"
	ExitReasonHorizonExpiry ExitReason = "horizon_expiry"
	ExitReasonEndOfData     ExitReason = "end_of_data"
)

// Trade is one closed simulated position.
type Trade struct {
	Side       PositionSide `yaml:"side" json:"side"`
	EntryIndex int          `yaml:"entry_index" json:"entry_index"`
	EntryTime  time.Time    `yaml:"entry_time" json:"entry_time"`
	EntryPrice float64      `yaml:"entry_price" json:"entry_price"`
	ExitIndex  int          `yaml:"exit_index" json:"exit_index"`
	ExitTime   time.Time    `yaml:"exit_time" json:"exit_time"`
	ExitPrice  float64      `yaml:"exit_price" json:"exit_price"`
	Quantity   float64      `yaml:"quantity" json:"quantity"`
	StopLoss   float64      `yaml:"stop_loss" json:"stop_loss"`
	TakeProfit float64      `yaml:"take_profit" json:"take_profit"`
	ExitReason ExitReason   `yaml:"exit_reason" json:"exit_reason"`
	// Fee is the total commission for entry and exit
	Fee float64 `yaml:"fee" json:"fee"`
	// PnL is side * (exit - entry) * quantity - fee
	PnL float64 `yaml:"pnl" json:"pnl"`
	// Return is PnL relative to the equity the trade was sized from
	Return float64 `yaml:"return" json:"return"`
}

// PredictionRecord pairs a prediction made at Index with the direction realized
// over its horizon. Realized is empty when the horizon runs past the data.
type PredictionRecord struct {
	Index      int       `yaml:"index" json:"index"`
	Time       time.Time `yaml:"time" json:"time"`
	Predicted  Direction `yaml:"predicted" json:"predicted"`
	Realized   Direction `yaml:"realized,omitempty" json:"realized,omitempty"`
	Confidence float64   `yaml:"confidence" json:"confidence"`
}

// HasOutcome reports whether the realized direction is known.
func (r PredictionRecord) HasOutcome() bool {
	return r.Realized != ""
}

// EquityPoint is the account equity after the bar at Index.
type EquityPoint struct {
	Index  int       `yaml:"index" json:"index"`
	Time   time.Time `yaml:"time" json:"time"`
	Equity float64   `yaml:"equity" json:"equity"`
}
