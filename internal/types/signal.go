package types

// Action is what a signal recommends.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Strength grades how many confirmations back a signal.
type Strength string

const (
	StrengthStrong Strength = "strong"
	StrengthMedium Strength = "medium"
	StrengthWeak   Strength = "weak"
)

// Signal is an actionable trading recommendation with risk parameters.
// For BUY and SELL the stop loss differs from the entry and the position size is positive.
type Signal struct {
	// Action is BUY, SELL or HOLD
	Action Action `json:"action" yaml:"action"`
	// Strength is derived from the number of confirmations
	Strength Strength `json:"strength" yaml:"strength"`
	// EntryPrice is the close of the evaluated bar
	EntryPrice float64 `json:"entry_price" yaml:"entry_price"`
	StopLoss   float64 `json:"stop_loss" yaml:"stop_loss"`
	TakeProfit float64 `json:"take_profit" yaml:"take_profit"`
	// RiskRewardRatio is |take profit - entry| / |entry - stop loss|
	RiskRewardRatio float64 `json:"risk_reward_ratio" yaml:"risk_reward_ratio"`
	// PositionSize is the quantity to trade so that a stop out loses RiskAmount
	PositionSize float64 `json:"position_size" yaml:"position_size"`
	RiskAmount   float64 `json:"risk_amount" yaml:"risk_amount"`
	// Confirmations counts the filters that agreed with the prediction (0..3)
	Confirmations int      `json:"confirmations" yaml:"confirmations"`
	Reasons       []string `json:"reasons" yaml:"reasons"`
}

// IsActionable reports whether the signal opens a position.
func (s Signal) IsActionable() bool {
	return s.Action == ActionBuy || s.Action == ActionSell
}
