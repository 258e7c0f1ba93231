package types

// Direction is the predicted or realized price movement over a horizon.
type Direction string

const (
	DirectionUp       Direction = "UP"
	DirectionDown     Direction = "DOWN"
	DirectionSideways Direction = "SIDEWAYS"
)

// Vote is one weighted opinion that went into a prediction.
type Vote struct {
	Source string  `json:"source" yaml:"source"`
	Bias   Bias    `json:"bias" yaml:"bias"`
	Weight float64 `json:"weight" yaml:"weight"`
	Reason string  `json:"reason" yaml:"reason"`
}

// Prediction is the directional forecast for the last bar of a series.
type Prediction struct {
	Direction    Direction `json:"direction" yaml:"direction"`
	CurrentPrice float64   `json:"current_price" yaml:"current_price"`
	TargetPrice  float64   `json:"target_price" yaml:"target_price"`
	Confidence   float64   `json:"confidence" yaml:"confidence"`
	HorizonBars  int       `json:"horizon_bars" yaml:"horizon_bars"`
	Reasons      []string  `json:"reasons" yaml:"reasons"`
	Votes        []Vote    `json:"votes" yaml:"votes"`
}
