// Package config holds the immutable analysis configuration shared by every engine.
//
// A Config value is passed explicitly into each call; there is no global settings
// object. Load starts from Default and overlays a YAML file, Validate checks field
// tags and the cross-field rules.
package config

import (
	"encoding/json"
	"math"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-chart/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-chart/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	StrategyTalib  = "talib"
	StrategyManual = "manual"
)

type Config struct {
	LogLevel   string           `yaml:"log_level" json:"log_level" jsonschema:"title=Log Level,enum=debug,enum=info,enum=warn,enum=error" validate:"omitempty,oneof=debug info warn error"`
	Indicator  IndicatorConfig  `yaml:"indicator" json:"indicator" jsonschema:"title=Indicator"`
	Pattern    PatternConfig    `yaml:"pattern" json:"pattern" jsonschema:"title=Pattern"`
	Prediction PredictionConfig `yaml:"prediction" json:"prediction" jsonschema:"title=Prediction"`
	Signal     SignalConfig     `yaml:"signal" json:"signal" jsonschema:"title=Signal"`
	Backtest   BacktestConfig   `yaml:"backtest" json:"backtest" jsonschema:"title=Backtest"`
}

type MACDConfig struct {
	Fast   int `yaml:"fast" json:"fast" jsonschema:"title=Fast Period,minimum=2" validate:"min=2"`
	Slow   int `yaml:"slow" json:"slow" jsonschema:"title=Slow Period,minimum=3" validate:"min=3"`
	Signal int `yaml:"signal" json:"signal" jsonschema:"title=Signal Period,minimum=1" validate:"min=1"`
}

type IndicatorConfig struct {
	// Strategy selects the calculator: "talib" (library backed) or "manual".
	Strategy string `yaml:"strategy" json:"strategy" jsonschema:"title=Calculator Strategy,enum=talib,enum=manual" validate:"oneof=talib manual"`
	// MAPeriods are the SMA periods. The first three are the fast, mid and slow trend averages.
	MAPeriods      []int      `yaml:"ma_periods" json:"ma_periods" jsonschema:"title=SMA Periods,minItems=3" validate:"min=3,dive,min=2"`
	EMAPeriods     []int      `yaml:"ema_periods" json:"ema_periods" jsonschema:"title=EMA Periods" validate:"dive,min=2"`
	RSIPeriod      int        `yaml:"rsi_period" json:"rsi_period" jsonschema:"title=RSI Period,minimum=2" validate:"min=2"`
	MACD           MACDConfig `yaml:"macd" json:"macd" jsonschema:"title=MACD"`
	BBPeriod       int        `yaml:"bb_period" json:"bb_period" jsonschema:"title=Bollinger Period,minimum=2" validate:"min=2"`
	BBStdDev       float64    `yaml:"bb_std_dev" json:"bb_std_dev" jsonschema:"title=Bollinger Std Dev Multiplier,exclusiveMinimum=0" validate:"gt=0"`
	StochKPeriod   int        `yaml:"stoch_k_period" json:"stoch_k_period" jsonschema:"title=Stochastic %K Period,minimum=2" validate:"min=2"`
	StochDPeriod   int        `yaml:"stoch_d_period" json:"stoch_d_period" jsonschema:"title=Stochastic %D Period,minimum=2" validate:"min=2"`
	WilliamsPeriod int        `yaml:"williams_period" json:"williams_period" jsonschema:"title=Williams %R Period,minimum=2" validate:"min=2"`
	CCIPeriod      int        `yaml:"cci_period" json:"cci_period" jsonschema:"title=CCI Period,minimum=2" validate:"min=2"`
	ATRPeriod      int        `yaml:"atr_period" json:"atr_period" jsonschema:"title=ATR Period,minimum=1" validate:"min=1"`
	VolumeMAPeriod int        `yaml:"volume_ma_period" json:"volume_ma_period" jsonschema:"title=Volume MA Period,minimum=2" validate:"min=2"`
}

// ConfidenceWeights weight the pattern confidence factors. They must sum to 1.
type ConfidenceWeights struct {
	Fit      float64 `yaml:"fit" json:"fit" validate:"gte=0,lte=1"`
	Symmetry float64 `yaml:"symmetry" json:"symmetry" validate:"gte=0,lte=1"`
	Volume   float64 `yaml:"volume" json:"volume" validate:"gte=0,lte=1"`
	Duration float64 `yaml:"duration" json:"duration" validate:"gte=0,lte=1"`
}

type PatternConfig struct {
	MinBars                   int               `yaml:"min_bars" json:"min_bars" jsonschema:"title=Minimum Bars,description=Series shorter than this yield no patterns" validate:"min=3"`
	ExtremaWindow             int               `yaml:"extrema_window" json:"extrema_window" jsonschema:"title=Extrema Window" validate:"min=1"`
	SwingWindow               int               `yaml:"swing_window" json:"swing_window" jsonschema:"title=Swing Window,description=Extrema window used for triangle boundaries" validate:"min=1"`
	PatternTolerancePct       float64           `yaml:"pattern_tolerance_pct" json:"pattern_tolerance_pct" jsonschema:"title=Pattern Tolerance" validate:"gt=0,lt=1"`
	MinPatternBarSeparation   int               `yaml:"min_pattern_bar_separation" json:"min_pattern_bar_separation" jsonschema:"title=Minimum Bar Separation" validate:"min=1"`
	MinRetracementPct         float64           `yaml:"min_retracement_pct" json:"min_retracement_pct" jsonschema:"title=Minimum Retracement" validate:"gte=0,lt=1"`
	HeadMinProminencePct      float64           `yaml:"head_min_prominence_pct" json:"head_min_prominence_pct" jsonschema:"title=Head Prominence" validate:"gte=0,lt=1"`
	RSquaredThreshold         float64           `yaml:"r_squared_threshold" json:"r_squared_threshold" jsonschema:"title=R Squared Threshold,minimum=0,maximum=1" validate:"gte=0,lte=1"`
	TriangleMinWindow         int               `yaml:"triangle_min_window" json:"triangle_min_window" validate:"min=5"`
	TriangleMaxWindow         int               `yaml:"triangle_max_window" json:"triangle_max_window" validate:"min=5"`
	FlatSlopePct              float64           `yaml:"flat_slope_pct" json:"flat_slope_pct" jsonschema:"title=Flat Slope,description=Per-bar slope relative to mean price below which a line is flat" validate:"gt=0"`
	BreakoutLookback          int               `yaml:"breakout_lookback" json:"breakout_lookback" validate:"min=2"`
	MinLevelTouches           int               `yaml:"min_level_touches" json:"min_level_touches" validate:"min=1"`
	LevelTouchTolerancePct    float64           `yaml:"level_touch_tolerance_pct" json:"level_touch_tolerance_pct" validate:"gte=0,lt=1"`
	BreakoutMarginPct         float64           `yaml:"breakout_margin_pct" json:"breakout_margin_pct" validate:"gte=0,lt=1"`
	VolumeBreakoutMultiple    float64           `yaml:"volume_breakout_multiple" json:"volume_breakout_multiple" validate:"gte=0"`
	ChannelWindow             int               `yaml:"channel_window" json:"channel_window" validate:"min=4"`
	WeakeningShortWindow      int               `yaml:"weakening_short_window" json:"weakening_short_window" jsonschema:"title=Weakening Short Window" validate:"min=2"`
	WeakeningLongWindow       int               `yaml:"weakening_long_window" json:"weakening_long_window" jsonschema:"title=Weakening Long Window" validate:"min=3"`
	WeakeningSlopeRatio       float64           `yaml:"weakening_slope_ratio" json:"weakening_slope_ratio" jsonschema:"title=Weakening Slope Ratio,description=Short slope below this fraction of the long slope marks a weakening trend" validate:"gt=0,lt=1"`
	DurationReferenceFraction float64           `yaml:"duration_reference_fraction" json:"duration_reference_fraction" validate:"gt=0,lte=1"`
	Weights                   ConfidenceWeights `yaml:"weights" json:"weights"`
}

type PredictionConfig struct {
	PredictionHorizonBars int     `yaml:"prediction_horizon_bars" json:"prediction_horizon_bars" jsonschema:"title=Prediction Horizon,minimum=1" validate:"min=1"`
	SwingLookback         int     `yaml:"swing_lookback" json:"swing_lookback" validate:"min=2"`
	TrendWeight           float64 `yaml:"trend_weight" json:"trend_weight" validate:"gte=0"`
	MomentumWeight        float64 `yaml:"momentum_weight" json:"momentum_weight" validate:"gte=0"`
	PatternWeight         float64 `yaml:"pattern_weight" json:"pattern_weight" validate:"gte=0"`
	RSIOversold           float64 `yaml:"rsi_oversold" json:"rsi_oversold" validate:"gte=0,lte=100"`
	RSIOverbought         float64 `yaml:"rsi_overbought" json:"rsi_overbought" validate:"gte=0,lte=100"`
	TopPatterns           int     `yaml:"top_patterns" json:"top_patterns" validate:"min=1"`
	ActivePatternBars     int     `yaml:"active_pattern_bars" json:"active_pattern_bars" validate:"min=0"`
	// SidewaysThresholdPct is the relative move below which a realized outcome counts as sideways.
	SidewaysThresholdPct float64 `yaml:"sideways_threshold_pct" json:"sideways_threshold_pct" validate:"gte=0,lt=1"`
}

type SignalConfig struct {
	ConfidenceThreshold     float64 `yaml:"confidence_threshold" json:"confidence_threshold" jsonschema:"title=Confidence Threshold,minimum=0,maximum=1" validate:"gte=0,lte=1"`
	MaxRiskPerTrade         float64 `yaml:"max_risk_per_trade" json:"max_risk_per_trade" jsonschema:"title=Max Risk Per Trade,description=Fraction of equity lost if the stop is hit" validate:"gt=0,lte=1"`
	StopLossATRMultiplier   float64 `yaml:"stop_loss_atr_multiplier" json:"stop_loss_atr_multiplier" validate:"gt=0"`
	MinRiskRewardRatio      float64 `yaml:"min_risk_reward_ratio" json:"min_risk_reward_ratio" validate:"gt=0"`
	VolumeConfirmationRatio float64 `yaml:"volume_confirmation_ratio" json:"volume_confirmation_ratio" validate:"gt=0"`
	QuantityPrecision       int     `yaml:"quantity_precision" json:"quantity_precision" validate:"min=0,max=12"`
	AccountEquity           float64 `yaml:"account_equity" json:"account_equity" jsonschema:"title=Account Equity,description=Equity used for sizing outside a backtest" validate:"gt=0"`
}

type BacktestConfig struct {
	BacktestWindowSize  int                   `yaml:"backtest_window_size" json:"backtest_window_size" jsonschema:"title=Window Size,description=Trailing bars visible to each evaluation" validate:"min=2"`
	WarmupBars          int                   `yaml:"warmup_bars" json:"warmup_bars" validate:"min=1"`
	EvaluationStep      int                   `yaml:"evaluation_step" json:"evaluation_step" validate:"min=1"`
	InitialCapital      float64               `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,minimum=0" validate:"gt=0"`
	AnnualizationFactor float64               `yaml:"annualization_factor" json:"annualization_factor" validate:"gt=0"`
	MaxConcurrency      int                   `yaml:"max_concurrency" json:"max_concurrency" jsonschema:"description=0 uses GOMAXPROCS" validate:"min=0"`
	Broker              commission_fee.Broker `yaml:"broker" json:"broker" jsonschema:"title=Broker,description=The broker to use for commission calculations" validate:"oneof=interactive_broker percentage zero_commission"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Indicator: IndicatorConfig{
			Strategy:       StrategyTalib,
			MAPeriods:      []int{9, 21, 50},
			EMAPeriods:     []int{12, 26},
			RSIPeriod:      14,
			MACD:           MACDConfig{Fast: 12, Slow: 26, Signal: 9},
			BBPeriod:       20,
			BBStdDev:       2.0,
			StochKPeriod:   14,
			StochDPeriod:   3,
			WilliamsPeriod: 14,
			CCIPeriod:      20,
			ATRPeriod:      14,
			VolumeMAPeriod: 10,
		},
		Pattern: PatternConfig{
			MinBars:                   20,
			ExtremaWindow:             5,
			SwingWindow:               2,
			PatternTolerancePct:       0.03,
			MinPatternBarSeparation:   5,
			MinRetracementPct:         0.05,
			HeadMinProminencePct:      0.02,
			RSquaredThreshold:         0.7,
			TriangleMinWindow:         20,
			TriangleMaxWindow:         50,
			FlatSlopePct:              0.0005,
			BreakoutLookback:          20,
			MinLevelTouches:           2,
			LevelTouchTolerancePct:    0.01,
			BreakoutMarginPct:         0.005,
			VolumeBreakoutMultiple:    1.5,
			ChannelWindow:             20,
			WeakeningShortWindow:      20,
			WeakeningLongWindow:       50,
			WeakeningSlopeRatio:       0.3,
			DurationReferenceFraction: 0.25,
			Weights: ConfidenceWeights{
				Fit:      0.4,
				Symmetry: 0.2,
				Volume:   0.2,
				Duration: 0.2,
			},
		},
		Prediction: PredictionConfig{
			PredictionHorizonBars: 5,
			SwingLookback:         50,
			TrendWeight:           1.0,
			MomentumWeight:        1.0,
			PatternWeight:         1.0,
			RSIOversold:           30,
			RSIOverbought:         70,
			TopPatterns:           3,
			ActivePatternBars:     10,
			SidewaysThresholdPct:  0.005,
		},
		Signal: SignalConfig{
			ConfidenceThreshold:     0.6,
			MaxRiskPerTrade:         0.02,
			StopLossATRMultiplier:   2.0,
			MinRiskRewardRatio:      1.5,
			VolumeConfirmationRatio: 1.2,
			QuantityPrecision:       4,
			AccountEquity:           10000,
		},
		Backtest: BacktestConfig{
			BacktestWindowSize:  100,
			WarmupBars:          35,
			EvaluationStep:      1,
			InitialCapital:      10000,
			AnnualizationFactor: 252,
			MaxConcurrency:      0,
			Broker:              commission_fee.BrokerZero,
		},
	}
}

// Validate checks field constraints and cross-field rules.
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid config", err)
	}

	if err := c.Indicator.Validate(); err != nil {
		return err
	}

	w := c.Pattern.Weights
	if sum := w.Fit + w.Symmetry + w.Volume + w.Duration; math.Abs(sum-1) > 1e-9 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "pattern confidence weights must sum to 1, got %f", sum)
	}

	if c.Pattern.TriangleMinWindow > c.Pattern.TriangleMaxWindow {
		return errors.Newf(errors.ErrCodeInvalidParameter, "triangle_min_window %d exceeds triangle_max_window %d",
			c.Pattern.TriangleMinWindow, c.Pattern.TriangleMaxWindow)
	}

	if c.Pattern.WeakeningShortWindow >= c.Pattern.WeakeningLongWindow {
		return errors.Newf(errors.ErrCodeInvalidParameter, "weakening_short_window %d must be below weakening_long_window %d",
			c.Pattern.WeakeningShortWindow, c.Pattern.WeakeningLongWindow)
	}

	if c.Prediction.RSIOversold >= c.Prediction.RSIOverbought {
		return errors.Newf(errors.ErrCodeInvalidParameter, "rsi_oversold %f must be below rsi_overbought %f",
			c.Prediction.RSIOversold, c.Prediction.RSIOverbought)
	}

	if c.Prediction.TrendWeight+c.Prediction.MomentumWeight+c.Prediction.PatternWeight <= 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "at least one prediction weight must be positive")
	}

	if c.Backtest.WarmupBars > c.Backtest.BacktestWindowSize {
		return errors.Newf(errors.ErrCodeInvalidParameter, "warmup_bars %d exceeds backtest_window_size %d",
			c.Backtest.WarmupBars, c.Backtest.BacktestWindowSize)
	}

	return nil
}

// Validate checks the indicator section on its own, for callers that compute
// indicators without a full Config.
func (c IndicatorConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid indicator config", err)
	}

	if c.MACD.Fast >= c.MACD.Slow {
		return errors.Newf(errors.ErrCodeInvalidParameter, "macd fast period %d must be below slow period %d",
			c.MACD.Fast, c.MACD.Slow)
	}

	for i := 1; i < len(c.MAPeriods); i++ {
		if c.MAPeriods[i] <= c.MAPeriods[i-1] {
			return errors.Newf(errors.ErrCodeInvalidParameter, "ma_periods must be strictly increasing, got %v", c.MAPeriods)
		}
	}

	return nil
}

// Parse overlays YAML data on the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	return Overlay(Default(), data)
}

// Overlay decodes YAML (or JSON) data over base and validates the result.
// Keys missing from data keep their base values.
func Overlay(base Config, data []byte) (Config, error) {
	cfg := base
	cfg.Indicator.MAPeriods = slices.Clone(base.Indicator.MAPeriods)
	cfg.Indicator.EMAPeriods = slices.Clone(base.Indicator.EMAPeriods)

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Load reads a YAML config file. An empty path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
	}

	return Parse(data)
}

// GenerateSchema generates a JSON schema for Config.
func (c Config) GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if strings.Contains(t.String(), "commission_fee.Broker") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission_fee.AllBrokers,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(&c)
	schema.Title = "argo-chart-config"
	schema.Description = "Configuration schema for chart analysis and backtesting"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

// GenerateSchemaJSON returns the JSON schema as an indented string.
func (c Config) GenerateSchemaJSON() (string, error) {
	data, err := json.MarshalIndent(c.GenerateSchema(), "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to marshal config schema", err)
	}

	return string(data), nil
}
