package engine

import (
	"math"

	"github.com/rxtech-lab/argo-chart/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-chart/internal/config"
	"github.com/rxtech-lab/argo-chart/internal/types"
	"github.com/rxtech-lab/argo-chart/internal/utils"
	"github.com/shopspring/decimal"
)

// simulation replays signals in bar order with at most one open position.
// A position is Flat -> Open -> Closed by stop loss, take profit or horizon.
type simulation struct {
	series        types.Series
	cfg           config.Config
	commissionFee commission_fee.CommissionFee
	equity        decimal.Decimal
	trades        []types.Trade
	// lastExit is the bar the previous position closed on; new positions open after it.
	lastExit int
}

func newSimulation(series types.Series, cfg config.Config, fee commission_fee.CommissionFee) *simulation {
	return &simulation{
		series:        series,
		cfg:           cfg,
		commissionFee: fee,
		equity:        decimal.NewFromFloat(cfg.Backtest.InitialCapital),
		trades:        make([]types.Trade, 0),
		lastExit:      -1,
	}
}

// step opens a position on an actionable signal at bar t and resolves it
// against the following bars. It reports false when no trade was made.
func (s *simulation) step(t int, signal types.Signal) (types.Trade, bool) {
	if !signal.IsActionable() || t <= s.lastExit || t >= s.series.Len()-1 {
		return types.Trade{}, false
	}

	side := types.PositionSideLong
	if signal.Action == types.ActionSell {
		side = types.PositionSideShort
	}

	equity := s.equity.InexactFloat64()
	entry := signal.EntryPrice
	precision := s.cfg.Signal.QuantityPrecision

	quantity := utils.CalculateRiskQuantity(equity, s.cfg.Signal.MaxRiskPerTrade, math.Abs(entry-signal.StopLoss), precision)
	affordable := utils.RoundToDecimalPrecision(utils.CalculateMaxQuantity(equity, math.Abs(entry), s.commissionFee), precision)
	quantity = math.Min(quantity, affordable)

	if quantity <= 0 {
		return types.Trade{}, false
	}

	exitIndex, exitPrice, reason := s.resolve(t, side, signal.StopLoss, signal.TakeProfit)

	fee := s.commissionFee.Calculate(quantity, entry) + s.commissionFee.Calculate(quantity, exitPrice)
	pnl := decimal.NewFromFloat(exitPrice).Sub(decimal.NewFromFloat(entry)).
		Mul(decimal.NewFromFloat(side.Sign())).
		Mul(decimal.NewFromFloat(quantity)).
		Sub(decimal.NewFromFloat(fee))

	trade := types.Trade{
		Side:       side,
		EntryIndex: t,
		EntryTime:  s.series.Bars[t].Time,
		EntryPrice: entry,
		ExitIndex:  exitIndex,
		ExitTime:   s.series.Bars[exitIndex].Time,
		ExitPrice:  exitPrice,
		Quantity:   quantity,
		StopLoss:   signal.StopLoss,
		TakeProfit: signal.TakeProfit,
		ExitReason: reason,
		Fee:        fee,
		PnL:        pnl.InexactFloat64(),
		Return:     0,
	}

	if !s.equity.IsZero() {
		trade.Return = pnl.Div(s.equity).InexactFloat64()
	}

	s.equity = s.equity.Add(pnl)
	s.trades = append(s.trades, trade)
	s.lastExit = exitIndex

	return trade, true
}

// resolve walks the bars after entry. The stop is checked before the take
// profit, and a bar that opens beyond a level fills at its open.
func (s *simulation) resolve(t int, side types.PositionSide, stop, takeProfit float64) (int, float64, types.ExitReason) {
	horizon := s.cfg.Prediction.PredictionHorizonBars
	last := min(t+horizon, s.series.Len()-1)

	for j := t + 1; j <= last; j++ {
		bar := s.series.Bars[j]

		if side == types.PositionSideLong {
			if bar.Low <= stop {
				return j, math.Min(bar.Open, stop), types.ExitReasonStopLoss
			}

			if bar.High >= takeProfit {
				return j, math.Max(bar.Open, takeProfit), types.ExitReasonTakeProfit
			}

			continue
		}

		if bar.High >= stop {
			return j, math.Max(bar.Open, stop), types.ExitReasonStopLoss
		}

		if bar.Low <= takeProfit {
			return j, math.Min(bar.Open, takeProfit), types.ExitReasonTakeProfit
		}
	}

	if t+horizon < s.series.Len() {
		return last, s.series.Bars[last].Close, types.ExitReasonHorizonExpiry
	}

	return last, s.series.Bars[last].Close, types.ExitReasonEndOfData
}
