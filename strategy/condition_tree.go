package strategy

import (
	"fmt"
	"time"

	"github.com/signalcraft/engine/indicator"
	"github.com/signalcraft/engine/types"
)

// LogicOp combines child conditions in a branch node
type LogicOp string

const (
	LogicAnd LogicOp = "and"
	LogicOr  LogicOp = "or"
)

// CompareOp relates a condition's left side to its right side
type CompareOp string

const (
	CompareGT         CompareOp = "gt"
	CompareLT         CompareOp = "lt"
	CompareCrossAbove CompareOp = "cross_above"
	CompareCrossBelow CompareOp = "cross_below"
)

// IndicatorRef names one computable series inside a condition leaf
type IndicatorRef struct {
	Name   string `json:"name"`             // close, volume, ema, sma, rsi, atr, macd_hist, obv, cci, adx, stoch_k, vwap
	Period int    `json:"period,omitempty"` // required for period-based indicators
}

// ConditionNode is one node of a generic condition tree. A branch node
// carries Op and Children; a leaf compares an indicator against either a
// fixed Value or another indicator.
type ConditionNode struct {
	Op       LogicOp          `json:"op,omitempty"`
	Children []*ConditionNode `json:"children,omitempty"`

	Left    IndicatorRef  `json:"left,omitempty"`
	Compare CompareOp     `json:"compare,omitempty"`
	Value   float64       `json:"value,omitempty"`
	Right   *IndicatorRef `json:"right,omitempty"`
}

// ConditionTreeConfig configures the generic condition-tree family: an
// arbitrary entry tree, an optional exit tree, and simple percentage
// stop/target levels.
type ConditionTreeConfig struct {
	Side  types.PositionSide `json:"side"`
	Entry *ConditionNode     `json:"entry"`
	Exit  *ConditionNode     `json:"exit,omitempty"`

	StopLossPct    float64       `json:"stop_loss_pct,omitempty"`   // fraction, e.g. 0.02
	TakeProfitPct  float64       `json:"take_profit_pct,omitempty"` // fraction
	MaxHoldingTime time.Duration `json:"max_holding_time,omitempty"`
	SignalExpiry   time.Duration `json:"signal_expiry,omitempty"`
}

// Family returns the strategy family
func (c ConditionTreeConfig) Family() Family { return FamilyConditionTree }

// Validate walks both trees and checks every leaf
func (c ConditionTreeConfig) Validate() error {
	if c.Side != types.SideLong && c.Side != types.SideShort {
		return fmt.Errorf("%w: condition tree side must be long or short, got %q", ErrConfig, c.Side)
	}
	if c.Entry == nil {
		return fmt.Errorf("%w: condition tree needs an entry tree", ErrConfig)
	}
	if err := validateNode(c.Entry); err != nil {
		return fmt.Errorf("entry tree: %w", err)
	}
	if c.Exit != nil {
		if err := validateNode(c.Exit); err != nil {
			return fmt.Errorf("exit tree: %w", err)
		}
	}
	if c.StopLossPct < 0 || c.TakeProfitPct < 0 {
		return fmt.Errorf("%w: stop/target percentages must not be negative", ErrConfig)
	}
	return nil
}

// Warmup returns the candle count needed before evaluation
func (c ConditionTreeConfig) Warmup() int {
	longest := maxNodePeriod(c.Entry)
	if p := maxNodePeriod(c.Exit); p > longest {
		longest = p
	}
	// macd_hist has fixed internal periods regardless of the leaf period.
	if treeUses(c.Entry, "macd_hist") || treeUses(c.Exit, "macd_hist") {
		if longest < 35 {
			longest = 35
		}
	}
	return longest + warmupSafetyMargin
}

func validateNode(n *ConditionNode) error {
	if n == nil {
		return fmt.Errorf("%w: nil condition node", ErrConfig)
	}
	if len(n.Children) > 0 {
		if n.Op != LogicAnd && n.Op != LogicOr {
			return fmt.Errorf("%w: branch node needs op and/or, got %q", ErrConfig, n.Op)
		}
		for _, child := range n.Children {
			if err := validateNode(child); err != nil {
				return err
			}
		}
		return nil
	}
	switch n.Compare {
	case CompareGT, CompareLT, CompareCrossAbove, CompareCrossBelow:
	default:
		return fmt.Errorf("%w: leaf has unknown compare op %q", ErrConfig, n.Compare)
	}
	if err := validateRef(n.Left); err != nil {
		return err
	}
	if n.Right != nil {
		return validateRef(*n.Right)
	}
	return nil
}

func validateRef(ref IndicatorRef) error {
	switch ref.Name {
	case "close", "volume", "obv", "vwap", "macd_hist":
		return nil
	case "ema", "sma", "rsi", "atr", "cci", "adx", "stoch_k":
		if ref.Period <= 0 {
			return fmt.Errorf("%w: indicator %q needs a positive period", ErrConfig, ref.Name)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown indicator %q in condition leaf", ErrConfig, ref.Name)
	}
}

func maxNodePeriod(n *ConditionNode) int {
	if n == nil {
		return 0
	}
	m := n.Left.Period
	if n.Right != nil && n.Right.Period > m {
		m = n.Right.Period
	}
	for _, child := range n.Children {
		if p := maxNodePeriod(child); p > m {
			m = p
		}
	}
	return m
}

func treeUses(n *ConditionNode, name string) bool {
	if n == nil {
		return false
	}
	if n.Left.Name == name || (n.Right != nil && n.Right.Name == name) {
		return true
	}
	for _, child := range n.Children {
		if treeUses(child, name) {
			return true
		}
	}
	return false
}

// seriesCache memoizes indicator series per evaluation so a tree reusing
// the same indicator does not recompute it per leaf.
type seriesCache struct {
	candles []types.Candle
	memo    map[string][]float64
}

func newSeriesCache(candles []types.Candle) *seriesCache {
	return &seriesCache{candles: candles, memo: make(map[string][]float64)}
}

func (sc *seriesCache) series(ref IndicatorRef) []float64 {
	key := fmt.Sprintf("%s/%d", ref.Name, ref.Period)
	if s, ok := sc.memo[key]; ok {
		return s
	}
	var s []float64
	switch ref.Name {
	case "close":
		s = indicator.Closes(sc.candles)
	case "volume":
		s = indicator.Volumes(sc.candles)
	case "obv":
		s = indicator.OBV(sc.candles)
	case "vwap":
		s = indicator.VWAP(sc.candles)
	case "macd_hist":
		s = indicator.MACD(indicator.Closes(sc.candles), 12, 26, 9).Histogram
	case "ema":
		s = indicator.EMA(indicator.Closes(sc.candles), ref.Period)
	case "sma":
		s = indicator.SMA(indicator.Closes(sc.candles), ref.Period)
	case "rsi":
		s = indicator.RSI(indicator.Closes(sc.candles), ref.Period)
	case "atr":
		s = indicator.ATR(sc.candles, ref.Period)
	case "cci":
		s = indicator.CCI(sc.candles, ref.Period)
	case "adx":
		s = indicator.ADX(sc.candles, ref.Period).ADX
	case "stoch_k":
		s = indicator.Stochastic(sc.candles, ref.Period, 3).K
	}
	sc.memo[key] = s
	return s
}

// evalNode evaluates a condition tree at index i. The ok result is false
// when any required indicator value is undefined; an unknown reading must
// not satisfy a condition.
func evalNode(n *ConditionNode, sc *seriesCache, i int) (result, ok bool, badIndicator string) {
	if len(n.Children) > 0 {
		for _, child := range n.Children {
			r, childOK, bad := evalNode(child, sc, i)
			if !childOK {
				return false, false, bad
			}
			if n.Op == LogicAnd && !r {
				return false, true, ""
			}
			if n.Op == LogicOr && r {
				return true, true, ""
			}
		}
		return n.Op == LogicAnd, true, ""
	}

	left := sc.series(n.Left)
	var right []float64
	if n.Right != nil {
		right = sc.series(*n.Right)
	}

	if i >= len(left) || !indicator.Defined(left[i]) {
		return false, false, n.Left.Name
	}
	if right != nil && (i >= len(right) || !indicator.Defined(right[i])) {
		return false, false, n.Right.Name
	}

	switch n.Compare {
	case CompareGT:
		if right != nil {
			return left[i] > right[i], true, ""
		}
		return left[i] > n.Value, true, ""
	case CompareLT:
		if right != nil {
			return left[i] < right[i], true, ""
		}
		return left[i] < n.Value, true, ""
	case CompareCrossAbove:
		if right != nil {
			return indicator.CrossAbove(left, right, i), true, ""
		}
		return indicator.CrossAboveLevel(left, n.Value, i), true, ""
	case CompareCrossBelow:
		if right != nil {
			return indicator.CrossBelow(left, right, i), true, ""
		}
		return indicator.CrossBelowLevel(left, n.Value, i), true, ""
	}
	return false, false, n.Left.Name
}

// evaluateConditionTree implements the generic condition-tree family
func evaluateConditionTree(candles []types.Candle, i int, cfg ConditionTreeConfig, pos *types.PositionState) types.Signal {
	sc := newSeriesCache(candles)
	candle := candles[i]
	price := candle.Close

	if pos.IsOpen {
		if cfg.MaxHoldingTime > 0 && pos.Age(candle.CloseTime) >= cfg.MaxHoldingTime {
			return exitSignal(pos, candle, types.ExitTimeLimit,
				fmt.Sprintf("position age reached %v", cfg.MaxHoldingTime))
		}
		profitPct := pos.ProfitPercent(price)
		if cfg.StopLossPct > 0 && profitPct <= -cfg.StopLossPct {
			return exitSignal(pos, candle, types.ExitStopLoss,
				fmt.Sprintf("loss %.2f%% breached stop %.2f%%", profitPct*100, cfg.StopLossPct*100))
		}
		if cfg.TakeProfitPct > 0 && profitPct >= cfg.TakeProfitPct {
			return exitSignal(pos, candle, types.ExitTakeProfit,
				fmt.Sprintf("profit %.2f%% reached target %.2f%%", profitPct*100, cfg.TakeProfitPct*100))
		}
		if cfg.Exit != nil {
			hit, ok, bad := evalNode(cfg.Exit, sc, i)
			if !ok {
				return invalidIndicatorHold(bad, i)
			}
			if hit {
				return exitSignal(pos, candle, types.ExitReversal, "exit condition tree matched")
			}
		}
		return types.Hold("position open, no exit condition met")
	}

	hit, ok, bad := evalNode(cfg.Entry, sc, i)
	if !ok {
		return invalidIndicatorHold(bad, i)
	}
	if !hit {
		return types.Hold("entry condition tree not matched")
	}

	sig := types.Signal{
		Reason:       "entry condition tree matched",
		Confidence:   80,
		TimeToExpire: cfg.SignalExpiry,
		Timestamp:    candle.CloseTime,
	}
	if cfg.Side == types.SideLong {
		sig.Type = types.SignalBuy
		if cfg.StopLossPct > 0 {
			sig.StopLoss = ptr(price * (1 - cfg.StopLossPct))
		}
		if cfg.TakeProfitPct > 0 {
			sig.TakeProfit = ptr(price * (1 + cfg.TakeProfitPct))
		}
	} else {
		sig.Type = types.SignalSell
		if cfg.StopLossPct > 0 {
			sig.StopLoss = ptr(price * (1 + cfg.StopLossPct))
		}
		if cfg.TakeProfitPct > 0 {
			sig.TakeProfit = ptr(price * (1 - cfg.TakeProfitPct))
		}
	}
	return sig
}
