package strategy

import (
	"testing"

	"github.com/signalcraft/engine/types"
)

func TestConditionTree_LeafAndBranchEntry(t *testing.T) {
	cfg := ConditionTreeConfig{
		Side: types.SideLong,
		Entry: &ConditionNode{Op: LogicAnd, Children: []*ConditionNode{
			{Left: IndicatorRef{Name: "close"}, Compare: CompareGT, Value: 105},
			{Left: IndicatorRef{Name: "close"}, Compare: CompareGT, Right: &IndicatorRef{Name: "ema", Period: 10}},
		}},
		StopLossPct:   0.02,
		TakeProfitPct: 0.05,
	}
	candles := candlesFromCloses(flatThenJump(100, 25, 2, 10))
	i := len(candles) - 1 // close 120, well above 105 and the EMA

	sig, err := Evaluate(candles, i, cfg, &types.PositionState{})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if sig.Type != types.SignalBuy {
		t.Fatalf("signal type = %v (reason %q), want buy", sig.Type, sig.Reason)
	}
	price := candles[i].Close
	if *sig.StopLoss != price*0.98 {
		t.Errorf("stop = %v, want %v", *sig.StopLoss, price*0.98)
	}
	if *sig.TakeProfit != price*1.05 {
		t.Errorf("target = %v, want %v", *sig.TakeProfit, price*1.05)
	}
}

func TestConditionTree_AndShortCircuitsOnFalse(t *testing.T) {
	cfg := ConditionTreeConfig{
		Side: types.SideLong,
		Entry: &ConditionNode{Op: LogicAnd, Children: []*ConditionNode{
			{Left: IndicatorRef{Name: "close"}, Compare: CompareGT, Value: 1e9},
			{Left: IndicatorRef{Name: "close"}, Compare: CompareGT, Value: 0},
		}},
	}
	candles := candlesFromCloses(flatThenJump(100, 25, 2, 10))

	sig, err := Evaluate(candles, len(candles)-1, cfg, &types.PositionState{})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if sig.Type != types.SignalHold {
		t.Errorf("signal type = %v, want hold when one AND child fails", sig.Type)
	}
}

func TestConditionTree_OrBranch(t *testing.T) {
	cfg := ConditionTreeConfig{
		Side: types.SideShort,
		Entry: &ConditionNode{Op: LogicOr, Children: []*ConditionNode{
			{Left: IndicatorRef{Name: "close"}, Compare: CompareLT, Value: 0},
			{Left: IndicatorRef{Name: "close"}, Compare: CompareGT, Value: 50},
		}},
	}
	candles := candlesFromCloses(flatThenJump(100, 25, 2, 10))

	sig, err := Evaluate(candles, len(candles)-1, cfg, &types.PositionState{})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if sig.Type != types.SignalSell {
		t.Errorf("signal type = %v, want sell when one OR child passes", sig.Type)
	}
}

func TestConditionTree_WarmupRespectsLeafPeriods(t *testing.T) {
	cfg := ConditionTreeConfig{
		Side:  types.SideLong,
		Entry: &ConditionNode{Left: IndicatorRef{Name: "rsi", Period: 14}, Compare: CompareGT, Value: 0},
	}
	candles := candlesFromCloses(flatThenJump(100, 5, 1, 10))

	sig, err := Evaluate(candles, len(candles)-1, cfg, &types.PositionState{})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if sig.Reason != ReasonInsufficientData {
		t.Errorf("reason = %q, want insufficient data below tree warm-up", sig.Reason)
	}
}

func TestConditionTree_ExitTreeReversal(t *testing.T) {
	cfg := ConditionTreeConfig{
		Side:  types.SideLong,
		Entry: &ConditionNode{Left: IndicatorRef{Name: "close"}, Compare: CompareGT, Value: 0},
		Exit:  &ConditionNode{Left: IndicatorRef{Name: "close"}, Compare: CompareLT, Value: 95},
	}
	candles := candlesFromCloses(flatThenJump(100, 15, -1, 10))
	i := len(candles) - 1 // close 90

	pos := &types.PositionState{
		IsOpen:     true,
		Side:       types.SideLong,
		EntryPrice: 100,
		EntryTime:  candles[0].OpenTime,
		Size:       1,
	}
	sig, err := Evaluate(candles, i, cfg, pos)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if sig.ExitReason != types.ExitReversal {
		t.Errorf("exit reason = %q, want reversal from exit tree", sig.ExitReason)
	}
}
