package backtest

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/signalcraft/engine/types"
)

// BalancePoint is one sample of the realized balance path
type BalancePoint struct {
	Time    time.Time `json:"time"`
	Balance float64   `json:"balance"`
}

// Report is the read-only output of one backtest run
type Report struct {
	InitialBalance float64        `json:"initial_balance"`
	FinalBalance   float64        `json:"final_balance"`
	TotalReturnPct float64        `json:"total_return_pct"`
	Trades         []types.Trade  `json:"trades"`
	WinRate        float64        `json:"win_rate"`
	ProfitFactor   float64        `json:"profit_factor"`
	MaxDrawdownPct float64        `json:"max_drawdown_pct"`
	AvgWin         float64        `json:"avg_win"`
	AvgLoss        float64        `json:"avg_loss"`
	BalanceHistory []BalancePoint `json:"balance_history"`

	// Return distribution of the balance path, per step.
	ReturnStdDev float64 `json:"return_std_dev"`
	SharpeRatio  float64 `json:"sharpe_ratio"`

	// Incomplete marks a run aborted by cancellation; the ledger holds
	// whatever had accumulated when the run stopped.
	Incomplete bool `json:"incomplete,omitempty"`
}

// profitFactorCap stands in for an infinite profit factor when a run has
// winners and not a single loser.
const profitFactorCap = 999

func (r *Report) finalize(finalBalance float64) {
	r.FinalBalance = finalBalance
	if r.InitialBalance > 0 {
		r.TotalReturnPct = 100 * (finalBalance - r.InitialBalance) / r.InitialBalance
	}

	var wins, losses int
	var grossProfit, grossLoss float64
	for _, t := range r.Trades {
		if t.Profit > 0 {
			wins++
			grossProfit += t.Profit
		} else if t.Profit < 0 {
			losses++
			grossLoss += -t.Profit
		}
	}
	if len(r.Trades) > 0 {
		r.WinRate = float64(wins) / float64(len(r.Trades))
	}
	if wins > 0 {
		r.AvgWin = grossProfit / float64(wins)
	}
	if losses > 0 {
		r.AvgLoss = -grossLoss / float64(losses)
	}
	switch {
	case grossLoss > 0:
		r.ProfitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		r.ProfitFactor = profitFactorCap
	default:
		r.ProfitFactor = 0
	}

	r.MaxDrawdownPct = MaxDrawdown(balances(r.BalanceHistory)) * 100
	r.ReturnStdDev, r.SharpeRatio = returnStats(balances(r.BalanceHistory))
}

// MaxDrawdown returns the largest peak-to-trough decline of the balance
// path as a fraction. The peak only ever ratchets up: a later, higher peak
// never erases a drawdown already suffered.
func MaxDrawdown(path []float64) float64 {
	var peak, maxDD float64
	for _, b := range path {
		if b > peak {
			peak = b
		}
		if peak > 0 {
			if dd := (peak - b) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// returnStats computes the standard deviation of per-step balance returns
// and a per-period Sharpe ratio (mean return over its deviation, zero when
// the path never moves).
func returnStats(path []float64) (stdDev, sharpe float64) {
	if len(path) < 2 {
		return 0, 0
	}
	returns := make([]float64, 0, len(path)-1)
	for i := 1; i < len(path); i++ {
		if path[i-1] != 0 {
			returns = append(returns, (path[i]-path[i-1])/path[i-1])
		}
	}
	if len(returns) < 2 {
		return 0, 0
	}
	mean, std := stat.MeanStdDev(returns, nil)
	if std == 0 {
		return 0, 0
	}
	return std, mean / std
}

func balances(points []BalancePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Balance
	}
	return out
}
