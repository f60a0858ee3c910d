package analysis

import (
	"math/rand/v2"
	"sort"

	"trading-mirror/internal/domain"
)

// NewSeededRand returns the deterministic source used for luck estimation.
func NewSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// LuckPercentile resamples the trader's own wins and losses to rank the
// realized total pnl. It returns 50 below the minimum sample size. The
// result depends only on rng's state and the input.
func LuckPercentile(trades []domain.EnrichedTrade, rng *rand.Rand, th Thresholds) float64 {
	n := len(trades)
	if n < th.MonteCarloMinTrades || th.MonteCarloTrials <= 0 {
		return 50
	}

	var wins, losses []float64
	var realized float64
	for _, t := range trades {
		realized += t.PnL
		if t.IsWinner() {
			wins = append(wins, t.PnL)
		} else {
			losses = append(losses, -t.PnL)
		}
	}
	winRate := float64(len(wins)) / float64(n)

	sims := make([]float64, th.MonteCarloTrials)
	better := 0
	for i := range sims {
		var total float64
		for j := 0; j < n; j++ {
			if rng.Float64() < winRate {
				if len(wins) > 0 {
					total += wins[rng.IntN(len(wins))]
				}
			} else if len(losses) > 0 {
				total -= losses[rng.IntN(len(losses))]
			}
		}
		sims[i] = total
		if total > realized {
			better++
		}
	}

	pct := float64(better) / float64(len(sims)) * 100
	sort.Float64s(sims)
	p25 := sims[len(sims)/4]
	p75 := sims[len(sims)*3/4]
	switch {
	case realized > p75:
		pct = max(0, pct-th.LuckNudge)
	case realized < p25:
		pct = min(100, pct+th.LuckNudge)
	}
	return pct
}
