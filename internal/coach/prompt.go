package coach

import (
	"fmt"
	"strings"

	"trading-mirror/internal/domain"
)

const coachPersona = `You are an objective, data-driven trading coach reviewing a trader's closed positions.

Rules:
- Base every statement on the numbers provided. Cite the number that supports each point.
- Focus on repeated patterns, not single trades.
- Praise strengths first, then name the weakness, then give the fix.
- Tough love, never contempt.
- Respond with one JSON object and nothing else:
  {"diagnosis": "...", "rule": "...", "bias": "...", "fix": "...", "strengths": ["..."], "action_plan": ["..."]}
- diagnosis: three sentences. Overall health with numbers, the root-cause bias, the dollar cost of that bias.
- rule: one short, memorable commandment.
- bias: the primary bias name in English (FOMO, Panic Sell, Revenge Trading, Disposition Effect).
- action_plan: two to four concrete steps.`

const narratorPersona = `You explain a single losing trade as a chain of cause and effect.
Write two or three plain sentences, in order, referencing each event and its number. No preamble, no lists.`

// BuildCoachPrompt renders the analysis facts the model reasons over.
func BuildCoachPrompt(report domain.AnalysisReport) string {
	m := report.Metrics
	var sb strings.Builder

	mode := "EXPERIENCED"
	if report.IsLowSample {
		mode = "NOVICE"
	}
	fmt.Fprintf(&sb, "TRADER MODE: %s\n", mode)

	sb.WriteString("\nKEY METRICS:\n")
	fmt.Fprintf(&sb, "  Trades: %d\n", m.TotalTrades)
	fmt.Fprintf(&sb, "  Truth score: %d/100\n", m.TruthScore)
	fmt.Fprintf(&sb, "  Win rate: %.1f%%\n", m.WinRate*100)
	fmt.Fprintf(&sb, "  Profit factor: %.2f\n", m.ProfitFactor)
	fmt.Fprintf(&sb, "  Total PnL: $%.2f (net of costs $%.2f)\n", m.TotalPnL, m.TotalNetPnL)
	fmt.Fprintf(&sb, "  Sharpe: %.2f  Sortino: %.2f  Max drawdown: %.1f%%\n", m.SharpeRatio, m.SortinoRatio, m.MaxDrawdown*100)
	fmt.Fprintf(&sb, "  Alpha (%s): %.4f\n", m.AlphaMethod, m.Alpha)
	fmt.Fprintf(&sb, "  Luck percentile: %.0f\n", m.LuckPercentile)
	fmt.Fprintf(&sb, "  FOMO: %.0f%%  Panic: %.0f%%  Disposition: %.1fx  Revenge trades: %d\n",
		m.FomoScore*100, m.PanicScore*100, m.DispositionRatio, m.RevengeTradingCount)

	if b := report.PersonalBaseline; b != nil {
		sb.WriteString("\nPERSONAL BASELINE:\n")
		fmt.Fprintf(&sb, "  Avg FOMO: %.0f%%  Avg panic: %.0f%%  Avg MAE: %.1f%%\n", b.AvgFomo*100, b.AvgPanic*100, b.AvgMAE*100)
	}

	if l := report.BiasLossMapping; l != nil {
		sb.WriteString("\nFINANCIAL IMPACT OF BIASES:\n")
		fmt.Fprintf(&sb, "  FOMO: -$%.0f  Panic Sell: -$%.0f  Revenge: -$%.0f  Disposition: -$%.0f\n",
			l.FomoLoss, l.PanicLoss, l.RevengeLoss, l.DispositionLoss)
	}

	if len(report.BiasPriority) > 0 {
		sb.WriteString("\nFIX PRIORITY:\n")
		for _, p := range report.BiasPriority {
			fmt.Fprintf(&sb, "  %d. %s: -$%.0f (frequency %.0f%%, severity %.0f%%)\n",
				p.Priority, p.Bias, p.FinancialLoss, p.Frequency*100, p.Severity*100)
		}
	}

	if len(report.BehaviorShift) > 0 {
		sb.WriteString("\nBEHAVIOR SHIFT (recent vs baseline):\n")
		for _, s := range report.BehaviorShift {
			fmt.Fprintf(&sb, "  %s: %s (%+.1f%%)\n", s.Bias, s.Trend, s.ChangePct)
		}
	}

	if len(report.DeepPatterns) > 0 {
		sb.WriteString("\nDETECTED PATTERNS:\n")
		for _, p := range report.DeepPatterns {
			fmt.Fprintf(&sb, "  [%s/%s] %s\n", p.Type, p.Significance, p.Description)
		}
	}

	return sb.String()
}

// BuildNarrationPrompt lists the causal events of one pattern in order.
func BuildNarrationPrompt(p domain.DeepPattern) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Trade %s (pnl $%.2f)\n", p.TradeID, p.Metadata["pnl"])
	for i, e := range p.Events {
		fmt.Fprintf(&sb, "%d. %s %s: %s (%.4f)\n", i+1, e.Timestamp.Format("2006-01-02 15:04"), e.Kind, e.Detail, e.Value)
	}
	return sb.String()
}

// trimCodeFence strips a surrounding markdown code fence from a model reply.
func trimCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
