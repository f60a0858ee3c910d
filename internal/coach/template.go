package coach

import (
	"fmt"
	"strings"

	"trading-mirror/internal/domain"
)

type biasAdvice struct {
	rule string
	fix  string
	plan []string
}

var adviceByBias = map[domain.BiasType]biasAdvice{
	domain.BiasFomo: {
		rule: "Never chase a candle that is already near the day's high.",
		fix:  "Set entry prices before the session and only fill on pullbacks into the lower half of the day's range.",
		plan: []string{
			"Write the entry price in your journal before the open.",
			"Skip any entry in the top 30% of the day's range.",
			"Review every entry above 70% FOMO at week end.",
		},
	},
	domain.BiasPanic: {
		rule: "Exit on your plan, not on the last tick.",
		fix:  "Place protective stops when you enter so exits happen at planned levels instead of the day's low.",
		plan: []string{
			"Attach a stop order to every new position.",
			"Wait 10 minutes before a discretionary exit on a red candle.",
			"Compare each exit with the day's range after the close.",
		},
	},
	domain.BiasRevenge: {
		rule: "After a loss, the next trade waits a day.",
		fix:  "Enforce a cooldown after every losing trade so the next decision is made with a clear head.",
		plan: []string{
			"Log off for 24 hours after a losing trade on the same ticker.",
			"Halve position size on the first trade after a loss.",
		},
	},
	domain.BiasDisposition: {
		rule: "Cut losers faster than you take winners.",
		fix:  "Give losing positions a time stop no longer than your average winning hold.",
		plan: []string{
			"Set a maximum holding period for positions in the red.",
			"Let winners run to a trailing stop instead of a fixed target.",
		},
	},
}

func templateCoaching(report domain.AnalysisReport) Coaching {
	m := report.Metrics
	out := Coaching{
		Source:     SourceTemplate,
		Strengths:  strengths(report),
		Bias:       "N/A",
		Rule:       defaultRule,
		Fix:        "Keep journaling every trade with the reason for entry and exit.",
		ActionPlan: []string{"Keep position sizes consistent.", "Review the week's trades every Friday."},
	}

	health := fmt.Sprintf("Across %d trades your win rate is %.1f%% with a profit factor of %.2f and a Sharpe ratio of %.2f.",
		m.TotalTrades, m.WinRate*100, m.ProfitFactor, m.SharpeRatio)

	primary, ok := primaryBias(report)
	if !ok {
		out.Diagnosis = health + " No single bias stands out as a repeated cost."
		return out
	}

	p := report.BiasPriority[0]
	out.Bias = string(primary)
	if a, found := adviceByBias[primary]; found {
		out.Rule = a.rule
		out.Fix = a.fix
		out.ActionPlan = append([]string(nil), a.plan...)
	}
	out.Diagnosis = fmt.Sprintf("%s %s shows up in %.0f%% of your trades at %.0f%% severity. It cost you $%.0f.",
		health, primary, p.Frequency*100, p.Severity*100, p.FinancialLoss)
	return out
}

func strengths(report domain.AnalysisReport) []string {
	m := report.Metrics
	out := []string{}
	if m.ProfitFactor > 1.5 {
		out = append(out, fmt.Sprintf("Winners outweigh losers with a profit factor of %.2f.", m.ProfitFactor))
	}
	if m.WinRate >= 0.6 {
		out = append(out, fmt.Sprintf("A %.0f%% win rate shows consistent trade selection.", m.WinRate*100))
	}
	if m.TotalTrades > 0 && m.RevengeTradingCount == 0 {
		out = append(out, "No revenge trades after losses.")
	}
	return out
}

var eventPhrases = map[domain.CausalEventKind]string{
	domain.EventFomoEntry:  "entered near the top of the day's range",
	domain.EventBearEntry:  "bought into a bear market",
	domain.EventHighMAE:    "sat through a deep drawdown",
	domain.EventForcedHold: "held far longer than usual",
	domain.EventPanicExit:  "sold near the day's low",
}

func templateNarrative(p domain.DeepPattern) string {
	if len(p.Events) == 0 {
		return p.Description
	}
	steps := make([]string, 0, len(p.Events))
	for _, e := range p.Events {
		phrase, ok := eventPhrases[e.Kind]
		if !ok {
			phrase = strings.ToLower(strings.ReplaceAll(string(e.Kind), "_", " "))
		}
		steps = append(steps, fmt.Sprintf("on %s you %s", e.Timestamp.Format("2006-01-02"), phrase))
	}
	return fmt.Sprintf("Trade %s: %s, ending with a $%.2f result.",
		p.TradeID, strings.Join(steps, ", then "), p.Metadata["pnl"])
}
