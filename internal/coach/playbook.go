package coach

import (
	"fmt"

	"trading-mirror/internal/domain"
)

const defaultRule = "Pause before every order and check your emotional state."

// Playbook is a short list of personal trading rules derived from the
// detected patterns and the trader's own baseline.
type Playbook struct {
	Rules         []string          `json:"rules"`
	BasedOnBiases []domain.BiasType `json:"based_on_biases,omitempty"`
}

// BuildPlaybook derives rules deterministically from a report. It never
// returns an empty rule list.
func BuildPlaybook(report domain.AnalysisReport) Playbook {
	var pb Playbook
	base := report.PersonalBaseline

	for _, p := range patternsOf(report, domain.PatternTimeCluster) {
		hour := int(p.Metadata["hour"])
		switch {
		case hour >= 14 && hour <= 15:
			pb.add("No new entries between 14:00 and 16:00.")
		case hour >= 9 && hour <= 10:
			pb.add("Do not trade during the first 20 minutes after the open.")
		default:
			pb.add(fmt.Sprintf("Avoid opening positions around %02d:00.", hour))
		}
	}

	if primary, ok := primaryBias(report); ok && primary == domain.BiasFomo {
		switch {
		case base != nil && base.AvgFomo > 0.8:
			pb.add("Do not trade during the first 20 minutes after the open.")
		case base != nil && base.AvgFomo > 0.7:
			pb.add(fmt.Sprintf("Wait 30 minutes before entering; your entries average %.0f%% of the day's range.", base.AvgFomo*100))
		}
		pb.basedOn(domain.BiasFomo)
	}

	if base != nil && base.AvgMAE < -0.02 {
		pb.add(fmt.Sprintf("Never add to a position once it is %.0f%% under water.", -base.AvgMAE*100))
	}

	for _, p := range patternsOf(report, domain.PatternMAECluster) {
		if hold := p.Metadata["avg_hold_days"]; hold > 3 {
			pb.add(fmt.Sprintf("Consider a stop once a holding passes %.0f days.", hold))
		}
	}

	for _, p := range patternsOf(report, domain.PatternPriceCluster) {
		if ratio, ok := p.Metadata["avg_exit_ratio"]; ok && ratio < 0.95 {
			pb.add("Do not enter within 5% of the day's high.")
		}
	}

	if report.Metrics.RevengeTradingCount >= 2 {
		pb.add("No re-entry within 24 hours of a losing trade.")
		pb.basedOn(domain.BiasRevenge)
	}

	for _, p := range patternsOf(report, domain.PatternRevengeSequence) {
		if hours, ok := p.Metadata["avg_hours"]; ok && hours < 12 {
			pb.add("Stay out of the market for at least 12 hours after a loss.")
		}
	}

	if hasPriority(report, domain.BiasPanic) {
		if base != nil && base.AvgPanic < 0.3 {
			pb.add("Wait 10 minutes before any exit triggered by a falling price.")
		}
		pb.basedOn(domain.BiasPanic)
	}

	if hasPriority(report, domain.BiasDisposition) {
		if base != nil && base.AvgDispositionRatio > 1.5 {
			pb.add("Close losing positions faster than winning ones.")
		}
		pb.basedOn(domain.BiasDisposition)
	}

	for _, p := range patternsOf(report, domain.PatternMarketRegime) {
		if p.Metadata["bull_fomo_rate"] > 0.5 {
			pb.add("In bull markets, size entries down and wait for a pullback.")
		}
	}

	if len(pb.Rules) == 0 {
		pb.Rules = []string{defaultRule}
	}
	return pb
}

func (pb *Playbook) add(rule string) {
	for _, r := range pb.Rules {
		if r == rule {
			return
		}
	}
	pb.Rules = append(pb.Rules, rule)
}

func (pb *Playbook) basedOn(bias domain.BiasType) {
	for _, b := range pb.BasedOnBiases {
		if b == bias {
			return
		}
	}
	pb.BasedOnBiases = append(pb.BasedOnBiases, bias)
}

func patternsOf(report domain.AnalysisReport, kind domain.PatternType) []domain.DeepPattern {
	var out []domain.DeepPattern
	for _, p := range report.DeepPatterns {
		if p.Type == kind {
			out = append(out, p)
		}
	}
	return out
}

func primaryBias(report domain.AnalysisReport) (domain.BiasType, bool) {
	if len(report.BiasPriority) == 0 {
		return "", false
	}
	return report.BiasPriority[0].Bias, true
}

func hasPriority(report domain.AnalysisReport, bias domain.BiasType) bool {
	for _, p := range report.BiasPriority {
		if p.Bias == bias {
			return true
		}
	}
	return false
}
