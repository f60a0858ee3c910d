package coach

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/openai/openai-go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"trading-mirror/internal/domain"
)

type stubLLMClient struct {
	response *openai.ChatCompletion
	err      error
	calls    int
	params   openai.ChatCompletionNewParams
}

func (s *stubLLMClient) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	s.calls++
	s.params = params
	return s.response, s.err
}

func reply(content string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func newTestService(llm LLMClient) *Service {
	return NewService(trace.NewNoopTracerProvider().Tracer("test"), zerolog.Nop(), llm, "")
}

func fomoReport() domain.AnalysisReport {
	return domain.AnalysisReport{
		Metrics: domain.BehavioralMetrics{
			TotalTrades:  10,
			WinRate:      0.4,
			ProfitFactor: 0.8,
			FomoScore:    0.82,
		},
		PersonalBaseline: &domain.PersonalBaseline{AvgFomo: 0.75, AvgPanic: 0.5, AvgMAE: -0.05},
		BiasPriority: []domain.BiasPriority{
			{Bias: domain.BiasFomo, Priority: 1, FinancialLoss: 420, Frequency: 0.6, Severity: 0.8},
			{Bias: domain.BiasPanic, Priority: 2, FinancialLoss: 100, Frequency: 0.2, Severity: 0.5},
		},
	}
}

func TestCoachWithoutLLMUsesTemplate(t *testing.T) {
	svc := newTestService(nil)

	got, err := svc.Coach(context.Background(), fomoReport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Source != SourceTemplate {
		t.Fatalf("expected template source, got %s", got.Source)
	}
	if got.Bias != "FOMO" {
		t.Fatalf("expected FOMO bias, got %q", got.Bias)
	}
	if got.Rule != adviceByBias[domain.BiasFomo].rule {
		t.Fatalf("unexpected rule %q", got.Rule)
	}
	if !strings.Contains(got.Diagnosis, "$420") {
		t.Fatalf("expected diagnosis to cite the loss, got %q", got.Diagnosis)
	}
	if len(got.ActionPlan) == 0 || len(got.Playbook) == 0 {
		t.Fatalf("expected action plan and playbook, got %+v", got)
	}
}

func TestCoachParsesFencedLLMReply(t *testing.T) {
	llm := &stubLLMClient{response: reply("```json\n" +
		`{"diagnosis":"Win rate 40%.","rule":"Wait.","bias":"FOMO","fix":"Set limits.","strengths":["discipline"],"action_plan":["one","two"]}` +
		"\n```")}
	svc := newTestService(llm)

	got, err := svc.Coach(context.Background(), fomoReport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Source != SourceLLM {
		t.Fatalf("expected llm source, got %s", got.Source)
	}
	if got.Diagnosis != "Win rate 40%." || got.Rule != "Wait." || got.Fix != "Set limits." {
		t.Fatalf("unexpected coaching %+v", got)
	}
	if len(got.ActionPlan) != 2 || len(got.Strengths) != 1 {
		t.Fatalf("unexpected lists %+v", got)
	}
	if len(got.Playbook) == 0 {
		t.Fatal("expected deterministic playbook alongside llm reply")
	}
	if llm.params.Model != defaultModel {
		t.Fatalf("expected default model, got %s", llm.params.Model)
	}
	if len(llm.params.Messages) != 2 {
		t.Fatalf("expected system + user messages, got %d", len(llm.params.Messages))
	}
}

func TestCoachFallsBackOnLLMFailure(t *testing.T) {
	cases := map[string]*stubLLMClient{
		"error":        {err: errors.New("api down")},
		"no choices":   {response: &openai.ChatCompletion{}},
		"invalid json": {response: reply("I think you chase tops.")},
		"no diagnosis": {response: reply(`{"rule":"x"}`)},
	}
	for name, llm := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := newTestService(llm).Coach(context.Background(), fomoReport())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Source != SourceTemplate {
				t.Fatalf("expected template fallback, got %s", got.Source)
			}
			if llm.calls != 1 {
				t.Fatalf("expected one llm call, got %d", llm.calls)
			}
		})
	}
}

func TestCoachNoBias(t *testing.T) {
	report := domain.AnalysisReport{Metrics: domain.BehavioralMetrics{TotalTrades: 4, WinRate: 0.75, ProfitFactor: 3}}

	got, err := newTestService(nil).Coach(context.Background(), report)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Bias != "N/A" {
		t.Fatalf("expected N/A bias, got %q", got.Bias)
	}
	if len(got.Strengths) != 3 {
		t.Fatalf("expected 3 strengths, got %v", got.Strengths)
	}
	if len(got.Playbook) != 1 || got.Playbook[0] != defaultRule {
		t.Fatalf("expected default playbook, got %v", got.Playbook)
	}
}

func TestCoachCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newTestService(nil).Coach(ctx, fomoReport()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func causalPattern() domain.DeepPattern {
	t0 := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	return domain.DeepPattern{
		Type:     domain.PatternCausalChain,
		TradeID:  "AAA-2024-03-04",
		Metadata: map[string]float64{"pnl": -250},
		Events: []domain.CausalEvent{
			{Timestamp: t0, Kind: domain.EventBearEntry, Value: -0.05},
			{Timestamp: t0.AddDate(0, 0, 40), Kind: domain.EventPanicExit, Value: 0.1},
		},
	}
}

func TestNarrateCausalChainTemplate(t *testing.T) {
	got := newTestService(nil).NarrateCausalChain(context.Background(), causalPattern())
	want := "Trade AAA-2024-03-04: on 2024-03-04 you bought into a bear market, then on 2024-04-13 you sold near the day's low, ending with a $-250.00 result."
	if got != want {
		t.Fatalf("unexpected narrative:\n got %q\nwant %q", got, want)
	}
}

func TestNarrateCausalChainLLM(t *testing.T) {
	llm := &stubLLMClient{response: reply("  You bought a falling market and sold the low.\n")}
	got := newTestService(llm).NarrateCausalChain(context.Background(), causalPattern())
	if got != "You bought a falling market and sold the low." {
		t.Fatalf("unexpected narrative %q", got)
	}

	failing := &stubLLMClient{err: errors.New("timeout")}
	got = newTestService(failing).NarrateCausalChain(context.Background(), causalPattern())
	if !strings.HasPrefix(got, "Trade AAA-2024-03-04:") {
		t.Fatalf("expected template fallback, got %q", got)
	}
}

func TestNarratePatternsOnlyCausalChains(t *testing.T) {
	report := domain.AnalysisReport{DeepPatterns: []domain.DeepPattern{
		{Type: domain.PatternTimeCluster, Description: "hour 10"},
		causalPattern(),
	}}
	newTestService(nil).NarratePatterns(context.Background(), &report)

	if report.DeepPatterns[0].Narrative != "" {
		t.Fatalf("expected no narrative on time cluster, got %q", report.DeepPatterns[0].Narrative)
	}
	if report.DeepPatterns[1].Narrative == "" {
		t.Fatal("expected causal chain narrative")
	}
}

func TestTrimCodeFence(t *testing.T) {
	tests := map[string]string{
		`{"a":1}`:                 `{"a":1}`,
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}```":       `{"a":1}`,
		"  \n{\"a\":1}\n  ":       `{"a":1}`,
	}
	for in, want := range tests {
		if got := trimCodeFence(in); got != want {
			t.Fatalf("trimCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildCoachPrompt(t *testing.T) {
	report := fomoReport()
	report.IsLowSample = true
	report.BehaviorShift = []domain.BehaviorShift{{Bias: domain.BiasFomo, Trend: domain.TrendWorsening, ChangePct: 25}}

	prompt := BuildCoachPrompt(report)
	for _, want := range []string{"TRADER MODE: NOVICE", "FIX PRIORITY", "1. FOMO: -$420", "FOMO: WORSENING (+25.0%)", "Avg MAE: -5.0%"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected prompt to contain %q:\n%s", want, prompt)
		}
	}
}
