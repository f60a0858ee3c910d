package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trading-mirror/internal/domain"
)

const (
	SourceLLM      = "llm"
	SourceTemplate = "template"

	defaultModel = "gpt-4o-mini"
)

var errEmptyReply = errors.New("no choices in LLM response")

// LLMClient abstracts the OpenAI chat completions API for testability.
type LLMClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// Coaching is the narrative feedback for one analysis.
type Coaching struct {
	Diagnosis     string            `json:"diagnosis"`
	Rule          string            `json:"rule"`
	Bias          string            `json:"bias"`
	Fix           string            `json:"fix"`
	Strengths     []string          `json:"strengths"`
	ActionPlan    []string          `json:"action_plan"`
	Playbook      []string          `json:"playbook"`
	BasedOnBiases []domain.BiasType `json:"based_on_biases,omitempty"`
	Source        string            `json:"source"`
}

type llmReply struct {
	Diagnosis  string   `json:"diagnosis"`
	Rule       string   `json:"rule"`
	Bias       string   `json:"bias"`
	Fix        string   `json:"fix"`
	Strengths  []string `json:"strengths"`
	ActionPlan []string `json:"action_plan"`
}

// Service produces coaching feedback and causal-chain narratives. A nil LLM
// client makes every answer come from the deterministic templates.
type Service struct {
	tracer trace.Tracer
	logger zerolog.Logger
	llm    LLMClient
	model  string
}

func NewService(tracer trace.Tracer, logger zerolog.Logger, llm LLMClient, model string) *Service {
	if model == "" {
		model = defaultModel
	}
	return &Service{
		tracer: tracer,
		logger: logger.With().Str("component", "coach").Logger(),
		llm:    llm,
		model:  model,
	}
}

// Coach returns diagnosis, rule, fix and action plan for a report plus the
// deterministic playbook. LLM failures fall back to the template.
func (s *Service) Coach(ctx context.Context, report domain.AnalysisReport) (Coaching, error) {
	ctx, span := s.tracer.Start(ctx, "coach.Coach")
	defer span.End()
	span.SetAttributes(attribute.Int("trades", len(report.Trades)))

	if err := ctx.Err(); err != nil {
		return Coaching{}, err
	}

	pb := BuildPlaybook(report)
	out := templateCoaching(report)

	if s.llm != nil {
		reply, err := s.callLLM(ctx, coachPersona, BuildCoachPrompt(report))
		if err == nil {
			var parsed llmReply
			err = json.Unmarshal([]byte(trimCodeFence(reply)), &parsed)
			if err == nil && parsed.Diagnosis != "" {
				out = mergeReply(out, parsed)
			} else if err == nil {
				err = errors.New("reply has no diagnosis")
			}
		}
		if err != nil {
			span.RecordError(err)
			s.logger.Warn().Err(err).Msg("llm coaching failed, using template")
		}
	}

	out.Playbook = pb.Rules
	out.BasedOnBiases = pb.BasedOnBiases
	span.SetAttributes(attribute.String("coach.source", out.Source))
	return out, nil
}

// NarrateCausalChain turns the ordered event list of a CAUSAL_CHAIN pattern
// into prose.
func (s *Service) NarrateCausalChain(ctx context.Context, p domain.DeepPattern) string {
	ctx, span := s.tracer.Start(ctx, "coach.NarrateCausalChain")
	defer span.End()
	span.SetAttributes(attribute.Int("events", len(p.Events)))

	if s.llm != nil && len(p.Events) > 0 {
		reply, err := s.callLLM(ctx, narratorPersona, BuildNarrationPrompt(p))
		if err == nil && strings.TrimSpace(reply) != "" {
			return strings.TrimSpace(reply)
		}
		if err != nil {
			span.RecordError(err)
			s.logger.Warn().Err(err).Str("trade_id", p.TradeID).Msg("llm narration failed, using template")
		}
	}
	return templateNarrative(p)
}

// NarratePatterns fills the Narrative of every causal-chain pattern in place.
func (s *Service) NarratePatterns(ctx context.Context, report *domain.AnalysisReport) {
	for i := range report.DeepPatterns {
		p := &report.DeepPatterns[i]
		if p.Type == domain.PatternCausalChain && p.Narrative == "" {
			p.Narrative = s.NarrateCausalChain(ctx, *p)
		}
	}
}

func (s *Service) callLLM(ctx context.Context, system, user string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "coach.llm-call")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", s.model))

	completion, err := s.llm.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model: s.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(0.4),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if completion == nil || len(completion.Choices) == 0 {
		return "", errEmptyReply
	}

	reply := completion.Choices[0].Message.Content
	span.SetAttributes(attribute.Int("llm.reply_length", len(reply)))
	return reply, nil
}

func mergeReply(base Coaching, r llmReply) Coaching {
	base.Source = SourceLLM
	base.Diagnosis = r.Diagnosis
	if r.Rule != "" {
		base.Rule = r.Rule
	}
	if r.Bias != "" {
		base.Bias = r.Bias
	}
	if r.Fix != "" {
		base.Fix = r.Fix
	}
	if len(r.ActionPlan) > 0 {
		base.ActionPlan = r.ActionPlan
	}
	base.Strengths = r.Strengths
	if base.Strengths == nil {
		base.Strengths = []string{}
	}
	return base
}

// openaiClient wraps the official SDK's chat completions service.
type openaiClient struct {
	client openai.Client
}

func NewOpenAIClient(apiKey string) LLMClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &openaiClient{client: client}
}

func (c *openaiClient) CreateChatCompletion(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
