package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "paatshala",
		Subsystem: "ai",
		Name:      "request_duration_seconds",
		Help:      "Duration of model calls, by operation.",
	}, []string{"op", "model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paatshala",
		Subsystem: "ai",
		Name:      "failures_total",
		Help:      "Number of failed model calls, by operation.",
	}, []string{"op", "model"})

	aiTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paatshala",
		Subsystem: "ai",
		Name:      "tokens_total",
		Help:      "Tokens consumed by model calls.",
	}, []string{"model", "kind"})
)

// OpenAIConfig defines configuration options for the OpenAI evaluator.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	BaseURL     string
	Logger      zerolog.Logger
}

// OpenAIEvaluator implements Evaluator against the OpenAI chat completion API.
type OpenAIEvaluator struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIEvaluator builds a new evaluator using the provided configuration.
func NewOpenAIEvaluator(cfg OpenAIConfig) (*OpenAIEvaluator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAIEvaluator{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/paatshala-go-api/pkg/ai"),
		logger: cfg.Logger.With().Str("component", "openai_evaluator").Logger(),
	}, nil
}

// GenerateRubric asks the model to draft a weighted rubric for the given
// task description. The returned criteria are shape-validated and their
// weights normalized to sum to exactly 100.
func (e *OpenAIEvaluator) GenerateRubric(parent context.Context, taskDescription string) (Rubric, error) {
	ctx, span := e.tracer.Start(parent, "ai.generate_rubric", trace.WithAttributes(
		attribute.String("model", e.cfg.Model),
	))
	defer span.End()

	user := fmt.Sprintf("Create a grading rubric for this assignment:\n\n%s\n\n"+
		"Respond with ONLY a JSON array of 3 to 6 objects, each shaped "+
		`{"criterion": string, "description": string, "weight_percent": number}. `+
		"The weights must sum to 100.", taskDescription)

	content, err := e.chat(ctx, "generate_rubric", rubricSystemPrompt, user, false)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model_call_failed")
		return nil, err
	}

	rubric, err := decodeRubric(content)
	if err != nil {
		aiFailures.WithLabelValues("generate_rubric", e.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "rubric_shape_invalid")
		return nil, err
	}

	span.SetAttributes(attribute.Int("rubric.criteria", len(rubric)))
	return rubric, nil
}

// RefineRubric sends the current rubric back to the model together with an
// instructor's change request and decodes the revised criteria.
func (e *OpenAIEvaluator) RefineRubric(parent context.Context, rubric Rubric, instruction string) (Rubric, error) {
	ctx, span := e.tracer.Start(parent, "ai.refine_rubric", trace.WithAttributes(
		attribute.String("model", e.cfg.Model),
		attribute.Int("rubric.criteria", len(rubric)),
	))
	defer span.End()

	current, err := json.Marshal(rubric)
	if err != nil {
		return nil, fmt.Errorf("encode rubric: %w", err)
	}

	user := fmt.Sprintf("Here is the current grading rubric:\n\n%s\n\n"+
		"Revise it according to this instruction: %s\n\n"+
		"Respond with ONLY the full revised JSON array in the same shape, weights summing to 100.",
		current, instruction)

	content, err := e.chat(ctx, "refine_rubric", rubricSystemPrompt, user, false)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model_call_failed")
		return nil, err
	}

	revised, err := decodeRubric(content)
	if err != nil {
		aiFailures.WithLabelValues("refine_rubric", e.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "rubric_shape_invalid")
		return nil, err
	}
	return revised, nil
}

// ScoreSubmission grades one submission against the rubric. An empty
// submission never reaches the model: every criterion scores zero with a
// "No submission" comment.
func (e *OpenAIEvaluator) ScoreSubmission(parent context.Context, input ScoreInput) (Evaluation, error) {
	ctx, span := e.tracer.Start(parent, "ai.score_submission", trace.WithAttributes(
		attribute.String("model", e.cfg.Model),
		attribute.Int("rubric.criteria", len(input.Rubric)),
	))
	defer span.End()

	if len(input.Rubric) == 0 {
		return Evaluation{}, fmt.Errorf("a rubric is required to score a submission")
	}
	if strings.TrimSpace(input.Content) == "" {
		span.SetAttributes(attribute.Bool("submission.empty", true))
		return emptySubmissionEvaluation(input.Rubric), nil
	}

	rubricJSON, err := json.Marshal(input.Rubric)
	if err != nil {
		return Evaluation{}, fmt.Errorf("encode rubric: %w", err)
	}

	user := fmt.Sprintf("Assignment:\n%s\n\nRubric:\n%s\n\nSubmission by %s:\n%s\n\n"+
		"Score the submission against each rubric criterion. max_score for a criterion "+
		"is its weight_percent. Respond with a JSON object shaped "+
		`{"criteria_scores": [{"criterion": string, "score": number, "max_score": number, "comment": string}], "overall_comments": string}.`,
		input.TaskDescription, rubricJSON, input.Student, input.Content)

	content, err := e.chat(ctx, "score_submission", scorerSystemPrompt, user, true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model_call_failed")
		return Evaluation{}, err
	}

	evaluation, err := decodeEvaluation(content, input.Rubric)
	if err != nil {
		aiFailures.WithLabelValues("score_submission", e.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation_shape_invalid")
		return Evaluation{}, err
	}

	span.SetAttributes(attribute.Float64("evaluation.total", evaluation.Total))
	return evaluation, nil
}

const rubricSystemPrompt = "You are an experienced instructor designing grading rubrics. " +
	"Always answer with raw JSON, no prose and no markdown fences."

const scorerSystemPrompt = "You are a fair, consistent grader. Score strictly against the " +
	"provided rubric and justify every score in one or two sentences."

// chat performs one completion call and returns the assistant's content.
// jsonObject requests the structured-output mode; array-shaped answers must
// leave it off and rely on fence stripping instead.
func (e *OpenAIEvaluator) chat(ctx context.Context, op, system, user string, jsonObject bool) (string, error) {
	request := openai.ChatCompletionRequest{
		Model:       e.cfg.Model,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	if jsonObject {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	start := time.Now()
	resp, err := e.client.CreateChatCompletion(ctx, request)
	aiLatency.WithLabelValues(op, e.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues(op, e.cfg.Model).Inc()
		e.logger.Warn().Err(err).Str("op", op).Msg("model call failed")
		return "", fmt.Errorf("openai %s: %w", op, err)
	}

	aiTokens.WithLabelValues(e.cfg.Model, "prompt").Add(float64(resp.Usage.PromptTokens))
	aiTokens.WithLabelValues(e.cfg.Model, "completion").Add(float64(resp.Usage.CompletionTokens))

	if len(resp.Choices) == 0 {
		aiFailures.WithLabelValues(op, e.cfg.Model).Inc()
		return "", fmt.Errorf("openai %s: no choices returned", op)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func emptySubmissionEvaluation(rubric Rubric) Evaluation {
	scores := make([]CriterionScore, len(rubric))
	for i, criterion := range rubric {
		scores[i] = CriterionScore{
			Criterion: criterion.Criterion,
			Score:     0,
			MaxScore:  float64(criterion.WeightPercent),
			Comment:   "No submission",
		}
	}
	return Evaluation{
		CriteriaScores:  scores,
		OverallComments: "No submission provided.",
		Total:           0,
	}
}
