package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	openai "github.com/sashabaranov/go-openai"
)

// modelFake serves the chat completions endpoint and records every request.
type modelFake struct {
	mu       sync.Mutex
	requests []openai.ChatCompletionRequest
	answers  []string
	status   int
}

func (f *modelFake) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request openai.ChatCompletionRequest
		_ = json.NewDecoder(r.Body).Decode(&request)

		f.mu.Lock()
		f.requests = append(f.requests, request)
		answer := ""
		if len(f.answers) > 0 {
			answer = f.answers[0]
			f.answers = f.answers[1:]
		}
		status := f.status
		f.mu.Unlock()

		if status != 0 {
			w.WriteHeader(status)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": answer}, "finish_reason": "stop"}},
			"usage":   map[string]any{"prompt_tokens": 12, "completion_tokens": 34, "total_tokens": 46},
		})
	}
}

func (f *modelFake) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *modelFake) lastRequest(t *testing.T) openai.ChatCompletionRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newTestEvaluator(t *testing.T, fake *modelFake) *OpenAIEvaluator {
	t.Helper()
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	evaluator, err := NewOpenAIEvaluator(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: server.URL + "/v1",
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)
	return evaluator
}

func TestNewOpenAIEvaluatorRequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIEvaluator(OpenAIConfig{})
	require.Error(t, err)
}

func TestGenerateRubricStripsFencesAndNormalizes(t *testing.T) {
	fake := &modelFake{answers: []string{
		"```json\n[" +
			`{"criterion":"Correctness","description":"Works as specified","weight_percent":30},` +
			`{"criterion":"Code quality","description":"Readable and idiomatic","weight_percent":30},` +
			`{"criterion":"Documentation","description":"README and comments","weight_percent":30}` +
			"]\n```",
	}}
	evaluator := newTestEvaluator(t, fake)

	rubric, err := evaluator.GenerateRubric(context.Background(), "Build a REST API")
	require.NoError(t, err)
	require.Len(t, rubric, 3)
	require.Equal(t, "Correctness", rubric[0].Criterion)

	// 30+30+30 rescales to 33/33/33 with the residual on the first item.
	require.Equal(t, 34, rubric[0].WeightPercent)
	require.Equal(t, 33, rubric[1].WeightPercent)
	require.Equal(t, 33, rubric[2].WeightPercent)
	require.Equal(t, 100, rubric[0].WeightPercent+rubric[1].WeightPercent+rubric[2].WeightPercent)

	request := fake.lastRequest(t)
	require.Equal(t, "gpt-4o-mini", request.Model)
	require.Nil(t, request.ResponseFormat)
	require.Contains(t, request.Messages[1].Content, "Build a REST API")
}

func TestGenerateRubricRejectsWrongShape(t *testing.T) {
	fake := &modelFake{answers: []string{`[{"description":"weight missing"}]`}}
	evaluator := newTestEvaluator(t, fake)

	_, err := evaluator.GenerateRubric(context.Background(), "task")
	require.Error(t, err)
	require.Contains(t, err.Error(), "rubric shape rejected")
}

func TestGenerateRubricSurfacesModelFailure(t *testing.T) {
	fake := &modelFake{status: http.StatusInternalServerError}
	evaluator := newTestEvaluator(t, fake)

	_, err := evaluator.GenerateRubric(context.Background(), "task")
	require.Error(t, err)
}

func TestRefineRubricSendsCurrentRubricAndInstruction(t *testing.T) {
	fake := &modelFake{answers: []string{
		`[{"criterion":"Correctness","description":"Works","weight_percent":60},` +
			`{"criterion":"Tests","description":"Covered","weight_percent":40}]`,
	}}
	evaluator := newTestEvaluator(t, fake)

	current := Rubric{
		{Criterion: "Correctness", Description: "Works", WeightPercent: 100},
	}
	revised, err := evaluator.RefineRubric(context.Background(), current, "add a testing criterion")
	require.NoError(t, err)
	require.Len(t, revised, 2)
	require.Equal(t, 60, revised[0].WeightPercent)
	require.Equal(t, 40, revised[1].WeightPercent)

	request := fake.lastRequest(t)
	require.Contains(t, request.Messages[1].Content, "add a testing criterion")
	require.Contains(t, request.Messages[1].Content, `"Correctness"`)
}

func TestScoreSubmissionParsesAndRecomputesTotal(t *testing.T) {
	fake := &modelFake{answers: []string{
		`{"criteria_scores":[` +
			`{"criterion":"Correctness","score":45,"max_score":60,"comment":"Minor edge case bugs"},` +
			`{"criterion":"Tests","score":50,"max_score":40,"comment":"Thorough"}` +
			`],"overall_comments":"Solid work","total":9999}`,
	}}
	evaluator := newTestEvaluator(t, fake)

	rubric := Rubric{
		{Criterion: "Correctness", WeightPercent: 60},
		{Criterion: "Tests", WeightPercent: 40},
	}
	evaluation, err := evaluator.ScoreSubmission(context.Background(), ScoreInput{
		Student:         "Alice Smith",
		TaskDescription: "Build a REST API",
		Content:         "https://github.com/alice/api",
		Rubric:          rubric,
	})
	require.NoError(t, err)
	require.Equal(t, "Solid work", evaluation.OverallComments)

	// Over-max scores clamp and the bogus model total is ignored.
	require.Equal(t, 40.0, evaluation.CriteriaScores[1].Score)
	require.Equal(t, 85.0, evaluation.Total)

	request := fake.lastRequest(t)
	require.NotNil(t, request.ResponseFormat)
	require.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, request.ResponseFormat.Type)
	require.Contains(t, request.Messages[1].Content, "Alice Smith")
}

func TestScoreSubmissionEmptyContentSkipsModel(t *testing.T) {
	fake := &modelFake{}
	evaluator := newTestEvaluator(t, fake)

	rubric := Rubric{
		{Criterion: "Correctness", WeightPercent: 70},
		{Criterion: "Style", WeightPercent: 30},
	}
	evaluation, err := evaluator.ScoreSubmission(context.Background(), ScoreInput{
		Student: "Bob Jones",
		Content: "   ",
		Rubric:  rubric,
	})
	require.NoError(t, err)
	require.Equal(t, 0, fake.calls())
	require.Equal(t, 0.0, evaluation.Total)
	require.Len(t, evaluation.CriteriaScores, 2)
	for i, score := range evaluation.CriteriaScores {
		require.Equal(t, rubric[i].Criterion, score.Criterion)
		require.Equal(t, float64(rubric[i].WeightPercent), score.MaxScore)
		require.Equal(t, "No submission", score.Comment)
	}
}

func TestScoreSubmissionRequiresRubric(t *testing.T) {
	fake := &modelFake{}
	evaluator := newTestEvaluator(t, fake)

	_, err := evaluator.ScoreSubmission(context.Background(), ScoreInput{Content: "text"})
	require.Error(t, err)
	require.Equal(t, 0, fake.calls())
}
