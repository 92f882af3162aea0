package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Model answers are validated structurally before anything trusts them.
// Unknown shapes are rejected, never silently coerced.

const rubricSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "required": ["criterion", "description", "weight_percent"],
    "properties": {
      "criterion": {"type": "string", "minLength": 1},
      "description": {"type": "string"},
      "weight_percent": {"type": "number", "minimum": 0}
    }
  }
}`

const evaluationSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["criteria_scores"],
  "properties": {
    "criteria_scores": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["criterion", "score"],
        "properties": {
          "criterion": {"type": "string", "minLength": 1},
          "score": {"type": "number"},
          "max_score": {"type": "number"},
          "comment": {"type": "string"}
        }
      }
    },
    "overall_comments": {"type": "string"}
  }
}`

var (
	rubricSchema     = jsonschema.MustCompileString("rubric.schema.json", rubricSchemaJSON)
	evaluationSchema = jsonschema.MustCompileString("evaluation.schema.json", evaluationSchemaJSON)
)

// decodeRubric parses a model answer into a normalized rubric. Markdown
// fences are tolerated; anything else unexpected is an error.
func decodeRubric(content string) (Rubric, error) {
	raw := []byte(stripFences(content))

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse rubric json: %w", err)
	}
	if err := rubricSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("rubric shape rejected: %w", err)
	}

	var rubric Rubric
	if err := json.Unmarshal(raw, &rubric); err != nil {
		return nil, fmt.Errorf("decode rubric: %w", err)
	}
	return NormalizeWeights(rubric), nil
}

// decodeEvaluation parses a scoring answer. Scores are clamped into
// [0, max_score]; a missing max_score falls back to the criterion's rubric
// weight; the total is recomputed as the sum of the clamped scores.
func decodeEvaluation(content string, rubric Rubric) (Evaluation, error) {
	raw := []byte(stripFences(content))

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Evaluation{}, fmt.Errorf("parse evaluation json: %w", err)
	}
	if err := evaluationSchema.Validate(doc); err != nil {
		return Evaluation{}, fmt.Errorf("evaluation shape rejected: %w", err)
	}

	var evaluation Evaluation
	if err := json.Unmarshal(raw, &evaluation); err != nil {
		return Evaluation{}, fmt.Errorf("decode evaluation: %w", err)
	}

	weights := make(map[string]int, len(rubric))
	for _, criterion := range rubric {
		weights[criterion.Criterion] = criterion.WeightPercent
	}

	total := 0.0
	for i := range evaluation.CriteriaScores {
		score := &evaluation.CriteriaScores[i]
		if score.MaxScore <= 0 {
			score.MaxScore = float64(weights[score.Criterion])
		}
		if score.Score < 0 {
			score.Score = 0
		}
		if score.MaxScore > 0 && score.Score > score.MaxScore {
			score.Score = score.MaxScore
		}
		total += score.Score
	}
	evaluation.Total = total
	return evaluation, nil
}

// NormalizeWeights rescales criterion weights proportionally so they sum to
// exactly 100, putting any rounding residual on the first criterion. A
// rubric whose weights sum to zero is split evenly instead.
func NormalizeWeights(rubric Rubric) Rubric {
	if len(rubric) == 0 {
		return rubric
	}

	out := make(Rubric, len(rubric))
	copy(out, rubric)

	total := 0
	for _, criterion := range out {
		total += criterion.WeightPercent
	}
	if total == 100 {
		return out
	}

	if total <= 0 {
		share := 100 / len(out)
		for i := range out {
			out[i].WeightPercent = share
		}
		out[0].WeightPercent += 100 - share*len(out)
		return out
	}

	sum := 0
	for i := range out {
		scaled := int(math.Round(float64(out[i].WeightPercent) * 100 / float64(total)))
		out[i].WeightPercent = scaled
		sum += scaled
	}
	out[0].WeightPercent += 100 - sum
	return out
}

// stripFences removes a markdown code fence around a model answer, with or
// without a language tag.
func stripFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		trimmed = trimmed[idx+1:]
	} else {
		trimmed = strings.TrimPrefix(trimmed, "json")
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
