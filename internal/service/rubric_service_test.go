package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/paatshala-go-api/internal/models"
	"github.com/noah-isme/paatshala-go-api/pkg/ai"
	"github.com/noah-isme/paatshala-go-api/pkg/github"
)

type evaluatorStub struct {
	rubric     ai.Rubric
	refined    ai.Rubric
	evaluation ai.Evaluation
	genErr     error
	scoreErr   error

	lastTask        string
	lastInstruction string
	lastInput       ai.ScoreInput
}

func (e *evaluatorStub) GenerateRubric(ctx context.Context, taskDescription string) (ai.Rubric, error) {
	e.lastTask = taskDescription
	return e.rubric, e.genErr
}

func (e *evaluatorStub) RefineRubric(ctx context.Context, rubric ai.Rubric, instruction string) (ai.Rubric, error) {
	e.lastInstruction = instruction
	return e.refined, nil
}

func (e *evaluatorStub) ScoreSubmission(ctx context.Context, input ai.ScoreInput) (ai.Evaluation, error) {
	e.lastInput = input
	return e.evaluation, e.scoreErr
}

type taskServiceStub struct {
	detail    models.AssignmentDetail
	detailErr error
}

func (s taskServiceStub) Tasks(ctx context.Context, courseID int, force bool) (TasksView, error) {
	return TasksView{}, nil
}

func (s taskServiceStub) AssignmentDetail(ctx context.Context, moduleID int) (models.AssignmentDetail, error) {
	return s.detail, s.detailErr
}

type repoReaderStub struct {
	readme    string
	readmeErr error
	entries   []github.RepoEntry
}

func (r *repoReaderStub) Readme(ctx context.Context, owner, repo string) (string, error) {
	return r.readme, r.readmeErr
}

func (r *repoReaderStub) Contents(ctx context.Context, owner, repo string) ([]github.RepoEntry, error) {
	return r.entries, nil
}

func sampleRubric() ai.Rubric {
	return ai.Rubric{
		{Criterion: "Correctness", Description: "Scanner finds open ports", WeightPercent: 60},
		{Criterion: "Code quality", Description: "Readable and structured", WeightPercent: 40},
	}
}

func newRubricFixture(t *testing.T, evaluator *evaluatorStub, tasks taskServiceStub, repos *repoReaderStub) (RubricService, string) {
	t.Helper()
	root := t.TempDir()
	svc := NewRubricService(evaluator, tasks, repos, root, testLogger())
	return svc, root
}

func TestRubricServiceGeneratePersistsDocument(t *testing.T) {
	evaluator := &evaluatorStub{rubric: sampleRubric()}
	svc, root := newRubricFixture(t, evaluator, taskServiceStub{}, &repoReaderStub{})

	doc, err := svc.Generate(context.Background(), 7, 301, 0, "Build a port scanner")
	require.NoError(t, err)
	require.Equal(t, 301, doc.ModuleID)
	require.Len(t, doc.Criteria, 2)
	require.False(t, doc.GeneratedAt.IsZero())
	require.Equal(t, "Build a port scanner", evaluator.lastTask)

	_, err = os.Stat(filepath.Join(root, "course_7", "rubrics", "rubric_mod301.json"))
	require.NoError(t, err)

	loaded, err := svc.Rubric(7, 301, 0)
	require.NoError(t, err)
	require.Equal(t, doc.Criteria, loaded.Criteria)
}

func TestRubricServiceGenerateFetchesMissingDescription(t *testing.T) {
	evaluator := &evaluatorStub{rubric: sampleRubric()}
	tasks := taskServiceStub{detail: models.AssignmentDetail{Description: "Scan the lab network"}}
	svc, _ := newRubricFixture(t, evaluator, tasks, &repoReaderStub{})

	_, err := svc.Generate(context.Background(), 7, 301, 0, "  ")
	require.NoError(t, err)
	require.Equal(t, "Scan the lab network", evaluator.lastTask)
}

func TestRubricServiceGenerateWithoutAnyDescription(t *testing.T) {
	evaluator := &evaluatorStub{rubric: sampleRubric()}
	tasks := taskServiceStub{detailErr: errors.New("page gone")}
	svc, _ := newRubricFixture(t, evaluator, tasks, &repoReaderStub{})

	_, err := svc.Generate(context.Background(), 7, 301, 0, "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no task description")
}

func TestRubricServiceGroupScopedRubrics(t *testing.T) {
	evaluator := &evaluatorStub{rubric: sampleRubric()}
	svc, root := newRubricFixture(t, evaluator, taskServiceStub{}, &repoReaderStub{})

	_, err := svc.Generate(context.Background(), 7, 301, 31, "task")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(root, "course_7", "rubrics", "rubric_mod301_grp31.json"))
	require.NoError(t, err)

	_, err = svc.Rubric(7, 301, 31)
	require.NoError(t, err)

	_, err = svc.Rubric(7, 301, 0)
	require.ErrorIs(t, err, ErrNoRubric)
}

func TestRubricServiceRefineRewritesCriteria(t *testing.T) {
	evaluator := &evaluatorStub{
		rubric:  sampleRubric(),
		refined: ai.Rubric{{Criterion: "Stealth", Description: "Avoids detection", WeightPercent: 100}},
	}
	svc, _ := newRubricFixture(t, evaluator, taskServiceStub{}, &repoReaderStub{})

	_, err := svc.Generate(context.Background(), 7, 301, 0, "task")
	require.NoError(t, err)

	doc, err := svc.Refine(context.Background(), 7, 301, 0, "weight stealth only")
	require.NoError(t, err)
	require.Equal(t, "weight stealth only", evaluator.lastInstruction)
	require.Len(t, doc.Criteria, 1)
	require.Equal(t, "Stealth", doc.Criteria[0].Criterion)

	loaded, err := svc.Rubric(7, 301, 0)
	require.NoError(t, err)
	require.Equal(t, doc.Criteria, loaded.Criteria)
}

func TestRubricServiceRefineWithoutRubric(t *testing.T) {
	svc, _ := newRubricFixture(t, &evaluatorStub{}, taskServiceStub{}, &repoReaderStub{})

	_, err := svc.Refine(context.Background(), 7, 301, 0, "tighter")
	require.ErrorIs(t, err, ErrNoRubric)
}

func TestRubricServiceScoreWithoutRubric(t *testing.T) {
	svc, _ := newRubricFixture(t, &evaluatorStub{}, taskServiceStub{}, &repoReaderStub{})

	_, err := svc.Score(context.Background(), 7, 301, 0, "Alice", SubmissionContent{Type: models.SubmissionText, Text: "answer"}, "task")
	require.ErrorIs(t, err, ErrNoRubric)
}

func TestRubricServiceScorePersistsEvaluation(t *testing.T) {
	evaluator := &evaluatorStub{
		rubric: sampleRubric(),
		evaluation: ai.Evaluation{
			CriteriaScores: []ai.CriterionScore{
				{Criterion: "Correctness", Score: 48, MaxScore: 60, Comment: "misses UDP"},
				{Criterion: "Code quality", Score: 36, MaxScore: 40, Comment: "clean"},
			},
			OverallComments: "Solid work",
			Total:           84,
		},
	}
	svc, root := newRubricFixture(t, evaluator, taskServiceStub{}, &repoReaderStub{})

	_, err := svc.Generate(context.Background(), 7, 301, 0, "task")
	require.NoError(t, err)

	evaluation, err := svc.Score(context.Background(), 7, 301, 0, "Alice Smith", SubmissionContent{Type: models.SubmissionText, Text: "my answer"}, "task")
	require.NoError(t, err)
	require.Equal(t, "Alice Smith", evaluation.StudentName)
	require.Equal(t, 301, evaluation.ModuleID)
	require.False(t, evaluation.EvaluatedAt.IsZero())
	require.Equal(t, 84.0, evaluation.Total)
	require.Equal(t, "my answer", evaluator.lastInput.Content)
	require.Len(t, evaluator.lastInput.Rubric, 2)

	_, err = os.Stat(filepath.Join(root, "course_7", "evaluations", "mod301", "eval_Alice Smith.json"))
	require.NoError(t, err)

	evaluations, err := svc.Evaluations(7, 301, 0)
	require.NoError(t, err)
	require.Len(t, evaluations, 1)
	require.Equal(t, "Solid work", evaluations[0].OverallComments)

	require.NoError(t, svc.DeleteEvaluations(7, 301, 0))
	evaluations, err = svc.Evaluations(7, 301, 0)
	require.NoError(t, err)
	require.Empty(t, evaluations)
}

func TestRubricServiceScoreBuildsGitHubContent(t *testing.T) {
	evaluator := &evaluatorStub{rubric: sampleRubric()}
	repos := &repoReaderStub{
		readme:  "# Demo scanner",
		entries: []github.RepoEntry{{Name: "main.go", Type: "file"}, {Name: "docs", Type: "dir"}},
	}
	svc, _ := newRubricFixture(t, evaluator, taskServiceStub{}, repos)

	_, err := svc.Generate(context.Background(), 7, 301, 0, "task")
	require.NoError(t, err)

	submission := SubmissionContent{Type: models.SubmissionLink, Text: "repo at https://github.com/acme/demo done"}
	_, err = svc.Score(context.Background(), 7, 301, 0, "Alice", submission, "task")
	require.NoError(t, err)

	content := evaluator.lastInput.Content
	require.Contains(t, content, "GitHub Repository: https://github.com/acme/demo")
	require.Contains(t, content, "- main.go (file)")
	require.Contains(t, content, "- docs (dir)")
	require.Contains(t, content, "## README:\n# Demo scanner")
}

func TestRubricServiceScoreNonGitHubLink(t *testing.T) {
	evaluator := &evaluatorStub{rubric: sampleRubric()}
	svc, _ := newRubricFixture(t, evaluator, taskServiceStub{}, &repoReaderStub{})

	_, err := svc.Generate(context.Background(), 7, 301, 0, "task")
	require.NoError(t, err)

	submission := SubmissionContent{Type: models.SubmissionLink, Text: "https://pastebin.example/xyz"}
	_, err = svc.Score(context.Background(), 7, 301, 0, "Alice", submission, "task")
	require.NoError(t, err)

	require.Equal(t,
		"Submitted URL: https://pastebin.example/xyz\n\n(Cannot fetch content from non-GitHub URLs)",
		evaluator.lastInput.Content)
}

func TestRubricServiceScoreReadsSubmittedFiles(t *testing.T) {
	evaluator := &evaluatorStub{rubric: sampleRubric()}
	svc, root := newRubricFixture(t, evaluator, taskServiceStub{}, &repoReaderStub{})

	_, err := svc.Generate(context.Background(), 7, 301, 0, "task")
	require.NoError(t, err)

	dir := filepath.Join(root, "course_7", "submissions")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("port 22 open"), 0o644))

	submission := SubmissionContent{Type: models.SubmissionFileUpload, FilePaths: []string{path}}
	_, err = svc.Score(context.Background(), 7, 301, 0, "Alice", submission, "task")
	require.NoError(t, err)

	content := evaluator.lastInput.Content
	require.Contains(t, content, "File: notes.txt")
	require.Contains(t, content, "--- Content of notes.txt ---")
	require.Contains(t, content, "port 22 open")
}

func TestRubricServiceScoreRejectsEscapingPaths(t *testing.T) {
	evaluator := &evaluatorStub{rubric: sampleRubric()}
	svc, root := newRubricFixture(t, evaluator, taskServiceStub{}, &repoReaderStub{})

	_, err := svc.Generate(context.Background(), 7, 301, 0, "task")
	require.NoError(t, err)

	outside := filepath.Join(root, "..", "secrets.txt")
	submission := SubmissionContent{Type: models.SubmissionFileUpload, FilePaths: []string{outside}}
	_, err = svc.Score(context.Background(), 7, 301, 0, "Alice", submission, "task")
	require.NoError(t, err)

	require.Contains(t, evaluator.lastInput.Content, "outside the download area")
	require.NotContains(t, evaluator.lastInput.Content, "--- Content of")
}

func TestRubricServiceScoreCapsPromptContent(t *testing.T) {
	evaluator := &evaluatorStub{rubric: sampleRubric()}
	svc, _ := newRubricFixture(t, evaluator, taskServiceStub{}, &repoReaderStub{})

	_, err := svc.Generate(context.Background(), 7, 301, 0, "task")
	require.NoError(t, err)

	submission := SubmissionContent{Type: models.SubmissionText, Text: strings.Repeat("a", maxPromptContent+500)}
	_, err = svc.Score(context.Background(), 7, 301, 0, "Alice", submission, "task")
	require.NoError(t, err)
	require.Len(t, evaluator.lastInput.Content, maxPromptContent)
}

func TestRubricServiceDeleteRubric(t *testing.T) {
	evaluator := &evaluatorStub{rubric: sampleRubric()}
	svc, _ := newRubricFixture(t, evaluator, taskServiceStub{}, &repoReaderStub{})

	require.NoError(t, svc.DeleteRubric(7, 301, 0))

	_, err := svc.Generate(context.Background(), 7, 301, 0, "task")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRubric(7, 301, 0))
	_, err = svc.Rubric(7, 301, 0)
	require.ErrorIs(t, err, ErrNoRubric)
}

func TestSafeFileNameStripsHostileRunes(t *testing.T) {
	require.Equal(t, "Alice Smith", safeFileName("Alice Smith"))
	require.Equal(t, "etcpasswd", safeFileName("../../etc/passwd"))
	require.Equal(t, "unknown", safeFileName("///"))
}
