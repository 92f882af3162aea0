package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/paatshala-go-api/internal/models"
	"github.com/noah-isme/paatshala-go-api/internal/observability"
	"github.com/noah-isme/paatshala-go-api/pkg/ai"
	"github.com/noah-isme/paatshala-go-api/pkg/github"
)

const (
	// maxFileContentBytes caps how much of a submitted file is handed to
	// the model; larger files are summarized by a note instead.
	maxFileContentBytes = 100_000
	// maxPromptContent caps the assembled submission content itself.
	maxPromptContent = 8_000
)

// ErrNoRubric means scoring was requested before a rubric was generated
// or saved for the assignment.
var ErrNoRubric = errors.New("no rubric saved for this assignment")

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// RepoReader fetches repository content for link submissions.
type RepoReader interface {
	Readme(ctx context.Context, owner, repo string) (string, error)
	Contents(ctx context.Context, owner, repo string) ([]github.RepoEntry, error)
}

// SubmissionContent is one student's work, shaped by how it was turned in.
// FilePaths point at previously downloaded submission files and must sit
// under the service's output tree.
type SubmissionContent struct {
	Type      models.SubmissionType
	Text      string
	FilePaths []string
}

// RubricService drafts grading rubrics with the model collaborator and
// scores submissions against them. Rubrics and evaluations persist as
// JSON under the course output tree.
type RubricService interface {
	Generate(ctx context.Context, courseID, moduleID, groupID int, taskDescription string) (models.RubricDocument, error)
	Refine(ctx context.Context, courseID, moduleID, groupID int, instruction string) (models.RubricDocument, error)
	Rubric(courseID, moduleID, groupID int) (models.RubricDocument, error)
	SaveRubric(courseID int, doc models.RubricDocument) error
	DeleteRubric(courseID, moduleID, groupID int) error
	Score(ctx context.Context, courseID, moduleID, groupID int, student string, submission SubmissionContent, taskDescription string) (models.Evaluation, error)
	Evaluations(courseID, moduleID, groupID int) ([]models.Evaluation, error)
	DeleteEvaluations(courseID, moduleID, groupID int) error
}

type rubricService struct {
	evaluator  ai.Evaluator
	tasks      TaskService
	repos      RepoReader
	outputRoot string
	logger     zerolog.Logger
	now        func() time.Time
}

// NewRubricService wires the model evaluator to its persistence tree.
func NewRubricService(evaluator ai.Evaluator, tasks TaskService, repos RepoReader, outputRoot string, logger zerolog.Logger) RubricService {
	return &rubricService{
		evaluator:  evaluator,
		tasks:      tasks,
		repos:      repos,
		outputRoot: outputRoot,
		logger:     logger.With().Str("component", "rubric_service").Logger(),
		now:        time.Now,
	}
}

// Generate drafts a rubric for one assignment. An empty task description
// is recovered from the assignment page before the model is asked.
func (s *rubricService) Generate(ctx context.Context, courseID, moduleID, groupID int, taskDescription string) (models.RubricDocument, error) {
	if strings.TrimSpace(taskDescription) == "" {
		detail, err := s.tasks.AssignmentDetail(ctx, moduleID)
		if err != nil {
			return models.RubricDocument{}, fmt.Errorf("no task description given and the assignment page gave none: %w", err)
		}
		taskDescription = detail.Description
	}

	rubric, err := s.evaluator.GenerateRubric(ctx, taskDescription)
	if err != nil {
		observability.AICalls().WithLabelValues("generate_rubric", "error").Inc()
		return models.RubricDocument{}, err
	}
	observability.AICalls().WithLabelValues("generate_rubric", "ok").Inc()

	doc := models.RubricDocument{
		ModuleID:    moduleID,
		GroupID:     groupID,
		GeneratedAt: s.now().UTC(),
		Criteria:    criteriaFromAI(rubric),
	}
	if err := s.SaveRubric(courseID, doc); err != nil {
		return models.RubricDocument{}, err
	}
	s.logger.Info().Int("module_id", moduleID).Int("criteria", len(doc.Criteria)).Msg("rubric generated")
	return doc, nil
}

// Refine rewrites the saved rubric per the instructor's instruction and
// persists the result in its place.
func (s *rubricService) Refine(ctx context.Context, courseID, moduleID, groupID int, instruction string) (models.RubricDocument, error) {
	doc, err := s.Rubric(courseID, moduleID, groupID)
	if err != nil {
		return models.RubricDocument{}, err
	}

	rubric, err := s.evaluator.RefineRubric(ctx, criteriaToAI(doc.Criteria), instruction)
	if err != nil {
		observability.AICalls().WithLabelValues("refine_rubric", "error").Inc()
		return models.RubricDocument{}, err
	}
	observability.AICalls().WithLabelValues("refine_rubric", "ok").Inc()

	doc.Criteria = criteriaFromAI(rubric)
	doc.GeneratedAt = s.now().UTC()
	if err := s.SaveRubric(courseID, doc); err != nil {
		return models.RubricDocument{}, err
	}
	return doc, nil
}

func (s *rubricService) Rubric(courseID, moduleID, groupID int) (models.RubricDocument, error) {
	raw, err := os.ReadFile(s.rubricPath(courseID, moduleID, groupID))
	if err != nil {
		if os.IsNotExist(err) {
			return models.RubricDocument{}, ErrNoRubric
		}
		return models.RubricDocument{}, fmt.Errorf("read rubric: %w", err)
	}
	var doc models.RubricDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return models.RubricDocument{}, fmt.Errorf("decode rubric: %w", err)
	}
	return doc, nil
}

// SaveRubric persists a rubric document, including instructor-edited ones
// arriving straight from the API.
func (s *rubricService) SaveRubric(courseID int, doc models.RubricDocument) error {
	path := s.rubricPath(courseID, doc.ModuleID, doc.GroupID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create rubric dir: %w", err)
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode rubric: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write rubric: %w", err)
	}
	return nil
}

func (s *rubricService) DeleteRubric(courseID, moduleID, groupID int) error {
	err := os.Remove(s.rubricPath(courseID, moduleID, groupID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete rubric: %w", err)
	}
	return nil
}

// Score grades one submission against the saved rubric. The submission
// content is assembled by type before the model sees it; an assignment
// without a rubric refuses to score.
func (s *rubricService) Score(ctx context.Context, courseID, moduleID, groupID int, student string, submission SubmissionContent, taskDescription string) (models.Evaluation, error) {
	doc, err := s.Rubric(courseID, moduleID, groupID)
	if err != nil {
		return models.Evaluation{}, err
	}

	content := s.assembleContent(ctx, submission)
	if len(content) > maxPromptContent {
		content = content[:maxPromptContent]
	}

	result, err := s.evaluator.ScoreSubmission(ctx, ai.ScoreInput{
		Student:         student,
		TaskDescription: taskDescription,
		Content:         content,
		Rubric:          criteriaToAI(doc.Criteria),
	})
	if err != nil {
		observability.AICalls().WithLabelValues("score_submission", "error").Inc()
		return models.Evaluation{}, err
	}
	observability.AICalls().WithLabelValues("score_submission", "ok").Inc()

	evaluation := models.Evaluation{
		StudentName:     student,
		ModuleID:        moduleID,
		GroupID:         groupID,
		EvaluatedAt:     s.now().UTC(),
		CriteriaScores:  scoresFromAI(result.CriteriaScores),
		OverallComments: result.OverallComments,
		Total:           result.Total,
	}
	if err := s.writeEvaluation(courseID, evaluation); err != nil {
		s.logger.Warn().Err(err).Str("student", student).Msg("evaluation write failed")
	}
	return evaluation, nil
}

func (s *rubricService) Evaluations(courseID, moduleID, groupID int) ([]models.Evaluation, error) {
	dir := s.evaluationDir(courseID, moduleID, groupID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.Evaluation{}, nil
		}
		return nil, fmt.Errorf("list evaluations: %w", err)
	}

	evaluations := make([]models.Evaluation, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("evaluation unreadable, skipped")
			continue
		}
		var evaluation models.Evaluation
		if err := json.Unmarshal(raw, &evaluation); err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("evaluation malformed, skipped")
			continue
		}
		evaluations = append(evaluations, evaluation)
	}
	return evaluations, nil
}

func (s *rubricService) DeleteEvaluations(courseID, moduleID, groupID int) error {
	if err := os.RemoveAll(s.evaluationDir(courseID, moduleID, groupID)); err != nil {
		return fmt.Errorf("delete evaluations: %w", err)
	}
	return nil
}

// assembleContent renders a submission for the model by its type: links
// expand into repository content, files into their on-disk text, and
// anything unreadable into a note saying so.
func (s *rubricService) assembleContent(ctx context.Context, submission SubmissionContent) string {
	switch submission.Type {
	case models.SubmissionLink:
		return s.linkContent(ctx, submission.Text)
	case models.SubmissionFileUpload:
		return s.fileContent(submission.FilePaths)
	case models.SubmissionText:
		return submission.Text
	default:
		return ""
	}
}

func (s *rubricService) linkContent(ctx context.Context, text string) string {
	url := urlPattern.FindString(text)
	if url == "" {
		return text
	}

	owner, repo, ok := github.ParseRepoURL(url)
	if !ok {
		return fmt.Sprintf("Submitted URL: %s\n\n(Cannot fetch content from non-GitHub URLs)", url)
	}

	readme, err := s.repos.Readme(ctx, owner, repo)
	if err != nil {
		return fmt.Sprintf("GitHub URL: %s\n\n(Could not fetch content: %v)", url, err)
	}

	listing := "(empty)"
	if entries, err := s.repos.Contents(ctx, owner, repo); err == nil && len(entries) > 0 {
		lines := make([]string, len(entries))
		for i, entry := range entries {
			lines[i] = fmt.Sprintf("- %s (%s)", entry.Name, entry.Type)
		}
		listing = strings.Join(lines, "\n")
	}

	return fmt.Sprintf("GitHub Repository: %s\n\n## Files in Repository:\n%s\n\n## README:\n%s", url, listing, readme)
}

func (s *rubricService) fileContent(paths []string) string {
	if len(paths) == 0 {
		return ""
	}

	parts := make([]string, 0, len(paths)*2)
	for _, path := range paths {
		name := filepath.Base(path)
		parts = append(parts, "File: "+name)

		if !s.withinOutput(path) {
			parts = append(parts, "(File is outside the download area - content not loaded)")
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			parts = append(parts, "(File not downloaded locally)")
			continue
		}
		if info.Size() > maxFileContentBytes {
			parts = append(parts, fmt.Sprintf("(File too large: %.1fKB - content not loaded)", float64(info.Size())/1024))
			continue
		}
		parts = append(parts, describeFile(path, name, info.Size()))
	}
	return strings.Join(parts, "\n\n")
}

// withinOutput rejects paths escaping the output tree; file paths arrive
// from API clients and are not trusted.
func (s *rubricService) withinOutput(path string) bool {
	root, err := filepath.Abs(s.outputRoot)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (s *rubricService) rubricPath(courseID, moduleID, groupID int) string {
	name := fmt.Sprintf("rubric_mod%d.json", moduleID)
	if groupID > 0 {
		name = fmt.Sprintf("rubric_mod%d_grp%d.json", moduleID, groupID)
	}
	return filepath.Join(s.outputRoot, fmt.Sprintf("course_%d", courseID), "rubrics", name)
}

func (s *rubricService) evaluationDir(courseID, moduleID, groupID int) string {
	dir := filepath.Join(s.outputRoot, fmt.Sprintf("course_%d", courseID), "evaluations", fmt.Sprintf("mod%d", moduleID))
	if groupID > 0 {
		dir = filepath.Join(dir, fmt.Sprintf("grp%d", groupID))
	}
	return dir
}

func (s *rubricService) writeEvaluation(courseID int, evaluation models.Evaluation) error {
	dir := s.evaluationDir(courseID, evaluation.ModuleID, evaluation.GroupID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create evaluation dir: %w", err)
	}
	raw, err := json.MarshalIndent(evaluation, "", "  ")
	if err != nil {
		return fmt.Errorf("encode evaluation: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("eval_%s.json", safeFileName(evaluation.StudentName)))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write evaluation: %w", err)
	}
	return nil
}

// describeFile renders one downloaded file for the model: text content
// inline, anything else as a note.
func describeFile(path, name string, size int64) string {
	kind, err := mimetype.DetectFile(path)
	switch {
	case err != nil:
		return "(Error reading file)"
	case strings.HasPrefix(kind.String(), "image/"):
		return fmt.Sprintf("(Image file: %s - %.1fKB)", name, float64(size)/1024)
	case isTextKind(kind):
		raw, err := os.ReadFile(path)
		if err != nil {
			return "(Error reading file)"
		}
		return fmt.Sprintf("--- Content of %s ---\n%s", name, string(raw))
	default:
		return "(Binary file - cannot read content)"
	}
}

// isTextKind walks the detected type's ancestry; scripts, CSVs and
// source files all descend from text/plain.
func isTextKind(kind *mimetype.MIME) bool {
	for k := kind; k != nil; k = k.Parent() {
		if k.Is("text/plain") {
			return true
		}
	}
	return false
}

func safeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	cleaned := strings.TrimSpace(b.String())
	if cleaned == "" {
		return "unknown"
	}
	return cleaned
}

func criteriaFromAI(rubric ai.Rubric) models.Rubric {
	out := make(models.Rubric, len(rubric))
	for i, c := range rubric {
		out[i] = models.RubricCriterion{
			Criterion:     c.Criterion,
			Description:   c.Description,
			WeightPercent: c.WeightPercent,
		}
	}
	return out
}

func criteriaToAI(rubric models.Rubric) ai.Rubric {
	out := make(ai.Rubric, len(rubric))
	for i, c := range rubric {
		out[i] = ai.Criterion{
			Criterion:     c.Criterion,
			Description:   c.Description,
			WeightPercent: c.WeightPercent,
		}
	}
	return out
}

func scoresFromAI(scores []ai.CriterionScore) []models.CriterionScore {
	out := make([]models.CriterionScore, len(scores))
	for i, score := range scores {
		out[i] = models.CriterionScore{
			Criterion: score.Criterion,
			Score:     score.Score,
			MaxScore:  score.MaxScore,
			Comment:   score.Comment,
		}
	}
	return out
}
