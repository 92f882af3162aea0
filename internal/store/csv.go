package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/paatshala-go-api/internal/models"
)

// DatasetMeta records when a snapshot was written and how many data rows it
// carries, keyed per dataset in the course directory's meta file.
type DatasetMeta struct {
	Updated time.Time `json:"updated"`
	Rows    int       `json:"rows"`
}

// CSVSnapshots writes per-course CSV exports under
// root/course_<id>/ and maintains the sibling .meta.json.
type CSVSnapshots struct {
	root   string
	logger zerolog.Logger
}

// NewCSVSnapshots roots the snapshot tree, usually at the output directory.
func NewCSVSnapshots(root string, logger zerolog.Logger) *CSVSnapshots {
	return &CSVSnapshots{
		root:   root,
		logger: logger.With().Str("component", "csv_snapshots").Logger(),
	}
}

// WriteTasks snapshots the assignment listing of one course.
func (s *CSVSnapshots) WriteTasks(courseID int, rows []models.TaskRow) (string, error) {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, []string{"Name", "Module ID", "Due Date", "Time Remaining", "Max Grade", "Participants", "Submitted", "Needs Grading", "URL"})
	for _, r := range rows {
		records = append(records, []string{
			r.Name, strconv.Itoa(r.ModuleID), r.DueDate, r.TimeRemaining, r.MaxGrade,
			r.Participants, r.Submitted, r.NeedsGrading, r.URL,
		})
	}

	name := fmt.Sprintf("tasks_%d.csv", courseID)
	path, err := s.write(courseID, name, records)
	if err != nil {
		return "", err
	}
	return path, s.updateMeta(courseID, "tasks", len(rows))
}

// WriteSubmissions snapshots one assignment's grading table.
func (s *CSVSnapshots) WriteSubmissions(courseID, moduleID int, rows []models.SubmissionRow) (string, error) {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, []string{"Student", "Email", "Status", "Last Modified", "Type", "Submission", "Files", "Grade", "Feedback", "Final Grade"})
	for _, r := range rows {
		files := make([]string, 0, len(r.Files))
		for _, f := range r.Files {
			files = append(files, f.Name)
		}
		records = append(records, []string{
			r.Student, r.Email, r.Status, r.LastModified, string(r.Type),
			r.Submission, joinNonEmpty(files), r.Grade, r.Feedback, r.FinalGrade,
		})
	}

	name := fmt.Sprintf("submissions_%d_mod%d.csv", courseID, moduleID)
	path, err := s.write(courseID, name, records)
	if err != nil {
		return "", err
	}
	return path, s.updateMeta(courseID, fmt.Sprintf("submissions_mod%d", moduleID), len(rows))
}

// WriteQuizScores snapshots the practice-quiz matrix, one student per row
// in name order, one quiz per column in course-page order. Unattempted
// quizzes leave their cell empty.
func (s *CSVSnapshots) WriteQuizScores(courseID int, matrix models.QuizScoreMatrix) (string, error) {
	students := matrix.Students()
	sort.Strings(students)

	header := append([]string{"Student"}, matrix.Quizzes...)
	records := make([][]string, 0, len(students)+1)
	records = append(records, header)
	for _, student := range students {
		row := make([]string, 0, len(header))
		row = append(row, student)
		for _, quiz := range matrix.Quizzes {
			if score, ok := matrix.Rows[student][quiz]; ok {
				row = append(row, strconv.FormatFloat(score, 'f', -1, 64))
			} else {
				row = append(row, "")
			}
		}
		records = append(records, row)
	}

	name := fmt.Sprintf("quiz_scores_%d.csv", courseID)
	path, err := s.write(courseID, name, records)
	if err != nil {
		return "", err
	}
	return path, s.updateMeta(courseID, "quiz_scores", len(students))
}

// Meta reads the dataset bookkeeping of one course directory. A missing
// file means no snapshots were written yet.
func (s *CSVSnapshots) Meta(courseID int) (map[string]DatasetMeta, error) {
	raw, err := os.ReadFile(s.metaPath(courseID))
	if os.IsNotExist(err) {
		return map[string]DatasetMeta{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot meta: %w", err)
	}

	meta := map[string]DatasetMeta{}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decode snapshot meta: %w", err)
	}
	return meta, nil
}

// CourseDir exposes the snapshot directory of one course.
func (s *CSVSnapshots) CourseDir(courseID int) string {
	return filepath.Join(s.root, fmt.Sprintf("course_%d", courseID))
}

func (s *CSVSnapshots) write(courseID int, name string, records [][]string) (string, error) {
	dir := s.CourseDir(courseID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create snapshot %s: %w", name, err)
	}

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(records); err != nil {
		file.Close()
		return "", fmt.Errorf("write snapshot %s: %w", name, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("flush snapshot %s: %w", name, err)
	}
	return path, nil
}

func (s *CSVSnapshots) updateMeta(courseID int, dataset string, rows int) error {
	meta, err := s.Meta(courseID)
	if err != nil {
		s.logger.Warn().Err(err).Int("course_id", courseID).Msg("snapshot meta unreadable, rebuilding")
		meta = map[string]DatasetMeta{}
	}
	meta[dataset] = DatasetMeta{Updated: time.Now().UTC(), Rows: rows}

	content, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot meta: %w", err)
	}
	if err := os.WriteFile(s.metaPath(courseID), content, 0o644); err != nil {
		return fmt.Errorf("write snapshot meta: %w", err)
	}
	return nil
}

func (s *CSVSnapshots) metaPath(courseID int) string {
	return filepath.Join(s.CourseDir(courseID), ".meta.json")
}

func joinNonEmpty(parts []string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += "; "
		}
		out += p
	}
	return out
}
