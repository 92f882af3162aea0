package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCourseLinks(t *testing.T) {
	page := `<html><body>
<nav>
  <a href="/course/view.php?id=345">Cyber Security Batch 7</a>
  <a href="/course/view.php?id=345">Cyber Security Batch 7</a>
  <a href="/course/view.php?id=346" title="Data Analytics Batch 3"><i class="icon"></i></a>
  <a href="/course/view.php?id=abc">Broken</a>
  <a href="/mod/assign/view.php?id=9">Not a course</a>
</nav>
</body></html>`

	courses, err := ParseCourseLinks(page, "https://lms.example.edu")
	require.NoError(t, err)
	require.Len(t, courses, 2)
	require.Equal(t, 345, courses[0].ID)
	require.Equal(t, "Cyber Security Batch 7", courses[0].FullName)
	require.Equal(t, 346, courses[1].ID)
	require.Equal(t, "Data Analytics Batch 3", courses[1].FullName)
}

func TestParseCourseTasks(t *testing.T) {
	page := `<html><body>
<li class="activity assign modtype_assign">
  <a href="/mod/assign/view.php?id=501"><span class="instancename">Task 1<span class="accesshide"> Assignment</span></span></a>
</li>
<li class="activity assign modtype_assign">
  <a href="/mod/assign/view.php?id=502"><span class="instancename">Task 2<span class="accesshide"> Assignment</span></span></a>
</li>
<a href="/mod/assign/view.php?id=501">Task 1 again</a>
</body></html>`

	tasks, err := ParseCourseTasks(page, "https://lms.example.edu")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	require.Equal(t, "Task 1", tasks[0].Name)
	require.Equal(t, 501, tasks[0].ModuleID)
	require.Equal(t, "https://lms.example.edu/mod/assign/view.php?id=501", tasks[0].URL)
	require.Equal(t, "Task 2", tasks[1].Name)
}

func TestParseQuizList(t *testing.T) {
	page := `<html><body>
<li class="activity quiz modtype_quiz">
  <a href="/mod/quiz/view.php?id=601"><span class="instancename">Practice Quiz 1<span class="accesshide"> Quiz</span></span></a>
</li>
<li class="activity quiz modtype_quiz">
  <a href="/mod/quiz/view.php?id=602"><span class="instancename">Final Exam<span class="accesshide"> Quiz</span></span></a>
</li>
</body></html>`

	quizzes, err := ParseQuizList(page, "https://lms.example.edu")
	require.NoError(t, err)
	require.Len(t, quizzes, 2)
	require.Equal(t, "Practice Quiz 1", quizzes[0].Name)
	require.Equal(t, 601, quizzes[0].ModuleID)
	require.Equal(t, "Final Exam", quizzes[1].Name)
}

func TestParseSesskey(t *testing.T) {
	fromConfig := `<script>M.cfg = {"wwwroot":"https:\/\/lms.example.edu","sesskey":"AbCd1234Ef"};</script>`
	require.Equal(t, "AbCd1234Ef", ParseSesskey(fromConfig))

	fromLogout := `<a href="/login/logout.php?sesskey=Zz99Xx88">Log out</a>`
	require.Equal(t, "Zz99Xx88", ParseSesskey(fromLogout))

	require.Empty(t, ParseSesskey("<html><body>expired</body></html>"))
}

func TestParseEnrolledCourses(t *testing.T) {
	body := []byte(`[{"error":false,"data":{"courses":[
		{"id":345,"fullname":"Cyber Security Batch 7","coursecategory":"Security","isfavourite":true},
		{"id":346,"fullname":"Data Analytics Batch 3","coursecategory":"Data","isfavourite":false}
	]}}]`)

	courses, err := ParseEnrolledCourses(body)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	require.Equal(t, "Cyber Security Batch 7", courses[0].FullName)
	require.Equal(t, "Security", courses[0].Category)
	require.True(t, courses[0].Starred)
}

func TestParseRecentCourses(t *testing.T) {
	body := []byte(`[{"error":false,"data":[
		{"id":347,"fullname":"Cloud Computing Batch 2","coursecategory":"Cloud","isfavourite":false}
	]}]`)

	courses, err := ParseRecentCourses(body)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	require.Equal(t, 347, courses[0].ID)
}

func TestParseEnrolledCoursesServiceError(t *testing.T) {
	_, err := ParseEnrolledCourses([]byte(`[{"error":true,"exception":{"message":"invalid sesskey"}}]`))
	require.Error(t, err)

	_, err = ParseEnrolledCourses([]byte(`[]`))
	require.Error(t, err)

	_, err = ParseEnrolledCourses([]byte(`not json`))
	require.Error(t, err)
}
