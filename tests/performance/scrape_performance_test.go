package performance_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/paatshala-go-api/internal/models"
	"github.com/noah-isme/paatshala-go-api/internal/scrape"
	"github.com/noah-isme/paatshala-go-api/internal/session"
)

type cookieOnlyStore struct{}

func (cookieOnlyStore) Load() (models.Credentials, error) { return models.Credentials{}, nil }
func (cookieOnlyStore) SaveCookie(string) error           { return nil }

// TestTaskFanOutBeatsSequentialFetching drives the detail-page pool against
// a slow LMS: twelve pages at 50ms each answer well under the 600ms a
// sequential walk would need.
func TestTaskFanOutBeatsSequentialFetching(t *testing.T) {
	const (
		taskCount = 12
		pageDelay = 50 * time.Millisecond
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/course/view.php", func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < taskCount; i++ {
			fmt.Fprintf(w, `<li class="activity assign modtype_assign" id="module-%d">
  <div class="activityinstance">
    <a class="aalink" href="/mod/assign/view.php?id=%d">
      <span class="instancename">Task %02d<span class="accesshide"> Assignment</span></span>
    </a>
  </div>
</li>`, 300+i, 300+i, i+1)
		}
	})
	mux.HandleFunc("/mod/assign/view.php", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(pageDelay)
		fmt.Fprint(w, `<table class="generaltable">
  <tr><th>Participants</th><td>24</td></tr>
  <tr><th>Due date</th><td>Monday, 2 March 2026, 11:59 PM</td></tr>
</table>`)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	auth := session.NewAuthenticator(srv.URL, zerolog.Nop())
	manager := session.NewManager(auth, cookieOnlyStore{}, zerolog.Nop())
	manager.Adopt("perf-cookie")
	scraper := scrape.New(manager, 4, zerolog.Nop())

	start := time.Now()
	rows, err := scraper.FetchTasks(context.Background(), 7)
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.Len(t, rows, taskCount)
	for i, row := range rows {
		require.Equal(t, 300+i, row.ModuleID, "rows must keep course-page order")
	}

	sequential := time.Duration(taskCount) * pageDelay
	if elapsed >= sequential {
		t.Fatalf("pooled fetch took %s, no faster than the %s sequential bound", elapsed, sequential)
	}
}
