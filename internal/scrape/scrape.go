// Package scrape orchestrates authenticated LMS page fetches: course and
// task listings, topic trees, grading tables, and quiz reports. It owns the
// worker pool, the retry policy, and the per-worker HTTP clients; all markup
// interpretation is delegated to the parser package.
package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/paatshala-go-api/internal/observability"
	"github.com/noah-isme/paatshala-go-api/internal/session"
)

const (
	// DefaultWorkers bounds the detail-page fan-out.
	DefaultWorkers = 4

	fetchAttempts = 3
)

var initialBackoff = time.Second

// ErrNetwork tags fetch failures: exhausted transport retries and non-200
// answers alike. Callers treat both as "the LMS did not give us the page".
var ErrNetwork = errors.New("lms page unavailable")

// Scraper fetches and assembles typed records from the LMS.
type Scraper struct {
	session *session.Manager
	workers int
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// New builds a Scraper on top of an authenticated session manager. workers
// caps the fan-out; zero or negative selects DefaultWorkers.
func New(sess *session.Manager, workers int, logger zerolog.Logger) *Scraper {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	observability.RegisterMetrics()
	return &Scraper{
		session: sess,
		workers: workers,
		tracer:  otel.Tracer("github.com/noah-isme/paatshala-go-api/internal/scrape"),
		logger:  logger.With().Str("component", "scrape").Logger(),
	}
}

// Workers reports the configured pool size.
func (s *Scraper) Workers() int {
	return s.workers
}

func (s *Scraper) baseURL() string {
	return s.session.BaseURL()
}

func (s *Scraper) coursePageURL(courseID int) string {
	return fmt.Sprintf("%s/course/view.php?id=%d", s.baseURL(), courseID)
}

// fetchPage GETs one page and returns its body. Transport failures are
// retried with doubling backoff; a non-200 answer is final immediately.
func (s *Scraper) fetchPage(ctx context.Context, client *http.Client, url, kind string, retry bool) (string, error) {
	attempts := 1
	if retry {
		attempts = fetchAttempts
	}
	backoff := initialBackoff

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		body, status, err := s.get(ctx, client, url)
		if err == nil && status == http.StatusOK {
			observability.ScrapePages().WithLabelValues(kind, "ok").Inc()
			return body, nil
		}
		if err == nil {
			observability.ScrapePages().WithLabelValues(kind, "bad_status").Inc()
			return "", fmt.Errorf("%w: %s answered %d", ErrNetwork, kind, status)
		}

		lastErr = err
		if attempt == attempts {
			break
		}
		observability.ScrapeRetries().WithLabelValues(kind).Inc()
		s.logger.Warn().Err(err).Str("kind", kind).Int("attempt", attempt).Msg("fetch failed, backing off")
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	observability.ScrapePages().WithLabelValues(kind, "error").Inc()
	return "", fmt.Errorf("fetch %s: %w: %w", kind, ErrNetwork, lastErr)
}

func (s *Scraper) get(ctx context.Context, client *http.Client, url string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, err
	}
	return string(body), resp.StatusCode, nil
}

// serviceCall posts one envelope to the AJAX service endpoint and returns
// the raw response array for the parser to unwrap.
func (s *Scraper) serviceCall(ctx context.Context, client *http.Client, sesskey, method string, args any) ([]byte, error) {
	payload := []map[string]any{{
		"index":      0,
		"methodname": method,
		"args":       args,
	}}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s call: %w", method, err)
	}

	url := fmt.Sprintf("%s/lib/ajax/service.php?sesskey=%s&info=%s", s.baseURL(), sesskey, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build %s call: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s call: %w", method, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s answered %d", ErrNetwork, method, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", method, err)
	}
	return body, nil
}
