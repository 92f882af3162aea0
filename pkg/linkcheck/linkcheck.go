// Package linkcheck verifies that submitted and embedded URLs still
// resolve. Checks prefer HEAD and fall back to GET for servers that
// reject it; verdicts are advisory strings, never errors.
package linkcheck

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Status taxonomy for checked URLs.
const (
	StatusOK           = "ok"
	StatusRedirect     = "redirect"
	StatusAuthRequired = "auth_required"
	StatusError        = "error"
	StatusUnknown      = "unknown"
)

// DefaultWorkers bounds batch checks.
const DefaultWorkers = 5

// Result is the verdict for one URL. CheckedAt is stamped by whoever
// persists the result.
type Result struct {
	Status    string    `json:"status"`
	Code      int       `json:"code"`
	Message   string    `json:"message"`
	CheckedAt time.Time `json:"checked_at,omitempty"`
}

// Checker probes URLs over a shared HTTP client.
type Checker struct {
	client  *http.Client
	workers int
	logger  zerolog.Logger
}

// New builds a checker. A nil client gets a short-timeout default; workers
// <= 0 selects DefaultWorkers.
func New(client *http.Client, workers int, logger zerolog.Logger) *Checker {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Checker{
		client:  client,
		workers: workers,
		logger:  logger.With().Str("component", "linkcheck").Logger(),
	}
}

// Check probes one URL.
func (c *Checker) Check(ctx context.Context, url string) Result {
	if url == "" {
		return Result{Status: StatusUnknown, Message: "No URL"}
	}

	resp, err := c.probe(ctx, http.MethodHead, url)
	if err != nil {
		// Some servers refuse HEAD outright; retry once with GET.
		resp, err = c.probe(ctx, http.MethodGet, url)
	}
	if err != nil {
		c.logger.Debug().Err(err).Str("url", url).Msg("url unreachable")
		return Result{Status: StatusError, Message: errorMessage(err)}
	}
	if resp.StatusCode == http.StatusMethodNotAllowed {
		if retried, err := c.probe(ctx, http.MethodGet, url); err == nil {
			resp = retried
		}
	}

	return classify(resp)
}

// CheckBatch probes URLs in parallel. Empty URLs are skipped; the result
// map is keyed by URL.
func (c *Checker) CheckBatch(ctx context.Context, urls []string) map[string]Result {
	pending := make([]string, 0, len(urls))
	for _, url := range urls {
		if url != "" {
			pending = append(pending, url)
		}
	}
	if len(pending) == 0 {
		return map[string]Result{}
	}

	workers := c.workers
	if workers > len(pending) {
		workers = len(pending)
	}

	var (
		mu      sync.Mutex
		results = make(map[string]Result, len(pending))
		wg      sync.WaitGroup
		jobs    = make(chan string)
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for url := range jobs {
				result := c.Check(ctx, url)
				mu.Lock()
				results[url] = result
				mu.Unlock()
			}
		}()
	}

feed:
	for _, url := range pending {
		select {
		case jobs <- url:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

func (c *Checker) probe(ctx context.Context, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()
	return resp, nil
}

func classify(resp *http.Response) Result {
	code := resp.StatusCode
	switch {
	case code == http.StatusOK:
		return Result{Status: StatusOK, Code: code, Message: "OK"}
	case code >= 300 && code < 400:
		location := resp.Header.Get("Location")
		if location == "" {
			location = "unknown"
		}
		return Result{Status: StatusRedirect, Code: code, Message: "Redirects to " + location}
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return Result{Status: StatusAuthRequired, Code: code, Message: "Authentication required"}
	case code == http.StatusNotFound:
		return Result{Status: StatusError, Code: code, Message: "Not found (404)"}
	case code >= 500:
		return Result{Status: StatusError, Code: code, Message: fmt.Sprintf("Server error (%d)", code)}
	default:
		return Result{Status: StatusError, Code: code, Message: fmt.Sprintf("HTTP %d", code)}
	}
}

func errorMessage(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Timeout"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return "Connection failed"
	}
	message := err.Error()
	if len(message) > 50 {
		return message[:50]
	}
	return message
}

// FormatTimeAgo renders the elapsed time since a check for listings. A zero
// time reads "Never".
func FormatTimeAgo(checkedAt time.Time) string {
	if checkedAt.IsZero() {
		return "Never"
	}

	seconds := int(time.Since(checkedAt).Seconds())
	switch {
	case seconds < 60:
		return "Just now"
	case seconds < 3600:
		return plural(seconds/60, "min")
	case seconds < 86400:
		return plural(seconds/3600, "hour")
	default:
		return plural(seconds/86400, "day")
	}
}

func plural(n int, unit string) string {
	if n > 1 {
		return fmt.Sprintf("%d %ss ago", n, unit)
	}
	return fmt.Sprintf("%d %s ago", n, unit)
}
