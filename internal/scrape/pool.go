package scrape

import (
	"context"
	"net/http"
	"sync"

	"github.com/noah-isme/paatshala-go-api/internal/session"
)

// runOrdered fans n jobs out over the configured worker count and returns
// per-job errors indexed by job position. Each worker carries its own HTTP
// client so cookie jars and keep-alive pools are never shared across
// goroutines. Results land at the caller's index, so output order matches
// input order no matter which worker finishes first.
func (s *Scraper) runOrdered(ctx context.Context, n int, fn func(ctx context.Context, client *http.Client, i int) error) []error {
	errs := make([]error, n)
	if n == 0 {
		return errs
	}

	workers := s.workers
	if workers > n {
		workers = n
	}

	cookie, err := s.session.Get(ctx)
	if err != nil {
		for i := range errs {
			errs[i] = err
		}
		return errs
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := session.NewClient(s.baseURL(), cookie)
			for i := range jobs {
				errs[i] = fn(ctx, client, i)
			}
		}()
	}

feed:
	for i := 0; i < n; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			for j := i; j < n; j++ {
				errs[j] = ctx.Err()
			}
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	return errs
}
