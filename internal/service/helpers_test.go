package service

import (
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/noah-isme/paatshala-go-api/internal/store"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func newTestStore(t *testing.T) *store.TieredStore {
	t.Helper()
	return store.NewTieredStore(nil, store.NewDiskCache(t.TempDir(), testLogger()), testLogger())
}

// refreshQueueStub records every enqueued course refresh.
type refreshQueueStub struct {
	mu      sync.Mutex
	courses []int
}

func (r *refreshQueueStub) Enqueue(courseID int) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.courses = append(r.courses, courseID)
	return fmt.Sprintf("job-%d", len(r.courses)), true
}

func (r *refreshQueueStub) enqueued() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.courses...)
}
