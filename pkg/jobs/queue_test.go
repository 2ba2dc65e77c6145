package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var mu sync.Mutex
	var processed []string
	done := make(chan struct{})

	handler := func(ctx context.Context, job Job) error {
		mu.Lock()
		processed = append(processed, job.ID)
		if len(processed) == 2 {
			close(done)
		}
		mu.Unlock()
		return nil
	}

	q := NewQueue("test", handler, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j1", Type: "work"}))
	require.NoError(t, q.Enqueue(Job{ID: "j2", Type: "work"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("jobs were not processed in time")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"j1", "j2"}, processed)
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	done := make(chan struct{})

	handler := func(ctx context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 3 {
			return errors.New("transient failure")
		}
		close(done)
		return nil
	}

	q := NewQueue("retry", handler, QueueConfig{Workers: 1, MaxRetries: 5, RetryDelay: 10 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j1", Type: "flaky"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried to success")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, attempts)
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("idle", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	err := q.Enqueue(Job{ID: "j1"})
	require.Error(t, err)
}
