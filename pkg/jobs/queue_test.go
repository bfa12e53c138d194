package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDispatchesByType(t *testing.T) {
	q := NewQueue("test", QueueConfig{Workers: 2})
	done := make(chan Job, 1)
	q.Register("greet", func(_ context.Context, job Job) error {
		done <- job
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	id, err := q.Enqueue(Job{Type: "greet", Payload: "hi"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	select {
	case job := <-done:
		assert.Equal(t, id, job.ID)
		assert.Equal(t, "hi", job.Payload)
	case <-time.After(time.Second):
		t.Fatal("job not processed")
	}
}

func TestQueueRetriesThenDeadLetters(t *testing.T) {
	var calls int32
	dead := make(chan Job, 1)
	q := NewQueue("test", QueueConfig{
		MaxRetries:   2,
		RetryDelay:   5 * time.Millisecond,
		OnDeadLetter: func(job Job, _ error) { dead <- job },
	})
	q.Register("flaky", func(context.Context, Job) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("boom")
	})
	q.Start(context.Background())
	defer q.Stop()

	_, err := q.Enqueue(Job{Type: "flaky"})
	require.NoError(t, err)

	select {
	case job := <-dead:
		assert.Equal(t, 3, job.Attempt)
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	case <-time.After(2 * time.Second):
		t.Fatal("job never dead-lettered")
	}
}

func TestQueueRecoversPanics(t *testing.T) {
	dead := make(chan error, 1)
	q := NewQueue("test", QueueConfig{MaxRetries: 0, OnDeadLetter: func(_ Job, err error) { dead <- err }})
	q.Register("panic", func(context.Context, Job) error { panic("bad payload") })
	q.Start(context.Background())
	defer q.Stop()

	_, err := q.Enqueue(Job{Type: "panic"})
	require.NoError(t, err)

	select {
	case err := <-dead:
		assert.Contains(t, err.Error(), "bad payload")
	case <-time.After(time.Second):
		t.Fatal("panic not recovered")
	}
}

func TestQueueUnknownTypeIsNotRetried(t *testing.T) {
	dead := make(chan error, 1)
	q := NewQueue("test", QueueConfig{MaxRetries: 5, OnDeadLetter: func(_ Job, err error) { dead <- err }})
	q.Start(context.Background())
	defer q.Stop()

	_, err := q.Enqueue(Job{Type: "missing"})
	require.NoError(t, err)

	select {
	case err := <-dead:
		assert.ErrorIs(t, err, ErrNoHandler)
	case <-time.After(time.Second):
		t.Fatal("unknown job type not dead-lettered")
	}
}

func TestEnqueueBeforeStartFails(t *testing.T) {
	q := NewQueue("test", QueueConfig{})
	_, err := q.Enqueue(Job{Type: "x"})
	assert.Error(t, err)
}
