package cleanup

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

type countingStore struct {
	calls atomic.Int32
	err   error
}

func (s *countingStore) DeleteExpired(context.Context) (int, error) {
	s.calls.Add(1)
	return 2, s.err
}

func TestSweep(t *testing.T) {
	store := &countingStore{}
	c := NewCleaner(store, 0)
	assert.Equal(t, 5*time.Minute, c.interval)
	assert.Equal(t, 2, c.sweep(context.Background()))

	store.err = errors.New("down")
	assert.Equal(t, 0, c.sweep(context.Background()))
}

func TestWorkerTicksAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := &countingStore{}
	ctx, cancel := context.WithCancel(context.Background())
	c := NewCleaner(store, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		c.run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
