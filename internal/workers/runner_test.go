package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benvon/smart-tasks/internal/queue"
	"go.uber.org/zap"
)

type fakeConsumer struct {
	msgs     chan *queue.Message
	errs     chan error
	err      error
	prefetch int
}

func (f *fakeConsumer) Consume(_ context.Context, prefetch int) (<-chan *queue.Message, <-chan error, error) {
	f.prefetch = prefetch
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.msgs, f.errs, nil
}

func TestRunner_HandlesUntilChannelCloses(t *testing.T) {
	t.Parallel()

	consumer := &fakeConsumer{msgs: make(chan *queue.Message, 3), errs: make(chan error, 1)}
	for i := 0; i < 3; i++ {
		consumer.msgs <- &queue.Message{Job: reminderJob()}
	}
	consumer.errs <- errors.New("transient")
	close(consumer.msgs)

	var mu sync.Mutex
	handled := 0
	handler := func(context.Context, queue.MessageInterface) error {
		mu.Lock()
		defer mu.Unlock()
		handled++
		if handled == 2 {
			return errors.New("handler failure is logged, not fatal")
		}
		return nil
	}

	if err := NewRunner(consumer, handler, 0, zap.NewNop()).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if handled != 3 {
		t.Errorf("handled = %d, want 3", handled)
	}
	if consumer.prefetch != 1 {
		t.Errorf("prefetch = %d, want 1", consumer.prefetch)
	}
}

func TestRunner_StopsOnCancel(t *testing.T) {
	t.Parallel()

	consumer := &fakeConsumer{msgs: make(chan *queue.Message), errs: make(chan error)}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- NewRunner(consumer, func(context.Context, queue.MessageInterface) error { return nil }, 2, zap.NewNop()).Run(ctx)
	}()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestRunner_ConsumeError(t *testing.T) {
	t.Parallel()

	consumer := &fakeConsumer{err: errors.New("no channel")}
	if err := NewRunner(consumer, nil, 1, zap.NewNop()).Run(context.Background()); err == nil {
		t.Error("expected error when Consume fails")
	}
}
