package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benvon/smart-tasks/internal/models"
	"github.com/benvon/smart-tasks/internal/queue"
	"github.com/benvon/smart-tasks/internal/services/reminder"
	"go.uber.org/zap"
)

// mockMessage records how the dispatcher settled it
type mockMessage struct {
	job      *queue.Job
	acked    bool
	nacked   bool
	requeued bool
}

func (m *mockMessage) Ack() error {
	m.acked = true
	return nil
}

func (m *mockMessage) Nack(requeue bool) error {
	m.nacked = true
	m.requeued = requeue
	return nil
}

func (m *mockMessage) GetJob() *queue.Job { return m.job }

var _ queue.MessageInterface = (*mockMessage)(nil)

type mockRequeuer struct {
	mu   sync.Mutex
	jobs []*queue.Job
	err  error
}

func (m *mockRequeuer) Enqueue(_ context.Context, job *queue.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, job)
	return nil
}

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestDispatcher(n reminder.Notifier, r Requeuer) *ReminderDispatcher {
	d := NewReminderDispatcher(n, r, zap.NewNop())
	d.now = func() time.Time { return fixedNow }
	return d
}

func reminderJob() *queue.Job {
	due := fixedNow.Add(2 * time.Hour)
	job := queue.NewReminderJob(models.Task{ID: "t1", Title: "Pay rent", DueDate: &due, Priority: models.PriorityHigh})
	job.CreatedAt = fixedNow
	notAfter := fixedNow.Add(queue.DefaultReminderTTL)
	job.NotAfter = &notAfter
	return job
}

func TestReminderDispatcher_Delivers(t *testing.T) {
	t.Parallel()

	var got models.Task
	notifier := reminder.NotifierFunc(func(_ context.Context, task models.Task) error {
		got = task
		return nil
	})
	msg := &mockMessage{job: reminderJob()}

	if err := newTestDispatcher(notifier, &mockRequeuer{}).ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("ProcessJob() error = %v", err)
	}
	if !msg.acked || msg.nacked {
		t.Errorf("expected ack only, got acked=%v nacked=%v", msg.acked, msg.nacked)
	}
	if got.ID != "t1" || got.Title != "Pay rent" || got.Priority != models.PriorityHigh {
		t.Errorf("notifier received %+v", got)
	}
}

func TestReminderDispatcher_RetriesWithBackoff(t *testing.T) {
	t.Parallel()

	notifier := reminder.NotifierFunc(func(context.Context, models.Task) error {
		return errors.New("telegram down")
	})
	requeue := &mockRequeuer{}
	job := reminderJob()
	msg := &mockMessage{job: job}

	err := newTestDispatcher(notifier, requeue).ProcessJob(context.Background(), msg)
	if err == nil {
		t.Fatal("expected error from failed delivery")
	}
	if !msg.acked {
		t.Error("original message should be acked once the retry is queued")
	}
	if len(requeue.jobs) != 1 {
		t.Fatalf("expected 1 requeued job, got %d", len(requeue.jobs))
	}
	retry := requeue.jobs[0]
	if retry.RetryCount != 1 {
		t.Errorf("RetryCount = %d, want 1", retry.RetryCount)
	}
	if retry.NotBefore == nil || !retry.NotBefore.Equal(fixedNow.Add(30*time.Second)) {
		t.Errorf("NotBefore = %v, want %v", retry.NotBefore, fixedNow.Add(30*time.Second))
	}
	if job.RetryCount != 0 {
		t.Error("original job must not be mutated")
	}
}

func TestReminderDispatcher_DeadLetters(t *testing.T) {
	t.Parallel()

	failing := reminder.NotifierFunc(func(context.Context, models.Task) error {
		return errors.New("boom")
	})

	tests := []struct {
		name    string
		mutate  func(*queue.Job)
		requeue *mockRequeuer
	}{
		{
			name:    "retries exhausted",
			mutate:  func(j *queue.Job) { j.RetryCount = j.MaxRetries },
			requeue: &mockRequeuer{},
		},
		{
			name:    "requeue fails",
			mutate:  func(*queue.Job) {},
			requeue: &mockRequeuer{err: errors.New("broker gone")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			job := reminderJob()
			tt.mutate(job)
			msg := &mockMessage{job: job}

			if err := newTestDispatcher(failing, tt.requeue).ProcessJob(context.Background(), msg); err == nil {
				t.Fatal("expected error")
			}
			if !msg.nacked || msg.requeued {
				t.Errorf("expected nack without requeue, got nacked=%v requeued=%v", msg.nacked, msg.requeued)
			}
			if msg.acked {
				t.Error("message should not be acked")
			}
		})
	}
}

func TestReminderDispatcher_NilRequeuerDeadLetters(t *testing.T) {
	t.Parallel()

	failing := reminder.NotifierFunc(func(context.Context, models.Task) error {
		return errors.New("boom")
	})
	msg := &mockMessage{job: reminderJob()}

	if err := newTestDispatcher(failing, nil).ProcessJob(context.Background(), msg); err == nil {
		t.Fatal("expected error")
	}
	if !msg.nacked || msg.requeued {
		t.Errorf("expected dead-letter, got nacked=%v requeued=%v", msg.nacked, msg.requeued)
	}
}

func TestReminderDispatcher_ExpiredIsDropped(t *testing.T) {
	t.Parallel()

	called := false
	notifier := reminder.NotifierFunc(func(context.Context, models.Task) error {
		called = true
		return nil
	})
	job := reminderJob()
	past := fixedNow.Add(-time.Minute)
	job.NotAfter = &past
	msg := &mockMessage{job: job}

	if err := newTestDispatcher(notifier, &mockRequeuer{}).ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("ProcessJob() error = %v", err)
	}
	if called {
		t.Error("expired reminder must not be delivered")
	}
	if !msg.acked {
		t.Error("expired reminder should be acked")
	}
}

func TestReminderDispatcher_EarlyJobIsPostponed(t *testing.T) {
	t.Parallel()

	called := false
	notifier := reminder.NotifierFunc(func(context.Context, models.Task) error {
		called = true
		return nil
	})
	requeue := &mockRequeuer{}
	job := reminderJob()
	later := fixedNow.Add(time.Minute)
	job.NotBefore = &later
	msg := &mockMessage{job: job}

	if err := newTestDispatcher(notifier, requeue).ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("ProcessJob() error = %v", err)
	}
	if called {
		t.Error("early job must not be delivered")
	}
	if len(requeue.jobs) != 1 || requeue.jobs[0].RetryCount != 0 {
		t.Errorf("expected job requeued unchanged, got %+v", requeue.jobs)
	}
	if !msg.acked {
		t.Error("postponed message should be acked")
	}
}

func TestReminderDispatcher_RejectsBadMessages(t *testing.T) {
	t.Parallel()

	notifier := reminder.NotifierFunc(func(context.Context, models.Task) error { return nil })

	unknown := reminderJob()
	unknown.Type = "task_analysis"

	for _, msg := range []*mockMessage{{job: nil}, {job: unknown}} {
		if err := newTestDispatcher(notifier, &mockRequeuer{}).ProcessJob(context.Background(), msg); err == nil {
			t.Error("expected error")
		}
		if !msg.nacked || msg.requeued {
			t.Errorf("expected dead-letter, got nacked=%v requeued=%v", msg.nacked, msg.requeued)
		}
	}
}

// undelayedRequeuer accepts jobs but hands them straight back to consumers
type undelayedRequeuer struct {
	mockRequeuer
}

func (*undelayedRequeuer) DelaysDelivery() bool { return false }

type delayedRequeuer struct {
	mockRequeuer
}

func (*delayedRequeuer) DelaysDelivery() bool { return true }

func TestReminderDispatcher_PostponeHoldsWhenQueueCannotDelay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		until    time.Duration
		nilQueue bool
		wantHold time.Duration
	}{
		{name: "far future is capped", until: 2 * time.Minute, wantHold: DefaultPostponeHold},
		{name: "near future waits the remainder", until: 2 * time.Second, wantHold: 2 * time.Second},
		{name: "nil requeuer holds too", until: 2 * time.Minute, nilQueue: true, wantHold: DefaultPostponeHold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			notifier := reminder.NotifierFunc(func(context.Context, models.Task) error {
				called = true
				return nil
			})
			requeue := &undelayedRequeuer{}
			d := newTestDispatcher(notifier, requeue)
			if tt.nilQueue {
				d = newTestDispatcher(notifier, nil)
			}
			var holds []time.Duration
			d.sleep = func(_ context.Context, wait time.Duration) {
				holds = append(holds, wait)
			}

			job := reminderJob()
			later := fixedNow.Add(tt.until)
			job.NotBefore = &later
			msg := &mockMessage{job: job}

			if err := d.ProcessJob(context.Background(), msg); err != nil {
				t.Fatalf("ProcessJob() error = %v", err)
			}
			if called {
				t.Error("early job must not be delivered")
			}
			if len(requeue.jobs) != 0 {
				t.Errorf("job must not be republished to a queue that cannot delay, got %d", len(requeue.jobs))
			}
			if len(holds) != 1 || holds[0] != tt.wantHold {
				t.Errorf("holds = %v, want [%v]", holds, tt.wantHold)
			}
			if msg.acked || !msg.nacked || !msg.requeued {
				t.Errorf("expected nack with requeue, got acked=%v nacked=%v requeued=%v", msg.acked, msg.nacked, msg.requeued)
			}
		})
	}
}

func TestReminderDispatcher_PostponeRepublishesWhenQueueDelays(t *testing.T) {
	t.Parallel()

	notifier := reminder.NotifierFunc(func(context.Context, models.Task) error { return nil })
	requeue := &delayedRequeuer{}
	d := newTestDispatcher(notifier, requeue)
	d.sleep = func(context.Context, time.Duration) {
		t.Error("dispatcher should not hold when the queue delays delivery")
	}

	job := reminderJob()
	later := fixedNow.Add(time.Minute)
	job.NotBefore = &later
	msg := &mockMessage{job: job}

	if err := d.ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("ProcessJob() error = %v", err)
	}
	if len(requeue.jobs) != 1 || !msg.acked {
		t.Errorf("expected republish and ack, got jobs=%d acked=%v", len(requeue.jobs), msg.acked)
	}
}

func TestReminderDispatcher_PostponeHoldStopsOnCancel(t *testing.T) {
	t.Parallel()

	notifier := reminder.NotifierFunc(func(context.Context, models.Task) error { return nil })
	d := newTestDispatcher(notifier, &undelayedRequeuer{})
	d.maxHold = time.Hour

	job := reminderJob()
	later := fixedNow.Add(time.Hour)
	job.NotBefore = &later
	msg := &mockMessage{job: job}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() {
		done <- d.ProcessJob(ctx, msg)
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("ProcessJob() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("hold did not stop on cancelled context")
	}
	if !msg.requeued {
		t.Error("message should be handed back to the broker")
	}
}
