package queue

import (
	"testing"
	"time"

	"github.com/benvon/smart-tasks/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
)

func TestRabbitMQQueue_PublishRoute(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		delayed        bool
		waitQueue      string
		notBefore      *time.Time
		wantExchange   string
		wantKey        string
		wantExpiration string
		wantDelay      bool
	}{
		{
			name:           "due now goes straight to jobs",
			delayed:        true,
			waitQueue:      DefaultWaitQueueName,
			wantExchange:   DefaultExchangeName,
			wantKey:        routingKeyJobs,
			wantExpiration: "86400000",
		},
		{
			name:           "past NotBefore goes straight to jobs",
			waitQueue:      DefaultWaitQueueName,
			notBefore:      timePtr(now.Add(-time.Minute)),
			wantExchange:   DefaultExchangeName,
			wantKey:        routingKeyJobs,
			wantExpiration: "86400000",
		},
		{
			name:           "plugin present uses delayed exchange",
			delayed:        true,
			waitQueue:      DefaultWaitQueueName,
			notBefore:      timePtr(now.Add(90 * time.Second)),
			wantExchange:   DefaultDelayedExchangeName,
			wantKey:        routingKeyJobs,
			wantExpiration: "86400000",
			wantDelay:      true,
		},
		{
			name:           "plugin missing parks job in wait queue",
			waitQueue:      DefaultWaitQueueName,
			notBefore:      timePtr(now.Add(90 * time.Second)),
			wantExchange:   "",
			wantKey:        DefaultWaitQueueName,
			wantExpiration: "90000",
		},
		{
			name:           "no delay mechanism publishes immediately",
			notBefore:      timePtr(now.Add(90 * time.Second)),
			wantExchange:   DefaultExchangeName,
			wantKey:        routingKeyJobs,
			wantExpiration: "86400000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			q := &RabbitMQQueue{
				exchangeName:        DefaultExchangeName,
				delayedExchangeName: DefaultDelayedExchangeName,
				delayedAvailable:    tt.delayed,
				waitQueueName:       tt.waitQueue,
			}
			job := NewReminderJob(models.Task{ID: "t1", Title: "Pay rent"})
			notAfter := now.Add(24 * time.Hour)
			job.NotAfter = &notAfter
			job.NotBefore = tt.notBefore

			var publishing amqp.Publishing
			exchange, key := q.publishRoute(job, &publishing, now)

			if exchange != tt.wantExchange || key != tt.wantKey {
				t.Errorf("route = (%q, %q), want (%q, %q)", exchange, key, tt.wantExchange, tt.wantKey)
			}
			if publishing.Expiration != tt.wantExpiration {
				t.Errorf("Expiration = %q, want %q", publishing.Expiration, tt.wantExpiration)
			}
			_, hasDelay := publishing.Headers["x-delay"]
			if hasDelay != tt.wantDelay {
				t.Errorf("x-delay header present = %v, want %v", hasDelay, tt.wantDelay)
			}
		})
	}
}

func TestRabbitMQQueue_DelaysDelivery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		q    *RabbitMQQueue
		want bool
	}{
		{name: "delayed exchange", q: &RabbitMQQueue{delayedAvailable: true}, want: true},
		{name: "wait queue", q: &RabbitMQQueue{waitQueueName: DefaultWaitQueueName}, want: true},
		{name: "neither", q: &RabbitMQQueue{}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.q.DelaysDelivery(); got != tt.want {
				t.Errorf("DelaysDelivery() = %v, want %v", got, tt.want)
			}
		})
	}
}
