// Copyright (c) 2026 Velora Commerce. All rights reserved.
// Author: eng@velora.shop

package mail

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// defaultQueueSize bounds the number of messages waiting for delivery.
	defaultQueueSize = 256
	// defaultWorkers is the number of concurrent delivery goroutines.
	defaultWorkers = 4
	// sendTimeout bounds a single delivery attempt.
	sendTimeout = 30 * time.Second
	// drainTimeout bounds how long Close waits for in-flight deliveries.
	drainTimeout = 10 * time.Second
)

// Dispatcher delivers messages asynchronously through a bounded queue and a
// fixed worker pool. Enqueue never blocks the caller: when the queue is full
// the message is dropped and logged. Transactional email here is
// best-effort; the authoritative state lives in the database.
type Dispatcher struct {
	sender Sender
	logger *slog.Logger
	queue  chan Message
	wg     sync.WaitGroup

	closeOnce sync.Once
}

// NewDispatcher starts a dispatcher with the default queue size and worker
// count. Callers must Close it during shutdown to drain in-flight mail.
func NewDispatcher(sender Sender, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		sender: sender,
		logger: logger,
		queue:  make(chan Message, defaultQueueSize),
	}

	d.wg.Add(defaultWorkers)
	for i := 0; i < defaultWorkers; i++ {
		go d.worker()
	}

	return d
}

// Enqueue schedules msg for delivery. It never blocks: if the queue is full
// the message is dropped with a warning.
func (d *Dispatcher) Enqueue(msg Message) {
	select {
	case d.queue <- msg:
	default:
		d.logger.Warn("email_queue_full",
			slog.String("to", msg.To),
			slog.String("subject", msg.Subject),
		)
	}
}

// Close stops accepting new messages and waits for queued deliveries to
// finish, up to a drain timeout.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)

		done := make(chan struct{})
		go func() {
			d.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(drainTimeout):
			d.logger.Warn("email_drain_timeout")
		}
	})
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for msg := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		if err := d.sender.Send(ctx, msg); err != nil {
			d.logger.Error("email_send_failed",
				slog.String("to", msg.To),
				slog.String("subject", msg.Subject),
				slog.String("error", err.Error()),
			)
		} else {
			d.logger.Info("email_sent",
				slog.String("to", msg.To),
				slog.String("subject", msg.Subject),
			)
		}
		cancel()
	}
}
