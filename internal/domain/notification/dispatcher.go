package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"qurux/internal/domain/booking"
	"qurux/internal/metrics"
)

var _ booking.Notifier = (*Dispatcher)(nil)

// Task is one status email to deliver.
type Task struct {
	BookingID string
	Status    booking.Status
	QueuedAt  time.Time
}

type Config struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// Dispatcher delivers booking status emails off the request path. Each task
// is attempted at most once; failures are logged and counted, never returned.
type Dispatcher struct {
	resolver *Resolver
	renderer *Renderer
	mailer   Mailer
	log      zerolog.Logger

	workers int
	timeout time.Duration
	queue   chan Task

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

func NewDispatcher(cfg Config, resolver *Resolver, renderer *Renderer, mailer Mailer, log zerolog.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Dispatcher{
		resolver: resolver,
		renderer: renderer,
		mailer:   mailer,
		log:      log.With().Str("component", "notification_dispatcher").Logger(),
		workers:  cfg.Workers,
		timeout:  cfg.Timeout,
		queue:    make(chan Task, cfg.QueueSize),
	}
}

// Start launches the workers. Task deadlines derive from ctx.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
	d.log.Info().Int("workers", d.workers).Int("queue_size", cap(d.queue)).Msg("dispatcher started")
}

// Stop refuses new tasks, lets the workers drain the queue and waits for them.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.log.Info().Msg("dispatcher stopped")
}

// Dispatch enqueues a status email without blocking. Statuses other than
// Confirmed and Declined are ignored; a full queue drops the task.
func (d *Dispatcher) Dispatch(bookingID string, status booking.Status) {
	if !status.Notifies() {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.IncNotification("dropped")
		d.log.Warn().Str("booking_id", bookingID).Str("status", string(status)).Msg("dispatcher stopped, notification dropped")
		return
	}

	select {
	case d.queue <- Task{BookingID: bookingID, Status: status, QueuedAt: time.Now()}:
	default:
		metrics.IncNotification("dropped")
		d.log.Warn().Str("booking_id", bookingID).Str("status", string(status)).Msg("notification queue full, dropped")
	}
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	log := d.log.With().Int("worker", id).Logger()
	for task := range d.queue {
		d.handle(ctx, log, task)
	}
}

func (d *Dispatcher) handle(ctx context.Context, log zerolog.Logger, task Task) {
	defer func() {
		if r := recover(); r != nil {
			metrics.IncNotification("failed")
			log.Error().Str("booking_id", task.BookingID).Str("panic", fmt.Sprint(r)).Msg("notification panicked")
		}
	}()

	taskCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	err := d.Deliver(taskCtx, task)
	switch {
	case err == nil:
		metrics.IncNotification("sent")
		log.Info().
			Str("booking_id", task.BookingID).
			Str("status", string(task.Status)).
			Dur("queued_for", time.Since(task.QueuedAt)).
			Msg("notification sent")
	case errors.Is(err, ErrNoRecipient):
		metrics.IncNotification("skipped")
		log.Warn().Str("booking_id", task.BookingID).Msg("no recipient email, notification skipped")
	default:
		metrics.IncNotification("failed")
		log.Error().Err(err).Str("booking_id", task.BookingID).Str("status", string(task.Status)).Msg("notification failed")
	}
}

// Deliver resolves, renders and sends one task synchronously.
func (d *Dispatcher) Deliver(ctx context.Context, task Task) error {
	to, details, err := d.resolver.Resolve(ctx, task.BookingID)
	if err != nil {
		return err
	}
	msg, err := d.renderer.Render(task.Status, to, *details)
	if err != nil {
		return err
	}
	if err := d.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send to %s: %w", to, err)
	}
	return nil
}
