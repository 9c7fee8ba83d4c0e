package scheduler

import (
	"context"
	"fmt"
	"time"

	"tradesbook/platform/apperr"
	"tradesbook/platform/config"
	"tradesbook/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// BookingJobs is the booking work the worker runs.
type BookingJobs interface {
	SendReminder(ctx context.Context, bookingID uuid.UUID) error
	ReassessBooking(ctx context.Context, bookingID uuid.UUID) error
	ExpireStale(ctx context.Context) (int, error)
}

type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	jobs      BookingJobs
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, jobs BookingJobs, log *logger.Logger) (*Worker, error) {
	opt, queue, err := connOpts(cfg)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: time.UTC})
	if _, err := scheduler.Register(ExpireLeadsSpec, NewExpireLeadsTask(), asynq.Queue(queue)); err != nil {
		return nil, fmt.Errorf("register %s: %w", TaskExpireLeads, err)
	}

	w := &Worker{
		server:    server,
		scheduler: scheduler,
		jobs:      jobs,
		log:       log,
	}
	w.mux = w.newMux()
	return w, nil
}

func (w *Worker) newMux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskBookingReminder, w.handleBookingReminder)
	mux.HandleFunc(TaskFraudReassess, w.handleFraudReassess)
	mux.HandleFunc(TaskExpireLeads, w.handleExpireLeads)
	return mux
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			w.log.Error("periodic scheduler failed to start", "error", err)
		}
	}

	go func() {
		<-ctx.Done()
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleBookingReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseBookingReminderPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	bookingID, err := uuid.Parse(payload.BookingID)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	err = w.jobs.SendReminder(ctx, bookingID)
	if apperr.Is(err, apperr.KindNotFound) {
		w.log.Info("reminder for deleted booking dropped", "bookingId", bookingID)
		return nil
	}
	return err
}

func (w *Worker) handleFraudReassess(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFraudReassessPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	bookingID, err := uuid.Parse(payload.BookingID)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	err = w.jobs.ReassessBooking(ctx, bookingID)
	switch {
	case apperr.Is(err, apperr.KindNotFound):
		return nil
	case apperr.Is(err, apperr.KindConflict):
		// The booking left the reassessable states before the task ran.
		w.log.Info("reassessment for settled booking dropped", "bookingId", bookingID)
		return nil
	}
	return err
}

func (w *Worker) handleExpireLeads(ctx context.Context, _ *asynq.Task) error {
	expired, err := w.jobs.ExpireStale(ctx)
	if err != nil {
		w.log.Warn("stale lead sweep failed", "error", err)
		return err
	}
	if expired > 0 {
		w.log.Info("stale lead sweep expired bookings", "expired", expired)
	}
	return nil
}
