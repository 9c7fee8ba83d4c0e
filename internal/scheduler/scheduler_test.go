package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"tradesbook/platform/apperr"
	"tradesbook/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type fakeJobs struct {
	reminded   []uuid.UUID
	reassessed []uuid.UUID
	expired    int
	err        error
}

func (f *fakeJobs) SendReminder(_ context.Context, id uuid.UUID) error {
	f.reminded = append(f.reminded, id)
	return f.err
}

func (f *fakeJobs) ReassessBooking(_ context.Context, id uuid.UUID) error {
	f.reassessed = append(f.reassessed, id)
	return f.err
}

func (f *fakeJobs) ExpireStale(context.Context) (int, error) {
	return f.expired, f.err
}

type testSchedulerConfig struct {
	url string
}

func (c testSchedulerConfig) GetRedisURL() string     { return c.url }
func (testSchedulerConfig) GetRedisTLSInsecure() bool { return false }
func (testSchedulerConfig) GetAsynqQueueName() string { return "" }
func (testSchedulerConfig) GetAsynqConcurrency() int  { return 0 }

func newTestWorker(jobs BookingJobs) *Worker {
	w := &Worker{jobs: jobs, log: logger.Discard()}
	w.mux = w.newMux()
	return w
}

func TestReminderTaskRoundTrip(t *testing.T) {
	id := uuid.New()
	task, err := NewBookingReminderTask(BookingReminderPayload{BookingID: id.String()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Type() != TaskBookingReminder {
		t.Fatalf("unexpected task type %s", task.Type())
	}

	jobs := &fakeJobs{}
	if err := newTestWorker(jobs).mux.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs.reminded) != 1 || jobs.reminded[0] != id {
		t.Fatalf("expected reminder for %s, got %v", id, jobs.reminded)
	}
}

func TestHandlersSkipRetryOnBadPayload(t *testing.T) {
	w := newTestWorker(&fakeJobs{})
	for _, taskType := range []string{TaskBookingReminder, TaskFraudReassess} {
		err := w.mux.ProcessTask(context.Background(), asynq.NewTask(taskType, []byte(`{"bookingId":"nope"}`)))
		if !errors.Is(err, asynq.SkipRetry) {
			t.Fatalf("%s: expected SkipRetry, got %v", taskType, err)
		}
	}
}

func TestMissingBookingsAreDropped(t *testing.T) {
	jobs := &fakeJobs{err: apperr.NotFound("booking not found")}
	w := newTestWorker(jobs)

	reminder, _ := NewBookingReminderTask(BookingReminderPayload{BookingID: uuid.NewString()})
	reassess, _ := NewFraudReassessTask(FraudReassessPayload{BookingID: uuid.NewString()})
	for _, task := range []*asynq.Task{reminder, reassess} {
		if err := w.mux.ProcessTask(context.Background(), task); err != nil {
			t.Fatalf("%s: expected nil, got %v", task.Type(), err)
		}
	}
}

func TestReassessDropsSettledBookings(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "conflict is dropped", err: apperr.Conflict("booking can no longer be reassessed")},
		{name: "transient failure retries", err: errors.New("db down"), wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			jobs := &fakeJobs{err: tc.err}
			task, err := NewFraudReassessTask(FraudReassessPayload{BookingID: uuid.NewString()})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			err = newTestWorker(jobs).mux.ProcessTask(context.Background(), task)
			if (err != nil) != tc.wantErr {
				t.Fatalf("expected error=%v, got %v", tc.wantErr, err)
			}
			if len(jobs.reassessed) != 1 {
				t.Fatalf("expected one reassessment attempt, got %d", len(jobs.reassessed))
			}
		})
	}
}

func TestExpireLeadsPropagatesFailure(t *testing.T) {
	jobs := &fakeJobs{expired: 3}
	w := newTestWorker(jobs)
	if err := w.mux.ProcessTask(context.Background(), NewExpireLeadsTask()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	jobs.err = errors.New("db down")
	if err := w.mux.ProcessTask(context.Background(), NewExpireLeadsTask()); err == nil {
		t.Fatal("expected sweep error to be returned for retry")
	}
}

func TestNilClientIsNoop(t *testing.T) {
	var c *Client
	if err := c.ScheduleBookingReminder(context.Background(), uuid.New(), time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.EnqueueFraudReassessment(context.Background(), uuid.New()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testSchedulerConfig{}); err == nil {
		t.Fatal("expected error without redis url")
	}
}

func TestRedisClientOpt(t *testing.T) {
	opt, err := redisClientOpt("rediss://:pw@cache.internal:6380/2", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opt.Addr != "cache.internal:6380" || opt.Password != "pw" || opt.DB != 2 {
		t.Fatalf("unexpected options %+v", opt)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatal("expected insecure TLS config")
	}
}
