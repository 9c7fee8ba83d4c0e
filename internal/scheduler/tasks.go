package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskBookingReminder = "bookings.reminder"

const TaskFraudReassess = "fraud.reassess"

const TaskExpireLeads = "leads.expire"

// ExpireLeadsSpec is the cron spec for the stale lead sweep.
const ExpireLeadsSpec = "@every 1h"

type BookingReminderPayload struct {
	BookingID string `json:"bookingId"`
}

type FraudReassessPayload struct {
	BookingID string `json:"bookingId"`
}

func NewBookingReminderTask(payload BookingReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBookingReminder, data), nil
}

func ParseBookingReminderPayload(task *asynq.Task) (BookingReminderPayload, error) {
	var payload BookingReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return BookingReminderPayload{}, err
	}
	return payload, nil
}

func NewFraudReassessTask(payload FraudReassessPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFraudReassess, data), nil
}

func ParseFraudReassessPayload(task *asynq.Task) (FraudReassessPayload, error) {
	var payload FraudReassessPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return FraudReassessPayload{}, err
	}
	return payload, nil
}

func NewExpireLeadsTask() *asynq.Task {
	return asynq.NewTask(TaskExpireLeads, nil)
}
