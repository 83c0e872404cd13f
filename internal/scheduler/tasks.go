package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskApplicantNotification = "applications.notify_applicant"

// Viewing tasks are consumed by the viewing scheduling service.
const (
	TaskViewingReserve = "viewings.reserve"
	TaskViewingRelease = "viewings.release"
)

// NotificationKind selects the applicant email template.
type NotificationKind string

const (
	NotificationAccepted      NotificationKind = "accepted"
	NotificationRejected      NotificationKind = "rejected"
	NotificationViewingInvite NotificationKind = "viewing_invite"
)

type ApplicantNotificationPayload struct {
	ApplicationID string           `json:"applicationId"`
	DecisionID    string           `json:"decisionId"`
	Kind          NotificationKind `json:"kind"`
	Email         string           `json:"email"`
	Name          string           `json:"name"`
	Reason        string           `json:"reason,omitempty"`
	SlotStart     *time.Time       `json:"slotStart,omitempty"`
	SlotEnd       *time.Time       `json:"slotEnd,omitempty"`
}

type ViewingSlotPayload struct {
	ApplicationID string     `json:"applicationId"`
	PropertyID    string     `json:"propertyId"`
	DecisionID    string     `json:"decisionId,omitempty"`
	SlotStart     *time.Time `json:"slotStart,omitempty"`
	SlotEnd       *time.Time `json:"slotEnd,omitempty"`
}

func NewApplicantNotificationTask(payload ApplicantNotificationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskApplicantNotification, data), nil
}

func ParseApplicantNotificationPayload(task *asynq.Task) (ApplicantNotificationPayload, error) {
	var payload ApplicantNotificationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ApplicantNotificationPayload{}, err
	}
	return payload, nil
}

func NewViewingTask(taskType string, payload ViewingSlotPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, data), nil
}

func ParseViewingSlotPayload(task *asynq.Task) (ViewingSlotPayload, error) {
	var payload ViewingSlotPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ViewingSlotPayload{}, err
	}
	return payload, nil
}
