package events

import (
	"time"

	"github.com/spec-kit/task-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered    EventType = "user_registered"
	EventUserLoggedIn      EventType = "user_logged_in"
	EventTaskCreated       EventType = "task_created"
	EventTaskStatusChanged EventType = "task_status_changed"
	EventTaskAssigned      EventType = "task_assigned"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Actor     string      `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// UserLoggedInPayload payload.
type UserLoggedInPayload struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// TaskCreatedPayload payload.
type TaskCreatedPayload struct {
	TaskID     string  `json:"task_id"`
	Title      string  `json:"title"`
	AssignedTo *string `json:"assigned_to,omitempty"`
}

// TaskStatusChangedPayload payload.
type TaskStatusChangedPayload struct {
	TaskID    string            `json:"task_id"`
	OldStatus domain.TaskStatus `json:"old_status"`
	NewStatus domain.TaskStatus `json:"new_status"`
}

// TaskAssignedPayload payload.
type TaskAssignedPayload struct {
	TaskID     string  `json:"task_id"`
	AssignedTo *string `json:"assigned_to,omitempty"`
}
