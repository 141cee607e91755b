package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/task-service/internal/domain"
	"github.com/spec-kit/task-service/internal/events"
	"github.com/spec-kit/task-service/internal/repository"
	apperrors "github.com/spec-kit/task-service/pkg/util"
)

// TaskCreateInput captures fields for task creation.
type TaskCreateInput struct {
	Title       string
	Description string
	AssignedTo  *string
}

// TaskUpdateInput captures optional fields for task updates.
type TaskUpdateInput struct {
	Title       *string
	Description *string
	Status      *domain.TaskStatus
	AssignedTo  *string
}

// TaskService manages tasks. Admins and managers see everything; everyone
// else only the tasks assigned to them.
type TaskService struct {
	tasks      repository.TaskRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewTaskService builds the service.
func NewTaskService(tasks repository.TaskRepository, dispatcher events.Dispatcher, logger *zap.Logger) *TaskService {
	return &TaskService{tasks: tasks, dispatcher: dispatcher, logger: logger}
}

// Create adds a task (Admin only), recording the caller as creator.
func (s *TaskService) Create(ctx context.Context, identity domain.Identity, input TaskCreateInput) (*domain.Task, error) {
	if identity.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only Admin can create or assign tasks")
	}
	if input.Title == "" {
		return nil, apperrors.NewValidationError("task title is required", nil)
	}

	task := &domain.Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      domain.TaskStatusPending,
		CreatedBy:   identity.Subject,
		AssignedTo:  input.AssignedTo,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("task created",
		zap.String("task_id", task.ID),
		zap.String("title", task.Title),
		zap.String("actor", identity.Subject))
	s.publish(ctx, events.EventTaskCreated, identity.Subject, events.TaskCreatedPayload{
		TaskID:     task.ID,
		Title:      task.Title,
		AssignedTo: task.AssignedTo,
	})
	return task, nil
}

// List returns tasks visible to the caller: all of them for Admin and
// Manager, otherwise only the caller's assigned tasks.
func (s *TaskService) List(ctx context.Context, identity domain.Identity) ([]domain.Task, error) {
	var (
		tasks []domain.Task
		err   error
	)
	if identity.Role == domain.RoleAdmin || identity.Role == domain.RoleManager {
		tasks, err = s.tasks.List(ctx)
	} else {
		tasks, err = s.tasks.ListByAssignee(ctx, identity.Subject)
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tasks, nil
}

// Get returns one task, visible to Admin or the assignee.
func (s *TaskService) Get(ctx context.Context, identity domain.Identity, id string) (*domain.Task, error) {
	task, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if identity.Role != domain.RoleAdmin && !isAssignee(task, identity.Subject) {
		return nil, apperrors.NewForbidden("you can only view your own tasks")
	}
	return task, nil
}

// Update modifies a task. Admin may edit anything; the assignee may edit
// their own task.
func (s *TaskService) Update(ctx context.Context, identity domain.Identity, id string, input TaskUpdateInput) (*domain.Task, error) {
	task, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if identity.Role != domain.RoleAdmin && !isAssignee(task, identity.Subject) {
		return nil, apperrors.NewForbidden("you can only edit your own tasks")
	}

	oldStatus := task.Status
	oldAssignee := task.AssignedTo

	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		if !domain.ValidTaskStatus(*input.Status) {
			return nil, apperrors.NewValidationError("invalid task status", map[string]any{"status": string(*input.Status)})
		}
		task.Status = *input.Status
	}
	if input.AssignedTo != nil {
		task.AssignedTo = input.AssignedTo
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("task updated", zap.String("task_id", task.ID), zap.String("actor", identity.Subject))
	if task.Status != oldStatus {
		s.publish(ctx, events.EventTaskStatusChanged, identity.Subject, events.TaskStatusChangedPayload{
			TaskID:    task.ID,
			OldStatus: oldStatus,
			NewStatus: task.Status,
		})
	}
	if !equalAssignee(oldAssignee, task.AssignedTo) {
		s.publish(ctx, events.EventTaskAssigned, identity.Subject, events.TaskAssignedPayload{
			TaskID:     task.ID,
			AssignedTo: task.AssignedTo,
		})
	}
	return task, nil
}

// Delete removes a task (Admin only).
func (s *TaskService) Delete(ctx context.Context, identity domain.Identity, id string) error {
	if identity.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("only Admin can delete tasks")
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("task", nil)
		}
		return apperrors.MapError(err)
	}
	s.logger.Info("task deleted", zap.String("task_id", id), zap.String("actor", identity.Subject))
	return nil
}

func (s *TaskService) getTask(ctx context.Context, id string) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("task", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return task, nil
}

func (s *TaskService) publish(ctx context.Context, eventType events.EventType, actor string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     actor,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

func isAssignee(task *domain.Task, userID string) bool {
	return task.AssignedTo != nil && *task.AssignedTo == userID
}

func equalAssignee(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
