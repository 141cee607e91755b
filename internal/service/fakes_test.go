package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/task-service/internal/domain"
	"github.com/spec-kit/task-service/internal/events"
)

// In-memory repository fakes backing the service tests. They mimic the pgx
// contract: absent rows surface as pgx.ErrNoRows.

type fakeUserRepo struct {
	mu     sync.Mutex
	byID   map[string]domain.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[string]domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	user.ID = fmt.Sprintf("user-%d", r.nextID)
	r.byID[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.byID[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.byID, id)
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.byID {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]domain.User, 0, len(r.byID))
	for _, user := range r.byID {
		users = append(users, user)
	}
	return users, nil
}

type fakeRoleRepo struct {
	mu     sync.Mutex
	byID   map[string]domain.Role
	nextID int
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{byID: make(map[string]domain.Role)}
}

func (r *fakeRoleRepo) Create(_ context.Context, role *domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	role.ID = fmt.Sprintf("role-%d", r.nextID)
	r.byID[role.ID] = *role
	return nil
}

func (r *fakeRoleRepo) Update(_ context.Context, role *domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[role.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.byID[role.ID] = *role
	return nil
}

func (r *fakeRoleRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.byID, id)
	return nil
}

func (r *fakeRoleRepo) GetByID(_ context.Context, id string) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &role, nil
}

func (r *fakeRoleRepo) GetByName(_ context.Context, name string) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, role := range r.byID {
		if role.Name == name {
			ro := role
			return &ro, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeRoleRepo) List(_ context.Context) ([]domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	roles := make([]domain.Role, 0, len(r.byID))
	for _, role := range r.byID {
		roles = append(roles, role)
	}
	return roles, nil
}

func (r *fakeRoleRepo) Upsert(ctx context.Context, role *domain.Role) error {
	if existing, err := r.GetByName(ctx, role.Name); err == nil {
		role.ID = existing.ID
		return r.Update(ctx, role)
	}
	return r.Create(ctx, role)
}

type fakeTaskRepo struct {
	mu     sync.Mutex
	byID   map[string]domain.Task
	nextID int
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{byID: make(map[string]domain.Task)}
}

func (r *fakeTaskRepo) Create(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	task.ID = fmt.Sprintf("task-%d", r.nextID)
	r.byID[task.ID] = *task
	return nil
}

func (r *fakeTaskRepo) Update(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[task.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.byID[task.ID] = *task
	return nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.byID, id)
	return nil
}

func (r *fakeTaskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &task, nil
}

func (r *fakeTaskRepo) List(_ context.Context) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tasks := make([]domain.Task, 0, len(r.byID))
	for _, task := range r.byID {
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (r *fakeTaskRepo) ListByAssignee(_ context.Context, userID string) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var tasks []domain.Task
	for _, task := range r.byID {
		if task.AssignedTo != nil && *task.AssignedTo == userID {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

type fakeDispatcher struct {
	mu        sync.Mutex
	published []events.Event
}

func (d *fakeDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.published = append(d.published, event)
	return nil
}

func (d *fakeDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *fakeDispatcher) eventsOfType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, e := range d.published {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
