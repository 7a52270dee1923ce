package controller

import (
	"context"
	"errors"
	"sync"

	"github.com/tasky-app/tasky/internal/model"
	"github.com/tasky-app/tasky/internal/queue"
)

var (
	ErrCreateInFlight = errors.New("controller: a create is already in flight")
	ErrRowBusy        = errors.New("controller: task already has a pending operation")
	ErrTempTask       = errors.New("controller: operation not allowed on an unconfirmed task")
	ErrTempInList     = errors.New("controller: reorder disallowed while unconfirmed tasks exist")
	ErrReorderBusy    = errors.New("controller: a reorder is already in flight")
	ErrNoSuchTask     = errors.New("controller: no such task")
	ErrNotFailed      = errors.New("controller: operation is not in a failed state")
	ErrBadIndex       = errors.New("controller: reorder index out of range")
)

// Request priorities: creates and deletes jump the queue, updates ride
// the batch debounce, reorders yield to everything else.
const (
	priorityHigh   = 1
	priorityMedium = 5
	priorityLow    = 9
)

type CreateInput struct {
	Title       string
	Description string
}

// UpdateInput carries a partial update; nil fields are left untouched.
type UpdateInput struct {
	ID          model.TaskID
	Title       *string
	Description *string
	IsDone      *bool
}

// Service is the remote persistence collaborator. Calls are assumed
// atomic and scoped to the authenticated user, with ListTasks ordered by
// position ascending.
type Service interface {
	ListTasks(ctx context.Context) ([]model.Task, error)
	CreateTask(ctx context.Context, in CreateInput) (model.Task, error)
	UpdateTask(ctx context.Context, in UpdateInput) (model.Task, error)
	DeleteTask(ctx context.Context, id model.TaskID) (model.TaskID, error)
	ReorderTasks(ctx context.Context, ids []model.TaskID) error
}

// Controller owns the local task list and reconciles optimistic
// mutations against the server. All methods are safe for concurrent use;
// queue completions re-enter through the same mutex, and every handler
// works from current state plus the operation's stored snapshot.
type Controller struct {
	mu              sync.Mutex
	svc             Service
	q               *queue.Queue
	tasks           []model.Task
	pending         map[string]*model.PendingOp
	recentlyDeleted map[string]struct{}
	creating        bool
	updates         chan struct{}
}

func New(svc Service, q *queue.Queue) *Controller {
	return &Controller{
		svc:             svc,
		q:               q,
		tasks:           make([]model.Task, 0),
		pending:         make(map[string]*model.PendingOp),
		recentlyDeleted: make(map[string]struct{}),
		updates:         make(chan struct{}, 1),
	}
}

// Updates signals after any state change; signals are coalesced, so a
// receiver should re-read the full snapshot each time.
func (c *Controller) Updates() <-chan struct{} {
	return c.updates
}

func (c *Controller) notifyLocked() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}

// Tasks returns a copy of the local list in display order.
func (c *Controller) Tasks() []model.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

func (c *Controller) Pending(id model.TaskID) (model.PendingOp, bool) {
	return c.pendingByKey(id.Key())
}

func (c *Controller) PendingReorder() (model.PendingOp, bool) {
	return c.pendingByKey(model.ReorderKey)
}

func (c *Controller) pendingByKey(key string) (model.PendingOp, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	op, ok := c.pending[key]
	if !ok {
		return model.PendingOp{}, false
	}
	return *op, true
}

type FailedOp struct {
	Key string
	Op  model.PendingOp
}

// Failed lists operations awaiting explicit retry or discard.
func (c *Controller) Failed() []FailedOp {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]FailedOp, 0)
	for key, op := range c.pending {
		if op.Failed() {
			out = append(out, FailedOp{Key: key, Op: *op})
		}
	}
	return out
}

func (c *Controller) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Controller) IsCreating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creating
}

func (c *Controller) findLocked(id model.TaskID) (int, bool) {
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			return i, true
		}
	}
	return -1, false
}
