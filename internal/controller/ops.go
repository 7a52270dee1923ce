package controller

import (
	"context"

	"github.com/tasky-app/tasky/internal/model"
	"github.com/tasky-app/tasky/internal/queue"
)

// CreateTask inserts a temporary row at the head of the list and issues
// the create call. The temporary row is replaced in place once the
// server assigns a real id; on terminal failure it stays in the list
// flagged failed until retried or discarded.
func (c *Controller) CreateTask(title, description string) error {
	if err := model.ValidateContent(title, description); err != nil {
		return err
	}

	c.mu.Lock()
	if c.creating {
		c.mu.Unlock()
		return ErrCreateInFlight
	}
	c.creating = true
	tmp := model.Task{
		ID:          model.NewTempID(),
		Title:       title,
		Description: description,
		Position:    0,
	}
	c.tasks = append([]model.Task{tmp}, c.tasks...)
	intended := tmp
	op := &model.PendingOp{Type: model.OpCreate, Status: model.OpPending, After: &intended}
	c.pending[tmp.ID.Key()] = op
	c.notifyLocked()
	c.mu.Unlock()

	c.enqueueCreate(tmp.ID, op, CreateInput{Title: title, Description: description})
	return nil
}

func (c *Controller) enqueueCreate(tmpID model.TaskID, op *model.PendingOp, in CreateInput) {
	c.q.Enqueue(func(ctx context.Context) (any, error) {
		return c.svc.CreateTask(ctx, in)
	}, queue.Request{
		ID:        "create-" + tmpID.Key(),
		Priority:  priorityHigh,
		OnSuccess: func(v any) { c.confirmCreate(tmpID, op, v.(model.Task)) },
		OnError:   func(err error) { c.failCreate(tmpID, op, err) },
	})
}

func (c *Controller) confirmCreate(tmpID model.TaskID, op *model.PendingOp, confirmed model.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creating = false
	key := tmpID.Key()
	if c.pending[key] == op {
		delete(c.pending, key)
	}
	// Replace the temporary row at its current list position; no
	// duplicate row must appear.
	if i, ok := c.findLocked(tmpID); ok {
		c.tasks[i] = confirmed
	}
	c.notifyLocked()
}

func (c *Controller) failCreate(tmpID model.TaskID, op *model.PendingOp, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creating = false
	if c.pending[tmpID.Key()] == op {
		op.Status = model.OpFailed
		op.Err = err
	}
	c.notifyLocked()
}

// ToggleTask flips completion optimistically. No-op errors are returned
// for temporary rows and rows that already have a pending operation;
// that guard is the sole mechanism serializing mutations per row.
func (c *Controller) ToggleTask(id model.TaskID) error {
	c.mu.Lock()
	if id.IsTemp() {
		c.mu.Unlock()
		return ErrTempTask
	}
	key := id.Key()
	if _, busy := c.pending[key]; busy {
		c.mu.Unlock()
		return ErrRowBusy
	}
	i, ok := c.findLocked(id)
	if !ok {
		c.mu.Unlock()
		return ErrNoSuchTask
	}
	before := c.tasks[i]
	c.tasks[i].IsDone = !before.IsDone
	after := c.tasks[i]
	op := &model.PendingOp{Type: model.OpToggle, Status: model.OpPending, Before: &before, After: &after}
	c.pending[key] = op
	c.notifyLocked()
	c.mu.Unlock()

	c.enqueueUpdate(id, op)
	return nil
}

// EditTask replaces title/description optimistically, with the same
// guards and rollback behavior as ToggleTask.
func (c *Controller) EditTask(id model.TaskID, title, description string) error {
	if err := model.ValidateContent(title, description); err != nil {
		return err
	}

	c.mu.Lock()
	if id.IsTemp() {
		c.mu.Unlock()
		return ErrTempTask
	}
	key := id.Key()
	if _, busy := c.pending[key]; busy {
		c.mu.Unlock()
		return ErrRowBusy
	}
	i, ok := c.findLocked(id)
	if !ok {
		c.mu.Unlock()
		return ErrNoSuchTask
	}
	before := c.tasks[i]
	c.tasks[i].Title = title
	c.tasks[i].Description = description
	after := c.tasks[i]
	op := &model.PendingOp{Type: model.OpEdit, Status: model.OpPending, Before: &before, After: &after}
	c.pending[key] = op
	c.notifyLocked()
	c.mu.Unlock()

	c.enqueueUpdate(id, op)
	return nil
}

func (c *Controller) enqueueUpdate(id model.TaskID, op *model.PendingOp) {
	in := UpdateInput{ID: id}
	switch op.Type {
	case model.OpToggle:
		done := op.After.IsDone
		in.IsDone = &done
	case model.OpEdit:
		title := op.After.Title
		desc := op.After.Description
		in.Title = &title
		in.Description = &desc
	}
	c.q.Enqueue(func(ctx context.Context) (any, error) {
		return c.svc.UpdateTask(ctx, in)
	}, queue.Request{
		ID:        "update-" + id.Key(),
		Batch:     true,
		Priority:  priorityMedium,
		OnSuccess: func(v any) { c.confirmUpdate(id, op, v.(model.Task)) },
		OnError:   func(err error) { c.failUpdate(id, op, err) },
	})
}

func (c *Controller) confirmUpdate(id model.TaskID, op *model.PendingOp, confirmed model.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := id.Key()
	cur := c.pending[key]

	if i, ok := c.findLocked(id); ok {
		// Server fields win by default, but a newer overlapping
		// operation's optimistic fields on the same row are preserved.
		merged := confirmed
		if cur != nil && cur != op {
			switch cur.Type {
			case model.OpToggle:
				merged.IsDone = cur.After.IsDone
			case model.OpEdit:
				merged.Title = cur.After.Title
				merged.Description = cur.After.Description
			}
		}
		c.tasks[i] = merged
	}

	if cur == op {
		// For toggles, only clear the marker when the confirmation
		// matches what this operation intended; a mismatched isDone
		// belongs to a newer toggle still in flight.
		if op.Type != model.OpToggle || confirmed.IsDone == op.After.IsDone {
			delete(c.pending, key)
		}
	}
	c.notifyLocked()
}

func (c *Controller) failUpdate(id model.TaskID, op *model.PendingOp, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending[id.Key()] == op {
		if i, ok := c.findLocked(id); ok {
			c.tasks[i] = *op.Before
		}
		op.Status = model.OpFailed
		op.Err = err
	}
	c.notifyLocked()
}

// DeleteTask removes the row immediately and issues the delete call. A
// confirmed delete joins the recently-deleted set so a stale refresh
// cannot resurrect the row.
func (c *Controller) DeleteTask(id model.TaskID) error {
	c.mu.Lock()
	if id.IsTemp() {
		c.mu.Unlock()
		return ErrTempTask
	}
	key := id.Key()
	if _, busy := c.pending[key]; busy {
		c.mu.Unlock()
		return ErrRowBusy
	}
	i, ok := c.findLocked(id)
	if !ok {
		c.mu.Unlock()
		return ErrNoSuchTask
	}
	before := c.tasks[i]
	c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
	op := &model.PendingOp{Type: model.OpDelete, Status: model.OpPending, Before: &before}
	c.pending[key] = op
	c.notifyLocked()
	c.mu.Unlock()

	c.enqueueDelete(id, op)
	return nil
}

func (c *Controller) enqueueDelete(id model.TaskID, op *model.PendingOp) {
	c.q.Enqueue(func(ctx context.Context) (any, error) {
		return c.svc.DeleteTask(ctx, id)
	}, queue.Request{
		ID:        "delete-" + id.Key(),
		Priority:  priorityHigh,
		OnSuccess: func(v any) { c.confirmDelete(id, op) },
		OnError:   func(err error) { c.failDelete(id, op, err) },
	})
}

func (c *Controller) confirmDelete(id model.TaskID, op *model.PendingOp) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := id.Key()
	if c.pending[key] == op {
		delete(c.pending, key)
		c.recentlyDeleted[key] = struct{}{}
	}
	c.notifyLocked()
}

func (c *Controller) failDelete(id model.TaskID, op *model.PendingOp, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending[id.Key()] == op {
		// Re-appending at the tail loses the original position; the next
		// successful refresh restores it.
		c.tasks = append(c.tasks, *op.Before)
		op.Status = model.OpFailed
		op.Err = err
	}
	c.notifyLocked()
}

// ReorderTasks moves the row at from before/after its neighbors so it
// lands at to, applies the new order immediately, and sends the full id
// ordering to the server. Reorders are whole-list operations tracked
// under the single reserved key.
func (c *Controller) ReorderTasks(from, to int) error {
	c.mu.Lock()
	if from < 0 || from >= len(c.tasks) || to < 0 || to >= len(c.tasks) {
		c.mu.Unlock()
		return ErrBadIndex
	}
	if from == to {
		c.mu.Unlock()
		return nil
	}
	for i := range c.tasks {
		if c.tasks[i].IsTemp() {
			c.mu.Unlock()
			return ErrTempInList
		}
	}
	if _, busy := c.pending[model.ReorderKey]; busy {
		c.mu.Unlock()
		return ErrReorderBusy
	}

	before := make([]model.Task, len(c.tasks))
	copy(before, c.tasks)
	moved := c.tasks[from]
	c.tasks = append(c.tasks[:from], c.tasks[from+1:]...)
	c.tasks = append(c.tasks[:to], append([]model.Task{moved}, c.tasks[to:]...)...)
	after := make([]model.Task, len(c.tasks))
	copy(after, c.tasks)

	op := &model.PendingOp{Type: model.OpReorder, Status: model.OpPending, BeforeList: before, AfterList: after}
	c.pending[model.ReorderKey] = op
	c.notifyLocked()
	c.mu.Unlock()

	c.enqueueReorder(op)
	return nil
}

func (c *Controller) enqueueReorder(op *model.PendingOp) {
	ids := make([]model.TaskID, len(op.AfterList))
	for i := range op.AfterList {
		ids[i] = op.AfterList[i].ID
	}
	c.q.Enqueue(func(ctx context.Context) (any, error) {
		return nil, c.svc.ReorderTasks(ctx, ids)
	}, queue.Request{
		ID:        model.ReorderKey,
		Priority:  priorityLow,
		OnSuccess: func(any) { c.confirmReorder(op) },
		OnError:   func(err error) { c.failReorder(op, err) },
	})
}

func (c *Controller) confirmReorder(op *model.PendingOp) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending[model.ReorderKey] == op {
		delete(c.pending, model.ReorderKey)
	}
	c.notifyLocked()
}

func (c *Controller) failReorder(op *model.PendingOp, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending[model.ReorderKey] == op {
		restored := make([]model.Task, len(op.BeforeList))
		copy(restored, op.BeforeList)
		c.tasks = restored
		op.Status = model.OpFailed
		op.Err = err
	}
	c.notifyLocked()
}

// Retry re-submits the failed operation stored under key: the same
// coarse-grained mutation, re-applied optimistically first.
func (c *Controller) Retry(key string) error {
	c.mu.Lock()
	op, ok := c.pending[key]
	if !ok {
		c.mu.Unlock()
		return ErrNoSuchTask
	}
	if !op.Failed() {
		c.mu.Unlock()
		return ErrNotFailed
	}
	if op.Type == model.OpCreate && c.creating {
		c.mu.Unlock()
		return ErrCreateInFlight
	}
	op.Status = model.OpPending
	op.Err = nil

	switch op.Type {
	case model.OpCreate:
		id, err := model.ParseID(key)
		if err != nil {
			c.mu.Unlock()
			return err
		}
		c.creating = true
		in := CreateInput{Title: op.After.Title, Description: op.After.Description}
		c.notifyLocked()
		c.mu.Unlock()
		c.enqueueCreate(id, op, in)
	case model.OpToggle, model.OpEdit:
		id := op.Before.ID
		if i, found := c.findLocked(id); found {
			c.tasks[i] = *op.After
		}
		c.notifyLocked()
		c.mu.Unlock()
		c.enqueueUpdate(id, op)
	case model.OpDelete:
		id := op.Before.ID
		if i, found := c.findLocked(id); found {
			c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
		}
		c.notifyLocked()
		c.mu.Unlock()
		c.enqueueDelete(id, op)
	case model.OpReorder:
		restored := make([]model.Task, len(op.AfterList))
		copy(restored, op.AfterList)
		c.tasks = restored
		c.notifyLocked()
		c.mu.Unlock()
		c.enqueueReorder(op)
	default:
		c.mu.Unlock()
		return ErrNotFailed
	}
	return nil
}

// Discard drops a failed operation without re-submitting it. A failed
// create's temporary row is removed from the list.
func (c *Controller) Discard(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	op, ok := c.pending[key]
	if !ok {
		return ErrNoSuchTask
	}
	if !op.Failed() {
		return ErrNotFailed
	}
	if op.Type == model.OpCreate {
		if id, err := model.ParseID(key); err == nil {
			if i, found := c.findLocked(id); found {
				c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
			}
		}
	}
	delete(c.pending, key)
	c.notifyLocked()
	return nil
}

// SyncPending re-issues every failed operation except creates, which
// require explicit user action: the first attempt may have landed
// server-side, and re-submitting would duplicate the row.
func (c *Controller) SyncPending() {
	c.mu.Lock()
	keys := make([]string, 0)
	for key, op := range c.pending {
		if op.Failed() && op.Type != model.OpCreate {
			keys = append(keys, key)
		}
	}
	c.mu.Unlock()

	for _, key := range keys {
		_ = c.Retry(key)
	}
}
