package controller

import (
	"context"
	"sort"

	"github.com/tasky-app/tasky/internal/model"
)

// Refresh pulls the server list and merges it into local state. It is
// driven by the UI's periodic tick and runs outside the request queue;
// the merge tolerates landing in the middle of any optimistic mutation.
func (c *Controller) Refresh(ctx context.Context) error {
	server, err := c.svc.ListTasks(ctx)
	if err != nil {
		return err
	}
	c.ApplyServerTasks(server)
	return nil
}

// ApplyServerTasks reconciles a server query result with the local list
// without clobbering in-flight optimism. The merge is idempotent:
// applying it twice with the same server list and pending operations
// yields the same local list.
func (c *Controller) ApplyServerTasks(server []model.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	localByKey := make(map[string]model.Task, len(c.tasks))
	for _, t := range c.tasks {
		localByKey[t.ID.Key()] = t
	}

	seen := make(map[string]struct{}, len(server))
	next := make([]model.Task, 0, len(server))
	for _, s := range server {
		key := s.ID.Key()
		seen[key] = struct{}{}

		if op, ok := c.pending[key]; ok && op.Type == model.OpDelete && op.Status == model.OpPending {
			// Mid-optimistic-delete; the row stays gone locally. A failed
			// delete was rolled back, so its row merges normally.
			continue
		}
		if _, ok := c.recentlyDeleted[key]; ok {
			// Confirmed deleted but the server list predates the delete.
			continue
		}

		merged := s
		if local, ok := localByKey[key]; ok {
			// Only a still-pending op carries optimism worth preserving; a
			// failed op's change was rolled back already.
			if op, ok := c.pending[key]; ok && op.Status == model.OpPending {
				switch op.Type {
				case model.OpToggle:
					// The optimistic value is the inverse of the
					// pre-toggle snapshot, not whatever the row holds now.
					merged.IsDone = !op.Before.IsDone
				case model.OpEdit:
					merged.Title = op.After.Title
					merged.Description = op.After.Description
				}
			} else if local.IsDone != s.IsDone {
				// No toggle in flight: the local value reflects the last
				// confirmed local mutation and wins over a stale query.
				merged.IsDone = local.IsDone
			}
		}
		next = append(next, merged)
	}

	// Suppression entries expire once a refresh stops reporting the id.
	for key := range c.recentlyDeleted {
		if _, ok := seen[key]; !ok {
			delete(c.recentlyDeleted, key)
		}
	}

	if _, reordering := c.pending[model.ReorderKey]; reordering {
		// Server positions predate the in-flight reorder; keep the
		// optimistic order for rows we know, push unknowns to the tail.
		index := make(map[string]int, len(c.tasks))
		for i, t := range c.tasks {
			index[t.ID.Key()] = i
		}
		sort.SliceStable(next, func(i, j int) bool {
			ii, iok := index[next[i].ID.Key()]
			jj, jok := index[next[j].ID.Key()]
			if iok && jok {
				return ii < jj
			}
			if iok != jok {
				return iok
			}
			return next[i].Position < next[j].Position
		})
	} else {
		sort.SliceStable(next, func(i, j int) bool {
			return next[i].Position < next[j].Position
		})
	}

	// Temporary rows have no server counterpart yet; they stay at the
	// head in their insertion order.
	temps := make([]model.Task, 0)
	for _, t := range c.tasks {
		if t.IsTemp() {
			temps = append(temps, t)
		}
	}

	c.tasks = append(temps, next...)
	c.notifyLocked()
}
