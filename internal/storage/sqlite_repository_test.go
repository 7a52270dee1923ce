package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "tasky-test.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := MigrateUp(db); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	repo, err := NewSQLiteRepository(db)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	return repo
}

func setupUser(t *testing.T, repo *SQLiteRepository, username string) User {
	t.Helper()
	user, err := repo.CreateUser(context.Background(), username, "hashed")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func TestUserCreateAndLookup(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	user, err := repo.CreateUser(ctx, "alice", "bcrypt-hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.ID == 0 {
		t.Fatalf("expected assigned user id")
	}

	got, err := repo.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.ID != user.ID || got.PasswordHash != "bcrypt-hash" {
		t.Fatalf("unexpected user: %#v", got)
	}

	if _, err := repo.CreateUser(ctx, "alice", "other"); err != ErrUsernameTaken {
		t.Fatalf("duplicate username: got %v, want ErrUsernameTaken", err)
	}
	if _, err := repo.GetUserByUsername(ctx, "nobody"); err != ErrNotFound {
		t.Fatalf("missing user: got %v, want ErrNotFound", err)
	}
}

func TestTaskCRUDAndPositions(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	user := setupUser(t, repo, "alice")

	first, err := repo.CreateTask(ctx, user.ID, "first", "")
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := repo.CreateTask(ctx, user.ID, "second", "details")
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if first.Position != 0 || second.Position != 1 {
		t.Fatalf("positions = %d, %d; want 0, 1", first.Position, second.Position)
	}

	done := true
	title := "first, renamed"
	updated, err := repo.UpdateTask(ctx, user.ID, TaskPatch{ID: first.ID, Title: &title, IsDone: &done})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != title || !updated.IsDone || updated.Description != "" {
		t.Fatalf("unexpected updated task: %#v", updated)
	}

	list, err := repo.ListTasks(ctx, user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != first.ID || list[1].ID != second.ID {
		t.Fatalf("unexpected list: %#v", list)
	}

	if err := repo.DeleteTask(ctx, user.ID, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetTask(ctx, user.ID, first.ID); err != ErrNotFound {
		t.Fatalf("get deleted: got %v, want ErrNotFound", err)
	}
	if err := repo.DeleteTask(ctx, user.ID, first.ID); err != ErrNotFound {
		t.Fatalf("double delete: got %v, want ErrNotFound", err)
	}
}

func TestTasksAreScopedPerUser(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	alice := setupUser(t, repo, "alice")
	bob := setupUser(t, repo, "bob")

	task, err := repo.CreateTask(ctx, alice.ID, "private", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := repo.GetTask(ctx, bob.ID, task.ID); err != ErrNotFound {
		t.Fatalf("cross-user get: got %v, want ErrNotFound", err)
	}
	if err := repo.DeleteTask(ctx, bob.ID, task.ID); err != ErrNotFound {
		t.Fatalf("cross-user delete: got %v, want ErrNotFound", err)
	}
	if _, err := repo.UpdateTask(ctx, bob.ID, TaskPatch{ID: task.ID}); err != ErrNotFound {
		t.Fatalf("cross-user update: got %v, want ErrNotFound", err)
	}

	// Each user's positions start from zero independently.
	bobs, err := repo.CreateTask(ctx, bob.ID, "own", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if bobs.Position != 0 {
		t.Fatalf("bob's first position = %d, want 0", bobs.Position)
	}
}

func TestReorderRenumbersAndSkipsUnknownIDs(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	user := setupUser(t, repo, "alice")

	a, _ := repo.CreateTask(ctx, user.ID, "a", "")
	b, _ := repo.CreateTask(ctx, user.ID, "b", "")
	c, _ := repo.CreateTask(ctx, user.ID, "c", "")

	// 999 never existed; the rest reorders to c, a, b.
	if err := repo.ReorderTasks(ctx, user.ID, []int64{c.ID, 999, a.ID, b.ID}); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	list, err := repo.ListTasks(ctx, user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	wantOrder := []int64{c.ID, a.ID, b.ID}
	for i, want := range wantOrder {
		if list[i].ID != want {
			t.Fatalf("position %d = task %d, want %d", i, list[i].ID, want)
		}
		if list[i].Position != i {
			t.Fatalf("task %d position = %d, want %d", list[i].ID, list[i].Position, i)
		}
	}
}

func TestReorderKeepsOmittedTasksAtTail(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	user := setupUser(t, repo, "alice")

	a, _ := repo.CreateTask(ctx, user.ID, "a", "")
	b, _ := repo.CreateTask(ctx, user.ID, "b", "")
	c, _ := repo.CreateTask(ctx, user.ID, "c", "")

	// A partial ordering that raced a concurrent create: c was not listed.
	if err := repo.ReorderTasks(ctx, user.ID, []int64{b.ID, a.ID}); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	list, err := repo.ListTasks(ctx, user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	wantOrder := []int64{b.ID, a.ID, c.ID}
	for i, want := range wantOrder {
		if list[i].ID != want {
			t.Fatalf("position %d = task %d, want %d", i, list[i].ID, want)
		}
	}
}
