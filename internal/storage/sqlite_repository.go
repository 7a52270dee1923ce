package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

const sqliteTimeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, username, passwordHash string) (User, error) {
	now := time.Now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, created_at)
		VALUES (?, ?, ?)`,
		username, passwordHash, mustTime(now),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrUsernameTaken
		}
		return User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, err
	}
	return User{ID: id, Username: username, PasswordHash: passwordHash, CreatedAt: now.UTC()}, nil
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at
		FROM users WHERE username = ?`, username)

	var out User
	var created string
	if err := row.Scan(&out.ID, &out.Username, &out.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return User{}, err
	}
	out.CreatedAt = createdAt
	return out, nil
}

// CreateTask appends the task at the end of the user's list.
func (r *SQLiteRepository) CreateTask(ctx context.Context, userID int64, title, description string) (Task, error) {
	now := time.Now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (user_id, title, description, is_done, position, created_at)
		VALUES (?, ?, ?, 0, (SELECT COALESCE(MAX(position), -1) + 1 FROM tasks WHERE user_id = ?), ?)`,
		userID, title, description, userID, mustTime(now),
	)
	if err != nil {
		return Task{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Task{}, err
	}
	return r.GetTask(ctx, userID, id)
}

func (r *SQLiteRepository) GetTask(ctx context.Context, userID, id int64) (Task, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, description, is_done, position, created_at
		FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, ErrNotFound
		}
		return Task{}, err
	}
	return task, nil
}

func (r *SQLiteRepository) UpdateTask(ctx context.Context, userID int64, patch TaskPatch) (Task, error) {
	cur, err := r.GetTask(ctx, userID, patch.ID)
	if err != nil {
		return Task{}, err
	}
	if patch.Title != nil {
		cur.Title = *patch.Title
	}
	if patch.Description != nil {
		cur.Description = *patch.Description
	}
	if patch.IsDone != nil {
		cur.IsDone = *patch.IsDone
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, is_done = ?
		WHERE id = ? AND user_id = ?`,
		cur.Title, cur.Description, boolInt(cur.IsDone), patch.ID, userID,
	)
	if err != nil {
		return Task{}, err
	}
	if err := checkRowsAffected(res); err != nil {
		return Task{}, err
	}
	return cur, nil
}

func (r *SQLiteRepository) DeleteTask(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListTasks(ctx context.Context, userID int64) ([]Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, description, is_done, position, created_at
		FROM tasks WHERE user_id = ? ORDER BY position ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

// ReorderTasks renumbers the user's tasks to follow ids. Ids that do not
// belong to the user are skipped, so an ordering that raced a delete
// still applies cleanly. Tasks absent from ids keep their relative order
// after the listed ones.
func (r *SQLiteRepository) ReorderTasks(ctx context.Context, userID int64, ids []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM tasks WHERE user_id = ? ORDER BY position ASC`, userID)
	if err != nil {
		return err
	}
	owned := make(map[int64]bool)
	remaining := make([]int64, 0)
	for rows.Next() {
		var id int64
		if scanErr := rows.Scan(&id); scanErr != nil {
			rows.Close()
			return scanErr
		}
		owned[id] = true
		remaining = append(remaining, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	ordered := make([]int64, 0, len(owned))
	placed := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if owned[id] && !placed[id] {
			ordered = append(ordered, id)
			placed[id] = true
		}
	}
	for _, id := range remaining {
		if !placed[id] {
			ordered = append(ordered, id)
		}
	}

	for pos, id := range ordered {
		if _, err := tx.ExecContext(ctx, `
			UPDATE tasks SET position = ? WHERE id = ? AND user_id = ?`,
			pos, id, userID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (Task, error) {
	var out Task
	var done int
	var created string
	if err := s.Scan(&out.ID, &out.UserID, &out.Title, &out.Description, &done, &out.Position, &created); err != nil {
		return Task{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return Task{}, err
	}
	out.IsDone = done == 1
	out.CreatedAt = createdAt
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
