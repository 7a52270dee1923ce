// Package api implements the HTTP client for the task service. Client
// satisfies controller.Service, so the TUI talks to a remote server the
// same way tests talk to a fake.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tasky-app/tasky/internal/controller"
	"github.com/tasky-app/tasky/internal/model"
)

const (
	// CallTimeout bounds every API call regardless of the caller's context.
	CallTimeout = 10 * time.Second
)

var (
	ErrUnauthorized = errors.New("api: unauthorized")
	ErrNotFound     = errors.New("api: not found")
	ErrConflict     = errors.New("api: conflict")
	ErrTimeout      = errors.New("api: request timed out")
)

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: CallTimeout},
	}
}

// SetToken installs the bearer token used on authenticated calls.
func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) Signup(ctx context.Context, username, password string) error {
	var out TokenResponse
	err := c.do(ctx, http.MethodPost, "/api/signup", CredentialsRequest{Username: username, Password: password}, &out)
	if err != nil {
		return err
	}
	c.token = out.Token
	return nil
}

func (c *Client) Login(ctx context.Context, username, password string) error {
	var out TokenResponse
	err := c.do(ctx, http.MethodPost, "/api/login", CredentialsRequest{Username: username, Password: password}, &out)
	if err != nil {
		return err
	}
	c.token = out.Token
	return nil
}

func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var out TaskListResponse
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &out); err != nil {
		return nil, err
	}
	tasks := make([]model.Task, len(out.Tasks))
	for i, p := range out.Tasks {
		tasks[i] = fromPayload(p)
	}
	return tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, in controller.CreateInput) (model.Task, error) {
	var out TaskPayload
	err := c.do(ctx, http.MethodPost, "/api/tasks", CreateTaskRequest{Title: in.Title, Description: in.Description}, &out)
	if err != nil {
		return model.Task{}, err
	}
	return fromPayload(out), nil
}

func (c *Client) UpdateTask(ctx context.Context, in controller.UpdateInput) (model.Task, error) {
	if in.ID.IsTemp() {
		return model.Task{}, model.ErrInvalidTaskID
	}
	req := UpdateTaskRequest{Title: in.Title, Description: in.Description, IsDone: in.IsDone}
	var out TaskPayload
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/tasks/%d", in.ID.Num()), req, &out)
	if err != nil {
		return model.Task{}, err
	}
	return fromPayload(out), nil
}

func (c *Client) DeleteTask(ctx context.Context, id model.TaskID) (model.TaskID, error) {
	if id.IsTemp() {
		return model.TaskID{}, model.ErrInvalidTaskID
	}
	var out DeleteTaskResponse
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", id.Num()), nil, &out)
	if err != nil {
		return model.TaskID{}, err
	}
	return model.PersistedID(out.ID), nil
}

func (c *Client) ReorderTasks(ctx context.Context, ids []model.TaskID) error {
	nums := make([]int64, len(ids))
	for i, id := range ids {
		if id.IsTemp() {
			return model.ErrInvalidTaskID
		}
		nums[i] = id.Num()
	}
	return c.do(ctx, http.MethodPost, "/api/tasks/reorder", ReorderRequest{IDs: nums}, nil)
}

// ExtractTasks asks the server to turn free-form text into task drafts.
func (c *Client) ExtractTasks(ctx context.Context, text string) ([]ExtractedTask, error) {
	var out ExtractResponse
	if err := c.do(ctx, http.MethodPost, "/api/ai/extract", ExtractRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	var payload ErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&payload)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	}
	if payload.Error != "" {
		return fmt.Errorf("api: %s", payload.Error)
	}
	return fmt.Errorf("api: unexpected status %d", resp.StatusCode)
}

func fromPayload(p TaskPayload) model.Task {
	return model.Task{
		ID:          model.PersistedID(p.ID),
		Title:       p.Title,
		Description: p.Description,
		IsDone:      p.IsDone,
		Position:    p.Position,
	}
}

// ToPayload converts a task for the server's response encoding.
func ToPayload(t model.Task) TaskPayload {
	return TaskPayload{
		ID:          t.ID.Num(),
		Title:       t.Title,
		Description: t.Description,
		IsDone:      t.IsDone,
		Position:    t.Position,
	}
}
