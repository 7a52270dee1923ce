package api

// Wire types for the task service HTTP API. The server handlers and the
// TUI client both marshal through these, so the two sides cannot drift.

type TaskPayload struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	IsDone      bool   `json:"isDone"`
	Position    int    `json:"position"`
}

type TaskListResponse struct {
	Tasks []TaskPayload `json:"tasks"`
}

type CreateTaskRequest struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// UpdateTaskRequest is a partial update; absent fields stay untouched.
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	IsDone      *bool   `json:"isDone,omitempty"`
}

type DeleteTaskResponse struct {
	ID int64 `json:"id"`
}

// ReorderRequest carries the full desired ordering. Ids the server does
// not recognize are dropped rather than rejected, so a reorder raced by
// a concurrent delete still succeeds.
type ReorderRequest struct {
	IDs []int64 `json:"taskIds" validate:"required,min=1"`
}

type CredentialsRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type ExtractRequest struct {
	Text string `json:"text" validate:"required,max=10000"`
}

type ExtractedTask struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type ExtractResponse struct {
	Tasks []ExtractedTask `json:"tasks"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
