package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tasky-app/tasky/internal/controller"
	"github.com/tasky-app/tasky/internal/model"
)

var _ controller.Service = (*Client)(nil)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func TestListTasks(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/tasks" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(TaskListResponse{Tasks: []TaskPayload{
			{ID: 1, Title: "a", Position: 0},
			{ID: 2, Title: "b", IsDone: true, Position: 1},
		}})
	})
	c.SetToken("tok")

	tasks, err := c.ListTasks(t.Context())
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
	if tasks[0].ID != model.PersistedID(1) || tasks[1].IsDone != true {
		t.Fatalf("decoded tasks wrong: %+v", tasks)
	}
}

func TestCreateTask(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/tasks" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req CreateTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Title != "buy milk" {
			t.Errorf("title = %q", req.Title)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(TaskPayload{ID: 7, Title: req.Title, Description: req.Description, Position: 3})
	})

	task, err := c.CreateTask(t.Context(), controller.CreateInput{Title: "buy milk", Description: "2l"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.ID != model.PersistedID(7) || task.Position != 3 {
		t.Fatalf("created task wrong: %+v", task)
	}
}

func TestUpdateTaskSendsPartialPatch(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/api/tasks/4" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decode: %v", err)
		}
		if _, present := raw["title"]; present {
			t.Errorf("unset title must be absent from the patch body")
		}
		if raw["isDone"] != true {
			t.Errorf("isDone missing from patch body: %v", raw)
		}
		json.NewEncoder(w).Encode(TaskPayload{ID: 4, Title: "kept", IsDone: true})
	})

	done := true
	task, err := c.UpdateTask(t.Context(), controller.UpdateInput{ID: model.PersistedID(4), IsDone: &done})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if !task.IsDone {
		t.Fatalf("updated task wrong: %+v", task)
	}
}

func TestUpdateTaskRejectsTempID(t *testing.T) {
	c := NewClient("http://unused")
	_, err := c.UpdateTask(t.Context(), controller.UpdateInput{ID: model.NewTempID()})
	if err != model.ErrInvalidTaskID {
		t.Fatalf("expected ErrInvalidTaskID, got %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/tasks/9" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(DeleteTaskResponse{ID: 9})
	})

	id, err := c.DeleteTask(t.Context(), model.PersistedID(9))
	if err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if id != model.PersistedID(9) {
		t.Fatalf("deleted id = %v", id)
	}
}

func TestReorderTasks(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tasks/reorder" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req ReorderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if len(req.IDs) != 3 || req.IDs[0] != 3 || req.IDs[2] != 1 {
			t.Errorf("ids = %v", req.IDs)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	ids := []model.TaskID{model.PersistedID(3), model.PersistedID(2), model.PersistedID(1)}
	if err := c.ReorderTasks(t.Context(), ids); err != nil {
		t.Fatalf("ReorderTasks: %v", err)
	}
}

func TestLoginStoresToken(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/login":
			json.NewEncoder(w).Encode(TokenResponse{Token: "jwt-token"})
		case "/api/tasks":
			if got := r.Header.Get("Authorization"); got != "Bearer jwt-token" {
				t.Errorf("Authorization = %q", got)
			}
			json.NewEncoder(w).Encode(TaskListResponse{})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	if err := c.Login(t.Context(), "alice", "password123"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := c.ListTasks(t.Context()); err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
}

func TestExtractTasks(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ai/extract" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(ExtractResponse{Tasks: []ExtractedTask{
			{Title: "call dentist"},
			{Title: "pay rent", Description: "before the 1st"},
		}})
	})

	drafts, err := c.ExtractTasks(t.Context(), "call dentist and pay rent before the 1st")
	if err != nil {
		t.Fatalf("ExtractTasks: %v", err)
	}
	if len(drafts) != 2 || drafts[1].Description != "before the 1st" {
		t.Fatalf("drafts wrong: %+v", drafts)
	}
}

func TestStatusErrorMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusConflict, ErrConflict},
	}
	for _, tc := range cases {
		c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			json.NewEncoder(w).Encode(ErrorResponse{Error: "nope"})
		})
		_, err := c.ListTasks(t.Context())
		if err != tc.want {
			t.Errorf("status %d: got %v, want %v", tc.status, err, tc.want)
		}
	}
}

func TestErrorResponseMessageSurfaces(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "title is required"})
	})
	_, err := c.CreateTask(t.Context(), controller.CreateInput{})
	if err == nil || err.Error() != "api: title is required" {
		t.Fatalf("err = %v", err)
	}
}
