package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tasky-app/tasky/internal/api"
	"github.com/tasky-app/tasky/internal/storage"
)

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.repo.ListTasks(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.log.Error("list tasks", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	payloads := make([]api.TaskPayload, len(tasks))
	for i, t := range tasks {
		payloads[i] = toPayload(t)
	}
	respondJSON(w, http.StatusOK, api.TaskListResponse{Tasks: payloads})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req api.CreateTaskRequest
	if err := s.decodeValid(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "title required, 100 characters max")
		return
	}
	// `required` passes whitespace-only strings.
	if strings.TrimSpace(req.Title) == "" {
		respondError(w, http.StatusBadRequest, "title required, 100 characters max")
		return
	}

	task, err := s.repo.CreateTask(r.Context(), userIDFrom(r.Context()), req.Title, req.Description)
	if err != nil {
		s.log.Error("create task", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusCreated, toPayload(task))
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	var req api.UpdateTaskRequest
	if err := s.decodeValid(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid update body")
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		respondError(w, http.StatusBadRequest, "title cannot be blank")
		return
	}

	patch := storage.TaskPatch{ID: id, Title: req.Title, Description: req.Description, IsDone: req.IsDone}
	task, err := s.repo.UpdateTask(r.Context(), userIDFrom(r.Context()), patch)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "task not found")
			return
		}
		s.log.Error("update task", "error", err, "task_id", id)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, toPayload(task))
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	if err := s.repo.DeleteTask(r.Context(), userIDFrom(r.Context()), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "task not found")
			return
		}
		s.log.Error("delete task", "error", err, "task_id", id)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, api.DeleteTaskResponse{ID: id})
}

func (s *Server) handleReorderTasks(w http.ResponseWriter, r *http.Request) {
	var req api.ReorderRequest
	if err := s.decodeValid(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "ids required")
		return
	}
	if err := s.repo.ReorderTasks(r.Context(), userIDFrom(r.Context()), req.IDs); err != nil {
		s.log.Error("reorder tasks", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExtractTasks(w http.ResponseWriter, r *http.Request) {
	var req api.ExtractRequest
	if err := s.decodeValid(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "text required, 10000 characters max")
		return
	}

	drafts, err := s.extractor.Extract(r.Context(), req.Text)
	if err != nil {
		// Model unavailable or over quota; the heuristic still gives the
		// user something to edit.
		s.log.Warn("ai extraction failed, using heuristic", "error", err)
		drafts, err = heuristicExtractor{}.Extract(r.Context(), req.Text)
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, "no tasks found in text")
			return
		}
	}
	respondJSON(w, http.StatusOK, api.ExtractResponse{Tasks: drafts})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func toPayload(t storage.Task) api.TaskPayload {
	return api.TaskPayload{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		IsDone:      t.IsDone,
		Position:    t.Position,
	}
}
