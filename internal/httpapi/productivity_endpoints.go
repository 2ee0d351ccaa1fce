package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ariavoice/aria/internal/productivity"
)

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	var req struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		DueDate     string   `json:"due_date"`
		Priority    string   `json:"priority"`
		Tags        []string `json:"tags"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		respondError(w, http.StatusBadRequest, "missing_title", "title is required")
		return
	}

	task, err := s.productivity.AddTask(sessionID, productivity.AddTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		Tags:        req.Tags,
	})
	if errors.Is(err, productivity.ErrInvalidDueDate) {
		respondError(w, http.StatusBadRequest, "invalid_due_date", err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "task_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"success": true, "task": task})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	var completed *bool
	if raw := strings.TrimSpace(r.URL.Query().Get("completed")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_completed", "completed must be a boolean")
			return
		}
		completed = &parsed
	}
	priority := strings.TrimSpace(r.URL.Query().Get("priority"))

	tasks := s.productivity.ListTasks(sessionID, completed, priority)
	respondJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"tasks":     tasks,
		"count":     len(tasks),
		"formatted": productivity.FormatTaskList(tasks),
	})
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	taskID := chi.URLParam(r, "task_id")

	task, err := s.productivity.CompleteTask(sessionID, taskID)
	if errors.Is(err, productivity.ErrTaskNotFound) {
		respondError(w, http.StatusNotFound, "task_not_found", err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "task_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "task": task})
}

func (s *Server) handleStartTimer(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	var req struct {
		Name            string `json:"name"`
		DurationMinutes int    `json:"duration_minutes"`
		TimerType       string `json:"timer_type"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.DurationMinutes <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_duration", "duration_minutes must be positive")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		req.Name = "Focus Session"
	}

	timer := s.productivity.StartTimer(sessionID, req.Name, req.DurationMinutes, req.TimerType)
	status, err := s.productivity.CheckTimer(sessionID, timer.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "timer_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"success": true, "timer": status})
}

func (s *Server) handleGetTimers(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	if timerID := strings.TrimSpace(r.URL.Query().Get("timer_id")); timerID != "" {
		status, err := s.productivity.CheckTimer(sessionID, timerID)
		if errors.Is(err, productivity.ErrTimerNotFound) {
			respondError(w, http.StatusNotFound, "timer_not_found", err.Error())
			return
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "timer_failed", err.Error())
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"success": true, "timer": status})
		return
	}

	timers := s.productivity.ActiveTimers(sessionID)
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"timers":  timers,
		"count":   len(timers),
	})
}

func (s *Server) handleStartTracking(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	var req struct {
		TaskName string `json:"task_name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.TaskName) == "" {
		respondError(w, http.StatusBadRequest, "missing_task_name", "task_name is required")
		return
	}

	tracked := s.productivity.StartTracking(sessionID, req.TaskName)
	respondJSON(w, http.StatusCreated, map[string]any{"success": true, "session": tracked})
}

func (s *Server) handleStopTracking(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	trackingID := chi.URLParam(r, "tracking_id")
	var req struct {
		Notes string `json:"notes"`
	}
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	tracked, err := s.productivity.StopTracking(sessionID, trackingID, req.Notes)
	if errors.Is(err, productivity.ErrTrackingNotFound) {
		respondError(w, http.StatusNotFound, "tracking_not_found", err.Error())
		return
	}
	if errors.Is(err, productivity.ErrAlreadyStopped) {
		respondError(w, http.StatusConflict, "already_stopped", err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "tracking_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "session": tracked})
}
