package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/diddit/internal/auth"
	"github.com/dukerupert/diddit/internal/model"
	"github.com/dukerupert/diddit/internal/rule"
	"github.com/dukerupert/diddit/internal/store"
	"github.com/dukerupert/diddit/internal/websocket"
)

type TaskHandler struct {
	tasks    *store.TaskStore
	children *store.ChildStore
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewTaskHandler(tasks *store.TaskStore, children *store.ChildStore, hub *websocket.Hub, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, children: children, hub: hub, logger: logger}
}

type taskRequest struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	RuleKind     string  `json:"rule_kind"`
	RepeatDays   []int   `json:"repeat_days"`
	RotationType string  `json:"rotation_type"`
	Points       int     `json:"points"`
	ChildIDs     []int64 `json:"child_ids"`
}

// validate checks the request's shape, its rule configuration, and that every
// eligible child belongs to the household. Returns a client-facing message.
func (h *TaskHandler) validate(householdID int64, req *taskRequest) (string, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return "title is required", nil
	}

	r := rule.FromTask(model.Task{
		RuleKind:     req.RuleKind,
		RepeatDays:   req.RepeatDays,
		RotationType: req.RotationType,
	})
	if err := r.Validate(len(req.ChildIDs)); err != nil {
		var invalid *rule.InvalidError
		if errors.As(err, &invalid) {
			return invalid.Reason, nil
		}
		return "", err
	}

	for _, childID := range req.ChildIDs {
		child, err := h.children.GetByID(householdID, childID)
		if err != nil {
			return "", err
		}
		if child == nil {
			return "child not found in household", nil
		}
	}
	return "", nil
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAdmin(r.Context()) {
		writeError(w, http.StatusForbidden, "admin role required")
		return
	}
	householdID := auth.HouseholdID(r.Context())

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	msg, err := h.validate(householdID, &req)
	if err != nil {
		h.logger.Error("validate task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to validate task")
		return
	}
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	task, err := h.tasks.Create(householdID, req.Title, req.Description, req.RuleKind, req.RepeatDays, req.RotationType, req.Points, req.ChildIDs)
	if err != nil {
		h.logger.Error("create task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	h.hub.Broadcast(householdID, websocket.NewMessage("task", "created", task.ID, nil))
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())

	tasks, err := h.tasks.List(householdID)
	if err != nil {
		h.logger.Error("list tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	task, err := h.tasks.GetByID(householdID, id)
	if err != nil {
		h.logger.Error("get task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Update edits a task's rule fields. Future generation runs pick up the new
// rule; already-written assignment rows are left alone.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAdmin(r.Context()) {
		writeError(w, http.StatusForbidden, "admin role required")
		return
	}
	householdID := auth.HouseholdID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.tasks.GetByID(householdID, id)
	if err != nil {
		h.logger.Error("get task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	msg, err := h.validate(householdID, &req)
	if err != nil {
		h.logger.Error("validate task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to validate task")
		return
	}
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	task, err := h.tasks.Update(householdID, id, req.Title, req.Description, req.RuleKind, req.RepeatDays, req.RotationType, req.Points, req.ChildIDs)
	if err != nil {
		h.logger.Error("update task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update task")
		return
	}

	h.hub.Broadcast(householdID, websocket.NewMessage("task", "updated", id, nil))
	writeJSON(w, http.StatusOK, task)
}

// Delete soft-deletes: the task is deactivated so generation stops, while
// historical assignments keep their reference.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAdmin(r.Context()) {
		writeError(w, http.StatusForbidden, "admin role required")
		return
	}
	householdID := auth.HouseholdID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.tasks.GetByID(householdID, id)
	if err != nil {
		h.logger.Error("get task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	if err := h.tasks.Deactivate(householdID, id); err != nil {
		h.logger.Error("deactivate task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}

	h.hub.Broadcast(householdID, websocket.NewMessage("task", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
