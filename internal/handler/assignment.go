package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/diddit/internal/assignment"
	"github.com/dukerupert/diddit/internal/auth"
	"github.com/dukerupert/diddit/internal/generate"
	"github.com/dukerupert/diddit/internal/model"
	"github.com/dukerupert/diddit/internal/store"
	"github.com/dukerupert/diddit/internal/websocket"
)

type AssignmentHandler struct {
	assignments *store.AssignmentStore
	generator   *generate.Generator
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewAssignmentHandler(as *store.AssignmentStore, g *generate.Generator, hub *websocket.Hub, logger *slog.Logger) *AssignmentHandler {
	return &AssignmentHandler{assignments: as, generator: g, hub: hub, logger: logger}
}

// List returns assignments in a date range, optionally filtered to one child.
// Defaults to the current week (today through six days out).
func (h *AssignmentHandler) List(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())

	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 6)

	q := r.URL.Query()
	if s := q.Get("start"); s != "" {
		var err error
		if start, err = parseDate(s); err != nil {
			writeError(w, http.StatusBadRequest, "invalid start date")
			return
		}
	}
	if s := q.Get("end"); s != "" {
		var err error
		if end, err = parseDate(s); err != nil {
			writeError(w, http.StatusBadRequest, "invalid end date")
			return
		}
	}

	var childID *int64
	if s := q.Get("child_id"); s != "" {
		id, err := parseInt64(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid child_id")
			return
		}
		childID = &id
	}

	assignments, err := h.assignments.List(householdID, start, end, childID)
	if err != nil {
		h.logger.Error("list assignments", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list assignments")
		return
	}
	if assignments == nil {
		assignments = []model.Assignment{}
	}
	writeJSON(w, http.StatusOK, assignments)
}

type generateRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Generate runs the assignment generator for the household over an inclusive
// date window. Per-task rule errors come back inside the result with a 200;
// only a malformed window or a store failure is an HTTP error.
func (h *AssignmentHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAdmin(r.Context()) {
		writeError(w, http.StatusForbidden, "admin role required")
		return
	}
	householdID := auth.HouseholdID(r.Context())

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date")
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_date")
		return
	}

	result, err := h.generator.Generate(householdID, start, end)
	if errors.Is(err, generate.ErrInvalidWindow) || errors.Is(err, generate.ErrWindowTooLarge) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("generate assignments", "household_id", householdID, "error", err)
		writeError(w, http.StatusInternalServerError, "generation failed")
		return
	}

	if result.Created > 0 {
		h.hub.Broadcast(householdID, websocket.NewMessage("assignment", "generated", 0, map[string]any{"created": result.Created}))
	}
	writeJSON(w, http.StatusOK, result)
}

type completeRequest struct {
	ChildID *int64 `json:"child_id"`
}

// Complete marks an assignment done. Pending and overdue assignments can be
// completed (late completion is allowed); completed ones cannot change.
func (h *AssignmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.assignments.GetByID(householdID, id)
	if err != nil {
		h.logger.Error("get assignment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get assignment")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "assignment not found")
		return
	}

	if !assignment.CanTransition(assignment.Status(existing.Status), assignment.StatusCompleted) {
		writeError(w, http.StatusConflict, "assignment is already completed")
		return
	}

	var req completeRequest
	if r.Body != nil {
		// Body is optional; the assigned child is the default completer.
		json.NewDecoder(r.Body).Decode(&req)
	}
	completedBy := existing.ChildID
	if req.ChildID != nil {
		completedBy = *req.ChildID
	}

	now := time.Now().UTC()
	updated, err := h.assignments.SetStatus(householdID, id, string(assignment.StatusCompleted), &now, &completedBy)
	if err != nil {
		h.logger.Error("complete assignment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to complete assignment")
		return
	}

	h.hub.Broadcast(householdID, websocket.NewMessage("assignment", "completed", id, nil))
	writeJSON(w, http.StatusOK, updated)
}

// Leaderboard sums completed points per child over a date range (defaults to
// the current ISO week, Monday through Sunday).
func (h *AssignmentHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -int((today.Weekday()+6)%7))
	end := start.AddDate(0, 0, 6)

	q := r.URL.Query()
	if s := q.Get("start"); s != "" {
		var err error
		if start, err = parseDate(s); err != nil {
			writeError(w, http.StatusBadRequest, "invalid start date")
			return
		}
	}
	if s := q.Get("end"); s != "" {
		var err error
		if end, err = parseDate(s); err != nil {
			writeError(w, http.StatusBadRequest, "invalid end date")
			return
		}
	}

	entries, err := h.assignments.Leaderboard(householdID, start, end)
	if err != nil {
		h.logger.Error("leaderboard", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}
	if entries == nil {
		entries = []store.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
