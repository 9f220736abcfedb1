package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/diddit/internal/middleware"
	"github.com/dukerupert/diddit/internal/model"
	"github.com/dukerupert/diddit/internal/store"
)

const sessionTTL = 30 * 24 * time.Hour

type AuthHandler struct {
	users      *store.UserStore
	households *store.HouseholdStore
	sessions   *store.SessionStore
	logger     *slog.Logger
}

func NewAuthHandler(users *store.UserStore, households *store.HouseholdStore, sessions *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, households: households, sessions: sessions, logger: logger}
}

type registerRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	HouseholdName string `json:"household_name"`
}

// Register creates a user, their household, an admin membership, and a
// session in a single request.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.HouseholdName = strings.TrimSpace(req.HouseholdName)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "valid email is required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if req.HouseholdName == "" {
		writeError(w, http.StatusBadRequest, "household name is required")
		return
	}

	existing, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("check existing user", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	user, err := h.users.Create(req.Email, string(hash))
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	household, err := h.households.Create(req.HouseholdName)
	if err != nil {
		h.logger.Error("create household", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	if _, err := h.households.AddMember(household.ID, user.ID, model.RoleAdmin); err != nil {
		h.logger.Error("add member", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	h.startSession(w, user.ID, household.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"user":      user,
		"household": household,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	user, err := h.users.GetByEmail(strings.TrimSpace(req.Email))
	if err != nil {
		h.logger.Error("get user", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	memberships, err := h.households.ListMembershipsForUser(user.ID)
	if err != nil {
		h.logger.Error("list memberships", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if len(memberships) == 0 {
		writeError(w, http.StatusForbidden, "no household membership")
		return
	}

	h.startSession(w, user.ID, memberships[0].HouseholdID)
	writeJSON(w, http.StatusOK, map[string]any{
		"user":         user,
		"household_id": memberships[0].HouseholdID,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Delete(cookie.Value); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, userID, householdID int64) {
	sess, err := h.sessions.Create(userID, householdID, sessionTTL)
	if err != nil {
		h.logger.Error("create session", "error", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
