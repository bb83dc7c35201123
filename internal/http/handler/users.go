package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"myvote/internal/auth"
	"myvote/internal/poll"

	"github.com/google/uuid"
)

type UserHandler struct {
	Svc    *poll.Service
	Tokens *auth.Tokens
}

type userDTO struct {
	UserID      uint64 `json:"userId"`
	DisplayName string `json:"displayName"`
}

// Track resolves the visitor behind the tracking cookie, creating a
// Guest user (and a fresh signed cookie) on first contact. A cookie that
// fails verification or points at a deleted user is treated the same as
// no cookie at all.
func (h *UserHandler) Track(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(auth.CookieName); err == nil && c.Value != "" {
		if uid, tok, err := h.Tokens.Verify(c.Value); err == nil {
			u, err := h.Svc.GetUser(r.Context(), uid)
			if err == nil && u.TrackingToken == tok {
				writeJSON(w, http.StatusOK, map[string]any{
					"message": "Existing user found",
					"userId":  u.ID,
				})
				return
			}
		}
	}

	token := uuid.NewString()
	u, err := h.Svc.CreateUser(r.Context(), "Guest", token)
	if err != nil {
		writeError(w, err)
		return
	}

	signed, err := h.Tokens.Sign(u.ID, token)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	auth.SetCookie(w, signed)

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "New user tracked",
		"userId":  u.ID,
	})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "userID")
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	u, err := h.Svc.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userDTO{UserID: u.ID, DisplayName: u.DisplayName})
}

type createUserReq struct {
	DisplayName string `json:"displayName"`
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.DisplayName == "" {
		http.Error(w, "displayName required", http.StatusBadRequest)
		return
	}

	u, err := h.Svc.CreateUser(r.Context(), req.DisplayName, uuid.NewString())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, userDTO{UserID: u.ID, DisplayName: u.DisplayName})
}
