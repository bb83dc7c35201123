package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"myvote/internal/poll"
)

type PollHandler struct {
	Svc *poll.Service
}

type pollDTO struct {
	PollID      uint64    `json:"pollId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	EndsAt      time.Time `json:"endsAt"`
	Kind        string    `json:"kind"`
	IsActive    bool      `json:"isActive"`
	OwnerUserID uint64    `json:"ownerUserId"`
}

func toPollDTOs(polls []poll.Poll) []pollDTO {
	out := make([]pollDTO, 0, len(polls))
	for _, p := range polls {
		out = append(out, pollDTO{
			PollID:      p.ID,
			Title:       p.Title,
			Description: p.Description,
			CreatedAt:   p.CreatedAt,
			EndsAt:      p.EndsAt,
			Kind:        p.Kind,
			IsActive:    p.Status == poll.StatusActive,
			OwnerUserID: p.OwnerID,
		})
	}
	return out
}

type createPollReq struct {
	UserID      uint64   `json:"userId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Kind        string   `json:"kind"`
	EndsAt      string   `json:"endsAt"` // RFC3339
	Choices     []string `json:"choices"`
}

func (h *PollHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPollReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		http.Error(w, "title required", http.StatusBadRequest)
		return
	}
	endsAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.EndsAt))
	if err != nil {
		http.Error(w, "invalid endsAt (RFC3339)", http.StatusBadRequest)
		return
	}

	choices := make([]string, 0, len(req.Choices))
	for _, c := range req.Choices {
		if c = strings.TrimSpace(c); c != "" {
			choices = append(choices, c)
		}
	}

	snap, err := h.Svc.CreatePoll(r.Context(), poll.CreatePollInput{
		OwnerID:     req.UserID,
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		Kind:        req.Kind,
		EndsAt:      endsAt,
		Choices:     choices,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (h *PollHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "pollID")
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	snap, err := h.Svc.GetPoll(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *PollHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "pollID")
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.Svc.DeletePoll(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PollHandler) End(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "pollID")
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	snap, err := h.Svc.EndPoll(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *PollHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "userID")
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	polls, err := h.Svc.PollsForUser(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPollDTOs(polls))
}

func (h *PollHandler) ListVoted(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "userID")
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	polls, err := h.Svc.VotedPolls(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPollDTOs(polls))
}

func (h *PollHandler) ListOwned(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "userID")
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	polls, err := h.Svc.OwnedPolls(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPollDTOs(polls))
}

func (h *PollHandler) Choices(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "pollID")
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	choices, err := h.Svc.PollChoices(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, choices)
}
