package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"myvote/internal/poll"
)

type SuggestionHandler struct {
	Svc *poll.Service
}

type suggestionReq struct {
	PollID uint64 `json:"pollId"`
	UserID uint64 `json:"userId"`
	Label  string `json:"label"`
}

func (s *suggestionReq) decode(r *http.Request) error {
	if err := json.NewDecoder(r.Body).Decode(s); err != nil {
		return err
	}
	s.Label = strings.TrimSpace(s.Label)
	return nil
}

// Promote turns a free-text suggestion into a live choice on the poll.
func (h *SuggestionHandler) Promote(w http.ResponseWriter, r *http.Request) {
	var req suggestionReq
	if err := req.decode(r); err != nil || req.Label == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	snap, err := h.Svc.ProposeChoice(r.Context(), req.PollID, req.UserID, req.Label)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Opinion appends a survey opinion as a new choice.
func (h *SuggestionHandler) Opinion(w http.ResponseWriter, r *http.Request) {
	var req suggestionReq
	if err := req.decode(r); err != nil || req.Label == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	snap, err := h.Svc.AddOpinion(r.Context(), req.PollID, req.UserID, req.Label)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Record stores the suggestion as an audit record without touching the
// ballot.
func (h *SuggestionHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req suggestionReq
	if err := req.decode(r); err != nil || req.Label == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	snap, err := h.Svc.RecordSuggestion(r.Context(), req.PollID, req.UserID, req.Label)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type suggestionDTO struct {
	SuggestionID uint64    `json:"suggestionId"`
	PollID       uint64    `json:"pollId"`
	UserID       uint64    `json:"userId"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (h *SuggestionHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "userID")
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	suggestions, err := h.Svc.SuggestionsByUser(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]suggestionDTO, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, suggestionDTO{
			SuggestionID: s.ID,
			PollID:       s.PollID,
			UserID:       s.UserID,
			Text:         s.Text,
			CreatedAt:    s.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *SuggestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "suggestionID")
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.Svc.DeleteSuggestion(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
