package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"myvote/internal/poll"
)

type VoteHandler struct {
	Svc *poll.Service
}

type voteReq struct {
	UserID   uint64 `json:"userId"`
	ChoiceID uint64 `json:"choiceId"`
}

func (h *VoteHandler) Cast(w http.ResponseWriter, r *http.Request) {
	var req voteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	snap, err := h.Svc.CastVote(r.Context(), req.UserID, req.ChoiceID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *VoteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	var req voteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	snap, err := h.Svc.RemoveVote(r.Context(), req.UserID, req.ChoiceID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// RemoveAll withdraws a user from every choice of one poll.
func (h *VoteHandler) RemoveAll(w http.ResponseWriter, r *http.Request) {
	pollID, err := parseID(r, "pollID")
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	userID, err := parseID(r, "userID")
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.Svc.RemoveUserVotes(r.Context(), pollID, userID); err != nil {
		// leaving a poll never voted in is a missing resource, not a
		// malformed request like the per-choice undo
		if errors.Is(err, poll.ErrVoteNotFound) {
			http.Error(w, "user has not voted on this poll", http.StatusNotFound)
			return
		}
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
