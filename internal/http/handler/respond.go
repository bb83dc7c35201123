package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"myvote/internal/poll"

	"github.com/go-chi/chi/v5"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto the status codes the API has always
// used: 410 for mutations against an ended poll, 400 for undoing a vote
// that does not exist, 404 for missing entities.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, poll.ErrVoteNotFound):
		http.Error(w, "user has not voted for this choice", http.StatusBadRequest)
	case errors.Is(err, poll.ErrPollEnded):
		http.Error(w, "poll is no longer active", http.StatusGone)
	case errors.Is(err, poll.ErrPollNotFound),
		errors.Is(err, poll.ErrUserNotFound),
		errors.Is(err, poll.ErrChoiceNotFound),
		errors.Is(err, poll.ErrSuggestionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}

func parseID(r *http.Request, param string) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, param), 10, 64)
}
