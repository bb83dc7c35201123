package http

import (
	"net/http"

	"myvote/internal/auth"
	"myvote/internal/broadcast"
	"myvote/internal/config"
	"myvote/internal/http/handler"
	mw "myvote/internal/http/middleware"
	"myvote/internal/poll"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"
)

func NewRouter(cfg config.Config, db *gorm.DB, tokens *auth.Tokens, hub *broadcast.Hub) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	svc := &poll.Service{DB: db, Hub: hub}
	uh := &handler.UserHandler{Svc: svc, Tokens: tokens}
	ph := &handler.PollHandler{Svc: svc}
	vh := &handler.VoteHandler{Svc: svc}
	sh := &handler.SuggestionHandler{Svc: svc}

	r.Route("/api", func(r chi.Router) {
		r.Get("/track", uh.Track)
		r.Get("/user/{userID}", uh.Get)
		r.Post("/user", uh.Create)

		r.Get("/polls/{userID}", ph.ListForUser)
		r.Get("/polls/voted/{userID}", ph.ListVoted)
		r.Get("/polls/owned/{userID}", ph.ListOwned)

		r.Post("/poll", ph.Create)
		r.Get("/poll/{pollID}", ph.Get)
		r.Delete("/poll/{pollID}", ph.Delete)
		r.Patch("/poll/{pollID}/end", ph.End)

		r.Patch("/poll/vote", vh.Cast)
		r.Patch("/poll/vote/remove", vh.Remove)
		r.Delete("/poll/{pollID}/user/{userID}", vh.RemoveAll)

		r.Patch("/poll/suggestion", sh.Promote)
		r.Patch("/poll/survey/opinion", sh.Opinion)
		r.Post("/suggestion", sh.Record)
		r.Get("/suggestions/{userID}", sh.List)
		r.Delete("/suggestion/{suggestionID}", sh.Delete)

		r.Get("/choices/{pollID}", ph.Choices)

		// live event stream for connected viewers
		r.Get("/events", hub.ServeHTTP)
	})

	return r
}
