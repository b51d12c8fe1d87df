package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/azumag/JSMKC-sub006/internal/bracket"
	"github.com/azumag/JSMKC-sub006/internal/httputil"
	"github.com/azumag/JSMKC-sub006/internal/service"
	"github.com/azumag/JSMKC-sub006/internal/store"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type createBracketRequest struct {
	SeededPlayers []uuid.UUID `json:"seededPlayers"`
}

type recordResultRequest struct {
	MatchNumber int       `json:"matchNumber"`
	WinnerID    uuid.UUID `json:"winnerId"`
	LoserID     uuid.UUID `json:"loserId"`
}

func newRouter(database *sqlx.DB) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	bracketService := service.NewBracketService(store.NewBracketStore(database))

	r.Post("/brackets", func(w http.ResponseWriter, r *http.Request) {
		var req createBracketRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "Invalid request body", err)
			return
		}
		if len(req.SeededPlayers) != bracket.BracketSize {
			httputil.BadRequest(w, "Exactly 8 seeded players are required", nil)
			return
		}

		var seeded [bracket.BracketSize]uuid.UUID
		copy(seeded[:], req.SeededPlayers)

		bracketID, err := bracketService.CreateBracket(r.Context(), seeded)
		if err != nil {
			httputil.BadRequest(w, "Failed to create bracket", err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"bracketId": bracketID})
	})

	r.Post("/brackets/{bracketID}/results", func(w http.ResponseWriter, r *http.Request) {
		bracketID, err := uuid.Parse(chi.URLParam(r, "bracketID"))
		if err != nil {
			httputil.BadRequest(w, "Invalid bracket ID", err)
			return
		}

		var req recordResultRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "Invalid request body", err)
			return
		}

		outcome, err := bracketService.RecordResult(r.Context(), bracketID, req.MatchNumber, req.WinnerID, req.LoserID)
		if err != nil {
			writeAdvancementError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, outcome)
	})

	r.Get("/brackets/{bracketID}", func(w http.ResponseWriter, r *http.Request) {
		bracketID, err := uuid.Parse(chi.URLParam(r, "bracketID"))
		if err != nil {
			httputil.BadRequest(w, "Invalid bracket ID", err)
			return
		}

		matches, err := bracketService.GetBracketSnapshot(r.Context(), bracketID)
		if err != nil {
			httputil.InternalServerError(w, "Failed to load bracket", err)
			return
		}
		if len(matches) == 0 {
			httputil.NotFound(w, "Bracket not found", nil)
			return
		}
		writeJSON(w, http.StatusOK, matches)
	})

	r.Get("/brackets/{bracketID}/champion", func(w http.ResponseWriter, r *http.Request) {
		bracketID, err := uuid.Parse(chi.URLParam(r, "bracketID"))
		if err != nil {
			httputil.BadRequest(w, "Invalid bracket ID", err)
			return
		}

		champion, err := bracketService.Champion(r.Context(), bracketID)
		if err != nil {
			if errors.Is(err, bracket.ErrMatchNotFound) {
				httputil.NotFound(w, "Bracket not found", err)
				return
			}
			httputil.InternalServerError(w, "Failed to determine champion", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"champion": champion})
	})

	return r
}

func writeAdvancementError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, bracket.ErrMatchNotFound):
		httputil.NotFound(w, "Match not found", err)
	case errors.Is(err, bracket.ErrResultConflict), errors.Is(err, bracket.ErrDestinationSlotConflict):
		httputil.Conflict(w, "Conflicting result submission", err)
	case errors.Is(err, bracket.ErrInvalidResult):
		httputil.BadRequest(w, "Invalid result", err)
	default:
		httputil.InternalServerError(w, "Failed to record result", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
