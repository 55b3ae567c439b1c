// internal/httpserver/respond.go
//
// JSON response helpers.
// Responsibilities:
//   - Write JSON bodies with a status code.
//   - Map domain errors to a status and a stable error code; unknown errors
//     are logged and reported as "internal" without detail.

package httpserver

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/hangman/internal/game"
	"github.com/robalobadob/hangman/internal/hangman"
	"github.com/robalobadob/hangman/internal/store"
)

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

var (
	errBadJSON      = errors.New("request body is not valid JSON")
	errForbidden    = errors.New("token does not belong to this player")
	errUnauthorized = errors.New("invalid or expired token")
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to a status code and a stable error code.
// Anything unrecognised is logged and reported as a 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, status, errorBody{Error: code})
		return
	}
	writeJSON(w, status, errorBody{Error: code, Detail: err.Error()})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, game.ErrDuplicateLetter):
		return http.StatusBadRequest, "duplicate_letter"
	case errors.Is(err, game.ErrGameFinished):
		return http.StatusBadRequest, "game_finished"
	case errors.Is(err, hangman.ErrValidation), errors.Is(err, game.ErrInvalidLetter):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, errBadJSON):
		return http.StatusBadRequest, "bad_json"
	case errors.Is(err, errForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
