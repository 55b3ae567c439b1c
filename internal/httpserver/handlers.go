// internal/httpserver/handlers.go
//
// Route handlers for players, games and the scoreboard.
// Responsibilities:
//   - Decode JSON bodies (goccy/go-json) and validate them (validator/v10).
//   - Call the hangman service and shape responses: masked_word is
//     space-separated, hit is only set on guesses, tried_letters is always an array.

package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/robalobadob/hangman/internal/game"
	"github.com/robalobadob/hangman/internal/hangman"
)

const maxBodyBytes = 1 << 16

// --- request / response shapes ---

type registerReq struct {
	Name string `json:"name" validate:"required,max=64"`
}

type startReq struct {
	PlayerID int64   `json:"player_id" validate:"required,gt=0"`
	Word     *string `json:"word,omitempty"`
}

type guessReq struct {
	GameID int64  `json:"game_id" validate:"required,gt=0"`
	Letter string `json:"letter" validate:"required"`
}

type playerRes struct {
	PlayerID int64  `json:"player_id"`
	Name     string `json:"name"`
	Token    string `json:"token,omitempty"`
}

type gameRes struct {
	GameID       int64    `json:"game_id"`
	MaskedWord   string   `json:"masked_word"`
	AttemptsLeft int      `json:"attempts_left"`
	Hit          *bool    `json:"hit,omitempty"`
	Status       string   `json:"status"`
	TriedLetters []string `json:"tried_letters"`
}

func toGameRes(g game.Game) gameRes {
	return gameRes{
		GameID:       g.ID,
		MaskedWord:   game.FormatForDisplay(g.MaskedWord),
		AttemptsLeft: g.AttemptsLeft,
		Status:       string(g.Status),
		TriedLetters: g.TriedLetters.Strings(),
	}
}

// --- decoding ---

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names in errors.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and validates it.
func decode(r *http.Request, dst any) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+" failed "+fe.Tag())
			}
			return fmt.Errorf("%w: %s", hangman.ErrValidation, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", hangman.ErrValidation, err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id must be a positive integer", hangman.ErrValidation)
	}
	return id, nil
}

// --- players ---

func (s *Server) handleRegisterPlayer(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.svc.RegisterPlayer(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tok, err := s.tokens.sign(p)
	if err != nil {
		writeError(w, r, fmt.Errorf("sign token: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, playerRes{PlayerID: p.ID, Name: p.Name, Token: tok})
}

func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.svc.Player(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playerRes{PlayerID: p.ID, Name: p.Name})
}

// --- games ---

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := checkOwner(r.Context(), req.PlayerID); err != nil {
		writeError(w, r, err)
		return
	}
	word := ""
	if req.Word != nil {
		word = *req.Word
	}
	g, err := s.svc.Start(r.Context(), req.PlayerID, word)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGameRes(g))
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if _, ok := authPlayer(r.Context()); ok {
		cur, err := s.svc.Status(r.Context(), req.GameID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := checkOwner(r.Context(), cur.PlayerID); err != nil {
			writeError(w, r, err)
			return
		}
	}
	res, err := s.svc.Guess(r.Context(), req.GameID, req.Letter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := toGameRes(res.Game)
	hit := res.Hit
	out.Hit = &hit
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.svc.Status(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGameRes(g))
}

// --- scoreboard ---

func (s *Server) handleScoreboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.Scoreboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
