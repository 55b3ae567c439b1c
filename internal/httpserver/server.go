// internal/httpserver/server.go
//
// HTTP server wiring for the Hangman backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs,
//     zerolog access log).
//   - Public endpoints: "/", "/health", "/debug/words".
//   - Player endpoints: POST /players, GET /players/{id}.
//   - Game endpoints: POST /games/start, POST /games/guess, GET /games/status/{id},
//     mirrored under /hangman for clients of the first API version.
//   - Scoreboard: GET /scoreboard (and /hangman/scoreboard).
//
// Notes:
//   - Auth is optional: a valid player token restricts a request to that
//     player's games; requests without a token are served as-is.
//   - All handlers speak JSON; errors are {"error": code, "detail": message}.

package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/hangman/internal/hangman"
)

// Options configures a Server.
type Options struct {
	ClientOrigin   string        // "*" reflects the request origin
	JWTSecret      string        // signs player tokens
	TokenTTL       time.Duration // lifetime of player tokens
	RequestTimeout time.Duration // per-request handler budget
	VocabularySize int           // reported by /debug/words
	Logger         *zerolog.Logger
}

// Server bundles the router and the game service.
type Server struct {
	r      *chi.Mux
	svc    *hangman.Service
	tokens *tokenIssuer
	opts   Options
}

// New constructs a Server, installs middleware, and registers routes.
func New(svc *hangman.Service, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = &log.Logger
	}
	s := &Server{
		r:      chi.NewRouter(),
		svc:    svc,
		tokens: newTokenIssuer(opts.JWTSecret, opts.TokenTTL),
		opts:   opts,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                    // add X-Request-ID
	s.r.Use(chimw.RealIP)                       // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(*opts.Logger))      // request-scoped logger in context
	s.r.Use(requestIDLogger)                    // tag that logger with the request id
	s.r.Use(accessLog())                        // one line per request
	s.r.Use(chimw.Recoverer)                    // recover from panics
	s.r.Use(chimw.Timeout(opts.RequestTimeout)) // bound handler time
	s.r.Use(jsonContentType)                    // default JSON responses
	s.r.Use(corsFor(opts.ClientOrigin))         // CORS
	s.r.Use(s.withOptionalAuth)                 // player token, if any

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service": "hangman-go",
			"endpoints": []string{
				"POST /players", "GET /players/{id}",
				"POST /games/start", "POST /games/guess", "GET /games/status/{id}",
				"GET /scoreboard", "/health",
			},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	s.r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]int{"words": s.opts.VocabularySize})
	})

	// --- players ---
	s.r.Post("/players", s.handleRegisterPlayer)
	s.r.Get("/players/{id}", s.handleGetPlayer)

	// --- games ---
	s.r.Route("/games", s.mountGameRoutes)
	s.r.Route("/hangman", func(r chi.Router) {
		s.mountGameRoutes(r)
		r.Get("/scoreboard", s.handleScoreboard)
	})
	s.r.Get("/scoreboard", s.handleScoreboard)

	// JSON 404/405 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Detail: "no route for " + r.URL.Path})
	})
	s.r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method_not_allowed", Detail: r.Method + " " + r.URL.Path})
	})

	return s
}

func (s *Server) mountGameRoutes(r chi.Router) {
	r.Post("/start", s.handleStart)
	r.Post("/guess", s.handleGuess)
	r.Get("/status/{id}", s.handleStatus)
}

// Router exposes the internal router (used by main and tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFor enables credentialed CORS for origin. "*" (or empty) reflects the
// caller's Origin header, so any site may call the API with credentials.
func corsFor(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allow := origin
			if allow == "" || allow == "*" {
				allow = r.Header.Get("Origin")
			}
			if allow != "" {
				w.Header().Add("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Origin", allow)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestIDLogger adds chi's request id to the request-scoped logger.
func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimw.GetReqID(r.Context()); id != "" {
			l := zerolog.Ctx(r.Context())
			l.UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("requestId", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

// accessLog writes one info line per request with status and latency.
func accessLog() func(http.Handler) http.Handler {
	return hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", d).
			Msg("request")
	})
}
