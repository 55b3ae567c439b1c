// internal/httpserver/auth.go
//
// Player tokens.
// Responsibilities:
//   - Sign an HS256 JWT for a player at registration.
//   - Optional auth middleware: a Bearer token, when present, must be valid
//     and name an existing player; the player id is then put on the context.
//   - Ownership checks for start/guess.

package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/robalobadob/hangman/internal/game"
)

const defaultTokenTTL = 14 * 24 * time.Hour

type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newTokenIssuer(secret string, ttl time.Duration) *tokenIssuer {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &tokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// sign issues a token whose subject is the player id.
func (t *tokenIssuer) sign(p game.Player) (string, error) {
	now := t.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.FormatInt(p.ID, 10),
		"name": p.Name,
		"iat":  now.Unix(),
		"exp":  now.Add(t.ttl).Unix(),
	})
	return tok.SignedString(t.secret)
}

// parse validates tok and returns the player id it carries.
func (t *tokenIssuer) parse(tok string) (int64, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(tok, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return 0, errUnauthorized
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return 0, errUnauthorized
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id <= 0 {
		return 0, errUnauthorized
	}
	return id, nil
}

type ctxPlayerKey struct{}

// withOptionalAuth lets requests without a token through untouched.
// A token that fails to parse, or names a player that no longer exists, is a 401.
func (s *Server) withOptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := bearer(r)
		if tok == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := s.tokens.parse(tok)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if _, err := s.svc.Player(r.Context(), id); err != nil {
			writeError(w, r, errUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ctxPlayerKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearer(r *http.Request) string {
	// Authorization: Bearer <token>
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	return ""
}

// authPlayer returns the authenticated player id, if any.
func authPlayer(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxPlayerKey{}).(int64)
	return id, ok
}

// checkOwner fails with errForbidden when the request is authenticated as
// someone other than playerID.
func checkOwner(ctx context.Context, playerID int64) error {
	id, ok := authPlayer(ctx)
	if !ok || id == playerID {
		return nil
	}
	return fmt.Errorf("%w: player %d", errForbidden, playerID)
}
