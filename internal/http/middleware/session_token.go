package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionTokenIssuer = "marketier-assistant"
	sessionClaimsKey   contextKey = "sessionClaims"
)

type contextKey string

// SessionTokens issues and verifies HMAC-signed tokens that bind a client to
// one chat session.
type SessionTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionTokens returns nil when secret is empty, which disables session
// tokens.
func NewSessionTokens(secret string, ttl time.Duration) *SessionTokens {
	if strings.TrimSpace(secret) == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &SessionTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for sessionID.
func (s *SessionTokens) Issue(sessionID string) (string, error) {
	if s == nil {
		return "", errors.New("middleware: session tokens disabled")
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    sessionTokenIssuer,
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses a token and returns its claims.
func (s *SessionTokens) Verify(tokenString string) (jwt.RegisteredClaims, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithIssuer(sessionTokenIssuer), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return jwt.RegisteredClaims{}, err
	}
	if !token.Valid {
		return jwt.RegisteredClaims{}, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// Require rejects requests whose token is missing, invalid, or issued for a
// different session than the {sessionID} route parameter. Browsers cannot set
// headers on websocket upgrades, so a "token" query parameter is accepted too.
// A nil SessionTokens lets every request through.
func (s *SessionTokens) Require(next http.Handler) http.Handler {
	if s == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)
		if tokenString == "" {
			http.Error(w, "missing session token", http.StatusUnauthorized)
			return
		}
		claims, err := s.Verify(tokenString)
		if err != nil {
			http.Error(w, "invalid session token", http.StatusUnauthorized)
			return
		}
		if sessionID := chi.URLParam(r, "sessionID"); sessionID == "" || claims.Subject != sessionID {
			http.Error(w, "session token does not match session", http.StatusForbidden)
			return
		}
		ctx := context.WithValue(r.Context(), sessionClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionClaimsFromContext returns the verified session claims if present.
func SessionClaimsFromContext(ctx context.Context) (jwt.RegisteredClaims, bool) {
	claims, ok := ctx.Value(sessionClaimsKey).(jwt.RegisteredClaims)
	return claims, ok
}

func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}
