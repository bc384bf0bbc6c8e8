// internal/middleware/jwt.go
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gator-social/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// OnBehalfHeader names the space the caller acts for.
	OnBehalfHeader = "X-On-Behalf-Space"

	issuer = "gator-social"

	DefaultTokenTTL = 24 * time.Hour
)

// Claims represents the JWT claims for our application
type Claims struct {
	AccountID uuid.UUID `json:"account_id"`
	jwt.RegisteredClaims
}

// Authenticator signs and checks account tokens with a shared secret.
type Authenticator struct {
	secret      []byte
	unprotected map[string]bool
	now         func() time.Time
}

// NewAuthenticator returns an Authenticator; requests to the unprotected
// paths pass through without a token.
func NewAuthenticator(secret string, unprotected ...string) (*Authenticator, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	a := &Authenticator{
		secret:      []byte(secret),
		unprotected: make(map[string]bool, len(unprotected)),
		now:         time.Now,
	}
	for _, path := range unprotected {
		a.unprotected[path] = true
	}
	return a, nil
}

// GenerateToken creates a new JWT token for the given account
func (a *Authenticator) GenerateToken(account uuid.UUID, ttl time.Duration) (string, error) {
	now := a.now()
	claims := &Claims{
		AccountID: account,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   account.String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ValidateToken validates the provided JWT token
func (a *Authenticator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return a.secret, nil
		},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		if claims.AccountID == uuid.Nil {
			return nil, errors.New("token carries no account")
		}
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// Middleware validates the bearer token and stores the calling actor in the
// request context. The on-behalf space, if any, comes from OnBehalfHeader.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.unprotected[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "Invalid authorization format", http.StatusUnauthorized)
			return
		}

		claims, err := a.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid token: %v", err), http.StatusUnauthorized)
			return
		}

		actor := models.AccountActor(claims.AccountID)
		if raw := r.Header.Get(OnBehalfHeader); raw != "" {
			space, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || space == 0 {
				http.Error(w, "Invalid "+OnBehalfHeader+" header", http.StatusBadRequest)
				return
			}
			actor = models.SpaceActor(claims.AccountID, models.SpaceID(space))
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// Define a custom context key type to avoid collisions
type contextKey string

const actorKey contextKey = "actor"

// WithActor saves the calling actor in the request context
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext retrieves the calling actor from the context
func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(models.Actor)
	return actor, ok
}
