package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gator-social/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	auth, err := NewAuthenticator("test-secret")
	require.NoError(t, err)

	account := uuid.New()
	token, err := auth.GenerateToken(account, time.Hour)
	require.NoError(t, err)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, account, claims.AccountID)

	other, err := NewAuthenticator("other-secret")
	require.NoError(t, err)
	_, err = other.ValidateToken(token)
	assert.Error(t, err)

	expired, err := auth.GenerateToken(account, -time.Minute)
	require.NoError(t, err)
	_, err = auth.ValidateToken(expired)
	assert.Error(t, err)

	_, err = NewAuthenticator("")
	assert.Error(t, err)
}

func TestMiddlewareResolvesActor(t *testing.T) {
	auth, err := NewAuthenticator("test-secret", "/health")
	require.NoError(t, err)
	account := uuid.New()
	token, err := auth.GenerateToken(account, time.Hour)
	require.NoError(t, err)

	var got models.Actor
	var found bool
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name     string
		path     string
		header   string
		onBehalf string
		status   int
		actor    models.Actor
		found    bool
	}{
		{name: "unprotected", path: "/health", status: http.StatusNoContent},
		{name: "missing token", path: "/spaces", status: http.StatusUnauthorized},
		{name: "bad scheme", path: "/spaces", header: "Token " + token, status: http.StatusUnauthorized},
		{name: "bad token", path: "/spaces", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "account", path: "/spaces", header: "Bearer " + token, status: http.StatusNoContent,
			actor: models.AccountActor(account), found: true},
		{name: "on behalf", path: "/spaces", header: "Bearer " + token, onBehalf: "7", status: http.StatusNoContent,
			actor: models.SpaceActor(account, 7), found: true},
		{name: "bad on behalf", path: "/spaces", header: "Bearer " + token, onBehalf: "x", status: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, found = models.Actor{}, false
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.onBehalf != "" {
				req.Header.Set(OnBehalfHeader, tc.onBehalf)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.found, found)
			assert.Equal(t, tc.actor, got)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := CORS(NewOriginPolicy([]string{"https://app.example"}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/spaces", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), OnBehalfHeader)

	req = httptest.NewRequest(http.MethodGet, "/spaces", nil)
	req.Header.Set("Origin", "https://app.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/spaces", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestOriginPolicy(t *testing.T) {
	policy := NewOriginPolicy([]string{"https://app.example", "https://*.gator.dev/"})

	assert.True(t, policy.Allows("https://app.example"))
	assert.True(t, policy.Allows("https://beta.gator.dev"))
	assert.False(t, policy.Allows("http://beta.gator.dev"))
	assert.False(t, policy.Allows("https://gator.dev"))
	assert.False(t, policy.Allows("https://evilgator.dev"))
	assert.False(t, policy.Allows(""))

	assert.True(t, NewOriginPolicy(nil).Allows("https://anything.example"))
	assert.True(t, NewOriginPolicy([]string{"*"}).Allows("https://anything.example"))

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, policy.CheckOrigin(req))
	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, policy.CheckOrigin(req))
}
