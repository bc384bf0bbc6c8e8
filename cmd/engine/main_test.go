package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"gator-social/internal/config"
	"gator-social/internal/middleware"

	"github.com/bytedance/sonic"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Parse(env.Options{Environment: map[string]string{
		"JWT_SECRET": "integration-secret",
	}})
	require.NoError(t, err)
	return cfg
}

func TestIntegrationFlow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := NewApp(ctx, testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer app.Close(context.Background())
	go app.Hub.Run(ctx)

	server := httptest.NewServer(app.Server.Routes())
	defer server.Close()

	auth, err := middleware.NewAuthenticator("integration-secret")
	require.NoError(t, err)
	alice := uuid.New()
	token, err := auth.GenerateToken(alice, middleware.DefaultTokenTTL)
	require.NoError(t, err)

	call := func(method, path string, body any) *http.Response {
		var buf bytes.Buffer
		if body != nil {
			data, err := sonic.Marshal(body)
			require.NoError(t, err)
			buf.Write(data)
		}
		req, err := http.NewRequest(method, server.URL+path, &buf)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	resp := call(http.MethodPost, "/spaces", map[string]any{"handle": "swamp_talk"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = call(http.MethodGet, "/handles/swamp_talk", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	height, err := app.Engine.Height(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), height)

	resp, err = http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewAppRequiresSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.JWTSecret = ""

	_, err := NewApp(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestNewAppRejectsUnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Backend = "etcd"

	_, err := NewApp(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "unknown store backend")
}
