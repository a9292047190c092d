package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newLoginServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc, _ := newTestService(t, activeUser(t, "budi", "rahasia", "finance"))
	handler := NewHandler(slog.New(slog.NewTextHandler(testWriter{t}, nil)), svc)

	r := chi.NewRouter()
	handler.MountRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func TestLoginEndpoint(t *testing.T) {
	srv := newLoginServer(t)

	resp, err := http.Post(srv.URL+"/login", "application/json",
		strings.NewReader(`{"username":"budi","password":"rahasia"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		User        struct {
			Username string `json:"username"`
			RoleName string `json:"role_name"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "bearer", body.TokenType)
	require.Equal(t, "budi", body.User.Username)
	require.Equal(t, "finance", body.User.RoleName)

	claims, err := NewTokenIssuer("test-secret", time.Hour).Parse(body.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "budi", claims.Subject)
}

func TestLoginEndpointBadCredentials(t *testing.T) {
	srv := newLoginServer(t)

	resp, err := http.Post(srv.URL+"/login", "application/json",
		strings.NewReader(`{"username":"budi","password":"salah"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
}

func TestLoginEndpointMalformedBody(t *testing.T) {
	srv := newLoginServer(t)

	for _, payload := range []string{`{`, `{}`, `{"username":"budi"}`} {
		resp, err := http.Post(srv.URL+"/login", "application/json", strings.NewReader(payload))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}
}
