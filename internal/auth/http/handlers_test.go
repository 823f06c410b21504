package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/starkpulse/auth/internal/auth/mail"
	"github.com/starkpulse/auth/internal/auth/service"
	"github.com/starkpulse/auth/internal/auth/store/drivers/sqlite"
	"github.com/starkpulse/auth/pkg/cryptox"
	"github.com/starkpulse/auth/pkg/jwtx"
)

func TestMain(m *testing.M) {
	pepperPath := filepath.Join(os.TempDir(), "authhttp-test-pepper")
	cryptox.SetPepperPath(pepperPath)

	os.Remove(pepperPath)
	defer os.Remove(pepperPath)

	os.Exit(m.Run())
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	signer, err := jwtx.NewSigner("starkpulse-test",
		[]byte("test-access-secret-0123456789abcdef"),
		[]byte("test-refresh-secret-0123456789abcde"),
	)
	require.NoError(t, err)

	tokens := &service.TokenService{
		Signer:     signer,
		AccessTTL:  jwtx.DefaultAccessTokenTTL,
		RefreshTTL: jwtx.DefaultRefreshTokenTTL,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := NewRouter(signer, "test", st, logger, []string{"*"})
	router.AuthService = &service.AuthService{
		Store:            st,
		Tokens:           tokens,
		Mailer:           mail.NewLogMailer(),
		MaxLoginAttempts: 5,
		LockWindow:       15 * time.Minute,
		VerificationTTL:  24 * time.Hour,
		ResetTTL:         time.Hour,
		RevokeOnReuse:    true,
	}
	router.UserService = &service.UserService{Store: st}
	router.MFAService = &service.MFAService{Store: st, Issuer: "StarkPulse"}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, srv *httptest.Server, path string, body any) *http.Response {
	t.Helper()

	buf, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

type authResponse struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	Tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
	} `json:"tokens"`
}

func registerViaAPI(t *testing.T, srv *httptest.Server, username, email string) authResponse {
	t.Helper()

	resp := postJSON(t, srv, "/v1/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": "Sup3rSecret",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body authResponse
	decodeBody(t, resp, &body)
	return body
}

func TestRegisterEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body := registerViaAPI(t, srv, "alice", "alice@example.com")
	require.Equal(t, "alice@example.com", body.User.Email)
	require.NotEmpty(t, body.Tokens.AccessToken)
	require.Equal(t, "Bearer", body.Tokens.TokenType)

	t.Run("validation failure", func(t *testing.T) {
		resp := postJSON(t, srv, "/v1/auth/register", map[string]string{
			"username": "x",
			"email":    "nope",
			"password": "short",
		})
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var apiErr struct {
			Err    string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}
		decodeBody(t, resp, &apiErr)
		require.Equal(t, "validation_failed", apiErr.Err)
		require.Len(t, apiErr.Fields, 3)
	})

	t.Run("duplicate email", func(t *testing.T) {
		resp := postJSON(t, srv, "/v1/auth/register", map[string]string{
			"username": "alice2",
			"email":    "alice@example.com",
			"password": "Sup3rSecret",
		})
		require.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/v1/auth/register", "application/json", bytes.NewReader([]byte("{")))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestLoginEndpoint(t *testing.T) {
	srv := newTestServer(t)
	registerViaAPI(t, srv, "bob", "bob@example.com")

	resp := postJSON(t, srv, "/v1/auth/login", map[string]string{
		"email":    "bob@example.com",
		"password": "Sup3rSecret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body authResponse
	decodeBody(t, resp, &body)
	require.NotEmpty(t, body.Tokens.RefreshToken)
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	t.Run("wrong password", func(t *testing.T) {
		resp := postJSON(t, srv, "/v1/auth/login", map[string]string{
			"email":    "bob@example.com",
			"password": "wrong",
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var apiErr struct {
			Err string `json:"error"`
		}
		decodeBody(t, resp, &apiErr)
		require.Equal(t, "invalid_credentials", apiErr.Err)
	})
}

func TestRefreshEndpoint(t *testing.T) {
	srv := newTestServer(t)
	registered := registerViaAPI(t, srv, "carol", "carol@example.com")

	resp := postJSON(t, srv, "/v1/auth/refresh", map[string]string{
		"refresh_token": registered.Tokens.RefreshToken,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rotated authResponse
	decodeBody(t, resp, &rotated)
	require.NotEqual(t, registered.Tokens.RefreshToken, rotated.Tokens.RefreshToken)

	t.Run("replay is rejected", func(t *testing.T) {
		resp := postJSON(t, srv, "/v1/auth/refresh", map[string]string{
			"refresh_token": registered.Tokens.RefreshToken,
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func authedPostJSON(t *testing.T, srv *httptest.Server, path, accessToken string, body any) *http.Response {
	t.Helper()

	buf, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, srv.URL+path, bytes.NewReader(buf))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestLogoutEndpoint(t *testing.T) {
	srv := newTestServer(t)
	registered := registerViaAPI(t, srv, "dave", "dave@example.com")

	t.Run("requires authentication", func(t *testing.T) {
		resp := postJSON(t, srv, "/v1/auth/logout", map[string]string{
			"refresh_token": registered.Tokens.RefreshToken,
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	resp := authedPostJSON(t, srv, "/v1/auth/logout", registered.Tokens.AccessToken, map[string]string{
		"refresh_token": registered.Tokens.RefreshToken,
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = postJSON(t, srv, "/v1/auth/refresh", map[string]string{
		"refresh_token": registered.Tokens.RefreshToken,
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutAllEndpoint(t *testing.T) {
	srv := newTestServer(t)
	registered := registerViaAPI(t, srv, "grace", "grace@example.com")

	resp := postJSON(t, srv, "/v1/auth/login", map[string]string{
		"email":    "grace@example.com",
		"password": "Sup3rSecret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var second authResponse
	decodeBody(t, resp, &second)

	resp = authedPostJSON(t, srv, "/v1/auth/logout-all", registered.Tokens.AccessToken, struct{}{})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	for _, token := range []string{registered.Tokens.RefreshToken, second.Tokens.RefreshToken} {
		resp := postJSON(t, srv, "/v1/auth/refresh", map[string]string{"refresh_token": token})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func authedGet(t *testing.T, srv *httptest.Server, path, accessToken string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestMeEndpoint(t *testing.T) {
	srv := newTestServer(t)
	registered := registerViaAPI(t, srv, "erin", "erin@example.com")

	resp := authedGet(t, srv, "/v1/me", registered.Tokens.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var user struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	decodeBody(t, resp, &user)
	require.Equal(t, registered.User.ID, user.ID)
	require.Equal(t, "erin", user.Username)

	t.Run("missing token", func(t *testing.T) {
		resp := authedGet(t, srv, "/v1/me", "")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.NotEmpty(t, resp.Header.Get("WWW-Authenticate"))
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		resp := authedGet(t, srv, "/v1/me", registered.Tokens.RefreshToken)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestSessionsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	registered := registerViaAPI(t, srv, "frank", "frank@example.com")

	// A second login adds a second session.
	resp := postJSON(t, srv, "/v1/auth/login", map[string]string{
		"email":    "frank@example.com",
		"password": "Sup3rSecret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = authedGet(t, srv, "/v1/sessions", registered.Tokens.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Sessions []struct {
			ID        string    `json:"id"`
			IssuedAt  time.Time `json:"issued_at"`
			ExpiresAt time.Time `json:"expires_at"`
		} `json:"sessions"`
	}
	decodeBody(t, resp, &body)
	require.Len(t, body.Sessions, 2)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/livez")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ready struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	decodeBody(t, resp, &ready)
	require.Equal(t, "ok", ready.Status)
	require.Equal(t, "ok", ready.Database)
}
