package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	goNotes "github.com/MrEthical07/goNotes"
	"github.com/MrEthical07/goNotes/refresh"
	"github.com/MrEthical07/goNotes/store/memory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	t       *testing.T
	handler http.Handler
	engine  *goNotes.Engine
	store   *memory.Store
}

func newFixture(t *testing.T) *apiFixture {
	t.Helper()

	cfg := goNotes.DefaultConfig()
	cfg.JWT.SecretKey = []byte("httpapi-test-secret-0123456789")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1

	store := memory.New(nil)
	engine, err := goNotes.New().
		WithConfig(cfg).
		WithRegistry(refresh.NewMemoryRegistry(time.Now)).
		WithUserStore(store).
		WithNoteStore(store).
		Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("metrics"))
	})
	return &apiFixture{
		t:       t,
		handler: New(engine, zerolog.Nop(), Options{Metrics: metrics}),
		engine:  engine,
		store:   store,
	}
}

func (f *apiFixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	f.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (f *apiFixture) signup(email string) goNotes.TokenPair {
	f.t.Helper()
	rec := f.do(http.MethodPost, "/api/v2/auth/register", "", credentialsRequest{Email: email, Password: "password1234"})
	require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = f.do(http.MethodPost, "/api/v2/auth/login", "", credentialsRequest{Email: email, Password: "password1234"})
	require.Equal(f.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[goNotes.TokenPair](f.t, rec)
}

func TestAuthRoutes(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/v2/auth/register", "", credentialsRequest{Email: "Alice@Example.com", Password: "password1234"})
	require.Equal(t, http.StatusCreated, rec.Code)
	user := decode[userResponse](t, rec)
	assert.Equal(t, userResponse{ID: 1, Email: "alice@example.com"}, user)

	rec = f.do(http.MethodPost, "/api/v2/auth/register", "", credentialsRequest{Email: "alice@example.com", Password: "password1234"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "User already exists", decode[detailResponse](t, rec).Detail)

	rec = f.do(http.MethodPost, "/api/v2/auth/login", "", credentialsRequest{Email: "alice@example.com", Password: "wrong-password"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	rec = f.do(http.MethodPost, "/api/v2/auth/login", "", credentialsRequest{Email: "alice@example.com", Password: "password1234"})
	require.Equal(t, http.StatusOK, rec.Code)
	pair := decode[goNotes.TokenPair](t, rec)
	assert.Equal(t, "bearer", pair.TokenType)

	rec = f.do(http.MethodGet, "/api/v2/auth/me", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user, decode[userResponse](t, rec))

	rec = f.do(http.MethodPost, "/api/v2/auth/refresh", "", refreshRequest{RefreshToken: pair.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)
	rotated := decode[goNotes.TokenPair](t, rec)

	rec = f.do(http.MethodPost, "/api/v2/auth/refresh", "", refreshRequest{RefreshToken: pair.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, rec.Code, "replayed refresh token must be rejected")

	rec = f.do(http.MethodPost, "/api/v2/auth/logout", "", refreshRequest{RefreshToken: rotated.RefreshToken})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodPost, "/api/v2/auth/logout", "", refreshRequest{RefreshToken: rotated.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterValidationErrors(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/v2/auth/register", "", credentialsRequest{Email: "not-an-email", Password: "password1234"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(http.MethodPost, "/api/v2/auth/register", "", credentialsRequest{Email: "bob@example.com", Password: "short"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v2/auth/register", bytes.NewBufferString(`{"email": 5`))
	out := httptest.NewRecorder()
	f.handler.ServeHTTP(out, req)
	assert.Equal(t, http.StatusUnprocessableEntity, out.Code)
}

func TestNoteRoutes(t *testing.T) {
	f := newFixture(t)
	alice := f.signup("alice@example.com")
	bob := f.signup("bob@example.com")

	rec := f.do(http.MethodPost, "/api/v2/create", alice.AccessToken, createNoteRequest{Text: "buy milk", Date: "2025-03-01"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	note := decode[goNotes.Note](t, rec)
	assert.Equal(t, int64(1), note.ID)
	assert.Equal(t, "2025-03-01", note.Date)

	rec = f.do(http.MethodPost, "/api/v2/create", alice.AccessToken, createNoteRequest{Text: "call bob"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(2), decode[goNotes.Note](t, rec).ID)

	rec = f.do(http.MethodGet, "/api/v2/notes", alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]goNotes.Note](t, rec), 2)

	rec = f.do(http.MethodGet, "/api/v2/notes", bob.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = f.do(http.MethodGet, "/api/v2/1", bob.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "notes must not leak across users")

	rec = f.do(http.MethodPut, "/api/v2/1", alice.AccessToken, updateNoteRequest{Text: "buy oat milk"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[statusResponse](t, rec).Status)

	rec = f.do(http.MethodGet, "/api/v2/1", alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "buy oat milk", decode[goNotes.Note](t, rec).Text)

	rec = f.do(http.MethodDelete, "/api/v2/1", alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodDelete, "/api/v2/1", alice.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodGet, "/api/v2/abc", alice.AccessToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(http.MethodPost, "/api/v2/create", alice.AccessToken, createNoteRequest{Text: "x", Date: "yesterday"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newFixture(t)
	pair := f.signup("alice@example.com")

	for _, path := range []string{"/api/v2/notes", "/api/v2/auth/me", "/api/v2/1"} {
		rec := f.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)

		rec = f.do(http.MethodGet, path, pair.RefreshToken, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "refresh token used as access token on %s", path)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = f.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "metrics", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

type downEngine struct {
	Engine
}

func (downEngine) Ping(context.Context) error {
	return errors.Join(goNotes.ErrInfrastructure, context.DeadlineExceeded)
}

func TestHealthReportsBackendTimeout(t *testing.T) {
	h := New(downEngine{}, zerolog.Nop(), Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, http.StatusText(http.StatusGatewayTimeout), decode[detailResponse](t, rec).Detail)
}
