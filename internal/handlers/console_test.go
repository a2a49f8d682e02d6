package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"gateway-console/internal/audit"
	"gateway-console/internal/config"
	"gateway-console/internal/gateway"
	"gateway-console/internal/logger"
	"gateway-console/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitSilent()
	os.Exit(m.Run())
}

// fakeBackend stands in for the gateway REST API and counts the requests
// it receives per path.
type fakeBackend struct {
	mu             sync.Mutex
	calls          map[string]int
	validateStatus int
	loginStatus    int
	loginBody      string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		calls:          make(map[string]int),
		validateStatus: http.StatusOK,
		loginStatus:    http.StatusOK,
		loginBody:      `{"userId":1,"username":"alice","role":"admin","token":"tok-live","expires":"2030-01-01T00:00:00Z"}`,
	}
}

func (f *fakeBackend) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls[r.URL.Path]++
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/auth/validateToken":
		w.WriteHeader(f.validateStatus)
		if f.validateStatus != http.StatusOK {
			w.Write([]byte(`{"error":"Invalid token"}`))
		}
	case "/api/auth/login":
		w.WriteHeader(f.loginStatus)
		if f.loginStatus == http.StatusOK {
			w.Write([]byte(f.loginBody))
		} else {
			w.Write([]byte(`{"error":"invalid username or password"}`))
		}
	case "/api/token_usage/user/usage/daily":
		w.Write([]byte(`[]`))
	case "/api/token/":
		if r.Method == http.MethodGet {
			w.Write([]byte(`[]`))
		}
	case "/api/user/":
		if r.Method == http.MethodGet {
			w.Write([]byte(`[{"id":1,"username":"alice","role":"admin"}]`))
		}
	default:
		w.WriteHeader(http.StatusOK)
	}
}

type consoleEnv struct {
	backend *fakeBackend
	store   *session.Store
	router  chi.Router
}

func newConsoleEnv(t *testing.T) *consoleEnv {
	t.Helper()

	backend := newFakeBackend()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	store := session.NewStore(nil)
	client := gateway.NewClient(srv.URL, 5*time.Second, store.Token)

	handler, err := NewConsoleHandler(&config.Config{}, store, client, nil, audit.NewRecorder(nil))
	require.NoError(t, err)

	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	return &consoleEnv{backend: backend, store: store, router: router}
}

func liveIdentity() session.Identity {
	return session.Identity{
		UserID:   1,
		Username: "alice",
		Role:     session.AdminRole,
		Token:    "tok-live",
		Expires:  time.Now().Add(time.Hour).Format(time.RFC3339),
	}
}

func (e *consoleEnv) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *consoleEnv) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestRequireSession_SentinelRedirectsWithoutBackendCall(t *testing.T) {
	env := newConsoleEnv(t)

	rec := env.get("/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Zero(t, env.backend.count("/api/auth/validateToken"))
}

func TestRequireSession_RejectedTokenRedirectsAndKeepsRecord(t *testing.T) {
	env := newConsoleEnv(t)
	id := liveIdentity()
	require.NoError(t, env.store.Write(id))
	env.backend.validateStatus = http.StatusUnauthorized

	rec := env.get("/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Equal(t, 1, env.backend.count("/api/auth/validateToken"))
	assert.Equal(t, id, env.store.Read(), "rejection must not clear the stored record")
}

func TestRequireSession_ValidTokenRendersOnce(t *testing.T) {
	env := newConsoleEnv(t)
	require.NoError(t, env.store.Write(liveIdentity()))

	rec := env.get("/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dashboard")
	assert.Equal(t, 1, env.backend.count("/api/auth/validateToken"), "exactly one validation per entry")
}

func TestRequireAdmin_NonAdminRedirectsWithoutFetch(t *testing.T) {
	env := newConsoleEnv(t)
	id := liveIdentity()
	id.Role = session.UserRole
	require.NoError(t, env.store.Write(id))

	rec := env.get("/user")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Zero(t, env.backend.count("/api/user/"), "gate must fire before any user fetch")
}

func TestRequireAdmin_AdminSeesUserList(t *testing.T) {
	env := newConsoleEnv(t)
	require.NoError(t, env.store.Write(liveIdentity()))

	rec := env.get("/user")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice")
	assert.Equal(t, 1, env.backend.count("/api/user/"))
}

func TestShowLogin_HeldSessionSkipsForm(t *testing.T) {
	env := newConsoleEnv(t)
	require.NoError(t, env.store.Write(liveIdentity()))

	rec := env.get("/login")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestShowLogin_ExpiredSessionShowsForm(t *testing.T) {
	env := newConsoleEnv(t)
	id := liveIdentity()
	id.Expires = time.Now().Add(-time.Minute).Format(time.RFC3339)
	require.NoError(t, env.store.Write(id))

	rec := env.get("/login")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "password")
}

func TestHandleLogin_SuccessPersistsWholeRecord(t *testing.T) {
	env := newConsoleEnv(t)

	rec := env.postForm("/login", url.Values{"username": {"alice"}, "password": {"pw"}})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	got := env.store.Read()
	assert.Equal(t, 1, got.UserID)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, session.AdminRole, got.Role)
	assert.Equal(t, "tok-live", got.Token)
}

func TestHandleLogin_FailureShowsServerMessage(t *testing.T) {
	env := newConsoleEnv(t)
	env.backend.loginStatus = http.StatusUnauthorized

	rec := env.postForm("/login", url.Values{"username": {"alice"}, "password": {"bad"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid username or password")
	assert.True(t, env.store.Read().IsSentinel(), "failed login must not install a session")
}

func TestHandleLogout_ClearsToSentinel(t *testing.T) {
	env := newConsoleEnv(t)
	require.NoError(t, env.store.Write(liveIdentity()))

	rec := env.postForm("/logout", url.Values{})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.True(t, env.store.Read().IsSentinel())
}

func TestCreateToken_RequiresName(t *testing.T) {
	env := newConsoleEnv(t)
	require.NoError(t, env.store.Write(liveIdentity()))

	rec := env.postForm("/token", url.Values{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, env.backend.count("/api/token/"))
}

func TestDeleteToken_ForwardsToBackend(t *testing.T) {
	env := newConsoleEnv(t)
	require.NoError(t, env.store.Write(liveIdentity()))

	rec := env.postForm("/token/7/delete", url.Values{})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/token", rec.Header().Get("Location"))
	assert.Equal(t, 1, env.backend.count("/api/token/7"))
}

func TestDeleteToken_RejectsBadID(t *testing.T) {
	env := newConsoleEnv(t)
	require.NoError(t, env.store.Write(liveIdentity()))

	rec := env.postForm("/token/abc/delete", url.Values{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateUser_DefaultsRole(t *testing.T) {
	env := newConsoleEnv(t)
	require.NoError(t, env.store.Write(liveIdentity()))

	rec := env.postForm("/user", url.Values{"username": {"bob"}, "password": {"pw"}})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/user", rec.Header().Get("Location"))
	assert.Equal(t, 1, env.backend.count("/api/user/"))
}

func TestCreateUser_RequiresCredentials(t *testing.T) {
	env := newConsoleEnv(t)
	require.NoError(t, env.store.Write(liveIdentity()))

	rec := env.postForm("/user", url.Values{"username": {"bob"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, env.backend.count("/api/user/"))
}
