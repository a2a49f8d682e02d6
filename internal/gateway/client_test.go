package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"gateway-console/internal/logger"
	"gateway-console/internal/usage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitSilent()
	os.Exit(m.Run())
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, func() string { return "tok-test" })
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice", body["username"])
		assert.Equal(t, "hunter2", body["password"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"userId":3,"username":"alice","role":"admin","token":"issued","expires":"2030-01-01T00:00:00Z"}`))
	}))

	id, err := client.Login(context.Background(), "alice", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, 3, id.UserID)
	assert.Equal(t, "alice", id.Username)
	assert.Equal(t, "admin", id.Role)
	assert.Equal(t, "issued", id.Token)
}

func TestLogin_RejectedCarriesServerMessage(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid username or password"}`))
	}))

	id, err := client.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.True(t, id.IsSentinel())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "invalid username or password", apiErr.Message)
}

func TestValidateToken_SendsTokenHeader(t *testing.T) {
	t.Parallel()

	var gotHeader string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/validateToken", r.URL.Path)
		gotHeader = r.Header.Get("Token")
		w.WriteHeader(http.StatusOK)
	}))

	require.NoError(t, client.ValidateToken(context.Background()))
	assert.Equal(t, "tok-test", gotHeader)
}

func TestValidateToken_Rejected(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Invalid token"}`))
	}))

	err := client.ValidateToken(context.Background())
	require.Error(t, err)
	assert.True(t, IsAPIError(err))
}

func TestDailyUsage_QueryAndDecode(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/token_usage/user/usage/daily", r.URL.Path)
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("start"))
		assert.Equal(t, "2024-01-07", r.URL.Query().Get("end"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"date":"2024-01-02","promptTokens":5,"responseTokens":2}]`))
	}))

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.Local)
	end := time.Date(2024, time.January, 7, 0, 0, 0, 0, time.Local)

	samples, err := client.DailyUsage(context.Background(), start, end)
	require.NoError(t, err)
	assert.Equal(t, []usage.Sample{{Date: "2024-01-02", PromptTokens: 5, ResponseTokens: 2}}, samples)
}

func TestTokenOperations(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		switch {
		case r.Method == http.MethodGet:
			w.Write([]byte(`[{"id":1,"name":"ci","token":"secret","createdAt":1700000000000}]`))
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))

	ctx := context.Background()

	tokens, err := client.ListTokens(ctx)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, AccessToken{ID: 1, Name: "ci", Token: "secret", CreatedAt: 1700000000000}, tokens[0])
	assert.Equal(t, "/api/token/", gotPath)

	require.NoError(t, client.CreateToken(ctx, "ci"))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/token/", gotPath)

	require.NoError(t, client.DeleteToken(ctx, 42))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/api/token/42", gotPath)
}

func TestUserOperations(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath string
	var gotBody map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		gotBody = nil
		if r.Body != nil {
			json.NewDecoder(r.Body).Decode(&gotBody)
		}
		if r.Method == http.MethodGet {
			w.Write([]byte(`[{"id":1,"username":"root","role":"admin"}]`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	ctx := context.Background()

	users, err := client.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Account{{ID: 1, Username: "root", Role: "admin"}}, users)

	require.NoError(t, client.CreateUser(ctx, "bob", "user", "pw"))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/user/", gotPath)

	require.NoError(t, client.UpdateUser(ctx, 5, "bob", "admin", "newpw"))
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/api/user/5", gotPath)
	assert.Equal(t, float64(5), gotBody["id"], "update body carries the id")

	require.NoError(t, client.DeleteUser(ctx, 5))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/api/user/5", gotPath)
}

func TestDo_TransportFailureIsNotAPIError(t *testing.T) {
	t.Parallel()

	client := NewClient("http://127.0.0.1:1", 500*time.Millisecond, nil)
	err := client.ValidateToken(context.Background())
	require.Error(t, err)
	assert.False(t, IsAPIError(err))
}
