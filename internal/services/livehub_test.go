package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"gateway-console/internal/gateway"
	"gateway-console/internal/logger"
	"gateway-console/internal/usage"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitSilent()
	os.Exit(m.Run())
}

func TestNewUsageHub_DefaultRefresh(t *testing.T) {
	t.Parallel()

	hub := NewUsageHub(nil, 0)
	assert.Equal(t, 30*time.Second, hub.refresh)

	hub = NewUsageHub(nil, 5*time.Second)
	assert.Equal(t, 5*time.Second, hub.refresh)
}

func TestUsageHub_SendsInitialSeriesOnRegister(t *testing.T) {
	t.Parallel()

	today := usage.FormatDate(time.Now())
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/token_usage/user/usage/daily", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `[{"date":%q,"promptTokens":42,"responseTokens":17}]`, today)
	}))
	t.Cleanup(backend.Close)

	client := gateway.NewClient(backend.URL, 5*time.Second, func() string { return "tok" })
	hub := NewUsageHub(client, time.Minute)

	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	wsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.Register(conn)
	}))
	t.Cleanup(wsSrv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(wsSrv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var payload UsagePayload
	require.NoError(t, json.Unmarshal(msg, &payload))

	assert.Equal(t, "usage_update", payload.Type)
	require.Len(t, payload.Series, 7, "default window is the trailing week")
	last := payload.Series[len(payload.Series)-1]
	assert.Equal(t, today, last.Date)
	assert.Equal(t, 42, last.PromptTokens)
	assert.Equal(t, 17, last.ResponseTokens)
}

func TestUsageHub_UnreachableBackendSendsNothing(t *testing.T) {
	t.Parallel()

	client := gateway.NewClient("http://127.0.0.1:1", 500*time.Millisecond, nil)
	hub := NewUsageHub(client, time.Minute)

	assert.Nil(t, hub.buildPayload(context.Background()))
}
