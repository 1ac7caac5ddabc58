package events

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourrental/internal/pkg/jwt"
	"tourrental/internal/pkg/logger"
)

func startServer(t *testing.T) (*Hub, *jwt.Service, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	jwtService := jwt.New("secret", time.Hour)
	router := gin.New()
	NewHandler(hub, jwtService, logger.Nop()).RegisterRoutes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return hub, jwtService, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitOnline(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.OnlineCount() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHubPushesEventsToSubscribers(t *testing.T) {
	hub, jwtService, base := startServer(t)
	token, err := jwtService.GenerateToken(uuid.New(), "manager")
	require.NoError(t, err)

	watched := uuid.New()
	all, _, err := websocket.DefaultDialer.Dial(base+"/ws/events?token="+token, nil)
	require.NoError(t, err)
	defer all.Close()
	one, _, err := websocket.DefaultDialer.Dial(base+"/ws/events?token="+token+"&contracts="+watched.String(), nil)
	require.NoError(t, err)
	defer one.Close()
	waitOnline(t, hub, 2)

	other := New(ContractUpdated, uuid.New(), nil).ForContract(uuid.New())
	mine := New(ContractUpdated, uuid.New(), nil).ForContract(watched)
	hub.Broadcast(other)
	hub.Broadcast(mine)

	var got Event
	require.NoError(t, all.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, all.ReadJSON(&got))
	assert.Equal(t, other.ID, got.ID)
	require.NoError(t, all.ReadJSON(&got))
	assert.Equal(t, mine.ID, got.ID)

	require.NoError(t, one.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, one.ReadJSON(&got))
	assert.Equal(t, mine.ID, got.ID)
}

func TestHubRejectsMissingToken(t *testing.T) {
	_, _, base := startServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(base+"/ws/events", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
