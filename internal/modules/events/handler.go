package events

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tourrental/internal/pkg/jwt"
	"tourrental/internal/pkg/logger"
	"tourrental/internal/pkg/response"
)

type Handler struct {
	hub        *Hub
	jwtService *jwt.Service
	log        *logger.Logger
}

func NewHandler(hub *Hub, jwtService *jwt.Service, log *logger.Logger) *Handler {
	return &Handler{hub: hub, jwtService: jwtService, log: log.With("handler", "events")}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/ws/events", h.HandleWebSocket)
}

// HandleWebSocket authenticates with ?token= because browsers cannot set headers on
// websocket requests. ?contracts=<id,id> limits the stream to those contracts.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "token query parameter is required")
		return
	}
	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}

	var contracts []uuid.UUID
	if raw := strings.TrimSpace(c.Query("contracts")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := uuid.Parse(strings.TrimSpace(part))
			if err != nil {
				response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid contract id")
				return
			}
			contracts = append(contracts, id)
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	h.log.Debug("websocket connected", "user_id", claims.UserID)
	h.hub.ServeWS(conn, claims.UserID, contracts)
}
