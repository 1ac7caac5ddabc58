package cartversion

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tourrental/internal/middleware"
	"tourrental/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/bookings/:id", h.GetBooking)
	rg.GET("/bookings/:id/cart-versions", h.ListVersions)
	rg.GET("/cart-versions/:id", h.GetVersion)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/cart-versions/backfill", h.Backfill)
}

func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	view, err := h.service.GetBookingView(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) ListVersions(c *gin.Context) {
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	versions, err := h.service.ListVersions(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, versions)
}

func (h *Handler) GetVersion(c *gin.Context) {
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	version, err := h.service.GetVersion(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, version)
}

func (h *Handler) Backfill(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	report, err := h.service.BackfillLegacyCarts(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}
