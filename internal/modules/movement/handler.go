package movement

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"tourrental/internal/domain"
	"tourrental/internal/middleware"
	"tourrental/internal/pkg/response"
	"tourrental/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	movements := rg.Group("/movements")
	{
		movements.GET("", h.List)
		movements.POST("", h.Create)
		movements.DELETE("/:id", h.Delete)
		movements.POST("/:id/restore", h.Restore)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", errs)
		return
	}
	userID, _ := middleware.UserID(c)

	created, err := h.service.Create(c.Request.Context(), req.ToInput(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, created)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req DeleteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
			return
		}
	}
	userID, _ := middleware.UserID(c)

	m, err := h.service.DeleteMovement(c.Request.Context(), id, userID, req.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, m)
}

func (h *Handler) Restore(c *gin.Context) {
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)

	m, err := h.service.RestoreMovement(c.Request.Context(), id, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, m)
}

func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	vehicle, ok := response.UUIDQuery(c, "vehicle")
	if !ok {
		return
	}
	from, ok := timeQuery(c, "from")
	if !ok {
		return
	}
	to, ok := timeQuery(c, "to")
	if !ok {
		return
	}

	result, err := h.service.List(c.Request.Context(), ListFilter{
		Page:           page,
		Limit:          limit,
		Type:           c.Query("type"),
		Direction:      domain.MovementDirection(c.Query("direction")),
		VehicleID:      vehicle,
		From:           from,
		To:             to,
		IncludeDeleted: c.Query("includeDeleted") == "true",
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

func timeQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid "+name+", expected RFC3339")
		return nil, false
	}
	return &t, true
}
