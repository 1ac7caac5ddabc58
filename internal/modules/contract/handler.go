package contract

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

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
	rg.GET("/contracts", h.FindAll)
	rg.GET("/contracts/:id", h.FindByID)
	rg.POST("/contracts", h.Create)
	rg.PATCH("/contracts/:id", h.Update)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", errs)
		return
	}
	userID, _ := middleware.UserID(c)

	view, err := h.service.Create(c.Request.Context(), req.ToInput(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, view)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", errs)
		return
	}
	userID, _ := middleware.UserID(c)

	view, err := h.service.Update(c.Request.Context(), id, req.ToInput(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) FindByID(c *gin.Context) {
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	view, err := h.service.FindByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) FindAll(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	status, ok := response.UUIDQuery(c, "status")
	if !ok {
		return
	}
	reservingUser, ok := response.UUIDQuery(c, "reservingUser")
	if !ok {
		return
	}
	createdBy, ok := response.UUIDQuery(c, "createdByUser")
	if !ok {
		return
	}

	result, err := h.service.FindAll(c.Request.Context(), ListFilter{
		Page:            page,
		Limit:           limit,
		BookingNumber:   c.Query("bookingNumber"),
		StatusID:        status,
		ReservingUserID: reservingUser,
		CreatedByUserID: createdBy,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}
