package history

import (
	"net/http"

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
	rg.GET("/contracts/:id/history", h.GetTimeline)
	rg.POST("/contracts/:id/history/notes", h.AddNote)
	rg.DELETE("/history/:entryId", h.SoftDelete)
	rg.POST("/history/:entryId/restore", h.Restore)
}

func (h *Handler) GetTimeline(c *gin.Context) {
	contractID, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	timeline, err := h.service.GetTimeline(c.Request.Context(), contractID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, timeline)
}

func (h *Handler) AddNote(c *gin.Context) {
	contractID, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)

	var req AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", errs)
		return
	}

	entry, err := h.service.AddNote(c.Request.Context(), Entry{
		ContractID:  contractID,
		UserID:      userID,
		EventTypeID: req.EventTypeID,
		Details:     req.Details,
		Metadata:    req.Metadata.ToDomain(),
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, entry)
}

func (h *Handler) SoftDelete(c *gin.Context) {
	entryID, ok := response.UUIDParam(c, "entryId")
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)

	var req DeleteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
			return
		}
	}

	entry, err := h.service.SoftDelete(c.Request.Context(), entryID, userID, req.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, entry)
}

func (h *Handler) Restore(c *gin.Context) {
	entryID, ok := response.UUIDParam(c, "entryId")
	if !ok {
		return
	}
	entry, err := h.service.Restore(c.Request.Context(), entryID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, entry)
}
