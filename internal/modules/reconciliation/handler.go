package reconciliation

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"tourrental/internal/pkg/logger"
	"tourrental/internal/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	service *Service
	reports *ReportWriter
	log     *logger.Logger

	mu   sync.Mutex
	last *Result
}

func NewHandler(service *Service, reports *ReportWriter, log *logger.Logger) *Handler {
	return &Handler{service: service, reports: reports, log: log}
}

// RegisterRoutes expects an admin-only group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rec := rg.Group("/reconciliation")
	{
		rec.POST("/run", h.Run)
		rec.GET("/stats", h.Stats)
		rec.GET("/validate", h.Validate)
		rec.POST("/unlink-all", h.UnlinkAll)
		rec.GET("/report.xlsx", h.Report)
	}
}

func (h *Handler) Run(c *gin.Context) {
	res, err := h.service.LinkExisting(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	h.mu.Lock()
	h.last = res
	h.mu.Unlock()
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) Stats(c *gin.Context) {
	st, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, st)
}

func (h *Handler) Validate(c *gin.Context) {
	v, err := h.service.ValidateLinks(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"valid": v.Valid(), "report": v})
}

func (h *Handler) UnlinkAll(c *gin.Context) {
	res, err := h.service.UnlinkAll(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// Report renders the last run of this process (if any) with a fresh link validation.
func (h *Handler) Report(c *gin.Context) {
	v, err := h.service.ValidateLinks(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	h.mu.Lock()
	last := h.last
	h.mu.Unlock()

	data, err := h.reports.Generate(last, v)
	if err != nil {
		h.log.Error("failed to render reconciliation report", "error", err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to render report")
		return
	}
	name := "reconciliation_" + time.Now().UTC().Format("20060102_150405") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}
