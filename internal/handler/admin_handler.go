package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-swap-api/internal/service"
	"github.com/noah-isme/course-swap-api/pkg/response"
)

// AdminHandler exposes operational endpoints: manual sweeps and exports.
type AdminHandler struct {
	sweeper *service.SweeperService
	exports *service.ExportService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(sweeper *service.SweeperService, exports *service.ExportService) *AdminHandler {
	return &AdminHandler{sweeper: sweeper, exports: exports}
}

// Sweep godoc
// @Summary Run a matching sweep over all active swap requests
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/sweep [post]
func (h *AdminHandler) Sweep(c *gin.Context) {
	outcomes, err := h.sweeper.Sweep(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcomes, nil)
}

// ExportSwapHistory godoc
// @Summary Export completed swap history
// @Tags Admin
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /admin/swaps/export [get]
func (h *AdminHandler) ExportSwapHistory(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	file, err := h.exports.SwapHistory(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+file.Filename)
	c.Data(http.StatusOK, file.ContentType, file.Body)
}
