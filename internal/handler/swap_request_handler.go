package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-swap-api/internal/models"
	"github.com/noah-isme/course-swap-api/internal/service"
	appErrors "github.com/noah-isme/course-swap-api/pkg/errors"
	"github.com/noah-isme/course-swap-api/pkg/response"
)

// SwapRequestHandler exposes swap request endpoints.
type SwapRequestHandler struct {
	requests *service.SwapRequestService
}

// NewSwapRequestHandler constructs SwapRequestHandler.
func NewSwapRequestHandler(requests *service.SwapRequestService) *SwapRequestHandler {
	return &SwapRequestHandler{requests: requests}
}

// Create godoc
// @Summary Create a swap request and attempt an immediate match
// @Tags SwapRequests
// @Accept json
// @Produce json
// @Param payload body service.CreateSwapRequestRequest true "Swap request payload"
// @Success 201 {object} response.Envelope
// @Router /swap-requests [post]
func (h *SwapRequestHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateSwapRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.requests.Create(c.Request.Context(), claims.StudentID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List godoc
// @Summary List the caller's swap requests
// @Tags SwapRequests
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /swap-requests [get]
func (h *SwapRequestHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var filter models.SwapRequestFilter
	filter.StudentID = claims.StudentID
	filter.Status = models.SwapRequestStatus(strings.ToUpper(c.Query("status")))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	requests, pagination, err := h.requests.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}

// Cancel godoc
// @Summary Cancel an active swap request
// @Tags SwapRequests
// @Produce json
// @Param id path string true "Swap request ID"
// @Success 200 {object} response.Envelope
// @Router /swap-requests/{id} [delete]
func (h *SwapRequestHandler) Cancel(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	request, err := h.requests.Cancel(c.Request.Context(), c.Param("id"), claims.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}
