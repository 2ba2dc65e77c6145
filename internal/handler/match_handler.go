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

// MatchHandler exposes match lifecycle endpoints.
type MatchHandler struct {
	lifecycle *service.MatchLifecycleService
}

// NewMatchHandler constructs MatchHandler.
func NewMatchHandler(lifecycle *service.MatchLifecycleService) *MatchHandler {
	return &MatchHandler{lifecycle: lifecycle}
}

// List godoc
// @Summary List the caller's matches
// @Tags Matches
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /matches [get]
func (h *MatchHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var filter models.SwapMatchFilter
	filter.StudentID = claims.StudentID
	filter.Status = models.SwapMatchStatus(strings.ToUpper(c.Query("status")))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	matches, pagination, err := h.lifecycle.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, matches, pagination)
}

// Confirm godoc
// @Summary Confirm a pending match
// @Tags Matches
// @Produce json
// @Param id path string true "Match ID"
// @Success 200 {object} response.Envelope
// @Router /matches/{id}/confirm [post]
func (h *MatchHandler) Confirm(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.lifecycle.Confirm(c.Request.Context(), c.Param("id"), claims.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Reject godoc
// @Summary Reject a pending match
// @Tags Matches
// @Produce json
// @Param id path string true "Match ID"
// @Success 200 {object} response.Envelope
// @Router /matches/{id}/reject [post]
func (h *MatchHandler) Reject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.lifecycle.Reject(c.Request.Context(), c.Param("id"), claims.StudentID); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"ok": true}, nil)
}

// Contact godoc
// @Summary Retrieve counterpart contact info for a confirmed match
// @Tags Matches
// @Produce json
// @Param id path string true "Match ID"
// @Success 200 {object} response.Envelope
// @Router /matches/{id}/contact [get]
func (h *MatchHandler) Contact(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	details, err := h.lifecycle.GetContactInfo(c.Request.Context(), c.Param("id"), claims.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details, nil)
}

// Complete godoc
// @Summary Mark a confirmed match as completed
// @Tags Matches
// @Produce json
// @Param id path string true "Match ID"
// @Success 200 {object} response.Envelope
// @Router /matches/{id}/complete [post]
func (h *MatchHandler) Complete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.lifecycle.MarkCompleted(c.Request.Context(), c.Param("id"), claims.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
