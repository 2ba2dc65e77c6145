package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/course-swap-api/internal/middleware"
	"github.com/noah-isme/course-swap-api/internal/models"
)

func TestSwapRequestHandlerCreateWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewSwapRequestHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/swap-requests", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.Create(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSwapRequestHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewSwapRequestHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/swap-requests", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{StudentID: "s1"})

	h.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMatchHandlerConfirmWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewMatchHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/matches/m1/confirm", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "m1"}}

	h.Confirm(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
