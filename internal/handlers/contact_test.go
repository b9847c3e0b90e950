package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/lexfield/filings-backend/internal/services"
)

func postContact(h *ContactHandler, body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/contact", h.Create)

	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestContactCreateRejectsMalformedBody(t *testing.T) {
	h := NewContactHandler(nil)
	w := postContact(h, `{"full_name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContactCreateReportsValidationDetails(t *testing.T) {
	h := NewContactHandler(services.NewContactService(nil, nil, nil))

	w := postContact(h, `{"full_name":"Dana Ellis","email":"nope","service_type":"patent","message":"long enough message"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
	assert.Contains(t, w.Body.String(), "email")
}
