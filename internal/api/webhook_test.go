package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestValidSignature(t *testing.T) {
	assert.True(t, validSignature("secret-hash", "secret-hash"))
	assert.False(t, validSignature("wrong", "secret-hash"))
	assert.False(t, validSignature("", "secret-hash"))

	// an unset shared secret must never let traffic through
	assert.False(t, validSignature("", ""))
	assert.False(t, validSignature("anything", ""))
}

func TestPaymentWebhookRejectsBadSignature(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewHandler(nil, nil, "secret-hash")
	router := gin.New()
	router.POST("/webhooks/flutterwave", h.paymentWebhook)

	body := `{"event":"charge.completed","data":{"id":1,"status":"successful","tx_ref":"NUV-2026-000001"}}`

	req := httptest.NewRequest(http.MethodPost, "/webhooks/flutterwave", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/webhooks/flutterwave", strings.NewReader(body))
	req.Header.Set("verif-hash", "wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPaymentWebhookAcksMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewHandler(nil, nil, "secret-hash")
	router := gin.New()
	router.POST("/webhooks/flutterwave", h.paymentWebhook)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/flutterwave", strings.NewReader("not json"))
	req.Header.Set("verif-hash", "secret-hash")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// signature passed, so the gateway gets a 200 and stops retrying
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPaymentWebhookIgnoresUnknownReference(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewHandler(nil, nil, "secret-hash")
	router := gin.New()
	router.POST("/webhooks/flutterwave", h.paymentWebhook)

	body := `{"event":"charge.completed","data":{"id":1,"status":"successful","tx_ref":"XX-999"}}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/flutterwave", strings.NewReader(body))
	req.Header.Set("verif-hash", "secret-hash")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
