package webhook

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/merakitools/dashboard-exporter/internal/config"
	"github.com/merakitools/dashboard-exporter/internal/metricstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(cfg config.WebhookConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(cfg, metricstore.New())
	router := gin.New()
	router.POST("/webhook", h.Handle)
	return router
}

func post(router *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func decodeStatus(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, jsoniter.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestWebhook_DisabledReturns404(t *testing.T) {
	router := newTestRouter(config.WebhookConfig{Enabled: false, MaxBodyBytes: 1024})

	w := post(router, `{"alertType":"came up"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "error", decodeStatus(t, w)["status"])
}

func TestWebhook_WrongSecretReturns401(t *testing.T) {
	router := newTestRouter(config.WebhookConfig{
		Enabled: true, RequireSecret: true, Secret: "topsecret", MaxBodyBytes: 1024,
	})

	w := post(router, `{"alertType":"came up","sharedSecret":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post(router, `{"alertType":"came up"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "missing secret is rejected too")
}

func TestWebhook_ValidPayloadReturns200(t *testing.T) {
	router := newTestRouter(config.WebhookConfig{
		Enabled: true, RequireSecret: true, Secret: "topsecret", MaxBodyBytes: 1024,
	})

	w := post(router, `{"alertId":"123","alertType":"settings changed","sharedSecret":"topsecret"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeStatus(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "123", body["alertId"])
}

func TestWebhook_SecretOptionalWhenNotRequired(t *testing.T) {
	router := newTestRouter(config.WebhookConfig{Enabled: true, RequireSecret: false, MaxBodyBytes: 1024})

	w := post(router, `{"alertType":"came up"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhook_MalformedBodyReturns400(t *testing.T) {
	router := newTestRouter(config.WebhookConfig{Enabled: true, MaxBodyBytes: 1024})

	w := post(router, `{"alertType":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhook_OversizedBodyReturns400(t *testing.T) {
	router := newTestRouter(config.WebhookConfig{Enabled: true, MaxBodyBytes: 16})

	w := post(router, `{"alertType":"this body is definitely longer than sixteen bytes"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
