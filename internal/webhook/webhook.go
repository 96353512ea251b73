// Package webhook receives alert callbacks from the dashboard, gated by
// configuration and a shared secret.
package webhook

import (
	"crypto/subtle"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/merakitools/dashboard-exporter/internal"
	"github.com/merakitools/dashboard-exporter/internal/config"
	"github.com/merakitools/dashboard-exporter/internal/metricstore"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Payload is the alert callback body. SharedSecret is the secret configured
// on the dashboard side and is checked, never logged.
type Payload struct {
	AlertID        string `json:"alertId"`
	AlertType      string `json:"alertType"`
	OrganizationID string `json:"organizationId"`
	NetworkID      string `json:"networkId"`
	DeviceSerial   string `json:"deviceSerial"`
	OccurredAt     string `json:"occurredAt"`
	SharedSecret   string `json:"sharedSecret"`
}

type Handler struct {
	cfg      config.WebhookConfig
	store    *metricstore.Store
	received *metricstore.Handle
	rejected *metricstore.Handle
}

func New(cfg config.WebhookConfig, store *metricstore.Store) *Handler {
	h := &Handler{cfg: cfg, store: store}
	h.received = store.MustMetric(metricstore.Definition{
		Name:   "dashboard_exporter_webhooks_received_total",
		Help:   "Webhook events accepted, by alert type.",
		Kind:   metricstore.Counter,
		Labels: []string{"alert_type"},
	})
	h.rejected = store.MustMetric(metricstore.Definition{
		Name:   "dashboard_exporter_webhooks_rejected_total",
		Help:   "Webhook requests rejected, by reason.",
		Kind:   metricstore.Counter,
		Labels: []string{"reason"},
	})
	return h
}

// Handle processes one POST. Responses carry a structured status field:
// 404 when the feature is disabled, 401 on a missing or wrong secret,
// 400 on an oversized or malformed body, 200 on success.
func (h *Handler) Handle(c *gin.Context) {
	if !h.cfg.Enabled {
		h.reject(c, http.StatusNotFound, "disabled", "webhook receiver is disabled")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxBodyBytes))
	if err != nil {
		h.reject(c, http.StatusBadRequest, "oversized", "request body exceeds the configured limit")
		return
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.reject(c, http.StatusBadRequest, "malformed", "request body is not valid JSON")
		return
	}

	if h.cfg.RequireSecret {
		if subtle.ConstantTimeCompare([]byte(payload.SharedSecret), []byte(h.cfg.Secret)) != 1 {
			h.reject(c, http.StatusUnauthorized, "unauthorized", "invalid or missing shared secret")
			return
		}
	}

	if payload.AlertID == "" {
		payload.AlertID = uuid.NewString()
	}
	if payload.AlertType == "" {
		payload.AlertType = "unknown"
	}

	_ = h.store.Add(h.received, 1, payload.AlertType)
	zap.S().Infow("Webhook event received",
		"alertId", internal.SanitizeString(payload.AlertID),
		"alertType", internal.SanitizeString(payload.AlertType),
		"networkId", internal.SanitizeString(payload.NetworkID),
		"deviceSerial", internal.SanitizeString(payload.DeviceSerial),
	)

	c.JSON(http.StatusOK, gin.H{"status": "ok", "alertId": payload.AlertID})
}

func (h *Handler) reject(c *gin.Context, status int, reason string, message string) {
	_ = h.store.Add(h.rejected, 1, reason)
	if status != http.StatusNotFound {
		zap.S().Warnf("Webhook request rejected (%s): %s", reason, message)
	}
	c.JSON(status, gin.H{"status": "error", "error": message})
}
