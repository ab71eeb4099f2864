package handlers

import (
	"context"
	"time"

	"github.com/RMahshie/kiwisnr/pkg/models"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// HealthHandler reports liveness and the receiver being polled
type HealthHandler struct {
	endpoint string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(endpoint string) *HealthHandler {
	return &HealthHandler{endpoint: endpoint}
}

// Health returns the health status of the service
func (h *HealthHandler) Health(ctx context.Context, _ *struct{}) (*models.HealthResponse, error) {
	resp := &models.HealthResponse{}
	resp.Body.Status = "healthy"
	resp.Body.Version = Version
	resp.Body.Time = time.Now()
	resp.Body.Endpoint = h.endpoint
	return resp, nil
}
