package handler

import (
	"context"
	"net/http"
	"time"

	"auction-site/services/common"
	"auction-site/utils"

	"github.com/gin-gonic/gin"
)

// Seeder resets the store and loads the sample data
type Seeder interface {
	Reset(ctx context.Context) error
	Resample(ctx context.Context) error
}

// ImageClearer removes every stored image
type ImageClearer interface {
	Clear() error
}

// Check is one dependency reported by the health endpoint
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type SystemHandler struct {
	seeder       Seeder
	images       ImageClearer
	checks       []Check
	checkTimeout time.Duration
}

func NewSystemHandler(seeder Seeder, images ImageClearer, checks ...Check) *SystemHandler {
	return &SystemHandler{
		seeder:       seeder,
		images:       images,
		checks:       checks,
		checkTimeout: 2 * time.Second,
	}
}

type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// HealthHandler handles GET /health
func (h *SystemHandler) HealthHandler(c *gin.Context) {
	resp := healthResponse{Status: "ok", Components: make(map[string]string, len(h.checks))}

	for _, check := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.checkTimeout)
		err := check.Ping(ctx)
		cancel()
		if err != nil {
			resp.Status = "degraded"
			resp.Components[check.Name] = "down: " + err.Error()
			utils.Warn("HealthHandler: component unhealthy", map[string]any{"component": check.Name, "error": err.Error()})
			continue
		}
		resp.Components[check.Name] = "ok"
	}

	if resp.Status != "ok" {
		utils.JSONResponse(c, http.StatusServiceUnavailable, resp, "service unavailable")
		return
	}
	utils.JSONResponse(c, http.StatusOK, resp, "service healthy")
}

// ResetHandler handles POST /reset: it removes all data and images
func (h *SystemHandler) ResetHandler(c *gin.Context) {
	if err := h.reset(c.Request.Context()); err != nil {
		common.RespondError(c, "ResetHandler", err, nil)
		return
	}
	utils.JSONResponse(c, http.StatusOK, nil, "data reset successfully")
	common.LogSuccess("ResetHandler", "data reset successfully", nil)
}

// ResampleHandler handles POST /resample
func (h *SystemHandler) ResampleHandler(c *gin.Context) {
	if err := h.seeder.Resample(c.Request.Context()); err != nil {
		common.RespondError(c, "ResampleHandler", err, nil)
		return
	}
	utils.JSONResponse(c, http.StatusCreated, nil, "sample data loaded successfully")
	common.LogSuccess("ResampleHandler", "sample data loaded successfully", nil)
}

// ReloadHandler handles POST /reload: reset followed by resample
func (h *SystemHandler) ReloadHandler(c *gin.Context) {
	if err := h.reset(c.Request.Context()); err != nil {
		common.RespondError(c, "ReloadHandler", err, nil)
		return
	}
	if err := h.seeder.Resample(c.Request.Context()); err != nil {
		common.RespondError(c, "ReloadHandler", err, nil)
		return
	}
	utils.JSONResponse(c, http.StatusCreated, nil, "data reloaded successfully")
	common.LogSuccess("ReloadHandler", "data reloaded successfully", nil)
}

func (h *SystemHandler) reset(ctx context.Context) error {
	if err := h.seeder.Reset(ctx); err != nil {
		return err
	}
	if h.images != nil {
		if err := h.images.Clear(); err != nil {
			return err
		}
	}
	return nil
}
