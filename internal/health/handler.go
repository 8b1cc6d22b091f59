package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chatport/wagateway-extras/internal/version"
)

// DefaultPathPrefix is where health routes mount unless overridden.
const DefaultPathPrefix = "/health"

// Handler serves the health endpoints.
type Handler struct {
	prober *Prober
}

// NewHandler constructs a Handler over a Prober.
func NewHandler(prober *Prober) *Handler {
	return &Handler{prober: prober}
}

// RegisterRoutes mounts the health endpoints under the given prefix.
func RegisterRoutes(engine *gin.Engine, prefix string, prober *Prober) {
	if engine == nil {
		return
	}
	if prefix == "" {
		prefix = DefaultPathPrefix
	}
	h := NewHandler(prober)
	group := engine.Group(prefix)
	group.GET("", h.Detailed)
	group.GET("/live", h.Live)
	group.GET("/ready", h.Ready)
}

// Detailed probes every dependency and reports the aggregate.
func (h *Handler) Detailed(c *gin.Context) {
	checks := h.prober.RunAll(c.Request.Context())

	status := StatusHealthy
	code := http.StatusOK
	if !checks[CheckDatabase].ok() || !checks[CheckCache].ok() {
		status = StatusUnhealthy
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, DetailedResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Version:   version.Version,
		Uptime:    version.Uptime(),
		Checks:    checks,
	})
}

// Live reports that the process is able to serve requests at all.
func (h *Handler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"alive":     true,
		"timestamp": time.Now().UTC(),
	})
}

// Ready reports whether the mandatory dependencies are reachable.
func (h *Handler) Ready(c *gin.Context) {
	checks := h.prober.Mandatory(c.Request.Context())
	if checks[CheckDatabase].ok() && checks[CheckCache].ok() {
		c.JSON(http.StatusOK, gin.H{
			"ready":     true,
			"timestamp": time.Now().UTC(),
		})
		return
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"ready":     false,
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	})
}
