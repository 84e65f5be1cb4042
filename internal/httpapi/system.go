package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"procurecore/internal/monitor"
)

func (h *handlers) health(c *gin.Context) {
	if h.monitor == nil {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		return
	}
	report := h.monitor.Health()
	status := http.StatusOK
	if report.Status == "error" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}

func (h *handlers) monitorErrors(c *gin.Context) {
	if c.Query("summary") == "true" {
		respondOK(c, h.monitor.Summary())
		return
	}
	filter := monitor.ErrorFilter{
		Type:      c.Query("type"),
		Component: c.Query("component"),
	}
	if limit := c.Query("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			filter.Limit = n
		}
	}
	if hours := c.Query("hours"); hours != "" {
		if n, err := strconv.Atoi(hours); err == nil && n > 0 {
			filter.Since = time.Now().UTC().Add(-time.Duration(n) * time.Hour)
		}
	}
	respondOK(c, h.monitor.RecentErrors(filter))
}

func (h *handlers) clearMonitorErrors(c *gin.Context) {
	respondOK(c, gin.H{"cleared": h.monitor.ClearErrors()})
}

func (h *handlers) listArchives(c *gin.Context) {
	archives, err := h.archive.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, archives)
}

func (h *handlers) createArchive(c *gin.Context) {
	info, err := h.archive.Archive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, info)
}

func (h *handlers) fetchArchive(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	payload, err := h.archive.Fetch(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", payload)
}
