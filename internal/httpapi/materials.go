package httpapi

import (
	"strings"

	"github.com/gin-gonic/gin"

	"procurecore/internal/core"
	"procurecore/pkg/domain"
)

func materialFilterFromQuery(c *gin.Context) core.MaterialFilter {
	filter := core.MaterialFilter{Search: c.Query("search")}
	for _, s := range splitCSV(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.MaterialStatus(s))
	}
	for _, t := range splitCSV(c.Query("type")) {
		filter.Types = append(filter.Types, domain.MaterialType(t))
	}
	return filter
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (h *handlers) listMaterials(c *gin.Context) {
	materials, err := h.service.ListMaterials(c.Request.Context(), materialFilterFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, materials)
}

func (h *handlers) countMaterials(c *gin.Context) {
	count, err := h.service.CountMaterials(c.Request.Context(), materialFilterFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"count": count})
}

func (h *handlers) createMaterial(c *gin.Context) {
	var material domain.Material
	if err := c.ShouldBindJSON(&material); err != nil {
		respondBindError(c, err)
		return
	}
	created, _, err := h.service.CreateMaterial(c.Request.Context(), material)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, created)
}

func (h *handlers) getMaterial(c *gin.Context) {
	material, err := h.service.GetMaterial(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, material)
}

func (h *handlers) updateMaterial(c *gin.Context) {
	var patch core.MaterialUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}
	material, _, err := h.service.UpdateMaterial(c.Request.Context(), c.Param("number"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, material)
}

func (h *handlers) deleteMaterial(c *gin.Context) {
	if _, err := h.service.DeleteMaterial(c.Request.Context(), c.Param("number")); err != nil {
		respondError(c, err)
		return
	}
	respondNoContent(c)
}

func (h *handlers) deprecateMaterial(c *gin.Context) {
	material, _, err := h.service.DeprecateMaterial(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, material)
}

func (h *handlers) activateMaterial(c *gin.Context) {
	material, _, err := h.service.ActivateMaterial(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, material)
}

func (h *handlers) deactivateMaterial(c *gin.Context) {
	material, _, err := h.service.DeactivateMaterial(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, material)
}
