package httpapi

import (
	"github.com/gin-gonic/gin"

	"procurecore/internal/core"
	"procurecore/pkg/domain"
)

func requisitionFilterFromQuery(c *gin.Context) core.RequisitionFilter {
	filter := core.RequisitionFilter{
		Requester:  c.Query("requester"),
		Department: c.Query("department"),
		Search:     c.Query("search"),
	}
	for _, s := range splitCSV(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.DocumentStatus(s))
	}
	return filter
}

func (h *handlers) listRequisitions(c *gin.Context) {
	requisitions, err := h.service.ListRequisitions(c.Request.Context(), requisitionFilterFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, requisitions)
}

func (h *handlers) createRequisition(c *gin.Context) {
	var requisition domain.Requisition
	if err := c.ShouldBindJSON(&requisition); err != nil {
		respondBindError(c, err)
		return
	}
	created, _, err := h.service.CreateRequisition(c.Request.Context(), requisition)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, created)
}

func (h *handlers) getRequisition(c *gin.Context) {
	requisition, err := h.service.GetRequisition(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, requisition)
}

func (h *handlers) updateRequisition(c *gin.Context) {
	var patch core.RequisitionUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}
	requisition, _, err := h.service.UpdateRequisition(c.Request.Context(), c.Param("number"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, requisition)
}

func (h *handlers) deleteRequisition(c *gin.Context) {
	if _, err := h.service.DeleteRequisition(c.Request.Context(), c.Param("number")); err != nil {
		respondError(c, err)
		return
	}
	respondNoContent(c)
}

func (h *handlers) submitRequisition(c *gin.Context) {
	requisition, _, err := h.service.SubmitRequisition(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, requisition)
}

func (h *handlers) approveRequisition(c *gin.Context) {
	requisition, _, err := h.service.ApproveRequisition(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, requisition)
}

func (h *handlers) rejectRequisition(c *gin.Context) {
	var body struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			respondBindError(c, err)
			return
		}
	}
	requisition, _, err := h.service.RejectRequisition(c.Request.Context(), c.Param("number"), body.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, requisition)
}

func (h *handlers) createOrderFromRequisition(c *gin.Context) {
	var body struct {
		Vendor       string `json:"vendor"`
		PaymentTerms string `json:"payment_terms"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}
	order, _, err := h.service.CreateOrderFromRequisition(c.Request.Context(), c.Param("number"), body.Vendor, body.PaymentTerms)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, order)
}
