package httpapi

import (
	"github.com/gin-gonic/gin"

	"procurecore/internal/core"
	"procurecore/pkg/domain"
)

func orderFilterFromQuery(c *gin.Context) core.OrderFilter {
	filter := core.OrderFilter{
		Vendor:         c.Query("vendor"),
		RequisitionRef: c.Query("requisition_ref"),
		Search:         c.Query("search"),
	}
	for _, s := range splitCSV(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.DocumentStatus(s))
	}
	return filter
}

func (h *handlers) listOrders(c *gin.Context) {
	orders, err := h.service.ListOrders(c.Request.Context(), orderFilterFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, orders)
}

func (h *handlers) createOrder(c *gin.Context) {
	var order domain.Order
	if err := c.ShouldBindJSON(&order); err != nil {
		respondBindError(c, err)
		return
	}
	created, _, err := h.service.CreateOrder(c.Request.Context(), order)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, created)
}

func (h *handlers) getOrder(c *gin.Context) {
	order, err := h.service.GetOrder(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

func (h *handlers) updateOrder(c *gin.Context) {
	var patch core.OrderUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}
	order, _, err := h.service.UpdateOrder(c.Request.Context(), c.Param("number"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

func (h *handlers) deleteOrder(c *gin.Context) {
	if _, err := h.service.DeleteOrder(c.Request.Context(), c.Param("number")); err != nil {
		respondError(c, err)
		return
	}
	respondNoContent(c)
}

func (h *handlers) submitOrder(c *gin.Context) {
	order, _, err := h.service.SubmitOrder(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

func (h *handlers) approveOrder(c *gin.Context) {
	order, _, err := h.service.ApproveOrder(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

// receiveOrder posts goods receipt. An absent or null items map receives
// every line in full.
func (h *handlers) receiveOrder(c *gin.Context) {
	var body struct {
		Items map[int]float64 `json:"items"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			respondBindError(c, err)
			return
		}
	}
	order, _, err := h.service.ReceiveOrder(c.Request.Context(), c.Param("number"), body.Items)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

func (h *handlers) completeOrder(c *gin.Context) {
	order, _, err := h.service.CompleteOrder(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

func (h *handlers) cancelOrder(c *gin.Context) {
	var body struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			respondBindError(c, err)
			return
		}
	}
	order, _, err := h.service.CancelOrder(c.Request.Context(), c.Param("number"), body.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}
