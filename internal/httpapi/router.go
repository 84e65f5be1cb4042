package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"procurecore/internal/core"
	"procurecore/internal/monitor"
)

// Config carries the dependencies of the HTTP surface. Service is required;
// the rest is optional and disables the matching routes when nil.
type Config struct {
	Service  *core.Service
	Monitor  *monitor.Service
	Archive  *core.ArchiveService
	Logger   *zap.Logger
	Gatherer prometheus.Gatherer
}

// NewRouter builds the gin engine with all routes and middleware installed.
func NewRouter(cfg Config) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(requestID(), requestLogger(logger), recovery(logger))

	h := &handlers{service: cfg.Service, monitor: cfg.Monitor, archive: cfg.Archive}

	router.GET("/healthz", h.health)
	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api/v1")

	materials := api.Group("/materials")
	materials.GET("", h.listMaterials)
	materials.GET("/count", h.countMaterials)
	materials.POST("", h.createMaterial)
	materials.GET("/:number", h.getMaterial)
	materials.PATCH("/:number", h.updateMaterial)
	materials.DELETE("/:number", h.deleteMaterial)
	materials.POST("/:number/deprecate", h.deprecateMaterial)
	materials.POST("/:number/activate", h.activateMaterial)
	materials.POST("/:number/deactivate", h.deactivateMaterial)

	requisitions := api.Group("/requisitions")
	requisitions.GET("", h.listRequisitions)
	requisitions.POST("", h.createRequisition)
	requisitions.GET("/:number", h.getRequisition)
	requisitions.PATCH("/:number", h.updateRequisition)
	requisitions.DELETE("/:number", h.deleteRequisition)
	requisitions.POST("/:number/submit", h.submitRequisition)
	requisitions.POST("/:number/approve", h.approveRequisition)
	requisitions.POST("/:number/reject", h.rejectRequisition)
	requisitions.POST("/:number/create-order", h.createOrderFromRequisition)

	orders := api.Group("/orders")
	orders.GET("", h.listOrders)
	orders.POST("", h.createOrder)
	orders.GET("/:number", h.getOrder)
	orders.PATCH("/:number", h.updateOrder)
	orders.DELETE("/:number", h.deleteOrder)
	orders.POST("/:number/submit", h.submitOrder)
	orders.POST("/:number/approve", h.approveOrder)
	orders.POST("/:number/receive", h.receiveOrder)
	orders.POST("/:number/complete", h.completeOrder)
	orders.POST("/:number/cancel", h.cancelOrder)

	if cfg.Monitor != nil {
		mon := api.Group("/monitor")
		mon.GET("/errors", h.monitorErrors)
		mon.DELETE("/errors", h.clearMonitorErrors)
	}
	if cfg.Archive != nil {
		archives := api.Group("/archives")
		archives.GET("", h.listArchives)
		archives.POST("", h.createArchive)
		archives.GET("/*key", h.fetchArchive)
	}

	return router
}

type handlers struct {
	service *core.Service
	monitor *monitor.Service
	archive *core.ArchiveService
}
