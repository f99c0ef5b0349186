package api

import "github.com/gin-gonic/gin"

// NewRouter lays out the engine's HTTP routes.
func NewRouter(h *Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", h.Healthz)

	v1 := router.Group("/v1")
	{
		v1.POST("/webhooks/payment", h.PaymentWebhook)
		v1.POST("/webhooks/shipping", h.ShippingWebhook)

		v1.POST("/assessments", h.AssessOrder)
		v1.POST("/assessments/batch", h.BatchAssess)

		v1.POST("/sweeps/payments", h.SweepPayments)

		v1.POST("/shipments/rates", h.ShippingRates)

		v1.GET("/orders/:id", h.GetOrder)
		v1.POST("/orders/:id/label", h.PurchaseLabel)
	}
	return router
}
