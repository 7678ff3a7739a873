package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rd-topup-api/internal/middleware"
)

type Handlers struct {
	Order   *OrderHandler
	Webhook *WebhookHandler
	Admin   *AdminHandler
	WA      *WAHandler
}

// NewRouter 注册全部路由
func NewRouter(h Handlers, adminToken string, trustedProxies []string, log logrus.FieldLogger) *gin.Engine {
	r := gin.New()
	if len(trustedProxies) > 0 {
		_ = r.SetTrustedProxies(trustedProxies)
	}
	r.Use(middleware.Trace(), middleware.RequestLogger(log), middleware.Recover(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	api := r.Group("/api")
	{
		api.GET("/products", h.Order.Products)
		api.POST("/order/create", h.Order.Create)
		api.GET("/order/status/:orderId", h.Order.Status)
	}

	r.POST("/midtrans/notification", h.Webhook.Midtrans)

	admin := r.Group("/admin/api", middleware.AdminAuth(adminToken))
	{
		admin.GET("/metrics", h.Admin.Metrics)
		admin.GET("/orders", h.Admin.Orders)
		admin.POST("/orders/:orderId/fulfill", h.Admin.Fulfill)
		admin.GET("/settings", h.Admin.GetSettings)
		admin.POST("/settings", h.Admin.SaveSettings)

		admin.POST("/whatsapp/start", h.WA.Start)
		admin.GET("/whatsapp/status", h.WA.Status)
		admin.POST("/whatsapp/test", h.WA.Test)
		admin.POST("/whatsapp/stop", h.WA.Stop)
		admin.GET("/whatsapp/ws", h.WA.Stream)
	}
	return r
}
