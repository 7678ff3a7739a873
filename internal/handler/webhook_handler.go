package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"rd-topup-api/internal/constant"
	"rd-topup-api/internal/utils"
)

const maxNotificationBody = 1 << 20

type WebhookHandler struct {
	cb NotificationHandler
}

func NewWebhookHandler(cb NotificationHandler) *WebhookHandler {
	return &WebhookHandler{cb: cb}
}

// Midtrans POST /midtrans/notification；网关只看状态码，响应体为纯文本
func (h *WebhookHandler) Midtrans(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxNotificationBody))
	if err != nil {
		c.String(http.StatusBadRequest, "bad request")
		return
	}
	if err := h.cb.HandleNotification(c.Request.Context(), body, utils.GetRealClientIP(c)); err != nil {
		status := constant.HTTPStatus(constant.CodeOf(err))
		c.String(status, http.StatusText(status))
		return
	}
	c.String(http.StatusOK, "ok")
}
