package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"rd-topup-api/internal/constant"
	"rd-topup-api/internal/dto"
	"rd-topup-api/internal/utils"
)

type OrderHandler struct {
	checkout Checkout
	status   StatusPoller
}

func NewOrderHandler(checkout Checkout, status StatusPoller) *OrderHandler {
	return &OrderHandler{checkout: checkout, status: status}
}

// Create POST /api/order/create
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, constant.Validation("%v", err))
		return
	}
	resp, err := h.checkout.Create(c.Request.Context(), req)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.OK(c, resp)
}

// Status GET /api/order/status/:orderId
func (h *OrderHandler) Status(c *gin.Context) {
	orderID := strings.TrimSpace(c.Param("orderId"))
	if orderID == "" {
		utils.Fail(c, constant.Validation("orderId is required"))
		return
	}
	resp, err := h.status.Poll(c.Request.Context(), orderID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.OK(c, resp)
}

// Products GET /api/products
func (h *OrderHandler) Products(c *gin.Context) {
	list, err := h.checkout.Products(c.Request.Context())
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.OK(c, list)
}
