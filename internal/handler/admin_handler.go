package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"rd-topup-api/internal/constant"
	"rd-topup-api/internal/dto"
	"rd-topup-api/internal/middleware"
	"rd-topup-api/internal/repo"
	"rd-topup-api/internal/utils"
)

type AdminHandler struct {
	queries  AdminQueries
	fulfill  Fulfiller
	settings SettingsStore
}

func NewAdminHandler(queries AdminQueries, fulfill Fulfiller, settings SettingsStore) *AdminHandler {
	return &AdminHandler{queries: queries, fulfill: fulfill, settings: settings}
}

func (h *AdminHandler) Metrics(c *gin.Context) {
	m, err := h.queries.Metrics(c.Request.Context())
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.OK(c, m)
}

func (h *AdminHandler) Orders(c *gin.Context) {
	var q dto.ListOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.Fail(c, constant.Validation("%v", err))
		return
	}
	list, err := h.queries.ListOrders(c.Request.Context(), repo.ListFilter{
		PayStatus:     q.PayStatus,
		FulfillStatus: q.FulfillStatus,
		Keyword:       q.Q,
		Limit:         q.Limit,
	})
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.OK(c, list)
}

// Fulfill POST /admin/api/orders/:orderId/fulfill
func (h *AdminHandler) Fulfill(c *gin.Context) {
	var req dto.FulfillReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, constant.Validation("%v", err))
		return
	}
	o, err := h.fulfill.Fulfill(c.Request.Context(), c.Param("orderId"), req.FulfillStatus, req.AdminNote, c.GetString(middleware.StaffIDKey))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.OK(c, o)
}

func (h *AdminHandler) GetSettings(c *gin.Context) {
	st, err := h.settings.Masked(c.Request.Context())
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.OK(c, st)
}

func (h *AdminHandler) SaveSettings(c *gin.Context) {
	var req dto.SaveSettingsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, constant.Validation("%v", err))
		return
	}
	values := make(map[string]string, len(req))
	for k, v := range req {
		if v == nil {
			values[k] = ""
			continue
		}
		values[k] = fmt.Sprint(v)
	}
	if err := h.settings.Save(c.Request.Context(), values); err != nil {
		utils.Fail(c, err)
		return
	}
	h.GetSettings(c)
}
