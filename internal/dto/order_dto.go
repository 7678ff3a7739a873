package dto

// CreateOrderReq 前台下单
type CreateOrderReq struct {
	ProductID uint64 `json:"productId" binding:"required"`
	GameID    string `json:"gameId" binding:"required,max=64"`
	Nickname  string `json:"nickname" binding:"max=120"` // 超过 40 字符会被截断
	WhatsApp  string `json:"whatsapp" binding:"required,wa_number"`
	Qty       int    `json:"qty"`
}

// CreateOrderResp 下单结果
type CreateOrderResp struct {
	OrderID     string `json:"orderId"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirectUrl,omitempty"`
	GrossAmount int64  `json:"grossAmount"`
}

// OrderStatusResp 状态轮询结果
type OrderStatusResp struct {
	OrderID       string `json:"orderId"`
	PayStatus     string `json:"pay_status"`
	FulfillStatus string `json:"fulfill_status"`
	IsFinal       bool   `json:"isFinal"`
}

// FulfillReq 后台履约
type FulfillReq struct {
	FulfillStatus string `json:"fulfill_status" binding:"required,oneof=waiting processing done rejected"`
	AdminNote     string `json:"admin_note" binding:"max=255"`
}

// ListOrdersQuery 后台订单列表
type ListOrdersQuery struct {
	PayStatus     string `form:"pay_status"`
	FulfillStatus string `form:"fulfill_status"`
	Q             string `form:"q"`
	Limit         int    `form:"limit"`
}
