package dto

// OrderEvent 发布到 order_events 交换机的事件体
type OrderEvent struct {
	Event         string `json:"event"` // order.created / order.payment_updated / order.fulfilled
	OrderID       string `json:"order_id"`
	ProductID     uint64 `json:"product_id"`
	GrossAmount   int64  `json:"gross_amount"`
	PayStatus     string `json:"pay_status"`
	FulfillStatus string `json:"fulfill_status"`
	StaffID       string `json:"staff_id,omitempty"`
	OccurredAt    int64  `json:"occurred_at"`
}
