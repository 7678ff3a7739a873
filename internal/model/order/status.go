package ordermodel

import "strings"

// PayStatus 支付状态，与 Midtrans transaction_status 一一对应
type PayStatus string

const (
	PayPending    PayStatus = "pending"
	PaySettlement PayStatus = "settlement"
	PayCapture    PayStatus = "capture"
	PayExpire     PayStatus = "expire"
	PayCancel     PayStatus = "cancel"
	PayDeny       PayStatus = "deny"
	PayFailure    PayStatus = "failure"
)

// TerminalPayStatuses 终态：到达后不再被回调覆盖
var TerminalPayStatuses = []PayStatus{PaySettlement, PayCapture, PayExpire, PayCancel, PayDeny, PayFailure}

func (s PayStatus) Terminal() bool {
	for _, t := range TerminalPayStatuses {
		if s == t {
			return true
		}
	}
	return false
}

// Paid settlement/capture 触发支付通知
func (s PayStatus) Paid() bool {
	return s == PaySettlement || s == PayCapture
}

// ParsePayStatus 映射网关状态；未知值（refund、authorize 等）返回 false
func ParsePayStatus(raw string) (PayStatus, bool) {
	s := PayStatus(strings.ToLower(strings.TrimSpace(raw)))
	if s == PayPending || s.Terminal() {
		return s, true
	}
	return "", false
}

// FulfillStatus 履约状态，仅由后台人工修改
type FulfillStatus string

const (
	FulfillWaiting    FulfillStatus = "waiting"
	FulfillProcessing FulfillStatus = "processing"
	FulfillDone       FulfillStatus = "done"
	FulfillRejected   FulfillStatus = "rejected"
)

func (s FulfillStatus) Valid() bool {
	switch s {
	case FulfillWaiting, FulfillProcessing, FulfillDone, FulfillRejected:
		return true
	}
	return false
}

// Terminal done/rejected 需要通知买家
func (s FulfillStatus) Terminal() bool {
	return s == FulfillDone || s == FulfillRejected
}

// NotifyKind 通知水位线类型
type NotifyKind string

const (
	NotifyPayment     NotifyKind = "payment"
	NotifyFulfillment NotifyKind = "fulfillment"
)

// Column 水位线对应的列名
func (k NotifyKind) Column() string {
	switch k {
	case NotifyPayment:
		return "payment_notified_at"
	case NotifyFulfillment:
		return "fulfillment_notified_at"
	}
	return ""
}
