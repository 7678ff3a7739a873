package dto

import "rd-topup-api/internal/utils"

// MidtransNotification 网关异步回调
type MidtransNotification struct {
	OrderID           string               `json:"order_id"`
	StatusCode        utils.StringOrNumber `json:"status_code"`
	GrossAmount       utils.StringOrNumber `json:"gross_amount"` // "30000.00"，签名按原样参与
	TransactionStatus string               `json:"transaction_status"`
	FraudStatus       string               `json:"fraud_status"`
	PaymentType       string               `json:"payment_type"`
	TransactionID     string               `json:"transaction_id"`
	SignatureKey      string               `json:"signature_key"`
}

// SnapTransactionReq Snap 创建交易请求
type SnapTransactionReq struct {
	TransactionDetails SnapTransactionDetails `json:"transaction_details"`
	ItemDetails        []SnapItem             `json:"item_details,omitempty"`
	CustomerDetails    *SnapCustomer          `json:"customer_details,omitempty"`
	Callbacks          *SnapCallbacks         `json:"callbacks,omitempty"`
}

type SnapTransactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type SnapItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

type SnapCustomer struct {
	FirstName string `json:"first_name"`
	Phone     string `json:"phone"`
}

type SnapCallbacks struct {
	Finish string `json:"finish"`
}

// SnapTransactionResp Snap 返回
type SnapTransactionResp struct {
	Token         string            `json:"token"`
	RedirectURL   string            `json:"redirect_url"`
	ErrorMessages utils.FlexibleMsg `json:"error_messages"`
}

// MidtransStatusResp Core API 交易状态
type MidtransStatusResp struct {
	OrderID           string               `json:"order_id"`
	StatusCode        utils.StringOrNumber `json:"status_code"`
	StatusMessage     string               `json:"status_message"`
	GrossAmount       utils.StringOrNumber `json:"gross_amount"`
	TransactionStatus string               `json:"transaction_status"`
	FraudStatus       string               `json:"fraud_status"`
}
