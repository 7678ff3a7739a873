package ordermodel

import (
	"time"

	mainmodel "rd-topup-api/internal/model/main"
)

// Order represents orders
type Order struct {
	ID                    uint64              `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	OrderID               string              `gorm:"column:order_id;type:varchar(64);uniqueIndex;not null" json:"orderId"`              // 外部订单号，也是网关关联键
	ProductID             uint64              `gorm:"column:product_id;not null;index" json:"productId"`                                 // 商品ID
	GameID                string              `gorm:"column:game_id;type:varchar(64);not null" json:"gameId"`                            // 游戏内ID
	Nickname              string              `gorm:"column:nickname;type:varchar(64)" json:"nickname"`                                  // 昵称
	WhatsApp              string              `gorm:"column:whatsapp;type:varchar(20);not null" json:"whatsapp"`                         // 已规范化号码 62xxx
	Qty                   int                 `gorm:"column:qty;not null" json:"qty"`                                                    // 数量
	UnitPrice             int64               `gorm:"column:unit_price;not null" json:"unitPrice"`                                       // 单价
	GrossAmount           int64               `gorm:"column:gross_amount;not null" json:"grossAmount"`                                   // 总额，创建后不可变
	PayStatus             PayStatus           `gorm:"column:pay_status;type:varchar(16);not null;index" json:"payStatus"`                // 支付状态
	FulfillStatus         FulfillStatus       `gorm:"column:fulfill_status;type:varchar(16);not null;index" json:"fulfillStatus"`        // 履约状态
	AdminNote             string              `gorm:"column:admin_note;type:varchar(255)" json:"adminNote"`                              // 客服备注
	ConfirmedBy           string              `gorm:"column:confirmed_by;type:varchar(64)" json:"confirmedBy"`                           // 操作人
	ConfirmedAt           *time.Time          `gorm:"column:confirmed_at" json:"confirmedAt"`                                            // 操作时间
	SnapToken             string              `gorm:"column:snap_token;type:varchar(128)" json:"-"`                                      // Snap token
	GatewayRaw            string              `gorm:"column:gateway_raw;type:text" json:"-"`                                             // 最近一次回调/查询原文
	PaymentNotifiedAt     *time.Time          `gorm:"column:payment_notified_at" json:"paymentNotifiedAt"`                               // 支付通知水位线
	FulfillmentNotifiedAt *time.Time          `gorm:"column:fulfillment_notified_at" json:"fulfillmentNotifiedAt"`                       // 履约通知水位线
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime;index" json:"createdAt"`                           // 创建时间
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`                                 // 更新时间
	Product               *mainmodel.Product  `gorm:"foreignKey:ProductID;references:ID" json:"product,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// Draft 下单草稿；单价与数量由服务层按商品计价规则给出
type Draft struct {
	ProductID uint64
	GameID    string
	Nickname  string
	WhatsApp  string
	Qty       int
	UnitPrice int64
}
