package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rd-topup-api/internal/constant"
	ordermodel "rd-topup-api/internal/model/order"
)

// IDIssuer 订单号发放器
type IDIssuer interface {
	NewOrderID() (string, error)
}

// OrderRepo 订单存储；所有并发敏感的更新都下推到单条条件 UPDATE
type OrderRepo struct {
	db       *gorm.DB
	ids      IDIssuer
	maxGross int64
	now      func() time.Time
}

func NewOrderRepo(db *gorm.DB, ids IDIssuer, maxGross int64) *OrderRepo {
	return &OrderRepo{db: db, ids: ids, maxGross: maxGross, now: time.Now}
}

// Create 计算总额并落库，0 < gross <= 上限
func (r *OrderRepo) Create(ctx context.Context, d ordermodel.Draft) (*ordermodel.Order, error) {
	if d.Qty <= 0 {
		return nil, constant.Validation("qty must be positive")
	}
	gross := d.UnitPrice * int64(d.Qty)
	if d.UnitPrice <= 0 || gross <= 0 || gross/int64(d.Qty) != d.UnitPrice {
		return nil, constant.NewErrorf(constant.CodeOrderAmountInvalid, "gross amount must be positive")
	}
	if gross > r.maxGross {
		return nil, constant.NewErrorf(constant.CodeOrderAmountInvalid, "gross amount %d exceeds ceiling %d", gross, r.maxGross)
	}

	id, err := r.ids.NewOrderID()
	if err != nil {
		return nil, err
	}
	o := &ordermodel.Order{
		OrderID:       id,
		ProductID:     d.ProductID,
		GameID:        d.GameID,
		Nickname:      d.Nickname,
		WhatsApp:      d.WhatsApp,
		Qty:           d.Qty,
		UnitPrice:     d.UnitPrice,
		GrossAmount:   gross,
		PayStatus:     ordermodel.PayPending,
		FulfillStatus: ordermodel.FulfillWaiting,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(o).Error; err != nil {
		return nil, err
	}
	return o, nil
}

// GetByOrderID 按外部订单号查询，连带商品
func (r *OrderRepo) GetByOrderID(ctx context.Context, orderID string) (*ordermodel.Order, error) {
	var o ordermodel.Order
	err := r.db.WithContext(ctx).Preload("Product").Where("order_id = ?", orderID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, constant.NewErrorf(constant.CodeOrderNotFound, "order %s not found", orderID)
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdatePaymentStatus 写入网关状态。终态不被覆盖，原文始终更新。
// status 为空时只记录原文（未知的网关状态）。
func (r *OrderRepo) UpdatePaymentStatus(ctx context.Context, orderID string, status ordermodel.PayStatus, raw string) (*ordermodel.Order, error) {
	updates := map[string]interface{}{
		"gateway_raw": raw,
		"updated_at":  r.now(),
	}
	if status != "" {
		updates["pay_status"] = gorm.Expr("CASE WHEN pay_status IN ? THEN pay_status ELSE ? END",
			ordermodel.TerminalPayStatuses, status)
	}
	res := r.db.WithContext(ctx).Model(&ordermodel.Order{}).Where("order_id = ?", orderID).UpdateColumns(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	// mysql 对值未变化的行返回 0，存在性交给回读判断
	return r.GetByOrderID(ctx, orderID)
}

// UpdateFulfillment 后台履约操作
func (r *OrderRepo) UpdateFulfillment(ctx context.Context, orderID string, status ordermodel.FulfillStatus, note, staffID string) (*ordermodel.Order, error) {
	if !status.Valid() {
		return nil, constant.Validation("invalid fulfill_status %q", status)
	}
	now := r.now()
	res := r.db.WithContext(ctx).Model(&ordermodel.Order{}).Where("order_id = ?", orderID).UpdateColumns(map[string]interface{}{
		"fulfill_status": status,
		"admin_note":     note,
		"confirmed_by":   staffID,
		"confirmed_at":   now,
		"updated_at":     now,
	})
	if res.Error != nil {
		return nil, res.Error
	}
	// mysql 对值未变化的行返回 0，存在性交给回读判断
	return r.GetByOrderID(ctx, orderID)
}

// MarkNotified CAS 设置水位线：只有把 NULL 变成非 NULL 的那一次调用返回 true
func (r *OrderRepo) MarkNotified(ctx context.Context, orderID string, kind ordermodel.NotifyKind) (bool, error) {
	col := kind.Column()
	if col == "" {
		return false, constant.Validation("unknown notify kind %q", kind)
	}
	res := r.db.WithContext(ctx).Model(&ordermodel.Order{}).
		Where("order_id = ?", orderID).
		Where(col + " IS NULL").
		UpdateColumn(col, r.now())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkCreateFailed 网关下单失败时落 failure 与备注
func (r *OrderRepo) MarkCreateFailed(ctx context.Context, orderID, note string) error {
	if len(note) > 240 {
		note = note[:240]
	}
	return r.db.WithContext(ctx).Model(&ordermodel.Order{}).Where("order_id = ?", orderID).UpdateColumns(map[string]interface{}{
		"pay_status": ordermodel.PayFailure,
		"admin_note": note,
		"updated_at": r.now(),
	}).Error
}

func (r *OrderRepo) SetSnapToken(ctx context.Context, orderID, token string) error {
	return r.db.WithContext(ctx).Model(&ordermodel.Order{}).Where("order_id = ?", orderID).
		UpdateColumn("snap_token", token).Error
}

// ListFilter 后台订单列表条件
type ListFilter struct {
	PayStatus     string
	FulfillStatus string
	Keyword       string
	Limit         int
}

// List 最新在前；关键字匹配订单号、游戏ID、昵称、号码
func (r *OrderRepo) List(ctx context.Context, f ListFilter) ([]ordermodel.Order, error) {
	q := r.db.WithContext(ctx).Model(&ordermodel.Order{}).Preload("Product")
	if f.PayStatus != "" {
		q = q.Where("pay_status = ?", f.PayStatus)
	}
	if f.FulfillStatus != "" {
		q = q.Where("fulfill_status = ?", f.FulfillStatus)
	}
	if f.Keyword != "" {
		kw := "%" + f.Keyword + "%"
		q = q.Where("order_id LIKE ? OR game_id LIKE ? OR nickname LIKE ? OR whatsapp LIKE ?", kw, kw, kw, kw)
	}
	limit := f.Limit
	if limit <= 0 || limit > 300 {
		limit = 300
	}
	var out []ordermodel.Order
	err := q.Order("id DESC").Limit(limit).Find(&out).Error
	return out, err
}
