package callback

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"rd-topup-api/internal/constant"
	"rd-topup-api/internal/dto"
	ordermodel "rd-topup-api/internal/model/order"
	"rd-topup-api/internal/system"
	"rd-topup-api/internal/utils"
)

type PaymentApplier interface {
	ApplyGatewayStatus(ctx context.Context, orderID, gatewayStatus, raw string) (*ordermodel.Order, error)
}

type SettingsSource interface {
	Get(ctx context.Context) (system.Settings, error)
}

type Alerter interface {
	Alert(title string, fields map[string]string)
}

// MidtransCallback 网关异步通知：验签 → 写状态 → 金额核对
type MidtransCallback struct {
	payments PaymentApplier
	settings SettingsSource
	alert    Alerter
	log      logrus.FieldLogger
}

func NewMidtransCallback(payments PaymentApplier, settings SettingsSource, alert Alerter, log logrus.FieldLogger) *MidtransCallback {
	return &MidtransCallback{payments: payments, settings: settings, alert: alert, log: log}
}

// HandleNotification 返回 nil 表示应答 200；返回 error 时网关会按状态码决定是否重试
func (s *MidtransCallback) HandleNotification(ctx context.Context, body []byte, clientIP string) error {
	var msg dto.MidtransNotification
	if err := json.Unmarshal(body, &msg); err != nil {
		return constant.Validation("invalid notification body: %v", err)
	}
	orderID := strings.TrimSpace(msg.OrderID)
	if orderID == "" {
		return constant.Validation("order_id is required")
	}
	l := s.log.WithFields(logrus.Fields{"order_id": orderID, "ip": clientIP})

	st, err := s.settings.Get(ctx)
	if err != nil {
		l.Errorf("[CALLBACK-MIDTRANS] ❌ 读取配置失败: %v", err)
		return constant.NewErrorf(constant.CodeDatabaseError, "load settings: %v", err)
	}

	// 签名按回调原文的 status_code / gross_amount 计算
	if !utils.VerifyGatewaySignature(orderID, msg.StatusCode.String(), msg.GrossAmount.String(), st.MidtransServerKey, msg.SignatureKey) {
		l.Warn("[CALLBACK-MIDTRANS] ⚠️ 签名校验失败")
		s.alert.Alert("Midtrans webhook bad signature", map[string]string{
			"order_id": orderID,
			"ip":       clientIP,
		})
		return constant.NewErrorf(constant.CodeSignatureError, "invalid signature")
	}

	o, err := s.payments.ApplyGatewayStatus(ctx, orderID, msg.TransactionStatus, string(body))
	if err != nil {
		if errors.Is(err, constant.ErrNotFound) {
			// 未知订单也应答成功，避免网关无限重试
			l.Warn("[CALLBACK-MIDTRANS] ⚠️ 订单不存在，已忽略")
			return nil
		}
		l.Errorf("[CALLBACK-MIDTRANS] ❌ 写入状态失败: %v", err)
		return err
	}
	l.Infof("[CALLBACK-MIDTRANS] ✅ %s → %s", msg.TransactionStatus, o.PayStatus)

	s.auditAmount(o, msg.GrossAmount.String())
	return nil
}

// auditAmount 金额不一致只告警，状态照常写入
func (s *MidtransCallback) auditAmount(o *ordermodel.Order, gross string) {
	if gross == "" {
		return
	}
	got, err := decimal.NewFromString(gross)
	if err != nil {
		s.log.Warnf("[CALLBACK-MIDTRANS] ⚠️ gross_amount 无法解析: %q", gross)
		return
	}
	if got.Equal(decimal.NewFromInt(o.GrossAmount)) {
		return
	}
	s.log.WithField("order_id", o.OrderID).Warnf("[CALLBACK-MIDTRANS] ⚠️ 金额不一致 callback=%s order=%d", got, o.GrossAmount)
	s.alert.Alert("Midtrans amount mismatch", map[string]string{
		"order_id": o.OrderID,
		"callback": got.String(),
		"order":    strconv.FormatInt(o.GrossAmount, 10),
	})
}
