package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	ordermodel "rd-topup-api/internal/model/order"
	"rd-topup-api/internal/system"
)

// Event 需要通知买家的业务事件
type Event string

const (
	EventPaymentSettled      Event = "payment_settled"
	EventFulfillmentDone     Event = "fulfillment_done"
	EventFulfillmentRejected Event = "fulfillment_rejected"
)

// Watermark 水位线类型；done 与 rejected 共用一个
func (e Event) Watermark() ordermodel.NotifyKind {
	if e == EventPaymentSettled {
		return ordermodel.NotifyPayment
	}
	return ordermodel.NotifyFulfillment
}

// 模板为空时的兜底文案
const (
	DefaultTemplatePay      = "Halo {nickname}, pembayaran order {order_id} ({product}) sebesar Rp{total} sudah kami terima. Pesanan segera diproses."
	DefaultTemplateDone     = "Order {order_id} ({product}) untuk ID {game_id} sudah selesai. {admin_note}"
	DefaultTemplateRejected = "Maaf, order {order_id} ({product}) tidak dapat diproses. Catatan: {admin_note}"
)

type Sender interface {
	Send(ctx context.Context, to, text string) error
}

type WatermarkStore interface {
	MarkNotified(ctx context.Context, orderID string, kind ordermodel.NotifyKind) (bool, error)
}

type SettingsSource interface {
	Get(ctx context.Context) (system.Settings, error)
}

// Dispatcher 每个 (订单, 水位线) 最多发送一次；失败只记日志
type Dispatcher struct {
	marks    WatermarkStore
	sender   Sender
	settings SettingsSource
	log      logrus.FieldLogger
}

func NewDispatcher(marks WatermarkStore, sender Sender, settings SettingsSource, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{marks: marks, sender: sender, settings: settings, log: log}
}

// Notify 返回是否实际尝试了发送
func (d *Dispatcher) Notify(ctx context.Context, o *ordermodel.Order, ev Event) bool {
	// 发送结果不影响调用方请求，也不随客户端断开而取消
	ctx = context.WithoutCancel(ctx)
	l := d.log.WithFields(logrus.Fields{"order_id": o.OrderID, "event": ev})

	st, err := d.settings.Get(ctx)
	if err != nil {
		l.Errorf("[Notify] ❌ 读取配置失败: %v", err)
		return false
	}
	if !st.WhatsAppEnabled {
		// 未开启时不占用水位线
		l.Debug("[Notify] WhatsApp 未开启，跳过")
		return false
	}

	claimed, err := d.marks.MarkNotified(ctx, o.OrderID, ev.Watermark())
	if err != nil {
		l.Errorf("[Notify] ❌ 写水位线失败: %v", err)
		return false
	}
	if !claimed {
		l.Debug("[Notify] 已由其他请求发送，跳过")
		return false
	}

	text := Render(templateFor(st, ev), OrderData(o))
	if err := d.sender.Send(ctx, o.WhatsApp, text); err != nil {
		// 水位线已设置，不会重试
		l.Warnf("[Notify] ⚠️ 发送失败（不重试）: %v", err)
		return true
	}
	l.Info("[Notify] ✅ 已发送")
	return true
}

func templateFor(st system.Settings, ev Event) string {
	var tpl, def string
	switch ev {
	case EventPaymentSettled:
		tpl, def = st.WhatsAppTemplatePay, DefaultTemplatePay
	case EventFulfillmentDone:
		tpl, def = st.WhatsAppTemplateDone, DefaultTemplateDone
	case EventFulfillmentRejected:
		tpl, def = st.WhatsAppTemplateRejected, DefaultTemplateRejected
	}
	if tpl == "" {
		return def
	}
	return tpl
}
