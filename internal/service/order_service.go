package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"rd-topup-api/internal/config"
	"rd-topup-api/internal/constant"
	"rd-topup-api/internal/dto"
	"rd-topup-api/internal/event"
	mainmodel "rd-topup-api/internal/model/main"
	ordermodel "rd-topup-api/internal/model/order"
	"rd-topup-api/internal/utils"
)

const maxNicknameLen = 40

// OrderService 前台下单
type OrderService struct {
	orders   OrderStore
	products ProductStore
	gateway  Gateway
	settings SettingsSource
	pub      event.Publisher
	alert    Alerter
	cfg      config.OrderCfg
	baseURL  string
	region   string
	log      logrus.FieldLogger
}

func NewOrderService(orders OrderStore, products ProductStore, gateway Gateway, settings SettingsSource,
	pub event.Publisher, alert Alerter, cfg config.OrderCfg, baseURL, region string, log logrus.FieldLogger) *OrderService {
	return &OrderService{
		orders:   orders,
		products: products,
		gateway:  gateway,
		settings: settings,
		pub:      pub,
		alert:    alert,
		cfg:      cfg,
		baseURL:  strings.TrimRight(baseURL, "/"),
		region:   region,
		log:      log,
	}
}

// Products 在售商品
func (s *OrderService) Products(ctx context.Context) ([]mainmodel.Product, error) {
	return s.products.ListActive(ctx)
}

// Create 校验 → 计价 → 落库 → 创建 Snap 交易
func (s *OrderService) Create(ctx context.Context, req dto.CreateOrderReq) (*dto.CreateOrderResp, error) {
	gameID := strings.TrimSpace(req.GameID)
	if gameID == "" {
		return nil, constant.Validation("gameId is required")
	}
	nickname := truncateRunes(strings.TrimSpace(req.Nickname), maxNicknameLen)
	whatsapp, err := utils.NormalizeWhatsApp(req.WhatsApp, s.region)
	if err != nil {
		return nil, err
	}

	// 1) 商品与计价
	product, err := s.products.GetActive(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	qty, unit := product.Quote(clamp(req.Qty, 1, s.cfg.MaxQty))

	// 2) 落库（总额上限在存储层校验）
	o, err := s.orders.Create(ctx, ordermodel.Draft{
		ProductID: product.ID,
		GameID:    gameID,
		Nickname:  nickname,
		WhatsApp:  whatsapp,
		Qty:       qty,
		UnitPrice: unit,
	})
	if err != nil {
		return nil, err
	}
	o.Product = product
	l := s.log.WithField("order_id", o.OrderID)
	event.PublishAsync(s.pub, s.log, event.TopicOrderCreated, orderEvent(event.TopicOrderCreated, o))

	// 3) 网关下单
	st, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	itemID := product.SKU
	if itemID == "" {
		itemID = strconv.FormatUint(product.ID, 10)
	}
	firstName := nickname
	if firstName == "" {
		firstName = "Customer"
	}
	snapReq := &dto.SnapTransactionReq{
		TransactionDetails: dto.SnapTransactionDetails{OrderID: o.OrderID, GrossAmount: o.GrossAmount},
		ItemDetails:        []dto.SnapItem{{ID: itemID, Name: product.Name, Price: unit, Quantity: qty}},
		CustomerDetails:    &dto.SnapCustomer{FirstName: firstName, Phone: whatsapp},
	}
	if s.baseURL != "" {
		snapReq.Callbacks = &dto.SnapCallbacks{Finish: s.baseURL + "/finish?order_id=" + url.QueryEscape(o.OrderID)}
	}

	resp, err := s.gateway.CreateTransaction(ctx, credentials(st), snapReq)
	if err != nil {
		l.Errorf("[Order] ❌ 创建 Snap 交易失败: %v", err)
		if markErr := s.orders.MarkCreateFailed(ctx, o.OrderID, fmt.Sprintf("Midtrans error: %v", err)); markErr != nil {
			l.Errorf("[Order] ❌ 标记失败状态出错: %v", markErr)
		}
		s.alert.Alert("Midtrans create transaction failed", map[string]string{
			"order_id": o.OrderID,
			"error":    err.Error(),
		})
		return nil, constant.NewErrorf(constant.CodeUpstreamError, "create payment: %v", err)
	}
	if err := s.orders.SetSnapToken(ctx, o.OrderID, resp.Token); err != nil {
		l.Warnf("[Order] ⚠️ 保存 snap token 失败: %v", err)
	}
	l.Infof("[Order] ✅ 下单成功 gross=%d", o.GrossAmount)

	return &dto.CreateOrderResp{
		OrderID:     o.OrderID,
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
		GrossAmount: o.GrossAmount,
	}, nil
}

func clamp(n, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
