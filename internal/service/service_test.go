package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"rd-topup-api/internal/config"
	"rd-topup-api/internal/constant"
	"rd-topup-api/internal/dal"
	"rd-topup-api/internal/dto"
	"rd-topup-api/internal/event"
	"rd-topup-api/internal/logger"
	"rd-topup-api/internal/model"
	mainmodel "rd-topup-api/internal/model/main"
	ordermodel "rd-topup-api/internal/model/order"
	"rd-topup-api/internal/notify"
	"rd-topup-api/internal/repo"
	"rd-topup-api/internal/system"
	"rd-topup-api/internal/upstream"
)

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NewOrderID() (string, error) {
	return fmt.Sprintf("RD-TEST-%d", s.n.Add(1)), nil
}

type fakeGateway struct {
	mu         sync.Mutex
	status     string
	statusErr  error
	createErr  error
	statusHits int
	lastCreate *dto.SnapTransactionReq
}

func (g *fakeGateway) CreateTransaction(ctx context.Context, cred upstream.Credentials, req *dto.SnapTransactionReq) (*dto.SnapTransactionResp, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastCreate = req
	if g.createErr != nil {
		return nil, g.createErr
	}
	return &dto.SnapTransactionResp{Token: "snap-token", RedirectURL: "https://pay.example/redirect"}, nil
}

func (g *fakeGateway) Status(ctx context.Context, cred upstream.Credentials, orderID string) (*upstream.StatusResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statusHits++
	if g.statusErr != nil {
		return nil, g.statusErr
	}
	return &upstream.StatusResult{TransactionStatus: g.status, Raw: `{"transaction_status":"` + g.status + `"}`}, nil
}

type recSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *recSender) Send(ctx context.Context, to, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to+"|"+text)
	return nil
}

func (s *recSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type staticSettings struct{ st system.Settings }

func (s staticSettings) Get(ctx context.Context) (system.Settings, error) { return s.st, nil }

type nopAlert struct{ n atomic.Int32 }

func (a *nopAlert) Alert(title string, fields map[string]string) { a.n.Add(1) }

type fixture struct {
	db       *gorm.DB
	orders   *repo.OrderRepo
	products *repo.ProductRepo
	gateway  *fakeGateway
	sender   *recSender
	alert    *nopAlert
	payments *PaymentService
	status   *StatusService
	checkout *OrderService
	fulfill  *FulfillmentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := dal.OpenSQLite("file::memory:")
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(db))

	require.NoError(t, db.Create(&mainmodel.Product{
		ID: 1, SKU: "DM-86", Name: "86 Diamonds", PriceType: mainmodel.PricePerItem, PricePerItem: 10000, Active: true,
	}).Error)
	require.NoError(t, db.Create(&mainmodel.Product{
		ID: 2, Name: "Weekly Pass", PriceType: mainmodel.PriceFixed, Price: 27000, Active: true,
	}).Error)

	log := logger.Discard()
	settings := staticSettings{st: system.Settings{MidtransServerKey: "SB-Mid-server-test", WhatsAppEnabled: true}}

	f := &fixture{
		db:       db,
		orders:   repo.NewOrderRepo(db, &seqIDs{}, 2_000_000_000),
		products: repo.NewProductRepo(db),
		gateway:  &fakeGateway{status: "pending"},
		sender:   &recSender{},
		alert:    &nopAlert{},
	}
	dispatcher := notify.NewDispatcher(f.orders, f.sender, settings, log)
	pub := event.NopPublisher{}
	f.payments = NewPaymentService(f.orders, dispatcher, pub, log)
	f.status = NewStatusService(f.orders, f.gateway, settings, f.payments, log)
	f.checkout = NewOrderService(f.orders, f.products, f.gateway, settings, pub, f.alert,
		config.OrderCfg{MaxQty: 999}, "https://shop.example/", "ID", log)
	f.fulfill = NewFulfillmentService(f.orders, dispatcher, pub, log)
	return f
}

func (f *fixture) place(t *testing.T, productID uint64, qty int) *dto.CreateOrderResp {
	t.Helper()
	resp, err := f.checkout.Create(context.Background(), dto.CreateOrderReq{
		ProductID: productID, GameID: " 12345 ", Nickname: "budi", WhatsApp: "0812-3456-7890", Qty: qty,
	})
	require.NoError(t, err)
	return resp
}

func TestCreateOrderPerItem(t *testing.T) {
	f := newFixture(t)
	resp := f.place(t, 1, 3)

	assert.Equal(t, int64(30000), resp.GrossAmount)
	assert.Equal(t, "snap-token", resp.Token)

	req := f.gateway.lastCreate
	require.NotNil(t, req)
	assert.Equal(t, int64(30000), req.TransactionDetails.GrossAmount)
	assert.Equal(t, "DM-86", req.ItemDetails[0].ID)
	assert.Equal(t, 3, req.ItemDetails[0].Quantity)
	assert.Equal(t, "6281234567890", req.CustomerDetails.Phone)
	assert.Equal(t, "https://shop.example/finish?order_id="+resp.OrderID, req.Callbacks.Finish)

	o, err := f.orders.GetByOrderID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "12345", o.GameID)
	assert.Equal(t, "snap-token", o.SnapToken)
	assert.Equal(t, ordermodel.PayPending, o.PayStatus)
}

func TestCreateOrderFixedPriceIgnoresQty(t *testing.T) {
	f := newFixture(t)
	resp := f.place(t, 2, 5)

	assert.Equal(t, int64(27000), resp.GrossAmount)
	assert.Equal(t, "2", f.gateway.lastCreate.ItemDetails[0].ID)
	assert.Equal(t, 1, f.gateway.lastCreate.ItemDetails[0].Quantity)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.checkout.Create(ctx, dto.CreateOrderReq{ProductID: 1, GameID: "1", WhatsApp: "12", Qty: 1})
	assert.ErrorIs(t, err, constant.ErrValidation)

	_, err = f.checkout.Create(ctx, dto.CreateOrderReq{ProductID: 99, GameID: "1", WhatsApp: "081234567890", Qty: 1})
	assert.Equal(t, constant.CodeProductNotFound, constant.CodeOf(err))
}

func TestCreateOrderGatewayFailureMarksOrder(t *testing.T) {
	f := newFixture(t)
	f.gateway.createErr = constant.NewErrorf(constant.CodeUpstreamError, "snap http 401: unauthorized")

	_, err := f.checkout.Create(context.Background(), dto.CreateOrderReq{
		ProductID: 1, GameID: "1", WhatsApp: "081234567890", Qty: 1,
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), f.alert.n.Load())

	var rows []ordermodel.Order
	require.NoError(t, f.db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, ordermodel.PayFailure, rows[0].PayStatus)
	assert.Contains(t, rows[0].AdminNote, "Midtrans error:")
}

func TestSettlementNotifiesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resp := f.place(t, 1, 3)

	o, err := f.payments.ApplyGatewayStatus(ctx, resp.OrderID, "settlement", `{"transaction_status":"settlement"}`)
	require.NoError(t, err)
	assert.Equal(t, ordermodel.PaySettlement, o.PayStatus)

	// 重放与轮询都不会重复通知
	_, err = f.payments.ApplyGatewayStatus(ctx, resp.OrderID, "settlement", `{}`)
	require.NoError(t, err)
	f.gateway.status = "settlement"
	st, err := f.status.Poll(ctx, resp.OrderID)
	require.NoError(t, err)
	assert.True(t, st.IsFinal)

	assert.Equal(t, 1, f.sender.count())
	assert.Contains(t, f.sender.sent[0], "6281234567890|")
	assert.Contains(t, f.sender.sent[0], resp.OrderID)
}

func TestConcurrentSettlementNotifiesOnce(t *testing.T) {
	f := newFixture(t)
	resp := f.place(t, 1, 1)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.payments.ApplyGatewayStatus(context.Background(), resp.OrderID, "settlement", `{}`)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, f.sender.count())
}

func TestTerminalStatusNotOverwritten(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resp := f.place(t, 1, 1)

	_, err := f.payments.ApplyGatewayStatus(ctx, resp.OrderID, "expire", `{}`)
	require.NoError(t, err)
	o, err := f.payments.ApplyGatewayStatus(ctx, resp.OrderID, "settlement", `{}`)
	require.NoError(t, err)
	assert.Equal(t, ordermodel.PayExpire, o.PayStatus)
	assert.Equal(t, 0, f.sender.count())
}

func TestUnknownGatewayStatusKeepsPayStatus(t *testing.T) {
	f := newFixture(t)
	resp := f.place(t, 1, 1)

	o, err := f.payments.ApplyGatewayStatus(context.Background(), resp.OrderID, "refund", `{"transaction_status":"refund"}`)
	require.NoError(t, err)
	assert.Equal(t, ordermodel.PayPending, o.PayStatus)
	assert.Contains(t, o.GatewayRaw, "refund")
}

func TestPollTerminalSkipsGateway(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resp := f.place(t, 1, 1)
	_, err := f.payments.ApplyGatewayStatus(ctx, resp.OrderID, "expire", `{}`)
	require.NoError(t, err)

	st, err := f.status.Poll(ctx, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "expire", st.PayStatus)
	assert.True(t, st.IsFinal)
	assert.Equal(t, 0, f.gateway.statusHits)
}

func TestPollGatewayErrorReturnsStored(t *testing.T) {
	f := newFixture(t)
	resp := f.place(t, 1, 1)
	f.gateway.statusErr = errors.New("connection reset")

	st, err := f.status.Poll(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "pending", st.PayStatus)
	assert.False(t, st.IsFinal)
	assert.Equal(t, 1, f.gateway.statusHits)
}

func TestPollUnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.status.Poll(context.Background(), "RD-missing")
	assert.ErrorIs(t, err, constant.ErrNotFound)
}

func TestFulfillNotifiesDoneOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resp := f.place(t, 1, 1)

	o, err := f.fulfill.Fulfill(ctx, resp.OrderID, "done", "sudah masuk", "staff-1")
	require.NoError(t, err)
	assert.Equal(t, ordermodel.FulfillDone, o.FulfillStatus)
	assert.Equal(t, "staff-1", o.ConfirmedBy)
	assert.NotNil(t, o.ConfirmedAt)

	// done 与 rejected 共用水位线
	_, err = f.fulfill.Fulfill(ctx, resp.OrderID, "rejected", "salah ID", "staff-1")
	require.NoError(t, err)
	assert.Equal(t, 1, f.sender.count())
	assert.Contains(t, f.sender.sent[0], "sudah masuk")

	_, err = f.fulfill.Fulfill(ctx, resp.OrderID, "shipped", "", "staff-1")
	assert.ErrorIs(t, err, constant.ErrValidation)
}

type fakeHealth struct {
	open    bool
	records []bool
}

func (h *fakeHealth) Allow(ctx context.Context) bool { return !h.open }

func (h *fakeHealth) Record(ctx context.Context, success bool) (bool, error) {
	h.records = append(h.records, success)
	return false, nil
}

func TestPollSkipsGatewayWhileTripped(t *testing.T) {
	f := newFixture(t)
	resp := f.place(t, 1, 1)
	h := &fakeHealth{open: true}
	f.status.WithHealth(h)

	st, err := f.status.Poll(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "pending", st.PayStatus)
	assert.Equal(t, 0, f.gateway.statusHits)

	h.open = false
	f.gateway.statusErr = errors.New("boom")
	_, err = f.status.Poll(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, h.records)
}
