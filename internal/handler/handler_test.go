package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rd-topup-api/internal/constant"
	"rd-topup-api/internal/dto"
	"rd-topup-api/internal/logger"
	"rd-topup-api/internal/middleware"
	mainmodel "rd-topup-api/internal/model/main"
	ordermodel "rd-topup-api/internal/model/order"
	"rd-topup-api/internal/repo"
	"rd-topup-api/internal/system"
	"rd-topup-api/internal/utils"
	"rd-topup-api/internal/wa"
)

const adminToken = "s3cret"

type fakeCheckout struct{ last dto.CreateOrderReq }

func (f *fakeCheckout) Create(ctx context.Context, req dto.CreateOrderReq) (*dto.CreateOrderResp, error) {
	f.last = req
	return &dto.CreateOrderResp{OrderID: "RD-1", Token: "tok", GrossAmount: 30000}, nil
}

func (f *fakeCheckout) Products(ctx context.Context) ([]mainmodel.Product, error) {
	return []mainmodel.Product{{ID: 1, Name: "86 Diamonds"}}, nil
}

type fakePoller struct{}

func (fakePoller) Poll(ctx context.Context, orderID string) (*dto.OrderStatusResp, error) {
	if orderID != "RD-1" {
		return nil, constant.NewErrorf(constant.CodeOrderNotFound, "order not found")
	}
	return &dto.OrderStatusResp{OrderID: orderID, PayStatus: "settlement", FulfillStatus: "waiting", IsFinal: true}, nil
}

type fakeNotification struct{ err error }

func (f fakeNotification) HandleNotification(ctx context.Context, body []byte, ip string) error {
	return f.err
}

type fakeAdmin struct{ filter repo.ListFilter }

func (f *fakeAdmin) Metrics(ctx context.Context) (*repo.Metrics, error) { return &repo.Metrics{}, nil }

func (f *fakeAdmin) ListOrders(ctx context.Context, fl repo.ListFilter) ([]ordermodel.Order, error) {
	f.filter = fl
	return nil, nil
}

type fakeFulfiller struct{ staff string }

func (f *fakeFulfiller) Fulfill(ctx context.Context, orderID, status, note, staffID string) (*ordermodel.Order, error) {
	f.staff = staffID
	return &ordermodel.Order{OrderID: orderID, FulfillStatus: ordermodel.FulfillStatus(status)}, nil
}

type fakeSettings struct {
	st    system.Settings
	saved map[string]string
}

func (f *fakeSettings) Get(ctx context.Context) (system.Settings, error)    { return f.st, nil }
func (f *fakeSettings) Masked(ctx context.Context) (system.Settings, error) { return f.st, nil }
func (f *fakeSettings) Save(ctx context.Context, values map[string]string) error {
	f.saved = values
	return nil
}

type fakeMessaging struct {
	started string
	updates chan wa.Status
}

func (f *fakeMessaging) Start(phone string) (wa.Status, error) {
	f.started = phone
	return wa.Status{State: wa.StateConnecting}, nil
}
func (f *fakeMessaging) Status() wa.Status { return wa.Status{State: wa.StateDisconnected} }
func (f *fakeMessaging) Send(ctx context.Context, to, text string) error {
	return constant.NewErrorf(constant.CodeMessagingNotConnected, "whatsapp not connected")
}
func (f *fakeMessaging) Stop(ctx context.Context) wa.Status { return wa.Status{State: wa.StateDisconnected} }
func (f *fakeMessaging) Subscribe() (<-chan wa.Status, func()) {
	return f.updates, func() {}
}

type env struct {
	router   *gin.Engine
	checkout *fakeCheckout
	admin    *fakeAdmin
	fulfill  *fakeFulfiller
	settings *fakeSettings
	msg      *fakeMessaging
}

func newEnv(t *testing.T, notifyErr error) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, middleware.RegisterValidators("ID"))

	e := &env{
		checkout: &fakeCheckout{},
		admin:    &fakeAdmin{},
		fulfill:  &fakeFulfiller{},
		settings: &fakeSettings{},
		msg:      &fakeMessaging{updates: make(chan wa.Status, 1)},
	}
	log := logger.Discard()
	e.router = NewRouter(Handlers{
		Order:   NewOrderHandler(e.checkout, fakePoller{}),
		Webhook: NewWebhookHandler(fakeNotification{err: notifyErr}),
		Admin:   NewAdminHandler(e.admin, e.fulfill, e.settings),
		WA:      NewWAHandler(e.msg, e.settings, log),
	}, adminToken, nil, log)
	return e
}

func (e *env) do(method, path, body string, admin bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("Authorization", "Bearer "+adminToken)
		req.Header.Set("X-Staff-Id", "staff-7")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) utils.Response {
	t.Helper()
	var resp utils.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthz(t *testing.T) {
	e := newEnv(t, nil)
	w := e.do(http.MethodGet, "/healthz", "", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.TraceIDHeader))
}

func TestCreateOrder(t *testing.T) {
	e := newEnv(t, nil)

	w := e.do(http.MethodPost, "/api/order/create", `{"productId":1,"gameId":"123","whatsapp":"081234567890","qty":3}`, false)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 3, e.checkout.last.Qty)
	assert.Equal(t, constant.CodeSuccess, decode(t, w).Code)

	w = e.do(http.MethodPost, "/api/order/create", `{"productId":1,"gameId":"123","whatsapp":"12"}`, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, constant.CodeInvalidParams, decode(t, w).Code)
}

func TestOrderStatus(t *testing.T) {
	e := newEnv(t, nil)

	w := e.do(http.MethodGet, "/api/order/status/RD-1", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"isFinal":true`)
	assert.Contains(t, w.Body.String(), `"pay_status":"settlement"`)

	w = e.do(http.MethodGet, "/api/order/status/RD-404", "", false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWebhookStatusCodes(t *testing.T) {
	cases := []struct {
		err  error
		code int
		body string
	}{
		{nil, http.StatusOK, "ok"},
		{constant.Validation("order_id is required"), http.StatusBadRequest, "Bad Request"},
		{constant.NewErrorf(constant.CodeSignatureError, "invalid signature"), http.StatusUnauthorized, "Unauthorized"},
		{constant.NewErrorf(constant.CodeDatabaseError, "db down"), http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tc := range cases {
		e := newEnv(t, tc.err)
		w := e.do(http.MethodPost, "/midtrans/notification", `{}`, false)
		assert.Equal(t, tc.code, w.Code)
		assert.Equal(t, tc.body, w.Body.String())
	}
}

func TestAdminRequiresToken(t *testing.T) {
	e := newEnv(t, nil)

	w := e.do(http.MethodGet, "/admin/api/metrics", "", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodGet, "/admin/api/metrics", "", true)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminOrdersAndFulfill(t *testing.T) {
	e := newEnv(t, nil)

	w := e.do(http.MethodGet, "/admin/api/orders?pay_status=settlement&q=budi&limit=50", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, repo.ListFilter{PayStatus: "settlement", Keyword: "budi", Limit: 50}, e.admin.filter)

	w = e.do(http.MethodPost, "/admin/api/orders/RD-1/fulfill", `{"fulfill_status":"done","admin_note":"ok"}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "staff-7", e.fulfill.staff)

	w = e.do(http.MethodPost, "/admin/api/orders/RD-1/fulfill", `{"fulfill_status":"shipped"}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaveSettingsStringifiesValues(t *testing.T) {
	e := newEnv(t, nil)

	w := e.do(http.MethodPost, "/admin/api/settings", `{"whatsapp_enabled":true,"site_name":"RD Store"}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{"whatsapp_enabled": "true", "site_name": "RD Store"}, e.settings.saved)
}

func TestWhatsAppStartRequiresEnabled(t *testing.T) {
	e := newEnv(t, nil)

	w := e.do(http.MethodPost, "/admin/api/whatsapp/start", `{"phoneNumber":"6281234567890"}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, constant.CodeMessagingDisabled, decode(t, w).Code)
	assert.Empty(t, e.msg.started)

	e.settings.st.WhatsAppEnabled = true
	w = e.do(http.MethodPost, "/admin/api/whatsapp/start", `{"phoneNumber":"6281234567890"}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "6281234567890", e.msg.started)
}

func TestWhatsAppTestNotConnected(t *testing.T) {
	e := newEnv(t, nil)
	w := e.do(http.MethodPost, "/admin/api/whatsapp/test", `{"to":"6281234567890","msg":"hi"}`, true)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, constant.CodeMessagingNotConnected, decode(t, w).Code)
}

func TestWhatsAppStream(t *testing.T) {
	e := newEnv(t, nil)
	srv := httptest.NewServer(e.router)
	defer srv.Close()

	e.msg.updates <- wa.Status{State: wa.StateNeedPair, PairCode: "ABCD-EFGH"}

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/admin/api/whatsapp/ws?token=" + adminToken
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var st wa.Status
	require.NoError(t, json.NewDecoder(bytes.NewReader(data)).Decode(&st))
	assert.Equal(t, wa.StateNeedPair, st.State)
	assert.Equal(t, "ABCD-EFGH", st.PairCode)
}
