package callback

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rd-topup-api/internal/constant"
	"rd-topup-api/internal/logger"
	ordermodel "rd-topup-api/internal/model/order"
	"rd-topup-api/internal/system"
	"rd-topup-api/internal/utils"
)

const serverKey = "SB-Mid-server-test"

type fakeApplier struct {
	calls  []string
	gross  int64
	err    error
	status ordermodel.PayStatus
}

func (f *fakeApplier) ApplyGatewayStatus(ctx context.Context, orderID, gatewayStatus, raw string) (*ordermodel.Order, error) {
	f.calls = append(f.calls, orderID+":"+gatewayStatus)
	if f.err != nil {
		return nil, f.err
	}
	return &ordermodel.Order{OrderID: orderID, GrossAmount: f.gross, PayStatus: f.status}, nil
}

type staticSettings struct {
	st  system.Settings
	err error
}

func (s staticSettings) Get(ctx context.Context) (system.Settings, error) { return s.st, s.err }

type recAlert struct{ titles []string }

func (a *recAlert) Alert(title string, fields map[string]string) { a.titles = append(a.titles, title) }

func body(orderID, status, gross, sig string) []byte {
	return []byte(fmt.Sprintf(`{"order_id":%q,"status_code":"200","gross_amount":%q,"transaction_status":%q,"signature_key":%q}`,
		orderID, gross, status, sig))
}

func signed(orderID, status, gross string) []byte {
	return body(orderID, status, gross, utils.GatewaySignature(orderID, "200", gross, serverKey))
}

func newCallback(applier *fakeApplier, alert *recAlert) *MidtransCallback {
	return NewMidtransCallback(applier, staticSettings{st: system.Settings{MidtransServerKey: serverKey}}, alert, logger.Discard())
}

func TestNotificationAppliesStatus(t *testing.T) {
	applier := &fakeApplier{gross: 30000, status: ordermodel.PaySettlement}
	alert := &recAlert{}
	cb := newCallback(applier, alert)

	err := cb.HandleNotification(context.Background(), signed("RD-1", "settlement", "30000.00"), "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, []string{"RD-1:settlement"}, applier.calls)
	assert.Empty(t, alert.titles)
}

func TestNotificationBadSignature(t *testing.T) {
	applier := &fakeApplier{}
	alert := &recAlert{}
	cb := newCallback(applier, alert)

	err := cb.HandleNotification(context.Background(), body("RD-1", "settlement", "30000.00", "deadbeef"), "10.0.0.1")
	assert.ErrorIs(t, err, constant.ErrAuthenticity)
	assert.Empty(t, applier.calls)
	assert.Len(t, alert.titles, 1)
}

func TestNotificationMissingOrderID(t *testing.T) {
	cb := newCallback(&fakeApplier{}, &recAlert{})

	err := cb.HandleNotification(context.Background(), []byte(`{"transaction_status":"settlement"}`), "")
	assert.ErrorIs(t, err, constant.ErrValidation)

	err = cb.HandleNotification(context.Background(), []byte(`not json`), "")
	assert.ErrorIs(t, err, constant.ErrValidation)
}

func TestNotificationUnknownOrderAcked(t *testing.T) {
	applier := &fakeApplier{err: constant.NewErrorf(constant.CodeOrderNotFound, "order not found")}
	cb := newCallback(applier, &recAlert{})

	err := cb.HandleNotification(context.Background(), signed("RD-404", "settlement", "1000.00"), "")
	assert.NoError(t, err)
}

func TestNotificationStoreErrorIsRetryable(t *testing.T) {
	applier := &fakeApplier{err: errors.New("db down")}
	cb := newCallback(applier, &recAlert{})

	err := cb.HandleNotification(context.Background(), signed("RD-1", "settlement", "1000.00"), "")
	require.Error(t, err)
	assert.Equal(t, constant.CodeSystemError, constant.CodeOf(err))
}

func TestNotificationAmountMismatchAlerts(t *testing.T) {
	applier := &fakeApplier{gross: 30000, status: ordermodel.PaySettlement}
	alert := &recAlert{}
	cb := newCallback(applier, alert)

	err := cb.HandleNotification(context.Background(), signed("RD-1", "settlement", "1000.00"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Midtrans amount mismatch"}, alert.titles)
}

func TestNotificationNumericFieldsSigned(t *testing.T) {
	applier := &fakeApplier{gross: 30000, status: ordermodel.PaySettlement}
	cb := newCallback(applier, &recAlert{})

	sig := utils.GatewaySignature("RD-2", "200", "30000.00", serverKey)
	raw := []byte(`{"order_id":"RD-2","status_code":200,"gross_amount":30000.00,"transaction_status":"capture","signature_key":"` + sig + `"}`)
	require.NoError(t, cb.HandleNotification(context.Background(), raw, ""))
	assert.Equal(t, []string{"RD-2:capture"}, applier.calls)
}
