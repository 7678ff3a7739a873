package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rd-topup-api/internal/config"
	"rd-topup-api/internal/constant"
	"rd-topup-api/internal/dto"
)

func newTestClient(srv *httptest.Server, timeout time.Duration) *Midtrans {
	return NewMidtrans(config.GatewayCfg{
		SnapSandboxURL: srv.URL,
		CoreSandboxURL: srv.URL,
		CreateTimeout:  timeout,
		StatusTimeout:  timeout,
	})
}

func TestCreateTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/snap/v1/transactions", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "sk", user)
		assert.Equal(t, "", pass)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"token":"tok-1","redirect_url":"https://pay/tok-1"}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv, time.Second).CreateTransaction(context.Background(), Credentials{ServerKey: "sk"},
		&dto.SnapTransactionReq{TransactionDetails: dto.SnapTransactionDetails{OrderID: "RD-1", GrossAmount: 30000}})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", resp.Token)
	assert.Equal(t, "https://pay/tok-1", resp.RedirectURL)
}

func TestCreateTransactionRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error_messages":["Access denied due to unauthorized transaction"]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv, time.Second).CreateTransaction(context.Background(), Credentials{ServerKey: "sk"}, &dto.SnapTransactionReq{})
	require.Error(t, err)
	assert.ErrorIs(t, err, constant.ErrRemote)
	assert.Contains(t, err.Error(), "unauthorized transaction")
}

func TestStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/RD-1/status", r.URL.Path)
		_, _ = w.Write([]byte(`{"order_id":"RD-1","status_code":"200","gross_amount":"30000.00","transaction_status":"settlement"}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv, time.Second).Status(context.Background(), Credentials{ServerKey: "sk"}, "RD-1")
	require.NoError(t, err)
	assert.Equal(t, "settlement", res.TransactionStatus)
	assert.Equal(t, "200", res.StatusCode)
	assert.Contains(t, res.Raw, "30000.00")
}

func TestStatusUnknownOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status_code":"404","status_message":"Transaction doesn't exist."}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv, time.Second).Status(context.Background(), Credentials{ServerKey: "sk"}, "RD-x")
	assert.ErrorIs(t, err, constant.ErrRemote)
}

func TestStatusTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := newTestClient(srv, 50*time.Millisecond).Status(context.Background(), Credentials{ServerKey: "sk"}, "RD-1")
	assert.ErrorIs(t, err, constant.ErrRemoteTimeout)
}
