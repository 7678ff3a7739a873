package upstream

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rd-topup-api/internal/config"
	"rd-topup-api/internal/constant"
	"rd-topup-api/internal/dto"
	"rd-topup-api/internal/utils"
)

// Credentials 每次调用时从运行时配置读取，切换环境无需重启
type Credentials struct {
	ServerKey    string
	IsProduction bool
}

// StatusResult 状态查询结果；Raw 为原始响应，用于审计
type StatusResult struct {
	TransactionStatus string
	StatusCode        string
	GrossAmount       string
	Raw               string
}

// Midtrans Snap + Core API 客户端
type Midtrans struct {
	cfg    config.GatewayCfg
	client *http.Client
}

func NewMidtrans(cfg config.GatewayCfg) *Midtrans {
	if cfg.CreateTimeout <= 0 {
		cfg.CreateTimeout = 10 * time.Second
	}
	if cfg.StatusTimeout <= 0 {
		cfg.StatusTimeout = 8 * time.Second
	}
	return &Midtrans{cfg: cfg, client: &http.Client{}}
}

// WithHTTPClient 测试替换 transport
func (m *Midtrans) WithHTTPClient(c *http.Client) *Midtrans {
	m.client = c
	return m
}

func (m *Midtrans) snapBase(prod bool) string {
	if prod {
		return strings.TrimRight(m.cfg.SnapProductionURL, "/")
	}
	return strings.TrimRight(m.cfg.SnapSandboxURL, "/")
}

func (m *Midtrans) coreBase(prod bool) string {
	if prod {
		return strings.TrimRight(m.cfg.CoreProductionURL, "/")
	}
	return strings.TrimRight(m.cfg.CoreSandboxURL, "/")
}

func authHeader(serverKey string) map[string]string {
	return map[string]string{
		"Authorization": "Basic " + base64.StdEncoding.EncodeToString([]byte(serverKey+":")),
	}
}

// CreateTransaction 创建 Snap 交易，返回 token 与跳转地址
func (m *Midtrans) CreateTransaction(ctx context.Context, cred Credentials, req *dto.SnapTransactionReq) (*dto.SnapTransactionResp, error) {
	if cred.ServerKey == "" {
		return nil, constant.NewErrorf(constant.CodeUpstreamError, "midtrans server key not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, m.cfg.CreateTimeout)
	defer cancel()

	status, body, err := utils.HttpPostJson(ctx, m.client, m.snapBase(cred.IsProduction)+"/snap/v1/transactions", req, authHeader(cred.ServerKey))
	if err != nil {
		return nil, remoteErr(err)
	}

	var resp dto.SnapTransactionResp
	_ = json.Unmarshal(body, &resp)
	if status != http.StatusCreated && status != http.StatusOK {
		msg := resp.ErrorMessages.Text
		if msg == "" {
			msg = truncate(string(body), 200)
		}
		return nil, constant.NewErrorf(constant.CodeUpstreamError, "snap http %d: %s", status, msg)
	}
	if resp.Token == "" {
		return nil, constant.NewErrorf(constant.CodeUpstreamError, "snap returned empty token")
	}
	return &resp, nil
}

// Status 查询交易状态；非 200 或缺少 transaction_status 视为失败
func (m *Midtrans) Status(ctx context.Context, cred Credentials, orderID string) (*StatusResult, error) {
	if cred.ServerKey == "" {
		return nil, constant.NewErrorf(constant.CodeUpstreamError, "midtrans server key not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, m.cfg.StatusTimeout)
	defer cancel()

	u := m.coreBase(cred.IsProduction) + "/v2/" + url.PathEscape(orderID) + "/status"
	status, body, err := utils.HttpGetJson(ctx, m.client, u, authHeader(cred.ServerKey))
	if err != nil {
		return nil, remoteErr(err)
	}
	if status != http.StatusOK {
		return nil, constant.NewErrorf(constant.CodeUpstreamError, "status http %d", status)
	}

	var resp dto.MidtransStatusResp
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, constant.NewErrorf(constant.CodeUpstreamError, "decode status: %v", err)
	}
	// Core API 对未知订单返回 200 + status_code 404
	if resp.TransactionStatus == "" {
		return nil, constant.NewErrorf(constant.CodeUpstreamError, "status_code %s: %s", resp.StatusCode, resp.StatusMessage)
	}
	return &StatusResult{
		TransactionStatus: resp.TransactionStatus,
		StatusCode:        resp.StatusCode.String(),
		GrossAmount:       resp.GrossAmount.String(),
		Raw:               string(body),
	}, nil
}

func remoteErr(err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return constant.NewErrorf(constant.CodeUpstreamTimeout, "midtrans timeout: %v", err)
	}
	return constant.NewErrorf(constant.CodeUpstreamNetworkError, "midtrans unreachable: %v", err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
