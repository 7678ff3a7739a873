package wa

import (
	"context"
	"time"
)

// State 会话状态
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateNeedPair     State = "need_pair"
	StateConnected    State = "connected"
)

// Status 对外暴露的会话快照
type Status struct {
	State     State     `json:"status"`
	QR        string    `json:"qr,omitempty"`       // PNG data URL
	PairCode  string    `json:"pairCode,omitempty"` // 与 QR 互斥
	LastError string    `json:"lastError,omitempty"`
	Me        string    `json:"me,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EventKind 网络侧事件
type EventKind int

const (
	EventQR EventKind = iota + 1
	EventConnected
	EventDisconnected
	EventLoggedOut
)

func (k EventKind) String() string {
	switch k {
	case EventQR:
		return "qr"
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventLoggedOut:
		return "logged_out"
	}
	return "unknown"
}

// Event 由 Session 实现回调给 Manager
type Event struct {
	Kind EventKind
	QR   string // EventQR 的原始配对串
	Me   string // EventConnected 的账号
	Err  error
}

// Session 单次连接尝试的句柄；凭据由实现自行持久化
type Session interface {
	Registered() bool
	Connect(ctx context.Context) error
	PairPhone(ctx context.Context, phone string) (string, error)
	SendText(ctx context.Context, to, text string) error
	Logout(ctx context.Context) error
	Disconnect()
}

// Dialer 创建 Session，事件通过 emit 回送
type Dialer interface {
	Dial(ctx context.Context, emit func(Event)) (Session, error)
}
