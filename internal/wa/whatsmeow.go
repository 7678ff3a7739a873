package wa

import (
	"context"
	"errors"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx 方言的 database/sql 驱动
	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

// WhatsmeowDialer 基于 whatsmeow 的 Dialer，凭据保存在 sqlstore 中，握手过程中增量写入
type WhatsmeowDialer struct {
	container   *sqlstore.Container
	log         waLog.Logger
	displayName string
}

// NewWhatsmeowDialer dialect 例如 "pgx"，dsn 为对应连接串
func NewWhatsmeowDialer(ctx context.Context, dialect, dsn, displayName string, log logrus.FieldLogger) (*WhatsmeowDialer, error) {
	wl := newLogAdapter(log.WithField("module", "whatsmeow"))
	container, err := sqlstore.New(ctx, dialect, dsn, wl.Sub("store"))
	if err != nil {
		return nil, fmt.Errorf("open whatsapp store: %w", err)
	}
	return &WhatsmeowDialer{container: container, log: wl, displayName: displayName}, nil
}

// HasDevice 是否已有配对完成的设备
func (d *WhatsmeowDialer) HasDevice(ctx context.Context) (bool, error) {
	device, err := d.container.GetFirstDevice(ctx)
	if err != nil {
		return false, err
	}
	return device != nil && device.ID != nil, nil
}

func (d *WhatsmeowDialer) Dial(ctx context.Context, emit func(Event)) (Session, error) {
	device, err := d.container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("load device: %w", err)
	}
	client := whatsmeow.NewClient(device, d.log.Sub("client"))
	// 重连由 Manager 统一调度
	client.EnableAutoReconnect = false

	s := &whatsmeowSession{client: client, emit: emit, displayName: d.displayName}
	client.AddEventHandler(s.onEvent)
	return s, nil
}

type whatsmeowSession struct {
	client      *whatsmeow.Client
	emit        func(Event)
	displayName string

	mu       sync.Mutex
	qrCancel context.CancelFunc
}

func (s *whatsmeowSession) Registered() bool {
	return s.client.Store.ID != nil
}

func (s *whatsmeowSession) Connect(ctx context.Context) error {
	if !s.Registered() {
		// QR 通道需在 Connect 之前获取，生命周期跟随会话而不是本次调用
		qrCtx, cancel := context.WithCancel(context.Background())
		ch, err := s.client.GetQRChannel(qrCtx)
		if err != nil {
			cancel()
			return err
		}
		s.mu.Lock()
		s.qrCancel = cancel
		s.mu.Unlock()
		go s.pumpQR(ch)
	}
	return s.client.Connect()
}

func (s *whatsmeowSession) pumpQR(ch <-chan whatsmeow.QRChannelItem) {
	for item := range ch {
		switch item.Event {
		case whatsmeow.QRChannelEventCode:
			s.emit(Event{Kind: EventQR, QR: item.Code})
		case whatsmeow.QRChannelSuccess.Event:
			// 随后会收到 events.Connected
		case whatsmeow.QRChannelTimeout.Event:
			s.emit(Event{Kind: EventDisconnected, Err: errors.New("pairing timed out")})
		case whatsmeow.QRChannelEventError:
			s.emit(Event{Kind: EventDisconnected, Err: item.Error})
		default:
			s.emit(Event{Kind: EventDisconnected, Err: fmt.Errorf("pairing failed: %s", item.Event)})
		}
	}
}

func (s *whatsmeowSession) onEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Connected:
		me := ""
		if s.client.Store.ID != nil {
			me = s.client.Store.ID.User
		}
		s.emit(Event{Kind: EventConnected, Me: me})
	case *events.Disconnected:
		s.emit(Event{Kind: EventDisconnected, Err: errors.New("connection lost")})
	case *events.LoggedOut:
		s.emit(Event{Kind: EventLoggedOut, Err: fmt.Errorf("logged out: %s", v.Reason.String())})
	case *events.StreamReplaced:
		// 另一端接管了会话，重连只会互相踢
		s.emit(Event{Kind: EventLoggedOut, Err: errors.New("stream replaced")})
	case *events.ConnectFailure:
		if v.Reason.IsLoggedOut() {
			s.emit(Event{Kind: EventLoggedOut, Err: fmt.Errorf("connect failure: %s", v.Reason.String())})
			return
		}
		s.emit(Event{Kind: EventDisconnected, Err: fmt.Errorf("connect failure: %s", v.Reason.String())})
	}
}

func (s *whatsmeowSession) PairPhone(ctx context.Context, phone string) (string, error) {
	return s.client.PairPhone(ctx, phone, true, whatsmeow.PairClientChrome, s.displayName)
}

func (s *whatsmeowSession) SendText(ctx context.Context, to, text string) error {
	jid := types.NewJID(to, types.DefaultUserServer)
	_, err := s.client.SendMessage(ctx, jid, &waProto.Message{Conversation: proto.String(text)})
	return err
}

func (s *whatsmeowSession) Logout(ctx context.Context) error {
	return s.client.Logout(ctx)
}

func (s *whatsmeowSession) Disconnect() {
	s.mu.Lock()
	if s.qrCancel != nil {
		s.qrCancel()
		s.qrCancel = nil
	}
	s.mu.Unlock()
	s.client.Disconnect()
}

// UnconfiguredDialer 未配置会话存储时使用，Start 直接返回错误
type UnconfiguredDialer struct{}

func (UnconfiguredDialer) Dial(ctx context.Context, emit func(Event)) (Session, error) {
	return nil, errors.New("whatsapp session store not configured")
}
