package wa

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"rd-topup-api/internal/constant"
	"rd-topup-api/internal/utils"
)

var (
	ErrClosed           = errors.New("whatsapp manager closed")
	errHandshakeTimeout = errors.New("handshake timed out")
)

// Options 管理器参数
type Options struct {
	ReconnectDelay   time.Duration
	HandshakeTimeout time.Duration
	SendTimeout      time.Duration
	RenderQR         func(code string) (string, error)
}

// DeviceChecker 可选：判断是否已有持久化凭据，用于开机自动恢复
type DeviceChecker interface {
	HasDevice(ctx context.Context) (bool, error)
}

// Manager 单连接 WhatsApp 会话状态机
//
// disconnected → connecting → (need_pair →) connected → disconnected
//
// 非 logout 的断线会在 ReconnectDelay 后自动重连；logout 后保持 disconnected 直到再次 Start。
// 每次连接尝试有独立的代号 gen，过期尝试的事件被丢弃。
type Manager struct {
	dialer Dialer
	opts   Options
	log    logrus.FieldLogger
	now    func() time.Time

	// starting 保证同一时刻只有一个握手在进行
	starting atomic.Bool

	mu        sync.Mutex
	st        Status
	sess      Session
	gen       uint64
	pairPhone string
	pairAsked bool
	reconnect *time.Timer
	watchdog  *time.Timer
	closed    bool
	subs      map[chan Status]struct{}
}

func NewManager(dialer Dialer, opts Options, log logrus.FieldLogger) *Manager {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = 2 * time.Second
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 30 * time.Second
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 15 * time.Second
	}
	if opts.RenderQR == nil {
		opts.RenderQR = RenderQR
	}
	m := &Manager{
		dialer: dialer,
		opts:   opts,
		log:    log,
		now:    time.Now,
		subs:   make(map[chan Status]struct{}),
	}
	m.st = Status{State: StateDisconnected, UpdatedAt: m.now()}
	return m
}

// Status 当前快照
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st
}

func (m *Manager) CurrentState() State {
	return m.Status().State
}

// Start 显式启动。已在连接中或已连接时直接返回当前状态。
// phone 非空且设备未注册时使用配对码，否则使用二维码。
func (m *Manager) Start(phone string) (Status, error) {
	return m.start(phone, false)
}

// AutoStart 开机时仅在已有凭据时恢复会话，不主动进入配对
func (m *Manager) AutoStart(ctx context.Context) (Status, error) {
	if dc, ok := m.dialer.(DeviceChecker); ok {
		has, err := dc.HasDevice(ctx)
		if err != nil {
			return m.Status(), err
		}
		if !has {
			m.log.Info("[WA] 未找到已配对设备，跳过自动启动")
			return m.Status(), nil
		}
	}
	return m.start("", true)
}

func (m *Manager) start(phone string, auto bool) (Status, error) {
	if !m.starting.CompareAndSwap(false, true) {
		return m.Status(), nil
	}
	defer m.starting.Store(false)

	m.mu.Lock()
	if m.closed {
		st := m.st
		m.mu.Unlock()
		return st, ErrClosed
	}
	if m.st.State != StateDisconnected {
		st := m.st
		m.mu.Unlock()
		return st, nil
	}
	m.gen++
	gen := m.gen
	m.stopTimersLocked()
	m.pairPhone = utils.DigitsOnly(phone)
	m.pairAsked = false
	m.setLocked(Status{State: StateConnecting})
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.opts.HandshakeTimeout)
	defer cancel()

	sess, err := m.dialer.Dial(ctx, func(ev Event) { m.handle(gen, ev) })
	if err != nil {
		m.fail(gen, err, auto)
		return m.Status(), constant.NewErrorf(constant.CodeUpstreamError, "whatsapp dial: %v", err)
	}

	m.mu.Lock()
	if gen != m.gen {
		// 期间被 Stop/Close 取代
		m.mu.Unlock()
		sess.Disconnect()
		return m.Status(), nil
	}
	m.sess = sess
	if sess.Registered() {
		m.pairPhone = ""
	}
	m.armWatchdogLocked(gen)
	m.mu.Unlock()

	if err := sess.Connect(ctx); err != nil {
		m.fail(gen, err, auto)
		return m.Status(), constant.NewErrorf(constant.CodeUpstreamError, "whatsapp connect: %v", err)
	}
	return m.Status(), nil
}

// handle 网络事件驱动的状态转移
func (m *Manager) handle(gen uint64, ev Event) {
	var qr string
	if ev.Kind == EventQR {
		var err error
		if qr, err = m.opts.RenderQR(ev.QR); err != nil {
			m.log.Warnf("[WA] ⚠️ 渲染二维码失败: %v", err)
			return
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || m.closed {
		m.log.Debugf("[WA] 丢弃过期事件 %s gen=%d", ev.Kind, gen)
		return
	}

	switch ev.Kind {
	case EventQR:
		if m.st.State == StateConnected {
			return
		}
		m.stopWatchdogLocked()
		if m.pairPhone != "" {
			// 配对码与二维码互斥：首个 QR 事件说明连接已就绪，改为申请配对码
			if !m.pairAsked {
				m.pairAsked = true
				go m.requestPairCode(gen, m.sess, m.pairPhone)
			}
			return
		}
		m.setLocked(Status{State: StateNeedPair, QR: qr})

	case EventConnected:
		m.stopWatchdogLocked()
		m.pairPhone = ""
		m.setLocked(Status{State: StateConnected, Me: ev.Me})

	case EventDisconnected, EventLoggedOut:
		prev := m.st.State
		if prev == StateDisconnected {
			return
		}
		sess := m.sess
		m.sess = nil
		m.stopWatchdogLocked()

		lastErr := ev.Kind.String()
		if ev.Err != nil {
			lastErr = ev.Err.Error()
		}
		m.setLocked(Status{State: StateDisconnected, LastError: lastErr})

		// 配对阶段失败与 logout 都需要人工重新 Start
		if ev.Kind == EventDisconnected && prev != StateNeedPair {
			m.scheduleReconnectLocked(gen)
		}
		if sess != nil {
			go sess.Disconnect()
		}
	}
}

func (m *Manager) requestPairCode(gen uint64, sess Session, phone string) {
	if sess == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.opts.HandshakeTimeout)
	defer cancel()

	code, err := sess.PairPhone(ctx, phone)
	if err != nil {
		m.log.Errorf("[WA] ❌ 申请配对码失败: %v", err)
		m.fail(gen, err, false)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || m.st.State == StateConnected {
		return
	}
	m.setLocked(Status{State: StateNeedPair, PairCode: code})
}

// fail 本次尝试失败，回到 disconnected；auto 时继续按延迟重连
func (m *Manager) fail(gen uint64, err error, auto bool) {
	m.mu.Lock()
	if gen != m.gen || m.closed {
		m.mu.Unlock()
		return
	}
	sess := m.sess
	m.sess = nil
	m.stopTimersLocked()
	m.setLocked(Status{State: StateDisconnected, LastError: err.Error()})
	if auto {
		m.scheduleReconnectLocked(gen)
	}
	m.mu.Unlock()

	m.log.Warnf("[WA] ⚠️ 连接失败: %v", err)
	if sess != nil {
		go sess.Disconnect()
	}
}

func (m *Manager) scheduleReconnectLocked(gen uint64) {
	if m.closed {
		return
	}
	if m.reconnect != nil {
		m.reconnect.Stop()
	}
	m.log.Infof("[WA] 🔄 %s 后重连", m.opts.ReconnectDelay)
	m.reconnect = time.AfterFunc(m.opts.ReconnectDelay, func() {
		m.mu.Lock()
		stale := gen != m.gen || m.closed || m.st.State != StateDisconnected
		m.mu.Unlock()
		if stale {
			return
		}
		if _, err := m.start("", true); err != nil {
			m.log.Warnf("[WA] ⚠️ 重连失败: %v", err)
		}
	})
}

func (m *Manager) armWatchdogLocked(gen uint64) {
	m.stopWatchdogLocked()
	m.watchdog = time.AfterFunc(m.opts.HandshakeTimeout, func() {
		m.mu.Lock()
		expired := gen == m.gen && m.st.State == StateConnecting
		m.mu.Unlock()
		if expired {
			m.fail(gen, errHandshakeTimeout, true)
		}
	})
}

func (m *Manager) stopWatchdogLocked() {
	if m.watchdog != nil {
		m.watchdog.Stop()
		m.watchdog = nil
	}
}

func (m *Manager) stopTimersLocked() {
	m.stopWatchdogLocked()
	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}
}

// setLocked 更新快照并推送给订阅者（非阻塞，慢订阅者只保留最新）
func (m *Manager) setLocked(st Status) {
	prev := m.st.State
	st.UpdatedAt = m.now()
	m.st = st
	if prev != st.State {
		m.log.WithField("state", st.State).Infof("[WA] 状态变更 %s → %s", prev, st.State)
	}
	for ch := range m.subs {
		select {
		case ch <- st:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
}

// Send 发送一条文本；未连接时返回 ErrNotConnected，不排队不重试
func (m *Manager) Send(ctx context.Context, to, text string) error {
	m.mu.Lock()
	sess := m.sess
	ready := m.st.State == StateConnected && sess != nil
	m.mu.Unlock()
	if !ready {
		return constant.NewErrorf(constant.CodeMessagingNotConnected, "whatsapp not connected")
	}

	to = utils.DigitsOnly(to)
	if to == "" {
		return constant.Validation("recipient is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, m.opts.SendTimeout)
	defer cancel()
	if err := sess.SendText(ctx, to, text); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return constant.NewErrorf(constant.CodeUpstreamTimeout, "whatsapp send timeout: %v", err)
		}
		return constant.NewErrorf(constant.CodeUpstreamError, "whatsapp send: %v", err)
	}
	return nil
}

// Stop 退出登录并清除配对信息，不会自动重连
func (m *Manager) Stop(ctx context.Context) Status {
	m.mu.Lock()
	m.gen++
	m.stopTimersLocked()
	sess := m.sess
	m.sess = nil
	wasConnected := m.st.State == StateConnected
	m.pairPhone = ""
	m.setLocked(Status{State: StateDisconnected})
	st := m.st
	m.mu.Unlock()

	if sess != nil {
		if wasConnected {
			if err := sess.Logout(ctx); err != nil {
				m.log.Warnf("[WA] ⚠️ logout 失败: %v", err)
			}
		}
		sess.Disconnect()
	}
	return st
}

// Subscribe 订阅状态变化，立即收到一次当前快照
func (m *Manager) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 4)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		close(ch)
		return ch, func() {}
	}
	m.subs[ch] = struct{}{}
	ch <- m.st
	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[ch]; ok {
			delete(m.subs, ch)
			close(ch)
		}
	}
}

// Close 进程退出：取消重连定时器并断开（保留凭据）
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.gen++
	m.stopTimersLocked()
	sess := m.sess
	m.sess = nil
	for ch := range m.subs {
		delete(m.subs, ch)
		close(ch)
	}
	m.mu.Unlock()

	if sess != nil {
		sess.Disconnect()
	}
}
