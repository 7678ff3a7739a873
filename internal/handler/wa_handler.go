package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"rd-topup-api/internal/constant"
	"rd-topup-api/internal/dto"
	"rd-topup-api/internal/utils"
	"rd-topup-api/internal/wa"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WAHandler struct {
	mgr      Messaging
	settings SettingsStore
	log      logrus.FieldLogger
}

func NewWAHandler(mgr Messaging, settings SettingsStore, log logrus.FieldLogger) *WAHandler {
	return &WAHandler{mgr: mgr, settings: settings, log: log}
}

// Start POST /admin/api/whatsapp/start
func (h *WAHandler) Start(c *gin.Context) {
	var req dto.WAStartReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.Fail(c, constant.Validation("%v", err))
			return
		}
	}
	st, err := h.settings.Get(c.Request.Context())
	if err != nil {
		utils.Fail(c, err)
		return
	}
	if !st.WhatsAppEnabled {
		utils.Fail(c, constant.NewError(constant.CodeMessagingDisabled))
		return
	}
	status, err := h.mgr.Start(strings.TrimSpace(req.PhoneNumber))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.OK(c, status)
}

func (h *WAHandler) Status(c *gin.Context) {
	utils.OK(c, h.mgr.Status())
}

// Test POST /admin/api/whatsapp/test
func (h *WAHandler) Test(c *gin.Context) {
	var req dto.WATestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, constant.Validation("%v", err))
		return
	}
	if err := h.mgr.Send(c.Request.Context(), req.To, req.Msg); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.OK(c, gin.H{"sent": true})
}

// Stop POST /admin/api/whatsapp/stop
func (h *WAHandler) Stop(c *gin.Context) {
	utils.OK(c, h.mgr.Stop(c.Request.Context()))
}

// Stream GET /admin/api/whatsapp/ws：每次状态变化推送一份快照
func (h *WAHandler) Stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warnf("[WA-WS] upgrade failed: %v", err)
		return
	}
	updates, cancel := h.mgr.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go readPump(conn, done)
	writePump(conn, updates, done)
}

// readPump 只用于感知客户端断开
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, updates <-chan wa.Status, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case st, ok := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := conn.WriteJSON(st); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
