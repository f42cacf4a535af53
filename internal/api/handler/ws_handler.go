package handler

import (
	"SetMatch/internal/api/config"
	"SetMatch/internal/pkg/realtime"
	log "log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type WsHandler struct {
	registry     realtime.Registry
	sendBuffer   int
	writeTimeout time.Duration
}

func NewWsHandler(registry realtime.Registry, cfg config.RealtimeConfig) *WsHandler {
	return &WsHandler{
		registry:     registry,
		sendBuffer:   cfg.SendBuffer,
		writeTimeout: time.Duration(cfg.WriteTimeoutMs) * time.Millisecond,
	}
}

// Connect 升级为 WebSocket 并加入当前用户的房间，断开时自动离开
func (s *WsHandler) Connect(c *gin.Context) {
	userID := currentUserID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.ErrorContext(c.Request.Context(), "WS 协议升级失败", "err", err)
		return
	}

	wsConn := realtime.NewWSConn(conn, s.sendBuffer, s.writeTimeout)
	s.registry.Join(userID, wsConn)
	log.InfoContext(c.Request.Context(), "用户 WS 连接已建立", "userID", userID, "conn", wsConn.ID())

	go wsConn.WritePump()
	wsConn.ReadPump()

	s.registry.Leave(wsConn)
	log.InfoContext(c.Request.Context(), "用户 WS 连接已断开", "userID", userID, "conn", wsConn.ID())
}
