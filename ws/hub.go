package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/chengshang-tools/update-server/catalog"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     CheckOrigin,
}

// ReleaseEvent 新版本登记后推送给订阅者的消息
type ReleaseEvent struct {
	Event   string          `json:"event"`
	Target  string          `json:"target"`
	Release catalog.Release `json:"release"`
}

// Hub 维护订阅者连接；写操作在锁内串行，满足 gorilla/websocket 单写者要求
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]struct{})}
}

// Count 当前订阅者数量
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		_ = conn.Close()
	}
	h.mu.Unlock()
}

// PublishRelease 广播一次版本登记事件，写失败的连接会被移除
func (h *Hub) PublishRelease(target string, r catalog.Release) {
	payload, err := json.Marshal(ReleaseEvent{Event: "release_added", Target: target, Release: r})
	if err != nil {
		slog.Error("failed to encode release event", "error", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			slog.Debug("dropping release subscriber", "remote", conn.RemoteAddr().String(), "error", err)
			delete(h.conns, conn)
			_ = conn.Close()
		}
	}
}

// Close 断开所有订阅者
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		delete(h.conns, conn)
	}
}

// ServeReleases GET /api/events/releases
func (h *Hub) ServeReleases(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已经写回了错误响应
		slog.Debug("websocket upgrade failed", "error", err)
		return
	}
	h.add(conn)
	defer h.remove(conn)

	// 订阅方不需要上行消息，读循环只用于感知断开
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("release subscriber closed", "error", err)
			}
			return
		}
	}
}
