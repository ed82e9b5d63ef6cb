package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/hoshinonyaruko/snake-classic/structs"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub 把每一帧快照推送给所有 websocket 客户端，实现 clock.Renderer
type Hub struct {
	log zerolog.Logger

	mu          sync.RWMutex
	clients     map[*hubClient]struct{}
	lastPayload []byte
}

type hubClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

// NewHub 创建推送中心
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[*hubClient]struct{}),
	}
}

// Render 在时钟 goroutine 上调用，只做序列化和非阻塞入队
func (h *Hub) Render(snap structs.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		h.log.Error().Err(err).Msg("marshal snapshot")
		return
	}

	h.mu.Lock()
	h.lastPayload = payload
	clients := make([]*hubClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		client.enqueue(payload)
	}
}

// Handler 升级连接并开始推送，连上后先发最近一帧
func (h *Hub) Handler(game Game) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.log.Warn().Err(err).Msg("ws upgrade")
			return
		}
		client := &hubClient{
			hub:  h,
			conn: conn,
			send: make(chan []byte, 8),
		}

		// 先放入首帧再登记，之后 Render 推送的帧都排在它后面
		h.mu.Lock()
		initial := h.lastPayload
		if initial == nil {
			initial, err = json.Marshal(game.Snapshot())
			if err != nil {
				h.log.Error().Err(err).Msg("marshal initial snapshot")
			}
		}
		if len(initial) > 0 {
			client.send <- initial // 新建的缓冲区是空的
		}
		h.clients[client] = struct{}{}
		h.mu.Unlock()

		go client.writeLoop()
		client.readLoop()
	}
}

// Clients 返回当前连接数
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close 断开所有客户端
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*hubClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.close()
	}
}

func (h *Hub) removeClient(client *hubClient) {
	h.mu.Lock()
	delete(h.clients, client)
	h.mu.Unlock()
}

func (c *hubClient) enqueue(payload []byte) {
	if len(payload) == 0 {
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	full := false
	select {
	case c.send <- payload:
	default:
		full = true
	}
	c.mu.Unlock()

	// 慢客户端直接断开，不能拖住时钟
	if full {
		c.close()
	}
}

func (c *hubClient) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	c.hub.removeClient(c)
	_ = c.conn.Close()
}

func (c *hubClient) writeLoop() {
	defer c.close()
	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// 客户端不需要发消息，读到错误说明连接断了
func (c *hubClient) readLoop() {
	defer c.close()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
