// Package sync relays view-config edits between the embedded front-end
// and the process over WebSocket. The widget model's config field is
// synced: a viewer pushes its edited config, the hub records it and fans
// it out to every other listener on the same widget uid.
package sync

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/crossviz/go-viewer-backend/internal/serve"
)

// ConfigUpdate is one pushed config revision.
type ConfigUpdate struct {
	UID    string          `json:"uid"`
	Config json.RawMessage `json:"config"`
}

type clientConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *clientConn) send(update ConfigUpdate) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(update)
}

// Hub tracks the WebSocket listeners per widget uid and the latest config
// each uid has seen.
type Hub struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]map[*clientConn]struct{}
	latest  map[string]json.RawMessage

	// OnUpdate, when set, observes every accepted config revision.
	OnUpdate func(uid string, config json.RawMessage)
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger: logger.Named("config-sync"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The data server is CORS-open already.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]map[*clientConn]struct{}),
		latest:  make(map[string]json.RawMessage),
	}
}

// Route returns the route that mounts the hub on a background server.
func (h *Hub) Route(path string) serve.Route {
	return serve.HandlerRoute{RoutePath: path, Handler: h.handle}
}

func (h *Hub) handle(c *gin.Context) {
	uid := c.Param("uid")
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Upgrade failed", zap.Error(err))
		return
	}
	client := &clientConn{conn: conn}

	h.mu.Lock()
	if h.clients[uid] == nil {
		h.clients[uid] = make(map[*clientConn]struct{})
	}
	h.clients[uid][client] = struct{}{}
	latest, hasLatest := h.latest[uid]
	h.mu.Unlock()

	// A late joiner catches up with the current revision.
	if hasLatest {
		_ = client.send(ConfigUpdate{UID: uid, Config: latest})
	}

	go h.readLoop(uid, client)
}

func (h *Hub) readLoop(uid string, client *clientConn) {
	defer func() {
		h.mu.Lock()
		delete(h.clients[uid], client)
		h.mu.Unlock()
		_ = client.conn.Close()
	}()

	for {
		var update ConfigUpdate
		if err := client.conn.ReadJSON(&update); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("Client read error", zap.String("uid", uid), zap.Error(err))
			}
			return
		}
		update.UID = uid
		h.apply(update, client)
	}
}

func (h *Hub) apply(update ConfigUpdate, from *clientConn) {
	h.mu.Lock()
	h.latest[update.UID] = update.Config
	peers := make([]*clientConn, 0, len(h.clients[update.UID]))
	for peer := range h.clients[update.UID] {
		if peer != from {
			peers = append(peers, peer)
		}
	}
	h.mu.Unlock()

	if h.OnUpdate != nil {
		h.OnUpdate(update.UID, update.Config)
	}
	for _, peer := range peers {
		if err := peer.send(update); err != nil {
			h.logger.Debug("Fan-out failed", zap.String("uid", update.UID), zap.Error(err))
		}
	}
}

// Broadcast pushes a config revision from the process side to every
// listener on the uid.
func (h *Hub) Broadcast(uid string, config json.RawMessage) {
	h.apply(ConfigUpdate{UID: uid, Config: config}, nil)
}

// Latest returns the most recent config revision seen for the uid.
func (h *Hub) Latest(uid string) (json.RawMessage, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	cfg, ok := h.latest[uid]
	return cfg, ok
}
