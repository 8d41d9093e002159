package controller

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"mars3lo-orders/models"
	"mars3lo-orders/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Clients only send control frames.
	maxMessageSize = 512

	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

var realtimeTables = map[string]bool{
	service.AllTables:      true,
	models.TableStock:      true,
	models.TableOrders:     true,
	models.TableOrderLines: true,
}

// RealtimeController pushes table change notifications over websockets
type RealtimeController struct {
	feed *service.ChangeFeed
}

// NewRealtimeController creates a new RealtimeController
func NewRealtimeController(feed *service.ChangeFeed) *RealtimeController {
	return &RealtimeController{feed: feed}
}

// wsClient is one websocket subscriber of the change feed
type wsClient struct {
	conn *websocket.Conn
	send chan models.Change
	done chan struct{}
	once sync.Once
}

func (c *wsClient) close() {
	c.once.Do(func() { close(c.done) })
}

// deliver queues change without blocking the feed. A full buffer drops it.
func (c *wsClient) deliver(change models.Change) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- change:
	default:
		log.Printf("⚠️  Realtime: client buffer full, dropping %s %s", change.Table, change.Op)
	}
}

// Serve handles GET /realtime?table=stock
// Each message is a JSON change: {"table": "stock", "op": "UPDATE", "row": {...}}
func (c *RealtimeController) Serve(w http.ResponseWriter, r *http.Request) {
	log.Printf("📥 Realtime: Received %s request to %s", r.Method, r.URL.Path)

	table := r.URL.Query().Get("table")
	if table == "" {
		table = service.AllTables
	}
	if !realtimeTables[table] {
		http.Error(w, "unknown table", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ Realtime: upgrade error: %v", err)
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan models.Change, sendBuffer),
		done: make(chan struct{}),
	}
	unsubscribe := c.feed.Subscribe(table, client.deliver)
	log.Printf("✅ Realtime: client subscribed to %s", table)

	go client.writePump()
	go client.readPump(unsubscribe)
}

// readPump only consumes control frames; it ends the client when the peer goes away
func (c *wsClient) readPump(unsubscribe func()) {
	defer func() {
		unsubscribe()
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("⚠️  Realtime: read error: %v", err)
			}
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case change := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(change); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}
