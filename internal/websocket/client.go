package websocket

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jmoiron/sqlx"

	"bustracker-backend/internal/cache"
	"bustracker-backend/internal/database"
	"bustracker-backend/internal/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 2048
)

// Client represents a WebSocket client connection
type Client struct {
	UserID   string
	UserRole string // "driver" or "admin"
	conn     *websocket.Conn
	hub      *Hub
	send     chan []byte
	db       *sqlx.DB
	locCache *cache.LocationCache // may be nil
}

// IncomingMessage represents a message from the client
type IncomingMessage struct {
	Type      string                 `json:"type"`
	Timestamp string                 `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// NewClient creates a new WebSocket client
func NewClient(userID, userRole string, conn *websocket.Conn, hub *Hub, db *sqlx.DB, locCache *cache.LocationCache) *Client {
	return &Client{
		UserID:   userID,
		UserRole: userRole,
		conn:     conn,
		hub:      hub,
		send:     make(chan []byte, 256),
		db:       db,
		locCache: locCache,
	}
}

// ReadPump pumps messages from the WebSocket connection to the hub
func (c *Client) ReadPump() {
	defer func() {
		// Mark the bus as offline when the driver's socket closes
		c.markAsDisconnected()
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg IncomingMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Invalid message format: %v", err)
			continue
		}

		switch msg.Type {
		case "ping":
			response := map[string]interface{}{
				"type":      "pong",
				"timestamp": time.Now().Format(time.RFC3339),
			}
			responseData, _ := json.Marshal(response)
			c.send <- responseData

		case "location_update":
			c.handleLocationUpdate(msg.Data)
		}
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleLocationUpdate processes a position sample sent by a driver over the
// socket instead of the HTTP endpoint. Same write path: upsert the current
// row, append history, broadcast to admins.
func (c *Client) handleLocationUpdate(data map[string]interface{}) {
	if c.UserRole != "driver" {
		return
	}

	latitude, ok := data["latitude"].(float64)
	if !ok {
		log.Printf("❌ Invalid latitude in location update")
		return
	}

	longitude, ok := data["longitude"].(float64)
	if !ok {
		log.Printf("❌ Invalid longitude in location update")
		return
	}

	var accuracy *float64
	if a, ok := data["accuracy"].(float64); ok {
		accuracy = &a
	}

	// Driver accounts carry their bus assignment
	var bus struct {
		BusID   *string `db:"bus_id"`
		BusName *string `db:"bus_name"`
	}
	if err := c.db.Get(&bus, `SELECT bus_id, bus_name FROM users WHERE id = $1`, c.UserID); err != nil {
		log.Printf("❌ Failed to resolve bus for driver %s: %v", c.UserID, err)
		return
	}
	if bus.BusID == nil {
		log.Printf("❌ Driver %s has no bus assigned", c.UserID)
		return
	}

	busName := *bus.BusID
	if bus.BusName != nil {
		busName = *bus.BusName
	}

	loc := models.BusLocation{
		BusID:     *bus.BusID,
		BusName:   busName,
		Latitude:  latitude,
		Longitude: longitude,
		Status:    "active",
		UpdatedAt: time.Now().Unix(),
		Accuracy:  accuracy,
	}

	if err := database.UpsertBusLocation(c.db, loc); err != nil {
		log.Printf("❌ Error saving location to database: %v", err)
		return
	}

	if c.locCache != nil {
		if err := c.locCache.Set(context.Background(), loc); err != nil {
			log.Printf("⚠️ Failed to cache location for bus %s: %v", loc.BusID, err)
		}
	}

	c.hub.BroadcastToRole("admin", map[string]interface{}{
		"type": "bus_location_update",
		"data": loc,
	})
}

// markAsDisconnected sets the driver's bus to offline in the database.
// The last known position is preserved for admins to see.
func (c *Client) markAsDisconnected() {
	// Only drivers carry a bus
	if c.UserRole != "driver" {
		return
	}

	_, err := c.db.Exec(`
		UPDATE bus_locations
		SET status = 'offline', updated_at = $1
		WHERE bus_id = (SELECT bus_id FROM users WHERE id = $2)
	`, time.Now().Unix(), c.UserID)
	if err != nil {
		log.Printf("❌ Error marking bus as offline: %v", err)
		return
	}

	log.Printf("🔴 Bus for driver %s marked offline (last position preserved)", c.UserID)
}
