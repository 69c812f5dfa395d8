// Package notifications provides real-time event delivery for blog posts.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"

	"inkwell/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections per authenticated user. Anonymous viewers share the
	// global cap only.
	maxConnsPerUser = 12
	// Max total connections
	maxTotalConns = 10000
)

// BlogHub manages WebSocket connections grouped into per-post rooms. Rooms
// are keyed by client, not user: anonymous viewers (UserID 0) join rooms
// like anyone else.
type BlogHub struct {
	mu sync.RWMutex

	// postID -> set of clients watching that post
	rooms map[uint]map[*Client]struct{}

	// client -> set of postIDs it joined
	clientRooms map[*Client]map[uint]struct{}

	// authenticated userID -> connection count
	userConns map[uint]int

	total int
}

// NewBlogHub creates an empty hub.
func NewBlogHub() *BlogHub {
	return &BlogHub{
		rooms:       make(map[uint]map[*Client]struct{}),
		clientRooms: make(map[*Client]map[uint]struct{}),
		userConns:   make(map[uint]int),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *BlogHub) Name() string { return "blog hub" }

// Register admits a websocket connection. userID 0 marks an anonymous viewer.
func (h *BlogHub) Register(conn *websocket.Conn, userID uint) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.total >= maxTotalConns {
		return nil, errors.New("server connection limit reached")
	}
	if userID != 0 && h.userConns[userID] >= maxConnsPerUser {
		return nil, errors.New("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	h.clientRooms[client] = make(map[uint]struct{})
	if userID != 0 {
		h.userConns[userID]++
	}
	h.total++

	observability.WebSocketConnectionsTotal.Inc()
	return client, nil
}

// UnregisterClient drops the connection and removes it from every room it
// joined.
func (h *BlogHub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rooms, ok := h.clientRooms[client]
	if !ok {
		return
	}
	for postID := range rooms {
		h.removeFromRoomLocked(client, postID)
	}
	delete(h.clientRooms, client)
	if client.UserID != 0 {
		h.userConns[client.UserID]--
		if h.userConns[client.UserID] <= 0 {
			delete(h.userConns, client.UserID)
		}
	}
	h.total--
}

// JoinBlog subscribes the client to a post's room.
func (h *BlogHub) JoinBlog(client *Client, postID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rooms, ok := h.clientRooms[client]
	if !ok {
		return
	}
	if _, already := rooms[postID]; already {
		return
	}
	if h.rooms[postID] == nil {
		h.rooms[postID] = make(map[*Client]struct{})
	}
	h.rooms[postID][client] = struct{}{}
	rooms[postID] = struct{}{}

	observability.WebSocketRoomConnections.WithLabelValues(roomLabel(postID)).Inc()
}

// LeaveBlog unsubscribes the client from a post's room.
func (h *BlogHub) LeaveBlog(client *Client, postID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rooms, ok := h.clientRooms[client]
	if !ok {
		return
	}
	if _, joined := rooms[postID]; !joined {
		return
	}
	delete(rooms, postID)
	h.removeFromRoomLocked(client, postID)
}

func (h *BlogHub) removeFromRoomLocked(client *Client, postID uint) {
	if clients, ok := h.rooms[postID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, postID)
		}
		observability.WebSocketRoomConnections.WithLabelValues(roomLabel(postID)).Dec()
	}
}

// RoomSize reports how many clients currently watch a post.
func (h *BlogHub) RoomSize(postID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[postID])
}

// BroadcastToPost delivers a pre-marshaled event to every client in the
// post's room. Delivery is best effort; slow clients drop messages rather
// than block the room.
func (h *BlogHub) BroadcastToPost(postID uint, eventType string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.rooms[postID]
	if !ok {
		return
	}
	observability.WebSocketEventsTotal.WithLabelValues(eventType).Inc()
	for client := range clients {
		client.TrySend(payload)
	}
}

// StartWiring connects the hub to Redis pub/sub so events published by any
// instance reach every instance's rooms.
func (h *BlogHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartBlogSubscriber(ctx, func(channel, payload string) {
		var postID uint
		var eventType string

		if _, err := fmt.Sscanf(channel, "blog:post:%d", &postID); err == nil {
			eventType = "comment"
		} else if _, err := fmt.Sscanf(channel, "typing:post:%d", &postID); err == nil {
			eventType = "typing"
		} else {
			log.Printf("BlogHub: Invalid channel format: %s", channel)
			return
		}

		h.BroadcastToPost(postID, eventType, []byte(payload))
	})
}

// Shutdown gracefully closes all websocket connections.
func (h *BlogHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clientRooms {
		if err := client.Conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"server_shutdown","message":"Server is shutting down"}`)); err != nil {
			log.Printf("failed to write shutdown message for user %d: %v", client.UserID, err)
		}
		if err := client.Conn.Close(); err != nil {
			log.Printf("failed to close websocket for user %d: %v", client.UserID, err)
		}
	}

	h.rooms = make(map[uint]map[*Client]struct{})
	h.clientRooms = make(map[*Client]map[uint]struct{})
	h.userConns = make(map[uint]int)
	h.total = 0
	return nil
}

func roomLabel(postID uint) string {
	return strconv.FormatUint(uint64(postID), 10)
}
