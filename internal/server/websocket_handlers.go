// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"
)

// wsCredentialed marks a connection that presented a token that actually
// parsed. Only these connections are rejected when the account is missing;
// garbage credentials just mean anonymous.
const wsCredentialedLocal = "wsCredentialed"

// WebsocketUpgrade resolves the optional identity of a websocket client and
// verifies the request is a real upgrade. Missing, malformed, or expired
// credentials degrade to an anonymous connection rather than a 401; a
// well-formed token is only trusted after the account check in the handler.
func (s *Server) WebsocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return models.RespondWithError(c, fiber.StatusUpgradeRequired,
			models.NewValidationError("WebSocket upgrade required"))
	}

	// 1. Single-use Redis ticket minted by POST /api/ws/ticket.
	if ticket := c.Query("ticket"); ticket != "" && s.redis != nil {
		key := "ws_ticket:" + ticket
		userIDStr, err := s.redis.Get(c.Context(), key).Result()
		if err == nil {
			if userID, perr := strconv.ParseUint(userIDStr, 10, 32); perr == nil {
				s.redis.Del(c.Context(), key)
				c.Locals("userID", uint(userID))
				c.Locals(wsCredentialedLocal, true)
				return c.Next()
			}
		}
		// Expired or unknown ticket: fall through as anonymous.
	}

	// 2. Raw JWT in the query string (non-browser clients).
	if token := c.Query("token"); token != "" {
		if userID, err := s.parseToken(token); err == nil {
			c.Locals("userID", userID)
			c.Locals(wsCredentialedLocal, true)
		}
	}

	return c.Next()
}

// WebsocketHandler handles GET /ws connections for per-post comment rooms.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		ctx := context.Background()

		userID, _ := conn.Locals("userID").(uint)
		credentialed, _ := conn.Locals(wsCredentialedLocal).(bool)

		userName := ""
		if credentialed {
			user, err := s.userRepo.GetByID(ctx, userID)
			if err != nil {
				// A verified token for an account that does not exist is a
				// policy violation, not an anonymous downgrade.
				var appErr *models.AppError
				if errors.Is(err, gorm.ErrRecordNotFound) ||
					(errors.As(err, &appErr) && appErr.Code == models.CodeNotFound) {
					_ = conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown account"))
					_ = conn.Close()
					return
				}
				log.Printf("WebSocket: failed to load user %d: %v", userID, err)
				_ = conn.Close()
				return
			}
			userName = user.Name
		} else {
			userID = 0
		}

		client, err := s.hub.Register(conn, userID)
		if err != nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		client.IncomingHandler = func(c *notifications.Client, message []byte) {
			var incoming struct {
				Type    string `json:"type"`
				PostID  uint   `json:"postId"`
				Payload struct {
					PostID   uint   `json:"postId"`
					UserName string `json:"userName"`
				} `json:"payload"`
			}
			if err := json.Unmarshal(message, &incoming); err != nil {
				log.Printf("WebSocket: invalid message from user %d", userID)
				return
			}

			postID := incoming.PostID
			if postID == 0 {
				postID = incoming.Payload.PostID
			}
			if postID == 0 {
				return
			}

			switch incoming.Type {
			case "join_blog":
				s.hub.JoinBlog(c, postID)
				ack, _ := json.Marshal(map[string]interface{}{
					"type":    "joined",
					"payload": map[string]interface{}{"postId": postID},
				})
				c.TrySend(ack)

			case "leave_blog":
				s.hub.LeaveBlog(c, postID)

			case "typing", "stop_typing":
				// Anonymous viewers read; they do not emit typing state.
				if userID == 0 {
					return
				}
				// Typing indicators are throttled per user to keep the
				// channel from turning into noise.
				id := fmt.Sprintf("user:%d", userID)
				allowed, _ := middleware.CheckRateLimit(ctx, s.redis, "typing", id, 10, 10*time.Second)
				if !allowed {
					return
				}

				name := incoming.Payload.UserName
				if name == "" {
					name = userName
				}
				event := EventUserTyping
				if incoming.Type == "stop_typing" {
					event = EventUserStopTyping
				}
				s.publishTypingEvent(postID, event, map[string]interface{}{
					"postId":   postID,
					"userId":   userID,
					"userName": name,
				})
			}
		}

		// Welcome message tells the client how it was admitted.
		welcome, _ := json.Marshal(map[string]interface{}{
			"type": "connected",
			"payload": map[string]interface{}{
				"userId":    userID,
				"anonymous": userID == 0,
			},
		})
		client.TrySend(welcome)

		// Write pump in a goroutine; read pump blocks this handler until
		// the connection drops and unregisters itself.
		go client.WritePump()
		client.ReadPump()
	})
}
