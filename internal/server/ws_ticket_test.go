package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inkwell/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTicketTestServer(t *testing.T) (*Server, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s := &Server{
		config: &config.Config{JWTSecret: "test-secret-test-secret-test-secret"},
		redis:  rdb,
	}
	return s, mr
}

func TestIssueWSTicket(t *testing.T) {
	t.Run("mints a short-lived single-use ticket", func(t *testing.T) {
		s, mr := newTicketTestServer(t)
		app := fiber.New()
		app.Post("/api/ws/ticket", asUser(7), s.IssueWSTicket)

		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/ws/ticket", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		envelope := decodeEnvelope(t, resp)
		data := envelope.Data.(map[string]interface{})
		ticket, _ := data["ticket"].(string)
		require.NotEmpty(t, ticket)
		assert.Equal(t, float64(60), data["expiresIn"])

		stored, err := mr.Get("ws_ticket:" + ticket)
		require.NoError(t, err)
		assert.Equal(t, "7", stored)
		ttl := mr.TTL("ws_ticket:" + ticket)
		assert.Greater(t, ttl, time.Duration(0))
		assert.LessOrEqual(t, ttl, wsTicketTTL)
	})

	t.Run("unavailable without a ticket store", func(t *testing.T) {
		s := &Server{config: &config.Config{JWTSecret: "test-secret-test-secret-test-secret"}}
		app := fiber.New()
		app.Post("/api/ws/ticket", asUser(7), s.IssueWSTicket)

		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/ws/ticket", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

// identityProbe stands in for the websocket handler so the upgrade
// middleware's identity resolution can be observed over plain HTTP.
func identityProbe(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(uint)
	credentialed, _ := c.Locals(wsCredentialedLocal).(bool)
	return c.JSON(fiber.Map{"userId": userID, "credentialed": credentialed})
}

func wsUpgradeRequest(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	return req
}

func probeIdentity(t *testing.T, app *fiber.App, target string) (userID uint, credentialed bool) {
	t.Helper()
	resp, err := app.Test(wsUpgradeRequest(target))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		UserID       uint `json:"userId"`
		Credentialed bool `json:"credentialed"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out.UserID, out.Credentialed
}

func TestWebsocketUpgrade(t *testing.T) {
	t.Run("plain request gets 426", func(t *testing.T) {
		s, _ := newTicketTestServer(t)
		app := fiber.New()
		app.Get("/ws", s.WebsocketUpgrade, identityProbe)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ws", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
	})

	t.Run("valid ticket authenticates and is consumed", func(t *testing.T) {
		s, mr := newTicketTestServer(t)
		app := fiber.New()
		app.Get("/ws", s.WebsocketUpgrade, identityProbe)

		require.NoError(t, mr.Set("ws_ticket:abc123", "7"))

		userID, credentialed := probeIdentity(t, app, "/ws?ticket=abc123")
		assert.Equal(t, uint(7), userID)
		assert.True(t, credentialed)
		assert.False(t, mr.Exists("ws_ticket:abc123"))

		// Replaying the consumed ticket degrades to anonymous.
		userID, credentialed = probeIdentity(t, app, "/ws?ticket=abc123")
		assert.Equal(t, uint(0), userID)
		assert.False(t, credentialed)
	})

	t.Run("unknown ticket degrades to anonymous", func(t *testing.T) {
		s, _ := newTicketTestServer(t)
		app := fiber.New()
		app.Get("/ws", s.WebsocketUpgrade, identityProbe)

		userID, credentialed := probeIdentity(t, app, "/ws?ticket=never-issued")
		assert.Equal(t, uint(0), userID)
		assert.False(t, credentialed)
	})

	t.Run("valid token authenticates", func(t *testing.T) {
		s, _ := newTicketTestServer(t)
		app := fiber.New()
		app.Get("/ws", s.WebsocketUpgrade, identityProbe)

		token, err := s.generateToken(9)
		require.NoError(t, err)

		userID, credentialed := probeIdentity(t, app, "/ws?token="+token)
		assert.Equal(t, uint(9), userID)
		assert.True(t, credentialed)
	})

	t.Run("garbage token degrades to anonymous", func(t *testing.T) {
		s, _ := newTicketTestServer(t)
		app := fiber.New()
		app.Get("/ws", s.WebsocketUpgrade, identityProbe)

		userID, credentialed := probeIdentity(t, app, "/ws?token=not.a.jwt")
		assert.Equal(t, uint(0), userID)
		assert.False(t, credentialed)
	})

	t.Run("no credentials means anonymous", func(t *testing.T) {
		s, _ := newTicketTestServer(t)
		app := fiber.New()
		app.Get("/ws", s.WebsocketUpgrade, identityProbe)

		userID, credentialed := probeIdentity(t, app, "/ws")
		assert.Equal(t, uint(0), userID)
		assert.False(t, credentialed)
	})
}
