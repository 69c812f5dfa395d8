package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"inkwell/internal/config"
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthTestServer(userRepo *MockUserRepository) *Server {
	return &Server{
		config:      &config.Config{JWTSecret: "test-secret-test-secret-test-secret"},
		userRepo:    userRepo,
		userService: service.NewUserService(userRepo),
	}
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) models.Envelope {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var envelope models.Envelope
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope
}

func TestSignup(t *testing.T) {
	mockRepo := new(MockUserRepository)
	s := newAuthTestServer(mockRepo)

	app := fiber.New()
	app.Post("/signup", s.Signup)

	t.Run("success returns token and user", func(t *testing.T) {
		mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.Email == "reader@example.com" && u.Password != "Str0ng!Password"
		})).Return(nil).Once()

		resp := postJSON(t, app, "/signup", map[string]string{
			"name":     "Reader",
			"email":    "reader@example.com",
			"password": "Str0ng!Password",
		})
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		envelope := decodeEnvelope(t, resp)
		assert.True(t, envelope.Success)

		data := envelope.Data.(map[string]interface{})
		assert.NotEmpty(t, data["token"])
		user := data["user"].(map[string]interface{})
		assert.Equal(t, "reader@example.com", user["email"])
		// The password hash never leaves the server.
		_, exposed := user["password"]
		assert.False(t, exposed)
	})

	t.Run("weak password rejected", func(t *testing.T) {
		resp := postJSON(t, app, "/signup", map[string]string{
			"name":     "Reader",
			"email":    "reader@example.com",
			"password": "short",
		})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/signup", bytes.NewReader([]byte("{")))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("Str0ng!Password"), bcrypt.DefaultCost)
	require.NoError(t, err)
	account := &models.User{ID: 7, Name: "Reader", Email: "reader@example.com", Password: string(hash)}

	mockRepo := new(MockUserRepository)
	mockRepo.On("GetByEmail", mock.Anything, "reader@example.com").Return(account, nil)
	mockRepo.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, nil)

	s := newAuthTestServer(mockRepo)
	app := fiber.New()
	app.Post("/login", s.Login)

	t.Run("valid credentials", func(t *testing.T) {
		resp := postJSON(t, app, "/login", map[string]string{
			"email":    "reader@example.com",
			"password": "Str0ng!Password",
		})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		envelope := decodeEnvelope(t, resp)
		data := envelope.Data.(map[string]interface{})
		assert.NotEmpty(t, data["token"])
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		wrong := postJSON(t, app, "/login", map[string]string{
			"email":    "reader@example.com",
			"password": "not-the-password",
		})
		defer func() { _ = wrong.Body.Close() }()
		unknown := postJSON(t, app, "/login", map[string]string{
			"email":    "nobody@example.com",
			"password": "Str0ng!Password",
		})
		defer func() { _ = unknown.Body.Close() }()

		assert.Equal(t, http.StatusUnauthorized, wrong.StatusCode)
		assert.Equal(t, http.StatusUnauthorized, unknown.StatusCode)

		wrongEnv := decodeEnvelope(t, wrong)
		unknownEnv := decodeEnvelope(t, unknown)
		assert.Equal(t, wrongEnv.Error.Message, unknownEnv.Error.Message)
	})
}

func TestAuthRequired(t *testing.T) {
	account := &models.User{ID: 7, Name: "Reader", Email: "reader@example.com"}

	mockRepo := new(MockUserRepository)
	mockRepo.On("GetByID", mock.Anything, uint(7)).Return(account, nil)

	s := newAuthTestServer(mockRepo)
	app := fiber.New()
	app.Get("/me", s.AuthRequired(), s.Me)

	token, err := s.generateToken(7)
	require.NoError(t, err)

	t.Run("valid bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		envelope := decodeEnvelope(t, resp)
		user := envelope.Data.(map[string]interface{})
		assert.Equal(t, float64(7), user["id"])
	})

	t.Run("missing header", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other := &Server{config: &config.Config{JWTSecret: "a-different-secret-entirely-here"}}
		forged, err := other.generateToken(7)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+forged)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
