package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"atelier/internal/cache"
	"atelier/internal/config"
	"atelier/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*Server, *fiber.App) {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:             "test-secret-0123456789abcdef",
		UploadDir:             t.TempDir(),
		UploadMaxSizeMB:       5,
		UploadMaxProjectFiles: 5,
	}
	srv, err := NewServerWithDeps(cfg, testutil.OpenTestDB(t), nil)
	require.NoError(t, err)

	app := fiber.New()
	srv.SetupRoutes(app)
	return srv, app
}

// doJSON performs a request against the app and decodes the JSON response.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func registerUser(t *testing.T, app *fiber.App, username string) (token string, userID uint) {
	t.Helper()
	status, body := doJSON(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": username,
		"email":    username + "@example.com",
		"password": "Password123!",
	})
	require.Equal(t, http.StatusCreated, status, "register %s: %v", username, body)

	data := body["data"].(map[string]any)
	token = data["token"].(string)
	userID = uint(data["user"].(map[string]any)["id"].(float64))
	return token, userID
}

func TestRegister(t *testing.T) {
	_, app := newTestApp(t)

	status, body := doJSON(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"username":     "alice",
		"email":        "Alice@Example.com",
		"password":     "Password123!",
		"display_name": "Alice R.",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]any)
	assert.NotEmpty(t, data["token"])
	user := data["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, "alice@example.com", user["email"])
	assert.Equal(t, "Alice R.", user["display_name"])
	_, hasHash := user["password_hash"]
	assert.False(t, hasHash, "password hash must never serialize")
}

func TestRegisterValidation(t *testing.T) {
	_, app := newTestApp(t)

	tests := []struct {
		name string
		req  fiber.Map
	}{
		{"missing fields", fiber.Map{"username": "alice"}},
		{"bad username", fiber.Map{"username": "a!", "email": "a@b.com", "password": "Password123!"}},
		{"bad email", fiber.Map{"username": "alice", "email": "nope", "password": "Password123!"}},
		{"weak password", fiber.Map{"username": "alice", "email": "a@b.com", "password": "password"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doJSON(t, app, http.MethodPost, "/api/auth/register", "", tt.req)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, "VALIDATION_ERROR", body["code"])
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	_, app := newTestApp(t)
	registerUser(t, app, "alice")

	status, body := doJSON(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": "ALICE",
		"email":    "other@example.com",
		"password": "Password123!",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", body["code"])
}

func TestLogin(t *testing.T) {
	_, app := newTestApp(t)
	registerUser(t, app, "alice")

	status, body := doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "alice@example.com",
		"password": "Password123!",
	})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["data"].(map[string]any)["token"])

	// Unknown email and wrong password return the same message.
	status, body = doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "alice@example.com",
		"password": "WrongPass123!",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", body["error"])

	status, body = doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "ghost@example.com",
		"password": "Password123!",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", body["error"])
}

func TestAuthRequired(t *testing.T) {
	_, app := newTestApp(t)
	token, _ := registerUser(t, app, "alice")

	status, body := doJSON(t, app, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice", body["data"].(map[string]any)["username"])

	status, _ = doJSON(t, app, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doJSON(t, app, http.MethodGet, "/api/auth/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAuthRequiredRejectsForeignSignature(t *testing.T) {
	_, appA := newTestApp(t)
	tokenA, _ := registerUser(t, appA, "alice")

	srvB, appB := newTestApp(t)
	srvB.config.JWTSecret = "a-different-secret-entirely"
	registerUser(t, appB, "alice")

	status, _ := doJSON(t, appB, http.MethodGet, "/api/auth/me", tokenA, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAuthRequiredDeletedAccount(t *testing.T) {
	srv, app := newTestApp(t)
	token, userID := registerUser(t, app, "alice")

	require.NoError(t, srv.db.Exec("DELETE FROM users WHERE id = ?", userID).Error)

	status, body := doJSON(t, app, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Account no longer exists", body["error"])
}

func TestLogoutRevokesToken(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(client)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = client.Close()
	})

	_, app := newTestApp(t)
	token, _ := registerUser(t, app, "alice")

	status, _ := doJSON(t, app, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, body := doJSON(t, app, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Logged out", body["data"].(map[string]any)["message"])

	status, body = doJSON(t, app, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token has been revoked", body["error"])
}

func TestProfileEditKeepsStoredPassword(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(client)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = client.Close()
	})

	srv, app := newTestApp(t)
	token, userID := registerUser(t, app, "alice")

	// Warm the identity cache; the cached copy carries no password hash.
	status, _ := doJSON(t, app, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, body := doJSON(t, app, http.MethodPut, "/api/users/me", token, fiber.Map{"bio": "new bio"})
	require.Equal(t, http.StatusOK, status, "update profile: %v", body)

	var hash string
	require.NoError(t, srv.db.Raw("SELECT password_hash FROM users WHERE id = ?", userID).Scan(&hash).Error)
	assert.NotEmpty(t, hash, "profile edit must not blank the stored credential")

	status, body = doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "alice@example.com",
		"password": "Password123!",
	})
	assert.Equal(t, http.StatusOK, status, "login after profile edit: %v", body)
}

func TestLogoutWithoutToken(t *testing.T) {
	_, app := newTestApp(t)

	status, _ := doJSON(t, app, http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestHealthEndpoints(t *testing.T) {
	_, app := newTestApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "up", body["status"])

	status, body = doJSON(t, app, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "unavailable", checks["redis"])
}
