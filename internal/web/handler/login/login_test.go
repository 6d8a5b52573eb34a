package login

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	sessionmemory "github.com/gofiber/storage/memory/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sukut-platform/go-portal/internal/access"
	"github.com/sukut-platform/go-portal/internal/audit"
	"github.com/sukut-platform/go-portal/internal/auth"
	"github.com/sukut-platform/go-portal/internal/catalog"
	"github.com/sukut-platform/go-portal/internal/config"
	"github.com/sukut-platform/go-portal/internal/db/models"
	"github.com/sukut-platform/go-portal/internal/roles"
	websess "github.com/sukut-platform/go-portal/internal/web/session"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(
		&models.User{},
		&models.AppGrant{},
		&models.GroupMembership{},
		&models.PermissionGroup{},
		&models.AuditEntry{},
	)
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		DevMode: false,
		Webserver: config.Webserver{
			URL:         "http://localhost",
			Port:        3000,
			TokenSecret: "test-secret",
			Session:     config.Session{ExpiryTime: time.Minute},
		},
	}
}

// newTestHandler wires a login handler onto a fresh app with an in-memory
// database and session store.
func newTestHandler(t *testing.T) (*fiber.App, *gorm.DB, *Service) {
	t.Helper()

	db := newTestDB(t)
	cfg := newTestConfig()
	app := fiber.New()

	websess.Init(sessionmemory.New())

	provider := auth.NewLocalProvider(db)
	issuer := auth.NewTokenIssuer(cfg.Webserver.TokenSecret, cfg.Webserver.Session.ExpiryTime)
	accessService := access.NewService(db, catalog.Default(), roles.Default(), audit.NewRecorder(db))

	var s Service
	s.Init(app, cfg, db, provider, issuer, accessService)

	return app, db, &s
}

func performLogin(t *testing.T, app *fiber.App, email, password string) *http.Response {
	t.Helper()

	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, Path, bytes.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err, "app.Test failed")

	return resp
}

func decodeResponse(t *testing.T, resp *http.Response) response {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out response
	require.NoError(t, json.Unmarshal(raw, &out))

	return out
}

func TestLoginSuccess(t *testing.T) {
	app, db, _ := newTestHandler(t)

	provider := auth.NewLocalProvider(db)
	_, err := provider.CreateUser("bob@example.com", "s3cr3t-pw", "Bob", "Doe", "manager", "", "")
	require.NoError(t, err)

	resp := performLogin(t, app, "bob@example.com", "s3cr3t-pw")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeResponse(t, resp)

	assert.NotEmpty(t, out.Token)
	assert.Equal(t, "bob@example.com", out.User.Email)
	assert.Equal(t, "manager", out.User.Role)
	assert.Contains(t, out.User.AccessibleApps, "market-forecast")
	assert.NotContains(t, out.User.AccessibleApps, "company-equity")

	var foundCookie bool
	for _, c := range resp.Cookies() {
		if c.Name == auth.TokenCookie {
			foundCookie = true

			assert.True(t, c.HttpOnly)
			assert.True(t, c.Secure)
			assert.Equal(t, out.Token, c.Value)
		}
	}

	assert.True(t, foundCookie, "login must set the token cookie")
}

func TestLoginInvalidCredentials(t *testing.T) {
	app, db, _ := newTestHandler(t)

	provider := auth.NewLocalProvider(db)
	_, err := provider.CreateUser("bob@example.com", "s3cr3t-pw", "Bob", "Doe", "manager", "", "")
	require.NoError(t, err)

	resp := performLogin(t, app, "bob@example.com", "wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = performLogin(t, app, "nobody@example.com", "wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "unknown email must look like a bad password")
}

func TestLoginInactiveAccount(t *testing.T) {
	app, db, _ := newTestHandler(t)

	provider := auth.NewLocalProvider(db)
	user, err := provider.CreateUser("bob@example.com", "s3cr3t-pw", "Bob", "Doe", "manager", "", "")
	require.NoError(t, err)
	require.NoError(t, db.Model(user).Update("status", models.UserStatusInactive).Error)

	resp := performLogin(t, app, "bob@example.com", "s3cr3t-pw")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLoginMissingFields(t *testing.T) {
	app, _, _ := newTestHandler(t)

	resp := performLogin(t, app, "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionRestore(t *testing.T) {
	app, db, _ := newTestHandler(t)

	provider := auth.NewLocalProvider(db)
	_, err := provider.CreateUser("bob@example.com", "s3cr3t-pw", "Bob", "Doe", "manager", "", "")
	require.NoError(t, err)

	loginResp := performLogin(t, app, "bob@example.com", "s3cr3t-pw")
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	out := decodeResponse(t, loginResp)

	req := httptest.NewRequest(http.MethodGet, SessionPath, nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+out.Token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	restored := decodeResponse(t, resp)
	assert.Equal(t, "bob@example.com", restored.User.Email)
	assert.Empty(t, restored.Token, "session restore must not mint a new token")
}

func TestSessionWithoutToken(t *testing.T) {
	app, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, SessionPath, nil)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSessionGarbageToken(t *testing.T) {
	app, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, SessionPath, nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer garbage")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSessionBlockedAfterDeactivation(t *testing.T) {
	app, db, _ := newTestHandler(t)

	provider := auth.NewLocalProvider(db)
	user, err := provider.CreateUser("bob@example.com", "s3cr3t-pw", "Bob", "Doe", "manager", "", "")
	require.NoError(t, err)

	loginResp := performLogin(t, app, "bob@example.com", "s3cr3t-pw")
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	out := decodeResponse(t, loginResp)

	require.NoError(t, db.Model(user).Update("status", models.UserStatusInactive).Error)

	req := httptest.NewRequest(http.MethodGet, SessionPath, nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+out.Token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
