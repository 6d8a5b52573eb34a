package apps

import (
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

type fixture struct {
	app    *fiber.App
	db     *gorm.DB
	issuer *auth.TokenIssuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.AppGrant{},
		&models.GroupMembership{},
		&models.PermissionGroup{},
		&models.AuditEntry{},
	)
	require.NoError(t, err)

	websess.Init(sessionmemory.New())

	cfg := &config.Config{
		Webserver: config.Webserver{
			URL:         "http://localhost",
			Port:        3000,
			TokenSecret: "test-secret",
			Session:     config.Session{ExpiryTime: time.Minute},
		},
	}

	issuer := auth.NewTokenIssuer(cfg.Webserver.TokenSecret, cfg.Webserver.Session.ExpiryTime)
	accessService := access.NewService(db, catalog.Default(), roles.Default(), audit.NewRecorder(db))

	app := fiber.New()

	var s Service
	s.Init(app, cfg, issuer, accessService)

	return &fixture{app: app, db: db, issuer: issuer}
}

// loginAs creates a user, a session record and a signed token for it.
func (f *fixture) loginAs(t *testing.T, email, role string) string {
	t.Helper()

	user := models.User{
		Email:    email,
		Password: models.HashPassword("pw"),
		Role:     role,
		Status:   models.UserStatusActive,
	}
	require.NoError(t, f.db.Create(&user).Error)

	sessionID, err := websess.GenerateSessionID()
	require.NoError(t, err)

	data := &websess.Data{User: user, ExpiresAt: time.Now().Add(time.Minute)}
	require.NoError(t, data.Write(sessionID, time.Minute))

	token, err := f.issuer.Issue(&user, sessionID)
	require.NoError(t, err)

	return token
}

func (f *fixture) request(t *testing.T, method, target, token string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err, "app.Test failed")

	return resp
}

func TestListRequiresAuth(t *testing.T) {
	f := newFixture(t)

	resp := f.request(t, http.MethodGet, Path, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListMarksAccessibility(t *testing.T) {
	f := newFixture(t)
	token := f.loginAs(t, "op@example.com", "operator")

	resp := f.request(t, http.MethodGet, Path, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out struct {
		Apps []struct {
			ID         string `json:"id"`
			Accessible bool   `json:"accessible"`
		} `json:"apps"`
		Accessible []string `json:"accessible"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))

	assert.Len(t, out.Apps, catalog.Default().Len(), "locked apps stay visible in the catalog")
	assert.Equal(t, []string{"equipment-tracking"}, out.Accessible)

	for _, a := range out.Apps {
		assert.Equal(t, a.ID == "equipment-tracking", a.Accessible, a.ID)
	}
}

func TestLaunchDeniedWithoutAccess(t *testing.T) {
	f := newFixture(t)
	token := f.loginAs(t, "op@example.com", "operator")

	resp := f.request(t, http.MethodPost, Path+"/market-forecast/launch", token)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLaunchUnknownApp(t *testing.T) {
	f := newFixture(t)
	token := f.loginAs(t, "root@example.com", roles.Admin)

	resp := f.request(t, http.MethodPost, Path+"/no-such-app/launch", token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "unknown apps are unlaunchable even for admins")
}

func TestLaunchComingSoonBlocked(t *testing.T) {
	f := newFixture(t)
	token := f.loginAs(t, "root@example.com", roles.Admin)

	resp := f.request(t, http.MethodPost, Path+"/company-equity/launch", token)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "status gating applies regardless of access")
}

func TestLaunchActiveApp(t *testing.T) {
	f := newFixture(t)
	token := f.loginAs(t, "mgr@example.com", "manager")

	resp := f.request(t, http.MethodPost, Path+"/market-forecast/launch", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.NotEmpty(t, out.URL)
}

func TestGetSingleApp(t *testing.T) {
	f := newFixture(t)
	token := f.loginAs(t, "op@example.com", "operator")

	resp := f.request(t, http.MethodGet, Path+"/equipment-tracking", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out struct {
		ID         string `json:"id"`
		Accessible bool   `json:"accessible"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))

	assert.Equal(t, "equipment-tracking", out.ID)
	assert.True(t, out.Accessible)
}
