package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sukut-platform/go-portal/internal/catalog"
	"github.com/sukut-platform/go-portal/internal/db/models"
	"github.com/sukut-platform/go-portal/internal/roles"
)

func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.App{
		{ID: "market-forecast", RequiredRoles: []string{"admin", "manager"}, Status: catalog.StatusActive},
		{ID: "company-equity", RequiredRoles: []string{"admin"}, Status: catalog.StatusComingSoon},
		{ID: "amex-review", RequiredRoles: []string{"admin", "manager"}, Status: catalog.StatusComingSoon},
		{ID: "deferred-rent", RequiredRoles: []string{"admin"}, Status: catalog.StatusComingSoon},
		{ID: "project-management", RequiredRoles: []string{"admin", "manager", "foreman"}, Status: catalog.StatusActive},
		{ID: "equipment-tracking", RequiredRoles: []string{"admin", "foreman", "operator"}, Status: catalog.StatusActive},
	})
}

func TestResolveAdminSeesEverything(t *testing.T) {
	cat := testCatalog()

	set := Resolve(ResolveInput{Role: roles.Admin, Catalog: cat})

	assert.True(t, set.All())
	assert.ElementsMatch(t, cat.IDs(), set.IDs(cat.IDs()))
	assert.Equal(t, cat.Len(), set.Len(cat.Len()))
}

func TestResolveWildcardGrant(t *testing.T) {
	cat := testCatalog()

	set := Resolve(ResolveInput{
		Role:        "operator",
		GrantedApps: []string{models.WildcardAppID},
		Catalog:     cat,
	})

	assert.True(t, set.All())
	assert.True(t, set.Contains("company-equity", cat.Has))
}

func TestResolveUnionOfSources(t *testing.T) {
	cat := testCatalog()

	set := Resolve(ResolveInput{
		Role:        "manager",
		GrantedApps: []string{"deferred-rent"},
		Groups: []models.PermissionGroup{
			{ID: "accounting-suite", Apps: []string{"amex-review", "deferred-rent"}},
		},
		Catalog: cat,
	})

	// role contribution
	assert.True(t, set.Contains("market-forecast", cat.Has))
	assert.True(t, set.Contains("project-management", cat.Has))
	// direct grant and group contribution
	assert.True(t, set.Contains("deferred-rent", cat.Has))
	assert.True(t, set.Contains("amex-review", cat.Has))
	// nothing grants these
	assert.False(t, set.Contains("company-equity", cat.Has))
	assert.False(t, set.Contains("equipment-tracking", cat.Has))
}

func TestResolveOperatorGetsRoleApps(t *testing.T) {
	cat := testCatalog()

	set := Resolve(ResolveInput{Role: "operator", Catalog: cat})

	assert.True(t, set.Contains("equipment-tracking", cat.Has))
	assert.Equal(t, []string{"equipment-tracking"}, set.IDs(cat.IDs()))
}

func TestResolveUnknownGrantIgnored(t *testing.T) {
	cat := testCatalog()

	set := Resolve(ResolveInput{
		Role:        "operator",
		GrantedApps: []string{"no-such-app"},
		Catalog:     cat,
	})

	assert.False(t, set.Contains("no-such-app", cat.Has))
	assert.Equal(t, 1, set.Len(cat.Len()))
}

func TestResolveGroupWithUnknownApps(t *testing.T) {
	cat := testCatalog()

	set := Resolve(ResolveInput{
		Role: "operator",
		Groups: []models.PermissionGroup{
			{ID: "stale", Apps: []string{"retired-app", "amex-review"}},
		},
		Catalog: cat,
	})

	assert.True(t, set.Contains("amex-review", cat.Has))
	assert.False(t, set.Contains("retired-app", cat.Has))
}

func TestCanAccessAppUnknownAlwaysFalse(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testCatalog(), roles.Default(), noopRecorder{})

	admin := createTestUser(t, db, "root@example.com", roles.Admin)

	ok, err := svc.CanAccessApp(admin, "no-such-app")
	require.NoError(t, err)
	assert.False(t, ok, "unknown app must be inaccessible even for admins")
}

func TestCanAccessAppWildcardShortCircuit(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testCatalog(), roles.Default(), noopRecorder{})

	user := createTestUser(t, db, "op@example.com", "operator")
	require.NoError(t, db.Create(&models.AppGrant{UserID: user.ID, AppID: models.WildcardAppID}).Error)
	user.AppGrants = nil

	ok, err := svc.CanAccessApp(user, "company-equity")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUsersWithAccess(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testCatalog(), roles.Default(), noopRecorder{})

	admin := createTestUser(t, db, "root@example.com", roles.Admin)
	manager := createTestUser(t, db, "mgr@example.com", "manager")
	operator := createTestUser(t, db, "op@example.com", "operator")
	granted := createTestUser(t, db, "extra@example.com", "operator")
	require.NoError(t, db.Create(&models.AppGrant{UserID: granted.ID, AppID: "market-forecast"}).Error)
	granted.AppGrants = nil

	var users []models.User
	require.NoError(t, db.Find(&users).Error)

	ids, err := svc.UsersWithAccess("market-forecast", users)
	require.NoError(t, err)

	assert.ElementsMatch(t, []uint64{admin.ID, manager.ID, granted.ID}, ids)
	assert.NotContains(t, ids, operator.ID)
}
