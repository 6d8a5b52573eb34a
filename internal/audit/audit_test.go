package audit

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sukut-platform/go-portal/internal/db/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	require.NoError(t, db.AutoMigrate(&models.AuditEntry{}), "failed to migrate test database")

	return db
}

func TestRecordAssignsID(t *testing.T) {
	db := setupTestDB(t)
	rec := NewRecorder(db)

	err := rec.Record("42", "admin@example.com", ActionAccessGranted, map[string]any{"apps": []string{"amex-review"}})
	require.NoError(t, err)

	var entry models.AuditEntry
	require.NoError(t, db.First(&entry).Error)

	assert.Len(t, entry.ID, 36)
	assert.Equal(t, "42", entry.UserID)
	assert.Equal(t, "admin@example.com", entry.PerformedBy)
	assert.WithinDuration(t, time.Now(), entry.CreatedAt, 5*time.Second)
}

func TestRecordEmptyAction(t *testing.T) {
	db := setupTestDB(t)
	rec := NewRecorder(db)

	err := rec.Record("42", "admin@example.com", "", nil)
	assert.ErrorIs(t, err, ErrEmptyAction)
}

func TestListNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	rec := NewRecorder(db)

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&models.AuditEntry{
			ID:          fmt.Sprintf("id-%d", i),
			UserID:      "1",
			PerformedBy: "admin@example.com",
			Action:      ActionStatusChanged,
			CreatedAt:   time.Now().Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	entries, total, err := rec.List("", "", 10, 0)
	require.NoError(t, err)

	assert.EqualValues(t, 3, total)
	require.Len(t, entries, 3)
	assert.Equal(t, "id-2", entries[0].ID)
	assert.Equal(t, "id-0", entries[2].ID)
}

func TestListFilterAndPagination(t *testing.T) {
	db := setupTestDB(t)
	rec := NewRecorder(db)

	require.NoError(t, rec.Record("1", "admin@example.com", ActionAccessGranted, nil))
	require.NoError(t, rec.Record("2", "admin@example.com", ActionAccessRevoked, nil))
	require.NoError(t, rec.Record("3", "boss@example.com", ActionAccessGranted, nil))

	entries, total, err := rec.List(ActionAccessGranted, "", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, entries, 2)

	entries, total, err = rec.List("", "boss", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, entries, 1)
	assert.Equal(t, "3", entries[0].UserID)

	entries, total, err = rec.List("", "", 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, entries, 1)
}

func TestActionsDistinct(t *testing.T) {
	db := setupTestDB(t)
	rec := NewRecorder(db)

	require.NoError(t, rec.Record("1", "admin@example.com", ActionAccessGranted, nil))
	require.NoError(t, rec.Record("2", "admin@example.com", ActionAccessGranted, nil))
	require.NoError(t, rec.Record("3", "admin@example.com", ActionRoleChanged, nil))

	actions, err := rec.Actions()
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{ActionAccessGranted, ActionRoleChanged}, actions)
}
