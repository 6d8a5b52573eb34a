package auth

import (
	"testing"

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

	err = db.AutoMigrate(&models.User{}, &models.AppGrant{}, &models.GroupMembership{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func createUser(t *testing.T, p *LocalProvider, email string) *models.User {
	t.Helper()

	user, err := p.CreateUser(email, "s3cr3t-pw", "Test", "User", "operator", "Sukut", "Field")
	require.NoError(t, err)

	return user
}

func TestAuthenticateSuccess(t *testing.T) {
	p := NewLocalProvider(setupTestDB(t))
	createUser(t, p, "bob@example.com")

	user, err := p.Authenticate("bob@example.com", "s3cr3t-pw")
	require.NoError(t, err)

	assert.Equal(t, "bob@example.com", user.Email)
	assert.NotNil(t, user.LastLogin, "successful login must stamp last_login")
}

func TestAuthenticateWrongPassword(t *testing.T) {
	p := NewLocalProvider(setupTestDB(t))
	createUser(t, p, "bob@example.com")

	_, err := p.Authenticate("bob@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	p := NewLocalProvider(setupTestDB(t))

	_, err := p.Authenticate("nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown email and bad password must be indistinguishable")
}

func TestAuthenticateBlockedStatuses(t *testing.T) {
	db := setupTestDB(t)
	p := NewLocalProvider(db)

	user := createUser(t, p, "bob@example.com")

	require.NoError(t, db.Model(user).Update("status", models.UserStatusInactive).Error)

	_, err := p.Authenticate("bob@example.com", "s3cr3t-pw")
	assert.ErrorIs(t, err, ErrUserAccountInactive)

	require.NoError(t, db.Model(user).Update("status", models.UserStatusPending).Error)

	_, err = p.Authenticate("bob@example.com", "s3cr3t-pw")
	assert.ErrorIs(t, err, ErrUserAccountPending)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	p := NewLocalProvider(setupTestDB(t))
	createUser(t, p, "bob@example.com")

	_, err := p.CreateUser("bob@example.com", "other-pw", "Other", "User", "manager", "", "")
	assert.ErrorIs(t, err, ErrUserEmailExists)
}

func TestCreateUserHashesPassword(t *testing.T) {
	p := NewLocalProvider(setupTestDB(t))
	user := createUser(t, p, "bob@example.com")

	assert.NotEqual(t, "s3cr3t-pw", user.Password)
	assert.True(t, user.VerifyPassword("s3cr3t-pw"))
	assert.False(t, user.VerifyPassword("other"))
}

func TestChangePassword(t *testing.T) {
	p := NewLocalProvider(setupTestDB(t))
	user := createUser(t, p, "bob@example.com")

	err := p.ChangePassword(user.ID, "wrong-old", "new-password")
	assert.ErrorIs(t, err, ErrInvalidOldPassword)

	require.NoError(t, p.ChangePassword(user.ID, "s3cr3t-pw", "new-password"))

	_, err = p.Authenticate("bob@example.com", "new-password")
	assert.NoError(t, err)
}

func TestDeleteUserBlocksLogin(t *testing.T) {
	p := NewLocalProvider(setupTestDB(t))
	user := createUser(t, p, "bob@example.com")

	require.NoError(t, p.DeleteUser(user.ID))

	_, err := p.Authenticate("bob@example.com", "s3cr3t-pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestListUsersFilters(t *testing.T) {
	db := setupTestDB(t)
	p := NewLocalProvider(db)

	a := createUser(t, p, "alice@example.com")
	createUser(t, p, "bob@example.com")
	require.NoError(t, db.Model(a).Update("status", models.UserStatusInactive).Error)

	users, total, err := p.ListUsers(models.UserStatusInactive, "", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, "alice@example.com", users[0].Email)

	users, total, err = p.ListUsers("", "bob", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, "bob@example.com", users[0].Email)

	_, total, err = p.ListUsers("", "", 1, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}
