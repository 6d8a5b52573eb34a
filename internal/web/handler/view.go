package handler

import (
	"time"

	"github.com/sukut-platform/go-portal/internal/db/models"
)

// UserView is the JSON representation of a user account returned by the
// API. Password hashes never leave the server.
type UserView struct {
	ID             uint64     `json:"id"`
	Email          string     `json:"email"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	Role           string     `json:"role"`
	Company        string     `json:"company"`
	Department     string     `json:"department"`
	Status         string     `json:"status"`
	Features       []string   `json:"features"`
	GrantedApps    []string   `json:"grantedApps"`
	Groups         []string   `json:"groups"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	AccessibleApps []string   `json:"accessibleApps,omitempty"`
}

// NewUserView converts a user model into its API representation.
// accessibleApps may be nil when the caller has no resolved set at hand.
func NewUserView(user *models.User, accessibleApps []string) UserView {
	features := user.Features
	if features == nil {
		features = []string{}
	}

	return UserView{
		ID:             user.ID,
		Email:          user.Email,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Role:           user.Role,
		Company:        user.Company,
		Department:     user.Department,
		Status:         string(user.Status),
		Features:       features,
		GrantedApps:    user.GrantedAppIDs(),
		Groups:         user.GroupIDs(),
		LastLogin:      user.LastLogin,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
		AccessibleApps: accessibleApps,
	}
}

// NewUserViews converts a slice of user models.
func NewUserViews(users []models.User) []UserView {
	views := make([]UserView, 0, len(users))
	for i := range users {
		views = append(views, NewUserView(&users[i], nil))
	}

	return views
}
