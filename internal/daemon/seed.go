package daemon

import (
	"gorm.io/gorm"

	"github.com/rs/zerolog/log"

	"github.com/sukut-platform/go-portal/internal/config"
	"github.com/sukut-platform/go-portal/internal/db/models"
	"github.com/sukut-platform/go-portal/internal/roles"
)

// defaultGroups are created on first boot so role defaults and the admin
// console have something to point at.
var defaultGroups = []models.PermissionGroup{
	{
		ID:          "executive-suite",
		Name:        "Executive Suite",
		Description: "Full access to all applications",
		Icon:        "👔",
		Color:       "bg-purple-500",
		Apps:        []string{"market-forecast", "company-equity", "amex-review", "deferred-rent"},
	},
	{
		ID:          "finance-suite",
		Name:        "Finance Suite",
		Description: "Financial planning and analysis tools",
		Icon:        "💰",
		Color:       "bg-green-500",
		Apps:        []string{"market-forecast", "company-equity", "deferred-rent"},
	},
	{
		ID:          "accounting-suite",
		Name:        "Accounting Suite",
		Description: "Accounting and expense management",
		Icon:        "📊",
		Color:       "bg-blue-500",
		Apps:        []string{"amex-review", "deferred-rent"},
	},
	{
		ID:          "basic-access",
		Name:        "Basic Access",
		Description: "Essential tools only",
		Icon:        "📈",
		Color:       "bg-gray-500",
		Apps:        []string{"market-forecast"},
	},
}

// seed creates the default permission groups and the initial admin account
// on an empty database.
func seed(_ *config.Config, db *gorm.DB, reg *roles.Registry) {
	var groupCount int64

	db.Model(&models.PermissionGroup{}).Count(&groupCount)

	if groupCount == 0 {
		for i := range defaultGroups {
			if err := db.Create(&defaultGroups[i]).Error; err != nil {
				log.Error().Err(err).Str("group", defaultGroups[i].ID).Msg("failed to seed group")
			}
		}

		log.Info().Int("groups", len(defaultGroups)).Msg("seeded default permission groups")
	}

	var userCount int64

	db.Model(&models.User{}).Count(&userCount)

	if userCount == 0 {
		defaults := reg.DefaultsFor(roles.Admin)

		admin := models.User{
			Email:     "admin@example.com",
			Password:  models.HashPassword("changeme"),
			FirstName: "Portal",
			LastName:  "Admin",
			Role:      roles.Admin,
			Status:    models.UserStatusActive,
			Features:  defaults.Features,
		}

		if err := db.Create(&admin).Error; err != nil {
			log.Error().Err(err).Msg("failed to seed admin user")
			return
		}

		log.Warn().Str("email", admin.Email).Msg("seeded default admin user, change the password")
	}
}
