// Package catalog holds the portal application catalog.
//
// The catalog is configuration, not database state: it is loaded once at
// startup from a TOML file (or from the built-in defaults) and is immutable
// at runtime.
package catalog

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// AppStatus controls whether a catalog application is invokable.
type AppStatus string

const (
	// StatusActive marks an application as available to open.
	StatusActive AppStatus = "active"
	// StatusComingSoon marks an application as announced but not yet available.
	StatusComingSoon AppStatus = "coming-soon"
	// StatusMaintenance marks an application as temporarily unavailable.
	StatusMaintenance AppStatus = "maintenance"
)

// App is one catalog entry.
type App struct {
	ID          string    `toml:"id"          json:"id"`
	Name        string    `toml:"name"        json:"name"`
	Description string    `toml:"description" json:"description"`
	URL         string    `toml:"url"         json:"url"`
	Icon        string    `toml:"icon"        json:"icon"`
	Color       string    `toml:"color"       json:"color"`
	// RequiredRoles is the role-based fallback access rule: users with one of
	// these roles may open the app even without an explicit grant.
	RequiredRoles []string  `toml:"requiredRoles" json:"requiredRoles"`
	Status        AppStatus `toml:"status"        json:"status"`
	Version       string    `toml:"version"       json:"version,omitempty"`
	LastUpdated   string    `toml:"lastUpdated"   json:"lastUpdated,omitempty"`
}

// RequiresRole reports whether the given role is in the app's required-roles list.
func (a App) RequiresRole(role string) bool {
	for _, r := range a.RequiredRoles {
		if r == role {
			return true
		}
	}

	return false
}

// Catalog is an immutable, ordered application catalog with ID lookup.
type Catalog struct {
	apps []App
	byID map[string]App
}

// catalogFile is the TOML on-disk shape of the catalog.
type catalogFile struct {
	Apps []App `toml:"apps"`
}

// ErrEmptyCatalog is returned when a catalog file contains no applications.
var ErrEmptyCatalog = errors.New("catalog contains no applications")

// New builds a catalog from the given entries.
func New(apps []App) *Catalog {
	c := &Catalog{
		apps: make([]App, 0, len(apps)),
		byID: make(map[string]App, len(apps)),
	}

	for _, a := range apps {
		if _, dup := c.byID[a.ID]; dup {
			continue // first entry wins
		}

		c.apps = append(c.apps, a)
		c.byID[a.ID] = a
	}

	return c
}

// Load reads a catalog from a TOML file. An empty path returns the built-in
// default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	var f catalogFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, errors.Wrap(err, "failed to read catalog file")
	}

	if len(f.Apps) == 0 {
		return nil, ErrEmptyCatalog
	}

	return New(f.Apps), nil
}

// Default returns the built-in product catalog.
func Default() *Catalog {
	return New([]App{
		{
			ID:            "market-forecast",
			Name:          "Market Forecast",
			Description:   "Revenue and resource planning dashboard",
			URL:           "http://localhost:3000",
			Icon:          "📊",
			Color:         "bg-blue-500",
			RequiredRoles: []string{"admin", "manager"},
			Status:        StatusActive,
			Version:       "2.1.0",
			LastUpdated:   "2024-01-15",
		},
		{
			ID:            "company-equity",
			Name:          "Company Equity",
			Description:   "Track and manage company equity",
			URL:           "/equity",
			Icon:          "💼",
			Color:         "bg-green-500",
			RequiredRoles: []string{"admin"},
			Status:        StatusComingSoon,
			Version:       "1.0.0",
		},
		{
			ID:            "amex-review",
			Name:          "Amex Review",
			Description:   "American Express account management",
			URL:           "/amex",
			Icon:          "💳",
			Color:         "bg-purple-500",
			RequiredRoles: []string{"admin", "manager"},
			Status:        StatusComingSoon,
			Version:       "1.0.0",
		},
		{
			ID:            "deferred-rent",
			Name:          "Deferred Rent",
			Description:   "Manage deferred rent agreements",
			URL:           "/rent",
			Icon:          "🏢",
			Color:         "bg-yellow-500",
			RequiredRoles: []string{"admin"},
			Status:        StatusComingSoon,
			Version:       "1.0.0",
		},
		{
			ID:            "project-management",
			Name:          "Project Management",
			Description:   "Project oversight and planning",
			URL:           "/projects",
			Icon:          "🗂️",
			Color:         "bg-indigo-500",
			RequiredRoles: []string{"admin", "manager", "foreman"},
			Status:        StatusActive,
			Version:       "1.2.0",
		},
		{
			ID:            "equipment-tracking",
			Name:          "Equipment Tracking",
			Description:   "Field equipment status and assignment",
			URL:           "/equipment",
			Icon:          "🚜",
			Color:         "bg-orange-500",
			RequiredRoles: []string{"admin", "foreman", "operator"},
			Status:        StatusActive,
			Version:       "1.4.2",
		},
	})
}

// Get returns the app with the given ID.
func (c *Catalog) Get(id string) (App, bool) {
	a, ok := c.byID[id]
	return a, ok
}

// Has reports whether an app with the given ID exists in the catalog.
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// All returns every catalog entry in configuration order.
func (c *Catalog) All() []App {
	out := make([]App, len(c.apps))
	copy(out, c.apps)

	return out
}

// IDs returns every catalog app ID in configuration order.
func (c *Catalog) IDs() []string {
	out := make([]string, 0, len(c.apps))
	for _, a := range c.apps {
		out = append(out, a.ID)
	}

	return out
}

// Active returns the catalog entries that are currently invokable.
func (c *Catalog) Active() []App {
	var out []App

	for _, a := range c.apps {
		if a.Status == StatusActive {
			out = append(out, a)
		}
	}

	return out
}

// ByRole returns the catalog entries whose required-roles list contains the
// given role.
func (c *Catalog) ByRole(role string) []App {
	var out []App

	for _, a := range c.apps {
		if a.RequiresRole(role) {
			out = append(out, a)
		}
	}

	return out
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.apps)
}
