// Package roles holds the portal role table.
//
// Roles are data, not code: each role maps to display metadata and a set of
// defaults (permission groups, individually granted apps, feature flags) that
// a role change resets a user's permission record to. The set of roles is
// extensible through configuration without touching resolution logic.
package roles

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Admin is the role name that implies unrestricted access to all catalog
// applications, independent of any grants.
const Admin = "admin"

// Role is one role table entry.
type Role struct {
	Name        string `toml:"name"        json:"name"`
	Label       string `toml:"label"       json:"label"`
	Description string `toml:"description" json:"description"`
	Color       string `toml:"color"       json:"color"`
	// DefaultGroups are the permission group IDs assigned on role change.
	DefaultGroups []string `toml:"defaultGroups" json:"defaultGroups"`
	// DefaultApps are the individually granted app IDs assigned on role
	// change; may contain the wildcard.
	DefaultApps []string `toml:"defaultApps" json:"defaultApps"`
	// DefaultFeatures are the feature flags assigned on role change.
	DefaultFeatures []string `toml:"defaultFeatures" json:"defaultFeatures"`
}

// Defaults is a role's default permission record.
type Defaults struct {
	Groups   []string
	Apps     []string
	Features []string
}

// Registry is an immutable role table with name lookup.
type Registry struct {
	roles  []Role
	byName map[string]Role
}

// registryFile is the TOML on-disk shape of the role table.
type registryFile struct {
	Roles []Role `toml:"roles"`
}

// ErrEmptyRegistry is returned when a role file contains no roles.
var ErrEmptyRegistry = errors.New("role table contains no roles")

// New builds a registry from the given roles.
func New(roles []Role) *Registry {
	r := &Registry{
		roles:  make([]Role, 0, len(roles)),
		byName: make(map[string]Role, len(roles)),
	}

	for _, role := range roles {
		if _, dup := r.byName[role.Name]; dup {
			continue // first entry wins
		}

		r.roles = append(r.roles, role)
		r.byName[role.Name] = role
	}

	return r
}

// Load reads a role table from a TOML file. An empty path returns the
// built-in default table.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}

	var f registryFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, errors.Wrap(err, "failed to read roles file")
	}

	if len(f.Roles) == 0 {
		return nil, ErrEmptyRegistry
	}

	return New(f.Roles), nil
}

// Default returns the built-in product role table.
func Default() *Registry {
	return New([]Role{
		{
			Name:            Admin,
			Label:           "Administrator",
			Description:     "Full system access and user management",
			Color:           "text-red-600",
			DefaultGroups:   []string{"executive-suite"},
			DefaultApps:     []string{"*"},
			DefaultFeatures: []string{"all"},
		},
		{
			Name:            "manager",
			Label:           "Manager",
			Description:     "Project oversight and planning access",
			Color:           "text-blue-600",
			DefaultGroups:   []string{"finance-suite"},
			DefaultApps:     []string{"market-forecast", "amex-review"},
			DefaultFeatures: []string{"view_reports", "edit_own_data", "export_data"},
		},
		{
			Name:            "foreman",
			Label:           "Foreman",
			Description:     "Field operations and equipment management",
			Color:           "text-green-600",
			DefaultGroups:   []string{"basic-access"},
			DefaultApps:     []string{"market-forecast"},
			DefaultFeatures: []string{"view_projects", "edit_own_data"},
		},
		{
			Name:            "operator",
			Label:           "Operator",
			Description:     "Equipment operation and status updates",
			Color:           "text-yellow-600",
			DefaultGroups:   []string{},
			DefaultApps:     []string{},
			DefaultFeatures: []string{"view_equipment", "view_own_data"},
		},
	})
}

// Get returns the role with the given name.
func (r *Registry) Get(name string) (Role, bool) {
	role, ok := r.byName[name]
	return role, ok
}

// IsValid reports whether the given role name exists in the table.
func (r *Registry) IsValid(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// All returns every role in configuration order.
func (r *Registry) All() []Role {
	out := make([]Role, len(r.roles))
	copy(out, r.roles)

	return out
}

// Names returns every role name in configuration order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, role.Name)
	}

	return out
}

// DefaultsFor returns the default permission record for the given role.
// Unknown roles yield empty defaults.
func (r *Registry) DefaultsFor(name string) Defaults {
	role, ok := r.byName[name]
	if !ok {
		return Defaults{Groups: []string{}, Apps: []string{}, Features: []string{}}
	}

	return Defaults{
		Groups:   append([]string{}, role.DefaultGroups...),
		Apps:     append([]string{}, role.DefaultApps...),
		Features: append([]string{}, role.DefaultFeatures...),
	}
}
