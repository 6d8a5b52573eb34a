package access

import (
	"github.com/sukut-platform/go-portal/internal/catalog"
	"github.com/sukut-platform/go-portal/internal/db/models"
	"github.com/sukut-platform/go-portal/internal/roles"
)

// ResolveInput carries everything the pure resolver needs about one user.
// Groups must already be looked up: group IDs that no longer exist are simply
// absent from the slice, which makes them contribute nothing by construction.
type ResolveInput struct {
	Role        string
	GrantedApps []string
	Groups      []models.PermissionGroup
	Catalog     *catalog.Catalog
}

// Resolve computes the definitive set of application IDs a user may open:
//   - admin role or a wildcard grant yields the full catalog;
//   - otherwise the union of individual grants (restricted to known catalog
//     IDs), the apps of every group the user belongs to, and every catalog
//     app whose required roles include the user's role.
//
// The result has set semantics; there are no error conditions.
func Resolve(in ResolveInput) AppSet {
	if in.Role == roles.Admin {
		return AllApps()
	}

	for _, id := range in.GrantedApps {
		if id == models.WildcardAppID {
			return AllApps()
		}
	}

	set := NewAppSet()

	// individually granted apps, literal
	for _, id := range in.GrantedApps {
		if in.Catalog.Has(id) {
			set.add(id)
		}
	}

	// apps contributed by group memberships
	for _, g := range in.Groups {
		for _, id := range g.Apps {
			if in.Catalog.Has(id) {
				set.add(id)
			}
		}
	}

	// role-based fallback
	for _, a := range in.Catalog.ByRole(in.Role) {
		set.add(a.ID)
	}

	return set
}

// ResolveAccessibleApps loads the user's grants and group memberships and
// resolves their accessible-app set.
func (s *Service) ResolveAccessibleApps(user *models.User) (AppSet, error) {
	in, err := s.resolveInput(user)
	if err != nil {
		return AppSet{}, err
	}

	return Resolve(in), nil
}

// CanAccessApp reports whether the user may open the given app. The admin
// role and the wildcard grant short-circuit before the full resolution; the
// result is identical to membership in ResolveAccessibleApps.
func (s *Service) CanAccessApp(user *models.User, appID string) (bool, error) {
	if !s.catalog.Has(appID) {
		return false, nil
	}

	if user.Role == roles.Admin {
		return true, nil
	}

	grants, err := s.grantedApps(user)
	if err != nil {
		return false, err
	}

	for _, id := range grants {
		if id == models.WildcardAppID {
			return true, nil
		}
	}

	set, err := s.ResolveAccessibleApps(user)
	if err != nil {
		return false, err
	}

	return set.Contains(appID, s.catalog.Has), nil
}

// UsersWithAccess returns the IDs of every given user that may open the app.
// It is defined through CanAccessApp so the two query forms cannot diverge.
func (s *Service) UsersWithAccess(appID string, users []models.User) ([]uint64, error) {
	var out []uint64

	for i := range users {
		ok, err := s.CanAccessApp(&users[i], appID)
		if err != nil {
			return nil, err
		}

		if ok {
			out = append(out, users[i].ID)
		}
	}

	return out, nil
}

// resolveInput assembles the pure resolver input for a user, loading grants,
// memberships and the referenced groups. Dangling group references are
// dropped here.
func (s *Service) resolveInput(user *models.User) (ResolveInput, error) {
	grants, err := s.grantedApps(user)
	if err != nil {
		return ResolveInput{}, err
	}

	groupIDs, err := s.groupIDs(user)
	if err != nil {
		return ResolveInput{}, err
	}

	var groups []models.PermissionGroup

	if len(groupIDs) > 0 {
		if err := s.db.Where("id IN ?", groupIDs).Find(&groups).Error; err != nil {
			return ResolveInput{}, err
		}
	}

	return ResolveInput{
		Role:        user.Role,
		GrantedApps: grants,
		Groups:      groups,
		Catalog:     s.catalog,
	}, nil
}

// grantedApps returns the user's individually granted app IDs, preferring
// preloaded associations over a query.
func (s *Service) grantedApps(user *models.User) ([]string, error) {
	if user.AppGrants != nil {
		return user.GrantedAppIDs(), nil
	}

	var ids []string
	if err := s.db.Model(&models.AppGrant{}).
		Where("user_id = ?", user.ID).
		Pluck("app_id", &ids).Error; err != nil {
		return nil, err
	}

	return ids, nil
}

// groupIDs returns the user's group membership IDs, preferring preloaded
// associations over a query.
func (s *Service) groupIDs(user *models.User) ([]string, error) {
	if user.GroupMemberships != nil {
		return user.GroupIDs(), nil
	}

	var ids []string
	if err := s.db.Model(&models.GroupMembership{}).
		Where("user_id = ?", user.ID).
		Pluck("group_id", &ids).Error; err != nil {
		return nil, err
	}

	return ids, nil
}
