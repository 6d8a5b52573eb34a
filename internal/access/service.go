// Package access implements the portal access-control core: resolution of a
// user's accessible applications and the grant/revoke operations that
// administrators use to change it.
package access

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sukut-platform/go-portal/internal/audit"
	"github.com/sukut-platform/go-portal/internal/catalog"
	"github.com/sukut-platform/go-portal/internal/db/models"
	"github.com/sukut-platform/go-portal/internal/roles"
)

// AuditRecorder receives one entry per administrative mutation.
// *audit.Recorder is the production implementation.
type AuditRecorder interface {
	Record(userID, performedBy, action string, details map[string]any) error
}

// Service provides access resolution and permission mutation over the user store.
type Service struct {
	db       *gorm.DB
	catalog  *catalog.Catalog
	roles    *roles.Registry
	recorder AuditRecorder
}

// NewService creates a new access service.
func NewService(db *gorm.DB, cat *catalog.Catalog, reg *roles.Registry, rec AuditRecorder) *Service {
	return &Service{db: db, catalog: cat, roles: reg, recorder: rec}
}

// Catalog returns the service's application catalog.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// Roles returns the service's role registry.
func (s *Service) Roles() *roles.Registry {
	return s.roles
}

// ChangeRequest names the app IDs and/or group IDs of one grant or revoke.
type ChangeRequest struct {
	Apps   []string
	Groups []string
}

func (c ChangeRequest) empty() bool {
	return len(c.Apps) == 0 && len(c.Groups) == 0
}

// Grant adds the given app IDs and/or group IDs to the user's permission
// record. Granting an already-held app or group is a no-op, not an error.
// One audit entry summarizes what was actually added.
func (s *Service) Grant(performedBy string, user *models.User, req ChangeRequest) error {
	if req.empty() {
		return ErrEmptyChange
	}

	addedApps, addedGroups, err := s.apply(user, req, true)
	if err != nil {
		return err
	}

	return s.recorder.Record(
		fmt.Sprintf("%d", user.ID),
		performedBy,
		audit.ActionAccessGranted,
		map[string]any{
			"user":   user.Email,
			"apps":   addedApps,
			"groups": addedGroups,
		},
	)
}

// Revoke removes the given app IDs and/or group IDs from the user's
// permission record. Revoking something the user does not hold is a no-op.
// One audit entry summarizes what was actually removed.
func (s *Service) Revoke(performedBy string, user *models.User, req ChangeRequest) error {
	if req.empty() {
		return ErrEmptyChange
	}

	removedApps, removedGroups, err := s.apply(user, req, false)
	if err != nil {
		return err
	}

	return s.recorder.Record(
		fmt.Sprintf("%d", user.ID),
		performedBy,
		audit.ActionAccessRevoked,
		map[string]any{
			"user":   user.Email,
			"apps":   removedApps,
			"groups": removedGroups,
		},
	)
}

// apply performs the set union (grant=true) or set difference (grant=false)
// and returns the IDs that actually changed.
func (s *Service) apply(user *models.User, req ChangeRequest, grant bool) ([]string, []string, error) {
	var changedApps, changedGroups []string

	err := s.db.Transaction(func(tx *gorm.DB) error {
		existingApps, err := pluckSet(tx, &models.AppGrant{}, "app_id", user.ID)
		if err != nil {
			return err
		}

		existingGroups, err := pluckSet(tx, &models.GroupMembership{}, "group_id", user.ID)
		if err != nil {
			return err
		}

		for _, id := range req.Apps {
			_, held := existingApps[id]
			if grant == held {
				continue // union/difference no-op
			}

			changedApps = append(changedApps, id)

			if grant {
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
					Create(&models.AppGrant{UserID: user.ID, AppID: id}).Error; err != nil {
					return fmt.Errorf("failed to grant app %s: %w", id, err)
				}
			} else {
				if err := tx.Where("user_id = ? AND app_id = ?", user.ID, id).
					Delete(&models.AppGrant{}).Error; err != nil {
					return fmt.Errorf("failed to revoke app %s: %w", id, err)
				}
			}
		}

		for _, id := range req.Groups {
			_, held := existingGroups[id]
			if grant == held {
				continue
			}

			changedGroups = append(changedGroups, id)

			if grant {
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
					Create(&models.GroupMembership{UserID: user.ID, GroupID: id}).Error; err != nil {
					return fmt.Errorf("failed to assign group %s: %w", id, err)
				}
			} else {
				if err := tx.Where("user_id = ? AND group_id = ?", user.ID, id).
					Delete(&models.GroupMembership{}).Error; err != nil {
					return fmt.Errorf("failed to remove group %s: %w", id, err)
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	// invalidate any preloaded associations
	user.AppGrants = nil
	user.GroupMemberships = nil

	return changedApps, changedGroups, nil
}

// UpdateRole replaces the user's role and resets the permission record to the
// new role's defaults. Custom grants do not survive a role change; the audit
// entry records what was discarded.
func (s *Service) UpdateRole(performedBy string, user *models.User, newRole string) error {
	if !s.roles.IsValid(newRole) {
		return ErrUnknownRole
	}

	priorApps, err := s.grantedApps(user)
	if err != nil {
		return err
	}

	priorGroups, err := s.groupIDs(user)
	if err != nil {
		return err
	}

	defaults := s.roles.DefaultsFor(newRole)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.AppGrant{}).Error; err != nil {
			return fmt.Errorf("failed to clear app grants: %w", err)
		}

		if err := tx.Where("user_id = ?", user.ID).Delete(&models.GroupMembership{}).Error; err != nil {
			return fmt.Errorf("failed to clear group memberships: %w", err)
		}

		for _, id := range defaults.Apps {
			if err := tx.Create(&models.AppGrant{UserID: user.ID, AppID: id}).Error; err != nil {
				return fmt.Errorf("failed to grant default app %s: %w", id, err)
			}
		}

		for _, id := range defaults.Groups {
			if err := tx.Create(&models.GroupMembership{UserID: user.ID, GroupID: id}).Error; err != nil {
				return fmt.Errorf("failed to assign default group %s: %w", id, err)
			}
		}

		// Struct update, so the features json serializer runs.
		return tx.Model(&models.User{}).
			Where("id = ?", user.ID).
			Select("Role", "Features", "UpdatedAt").
			Updates(models.User{
				Role:      newRole,
				Features:  defaults.Features,
				UpdatedAt: time.Now(),
			}).Error
	})
	if err != nil {
		return err
	}

	oldRole := user.Role
	user.Role = newRole
	user.Features = defaults.Features
	user.AppGrants = nil
	user.GroupMemberships = nil

	return s.recorder.Record(
		fmt.Sprintf("%d", user.ID),
		performedBy,
		audit.ActionRoleChanged,
		map[string]any{
			"user":            user.Email,
			"from":            oldRole,
			"to":              newRole,
			"discardedApps":   priorApps,
			"discardedGroups": priorGroups,
		},
	)
}

// UpdateStatus sets the user's lifecycle status. Permissions are untouched;
// an inactive status blocks the next login but does not invalidate sessions
// already issued.
func (s *Service) UpdateStatus(performedBy string, user *models.User, status models.UserStatus) error {
	switch status {
	case models.UserStatusActive, models.UserStatusInactive, models.UserStatusPending:
	default:
		return ErrUnknownStatus
	}

	err := s.db.Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("status", status).Error
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	oldStatus := user.Status
	user.Status = status

	return s.recorder.Record(
		fmt.Sprintf("%d", user.ID),
		performedBy,
		audit.ActionStatusChanged,
		map[string]any{
			"user": user.Email,
			"from": oldStatus,
			"to":   status,
		},
	)
}

// GetUser loads a user by ID.
func (s *Service) GetUser(id uint64) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	return &user, nil
}

// pluckSet loads one junction column for a user as a membership set.
func pluckSet(tx *gorm.DB, model any, column string, userID uint64) (map[string]struct{}, error) {
	var ids []string
	if err := tx.Model(model).
		Where("user_id = ?", userID).
		Pluck(column, &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", column, err)
	}

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	return set, nil
}
