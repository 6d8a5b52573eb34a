package access

import (
	"github.com/rs/zerolog/log"

	"github.com/sukut-platform/go-portal/internal/audit"
	"github.com/sukut-platform/go-portal/internal/db/models"
)

// BulkType enumerates the batch mutations an admin can apply.
type BulkType string

const (
	// BulkGrantAccess grants apps/groups to every listed user.
	BulkGrantAccess BulkType = "grant_access"
	// BulkRevokeAccess revokes apps/groups from every listed user.
	BulkRevokeAccess BulkType = "revoke_access"
	// BulkUpdateRole changes every listed user's role (resetting permissions).
	BulkUpdateRole BulkType = "update_role"
	// BulkUpdateStatus changes every listed user's lifecycle status.
	BulkUpdateStatus BulkType = "update_status"
)

// BulkPayload carries the per-type parameters of a bulk operation.
type BulkPayload struct {
	Apps   []string          `json:"apps,omitempty"`
	Groups []string          `json:"groups,omitempty"`
	Role   string            `json:"role,omitempty"`
	Status models.UserStatus `json:"status,omitempty"`
}

// BulkOperation is a transient command applying one mutation to many users.
// It is not persisted; only its effects and the resulting audit entry are.
type BulkOperation struct {
	Type    BulkType    `json:"type"`
	UserIDs []uint64    `json:"userIds"`
	Payload BulkPayload `json:"payload"`
}

// BulkSummary reports the outcome of a bulk operation. A failure on one user
// never blocks the remaining users; it only increments Skipped.
type BulkSummary struct {
	Succeeded int `json:"succeeded"`
	Skipped   int `json:"skipped"`
}

// ApplyBulk applies the operation to every listed user. Mutations are atomic
// per user only; there is no cross-user transaction. Unknown user IDs and
// per-user failures are counted as skipped. One aggregate audit entry records
// the affected count and payload.
func (s *Service) ApplyBulk(performedBy string, op BulkOperation) (BulkSummary, error) {
	var summary BulkSummary

	mutate, err := s.bulkMutation(op)
	if err != nil {
		return summary, err
	}

	for _, id := range op.UserIDs {
		user, err := s.GetUser(id)
		if err != nil {
			log.Warn().Uint64("user_id", id).Err(err).Msg("bulk operation: skipping user")
			summary.Skipped++

			continue
		}

		if err := mutate(user); err != nil {
			log.Warn().Uint64("user_id", id).Err(err).Msg("bulk operation: mutation failed")
			summary.Skipped++

			continue
		}

		summary.Succeeded++
	}

	err = s.recorder.Record(
		audit.BulkUserID,
		performedBy,
		audit.ActionBulkOperation,
		map[string]any{
			"type":      string(op.Type),
			"userCount": summary.Succeeded,
			"skipped":   summary.Skipped,
			"payload":   op.Payload,
		},
	)
	if err != nil {
		return summary, err
	}

	return summary, nil
}

// noopRecorder drops audit entries. Used inside bulk operations where the
// aggregate entry replaces the per-user ones.
type noopRecorder struct{}

func (noopRecorder) Record(_, _, _ string, _ map[string]any) error { return nil }

// bulkMutation maps the operation type onto the single-user mutation. The
// per-user audit entries of the underlying operations are suppressed in favor
// of the one aggregate entry, so mutations run against a recorder-less copy.
func (s *Service) bulkMutation(op BulkOperation) (func(*models.User) error, error) {
	quiet := &Service{db: s.db, catalog: s.catalog, roles: s.roles, recorder: noopRecorder{}}

	switch op.Type {
	case BulkGrantAccess:
		req := ChangeRequest{Apps: op.Payload.Apps, Groups: op.Payload.Groups}
		if req.empty() {
			return nil, ErrEmptyChange
		}

		return func(u *models.User) error {
			_, _, err := quiet.apply(u, req, true)
			return err
		}, nil

	case BulkRevokeAccess:
		req := ChangeRequest{Apps: op.Payload.Apps, Groups: op.Payload.Groups}
		if req.empty() {
			return nil, ErrEmptyChange
		}

		return func(u *models.User) error {
			_, _, err := quiet.apply(u, req, false)
			return err
		}, nil

	case BulkUpdateRole:
		if !s.roles.IsValid(op.Payload.Role) {
			return nil, ErrUnknownRole
		}

		return func(u *models.User) error {
			return quiet.UpdateRole("", u, op.Payload.Role)
		}, nil

	case BulkUpdateStatus:
		switch op.Payload.Status {
		case models.UserStatusActive, models.UserStatusInactive, models.UserStatusPending:
		default:
			return nil, ErrUnknownStatus
		}

		return func(u *models.User) error {
			return quiet.UpdateStatus("", u, op.Payload.Status)
		}, nil

	default:
		return nil, ErrUnknownBulkType
	}
}
