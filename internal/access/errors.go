package access

import "errors"

var (
	// ErrEmptyChange is returned when a grant or revoke names no apps and no groups.
	ErrEmptyChange = errors.New("grant/revoke request names no apps or groups")

	// ErrUnknownRole is returned when a role change targets a role missing from the role table.
	ErrUnknownRole = errors.New("unknown role")

	// ErrUnknownStatus is returned when a status update carries an unknown status value.
	ErrUnknownStatus = errors.New("unknown user status")

	// ErrUserNotFound is returned when a user cannot be found.
	ErrUserNotFound = errors.New("user not found")

	// ErrUnknownBulkType is returned when a bulk operation carries an unknown type.
	ErrUnknownBulkType = errors.New("unknown bulk operation type")
)
