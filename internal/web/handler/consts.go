package handler

const (
	// RootPath is the root path of the route group.
	RootPath = "/"

	// APIPath is the prefix of all JSON API routes.
	APIPath = "/api"

	// DefaultPageSize for pagination.
	DefaultPageSize = 25

	// MaxPageSize callers may request.
	MaxPageSize = 100

	// ErrNilACDFatalLogMsg is used if app or cfg or db var pointer is nil.
	ErrNilACDFatalLogMsg = "app, cfg or db is nil"
)
