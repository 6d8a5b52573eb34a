// Package main provides the entry point for the Sukut portal backend.
// It initializes and runs a web server using the Fiber framework that serves
// the portal single-page application: login and session handling, the
// application catalog filtered by each user's access, the admin console for
// user/permission management with an audit trail, and the team chat and
// announcement feed. The application uses gorm for data persistence.
package main
