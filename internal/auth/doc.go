// Package auth provides credential authentication, session token issuing and
// the Fiber middleware gating portal routes.
package auth
