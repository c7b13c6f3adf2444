// Package common: errors.go declares the sentinel errors shared by every
// feature of the bot. Handlers match them with errors.Is to pick a reply
// the user understands.
package common

import "errors"

// Points and leaderboard errors
var (
	// ErrUserNotFound: the guild has no point record for the user
	ErrUserNotFound = errors.New("user has no point record")
	// ErrStoreUnavailable: a leaderboard read failed at the transport level
	ErrStoreUnavailable = errors.New("point store unavailable")
	// ErrNoPoints: the user exists but has zero points, so has no card
	ErrNoPoints = errors.New("user does not have any activity points")
)

// Guild settings errors
var (
	// ErrGuildNotConfigured: no settings row for the guild
	ErrGuildNotConfigured = errors.New("guild is not configured")
	// ErrPointsDisabled: the activity system is switched off for the guild
	ErrPointsDisabled = errors.New("activity system is not enabled for this guild")
	// ErrInvalidLadder: a tier step has a non-positive cost
	ErrInvalidLadder = errors.New("invalid tier ladder")
)

// Admin errors
var (
	// ErrNotAdmin: the user is not listed in ADMIN_IDS
	ErrNotAdmin = errors.New("you are not an administrator")
	// ErrWrongPassword: password did not match ADMIN_PASSWORD_HASH
	ErrWrongPassword = errors.New("wrong password")
	// ErrTooManyAttempts: too many failed logins within the last hour
	ErrTooManyAttempts = errors.New("too many attempts, wait 1 hour")
	// ErrSessionExpired: no active admin session
	ErrSessionExpired = errors.New("session expired, log in again")
)
