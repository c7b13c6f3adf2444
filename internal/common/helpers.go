// Package common contains small utilities used across the project:
// number formatting, guild id conversion and time helpers.
package common

import (
	"fmt"
	"strconv"
	"time"
)

// FormatNumber formats an integer with thousands separators (commas).
//
// Examples:
//
//	FormatNumber(950)     → "950"
//	FormatNumber(2350)    → "2,350"
//	FormatNumber(-12000)  → "-12,000"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return strconv.FormatInt(n, 10)
	}
	return fmt.Sprintf("%s,%03d", FormatNumber(n/1000), n%1000)
}

// GuildID renders a Telegram chat id as the guild identifier used by the
// point store and the guild settings.
func GuildID(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

// UserID renders a Telegram user id as a leaderboard user identifier.
func UserID(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// Location returns the time zone by name, falling back to UTC when the
// tz database is missing from the container.
func Location(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
