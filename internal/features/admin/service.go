// Package admin: service.go holds authentication, sessions and the guild
// settings edits available to a logged-in admin.
package admin

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"serotonyl.ru/activity-bot/internal/common"
	"serotonyl.ru/activity-bot/internal/features/settings"
	"serotonyl.ru/activity-bot/internal/features/tiers"
)

// Argon2id parameters used by HashPassword.
const (
	argonMemory      uint32 = 64 * 1024
	argonIterations  uint32 = 3
	argonParallelism uint8  = 2
	argonKeyLength   uint32 = 32
	argonSaltLength         = 16
)

// SessionStore is implemented by *Repository.
type SessionStore interface {
	CreateSession(ctx context.Context, session *AdminSession) error
	GetActiveSession(ctx context.Context, userID int64) (*AdminSession, error)
	DeactivateSession(ctx context.Context, userID int64) error
	UpdateActivity(ctx context.Context, userID int64) error
	LogAttempt(ctx context.Context, userID int64, success bool) error
	GetRecentAttempts(ctx context.Context, userID int64, period time.Duration) (int, error)
	LogChange(ctx context.Context, change SettingsChange) error
	RecentChanges(ctx context.Context, guildID string, limit int) ([]SettingsChange, error)
}

// Service manages admin sessions and settings edits.
type Service struct {
	repo         SessionStore
	settings     settings.Writer
	isAdmin      func(userID int64) bool
	passwordHash string
}

// NewService creates the admin service. isAdmin is normally
// config.Config.IsAdmin.
func NewService(repo SessionStore, writer settings.Writer, isAdmin func(int64) bool, passwordHash string) *Service {
	return &Service{
		repo:         repo,
		settings:     writer,
		isAdmin:      isAdmin,
		passwordHash: passwordHash,
	}
}

// IsAdmin reports whether userID may use admin commands at all.
func (s *Service) IsAdmin(userID int64) bool {
	return s.isAdmin != nil && s.isAdmin(userID)
}

// Login checks the password with Argon2id and opens a 24h session.
// MaxFailedAttempts failures within an hour lock the login.
func (s *Service) Login(ctx context.Context, userID int64, password string) error {
	if !s.IsAdmin(userID) {
		return common.ErrNotAdmin
	}

	attempts, err := s.repo.GetRecentAttempts(ctx, userID, AttemptWindow)
	if err != nil {
		return err
	}
	if attempts >= MaxFailedAttempts {
		return common.ErrTooManyAttempts
	}

	match := verifyArgon2id(password, s.passwordHash)
	if err := s.repo.LogAttempt(ctx, userID, match); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("failed to log login attempt")
	}
	if !match {
		return common.ErrWrongPassword
	}

	token, err := generateSecureToken()
	if err != nil {
		return err
	}
	return s.repo.CreateSession(ctx, &AdminSession{
		UserID:       userID,
		SessionToken: token,
		ExpiresAt:    time.Now().Add(SessionTTL),
	})
}

// Logout closes the admin's sessions.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	if !s.IsAdmin(userID) {
		return common.ErrNotAdmin
	}
	return s.repo.DeactivateSession(ctx, userID)
}

// requireSession fails with ErrSessionExpired when the admin is not logged in.
func (s *Service) requireSession(ctx context.Context, userID int64) error {
	if !s.IsAdmin(userID) {
		return common.ErrNotAdmin
	}
	if _, err := s.repo.GetActiveSession(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.UpdateActivity(ctx, userID); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("failed to update session activity")
	}
	return nil
}

// SetLadder validates and stores the guild's tier ladder.
func (s *Service) SetLadder(ctx context.Context, userID int64, guildID string, ladder tiers.Ladder) error {
	if err := s.requireSession(ctx, userID); err != nil {
		return err
	}
	if err := s.settings.SetLadder(ctx, guildID, ladder); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"admin_id": userID,
		"guild_id": guildID,
		"ladder":   ladder.String(),
	}).Info("tier ladder updated")
	s.audit(ctx, SettingsChange{AdminID: userID, GuildID: guildID, Field: FieldLadder, Value: ladder.String()})
	return nil
}

// SetPointsSystem switches the guild's activity system.
func (s *Service) SetPointsSystem(ctx context.Context, userID int64, guildID string, enabled bool) error {
	if err := s.requireSession(ctx, userID); err != nil {
		return err
	}
	if err := s.settings.SetPointsSystem(ctx, guildID, enabled); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"admin_id": userID,
		"guild_id": guildID,
		"enabled":  enabled,
	}).Info("points system switched")

	value := "off"
	if enabled {
		value = "on"
	}
	s.audit(ctx, SettingsChange{AdminID: userID, GuildID: guildID, Field: FieldPointsSystem, Value: value})
	return nil
}

// History returns the latest HistoryLimit settings edits of the guild.
func (s *Service) History(ctx context.Context, userID int64, guildID string) ([]SettingsChange, error) {
	if err := s.requireSession(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.RecentChanges(ctx, guildID, HistoryLimit)
}

// audit records an applied edit. The edit already happened, so a failure
// here is only logged.
func (s *Service) audit(ctx context.Context, change SettingsChange) {
	if err := s.repo.LogChange(ctx, change); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"admin_id": change.AdminID,
			"guild_id": change.GuildID,
		}).Warn("failed to record settings change")
	}
}

// ParseGuildID checks that arg is a Telegram chat id.
func ParseGuildID(arg string) (string, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return "", fmt.Errorf("guild id %q is not a chat id", arg)
	}
	return common.GuildID(id), nil
}

// ParseLadder reads "<cost>:<label>" arguments into a validated ladder.
// No arguments give an empty ladder.
func ParseLadder(args []string) (tiers.Ladder, error) {
	steps := make([]tiers.Step, 0, len(args))
	for i, arg := range args {
		costText, label, ok := strings.Cut(arg, ":")
		if !ok || label == "" {
			return tiers.Ladder{}, fmt.Errorf("step %d %q: expected <cost>:<label>", i+1, arg)
		}
		cost, err := strconv.ParseInt(costText, 10, 64)
		if err != nil {
			return tiers.Ladder{}, fmt.Errorf("step %d %q: cost is not a number", i+1, arg)
		}
		steps = append(steps, tiers.Step{Cost: cost, Label: label})
	}
	return tiers.NewLadder(steps)
}

// ParseSwitch reads on/off.
func ParseSwitch(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "on", "true", "1", "enable":
		return true, nil
	case "off", "false", "0", "disable":
		return false, nil
	}
	return false, errors.New("expected on or off")
}

// --- Crypto helpers ---

// HashPassword returns an Argon2id hash in the format verifyArgon2id reads:
// $argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	hash := argon2.IDKey([]byte(password), salt, argonIterations, argonMemory, argonParallelism, argonKeyLength)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonIterations, argonParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// verifyArgon2id checks password against an encoded Argon2id hash.
func verifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		log.Error("malformed Argon2id hash")
		return false
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		log.WithError(err).Error("failed to parse Argon2id parameters")
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("failed to decode salt")
		return false
	}
	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("failed to decode hash")
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// constant time
	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1
}

func generateSecureToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
