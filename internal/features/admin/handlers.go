// Package admin: handlers.go answers admin commands sent in a private chat.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/activity-bot/internal/common"
	"serotonyl.ru/activity-bot/internal/features/tiers"
)

const (
	usageLogin        = "Usage: /login <password>"
	usageLadder       = "Usage: /ladder <guild_id> <cost>:<label> ...\nExample: /ladder -1001234567890 100:Bronze 150:Silver"
	usagePointsSystem = "Usage: /points_system <guild_id> on|off"
	usageHistory      = "Usage: /history <guild_id>"
)

// Sender is the part of *telego.Bot the handler uses.
type Sender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// Handler handles admin commands.
type Handler struct {
	service *Service
	sender  Sender
}

// NewHandler creates the admin handler.
func NewHandler(service *Service, sender Sender) *Handler {
	return &Handler{service: service, sender: sender}
}

// HandleCommand runs an admin command from a private chat. It returns false
// when cmd is not an admin command or userID is not an admin, so the caller
// can treat the message as ordinary.
func (h *Handler) HandleCommand(ctx context.Context, chatID, userID int64, cmd string, args []string) bool {
	if !h.service.IsAdmin(userID) {
		return false
	}

	switch cmd {
	case "login":
		h.handleLogin(ctx, chatID, userID, args)
	case "logout":
		if err := h.service.Logout(ctx, userID); err != nil {
			h.replyError(ctx, chatID, err)
			return true
		}
		h.sendMessage(ctx, chatID, "Logged out.")
	case "ladder":
		h.handleLadder(ctx, chatID, userID, args)
	case "points_system":
		h.handlePointsSystem(ctx, chatID, userID, args)
	case "history":
		h.handleHistory(ctx, chatID, userID, args)
	default:
		return false
	}
	return true
}

func (h *Handler) handleLogin(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) != 1 {
		h.sendMessage(ctx, chatID, usageLogin)
		return
	}
	if err := h.service.Login(ctx, userID, args[0]); err != nil {
		h.replyError(ctx, chatID, err)
		return
	}
	h.sendMessage(ctx, chatID, "Authenticated. The session is valid for 24 hours.")
}

func (h *Handler) handleLadder(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 1 {
		h.sendMessage(ctx, chatID, usageLadder)
		return
	}
	guildID, err := ParseGuildID(args[0])
	if err != nil {
		h.sendMessage(ctx, chatID, err.Error()+"\n"+usageLadder)
		return
	}
	ladder, err := ParseLadder(args[1:])
	if err != nil {
		if errors.Is(err, common.ErrInvalidLadder) {
			h.replyError(ctx, chatID, err)
		} else {
			h.sendMessage(ctx, chatID, err.Error()+"\n"+usageLadder)
		}
		return
	}
	if err := h.service.SetLadder(ctx, userID, guildID, ladder); err != nil {
		h.replyError(ctx, chatID, err)
		return
	}

	shown := ladder.String()
	if shown == "" {
		shown = "(empty)"
	}
	h.sendMessage(ctx, chatID, fmt.Sprintf("Ladder for %s saved: %s", guildID, shown))
}

func (h *Handler) handlePointsSystem(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) != 2 {
		h.sendMessage(ctx, chatID, usagePointsSystem)
		return
	}
	guildID, err := ParseGuildID(args[0])
	if err != nil {
		h.sendMessage(ctx, chatID, err.Error()+"\n"+usagePointsSystem)
		return
	}
	enabled, err := ParseSwitch(args[1])
	if err != nil {
		h.sendMessage(ctx, chatID, usagePointsSystem)
		return
	}
	if err := h.service.SetPointsSystem(ctx, userID, guildID, enabled); err != nil {
		h.replyError(ctx, chatID, err)
		return
	}

	state := "off"
	if enabled {
		state = "on"
	}
	h.sendMessage(ctx, chatID, fmt.Sprintf("Activity system for %s is now %s.", guildID, state))
}

func (h *Handler) handleHistory(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) != 1 {
		h.sendMessage(ctx, chatID, usageHistory)
		return
	}
	guildID, err := ParseGuildID(args[0])
	if err != nil {
		h.sendMessage(ctx, chatID, err.Error()+"\n"+usageHistory)
		return
	}
	changes, err := h.service.History(ctx, userID, guildID)
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}
	h.sendMessage(ctx, chatID, FormatHistory(guildID, changes))
}

// FormatHistory renders the audit trail, one edit per line.
func FormatHistory(guildID string, changes []SettingsChange) string {
	if len(changes) == 0 {
		return fmt.Sprintf("No settings changes recorded for %s.", guildID)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Recent changes for %s:", guildID)
	for _, c := range changes {
		value := c.Value
		if value == "" {
			value = "(empty)"
		}
		fmt.Fprintf(&b, "\n%s %s = %s (by %d)", c.ChangedAt.UTC().Format("2006-01-02 15:04"), c.Field, value, c.AdminID)
	}
	return b.String()
}

// replyError maps known errors to readable text.
func (h *Handler) replyError(ctx context.Context, chatID int64, err error) {
	var invalid *tiers.InvalidLadderError

	switch {
	case errors.As(err, &invalid):
		h.sendMessage(ctx, chatID, "Invalid ladder: "+invalid.Error())
	case errors.Is(err, common.ErrWrongPassword),
		errors.Is(err, common.ErrTooManyAttempts),
		errors.Is(err, common.ErrNotAdmin):
		h.sendMessage(ctx, chatID, "❌ "+err.Error())
	case errors.Is(err, common.ErrSessionExpired):
		h.sendMessage(ctx, chatID, "🔐 Log in first. "+usageLogin)
	default:
		log.WithError(err).WithField("chat_id", chatID).Error("admin command failed")
		h.sendMessage(ctx, chatID, "❌ Command failed, see the bot logs.")
	}
}

func (h *Handler) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := h.sender.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to send message")
	}
}
