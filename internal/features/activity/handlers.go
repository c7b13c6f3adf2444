// Package activity: handlers.go answers the activity command in group chats.
package activity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/activity-bot/internal/common"
)

const (
	msgPointsDisabled = "Activity system is not enabled for this guild."
	msgNoPoints       = "This user does not have any activity points!"
	msgFetchFailed    = "I was unable to fetch this activity card."
	msgGroupOnly      = "Activity cards are only available in group chats."
	msgCardNotice     = "Visual activity cards are currently unavailable! This will be resolved sometime in the future, thank you for your patience."
)

// Sender is the part of *telego.Bot the handler uses.
type Sender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// CardService builds cards. Satisfied by *Service.
type CardService interface {
	Card(ctx context.Context, guildID, userID string) (*ActivityReport, error)
}

// Handler renders activity cards.
type Handler struct {
	service CardService
	sender  Sender

	mu       sync.Mutex
	notified map[string]struct{} // members who already got the card notice
}

// NewHandler creates the handler.
func NewHandler(service CardService, sender Sender) *Handler {
	return &Handler{
		service:  service,
		sender:   sender,
		notified: make(map[string]struct{}),
	}
}

// HandleActivity replies with the card of the message author, or of the
// author of the replied-to message.
func (h *Handler) HandleActivity(ctx context.Context, msg *telego.Message) {
	chatID := msg.Chat.ID
	if msg.Chat.Type == telego.ChatTypePrivate {
		h.reply(ctx, msg, msgGroupOnly)
		return
	}

	target := msg.From
	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil {
		target = msg.ReplyToMessage.From
	}
	if target == nil {
		h.reply(ctx, msg, msgFetchFailed)
		return
	}
	if target.IsBot {
		return
	}

	guildID := common.GuildID(chatID)
	userID := common.UserID(target.ID)

	report, err := h.service.Card(ctx, guildID, userID)
	switch {
	case errors.Is(err, common.ErrPointsDisabled):
		h.reply(ctx, msg, msgPointsDisabled)
		return
	case errors.Is(err, common.ErrNoPoints):
		h.reply(ctx, msg, msgNoPoints)
		return
	case err != nil:
		log.WithError(err).WithFields(log.Fields{
			"guild_id": guildID,
			"user_id":  userID,
		}).Error("activity card failed")
		h.reply(ctx, msg, msgFetchFailed)
		return
	}

	h.reply(ctx, msg, FormatCard(*report))

	if h.markNotified(userID) {
		h.send(ctx, chatID, msgCardNotice)
	}
}

// ResetNotified forgets who has seen the card notice and returns how many
// members were forgotten.
func (h *Handler) ResetNotified() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := len(h.notified)
	h.notified = make(map[string]struct{})
	return n
}

// markNotified returns true the first time it sees userID.
func (h *Handler) markNotified(userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.notified[userID]; ok {
		return false
	}
	h.notified[userID] = struct{}{}
	return true
}

// FormatCard renders the text card.
func FormatCard(r ActivityReport) string {
	title := r.TierLabel
	if title == "" {
		title = "None"
	}

	rankText := "Unranked"
	if r.Ranked {
		rankText = common.FormatNumber(int64(r.Rank))
	}

	next := "MAX"
	if !r.MaxTier {
		next = fmt.Sprintf("%s/%s", common.FormatNumber(r.CurrentProgress), common.FormatNumber(r.NextRequired))
	}

	return fmt.Sprintf("Title: %s\nRank: %s\n\nTotal Points: %s\nNext Progress: %s",
		title, rankText, common.FormatNumber(r.TotalPoints), next)
}

func (h *Handler) reply(ctx context.Context, to *telego.Message, text string) {
	params := tu.Message(tu.ID(to.Chat.ID), text).
		WithReplyParameters(&telego.ReplyParameters{MessageID: to.MessageID, AllowSendingWithoutReply: true})
	if _, err := h.sender.SendMessage(ctx, params); err != nil {
		log.WithError(err).WithField("chat_id", to.Chat.ID).Error("failed to send message")
	}
}

func (h *Handler) send(ctx context.Context, chatID int64, text string) {
	if _, err := h.sender.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to send message")
	}
}
