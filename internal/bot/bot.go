// Package bot receives Telegram updates and routes commands to the feature
// handlers. bot.go owns the polling loop and the routing table.
package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/activity-bot/internal/bot/middleware"
	"serotonyl.ru/activity-bot/internal/config"
	"serotonyl.ru/activity-bot/internal/features/activity"
	"serotonyl.ru/activity-bot/internal/features/admin"
)

const helpText = `Commands:
/activity - your activity card (reply to a message to see its author's card)
/help - this message

Admins, in a private chat:
/login <password>
/ladder <guild_id> <cost>:<label> ...
/points_system <guild_id> on|off
/history <guild_id>
/logout`

// Sender sends text messages. Satisfied by *telego.Bot.
type Sender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// CommandCounter counts handled commands. Satisfied by *metrics.Metrics.
type CommandCounter interface {
	CommandHandled(command string)
}

// Bot ties the Telegram API to the handlers.
type Bot struct {
	api    *telego.Bot
	sender Sender
	cfg    *config.Config

	rateLimiter *middleware.RateLimiter

	activityHandler *activity.Handler
	adminHandler    *admin.Handler
	commands        CommandCounter

	parser *CommandParser

	// bounds concurrent update handling
	inflight chan struct{}
}

// New creates the bot.
func New(
	api *telego.Bot,
	cfg *config.Config,
	activityHandler *activity.Handler,
	adminHandler *admin.Handler,
	commands CommandCounter,
) *Bot {
	b := newBot(api, cfg, activityHandler, adminHandler, commands)
	b.api = api
	return b
}

func newBot(sender Sender, cfg *config.Config, activityHandler *activity.Handler, adminHandler *admin.Handler, commands CommandCounter) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		sender:          sender,
		cfg:             cfg,
		rateLimiter:     middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		activityHandler: activityHandler,
		adminHandler:    adminHandler,
		commands:        commands,
		parser:          NewCommandParser(),
		inflight:        make(chan struct{}, maxInFlight),
	}
}

// Start long-polls updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updates, err := b.api.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout:        b.cfg.BotUpdateTimeoutSeconds,
		AllowedUpdates: []string{"message"},
	})
	if err != nil {
		return fmt.Errorf("failed to start long polling: %w", err)
	}

	log.WithFields(log.Fields{
		"max_inflight": cap(b.inflight),
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("bot started, waiting for updates")

	for {
		select {
		case <-ctx.Done():
			log.Info("bot stopping (ctx done)")
			return nil

		case update, ok := <-updates:
			if !ok {
				log.Info("updates channel closed, bot stopped")
				return nil
			}

			b.inflight <- struct{}{}
			go func(upd telego.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate processes one update.
func (b *Bot) handleUpdate(ctx context.Context, update telego.Update) {
	defer middleware.RecoverFromPanic()

	message := update.Message
	if message == nil || message.Text == "" || message.From == nil || message.From.IsBot {
		return
	}

	middleware.LogMessage(message)

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	if !isCommand {
		return
	}

	if !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	log.WithFields(log.Fields{
		"cmd":     cmd,
		"args":    len(args),
		"chat_id": message.Chat.ID,
	}).Debug("parsed command")

	b.routeCommand(ctx, message, cmd, args)
}

// routeCommand dispatches a parsed command.
func (b *Bot) routeCommand(ctx context.Context, message *telego.Message, cmd string, args []string) {
	chatID := message.Chat.ID
	userID := message.From.ID

	// Admin commands carry passwords and are only accepted in private chats.
	if message.Chat.Type == telego.ChatTypePrivate && b.adminHandler != nil {
		if b.adminHandler.HandleCommand(ctx, chatID, userID, cmd, args) {
			b.count(cmd)
			return
		}
	}

	switch cmd {
	case "start", "help":
		b.count("help")
		b.sendMessage(ctx, chatID, helpText)

	case "activity", "card", "rank":
		b.count("activity")
		b.activityHandler.HandleActivity(ctx, message)
	}
}

func (b *Bot) count(cmd string) {
	if b.commands != nil {
		b.commands.CommandHandled(cmd)
	}
}

// sendMessage is a helper for plain replies.
func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := b.sender.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to send message")
	}
}

// CommandParser parses commands with the "!", "." and "/" prefixes.
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser creates the parser.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"!", ".", "/"},
	}
}

// ParseCommand splits text into a lower-case command and its arguments.
// A "@botname" suffix on the command is dropped.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}

	if !hasPrefix {
		return "", nil, false
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return "", nil, false
	}

	command, _, _ := strings.Cut(strings.ToLower(parts[0]), "@")
	if command == "" {
		return "", nil, false
	}

	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}

	return command, args, true
}
