// Package middleware holds the helpers every update passes through:
// logging, panic recovery and per-user rate limiting.
package middleware

import (
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

const maxLoggedText = 50

// LogMessage logs an incoming message at debug level with the first
// characters of its text.
func LogMessage(message *telego.Message) {
	if message == nil {
		return
	}

	text := []rune(message.Text)
	shown := string(text)
	if len(text) > maxLoggedText {
		shown = string(text[:maxLoggedText]) + "..."
	}

	fields := log.Fields{
		"chat_id":   message.Chat.ID,
		"chat_type": message.Chat.Type,
		"text":      shown,
	}
	if message.From != nil {
		fields["user_id"] = message.From.ID
		fields["username"] = message.From.Username
	}
	log.WithFields(fields).Debug("incoming message")
}
