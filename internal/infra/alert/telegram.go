// Package alert pushes operational failure alerts to a Telegram chat.
package alert

import (
	"fmt"
	"time"

	"gopkg.in/telebot.v3"
)

// Notifier receives one message per dispatch or delivery failure.
type Notifier interface {
	Alert(message string)
}

// Nop is used when no alert channel is configured.
type Nop struct{}

func (Nop) Alert(string) {}

// TelegramNotifier sends alerts to a fixed ops chat. Send failures are
// swallowed: alerting must never fail the operation being reported on.
type TelegramNotifier struct {
	bot    *telebot.Bot
	chatID int64
}

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := telebot.NewBot(telebot.Settings{Token: token})
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram alert bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (n *TelegramNotifier) Alert(message string) {
	text := fmt.Sprintf("[congratulator] %s (%s)", message, time.Now().UTC().Format(time.RFC3339))
	_, _ = n.bot.Send(&telebot.Chat{ID: n.chatID}, text)
}
