// Package telegram delivers bet notifications through the Telegram Bot API.
// Delivery is best effort with bounded retries; callers treat a failed send
// as a logged warning, never as a settlement failure.
package telegram

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	maxRetries     = 3
	retryDelayBase = time.Second
)

// Notifier sends user and operator messages. It satisfies services.Notifier.
type Notifier struct {
	bot            *tgbotapi.BotAPI
	operatorChatID int64
	log            *zap.SugaredLogger
}

func NewNotifier(botToken string, operatorChatID int64, log *zap.SugaredLogger) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	log.Infow("telegram bot authorized", "username", bot.Self.UserName)

	return &Notifier{
		bot:            bot,
		operatorChatID: operatorChatID,
		log:            log,
	}, nil
}

// Notify sends a message to a chat, retrying transient failures.
func (n *Notifier) Notify(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if _, err := n.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(retryDelayBase * time.Duration(i+1))
	}

	return fmt.Errorf("failed to send message after %d retries: %w", maxRetries, lastErr)
}

// NotifyOperator reports a fault to the operator channel. With no channel
// configured the fault is only logged.
func (n *Notifier) NotifyOperator(text string) error {
	if n.operatorChatID == 0 {
		n.log.Warnw("operator alert with no operator chat configured", "text", text)
		return nil
	}
	return n.Notify(n.operatorChatID, text)
}

// LogNotifier writes notifications to the log instead of Telegram. Used when
// no bot token is configured, typically in local development.
type LogNotifier struct {
	log *zap.SugaredLogger
}

func NewLogNotifier(log *zap.SugaredLogger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(chatID int64, text string) error {
	n.log.Infow("notification", "chat_id", chatID, "text", text)
	return nil
}

func (n *LogNotifier) NotifyOperator(text string) error {
	n.log.Warnw("operator alert", "text", text)
	return nil
}
