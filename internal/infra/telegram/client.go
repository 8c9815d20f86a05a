package telegram

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const pollTimeout = 10 * time.Second

// AdminNotifier sends plain text messages to the administrator's chat.
type AdminNotifier struct {
	bot     *telebot.Bot
	adminID int64
}

func NewAdminNotifier(b *telebot.Bot, adminID int64) *AdminNotifier {
	return &AdminNotifier{bot: b, adminID: adminID}
}

// Notify implements mail.Notifier.
func (n *AdminNotifier) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	recipient := &telebot.User{ID: n.adminID}
	_, err := n.bot.Send(recipient, text, &telebot.SendOptions{DisableWebPagePreview: true})
	return err
}

// NewBot creates the bot. Offline bots only send messages and never poll for updates.
func NewBot(token string, offline bool, logger *logrus.Entry) (*telebot.Bot, error) {
	return telebot.NewBot(telebot.Settings{
		Token:   token,
		Poller:  &telebot.LongPoller{Timeout: pollTimeout},
		Offline: offline,
		OnError: func(err error, c telebot.Context) {
			logCtx := logger.WithError(err)
			if c != nil && c.Sender() != nil {
				logCtx = logCtx.WithFields(logrus.Fields{"sender_id": c.Sender().ID, "text": c.Text()})
			}
			logCtx.Error("Telegram handler failed")
		},
	})
}
