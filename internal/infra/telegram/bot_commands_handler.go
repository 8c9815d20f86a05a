package telegram

import (
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func RegisterBotCommands(b *telebot.Bot, adminTelegramID int64, baseLogger *logrus.Entry) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", senderID)
		logCtx.Info("Processing /start command")

		if senderID == adminTelegramID {
			logCtx.Info("User identified as Admin")
			return c.Send("Hello " + c.Sender().FirstName + "! Enquiry alerts will be posted here. Use /help for the list of commands.")
		}

		logCtx.Info("User is unknown")
		return c.Send("This bot only serves the qualification reminder administrator.")
	})

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/help").WithField("sender_id", senderID)
		logCtx.Info("Processing /help command")

		if senderID != adminTelegramID {
			logCtx.Info("User is unknown, sending restricted help.")
			return c.Send("No commands are available to you.")
		}
		return c.Send(adminHelp(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})
}

func adminHelp() string {
	var helpText strings.Builder
	helpText.WriteString("Administrator commands:\n\n")
	helpText.WriteString("`/fetch`\n - Enquire every staff member on the portal and send the enquiry report.\n\n")
	helpText.WriteString("`/report`\n - Rebuild the qualification and training reports.\n\n")
	helpText.WriteString("`/remind`\n - Rebuild the qualification report and send today's reminders.\n\n")
	helpText.WriteString("`/history [enquiry|daily|quarterly] [limit]`\n - Show recent routine runs.\n\n")
	helpText.WriteString("`/help`\n - Show this message.")
	return helpText.String()
}
