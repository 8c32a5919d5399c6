// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"ecommify/internal/infra/config"
)

var botCommands = []telebot.Command{
	{Text: "pipeline", Description: "Zamowienia w realizacji [RRRR-MM]"},
	{Text: "push", Description: "Dodaj zamowienie do realizacji"},
	{Text: "pipeline_note", Description: "Notatka do miesiaca realizacji"},
	{Text: "bulk_remind", Description: "Wyslij przypomnienia za miesiac"},
	{Text: "reminder_check", Description: "Co jest do zrobienia"},
	{Text: "calendar", Description: "Kalendarz miesiaca [RRRR-MM]"},
	{Text: "today", Description: "Dzisiejsze przypomnienia"},
	{Text: "overdue", Description: "Zalegle przypomnienia"},
	{Text: "remind", Description: "Dodaj przypomnienie"},
	{Text: "note", Description: "Dodaj notatke"},
	{Text: "help", Description: "Pomoc"},
}

func helpText() string {
	var b strings.Builder
	b.WriteString("Dostepne komendy:\n\n")
	b.WriteString("/pipeline [RRRR-MM] - zamowienia w realizacji z przyciskami akcji\n")
	b.WriteString("/push <id zamowienia> [doplata] [notatki] - dodaj zamowienie do realizacji\n")
	b.WriteString("/remove <id rekordu> - usun rekord z realizacji\n")
	b.WriteString("/bulk_remind [RRRR-MM] - oznacz przypomnienia jako wyslane dla calego miesiaca\n")
	b.WriteString("/pipeline_note [RRRR-MM] tresc - notatka do miesiaca realizacji\n")
	b.WriteString("/reminder_check - podsumowanie zadan\n\n")
	b.WriteString("/calendar [RRRR-MM] - dni z wpisami\n")
	b.WriteString("/today, /day RRRR-MM-DD - przypomnienia i notatki dnia\n")
	b.WriteString("/overdue - zalegle przypomnienia\n")
	b.WriteString("/remind RRRR-MM-DD [GG:MM] [daily|weekly|monthly] tytul\n")
	b.WriteString("/note [RRRR-MM-DD] tresc\n")
	return b.String()
}

// RegisterBotCommands registers /start and /help and publishes the command menu.
func RegisterBotCommands(b *telebot.Bot, cfg *config.AppConfig, baseLogger *logrus.Entry) error {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithFields(logrus.Fields{"command": "/start", "sender_id": senderID})
		logCtx.Info("Processing /start command")

		if cfg.IsOperator(senderID) {
			return c.Send(fmt.Sprintf("Czesc, %s! Uzyj /help, aby zobaczyc liste komend.", c.Sender().FirstName))
		}
		logCtx.Info("User is not an operator")
		return c.Send(fmt.Sprintf("Ten bot jest prywatny. Twoje ID Telegram: %d", senderID))
	})

	b.Handle("/help", func(c telebot.Context) error {
		startHelpLogger.WithFields(logrus.Fields{"command": "/help", "sender_id": c.Sender().ID}).Info("Processing /help command")
		return c.Send(helpText())
	}, OperatorsOnly(cfg.IsOperator, baseLogger))

	if err := b.SetCommands(botCommands); err != nil {
		return fmt.Errorf("failed to publish bot commands: %w", err)
	}
	return nil
}
