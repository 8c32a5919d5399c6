// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"fmt"

	"gopkg.in/telebot.v3"

	domainTelegram "ecommify/internal/domain/telegram"
)

// sender is the part of *telebot.Bot the adapter needs.
type sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// TelebotAdapter implements the domain Client interface on top of a telebot bot.
type TelebotAdapter struct {
	bot sender
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendText sends a text message to an operator's private chat.
func (tba *TelebotAdapter) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opts := &telebot.SendOptions{DisableWebPagePreview: true}
	if _, err := tba.bot.Send(&telebot.Chat{ID: chatID}, text, opts); err != nil {
		return fmt.Errorf("send to chat %d: %w", chatID, err)
	}
	return nil
}

var _ domainTelegram.Client = (*TelebotAdapter)(nil)
