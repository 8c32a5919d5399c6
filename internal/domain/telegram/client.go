// internal/domain/telegram/client.go
package telegram

import "context"

// Client delivers plain-text messages to operator chats.
// Nothing is sent once ctx is done.
type Client interface {
	SendText(ctx context.Context, chatID int64, text string) error
}
