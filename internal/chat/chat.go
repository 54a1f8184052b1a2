// Package chat defines the messaging capability the release watcher needs:
// send a message, pin it, and unpin a previously pinned one.
package chat

import (
	"context"
	"strconv"
)

// MessageID identifies a message inside a chat.
type MessageID int64

func (id MessageID) String() string { return strconv.FormatInt(int64(id), 10) }

// ParseMessageID parses the decimal form produced by MessageID.String.
func ParseMessageID(s string) (MessageID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return MessageID(n), nil
}

// ParseMode selects the rich-text dialect of a message body.
type ParseMode string

const (
	ParseModeMarkdownV2 ParseMode = "MarkdownV2"
	ParseModeHTML       ParseMode = "HTML"
)

// Message is an outgoing chat message.
type Message struct {
	ChatID    string
	Text      string
	ParseMode ParseMode
	// Silent delivers the message without a notification sound.
	Silent bool
}

// Transport sends, pins and unpins chat messages.
type Transport interface {
	Send(ctx context.Context, msg Message) (MessageID, error)
	Pin(ctx context.Context, chatID string, id MessageID, silent bool) error
	Unpin(ctx context.Context, chatID string, id MessageID) error
}
