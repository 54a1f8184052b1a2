package chat

import (
	"context"
	"log/slog"
	"sync/atomic"

	"git.home.luguber.info/inful/releasebot/internal/logfields"
)

// LogTransport is a Transport that only logs what it would do. It backs
// dry runs and returns increasing fake message ids.
type LogTransport struct {
	logger *slog.Logger
	nextID atomic.Int64
}

// NewLogTransport creates a dry-run transport. A nil logger uses slog.Default.
func NewLogTransport(logger *slog.Logger) *LogTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Send(_ context.Context, msg Message) (MessageID, error) {
	id := MessageID(t.nextID.Add(1))
	t.logger.Info("Dry run: would send message",
		logfields.ChatID(msg.ChatID),
		logfields.MessageID(int64(id)),
		slog.String("parse_mode", string(msg.ParseMode)),
		slog.Bool("silent", msg.Silent),
		slog.String("text", msg.Text))
	return id, nil
}

func (t *LogTransport) Pin(_ context.Context, chatID string, id MessageID, silent bool) error {
	t.logger.Info("Dry run: would pin message",
		logfields.ChatID(chatID), logfields.MessageID(int64(id)), slog.Bool("silent", silent))
	return nil
}

func (t *LogTransport) Unpin(_ context.Context, chatID string, id MessageID) error {
	t.logger.Info("Dry run: would unpin message",
		logfields.ChatID(chatID), logfields.MessageID(int64(id)))
	return nil
}
