package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyOutcome    = "outcome"
	KeyStep       = "step"
	KeyVersion    = "version"
	KeyMessageID  = "message_id"
	KeyChatID     = "chat_id"
	KeyBackend    = "backend"
	KeyRecord     = "record"
	KeyURL        = "url"
	KeyDurationMS = "duration_ms"
	KeySchedule   = "schedule"
	KeyPath       = "path"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr        { return slog.String(KeyRunID, id) }
func Outcome(o string) slog.Attr       { return slog.String(KeyOutcome, o) }
func Step(name string) slog.Attr       { return slog.String(KeyStep, name) }
func Version(v string) slog.Attr       { return slog.String(KeyVersion, v) }
func MessageID(id int64) slog.Attr     { return slog.Int64(KeyMessageID, id) }
func ChatID(id string) slog.Attr       { return slog.String(KeyChatID, id) }
func Backend(name string) slog.Attr    { return slog.String(KeyBackend, name) }
func Record(key string) slog.Attr      { return slog.String(KeyRecord, key) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Schedule(s string) slog.Attr      { return slog.String(KeySchedule, s) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
