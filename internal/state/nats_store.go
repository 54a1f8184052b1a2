package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/releasebot/internal/foundation"
)

// NATSConfig configures a NATSStore.
type NATSConfig struct {
	URL       string
	Bucket    string
	Namespace string
}

// NATSStore implements Store on a JetStream key/value bucket.
type NATSStore struct {
	conn      *nats.Conn
	kv        jetstream.KeyValue
	namespace string
}

// NewNATSStore connects to NATS and opens the bucket, creating it when it
// does not exist yet.
func NewNATSStore(ctx context.Context, cfg NATSConfig) (*NATSStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("nats bucket is required")
	}
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}

	conn, err := nats.Connect(url, nats.Name("releasebot"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	kv, err := js.KeyValue(ctx, cfg.Bucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      cfg.Bucket,
			Description: "releasebot run state",
			History:     1,
		})
		if err == nil {
			slog.Info("Created KV bucket for release state", "bucket", cfg.Bucket)
		}
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open KV bucket %s: %w", cfg.Bucket, err)
	}

	return &NATSStore{conn: conn, kv: kv, namespace: cfg.Namespace}, nil
}

// natsKey maps a namespaced record key onto the NATS key alphabet
// ([-/_=.a-zA-Z0-9], no leading or trailing dot).
func natsKey(namespace, key string) string {
	full := key
	if namespace != "" {
		full = namespace + "." + key
	}
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '/', r == '_', r == '=', r == '.':
			return r
		default:
			return '_'
		}
	}, full)
	return strings.Trim(mapped, ".")
}

func (s *NATSStore) Get(ctx context.Context, key string) (foundation.Option[string], error) {
	entry, err := s.kv.Get(ctx, natsKey(s.namespace, key))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return foundation.None[string](), nil
	}
	if err != nil {
		return foundation.None[string](), fmt.Errorf("get %s: %w", key, err)
	}
	return foundation.Some(string(entry.Value())), nil
}

func (s *NATSStore) Put(ctx context.Context, key, value string) error {
	if _, err := s.kv.Put(ctx, natsKey(s.namespace, key), []byte(value)); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *NATSStore) Delete(ctx context.Context, key string) error {
	err := s.kv.Delete(ctx, natsKey(s.namespace, key))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close drains and closes the NATS connection.
func (s *NATSStore) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Drain()
}
