package state

import (
	"context"
	"errors"
	"strings"

	"git.home.luguber.info/inful/releasebot/internal/chat"
	"git.home.luguber.info/inful/releasebot/internal/foundation"
	ferrors "git.home.luguber.info/inful/releasebot/internal/foundation/errors"
	"git.home.luguber.info/inful/releasebot/internal/manifest"
)

// Default record keys, matching the file names used by earlier deployments.
const (
	DefaultFingerprintKey = "last_hash.txt"
	DefaultPinKey         = "last_pin.txt"
)

// ErrCorruptPinRecord is returned by PinStore.Load when the stored value is
// not a message id.
var ErrCorruptPinRecord = errors.New("pin record is not a message id")

func stateError(err error, op, key string) error {
	return ferrors.StateError(op).
		WithCause(err).
		WithContext("record", key).
		Build()
}

// FingerprintStore persists the last seen manifest fingerprint.
type FingerprintStore struct {
	store Store
	key   string
}

// NewFingerprintStore stores the fingerprint under key (DefaultFingerprintKey when empty).
func NewFingerprintStore(s Store, key string) *FingerprintStore {
	if key == "" {
		key = DefaultFingerprintKey
	}
	return &FingerprintStore{store: s, key: key}
}

// Key returns the record key.
func (f *FingerprintStore) Key() string { return f.key }

// Load returns None on the first run.
func (f *FingerprintStore) Load(ctx context.Context) (foundation.Option[manifest.Fingerprint], error) {
	v, err := f.store.Get(ctx, f.key)
	if err != nil {
		return foundation.None[manifest.Fingerprint](), stateError(err, "load fingerprint", f.key)
	}
	return foundation.MapOption(v, func(s string) manifest.Fingerprint {
		return manifest.Fingerprint(strings.TrimSpace(s))
	}), nil
}

// Save overwrites the stored fingerprint.
func (f *FingerprintStore) Save(ctx context.Context, fp manifest.Fingerprint) error {
	if err := f.store.Put(ctx, f.key, string(fp)); err != nil {
		return stateError(err, "save fingerprint", f.key)
	}
	return nil
}

// Clear removes the fingerprint so the next run starts as a first run.
func (f *FingerprintStore) Clear(ctx context.Context) error {
	if err := f.store.Delete(ctx, f.key); err != nil {
		return stateError(err, "clear fingerprint", f.key)
	}
	return nil
}

// PinStore persists the id of the currently pinned announcement.
type PinStore struct {
	store Store
	key   string
}

// NewPinStore stores the pin record under key (DefaultPinKey when empty).
func NewPinStore(s Store, key string) *PinStore {
	if key == "" {
		key = DefaultPinKey
	}
	return &PinStore{store: s, key: key}
}

// Key returns the record key.
func (p *PinStore) Key() string { return p.key }

// Load returns None when nothing is pinned. A value that does not parse
// yields ErrCorruptPinRecord.
func (p *PinStore) Load(ctx context.Context) (foundation.Option[chat.MessageID], error) {
	v, err := p.store.Get(ctx, p.key)
	if err != nil {
		return foundation.None[chat.MessageID](), stateError(err, "load pin record", p.key)
	}
	raw, ok := v.Get()
	if !ok {
		return foundation.None[chat.MessageID](), nil
	}
	id, err := chat.ParseMessageID(strings.TrimSpace(raw))
	if err != nil {
		return foundation.None[chat.MessageID](), ErrCorruptPinRecord
	}
	return foundation.Some(id), nil
}

// Save records id as the pinned announcement.
func (p *PinStore) Save(ctx context.Context, id chat.MessageID) error {
	if err := p.store.Put(ctx, p.key, id.String()); err != nil {
		return stateError(err, "save pin record", p.key)
	}
	return nil
}

// Clear removes the pin record. It is a no-op when none exists.
func (p *PinStore) Clear(ctx context.Context) error {
	if err := p.store.Delete(ctx, p.key); err != nil {
		return stateError(err, "clear pin record", p.key)
	}
	return nil
}
