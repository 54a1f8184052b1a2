package commands

import (
	"context"
	"errors"
	"log/slog"

	"git.home.luguber.info/inful/releasebot/internal/announce"
	"git.home.luguber.info/inful/releasebot/internal/chat"
	"git.home.luguber.info/inful/releasebot/internal/config"
	ferrors "git.home.luguber.info/inful/releasebot/internal/foundation/errors"
	"git.home.luguber.info/inful/releasebot/internal/logfields"
	"git.home.luguber.info/inful/releasebot/internal/manifest"
	"git.home.luguber.info/inful/releasebot/internal/metrics"
	"git.home.luguber.info/inful/releasebot/internal/release"
	"git.home.luguber.info/inful/releasebot/internal/state"
	"git.home.luguber.info/inful/releasebot/internal/telegram"
	"git.home.luguber.info/inful/releasebot/internal/watcher"
)

// runner is a watcher together with the store it owns.
type runner struct {
	*watcher.Watcher
	store state.Store
}

func (r *runner) Close() error { return r.store.Close() }

// runnerOptions tweak newRunner for dry runs and tests.
type runnerOptions struct {
	recorder metrics.Recorder
	dryRun   bool
	// transport replaces the Telegram client when set.
	transport chat.Transport
}

func stateOptions(cfg *config.Config) state.Options {
	return state.Options{
		Backend:    cfg.State.Backend,
		Dir:        cfg.State.Dir,
		Namespace:  cfg.State.Namespace,
		SQLitePath: cfg.State.SQLitePath,
		NATSURL:    cfg.State.NATSURL,
		NATSBucket: cfg.State.NATSBucket,
	}
}

func openStore(ctx context.Context, cfg *config.Config) (state.Store, error) {
	store, err := state.Open(ctx, stateOptions(cfg))
	if err != nil {
		return nil, ferrors.StateError("failed to open state store").
			WithCause(err).
			WithContext("backend", string(cfg.State.Backend)).
			Build()
	}
	slog.Debug("Opened state store", logfields.Backend(string(cfg.State.Backend)))
	return store, nil
}

// snapshotStore copies both records of src into a MemoryStore so a dry run
// starts from real state without writing to it.
func snapshotStore(ctx context.Context, cfg *config.Config, src state.Store) (*state.MemoryStore, error) {
	records := map[string]string{}
	for _, key := range []string{cfg.State.FingerprintKey, cfg.State.PinKey} {
		v, err := src.Get(ctx, key)
		if err != nil {
			return nil, ferrors.StateError("failed to read state").WithCause(err).WithContext("record", key).Build()
		}
		if value, ok := v.Get(); ok {
			records[key] = value
		}
	}
	return state.NewMemoryStoreFrom(records), nil
}

func newTelegramClient(cfg *config.Config) (*telegram.Client, error) {
	client, err := telegram.NewClient(telegram.Config{
		BaseURL:  cfg.Telegram.APIURL,
		Token:    cfg.Telegram.Token,
		ProxyURL: cfg.Telegram.ProxyURL,
		Timeout:  cfg.Telegram.Timeout,
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid telegram configuration").Build()
	}
	return client, nil
}

func newFetcher(cfg *config.Config) (*manifest.Fetcher, error) {
	fetcher, err := manifest.NewFetcher(manifest.FetcherConfig{
		URL:       cfg.Manifest.URL,
		Timeout:   cfg.Manifest.Timeout,
		MaxBytes:  cfg.Manifest.MaxBytes,
		UserAgent: cfg.Manifest.UserAgent,
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid manifest configuration").Build()
	}
	return fetcher, nil
}

func newComposer(cfg *config.Config) (*announce.Composer, error) {
	composer, err := announce.NewComposer(announce.Options{
		ProductName: cfg.Announcement.ProductName,
		ReleaseURL:  cfg.Announcement.ReleaseURL,
		Language:    cfg.Announcement.Language,
		ParseMode:   cfg.Announcement.ParseMode,
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid announcement configuration").Build()
	}
	return composer, nil
}

// newRunner wires a watcher from cfg. The caller closes the runner.
func newRunner(ctx context.Context, cfg *config.Config, opts runnerOptions) (*runner, error) {
	fetcher, err := newFetcher(cfg)
	if err != nil {
		return nil, err
	}
	composer, err := newComposer(cfg)
	if err != nil {
		return nil, err
	}

	transport := opts.transport
	if transport == nil {
		if opts.dryRun {
			transport = chat.NewLogTransport(slog.Default())
		} else {
			client, err := newTelegramClient(cfg)
			if err != nil {
				return nil, err
			}
			transport = client
		}
	}

	var store state.Store
	store, err = openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if opts.dryRun {
		snapshot, err := snapshotStore(ctx, cfg, store)
		closeErr := store.Close()
		if err != nil {
			return nil, err
		}
		if closeErr != nil {
			slog.Warn("Failed to close state store", logfields.Error(closeErr))
		}
		store = snapshot
	}

	chatID := cfg.Telegram.ChatID
	if chatID == "" && opts.dryRun {
		chatID = "dry-run"
	}

	w, err := watcher.New(watcher.Config{
		ChatID:          chatID,
		Silent:          cfg.Announcement.IsSilent(),
		FingerprintMode: cfg.Manifest.Fingerprint,
		UnpinPolicy:     cfg.Announcement.UnpinPolicy,
	}, watcher.Deps{
		Fetcher:      fetcher,
		Transport:    transport,
		Extractor:    release.NewExtractor(cfg.Manifest.Product),
		Composer:     composer,
		Fingerprints: state.NewFingerprintStore(store, cfg.State.FingerprintKey),
		Pins:         state.NewPinStore(store, cfg.State.PinKey),
		Recorder:     opts.recorder,
		Logger:       slog.Default(),
	})
	if err != nil {
		return nil, errors.Join(err, store.Close())
	}
	return &runner{Watcher: w, store: store}, nil
}
