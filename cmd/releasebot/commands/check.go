package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/releasebot/internal/config"
	ferrors "git.home.luguber.info/inful/releasebot/internal/foundation/errors"
	"git.home.luguber.info/inful/releasebot/internal/manifest"
	"git.home.luguber.info/inful/releasebot/internal/release"
	"git.home.luguber.info/inful/releasebot/internal/state"
)

// CheckCmd implements the 'check' command. It never writes state or sends messages.
type CheckCmd struct {
	SkipTelegram bool `name:"skip-telegram" help:"Do not call getMe"`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !c.SkipTelegram {
		if err := cfg.ValidateForRun(); err != nil {
			return err
		}
		client, err := newTelegramClient(cfg)
		if err != nil {
			return err
		}
		me, err := client.GetMe(ctx)
		if err != nil {
			return ferrors.TransportError("telegram getMe failed").WithCause(err).Build()
		}
		_, _ = fmt.Fprintf(g.out(), "bot: @%s (id %d)\n", me.Username, me.ID)
	}

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	m, err := fetcher.Fetch(ctx)
	if err != nil {
		return ferrors.FetchError("failed to fetch manifest").WithCause(err).WithContext("url", fetcher.URL()).Build()
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	return describe(ctx, g, cfg, m, store)
}

func describe(ctx context.Context, g *Global, cfg *config.Config, m manifest.Manifest, store state.Store) error {
	out := g.out()
	version, found := release.NewExtractor(cfg.Manifest.Product).Extract(m.Body).Get()
	if found {
		_, _ = fmt.Fprintf(out, "manifest: %s, latest %s %s\n", cfg.Manifest.URL, cfg.Manifest.Product, version)
	} else {
		_, _ = fmt.Fprintf(out, "manifest: %s, no %s version found\n", cfg.Manifest.URL, cfg.Manifest.Product)
	}

	fp, err := m.Fingerprint(cfg.Manifest.Fingerprint)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid fingerprint mode").Build()
	}
	stored, err := state.NewFingerprintStore(store, cfg.State.FingerprintKey).Load(ctx)
	if err != nil {
		return err
	}
	pin, err := state.NewPinStore(store, cfg.State.PinKey).Load(ctx)
	corruptPin := errors.Is(err, state.ErrCorruptPinRecord)
	if err != nil && !corruptPin {
		return err
	}

	var next string
	previous, ok := stored.Get()
	switch {
	case !ok:
		next = "first run: would save the baseline fingerprint without announcing"
	case previous == fp:
		next = "no change"
	case found:
		next = fmt.Sprintf("would announce version %s", version)
	default:
		next = "manifest changed but no version found: would save the fingerprint without announcing"
	}
	_, _ = fmt.Fprintf(out, "next run: %s\n", next)
	if id, ok := pin.Get(); ok {
		_, _ = fmt.Fprintf(out, "pinned announcement: %s\n", id)
	}
	if corruptPin {
		_, _ = fmt.Fprintf(out, "pin record %s is corrupt and will be discarded\n", cfg.State.PinKey)
	}
	return nil
}
