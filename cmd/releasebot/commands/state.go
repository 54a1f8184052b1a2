package commands

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"git.home.luguber.info/inful/releasebot/internal/config"
	"git.home.luguber.info/inful/releasebot/internal/state"
)

// StateCmd groups state inspection commands.
type StateCmd struct {
	Show  StateShowCmd  `cmd:"" help:"Print the stored fingerprint and pin record"`
	Reset StateResetCmd `cmd:"" help:"Clear stored records"`
}

// StateShowCmd implements 'state show'.
type StateShowCmd struct{}

func (s *StateShowCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}
	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return showState(ctx, g, cfg, store)
}

// fingerprintPreviewLen bounds how much of a raw-mode fingerprint is printed.
const fingerprintPreviewLen = 64

// truncatePreview cuts s to at most n bytes on a rune boundary.
func truncatePreview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

func showState(ctx context.Context, g *Global, cfg *config.Config, store state.Store) error {
	out := g.out()
	_, _ = fmt.Fprintf(out, "backend: %s\n", cfg.State.Backend)

	fp, err := state.NewFingerprintStore(store, cfg.State.FingerprintKey).Load(ctx)
	if err != nil {
		return err
	}
	if v, ok := fp.Get(); ok {
		_, _ = fmt.Fprintf(out, "%s: %d bytes %q\n", cfg.State.FingerprintKey, len(v), truncatePreview(string(v), fingerprintPreviewLen))
	} else {
		_, _ = fmt.Fprintf(out, "%s: <absent>\n", cfg.State.FingerprintKey)
	}

	pin, err := state.NewPinStore(store, cfg.State.PinKey).Load(ctx)
	switch {
	case errors.Is(err, state.ErrCorruptPinRecord):
		_, _ = fmt.Fprintf(out, "%s: <corrupt>\n", cfg.State.PinKey)
	case err != nil:
		return err
	default:
		if id, ok := pin.Get(); ok {
			_, _ = fmt.Fprintf(out, "%s: %s\n", cfg.State.PinKey, id)
		} else {
			_, _ = fmt.Fprintf(out, "%s: <absent>\n", cfg.State.PinKey)
		}
	}
	return nil
}

// StateResetCmd implements 'state reset'. Without flags both records are cleared.
type StateResetCmd struct {
	Fingerprint bool `help:"Clear the fingerprint record (next run is a first run)"`
	Pin         bool `help:"Clear the pin record (nothing is unpinned on the next run)"`
}

func (s *StateResetCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}
	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return s.reset(ctx, g, cfg, store)
}

func (s *StateResetCmd) reset(ctx context.Context, g *Global, cfg *config.Config, store state.Store) error {
	both := !s.Fingerprint && !s.Pin
	if s.Fingerprint || both {
		if err := state.NewFingerprintStore(store, cfg.State.FingerprintKey).Clear(ctx); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(g.out(), "cleared %s\n", cfg.State.FingerprintKey)
	}
	if s.Pin || both {
		if err := state.NewPinStore(store, cfg.State.PinKey).Clear(ctx); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(g.out(), "cleared %s\n", cfg.State.PinKey)
	}
	return nil
}
