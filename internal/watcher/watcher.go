// Package watcher runs the release check: unpin the previous announcement,
// fetch the manifest, compare it with the stored fingerprint and announce a
// new version when it changed.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/releasebot/internal/announce"
	"git.home.luguber.info/inful/releasebot/internal/chat"
	"git.home.luguber.info/inful/releasebot/internal/foundation"
	ferrors "git.home.luguber.info/inful/releasebot/internal/foundation/errors"
	"git.home.luguber.info/inful/releasebot/internal/logfields"
	"git.home.luguber.info/inful/releasebot/internal/manifest"
	"git.home.luguber.info/inful/releasebot/internal/metrics"
	"git.home.luguber.info/inful/releasebot/internal/release"
	"git.home.luguber.info/inful/releasebot/internal/state"
)

// UnpinPolicy controls when the previous announcement is unpinned.
type UnpinPolicy string

const (
	// UnpinEveryRun unpins at the start of every run.
	UnpinEveryRun UnpinPolicy = "every_run"
	// UnpinOnChange unpins only right before a new version is announced.
	UnpinOnChange UnpinPolicy = "on_change"
)

// Config is the explicit run configuration.
type Config struct {
	ChatID          string
	Silent          bool
	FingerprintMode manifest.FingerprintMode
	UnpinPolicy     UnpinPolicy
}

// Fetcher retrieves the current manifest.
type Fetcher interface {
	Fetch(ctx context.Context) (manifest.Manifest, error)
	URL() string
}

// Extractor finds the release version in manifest text.
type Extractor interface {
	Extract(text string) foundation.Option[release.Version]
}

// Composer renders the announcement for a version.
type Composer interface {
	Compose(v release.Version) announce.Announcement
}

// FingerprintRecord persists the last seen fingerprint.
type FingerprintRecord interface {
	Load(ctx context.Context) (foundation.Option[manifest.Fingerprint], error)
	Save(ctx context.Context, fp manifest.Fingerprint) error
}

// PinRecord persists the currently pinned announcement.
type PinRecord interface {
	Load(ctx context.Context) (foundation.Option[chat.MessageID], error)
	Save(ctx context.Context, id chat.MessageID) error
	Clear(ctx context.Context) error
}

// Deps are the collaborators of a Watcher. Recorder and Logger are optional.
type Deps struct {
	Fetcher      Fetcher
	Transport    chat.Transport
	Extractor    Extractor
	Composer     Composer
	Fingerprints FingerprintRecord
	Pins         PinRecord
	Recorder     metrics.Recorder
	Logger       *slog.Logger
}

// Watcher drives runs. Runs must not overlap.
type Watcher struct {
	cfg          Config
	fetcher      Fetcher
	transport    chat.Transport
	extractor    Extractor
	composer     Composer
	fingerprints FingerprintRecord
	pins         PinRecord
	recorder     metrics.Recorder
	logger       *slog.Logger
	now          func() time.Time
}

func missingDep(name string) error {
	return ferrors.NewError(ferrors.CategoryInternal, "watcher: "+name+" is required").Fatal().Build()
}

// New validates deps and builds a Watcher.
func New(cfg Config, deps Deps) (*Watcher, error) {
	switch {
	case deps.Fetcher == nil:
		return nil, missingDep("fetcher")
	case deps.Transport == nil:
		return nil, missingDep("transport")
	case deps.Extractor == nil:
		return nil, missingDep("extractor")
	case deps.Composer == nil:
		return nil, missingDep("composer")
	case deps.Fingerprints == nil || deps.Pins == nil:
		return nil, missingDep("state records")
	case cfg.ChatID == "":
		return nil, ferrors.ValidationError("chat id is required").Build()
	}
	if cfg.UnpinPolicy == "" {
		cfg.UnpinPolicy = UnpinEveryRun
	}
	if cfg.UnpinPolicy != UnpinEveryRun && cfg.UnpinPolicy != UnpinOnChange {
		return nil, ferrors.ValidationError(fmt.Sprintf("unknown unpin policy %q", cfg.UnpinPolicy)).Build()
	}

	recorder := deps.Recorder
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		cfg:          cfg,
		fetcher:      deps.Fetcher,
		transport:    deps.Transport,
		extractor:    deps.Extractor,
		composer:     deps.Composer,
		fingerprints: deps.Fingerprints,
		pins:         deps.Pins,
		recorder:     recorder,
		logger:       logger,
		now:          time.Now,
	}, nil
}

// Run performs one check. The returned error is non-nil only for fetch and
// state failures; a failed send is reported through the Report. Any state
// error ends the run as state_failed, even after an announcement went out.
func (w *Watcher) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), StartedAt: w.now()}
	logger := w.logger.With(logfields.RunID(report.RunID))

	err := w.run(ctx, logger, report)
	if err != nil && report.Outcome != OutcomeFetchFailed {
		// A state error after the outcome was decided still fails the run.
		// Version and MessageID stay on the report for context.
		report.Outcome = OutcomeStateFailed
		report.Err = err
	}
	report.Duration = w.now().Sub(report.StartedAt)

	w.recorder.IncRunOutcome(string(report.Outcome))
	w.recorder.ObserveRunDuration(report.Duration)
	w.recorder.SetLastRun(w.now())

	attrs := []any{logfields.Outcome(string(report.Outcome)), logfields.Duration(report.Duration)}
	if v, ok := report.Version.Get(); ok {
		attrs = append(attrs, logfields.Version(v.String()))
	}
	if report.Err != nil {
		attrs = append(attrs, logfields.Error(report.Err))
	}
	if err != nil {
		logger.Error(report.String(), attrs...)
	} else {
		logger.Info(report.String(), attrs...)
	}
	return report, err
}

func (w *Watcher) run(ctx context.Context, logger *slog.Logger, report *Report) error {
	if w.cfg.UnpinPolicy == UnpinEveryRun {
		if err := w.unpinPrevious(ctx, logger, report); err != nil {
			return err
		}
	}

	fetchStart := time.Now()
	m, err := w.fetcher.Fetch(ctx)
	w.recorder.ObserveFetchDuration(time.Since(fetchStart), metrics.ResultFor(err))
	if err != nil {
		report.Outcome = OutcomeFetchFailed
		report.Err = ferrors.FetchError("fetch manifest").
			WithCause(err).
			WithContext("url", w.fetcher.URL()).
			Build()
		return report.Err
	}

	current, err := m.Fingerprint(w.cfg.FingerprintMode)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "fingerprint manifest").Build()
	}

	last, err := w.fingerprints.Load(ctx)
	if err != nil {
		return err
	}
	previous, ok := last.Get()
	if !ok {
		report.Outcome = OutcomeFirstRun
		return w.fingerprints.Save(ctx, current)
	}
	if previous == current {
		report.Outcome = OutcomeNoChange
		return nil
	}

	logger.Debug("Manifest changed", logfields.Step("extract"))
	report.Version = w.extractor.Extract(m.Body)
	version, ok := report.Version.Get()
	if !ok {
		report.Outcome = OutcomeUnparsable
		logger.Warn("No release version found in manifest", logfields.URL(w.fetcher.URL()))
		return w.fingerprints.Save(ctx, current)
	}

	if w.cfg.UnpinPolicy == UnpinOnChange {
		if err := w.unpinPrevious(ctx, logger, report); err != nil {
			return err
		}
	}

	pinErr := w.announce(ctx, logger, report, version)
	return errors.Join(pinErr, w.fingerprints.Save(ctx, current))
}

// announce covers NOTIFY and PIN. Only a failure to save the pin record is
// returned; transport failures end up in the report.
func (w *Watcher) announce(ctx context.Context, logger *slog.Logger, report *Report, version release.Version) error {
	ann := w.composer.Compose(version)
	id, err := w.transport.Send(ctx, chat.Message{
		ChatID:    w.cfg.ChatID,
		Text:      ann.Text,
		ParseMode: ann.ParseMode,
		Silent:    w.cfg.Silent,
	})
	w.recorder.IncTransportCall("send", metrics.ResultFor(err))
	if err != nil {
		report.Outcome = OutcomeSendFailed
		report.Err = ferrors.TransportError("send announcement").
			WithCause(err).
			WithContext("chat_id", w.cfg.ChatID).
			Build()
		logger.Error("Failed to send announcement", logfields.Step("notify"), logfields.Error(err))
		return nil
	}
	report.MessageID = foundation.Some(id)
	logger.Info("Announcement sent", logfields.Step("notify"), logfields.MessageID(int64(id)))

	err = w.transport.Pin(ctx, w.cfg.ChatID, id, w.cfg.Silent)
	w.recorder.IncTransportCall("pin", metrics.ResultFor(err))
	if err != nil {
		report.Outcome = OutcomeAnnouncedUnpinned
		logger.Warn("Failed to pin announcement", logfields.Step("pin"), logfields.MessageID(int64(id)), logfields.Error(err))
		return nil
	}
	report.Outcome = OutcomeAnnounced
	return w.pins.Save(ctx, id)
}

// unpinPrevious unpins the recorded announcement and always clears the
// record, whether or not the unpin call succeeded.
func (w *Watcher) unpinPrevious(ctx context.Context, logger *slog.Logger, report *Report) error {
	rec, err := w.pins.Load(ctx)
	if errors.Is(err, state.ErrCorruptPinRecord) {
		logger.Warn("Discarding unreadable pin record", logfields.Step("unpin"), logfields.Error(err))
		return w.pins.Clear(ctx)
	}
	if err != nil {
		return err
	}
	id, ok := rec.Get()
	if !ok {
		return nil
	}
	report.PreviousPin = rec

	err = w.transport.Unpin(ctx, w.cfg.ChatID, id)
	w.recorder.IncTransportCall("unpin", metrics.ResultFor(err))
	if err != nil {
		logger.Warn("Failed to unpin previous announcement", logfields.Step("unpin"), logfields.MessageID(int64(id)), logfields.Error(err))
	} else {
		report.Unpinned = true
		logger.Info("Unpinned previous announcement", logfields.Step("unpin"), logfields.MessageID(int64(id)))
	}
	return w.pins.Clear(ctx)
}
