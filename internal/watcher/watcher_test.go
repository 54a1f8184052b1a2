package watcher

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/releasebot/internal/announce"
	"git.home.luguber.info/inful/releasebot/internal/chat"
	ferrors "git.home.luguber.info/inful/releasebot/internal/foundation/errors"
	"git.home.luguber.info/inful/releasebot/internal/manifest"
	"git.home.luguber.info/inful/releasebot/internal/release"
	"git.home.luguber.info/inful/releasebot/internal/state"
)

const (
	oldManifest = "sha...old"
	newManifest = "sha...new\nabc123  Setup_Factorio_1.2.3.exe.zip\n"
)

type fakeFetcher struct {
	body  string
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(context.Context) (manifest.Manifest, error) {
	f.calls++
	if f.err != nil {
		return manifest.Manifest{}, f.err
	}
	return manifest.Manifest{URL: f.URL(), Body: f.body}, nil
}

func (f *fakeFetcher) URL() string { return "https://example.test/sha256sums/" }

type fakeTransport struct {
	nextID   chat.MessageID
	sent     []chat.Message
	pinned   []chat.MessageID
	unpinned []chat.MessageID
	// order records every call as "send", "pin" or "unpin".
	order    []string
	sendErr  error
	pinErr   error
	unpinErr error
}

func (f *fakeTransport) Send(_ context.Context, msg chat.Message) (chat.MessageID, error) {
	f.order = append(f.order, "send")
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.sent = append(f.sent, msg)
	f.nextID++
	return f.nextID, nil
}

func (f *fakeTransport) Pin(_ context.Context, _ string, id chat.MessageID, _ bool) error {
	f.order = append(f.order, "pin")
	if f.pinErr != nil {
		return f.pinErr
	}
	f.pinned = append(f.pinned, id)
	return nil
}

func (f *fakeTransport) Unpin(_ context.Context, _ string, id chat.MessageID) error {
	f.order = append(f.order, "unpin")
	f.unpinned = append(f.unpinned, id)
	return f.unpinErr
}

type harness struct {
	fetcher   *fakeFetcher
	transport *fakeTransport
	store     *state.MemoryStore
	watcher   *Watcher
}

func newHarness(t *testing.T, records map[string]string, body string, cfg Config) *harness {
	t.Helper()
	composer, err := announce.NewComposer(announce.Options{
		ProductName: "Factorio",
		ReleaseURL:  "https://factorio.com/download",
		Language:    "en",
	})
	require.NoError(t, err)

	h := &harness{
		fetcher:   &fakeFetcher{body: body},
		transport: &fakeTransport{nextID: 100},
		store:     state.NewMemoryStoreFrom(records),
	}
	if cfg.ChatID == "" {
		cfg.ChatID = "-100200"
	}
	h.watcher, err = New(cfg, Deps{
		Fetcher:      h.fetcher,
		Transport:    h.transport,
		Extractor:    release.NewExtractor(""),
		Composer:     composer,
		Fingerprints: state.NewFingerprintStore(h.store, ""),
		Pins:         state.NewPinStore(h.store, ""),
	})
	require.NoError(t, err)
	return h
}

func (h *harness) fingerprintPuts() []string {
	var puts []string
	for _, p := range h.store.Calls().Puts {
		if strings.HasPrefix(p, state.DefaultFingerprintKey+"=") {
			puts = append(puts, p)
		}
	}
	return puts
}

func TestRun_EndToEndAnnouncement(t *testing.T) {
	h := newHarness(t, map[string]string{state.DefaultFingerprintKey: oldManifest}, newManifest, Config{Silent: true})

	report, err := h.watcher.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeAnnounced, report.Outcome)
	assert.Empty(t, h.transport.unpinned, "no pin record means no unpin call")
	require.Len(t, h.transport.sent, 1)
	assert.Contains(t, h.transport.sent[0].Text, `1\.2\.3`)
	assert.Equal(t, chat.ParseModeMarkdownV2, h.transport.sent[0].ParseMode)
	assert.True(t, h.transport.sent[0].Silent)
	assert.Equal(t, "-100200", h.transport.sent[0].ChatID)
	assert.Equal(t, []chat.MessageID{101}, h.transport.pinned)

	records := h.store.Snapshot()
	assert.Equal(t, "101", records[state.DefaultPinKey])
	assert.Equal(t, "sha...new\nabc123  Setup_Factorio_1.2.3.exe.zip", records[state.DefaultFingerprintKey])
	assert.Equal(t, "1.2.3", report.Version.Unwrap().String())
	assert.Equal(t, "announced version 1.2.3 (message 101, pinned)", report.String())
	assert.NotEmpty(t, report.RunID)
}

func TestRun_FirstRunBootstrap(t *testing.T) {
	h := newHarness(t, nil, newManifest, Config{})

	report, err := h.watcher.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeFirstRun, report.Outcome)
	assert.Empty(t, h.transport.order, "first run never notifies")
	assert.Len(t, h.fingerprintPuts(), 1)
	assert.Equal(t, 1, h.store.Calls().Put)
}

func TestRun_Idempotence(t *testing.T) {
	h := newHarness(t, map[string]string{state.DefaultFingerprintKey: oldManifest}, newManifest, Config{})

	_, err := h.watcher.Run(context.Background())
	require.NoError(t, err)
	putsAfterFirst := len(h.fingerprintPuts())

	report, err := h.watcher.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoChange, report.Outcome)
	assert.Len(t, h.transport.sent, 1, "unchanged manifest must not notify again")
	assert.Len(t, h.fingerprintPuts(), putsAfterFirst, "no fingerprint write on no change")
}

func TestRun_TrailingWhitespaceIsNotAChange(t *testing.T) {
	h := newHarness(t, map[string]string{state.DefaultFingerprintKey: "sha...old\n"}, "sha...old\n\n", Config{})

	report, err := h.watcher.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoChange, report.Outcome)
}

func TestRun_ChangeDetectionWritesNewFingerprintOnce(t *testing.T) {
	h := newHarness(t, map[string]string{state.DefaultFingerprintKey: oldManifest}, newManifest, Config{})

	_, err := h.watcher.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, h.transport.sent, 1)
	assert.Equal(t, []string{state.DefaultFingerprintKey + "=" + "sha...new\nabc123  Setup_Factorio_1.2.3.exe.zip"}, h.fingerprintPuts())
}

func TestRun_SHA256Fingerprint(t *testing.T) {
	h := newHarness(t, nil, newManifest, Config{FingerprintMode: manifest.FingerprintSHA256})

	_, err := h.watcher.Run(context.Background())
	require.NoError(t, err)

	fp := h.store.Snapshot()[state.DefaultFingerprintKey]
	assert.Len(t, fp, 64)
}

func TestRun_PinSupersession(t *testing.T) {
	h := newHarness(t, map[string]string{state.DefaultFingerprintKey: oldManifest}, newManifest, Config{})

	_, err := h.watcher.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, "101", h.store.Snapshot()[state.DefaultPinKey])

	h.fetcher.body = newManifest + "Setup_Factorio_1.2.4.exe.zip\n"
	h.transport.order = nil
	report, err := h.watcher.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []chat.MessageID{101}, h.transport.unpinned, "previous pin unpinned exactly once")
	assert.Equal(t, []string{"unpin", "send", "pin"}, h.transport.order)
	assert.True(t, report.Unpinned)
	assert.Equal(t, chat.MessageID(101), report.PreviousPin.Unwrap())
	assert.Equal(t, "102", h.store.Snapshot()[state.DefaultPinKey])
	assert.Equal(t, 1, h.store.Calls().Delete, "record cleared before the new pin")
}

func TestRun_UnpinFailureStillClearsAndProceeds(t *testing.T) {
	h := newHarness(t, map[string]string{
		state.DefaultFingerprintKey: oldManifest,
		state.DefaultPinKey:         "77",
	}, oldManifest, Config{})
	h.transport.unpinErr = errors.New("message to unpin not found")

	report, err := h.watcher.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []chat.MessageID{77}, h.transport.unpinned)
	assert.False(t, report.Unpinned)
	assert.Equal(t, 1, h.fetcher.calls, "run proceeds to fetch")
	_, exists := h.store.Snapshot()[state.DefaultPinKey]
	assert.False(t, exists, "pin record cleared despite unpin failure")
	assert.Equal(t, OutcomeNoChange, report.Outcome)
}

func TestRun_CorruptPinRecordIsDiscarded(t *testing.T) {
	h := newHarness(t, map[string]string{
		state.DefaultFingerprintKey: oldManifest,
		state.DefaultPinKey:         "garbage",
	}, oldManifest, Config{})

	_, err := h.watcher.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, h.transport.unpinned)
	_, exists := h.store.Snapshot()[state.DefaultPinKey]
	assert.False(t, exists)
}

func TestRun_FetchFailureWritesNothing(t *testing.T) {
	h := newHarness(t, map[string]string{state.DefaultFingerprintKey: oldManifest}, "", Config{})
	h.fetcher.err = errors.New("connection refused")

	report, err := h.watcher.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, OutcomeFetchFailed, report.Outcome)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNetwork))
	assert.Equal(t, ferrors.ExitNetwork, ferrors.ExitCode(err))
	assert.Equal(t, 0, h.store.Calls().Put)
	assert.Contains(t, report.String(), "fetch failed")
}

func TestRun_UnparsableChangePersistsWithoutNotifying(t *testing.T) {
	h := newHarness(t, map[string]string{state.DefaultFingerprintKey: oldManifest}, "sha...new without installer", Config{})

	report, err := h.watcher.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeUnparsable, report.Outcome)
	assert.Empty(t, h.transport.order)
	assert.Equal(t, "sha...new without installer", h.store.Snapshot()[state.DefaultFingerprintKey])
}

func TestRun_SendFailureStillPersistsFingerprint(t *testing.T) {
	h := newHarness(t, map[string]string{state.DefaultFingerprintKey: oldManifest}, newManifest, Config{})
	h.transport.sendErr = errors.New("chat not found")

	report, err := h.watcher.Run(context.Background())
	require.NoError(t, err, "send failure is reported, not returned")

	assert.Equal(t, OutcomeSendFailed, report.Outcome)
	assert.True(t, ferrors.HasCategory(report.Err, ferrors.CategoryTransport))
	assert.Empty(t, h.transport.pinned)
	records := h.store.Snapshot()
	assert.Contains(t, records[state.DefaultFingerprintKey], "1.2.3")
	_, pinned := records[state.DefaultPinKey]
	assert.False(t, pinned)
}

func TestRun_PinFailureLeavesPinRecordUnset(t *testing.T) {
	h := newHarness(t, map[string]string{state.DefaultFingerprintKey: oldManifest}, newManifest, Config{})
	h.transport.pinErr = errors.New("not enough rights")

	report, err := h.watcher.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeAnnouncedUnpinned, report.Outcome)
	assert.Equal(t, chat.MessageID(101), report.MessageID.Unwrap())
	records := h.store.Snapshot()
	_, pinned := records[state.DefaultPinKey]
	assert.False(t, pinned)
	assert.Contains(t, records[state.DefaultFingerprintKey], "1.2.3")
	assert.Contains(t, report.String(), "pin failed")
}

func TestRun_PinRecordSaveFailureStillPersistsFingerprint(t *testing.T) {
	h := newHarness(t, map[string]string{state.DefaultFingerprintKey: oldManifest}, newManifest, Config{})
	h.store.FailOn("put:"+state.DefaultPinKey, errors.New("disk full"))

	report, err := h.watcher.Run(context.Background())
	require.Error(t, err)

	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryState))
	assert.Equal(t, ferrors.ExitState, ferrors.ExitCode(err))
	assert.Equal(t, OutcomeStateFailed, report.Outcome)
	assert.Equal(t, chat.MessageID(101), report.MessageID.Unwrap())
	assert.Contains(t, report.String(), "state error after announcing version 1.2.3 (message 101)")
	assert.Contains(t, h.store.Snapshot()[state.DefaultFingerprintKey], "1.2.3")
}

func TestRun_FingerprintSaveFailureFailsRun(t *testing.T) {
	diskFull := errors.New("disk full")

	t.Run("first run", func(t *testing.T) {
		h := newHarness(t, nil, newManifest, Config{})
		h.store.FailOn("put:"+state.DefaultFingerprintKey, diskFull)

		report, err := h.watcher.Run(context.Background())
		require.Error(t, err)

		assert.Equal(t, ferrors.ExitState, ferrors.ExitCode(err))
		assert.Equal(t, OutcomeStateFailed, report.Outcome)
		assert.ErrorIs(t, report.Err, diskFull)
		assert.True(t, strings.HasPrefix(report.String(), "state error: "))
		assert.NotContains(t, report.String(), "baseline fingerprint saved")
	})

	t.Run("unparsable change", func(t *testing.T) {
		h := newHarness(t, map[string]string{state.DefaultFingerprintKey: oldManifest}, "sha...new without installer", Config{})
		h.store.FailOn("put:"+state.DefaultFingerprintKey, diskFull)

		report, err := h.watcher.Run(context.Background())
		require.Error(t, err)

		assert.Equal(t, OutcomeStateFailed, report.Outcome)
		assert.NotContains(t, report.String(), "no version found")
		assert.Empty(t, h.transport.order)
	})

	t.Run("after announcing", func(t *testing.T) {
		h := newHarness(t, map[string]string{state.DefaultFingerprintKey: oldManifest}, newManifest, Config{})
		h.store.FailOn("put:"+state.DefaultFingerprintKey, diskFull)

		report, err := h.watcher.Run(context.Background())
		require.Error(t, err)

		assert.Equal(t, OutcomeStateFailed, report.Outcome)
		assert.Equal(t, "1.2.3", report.Version.Unwrap().String())
		assert.Contains(t, report.String(), "state error after announcing version 1.2.3")
	})
}

func TestRun_LogsErrorAttribute(t *testing.T) {
	var buf bytes.Buffer
	h := newHarness(t, nil, newManifest, Config{})
	h.watcher.logger = slog.New(slog.NewTextHandler(&buf, nil))
	h.store.FailOn("put:"+state.DefaultFingerprintKey, errors.New("disk full"))

	_, err := h.watcher.Run(context.Background())
	require.Error(t, err)

	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "outcome=state_failed")
	assert.Contains(t, buf.String(), "disk full")
}

func TestRun_StateReadFailure(t *testing.T) {
	h := newHarness(t, nil, newManifest, Config{})
	h.store.FailOn("get:"+state.DefaultFingerprintKey, errors.New("permission denied"))

	report, err := h.watcher.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, OutcomeStateFailed, report.Outcome)
	assert.Empty(t, h.transport.order)
	assert.Equal(t, 0, h.store.Calls().Put)
}

func TestRun_UnpinOnChangePolicy(t *testing.T) {
	h := newHarness(t, map[string]string{
		state.DefaultFingerprintKey: oldManifest,
		state.DefaultPinKey:         "55",
	}, oldManifest, Config{UnpinPolicy: UnpinOnChange})

	_, err := h.watcher.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, h.transport.unpinned, "nothing changed, previous pin stays")
	assert.Equal(t, "55", h.store.Snapshot()[state.DefaultPinKey])

	h.fetcher.body = newManifest
	_, err = h.watcher.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"unpin", "send", "pin"}, h.transport.order)
	assert.Equal(t, "101", h.store.Snapshot()[state.DefaultPinKey])
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{ChatID: "1"}, Deps{})
	require.Error(t, err)
	assert.Equal(t, ferrors.ExitInternal, ferrors.ExitCode(err))

	h := newHarness(t, nil, "", Config{})
	deps := Deps{
		Fetcher:      h.fetcher,
		Transport:    h.transport,
		Extractor:    release.NewExtractor(""),
		Composer:     h.watcher.composer,
		Fingerprints: h.watcher.fingerprints,
		Pins:         h.watcher.pins,
	}

	_, err = New(Config{}, deps)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	_, err = New(Config{ChatID: "1", UnpinPolicy: "sometimes"}, deps)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}
