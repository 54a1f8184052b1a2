package config

import (
	"git.home.luguber.info/inful/releasebot/internal/chat"
	"git.home.luguber.info/inful/releasebot/internal/foundation/normalization"
	"git.home.luguber.info/inful/releasebot/internal/manifest"
	"git.home.luguber.info/inful/releasebot/internal/state"
	"git.home.luguber.info/inful/releasebot/internal/watcher"
)

var fingerprintModes = normalization.NewNormalizer("fingerprint mode", map[string]manifest.FingerprintMode{
	"raw":    manifest.FingerprintRaw,
	"sha256": manifest.FingerprintSHA256,
}, manifest.FingerprintRaw)

var parseModes = normalization.NewNormalizer("parse mode", map[string]chat.ParseMode{
	"MarkdownV2": chat.ParseModeMarkdownV2,
	"HTML":       chat.ParseModeHTML,
}, chat.ParseModeMarkdownV2)

var unpinPolicies = normalization.NewNormalizer("unpin policy", map[string]watcher.UnpinPolicy{
	"every_run": watcher.UnpinEveryRun,
	"on_change": watcher.UnpinOnChange,
}, watcher.UnpinEveryRun)

var stateBackends = normalization.NewNormalizer("state backend", map[string]state.Backend{
	"file":   state.BackendFile,
	"sqlite": state.BackendSQLite,
	"nats":   state.BackendNATS,
	"memory": state.BackendMemory,
}, state.BackendFile)

var languages = normalization.NewNormalizer("language", map[string]string{
	"ru": "ru",
	"en": "en",
}, DefaultLanguage)
