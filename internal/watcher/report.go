package watcher

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/releasebot/internal/chat"
	"git.home.luguber.info/inful/releasebot/internal/foundation"
	"git.home.luguber.info/inful/releasebot/internal/release"
)

// Outcome names how a run ended.
type Outcome string

const (
	OutcomeNoChange          Outcome = "no_change"
	OutcomeFirstRun          Outcome = "first_run"
	OutcomeAnnounced         Outcome = "announced"
	OutcomeAnnouncedUnpinned Outcome = "announced_unpinned"
	OutcomeSendFailed        Outcome = "send_failed"
	OutcomeUnparsable        Outcome = "unparsable"
	OutcomeFetchFailed       Outcome = "fetch_failed"
	// OutcomeStateFailed means a state record could not be read or written.
	OutcomeStateFailed Outcome = "state_failed"
)

// Report is the result of one run.
type Report struct {
	RunID   string
	Outcome Outcome
	Version foundation.Option[release.Version]
	// MessageID is the announcement sent by this run.
	MessageID foundation.Option[chat.MessageID]
	// PreviousPin is the record found at run start, if any.
	PreviousPin foundation.Option[chat.MessageID]
	// Unpinned is true when PreviousPin was unpinned successfully.
	Unpinned  bool
	StartedAt time.Time
	Duration  time.Duration
	// Err holds the failure behind send_failed, fetch_failed and state_failed.
	Err error
}

// String renders the operator-facing status line.
func (r *Report) String() string {
	version := r.Version.UnwrapOr(release.Version{}).String()
	msgID := r.MessageID.UnwrapOr(0)

	switch r.Outcome {
	case OutcomeNoChange:
		return "no change"
	case OutcomeFirstRun:
		return "first run: baseline fingerprint saved"
	case OutcomeAnnounced:
		return fmt.Sprintf("announced version %s (message %s, pinned)", version, msgID)
	case OutcomeAnnouncedUnpinned:
		return fmt.Sprintf("announced version %s (message %s) but pin failed", version, msgID)
	case OutcomeSendFailed:
		return fmt.Sprintf("failed to announce version %s: %v", version, r.Err)
	case OutcomeUnparsable:
		return "manifest changed but no version found"
	case OutcomeFetchFailed:
		return fmt.Sprintf("fetch failed: %v", r.Err)
	case OutcomeStateFailed:
		if _, ok := r.MessageID.Get(); ok {
			return fmt.Sprintf("state error after announcing version %s (message %s): %v", version, msgID, r.Err)
		}
		if _, ok := r.Version.Get(); ok {
			return fmt.Sprintf("state error after detecting version %s: %v", version, r.Err)
		}
		return fmt.Sprintf("state error: %v", r.Err)
	default:
		return "run incomplete"
	}
}
