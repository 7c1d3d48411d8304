package workflow

import (
	"context"

	"chitieu/internal/core"
)

type State int

const (
	Idle State = iota
	Detecting
	Parsing
	AwaitingConfirmation
	Confirmed
	Dismissed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Detecting:
		return "detecting"
	case Parsing:
		return "parsing"
	case AwaitingConfirmation:
		return "awaiting_confirmation"
	case Confirmed:
		return "confirmed"
	case Dismissed:
		return "dismissed"
	default:
		return "unknown"
	}
}

// Event is one of Submit, Confirm or Dismiss.
type Event interface {
	event()
}

type (
	// Submit hands free text to the workflow.
	Submit struct{ Text string }
	// Confirm persists the pending candidate.
	Confirm struct{}
	// Dismiss drops the pending candidate.
	Dismiss struct{}
)

func (Submit) event()  {}
func (Confirm) event() {}
func (Dismiss) event() {}

// Transition is reported to observers on every state change.
type Transition struct {
	From, To State
}

// Outcome tells what a successful Dispatch produced.
type Outcome string

const (
	// OutcomeChat means the text did not look like a transaction and went to
	// the chat path.
	OutcomeChat      Outcome = "chat"
	OutcomeCandidate Outcome = "candidate"
	OutcomeSaved     Outcome = "saved"
	OutcomeDismissed Outcome = "dismissed"
)

type Result struct {
	Outcome Outcome
	// Candidate is set for OutcomeCandidate and OutcomeSaved.
	Candidate *core.Candidate
	// TransactionID is the id of the stored record for OutcomeSaved.
	TransactionID string
	// Reply is the chat answer for OutcomeChat, when a ChatHandler is set.
	Reply string
}

// Collaborators.
type (
	Parser interface {
		Parse(ctx context.Context, text string) (core.Candidate, error)
	}

	// CandidateSaver persists a confirmed candidate and returns the id of the
	// created expense or income.
	CandidateSaver interface {
		Save(ctx context.Context, c core.Candidate) (id string, err error)
	}

	ChatHandler interface {
		Chat(ctx context.Context, text string) (reply string, err error)
	}
)
