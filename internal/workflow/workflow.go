// Package workflow drives one conversation from free text to a stored
// transaction: detect, parse, wait for the user, then save or drop.
//
// A Workflow holds at most one pending candidate. While a candidate waits for
// confirmation, or while a parse or save call is in flight, new submissions
// are rejected with ErrInvalidState instead of replacing it.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"chitieu/internal/core"
	"chitieu/internal/detect"
	"chitieu/internal/notify"
)

// Notifier receives the transaction-created event after a save.
type Notifier interface {
	Publish(ctx context.Context, e notify.Event)
}

type Option func(*Workflow)

// WithChat routes non-monetary text to h.
func WithChat(h ChatHandler) Option {
	return func(w *Workflow) { w.chat = h }
}

func WithNotifier(n Notifier) Option {
	return func(w *Workflow) { w.notifier = n }
}

// WithDetector replaces the monetary text gate.
func WithDetector(fn func(string) bool) Option {
	return func(w *Workflow) { w.detect = fn }
}

// WithClock sets the clock used for the default candidate date.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// OnTransition registers an observer called after every state change, outside
// the workflow lock.
func OnTransition(fn func(context.Context, Transition)) Option {
	return func(w *Workflow) { w.observers = append(w.observers, fn) }
}

type Workflow struct {
	parser   Parser
	saver    CandidateSaver
	chat     ChatHandler
	notifier Notifier
	detect   func(string) bool
	now      func() time.Time

	observers []func(context.Context, Transition)

	mu         sync.Mutex
	state      State
	candidate  core.Candidate
	confirming bool
	closed     bool
	// generation changes on Close so late collaborator results are dropped.
	generation uint64
	pending    []Transition
}

func New(parser Parser, saver CandidateSaver, opts ...Option) *Workflow {
	w := &Workflow{
		parser: parser,
		saver:  saver,
		detect: detect.LooksLikeMonetaryText,
		now:    time.Now,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Candidate returns the pending candidate, if any.
func (w *Workflow) Candidate() (core.Candidate, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.state != AwaitingConfirmation {
		return core.Candidate{}, false
	}
	return w.candidate, true
}

// Dispatch applies ev. Errors wrap one of the package sentinels; the
// workflow is always left in Idle or AwaitingConfirmation afterwards.
func (w *Workflow) Dispatch(ctx context.Context, ev Event) (Result, error) {
	switch ev := ev.(type) {
	case Submit:
		return w.submit(ctx, ev.Text)
	case Confirm:
		return w.confirm(ctx)
	case Dismiss:
		return w.dismiss(ctx)
	default:
		return Result{}, fmt.Errorf("%w: unknown event %T", ErrInvalidState, ev)
	}
}

// Close disposes the workflow. Parse or save calls still running finish on
// their own, but their results are discarded. Close is idempotent.
func (w *Workflow) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.generation++
	w.candidate = core.Candidate{}
	w.confirming = false
	w.mu.Unlock()
}

func (w *Workflow) submit(ctx context.Context, text string) (Result, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return Result{}, ErrClosed
	}
	if w.state != Idle {
		state := w.state
		w.mu.Unlock()
		return Result{}, fmt.Errorf("%w: submit while %s", ErrInvalidState, state)
	}

	text = strings.TrimSpace(text)
	w.transition(Detecting)
	if !w.detect(text) {
		w.transition(Idle)
		w.unlockAndEmit(ctx)
		return w.handOffToChat(ctx, text)
	}

	w.transition(Parsing)
	gen := w.generation
	w.unlockAndEmit(ctx)

	slog.DebugContext(ctx, "Parsing transaction text", "length", len(text))
	cand, err := w.parser.Parse(ctx, text)
	if err == nil {
		cand, err = w.completeCandidate(cand, text)
	}

	w.mu.Lock()
	if w.closed || w.generation != gen {
		w.mu.Unlock()
		slog.DebugContext(ctx, "Discarding parse result after close")
		return Result{}, ErrClosed
	}
	if err != nil {
		w.transition(Idle)
		w.unlockAndEmit(ctx)
		slog.WarnContext(ctx, "Transaction parse failed", "error", err)
		return Result{}, fmt.Errorf("%w: %w", ErrParseFailure, err)
	}
	w.candidate = cand
	w.transition(AwaitingConfirmation)
	w.unlockAndEmit(ctx)

	slog.InfoContext(ctx, "Transaction candidate ready",
		"type", cand.Type,
		"category", cand.Category,
		"amount", cand.Amount.String(),
		"date", cand.Date.String())

	return Result{Outcome: OutcomeCandidate, Candidate: &cand}, nil
}

func (w *Workflow) handOffToChat(ctx context.Context, text string) (Result, error) {
	res := Result{Outcome: OutcomeChat}
	if w.chat == nil || text == "" {
		return res, nil
	}
	reply, err := w.chat.Chat(ctx, text)
	if err != nil {
		return res, fmt.Errorf("chat: %w", err)
	}
	res.Reply = reply
	return res, nil
}

// completeCandidate fills the defaults the parser may leave out and checks
// the result.
func (w *Workflow) completeCandidate(c core.Candidate, text string) (core.Candidate, error) {
	c.OriginalText = text
	if c.Type == "" {
		c.Type = core.Expense
	}
	if c.Date.IsZero() {
		c.Date = core.DateOf(w.now())
	}
	if c.Category == "" {
		c.Category = core.DefaultCategory
	}
	if err := c.Validate(); err != nil {
		return core.Candidate{}, fmt.Errorf("invalid candidate: %w", err)
	}
	return c, nil
}

func (w *Workflow) confirm(ctx context.Context) (Result, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return Result{}, ErrClosed
	}
	if w.state != AwaitingConfirmation || w.confirming {
		state, busy := w.state, w.confirming
		w.mu.Unlock()
		if busy {
			return Result{}, fmt.Errorf("%w: confirm already in flight", ErrInvalidState)
		}
		return Result{}, fmt.Errorf("%w: confirm while %s", ErrInvalidState, state)
	}
	w.confirming = true
	cand := w.candidate
	gen := w.generation
	w.mu.Unlock()

	id, err := w.saver.Save(ctx, cand)

	w.mu.Lock()
	if w.closed || w.generation != gen {
		w.mu.Unlock()
		slog.DebugContext(ctx, "Discarding save result after close", "id", id)
		return Result{}, ErrClosed
	}
	w.confirming = false
	if err != nil {
		w.mu.Unlock()
		slog.ErrorContext(ctx, "Failed to save confirmed transaction",
			"type", cand.Type,
			"error", err)
		return Result{}, fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}
	w.candidate = core.Candidate{}
	w.transition(Confirmed)
	w.transition(Idle)
	w.unlockAndEmit(ctx)

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"type", cand.Type,
		"amount", cand.Amount.String())

	if w.notifier != nil {
		w.notifier.Publish(ctx, notify.TransactionCreated(id, cand.Type, w.now()))
	}
	return Result{Outcome: OutcomeSaved, Candidate: &cand, TransactionID: id}, nil
}

func (w *Workflow) dismiss(ctx context.Context) (Result, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return Result{}, ErrClosed
	}
	if w.state != AwaitingConfirmation || w.confirming {
		state := w.state
		w.mu.Unlock()
		return Result{}, fmt.Errorf("%w: dismiss while %s", ErrInvalidState, state)
	}
	w.candidate = core.Candidate{}
	w.transition(Dismissed)
	w.transition(Idle)
	w.unlockAndEmit(ctx)
	return Result{Outcome: OutcomeDismissed}, nil
}

// transition must be called with mu held.
func (w *Workflow) transition(to State) {
	w.pending = append(w.pending, Transition{From: w.state, To: to})
	w.state = to
}

func (w *Workflow) unlockAndEmit(ctx context.Context) {
	pending := w.pending
	w.pending = nil
	w.mu.Unlock()
	for _, t := range pending {
		for _, fn := range w.observers {
			fn(ctx, t)
		}
	}
}
