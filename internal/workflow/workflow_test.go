package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chitieu/internal/core"
	"chitieu/internal/ledger"
	"chitieu/internal/ledger/memory"
	"chitieu/internal/notify"
)

var today = time.Date(2025, 11, 5, 20, 0, 0, 0, time.UTC)

type fakeParser struct {
	mu    sync.Mutex
	calls []string
	cand  core.Candidate
	err   error
	// gate, when set, blocks Parse until closed.
	gate    chan struct{}
	started chan struct{}
}

func (p *fakeParser) Parse(ctx context.Context, text string) (core.Candidate, error) {
	p.mu.Lock()
	p.calls = append(p.calls, text)
	p.mu.Unlock()
	if p.started != nil {
		close(p.started)
	}
	if p.gate != nil {
		<-p.gate
	}
	return p.cand, p.err
}

func (p *fakeParser) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type fakeSaver struct {
	mu      sync.Mutex
	saved   []core.Candidate
	fail    int
	gate    chan struct{}
	started chan struct{}
}

func (s *fakeSaver) Save(_ context.Context, c core.Candidate) (string, error) {
	if s.started != nil {
		close(s.started)
	}
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail > 0 {
		s.fail--
		return "", ledger.ErrPersistence
	}
	s.saved = append(s.saved, c)
	return "tx-1", nil
}

type countingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *countingNotifier) Publish(_ context.Context, e notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

type echoChat struct{ got []string }

func (c *echoChat) Chat(_ context.Context, text string) (string, error) {
	c.got = append(c.got, text)
	return "trả lời: " + text, nil
}

func foodCandidate() core.Candidate {
	return core.Candidate{Amount: core.NewMoney(45000), Category: "food", Description: "phở"}
}

func newWorkflow(p Parser, s CandidateSaver, opts ...Option) *Workflow {
	opts = append([]Option{WithClock(func() time.Time { return today })}, opts...)
	return New(p, s, opts...)
}

func TestSubmit_NonMonetaryGoesToChat(t *testing.T) {
	parser := &fakeParser{cand: foodCandidate()}
	chat := &echoChat{}
	w := newWorkflow(parser, &fakeSaver{}, WithChat(chat))

	res, err := w.Dispatch(context.Background(), Submit{Text: "hello"})

	require.NoError(t, err)
	assert.Equal(t, OutcomeChat, res.Outcome)
	assert.Equal(t, "trả lời: hello", res.Reply)
	assert.Equal(t, []string{"hello"}, chat.got)
	assert.Zero(t, parser.count())
	assert.Equal(t, Idle, w.State())
}

func TestSubmit_MonetaryProducesCandidateWithDefaults(t *testing.T) {
	parser := &fakeParser{cand: foodCandidate()}
	var transitions []Transition
	w := newWorkflow(parser, &fakeSaver{}, OnTransition(func(_ context.Context, tr Transition) {
		transitions = append(transitions, tr)
	}))

	res, err := w.Dispatch(context.Background(), Submit{Text: "  ăn phở 45k  "})

	require.NoError(t, err)
	require.NotNil(t, res.Candidate)
	assert.Equal(t, OutcomeCandidate, res.Outcome)
	assert.Equal(t, core.Expense, res.Candidate.Type)
	assert.Equal(t, "2025-11-05", res.Candidate.Date.String())
	assert.Equal(t, "ăn phở 45k", res.Candidate.OriginalText)
	assert.Equal(t, AwaitingConfirmation, w.State())
	assert.Equal(t, []Transition{
		{Idle, Detecting},
		{Detecting, Parsing},
		{Parsing, AwaitingConfirmation},
	}, transitions)

	pending, ok := w.Candidate()
	assert.True(t, ok)
	assert.Equal(t, *res.Candidate, pending)
}

func TestSubmit_ParseFailureReturnsToIdle(t *testing.T) {
	parser := &fakeParser{err: errors.New("boom")}
	w := newWorkflow(parser, &fakeSaver{})

	res, err := w.Dispatch(context.Background(), Submit{Text: "45k"})

	assert.ErrorIs(t, err, ErrParseFailure)
	assert.Nil(t, res.Candidate)
	assert.Equal(t, Idle, w.State())
	assert.Equal(t, "Không thể phân tích giao dịch", UserMessage(err))
	_, ok := w.Candidate()
	assert.False(t, ok)
}

func TestSubmit_InvalidCandidateIsParseFailure(t *testing.T) {
	parser := &fakeParser{cand: core.Candidate{Amount: core.NewMoney(1000), Category: "salary", Type: core.Expense}}
	w := newWorkflow(parser, &fakeSaver{})

	_, err := w.Dispatch(context.Background(), Submit{Text: "1000đ"})

	assert.ErrorIs(t, err, ErrParseFailure)
	assert.ErrorIs(t, err, core.ErrInvalidCategory)
	assert.Equal(t, Idle, w.State())
}

func TestSubmit_RejectedWhileCandidatePending(t *testing.T) {
	parser := &fakeParser{cand: foodCandidate()}
	w := newWorkflow(parser, &fakeSaver{})
	ctx := context.Background()

	first, err := w.Dispatch(ctx, Submit{Text: "phở 45k"})
	require.NoError(t, err)

	_, err = w.Dispatch(ctx, Submit{Text: "cafe 30k"})

	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 1, parser.count())
	pending, _ := w.Candidate()
	assert.Equal(t, *first.Candidate, pending)
}

func TestSubmit_RejectedWhileParsing(t *testing.T) {
	parser := &fakeParser{cand: foodCandidate(), gate: make(chan struct{}), started: make(chan struct{})}
	w := newWorkflow(parser, &fakeSaver{})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := w.Dispatch(ctx, Submit{Text: "phở 45k"})
		done <- err
	}()
	<-parser.started
	assert.Equal(t, Parsing, w.State())

	_, err := w.Dispatch(ctx, Submit{Text: "cafe 30k"})
	assert.ErrorIs(t, err, ErrInvalidState)

	close(parser.gate)
	require.NoError(t, <-done)
	assert.Equal(t, AwaitingConfirmation, w.State())
}

func TestConfirm_SavesAndNotifiesOnce(t *testing.T) {
	saver := &fakeSaver{}
	notifier := &countingNotifier{}
	w := newWorkflow(&fakeParser{cand: foodCandidate()}, saver, WithNotifier(notifier))
	ctx := context.Background()

	_, err := w.Dispatch(ctx, Submit{Text: "phở 45k"})
	require.NoError(t, err)

	res, err := w.Dispatch(ctx, Confirm{})

	require.NoError(t, err)
	assert.Equal(t, OutcomeSaved, res.Outcome)
	assert.Equal(t, "tx-1", res.TransactionID)
	assert.Equal(t, Idle, w.State())
	require.Len(t, saver.saved, 1)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, notify.KindTransactionCreated, notifier.events[0].Kind)
	assert.Equal(t, "tx-1", notifier.events[0].TransactionID)
	assert.Equal(t, "Đã lưu chi tiêu: 45.000 ₫", SavedMessage(*res.Candidate))

	_, err = w.Dispatch(ctx, Confirm{})
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Len(t, notifier.events, 1)
}

func TestConfirm_FailureKeepsCandidateAndAllowsRetry(t *testing.T) {
	saver := &fakeSaver{fail: 1}
	notifier := &countingNotifier{}
	parser := &fakeParser{cand: foodCandidate()}
	w := newWorkflow(parser, saver, WithNotifier(notifier))
	ctx := context.Background()

	_, err := w.Dispatch(ctx, Submit{Text: "phở 45k"})
	require.NoError(t, err)

	_, err = w.Dispatch(ctx, Confirm{})
	assert.ErrorIs(t, err, ErrPersistenceFailure)
	assert.ErrorIs(t, err, ledger.ErrPersistence)
	assert.Equal(t, "Không thể lưu giao dịch", UserMessage(err))
	assert.Equal(t, AwaitingConfirmation, w.State())
	assert.Empty(t, notifier.events)

	res, err := w.Dispatch(ctx, Confirm{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSaved, res.Outcome)
	assert.Len(t, notifier.events, 1)
	assert.Equal(t, 1, parser.count())
}

func TestConfirm_SecondConfirmWhileInFlightIsRejected(t *testing.T) {
	saver := &fakeSaver{gate: make(chan struct{}), started: make(chan struct{})}
	w := newWorkflow(&fakeParser{cand: foodCandidate()}, saver)
	ctx := context.Background()

	_, err := w.Dispatch(ctx, Submit{Text: "phở 45k"})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := w.Dispatch(ctx, Confirm{})
		done <- err
	}()
	<-saver.started

	_, err = w.Dispatch(ctx, Confirm{})
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = w.Dispatch(ctx, Dismiss{})
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = w.Dispatch(ctx, Submit{Text: "cafe 30k"})
	assert.ErrorIs(t, err, ErrInvalidState)

	close(saver.gate)
	require.NoError(t, <-done)
	assert.Len(t, saver.saved, 1)
	assert.Equal(t, Idle, w.State())
}

func TestDismiss_DiscardsWithoutSaving(t *testing.T) {
	saver := &fakeSaver{}
	var transitions []Transition
	w := newWorkflow(&fakeParser{cand: foodCandidate()}, saver, OnTransition(func(_ context.Context, tr Transition) {
		transitions = append(transitions, tr)
	}))
	ctx := context.Background()

	_, err := w.Dispatch(ctx, Submit{Text: "phở 45k"})
	require.NoError(t, err)

	res, err := w.Dispatch(ctx, Dismiss{})

	require.NoError(t, err)
	assert.Equal(t, OutcomeDismissed, res.Outcome)
	assert.Equal(t, Idle, w.State())
	assert.Empty(t, saver.saved)
	assert.Equal(t, Transition{Dismissed, Idle}, transitions[len(transitions)-1])

	_, err = w.Dispatch(ctx, Dismiss{})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestConfirmAndDismissInIdleAreRejected(t *testing.T) {
	w := newWorkflow(&fakeParser{}, &fakeSaver{})

	_, err := w.Dispatch(context.Background(), Confirm{})
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = w.Dispatch(context.Background(), Dismiss{})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestClose_DiscardsLateParseResult(t *testing.T) {
	parser := &fakeParser{cand: foodCandidate(), gate: make(chan struct{}), started: make(chan struct{})}
	w := newWorkflow(parser, &fakeSaver{})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := w.Dispatch(ctx, Submit{Text: "phở 45k"})
		done <- err
	}()
	<-parser.started

	w.Close()
	w.Close()
	close(parser.gate)

	assert.ErrorIs(t, <-done, ErrClosed)
	_, ok := w.Candidate()
	assert.False(t, ok)

	_, err := w.Dispatch(ctx, Submit{Text: "cafe 30k"})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestClose_HidesPendingCandidate(t *testing.T) {
	w := newWorkflow(&fakeParser{cand: foodCandidate()}, &fakeSaver{})

	_, err := w.Dispatch(context.Background(), Submit{Text: "phở 45k"})
	require.NoError(t, err)
	_, ok := w.Candidate()
	require.True(t, ok)

	w.Close()
	cand, ok := w.Candidate()
	assert.False(t, ok)
	assert.Equal(t, core.Candidate{}, cand)
}

func TestClose_DiscardsLateSaveResult(t *testing.T) {
	saver := &fakeSaver{gate: make(chan struct{}), started: make(chan struct{})}
	notifier := &countingNotifier{}
	w := newWorkflow(&fakeParser{cand: foodCandidate()}, saver, WithNotifier(notifier))
	ctx := context.Background()

	_, err := w.Dispatch(ctx, Submit{Text: "phở 45k"})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := w.Dispatch(ctx, Confirm{})
		done <- err
	}()
	<-saver.started
	w.Close()
	close(saver.gate)

	assert.ErrorIs(t, <-done, ErrClosed)
	assert.Empty(t, notifier.events)
}

func TestLedgerSaver_RoutesByType(t *testing.T) {
	store := memory.New()
	w := newWorkflow(&fakeParser{cand: core.Candidate{
		Amount: core.NewMoney(20000000), Category: "salary", Type: core.Income,
	}}, LedgerSaver{Writer: store})
	ctx := context.Background()

	_, err := w.Dispatch(ctx, Submit{Text: "lương 20tr"})
	require.NoError(t, err)
	res, err := w.Dispatch(ctx, Confirm{})
	require.NoError(t, err)

	in, err := store.GetIncome(ctx, res.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, core.SourceAI, in.Source)
	assert.Equal(t, "lương 20tr", res.Candidate.OriginalText)
	assert.Equal(t, "Đã lưu thu nhập: 20.000.000 ₫", SavedMessage(*res.Candidate))
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, "Phiên trò chuyện đã kết thúc", UserMessage(ErrClosed))
	assert.NotEmpty(t, UserMessage(errors.New("other")))
}
