package main

import (
	"bufio"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"chitieu/internal/cache"
	"chitieu/internal/cli"
	"chitieu/internal/log"
	"chitieu/internal/workflow"
)

var (
	yesWords = map[string]bool{"y": true, "yes": true, "ok": true, "có": true, "co": true}
	noWords  = map[string]bool{"n": true, "no": true, "không": true, "khong": true}
)

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Type transactions or questions; confirm each parsed candidate",
		Long: `Reads one message per line. Text that looks like a transaction is parsed
into a candidate and waits for y/n; anything else goes to the assistant when
one is configured. /quit ends the session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			wf, stop, err := a.newWorkflow(ctx)
			if err != nil {
				return err
			}
			defer stop()
			return a.chatLoop(ctx, wf)
		},
	}
}

// newWorkflow wires the candidate workflow to the configured parse service,
// the store, the event hub and the metrics.
func (a *app) newWorkflow(ctx context.Context) (*workflow.Workflow, func(), error) {
	ledgerSvc, err := a.open(ctx)
	if err != nil {
		return nil, nil, err
	}
	svc, err := cli.BuildParseServices(ctx, a.cfg, a.backend.Remote, a.metrics)
	if err != nil {
		return nil, nil, err
	}

	var saver workflow.CandidateSaver = workflow.LedgerSaver{Writer: ledgerSvc.Store()}
	if a.backend.Remote != nil {
		saver = a.backend.Remote
	}

	sl := log.NewStructuredLogger(a.logger.WithComponent(log.ComponentWorkflow))
	opts := []workflow.Option{
		workflow.WithNotifier(a.hub),
		workflow.WithClock(a.now),
		workflow.OnTransition(a.metrics.ObserveTransition),
		workflow.OnTransition(func(ctx context.Context, t workflow.Transition) {
			sl.LogTransition(ctx, t.From.String(), t.To.String())
		}),
	}
	if svc.Chat != nil {
		opts = append(opts, workflow.WithChat(svc.Chat))
	}
	wf := workflow.New(svc.Parser, saver, opts...)

	sweeper := cache.NewManager(svc.Cache)
	go sweeper.Run(ctx, time.Minute)

	return wf, func() {
		wf.Close()
		sweeper.Stop()
	}, nil
}

func (a *app) chatLoop(ctx context.Context, wf *workflow.Workflow) error {
	sl := log.NewStructuredLogger(log.FromContext(ctx).WithComponent(log.ComponentWorkflow))
	scanner := bufio.NewScanner(a.in)
	a.printf("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "/quit" {
			return nil
		}
		if line == "" {
			a.printf("> ")
			continue
		}

		var ev workflow.Event = workflow.Submit{Text: line}
		if wf.State() == workflow.AwaitingConfirmation {
			word := strings.ToLower(line)
			switch {
			case yesWords[word]:
				ev = workflow.Confirm{}
			case noWords[word]:
				ev = workflow.Dismiss{}
			default:
				a.printf("Lưu giao dịch này? [y/n] ")
				continue
			}
		}

		res, err := wf.Dispatch(ctx, ev)
		a.metrics.ObserveDispatch(res, err)
		if err != nil {
			if !errors.Is(err, workflow.ErrInvalidState) {
				sl.LogError(ctx, "Workflow event failed", err, log.ComponentWorkflow, dispatchOp(ev), nil)
			}
			a.printf("%s\n", workflow.UserMessage(err))
			if wf.State() == workflow.AwaitingConfirmation {
				a.printf("Lưu giao dịch này? [y/n] ")
			} else {
				a.printf("> ")
			}
			continue
		}

		switch res.Outcome {
		case workflow.OutcomeChat:
			printReply(a, res.Reply)
		case workflow.OutcomeCandidate:
			printCandidate(a, *res.Candidate)
			a.printf("Lưu giao dịch này? [y/n] ")
			continue
		case workflow.OutcomeSaved:
			c := *res.Candidate
			sl.LogTransactionCreated(ctx, res.TransactionID, string(c.Type), c.Amount.String(), c.Category)
			a.printf("%s\n", workflow.SavedMessage(c))
		case workflow.OutcomeDismissed:
			a.printf("Đã bỏ qua.\n")
		}
		a.printf("> ")
	}
	return scanner.Err()
}

func dispatchOp(ev workflow.Event) string {
	if _, ok := ev.(workflow.Submit); ok {
		return log.OpParse
	}
	return log.OpConfirm
}
