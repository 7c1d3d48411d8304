package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"chitieu/internal/chart"
	"chitieu/internal/cli"
	"chitieu/internal/core"
	"chitieu/internal/detect"
)

// textArg joins args, or reads all of stdin when there are none.
func textArg(a *app, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(a.in)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func newDetectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "detect [text]",
		Short: "Tell whether text looks like a transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := textArg(a, args)
			if err != nil {
				return err
			}
			a.printf("%t\n", detect.LooksLikeMonetaryText(text))
			return nil
		},
	}
}

func newChartCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chart [text]",
		Short: "Extract a pie chart series from an assistant answer",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := textArg(a, args)
			if err != nil {
				return err
			}
			return writeJSON(a.out, chart.ExtractSeries(text))
		},
	}
}

func newParseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <text>",
		Short: "Parse text into a transaction candidate without saving it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, err := a.remoteClient(cmd.Context())
			if err != nil {
				return err
			}
			svc, err := cli.BuildParseServices(cmd.Context(), a.cfg, remote, a.metrics)
			if err != nil {
				return err
			}
			c, err := svc.Parser.Parse(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			printCandidate(a, c)
			return nil
		},
	}
}

func printCandidate(a *app, c core.Candidate) {
	a.printf("%s %s\n", c.Type, core.FormatVND(c.Amount))
	a.printf("  category:    %s (%s)\n", core.CategoryLabel(c.Type, c.Category), c.Category)
	a.printf("  description: %s\n", c.Description)
	a.printf("  date:        %s\n", c.Date)
}

// printReply shows an assistant reply and, when it carries a percentage
// breakdown, the chart series read out of it.
func printReply(a *app, reply string) {
	if reply == "" {
		a.printf("(không có trợ lý, hãy nhập một khoản chi tiêu)\n")
		return
	}
	a.printf("%s\n", reply)
	points := chart.ExtractSeries(reply)
	if len(points) == 0 {
		return
	}
	a.printf("Biểu đồ:\n")
	for _, p := range points {
		a.printf("  %-29s %5.1f%% %s\n", p.Name, p.Value, strings.Repeat("█", int(p.Value/5)))
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
