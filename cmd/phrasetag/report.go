package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/phrasetag/phrasetag/internal/report"
	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	var logPath string
	var window time.Duration
	var top int
	var sets []string
	var format string
	var outPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Rank tagged phrases and sets from a match log",
		Long: "Reads the JSONL match log written by tag and serve (logging.matchLog) and\n" +
			"prints document and hit totals, the most frequent phrases and sets,\n" +
			"prefilter skips and evaluation latency percentiles.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if logPath == "" {
				return errors.New("match log path is required (--log)")
			}
			if top < 1 {
				return fmt.Errorf("--top must be >= 1, got %d", top)
			}

			reader := report.Reader{}
			if window > 0 {
				reader.Since = time.Now().Add(-window)
			}
			records, err := reader.Read(logPath)
			if err != nil {
				return err
			}

			summary := report.Summarize(records, report.Options{Top: top, Sets: sets})
			out := cmd.OutOrStdout()
			switch format {
			case "text":
				return report.WriteOutput(out, outPath, []byte(report.RenderText(summary)))
			case "md":
				return report.WriteOutput(out, outPath, []byte(report.RenderMarkdown(summary)))
			case "json":
				data, err := report.RenderJSON(summary)
				if err != nil {
					return err
				}
				return report.WriteOutput(out, outPath, data)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}

	cmd.Flags().StringVarP(&logPath, "log", "l", "", "Match log JSONL written by tag or serve")
	cmd.Flags().DurationVar(&window, "since", 0, "Only count documents tagged within this window (e.g. 10m)")
	cmd.Flags().IntVar(&top, "top", 10, "Number of phrases to rank")
	cmd.Flags().StringSliceVar(&sets, "sets", nil, "Only count hits from these phrase sets")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text|md|json")
	cmd.Flags().StringVar(&outPath, "out", "", "Write the report to this file instead of stdout")

	return cmd
}
