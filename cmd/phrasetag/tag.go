package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrasetag/phrasetag/internal/config"
	"github.com/phrasetag/phrasetag/internal/logging"
	"github.com/phrasetag/phrasetag/internal/phrase"
	"github.com/phrasetag/phrasetag/internal/server"
	"github.com/spf13/cobra"
)

type tagLine struct {
	Line int `json:"line"`
	phrase.Result
}

func newTagCmd() *cobra.Command {
	var configPath string
	var inputPath string
	var format string
	var sets []string

	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Tag phrases in documents, one document per input line",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return errors.New("config path is required")
			}
			if format != "json" && format != "text" {
				return fmt.Errorf("unknown format %q", format)
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			engine, err := phrase.BuildEngine(cfg)
			if err != nil {
				return err
			}

			var matchLog *logging.MatchLogger
			if cfg.Logging.MatchLog != "" {
				l, closer, err := logging.OpenMatchLog(cfg.ResolvePath(cfg.Logging.MatchLog))
				if err != nil {
					return err
				}
				defer func() { _ = closer() }()
				matchLog = l
			}

			in := cmd.InOrStdin()
			if inputPath != "" && inputPath != "-" {
				file, err := os.Open(inputPath)
				if err != nil {
					return err
				}
				defer func() { _ = file.Close() }()
				in = file
			}

			count, err := tagLines(in, cmd.OutOrStdout(), engine, sets, format, matchLog)
			if err != nil {
				return err
			}
			logger.Info("tagging finished", "documents", count, "sets", len(engine.Sets))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	cmd.Flags().StringVar(&inputPath, "in", "", "Input file (default stdin)")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json|text")
	cmd.Flags().StringSliceVar(&sets, "sets", nil, "Only evaluate these phrase sets")

	return cmd
}

func tagLines(in io.Reader, out io.Writer, engine *phrase.Engine, sets []string, format string, matchLog *logging.MatchLogger) (int, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	enc := json.NewEncoder(out)

	n := 0
	for scanner.Scan() {
		n++
		start := time.Now()
		result, err := engine.EvaluateText(scanner.Text(), sets...)
		if err != nil {
			return n, fmt.Errorf("line %d: %w", n, err)
		}
		elapsed := time.Since(start)

		if err := matchLog.Write(server.Record(uuid.NewString(), fmt.Sprintf("tag:%d", n), result, elapsed)); err != nil {
			return n, err
		}

		switch format {
		case "text":
			if _, err := io.WriteString(out, renderText(n, result)); err != nil {
				return n, err
			}
		default:
			if err := enc.Encode(tagLine{Line: n, Result: result}); err != nil {
				return n, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return n, err
	}
	return n, nil
}

// renderText brackets matched chunks for partitioning sets and lists hits
// with their token spans for the others.
func renderText(line int, result phrase.Result) string {
	var b strings.Builder
	for _, set := range result.Sets {
		fmt.Fprintf(&b, "%d\t%s\t", line, set.Set)
		if set.Output == config.OutputChunks {
			parts := make([]string, 0, len(set.Chunks))
			for _, c := range set.Chunks {
				text := strings.Join(c.Tokens, " ")
				if c.Matched {
					text = "[" + text + "]"
				}
				parts = append(parts, text)
			}
			b.WriteString(strings.Join(parts, " "))
		} else {
			parts := make([]string, 0, len(set.Hits))
			for _, h := range set.Hits {
				parts = append(parts, fmt.Sprintf("%s@%d-%d", strings.Join(h.Phrase, " "), h.Start, h.End))
			}
			if len(parts) == 0 {
				b.WriteString("-")
			}
			b.WriteString(strings.Join(parts, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}
