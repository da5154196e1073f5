package phrase

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/phrasetag/phrasetag/internal/config"
	"github.com/phrasetag/phrasetag/internal/normalize"
)

func BuildEngine(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	opts := normalize.Options{
		MaxDecodeDepth: cfg.Normalize.MaxDecodeDepth,
		Lowercase:      cfg.Normalize.Lowercase,
		HTMLEntity:     cfg.Normalize.HTMLEntity,
	}

	sets := make([]*Set, 0, len(cfg.Sets))
	for _, raw := range cfg.Sets {
		set, err := compileSet(raw, cfg, opts)
		if err != nil {
			return nil, fmt.Errorf("set %s: %w", raw.Name, err)
		}
		sets = append(sets, set)
	}

	return &Engine{Sets: sets, Normalize: opts}, nil
}

func compileSet(raw config.SetConfig, cfg *config.Config, opts normalize.Options) (*Set, error) {
	var lines []sourceLine
	if raw.PhrasesFile != "" {
		fromFile, err := readPhrases(cfg.ResolvePath(raw.PhrasesFile))
		if err != nil {
			return nil, err
		}
		lines = append(lines, fromFile...)
	}
	for i, p := range raw.Phrases {
		lines = append(lines, sourceLine{origin: fmt.Sprintf("phrases[%d]", i), text: p})
	}

	phrases := make([][]string, 0, len(lines))
	for _, line := range lines {
		tokens := normalize.Tokens(line.text, opts)
		if len(tokens) == 0 {
			return nil, fmt.Errorf("%s: phrase %q has no tokens", line.origin, line.text)
		}
		phrases = append(phrases, tokens)
	}

	var matcher Matcher
	var err error
	switch raw.Strategy {
	case config.StrategyAho, "":
		matcher, err = NewAhoMatcher(phrases, raw.Output)
	case config.StrategyKMP:
		matcher, err = NewKMPMatcher(phrases)
	default:
		return nil, fmt.Errorf("unknown strategy %q", raw.Strategy)
	}
	if err != nil {
		return nil, err
	}

	pf, err := newPrefilter(phrases)
	if err != nil {
		return nil, fmt.Errorf("prefilter: %w", err)
	}

	return &Set{
		Name:      raw.Name,
		Strategy:  raw.Strategy,
		Output:    raw.Output,
		Tags:      append([]string(nil), raw.Tags...),
		Phrases:   phrases,
		Matcher:   matcher,
		prefilter: pf,
	}, nil
}

type sourceLine struct {
	origin string
	text   string
}

func readPhrases(path string) ([]sourceLine, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var lines []sourceLine
	scanner := bufio.NewScanner(file)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, sourceLine{origin: fmt.Sprintf("%s:%d", path, n), text: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
