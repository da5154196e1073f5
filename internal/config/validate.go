package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sort"
	"strings"
)

type ValidationError struct {
	Problems []string
}

func (v *ValidationError) Add(format string, args ...any) {
	v.Problems = append(v.Problems, fmt.Sprintf(format, args...))
}

func (v *ValidationError) Error() string {
	return fmt.Sprintf("%d validation error(s)", len(v.Problems))
}

// Validate checks everything except the server section and reports every
// problem at once.
func (c *Config) Validate() error {
	return c.validate(false)
}

// ValidateServe also checks the server section.
func (c *Config) ValidateServe() error {
	return c.validate(true)
}

func (c *Config) validate(serving bool) error {
	v := &ValidationError{}

	if c.ConfigVersion != 1 {
		v.Add("configVersion must be 1")
	}

	if serving {
		if err := validateListen(c.Server.Listen); err != nil {
			v.Add("server.listen invalid: %v", err)
		}
		if c.Server.MaxBodyBytes <= 0 {
			v.Add("server.maxBodyBytes must be > 0")
		}
		if c.Server.RateLimit.Enabled {
			if c.Server.RateLimit.RPS <= 0 {
				v.Add("server.rateLimit.rps must be > 0")
			}
			if c.Server.RateLimit.Burst <= 0 {
				v.Add("server.rateLimit.burst must be > 0")
			}
		}
	}

	if c.Metrics.Enabled && c.Metrics.Listen != "" {
		if err := validateListen(c.Metrics.Listen); err != nil {
			v.Add("metrics.listen invalid: %v", err)
		}
	}

	if c.Normalize.MaxDecodeDepth < 0 {
		v.Add("normalize.maxDecodeDepth must be >= 0")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		v.Add("logging.level must be debug|info|warn|error")
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		v.Add("logging.format must be json|text")
	}

	if len(c.Sets) == 0 {
		v.Add("sets must not be empty")
	}

	names := map[string]struct{}{}
	for i, set := range c.Sets {
		if set.Name == "" {
			v.Add("sets[%d].name is required", i)
		} else if _, exists := names[set.Name]; exists {
			v.Add("sets[%d].name %q is duplicated", i, set.Name)
		} else {
			names[set.Name] = struct{}{}
		}

		switch set.Strategy {
		case StrategyAho:
			switch set.Output {
			case OutputRaw, OutputResolved, OutputChunks:
			default:
				v.Add("sets[%d].output must be raw|resolved|chunks", i)
			}
		case StrategyKMP:
			if set.Output != OutputRaw {
				v.Add("sets[%d].output must be raw for kmp", i)
			}
		default:
			v.Add("sets[%d].strategy must be aho|kmp", i)
		}

		if set.PhrasesFile == "" && len(set.Phrases) == 0 {
			v.Add("sets[%d] needs phrasesFile or phrases", i)
		}
		if set.PhrasesFile != "" {
			if err := requireFile(c.resolvePath(set.PhrasesFile)); err != nil {
				v.Add("sets[%d].phrasesFile invalid: %v", i, err)
			}
		}
		for j, phrase := range set.Phrases {
			if strings.TrimSpace(phrase) == "" {
				v.Add("sets[%d].phrases[%d] is empty", i, j)
			}
		}
	}

	if len(v.Problems) > 0 {
		sort.Strings(v.Problems)
		return v
	}
	return nil
}

func validateListen(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return errors.New("address is required")
	}
	if _, err := net.ResolveTCPAddr("tcp", addr); err != nil {
		return err
	}
	return nil
}

func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}
