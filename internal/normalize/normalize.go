// Package normalize turns raw text into the token sequences the matchers
// consume. It is the input adapter for the CLI and server; the matching core
// never depends on it.
package normalize

import (
	"html"
	"net/url"
	"strings"
	"unicode"
)

type Options struct {
	MaxDecodeDepth int
	Lowercase      bool
	HTMLEntity     bool
}

type Result struct {
	Raw        string
	Normalized string
}

func Apply(input string, opts Options) Result {
	res := Result{Raw: input, Normalized: input}

	depth := opts.MaxDecodeDepth
	if depth <= 0 {
		depth = 2
	}

	decoded := res.Normalized
	for i := 0; i < depth; i++ {
		next, ok := decodeOnce(decoded)
		if !ok || next == decoded {
			break
		}
		decoded = next
	}

	res.Normalized = decoded

	if opts.HTMLEntity {
		res.Normalized = html.UnescapeString(res.Normalized)
	}
	if opts.Lowercase {
		res.Normalized = strings.ToLower(res.Normalized)
	}

	return res
}

// Tokens normalizes input and splits it into word tokens. A token is a
// maximal run of letters, digits and combining marks; apostrophes inside a
// word are kept.
func Tokens(input string, opts Options) []string {
	return Split(Apply(input, opts).Normalized)
}

func Split(text string) []string {
	runes := []rune(text)
	var tokens []string
	start := -1
	for i, r := range runes {
		if isWordRune(r) || (r == '\'' && start >= 0 && i+1 < len(runes) && isWordRune(runes[i+1])) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, string(runes[start:i]))
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, string(runes[start:]))
	}
	return tokens
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

func decodeOnce(input string) (string, bool) {
	decoded, err := url.PathUnescape(input)
	if err != nil {
		return input, false
	}
	return decoded, true
}
