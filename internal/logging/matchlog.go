package logging

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const maxEvidence = 64

// MatchRecord is written as a single JSON object per annotated document.
type MatchRecord struct {
	Timestamp  time.Time   `json:"ts"`
	RequestID  string      `json:"request_id"`
	Source     string      `json:"source"`
	Tokens     int         `json:"tokens"`
	Sets       []SetRecord `json:"sets"`
	DurationUS int64       `json:"duration_us"`
}

type SetRecord struct {
	Set      string        `json:"set"`
	Strategy string        `json:"strategy"`
	Skipped  bool          `json:"skipped"`
	Hits     []PhraseMatch `json:"hits"`
}

type PhraseMatch struct {
	Phrase string `json:"phrase"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
}

type MatchLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func NewMatchLogger(w io.Writer) *MatchLogger {
	return &MatchLogger{w: w}
}

func OpenMatchLog(path string) (*MatchLogger, func() error, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, err
	}
	return NewMatchLogger(file), file.Close, nil
}

func (l *MatchLogger) Write(record MatchRecord) error {
	if l == nil {
		return nil
	}
	record.Sets = sanitizeSets(record.Sets)

	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = l.w.Write(append(data, '\n'))
	return err
}

func sanitizeSets(sets []SetRecord) []SetRecord {
	if len(sets) == 0 {
		return nil
	}
	out := make([]SetRecord, len(sets))
	for i, set := range sets {
		out[i] = set
		out[i].Hits = make([]PhraseMatch, len(set.Hits))
		for j, hit := range set.Hits {
			out[i].Hits[j] = hit
			out[i].Hits[j].Phrase = truncate(hit.Phrase)
		}
	}
	return out
}

func truncate(s string) string {
	if len(s) <= maxEvidence {
		return s
	}
	cut := maxEvidence
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut])
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
