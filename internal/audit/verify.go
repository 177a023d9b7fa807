package audit

import (
	"encoding/json"
	"fmt"
	"os"
)

// ChainError locates the first entry that breaks the journal's chain.
type ChainError struct {
	Line   int
	Reason string
}

func (e *ChainError) Error() string { return fmt.Sprintf("line %d: %s", e.Line, e.Reason) }

// Verify checks sequence continuity and the hash chain of the journal at
// path. An empty journal is valid.
func Verify(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read audit log: %w", err)
	}

	prev := genesisHash()
	var seq uint64
	for i, line := range splitLines(data) {
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return &ChainError{Line: i + 1, Reason: "invalid JSON: " + err.Error()}
		}
		if e.Seq != seq+1 {
			return &ChainError{Line: i + 1, Reason: fmt.Sprintf("sequence gap: expected %d, got %d", seq+1, e.Seq)}
		}
		if e.PrevHash != prev {
			return &ChainError{Line: i + 1, Reason: fmt.Sprintf("prev_hash mismatch: expected %s, got %s", short(prev), short(e.PrevHash))}
		}
		if sum := computeHash(e); e.Hash != sum {
			return &ChainError{Line: i + 1, Reason: fmt.Sprintf("hash mismatch: expected %s, got %s", short(sum), short(e.Hash))}
		}
		prev = e.Hash
		seq = e.Seq
	}
	return nil
}

func short(h string) string {
	if len(h) > 16 {
		return h[:16] + "..."
	}
	return h
}

// Tail returns the last n entries of the journal. Lines that do not decode
// are skipped.
func Tail(path string, n int) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	lines := splitLines(data)
	if n < 0 || n > len(lines) {
		n = len(lines)
	}
	entries := make([]Entry, 0, n)
	for _, line := range lines[len(lines)-n:] {
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
