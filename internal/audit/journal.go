package audit

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const genesisInput = "eliash-genesis"

// Journal is an append-only, hash-chained JSONL writer.
type Journal struct {
	mu       sync.Mutex
	path     string
	seq      uint64
	prevHash string
}

// Open opens or creates the journal at path and resumes the chain from its
// last entry.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}

	j := &Journal{path: path, prevHash: genesisHash()}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return j, nil
	case err != nil:
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	if lines := splitLines(data); len(lines) > 0 {
		var last Entry
		if err := json.Unmarshal(lines[len(lines)-1], &last); err != nil {
			return nil, fmt.Errorf("audit log %s: last entry: %w", path, err)
		}
		j.seq = last.Seq
		j.prevHash = last.Hash
	}
	return j, nil
}

// Append writes one entry for r and returns it.
func (j *Journal) Append(r Record) (Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	e := Entry{
		Seq:      j.seq + 1,
		Time:     time.Now().UTC(),
		PrevHash: j.prevHash,
		Line:     r.Line,
		Tree:     r.Tree,
		Builtin:  r.Builtin,
		Status:   r.Status,
		Duration: float64(r.Duration.Microseconds()) / 1000.0,
		Cwd:      r.Cwd,
	}
	if r.Err != nil {
		e.Error = r.Err.Error()
	}
	e.Hash = computeHash(e)

	data, err := json.Marshal(e)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal audit entry: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return Entry{}, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return Entry{}, fmt.Errorf("write audit entry: %w", err)
	}

	// Advance only once the entry is on disk, so a failed write can be retried.
	j.seq = e.Seq
	j.prevHash = e.Hash
	return e, nil
}

func (j *Journal) Path() string { return j.path }

func genesisHash() string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(genesisInput)))
}

func computeHash(e Entry) string {
	e.Hash = ""
	data, _ := json.Marshal(e)
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		if len(line) > 0 {
			lines = append(lines, line)
		}
	}
	return lines
}
