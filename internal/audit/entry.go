package audit

import "time"

// Entry is one journal record: a line the interpreter acted on and what
// came of it.
type Entry struct {
	Seq      uint64    `json:"seq"`
	Time     time.Time `json:"ts"`
	PrevHash string    `json:"prev_hash"`
	Line     string    `json:"line"`            // raw input line
	Tree     string    `json:"tree,omitempty"`  // formatted command tree; empty for builtins and parse errors
	Builtin  string    `json:"builtin,omitempty"`
	Status   int       `json:"status"`
	Error    string    `json:"error,omitempty"`
	Duration float64   `json:"duration_ms"`
	Cwd      string    `json:"cwd"`
	Hash     string    `json:"hash"` // SHA-256 of this entry with Hash empty
}

// Record is what a caller supplies for one line. The journal fills in the
// sequence, timestamp and chain fields.
type Record struct {
	Line     string
	Tree     string
	Builtin  string
	Status   int
	Err      error
	Duration time.Duration
	Cwd      string
}
