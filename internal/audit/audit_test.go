package audit

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendN(t *testing.T, j *Journal, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := j.Append(Record{
			Line:     "/bin/echo hi | /usr/bin/wc -l",
			Tree:     "/bin/echo hi | /usr/bin/wc -l",
			Duration: time.Duration(i) * time.Millisecond,
			Cwd:      "/tmp",
		})
		require.NoError(t, err, "entry %d", i)
	}
}

func TestAppendAndVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	j, err := Open(path)
	require.NoError(t, err)

	appendN(t, j, 5)
	assert.NoError(t, Verify(path))
}

func TestAppendRecordsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	j, err := Open(path)
	require.NoError(t, err)

	e, err := j.Append(Record{Line: "a >", Status: 2, Err: errors.New("missing filename")})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), e.Seq)
	assert.Equal(t, "missing filename", e.Error)
	assert.Equal(t, genesisHash(), e.PrevHash)
	assert.NotEmpty(t, e.Hash)
}

func TestVerifyDetectsTampering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	j, err := Open(path)
	require.NoError(t, err)
	appendN(t, j, 3)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data = bytes.Replace(data, []byte(`"cwd":"/tmp"`), []byte(`"cwd":"/etc"`), 1)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	err = Verify(path)
	var ce *ChainError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, ce.Line)
	assert.Contains(t, ce.Reason, "hash mismatch")
}

func TestVerifyDetectsSequenceGap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	j, err := Open(path)
	require.NoError(t, err)
	appendN(t, j, 5)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := splitLines(data)
	var out []byte
	for i, line := range lines {
		if i == 2 {
			continue
		}
		out = append(append(out, line...), '\n')
	}
	require.NoError(t, os.WriteFile(path, out, 0o600))

	err = Verify(path)
	var ce *ChainError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 3, ce.Line)
	assert.Contains(t, ce.Reason, "sequence gap")
}

func TestVerifyEmptyJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	assert.NoError(t, Verify(path))
}

func TestJournalResumesChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	j1, err := Open(path)
	require.NoError(t, err)
	appendN(t, j1, 2)

	j2, err := Open(path)
	require.NoError(t, err)
	appendN(t, j2, 1)

	require.NoError(t, Verify(path))

	entries, err := Tail(path, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, uint64(3), entries[2].Seq)

	last, err := Tail(path, 1)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, uint64(3), last[0].Seq)
}

func TestOpenRejectsCorruptTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{not json\n"), 0o600))
	_, err := Open(path)
	assert.Error(t, err)
}
