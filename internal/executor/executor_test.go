package executor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelocantos/eliash/internal/command"
)

func TestMain(m *testing.M) {
	Init()
	os.Exit(m.Run())
}

func requireBinaries(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			t.Skipf("%s not available: %v", p, err)
		}
	}
}

// testExecutor returns an executor whose children write to temp files.
func testExecutor(t *testing.T) (x *Executor, stdout, stderr *os.File) {
	t.Helper()
	dir := t.TempDir()
	var err error
	stdout, err = os.Create(filepath.Join(dir, "stdout"))
	require.NoError(t, err)
	stderr, err = os.Create(filepath.Join(dir, "stderr"))
	require.NoError(t, err)
	t.Cleanup(func() {
		stdout.Close()
		stderr.Close()
	})

	devnull, err := os.Open(os.DevNull)
	require.NoError(t, err)
	t.Cleanup(func() { devnull.Close() })

	return &Executor{Stdin: devnull, Stdout: stdout, Stderr: stderr}, stdout, stderr
}

func readFile(t *testing.T, f *os.File) string {
	t.Helper()
	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	return string(data)
}

// pipeFDs lists the descriptors of this process that refer to a pipe.
func pipeFDs(t *testing.T) map[string]string {
	t.Helper()
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skipf("descriptor table not inspectable: %v", err)
	}
	fds := make(map[string]string)
	for _, e := range entries {
		link, err := os.Readlink(filepath.Join("/proc/self/fd", e.Name()))
		if err != nil {
			continue
		}
		if strings.HasPrefix(link, "pipe:") {
			fds[e.Name()] = link
		}
	}
	return fds
}

func TestPipeEchoWc(t *testing.T) {
	requireBinaries(t, "/bin/echo", "/usr/bin/wc")
	x, stdout, _ := testExecutor(t)

	status, err := x.RunPipe(command.NewPipe(
		command.NewExec("/bin/echo", "hi"),
		command.NewExec("/usr/bin/wc", "-l"),
	))
	require.NoError(t, err)
	assert.Equal(t, PipeStatus{Left: 0, Right: 0}, status)
	assert.Equal(t, "1", strings.TrimSpace(readFile(t, stdout)))
}

func TestPipeClosesBothEnds(t *testing.T) {
	requireBinaries(t, "/bin/echo", "/bin/cat")
	x, _, _ := testExecutor(t)
	p := command.NewPipe(command.NewExec("/bin/echo", "x"), command.NewExec("/bin/cat"))

	// Warm up so lazily created runtime descriptors exist before the snapshot.
	_, err := x.RunPipe(p)
	require.NoError(t, err)

	before := pipeFDs(t)
	for i := 0; i < 3; i++ {
		_, err := x.RunPipe(p)
		require.NoError(t, err)
	}
	assert.Equal(t, before, pipeFDs(t))
}

func TestPipeCollectsChildStatuses(t *testing.T) {
	requireBinaries(t, "/bin/echo")
	x, _, stderr := testExecutor(t)

	status, err := x.RunPipe(command.NewPipe(
		command.NewExec("/bin/echo", "unread"),
		command.NewExec("/nonexistent/reader"),
	))
	require.NoError(t, err, "a failing member is not the pipe's own failure")
	assert.Equal(t, StatusExecNoent, status.Right)
	assert.Contains(t, readFile(t, stderr), "exec /nonexistent/reader")
}

func TestLaunchRedirectOut(t *testing.T) {
	requireBinaries(t, "/bin/echo")
	x, stdout, _ := testExecutor(t)
	out := filepath.Join(t.TempDir(), "t.out")

	status, err := x.Launch(command.RedirOut(command.NewExec("/bin/echo", "x"), out))
	require.NoError(t, err)
	assert.Equal(t, 0, status)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "x\n", string(data))
	assert.Empty(t, readFile(t, stdout))
}

func TestLaunchRedirectTruncates(t *testing.T) {
	requireBinaries(t, "/bin/echo")
	x, _, _ := testExecutor(t)
	out := filepath.Join(t.TempDir(), "t.out")
	require.NoError(t, os.WriteFile(out, []byte("a much longer previous content\n"), 0o644))

	status, err := x.Launch(command.RedirOut(command.NewExec("/bin/echo", "x"), out))
	require.NoError(t, err)
	assert.Equal(t, 0, status)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "x\n", string(data))
}

func TestLaunchRedirectIn(t *testing.T) {
	requireBinaries(t, "/bin/cat")
	x, stdout, _ := testExecutor(t)
	in := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(in, []byte("from file\n"), 0o644))

	status, err := x.Launch(command.RedirIn(command.NewExec("/bin/cat"), in))
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "from file\n", readFile(t, stdout))
}

func TestLaunchPipeWithRedirections(t *testing.T) {
	requireBinaries(t, "/bin/cat", "/usr/bin/wc")
	x, _, _ := testExecutor(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(in, []byte("a\nb\nc\n"), 0o644))

	status, err := x.Launch(command.NewPipe(
		command.RedirIn(command.NewExec("/bin/cat"), in),
		command.RedirOut(command.NewExec("/usr/bin/wc", "-l"), out),
	))
	require.NoError(t, err)
	assert.Equal(t, 0, status)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "3", strings.TrimSpace(string(data)))
}

func TestLaunchThreeStagePipe(t *testing.T) {
	requireBinaries(t, "/bin/echo", "/bin/cat", "/usr/bin/wc")
	x, stdout, _ := testExecutor(t)

	status, err := x.Launch(command.NewPipe(
		command.NewExec("/bin/echo", "one", "two"),
		command.NewPipe(command.NewExec("/bin/cat"), command.NewExec("/usr/bin/wc", "-w")),
	))
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "2", strings.TrimSpace(readFile(t, stdout)))
}

func TestLaunchExecFailures(t *testing.T) {
	x, _, stderr := testExecutor(t)

	status, err := x.Launch(command.NewExec("/nonexistent/program", "arg"))
	require.NoError(t, err)
	assert.Equal(t, StatusExecNoent, status)
	assert.Contains(t, readFile(t, stderr), "eliash: exec /nonexistent/program")

	notExec := filepath.Join(t.TempDir(), "data.txt")
	require.NoError(t, os.WriteFile(notExec, []byte("plain"), 0o644))
	status, err = x.Launch(command.NewExec(notExec))
	require.NoError(t, err)
	assert.Equal(t, StatusExecPerm, status)
}

func TestLaunchNoPathSearch(t *testing.T) {
	requireBinaries(t, "/bin/echo")
	x, _, _ := testExecutor(t)

	status, err := x.Launch(command.NewExec("echo", "hi"))
	require.NoError(t, err)
	assert.Equal(t, StatusExecNoent, status)
}

func TestLaunchRedirOpenFailure(t *testing.T) {
	requireBinaries(t, "/bin/cat")
	x, stdout, stderr := testExecutor(t)
	missing := filepath.Join(t.TempDir(), "missing.txt")

	status, err := x.Launch(command.RedirIn(command.NewExec("/bin/cat"), missing))
	require.NoError(t, err)
	assert.Equal(t, StatusRedir, status)
	assert.Contains(t, readFile(t, stderr), "open "+missing)
	assert.Empty(t, readFile(t, stdout))
}

func TestLaunchCreatesWithPerm(t *testing.T) {
	requireBinaries(t, "/bin/echo")
	x, _, _ := testExecutor(t)
	x.Perm = 0o600
	out := filepath.Join(t.TempDir(), "private.out")

	status, err := x.Launch(command.RedirOut(command.NewExec("/bin/echo", "x"), out))
	require.NoError(t, err)
	require.Equal(t, 0, status)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

type failingSpawner struct{}

func (failingSpawner) Spawn(command.Command, Stdio) (*os.Process, error) {
	return nil, &SpawnError{Err: os.ErrInvalid}
}

func TestSpawnFailure(t *testing.T) {
	x, _, _ := testExecutor(t)
	x.Spawner = failingSpawner{}

	status, err := x.Launch(command.NewExec("/bin/true"))
	var se *SpawnError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StatusSpawn, status)

	before := pipeFDs(t)
	_, err = x.RunPipe(command.NewPipe(command.NewExec("a"), command.NewExec("b")))
	require.ErrorAs(t, err, &se)
	assert.Equal(t, before, pipeFDs(t))
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, StatusOK, StatusOf(nil))
	assert.Equal(t, StatusFailure, StatusOf(os.ErrClosed))
	assert.Equal(t, StatusPipe, StatusOf(&PipeError{Err: os.ErrInvalid}))
	assert.Equal(t, StatusRedir, StatusOf(&RedirOpenError{Path: "x", Err: os.ErrNotExist}))
	assert.Equal(t, StatusUsage, StatusOf(&CodecError{Err: os.ErrInvalid}))
}
