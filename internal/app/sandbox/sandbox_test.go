package sandbox

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"challenge_grader/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShellSandbox(t *testing.T, timeout time.Duration) (*Sandbox, string) {
	t.Helper()
	tmp := t.TempDir()
	sb, err := New(Options{
		Command:      []string{"/bin/sh"},
		SourceSuffix: ".sh",
		Timeout:      timeout,
		OutputLimit:  1024,
		TempDir:      tmp,
	}, nil)
	require.NoError(t, err)
	return sb, tmp
}

func requireEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries, "working directories must be removed")
}

func TestRunFeedsStdin(t *testing.T) {
	sb, tmp := newShellSandbox(t, 2*time.Second)

	res, err := sb.Run(context.Background(), `read n; echo "got $n"`, "5\n")
	require.NoError(t, err)
	require.Equal(t, model.ExitCompleted, res.Status)
	require.Equal(t, "got 5\n", res.Stdout)
	require.Positive(t, res.Elapsed)
	requireEmptyDir(t, tmp)
}

func TestRunNonZeroExit(t *testing.T) {
	sb, tmp := newShellSandbox(t, 2*time.Second)

	res, err := sb.Run(context.Background(), "echo partial; echo oops >&2; exit 3", "")
	require.NoError(t, err)
	require.Equal(t, model.ExitRuntimeError, res.Status)
	require.Equal(t, "oops", res.Message)
	require.Empty(t, res.Stdout)
	requireEmptyDir(t, tmp)
}

func TestRunTimeout(t *testing.T) {
	sb, tmp := newShellSandbox(t, 300*time.Millisecond)

	start := time.Now()
	res, err := sb.Run(context.Background(), "echo partial; sleep 10", "")
	require.NoError(t, err)
	require.Equal(t, model.ExitTimedOut, res.Status)
	require.Empty(t, res.Stdout, "partial output of a timed-out run is discarded")
	require.Less(t, time.Since(start), 3*time.Second)
	requireEmptyDir(t, tmp)
}

func TestRunTimeoutKillsProcessTree(t *testing.T) {
	sb, tmp := newShellSandbox(t, 300*time.Millisecond)

	start := time.Now()
	res, err := sb.Run(context.Background(), "sleep 20 & sleep 20 & wait", "")
	require.NoError(t, err)
	require.Equal(t, model.ExitTimedOut, res.Status)
	require.Less(t, time.Since(start), 3*time.Second)
	requireEmptyDir(t, tmp)
}

func TestRunCleanExitWithDetachedChild(t *testing.T) {
	sb, tmp := newShellSandbox(t, 2*time.Second)

	start := time.Now()
	res, err := sb.Run(context.Background(), "echo hi; (sleep 20 &); exit 0", "")
	require.NoError(t, err)
	require.Equal(t, model.ExitCompleted, res.Status)
	require.Equal(t, "hi\n", res.Stdout)
	require.Less(t, time.Since(start), 2*time.Second)
	requireEmptyDir(t, tmp)
}

func TestRunOutputLimit(t *testing.T) {
	sb, _ := newShellSandbox(t, 2*time.Second)

	res, err := sb.Run(context.Background(), "i=0; while [ $i -lt 500 ]; do echo 0123456789; i=$((i+1)); done", "")
	require.NoError(t, err)
	require.Equal(t, model.ExitRuntimeError, res.Status)
	require.Contains(t, res.Message, "Output limit exceeded")
}

func TestRunMissingInterpreter(t *testing.T) {
	sb, err := New(Options{Command: []string{"/nonexistent/interpreter"}, TempDir: t.TempDir()}, nil)
	require.NoError(t, err)

	res, err := sb.Run(context.Background(), "print(1)", "")
	require.NoError(t, err)
	require.Equal(t, model.ExitRuntimeError, res.Status)
	require.NotEmpty(t, res.Message)
}

func TestConcurrentRunsAreIsolated(t *testing.T) {
	sb, tmp := newShellSandbox(t, 5*time.Second)
	const script = `read x; echo "$x" > state.txt; sleep 0.1; cat state.txt`

	var wg sync.WaitGroup
	outputs := make([]string, 8)
	for i := range outputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := sb.Run(context.Background(), script, fmt.Sprintf("run-%d\n", i))
			assert.NoError(t, err)
			outputs[i] = res.Stdout
		}(i)
	}
	wg.Wait()

	for i, out := range outputs {
		require.Equal(t, fmt.Sprintf("run-%d\n", i), out)
	}
	requireEmptyDir(t, tmp)
}

func TestMaterializeEntrypoint(t *testing.T) {
	sb, err := New(Options{Command: []string{"python3"}, Entrypoint: "solve"}, nil)
	require.NoError(t, err)

	src := sb.materialize("def solve():\n    print(input())")
	require.True(t, strings.HasSuffix(src, "if __name__ == \"__main__\":\n    solve()\n"))

	guarded := "def solve():\n    pass\n\nif __name__ == \"__main__\":\n    solve()"
	require.Equal(t, guarded+"\n", sb.materialize(guarded))
}

func TestParseCommand(t *testing.T) {
	argv, err := ParseCommand(`python3 -u -X "utf8=1"`)
	require.NoError(t, err)
	require.Equal(t, []string{"python3", "-u", "-X", "utf8=1"}, argv)

	_, err = ParseCommand("   ")
	require.Error(t, err)
}
