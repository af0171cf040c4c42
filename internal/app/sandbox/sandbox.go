// Package sandbox runs one untrusted program against one test input.
//
// The only guarantee is a wall-clock bound: the program runs as the current
// user with normal filesystem and network access. Each run gets its own
// temporary working directory and process group, both released before Run
// returns.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"challenge_grader/internal/domain/model"

	"github.com/google/shlex"
	"go.uber.org/zap"
)

const (
	DefaultTimeout     = 5 * time.Second
	DefaultOutputLimit = 16 << 20

	stderrLimit = 64 << 10
	waitDelay   = 500 * time.Millisecond
)

type Options struct {
	// Command is the interpreter argv; the materialized source path is appended.
	Command      []string
	SourceSuffix string
	// Entrypoint, when set, is called from an appended __main__ guard unless the
	// source already has one.
	Entrypoint  string
	Timeout     time.Duration
	OutputLimit int
	// TempDir is the parent of per-run working directories ("" = os.TempDir()).
	TempDir string
}

type Sandbox struct {
	opts Options
	log  *zap.Logger
}

// ParseCommand splits a configured interpreter command line such as "python3 -u".
func ParseCommand(s string) ([]string, error) {
	argv, err := shlex.Split(s)
	if err != nil {
		return nil, fmt.Errorf("parse sandbox command %q: %w", s, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("sandbox command is empty")
	}
	return argv, nil
}

func New(opts Options, log *zap.Logger) (*Sandbox, error) {
	if len(opts.Command) == 0 {
		return nil, fmt.Errorf("sandbox command is empty")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.OutputLimit <= 0 {
		opts.OutputLimit = DefaultOutputLimit
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Sandbox{opts: opts, log: log.Named("sandbox")}, nil
}

func (s *Sandbox) Timeout() time.Duration { return s.opts.Timeout }

// Run executes source once with input on stdin. Timeouts and program failures
// are reported through the result status; the error is reserved for failures
// of the sandbox itself.
func (s *Sandbox) Run(ctx context.Context, source, input string) (model.ExecutionResult, error) {
	dir, err := os.MkdirTemp(s.opts.TempDir, "submission-*")
	if err != nil {
		return model.ExecutionResult{}, fmt.Errorf("create working dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			s.log.Warn("failed to remove working dir", zap.String("dir", dir), zap.Error(err))
		}
	}()

	srcPath := filepath.Join(dir, "main"+s.opts.SourceSuffix)
	if err := os.WriteFile(srcPath, []byte(s.materialize(source)), 0o600); err != nil {
		return model.ExecutionResult{}, fmt.Errorf("write source: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	argv := append(slices.Clone(s.opts.Command), srcPath)
	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = []string{
		"PATH=" + os.Getenv("PATH"),
		"HOME=" + dir,
		"TMPDIR=" + dir,
		"PYTHONDONTWRITEBYTECODE=1",
		"PYTHONIOENCODING=utf-8",
	}
	cmd.Stdin = strings.NewReader(input)
	stdout := &limitedBuffer{limit: s.opts.OutputLimit}
	stderr := &limitedBuffer{limit: stderrLimit}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return killProcessGroup(cmd) }
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err = cmd.Run()
	res := model.ExecutionResult{Elapsed: time.Since(start)}
	// a clean exit whose stray children still hold stdout is a completed run
	if errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil && cmd.ProcessState.Success() {
		err = nil
	}
	// reap anything the program left running in its group
	_ = killProcessGroup(cmd)

	switch {
	case err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded):
		res.Status = model.ExitTimedOut
		res.Message = fmt.Sprintf("Timeout (exceeded %s)", s.opts.Timeout)
	case err != nil:
		res.Status = model.ExitRuntimeError
		res.Message = runtimeMessage(err, stderr.String())
	case stdout.truncated:
		res.Status = model.ExitRuntimeError
		res.Message = fmt.Sprintf("Output limit exceeded (%d bytes)", s.opts.OutputLimit)
	default:
		res.Status = model.ExitCompleted
		res.Stdout = stdout.String()
	}

	s.log.Debug("run finished",
		zap.String("status", string(res.Status)),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

func (s *Sandbox) materialize(source string) string {
	if s.opts.Entrypoint == "" || strings.Contains(source, "__main__") {
		return source + "\n"
	}
	return source + "\n\nif __name__ == \"__main__\":\n    " + s.opts.Entrypoint + "()\n"
}

func runtimeMessage(err error, stderr string) string {
	stderr = strings.TrimSpace(stderr)
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && stderr != "" {
		return stderr
	}
	if stderr != "" {
		return err.Error() + ": " + stderr
	}
	return err.Error()
}

// limitedBuffer keeps at most limit bytes and swallows the rest so the child
// never blocks on a full pipe.
type limitedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.buf.Len(); room < len(p) {
		b.truncated = true
		if room > 0 {
			b.buf.Write(p[:room])
		}
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *limitedBuffer) String() string { return b.buf.String() }
