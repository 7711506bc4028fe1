// Package executor performs parsed tool requests against the project root.
//
// Requests execute strictly sequentially: a change or command may be observed
// by a later read within the same batch. There is no dry-run mode.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/GeneralBots/botcoder/internal/parser"
	"github.com/GeneralBots/botcoder/internal/patch"
)

// Options bounds executor side effects.
type Options struct {
	// MaxFileBytes caps read_file results. Zero means 256 KiB.
	MaxFileBytes int64
	// CommandTimeout bounds execute_command wall-clock time. Zero means 120s.
	CommandTimeout time.Duration
}

const (
	defaultMaxFileBytes   = 256 << 10
	defaultCommandTimeout = 120 * time.Second
)

// Result is the outcome of a single tool request. Exactly one of Output
// (success payload) or Err is meaningful. A command that exits nonzero is a
// success carrying the failure output; only timeouts and spawn failures are
// errors.
type Result struct {
	Output string
	Err    error
}

// Text renders the result as conversation text for the model to react to.
func (r Result) Text() string {
	if r.Err != nil {
		return "Error: " + r.Err.Error()
	}
	return r.Output
}

// Executor performs file reads, patch-style edits, and shell commands inside
// a bounded project root.
type Executor struct {
	guard        *PathGuard
	maxFileBytes int64
	timeout      time.Duration
	logger       *zap.Logger
}

// New builds an executor rooted at projectRoot.
func New(projectRoot string, opts Options, logger *zap.Logger) (*Executor, error) {
	guard, err := NewPathGuard(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("build path guard: %w", err)
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = defaultMaxFileBytes
	}
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = defaultCommandTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		guard:        guard,
		maxFileBytes: opts.MaxFileBytes,
		timeout:      opts.CommandTimeout,
		logger:       logger,
	}, nil
}

// Root returns the absolute project root.
func (e *Executor) Root() string {
	return e.guard.BaseDir
}

// Execute performs a single request and returns its result. Errors are
// per-request and never fatal to the caller.
func (e *Executor) Execute(ctx context.Context, req parser.Request) Result {
	switch req.Kind {
	case parser.KindReadFile:
		return e.readFile(req.Path)
	case parser.KindExecuteCommand:
		return e.runCommand(ctx, req.Command)
	case parser.KindChangeFile:
		return e.changeFile(req.Path, req.Deltas)
	default:
		return Result{Err: fmt.Errorf("unknown tool kind %d", req.Kind)}
	}
}

func (e *Executor) readFile(path string) Result {
	resolved, err := e.guard.Resolve(path)
	if err != nil {
		return Result{Err: err}
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Err: fmt.Errorf("%s: %w", path, ErrNotFound)}
		}
		return Result{Err: fmt.Errorf("stat %s: %w", path, err)}
	}
	if info.Size() > e.maxFileBytes {
		return Result{Err: fmt.Errorf("%s is %d bytes (limit %d): %w", path, info.Size(), e.maxFileBytes, ErrTooLarge)}
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return Result{Err: fmt.Errorf("read %s: %w", path, err)}
	}

	e.logger.Debug("read file", zap.String("path", path), zap.Int("bytes", len(data)))
	return Result{Output: string(data)}
}

func (e *Executor) runCommand(ctx context.Context, command string) Result {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = e.guard.BaseDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			e.logger.Warn("command timed out", zap.String("command", command), zap.Duration("timeout", e.timeout))
			return Result{Err: fmt.Errorf("%q after %s: %w", command, e.timeout, ErrTimeout)}
		}
		// Parent context cancelled; the kill is not the command's fault.
		return Result{Err: fmt.Errorf("%q: %w", command, ctxErr)}
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return Result{Err: fmt.Errorf("%q: %v: %w", command, err, ErrSpawn)}
		}
	}

	e.logger.Debug("command finished",
		zap.String("command", command),
		zap.Int("exit_code", exitCode),
		zap.Duration("elapsed", elapsed))

	return Result{Output: fmt.Sprintf("stdout:\n%s\nstderr:\n%s\nexit_code: %d",
		stdout.String(), stderr.String(), exitCode)}
}

func (e *Executor) changeFile(path string, deltas []patch.Delta) Result {
	resolved, err := e.guard.Resolve(path)
	if err != nil {
		return Result{Err: err}
	}

	existing, err := os.ReadFile(resolved)
	switch {
	case err == nil:
	case os.IsNotExist(err):
		if !allWholeFile(deltas) {
			return Result{Err: fmt.Errorf("%s: %w", path, ErrNotFound)}
		}
		// Explicit-create case: every delta rewrites the whole file, so a
		// missing target starts from empty contents.
		if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
			return Result{Err: fmt.Errorf("create parent for %s: %w", path, err)}
		}
	default:
		return Result{Err: fmt.Errorf("read %s: %w", path, err)}
	}

	updated, err := patch.Apply(string(existing), deltas)
	if err != nil {
		return Result{Err: fmt.Errorf("%s: %w", path, err)}
	}

	if err := os.WriteFile(resolved, []byte(updated), 0o644); err != nil {
		return Result{Err: fmt.Errorf("write %s: %w", path, err)}
	}

	e.logger.Info("applied changes", zap.String("path", path), zap.Int("deltas", len(deltas)))
	return Result{Output: fmt.Sprintf("Applied %d change(s) to %s", len(deltas), path)}
}

func allWholeFile(deltas []patch.Delta) bool {
	for _, d := range deltas {
		if !d.WholeFile() {
			return false
		}
	}
	return len(deltas) > 0
}
