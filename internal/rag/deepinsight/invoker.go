package deepinsight

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/notex/internal/config"
	"github.com/akolanti/notex/pkg/logger_i"
)

var (
	ErrToolUnavailable = errors.New("deepinsight executable not found")
	ErrToolFailed      = errors.New("deepinsight execution failed")
	ErrToolTimeout     = errors.New("deepinsight timed out")
)

// ExecutionError is a non-zero exit of the tool.
type ExecutionError struct {
	ExitCode int
	Stderr   string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("deepinsight exited with code %d: %s", e.ExitCode, strings.TrimSpace(e.Stderr))
}

func (e *ExecutionError) Is(target error) bool {
	return target == ErrToolFailed
}

type Kind int

const (
	Success Kind = iota
	Unavailable
	Failed
	TimedOut
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Unavailable:
		return "unavailable"
	case Failed:
		return "failed"
	case TimedOut:
		return "timeout"
	}
	return "unknown"
}

// Result is the outcome of one invocation. Report is set only for Success.
type Result struct {
	Kind   Kind
	Report string
	Err    error
}

type Invoker struct {
	Executable string
	ScratchDir string
	Timeout    time.Duration
	logger     *logger_i.Logger
}

func NewInvoker(executable, scratchDir string, timeout time.Duration) *Invoker {
	if executable == "" {
		executable = config.DefaultDeepInsightPath
	}
	if timeout <= 0 {
		timeout = config.DeepInsightTimeout
	}
	return &Invoker{
		Executable: executable,
		ScratchDir: scratchDir,
		Timeout:    timeout,
		logger:     logger_i.NewLogger("deepinsight"),
	}
}

// Invoke runs the tool and folds the error into a tagged Result.
func (inv *Invoker) Invoke(ctx context.Context, input string) Result {
	report, err := inv.Run(ctx, input)
	switch {
	case err == nil:
		return Result{Kind: Success, Report: report}
	case errors.Is(err, ErrToolUnavailable):
		return Result{Kind: Unavailable, Err: err}
	case errors.Is(err, ErrToolTimeout):
		return Result{Kind: TimedOut, Err: err}
	default:
		return Result{Kind: Failed, Err: err}
	}
}

// Run executes `<Executable> -o <report path> <input>` and returns the report
// the tool wrote. The report file never outlives the call.
func (inv *Invoker) Run(ctx context.Context, input string) (string, error) {
	logger := inv.logger.FromContext(ctx)

	if err := os.MkdirAll(inv.ScratchDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: scratch dir: %w", ErrToolFailed, err)
	}
	outPath := filepath.Join(inv.ScratchDir, fmt.Sprintf("deepinsight_report_%d.md", time.Now().UnixNano()))
	defer func() {
		if err := os.Remove(outPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("failed to remove report file", "path", outPath, "error", err)
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, inv.Timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, inv.Executable, "-o", outPath, input)
	cmd.Stderr = &stderr
	cmd.WaitDelay = 2 * time.Second

	start := time.Now()
	err := cmd.Run()
	logger.Debug("deepinsight finished", "duration", time.Since(start), "error", err)

	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return "", fmt.Errorf("%w: %s", ErrToolUnavailable, inv.Executable)
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrToolTimeout, inv.Timeout)
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return "", fmt.Errorf("%w: cancelled: %w", ErrToolFailed, context.Cause(ctx))
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &ExecutionError{ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return "", fmt.Errorf("%w: %w", ErrToolFailed, err)
	}

	report, err := os.ReadFile(outPath)
	if err != nil {
		return "", fmt.Errorf("%w: read report: %w", ErrToolFailed, err)
	}
	return string(report), nil
}
