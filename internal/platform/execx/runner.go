package execx

import (
	"bytes"
	"context"
	stderrs "errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"hydroflow/internal/platform/logger"
	pstrings "hydroflow/internal/platform/strings"
)

// displayLimit caps the command line echoed in logs and errors
const displayLimit = 200

// ErrTimeout is returned (wrapped) when a command outlives its Context budget
var ErrTimeout = stderrs.New("execx: command timed out")

// Command is one tool invocation
type Command struct {
	Name  string
	Args  []string
	Stdin string
}

// String renders the command line, truncated for display
func (c Command) String() string {
	s := strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
	return pstrings.Truncate(s, displayLimit)
}

// Result is what a finished process left behind
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Elapsed  time.Duration
}

// ExitError reports a process that ran and exited non-zero
type ExitError struct {
	Display string
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: exit status %d", e.Display, e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + pstrings.Truncate(s, 2*displayLimit)
	}
	return msg
}

// Runner executes commands; the GDAL and GRASS adapters depend on this port
type Runner interface {
	Run(ctx context.Context, ec Context, cmd Command) (Result, error)
}

// Exec is the os/exec backed Runner
type Exec struct{}

// New returns an os/exec backed Runner
func New() *Exec { return &Exec{} }

// Run starts cmd under ec and waits for it
// A non-zero exit returns the Result together with an *ExitError
func (Exec) Run(ctx context.Context, ec Context, c Command) (Result, error) {
	log := logger.C(ctx)
	display := c.String()

	parent := ctx
	if ec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ec.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	// nil would inherit the process environment
	cmd.Env = append([]string{}, ec.Env...)
	cmd.Dir = ec.Dir
	if c.Stdin != "" {
		cmd.Stdin = strings.NewReader(c.Stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	isolate(cmd)
	cmd.WaitDelay = 5 * time.Second

	log.Debug().Str("cmd", display).Dur("timeout", ec.Timeout).Msg("exec start")
	start := time.Now()
	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), Elapsed: time.Since(start)}

	if s := strings.TrimSpace(stdout.String()); s != "" {
		log.Debug().Str("cmd", display).Str("stdout", s).Msg("exec stdout")
	}
	if s := strings.TrimSpace(stderr.String()); s != "" {
		log.Debug().Str("cmd", display).Str("stderr", s).Msg("exec stderr")
	}

	// a caller deadline (stage budget) or cancellation is reported as such;
	// ErrTimeout is reserved for ec.Timeout
	if pErr := parent.Err(); pErr != nil && err != nil {
		log.Error().Err(pErr).Str("cmd", display).Dur("elapsed", res.Elapsed).Msg("exec stopped by caller")
		return res, fmt.Errorf("%s stopped after %s: %w", display, res.Elapsed.Round(time.Millisecond), pErr)
	}
	if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
		log.Error().Str("cmd", display).Dur("timeout", ec.Timeout).Msg("exec timed out")
		return res, fmt.Errorf("%s after %s: %w", display, ec.Timeout, ErrTimeout)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if stderrs.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			log.Error().Str("cmd", display).Int("exit_code", res.ExitCode).
				Str("stderr", pstrings.Truncate(strings.TrimSpace(stderr.String()), 2*displayLimit)).
				Msg("exec failed")
			return res, &ExitError{Display: display, Code: res.ExitCode, Stderr: stderr.String()}
		}
		log.Error().Err(err).Str("cmd", display).Msg("exec could not start")
		return res, fmt.Errorf("%s: %w", display, err)
	}

	log.Debug().Str("cmd", display).Dur("elapsed", res.Elapsed).Msg("exec done")
	return res, nil
}
