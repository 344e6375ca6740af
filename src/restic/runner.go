package restic

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"restic-backup/src/credentials"
	"restic-backup/src/fault"
)

// secretPrefix names the ephemeral password files the runner hands to
// the engine. The startup sweep removes leftovers by this prefix.
const secretPrefix = "restic-backup-secret-"

// Result is the captured outcome of one engine invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes engine invocations. One Runner serves concurrent
// invocations; each call owns its own process and secret artifact.
type Runner struct {
	Bin BinaryInfo
	// Relay receives engine output line by line while the process runs.
	// Nil means capture only (batch mode).
	Relay io.Writer
}

// Run spawns the engine for the invocation. The secret reaches the
// process through a 0600 temporary file that is removed on every exit
// path; it is never part of the argument vector the caller built nor of
// the process environment. A timeout of zero means no deadline.
func (r *Runner) Run(ctx context.Context, inv Invocation, secret *credentials.Secret, timeout time.Duration) (Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	secretPath := filepath.Join(os.TempDir(), secretPrefix+uuid.NewString())
	if err := os.WriteFile(secretPath, secret.Value(), 0o600); err != nil {
		return Result{}, fault.Newf(fault.Invocation, inv.Op.String(), inv.Target, "stage credential: %w", err)
	}
	defer os.Remove(secretPath)

	args := append(append([]string{}, inv.Args...), "--password-file", secretPath)

	res, err := r.runOnce(ctx, args, inv.Env)
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			// Spawn-level failure; retry once, it may be transient.
			res, err = r.runOnce(ctx, args, inv.Env)
		}
	}
	// The engine's last line often has no trailing newline.
	if f, ok := r.Relay.(interface{ Flush() }); ok {
		f.Flush()
	}
	if err == nil {
		return res, nil
	}

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return res, fault.Newf(fault.TimedOut, inv.Op.String(), inv.Target, "engine killed after %v", timeout)
	case errors.Is(ctx.Err(), context.Canceled):
		return res, fault.Newf(fault.Cancelled, inv.Op.String(), inv.Target, "operation cancelled")
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return res, &fault.Error{
			Kind:     fault.Engine,
			Op:       inv.Op.String(),
			Target:   inv.Target,
			Stderr:   strings.TrimSpace(res.Stderr),
			ExitCode: exitErr.ExitCode(),
			Err:      errors.New(classifyExit(exitErr.ExitCode())),
		}
	}
	return res, fault.Newf(fault.Invocation, inv.Op.String(), inv.Target, "spawn engine: %w", err)
}

func (r *Runner) runOnce(ctx context.Context, args, env []string) (Result, error) {
	cmd := exec.CommandContext(ctx, r.Bin.Path, args...)
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr bytes.Buffer
	if r.Relay != nil {
		cmd.Stdout = io.MultiWriter(&stdout, r.Relay)
		cmd.Stderr = io.MultiWriter(&stderr, r.Relay)
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}
	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	return res, err
}

// classifyExit names the engine's documented exit codes.
func classifyExit(code int) string {
	switch code {
	case 2:
		return "engine runtime error"
	case 3:
		return "engine could not read some source data"
	case 10:
		return "repository does not exist"
	case 11:
		return "repository could not be locked"
	case 12:
		return "wrong repository password"
	case 130:
		return "engine was interrupted"
	}
	return "engine command failed"
}

// IsAlreadyInitialized reports whether stderr indicates an init against
// an existing repository, which callers treat as success.
func IsAlreadyInitialized(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "already initialized") || strings.Contains(s, "config file already exists")
}

// SweepStaleSecrets removes credential artifacts left behind by a
// crashed invocation. It runs at session start, before any operation.
func SweepStaleSecrets() int {
	matches, err := filepath.Glob(filepath.Join(os.TempDir(), secretPrefix+"*"))
	if err != nil {
		return 0
	}
	removed := 0
	for _, path := range matches {
		if os.Remove(path) == nil {
			removed++
		}
	}
	return removed
}
