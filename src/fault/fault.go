package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by the stage that produced it. The set is
// closed; callers are expected to switch exhaustively.
type Kind int

const (
	// Config means the target configuration could not be loaded or a
	// referenced target does not exist.
	Config Kind = iota
	// Credential means secret material could not be resolved.
	Credential
	// Build means the operation and its options form an invalid
	// combination; no process was spawned.
	Build
	// Invocation means the engine process could not be started.
	Invocation
	// Engine means the engine ran and reported failure.
	Engine
	// Parse means the engine output could not be decoded.
	Parse
	// TimedOut means the invocation exceeded its deadline and was killed.
	TimedOut
	// Cancelled means the caller cancelled the invocation.
	Cancelled
)

// Exit codes surfaced to CLI callers. Engine failures pass the engine's
// own code through unchanged; these cover everything else.
const (
	ExitSuccess     = 0
	ExitInternal    = 200
	ExitInterrupted = 130
)

func (k Kind) String() string {
	switch k {
	case Config:
		return "config"
	case Credential:
		return "credential"
	case Build:
		return "build"
	case Invocation:
		return "invocation"
	case Engine:
		return "engine"
	case Parse:
		return "parse"
	case TimedOut:
		return "timed out"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the failure type returned by every layer of the core. Target
// and Op are always set by the time an error reaches a caller. Stderr and
// ExitCode are populated for engine failures only. Secret material must
// never appear in any field.
type Error struct {
	Kind     Kind
	Target   string
	Op       string
	Stderr   string
	ExitCode int
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %s error", e.Op, e.Target, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err as an Error of the given kind.
func New(kind Kind, op, target string, err error) *Error {
	return &Error{Kind: kind, Target: target, Op: op, Err: err}
}

// Newf is New with a formatted message.
func Newf(kind Kind, op, target, format string, args ...any) *Error {
	return &Error{Kind: kind, Target: target, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind of err, or ok=false when err does not carry one.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Is reports whether err is an Error of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// ExitCode maps err to the process exit code surfaced to callers: the
// engine's own code for engine failures, 130 for timeout/cancel, and the
// distinguished internal code for anything that never reached the engine.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var e *Error
	if !errors.As(err, &e) {
		return ExitInternal
	}
	switch e.Kind {
	case Engine:
		if e.ExitCode > 0 {
			return e.ExitCode
		}
		return ExitInternal
	case TimedOut, Cancelled:
		return ExitInterrupted
	default:
		return ExitInternal
	}
}
