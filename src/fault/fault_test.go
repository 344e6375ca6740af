package fault

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestExitCodeEnginePassThrough(t *testing.T) {
	err := &Error{Kind: Engine, Op: "restore", Target: "usb", ExitCode: 12, Err: errors.New("wrong repository password")}
	if got := ExitCode(err); got != 12 {
		t.Fatalf("expected engine exit code 12, got %d", got)
	}
}

func TestExitCodeInternal(t *testing.T) {
	cases := []Kind{Config, Credential, Build, Invocation, Parse}
	for _, kind := range cases {
		err := New(kind, "backup", "usb", errors.New("boom"))
		if got := ExitCode(err); got != ExitInternal {
			t.Fatalf("kind %v: expected %d, got %d", kind, ExitInternal, got)
		}
	}
}

func TestExitCodeInterrupted(t *testing.T) {
	for _, kind := range []Kind{TimedOut, Cancelled} {
		err := New(kind, "backup", "usb", errors.New("stopped"))
		if got := ExitCode(err); got != ExitInterrupted {
			t.Fatalf("kind %v: expected %d, got %d", kind, ExitInterrupted, got)
		}
	}
}

func TestExitCodeSuccessAndForeign(t *testing.T) {
	if got := ExitCode(nil); got != ExitSuccess {
		t.Fatalf("nil error: expected 0, got %d", got)
	}
	if got := ExitCode(errors.New("plain")); got != ExitInternal {
		t.Fatalf("foreign error: expected %d, got %d", ExitInternal, got)
	}
}

func TestKindOfThroughWrapping(t *testing.T) {
	inner := Newf(Credential, "backup", "usb", "no password file")
	wrapped := fmt.Errorf("session: %w", inner)
	kind, ok := KindOf(wrapped)
	if !ok || kind != Credential {
		t.Fatalf("expected credential kind through wrapping, got %v ok=%v", kind, ok)
	}
	if !Is(wrapped, Credential) {
		t.Fatal("Is should see the credential kind through wrapping")
	}
	if Is(wrapped, Engine) {
		t.Fatal("Is must not match a different kind")
	}
}

func TestErrorMessageNamesTargetAndOp(t *testing.T) {
	err := Newf(Build, "restore", "usbstick-a", "restore needs a destination path")
	msg := err.Error()
	for _, want := range []string{"restore", "usbstick-a", "build"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("error message %q should mention %q", msg, want)
		}
	}
}
