package progress

import (
	"strings"
	"testing"
)

func TestRelayPrefixesLines(t *testing.T) {
	var out strings.Builder
	r := NewRelay(&out, "usbstick-a")
	r.Write([]byte("scanned 10 files\nsaved 2 files\n"))
	want := "[usbstick-a] scanned 10 files\n[usbstick-a] saved 2 files\n"
	if out.String() != want {
		t.Fatalf("got %q, want %q", out.String(), want)
	}
}

func TestRelayBuffersPartialLines(t *testing.T) {
	var out strings.Builder
	r := NewRelay(&out, "t")
	r.Write([]byte("proc"))
	if out.String() != "" {
		t.Fatalf("partial line emitted early: %q", out.String())
	}
	r.Write([]byte("essing\n"))
	if out.String() != "[t] processing\n" {
		t.Fatalf("got %q", out.String())
	}
}

func TestRelayFlushEmitsRemainder(t *testing.T) {
	var out strings.Builder
	r := NewRelay(&out, "t")
	r.Write([]byte("tail without newline"))
	r.Flush()
	if out.String() != "[t] tail without newline\n" {
		t.Fatalf("got %q", out.String())
	}
	r.Flush()
	if out.String() != "[t] tail without newline\n" {
		t.Fatalf("second flush changed output: %q", out.String())
	}
}

func TestRelayDropsBlankLines(t *testing.T) {
	var out strings.Builder
	r := NewRelay(&out, "t")
	r.Write([]byte("\n\r\nline\n"))
	if out.String() != "[t] line\n" {
		t.Fatalf("got %q", out.String())
	}
}

func TestRelayNilOutput(t *testing.T) {
	r := NewRelay(nil, "t")
	if _, err := r.Write([]byte("line\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	r.Flush()
}
