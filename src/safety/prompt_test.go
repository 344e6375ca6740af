package safety

import (
	"strings"
	"testing"
)

func TestConfirmDryRunAccepts(t *testing.T) {
	ok, err := Confirm(Options{DryRun: true}, failingReader{}, nil, "proceed?")
	if err != nil || !ok {
		t.Fatalf("Confirm = %v, %v; dry-run changes nothing and must proceed unprompted", ok, err)
	}
}

func TestConfirmYesAccepts(t *testing.T) {
	ok, err := Confirm(Options{Yes: true}, strings.NewReader(""), nil, "proceed?")
	if err != nil || !ok {
		t.Fatalf("Confirm = %v, %v", ok, err)
	}
}

func TestConfirmBatchAutoConfirms(t *testing.T) {
	// Non-interactive mode proceeds without touching the input; a
	// declined confirmation would make scripted runs impossible.
	ok, err := Confirm(Options{Batch: true}, failingReader{}, nil, "proceed?")
	if err != nil || !ok {
		t.Fatalf("Confirm = %v, %v; batch mode must accept without reading", ok, err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	panic("batch mode must not read input")
}

func TestConfirmPromptAnswers(t *testing.T) {
	cases := map[string]bool{
		"y\n":   true,
		"Y\n":   true,
		"yes\n": true,
		"n\n":   false,
		"\n":    false,
		"":      false, // EOF counts as decline
	}
	for input, want := range cases {
		var out strings.Builder
		ok, err := Confirm(Options{}, strings.NewReader(input), &out, "restore into a non-empty directory?")
		if err != nil {
			t.Fatalf("Confirm(%q): %v", input, err)
		}
		if ok != want {
			t.Errorf("Confirm(%q) = %v, want %v", input, ok, want)
		}
		if !strings.Contains(out.String(), "[y/N]") {
			t.Errorf("prompt %q should show the default", out.String())
		}
	}
}
