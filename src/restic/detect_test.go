package restic

import "testing"

func TestExtractVersion(t *testing.T) {
	cases := []struct {
		output string
		want   string
	}{
		{"restic 0.16.4 compiled with go1.21.6 on linux/amd64", "0.16.4"},
		{"restic 0.14.0 (v0.14.0-0-g5ef0572) compiled with go1.19", "0.14.0"},
		{"restic 0.17.0-rc1 compiled with go1.22.1 on linux/amd64", "0.17.0-rc1"},
	}
	for _, tc := range cases {
		got, err := ExtractVersion(tc.output)
		if err != nil {
			t.Fatalf("ExtractVersion(%q): %v", tc.output, err)
		}
		if got != tc.want {
			t.Errorf("ExtractVersion(%q) = %q, want %q", tc.output, got, tc.want)
		}
	}
}

func TestExtractVersionUnparseable(t *testing.T) {
	for _, output := range []string{"", "command not found", "restic devel"} {
		if _, err := ExtractVersion(output); err == nil {
			t.Errorf("ExtractVersion(%q) should fail", output)
		}
	}
}

func TestIsCompatible(t *testing.T) {
	cases := map[string]bool{
		"0.14.0":     true,
		"0.16.4":     true,
		"1.0.0":      true,
		"0.17.0-rc1": true,
		"0.13.1":     false,
		"0.9.6":      false,
		"garbage":    false,
		"":           false,
	}
	for version, want := range cases {
		if got := IsCompatible(version); got != want {
			t.Errorf("IsCompatible(%q) = %v, want %v", version, got, want)
		}
	}
}
