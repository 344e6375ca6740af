package target

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"restic-backup/src/config"
	"restic-backup/src/fault"
)

func localTarget(root string) config.Target {
	return config.Target{Name: "usbstick-a", Kind: config.TargetLocal, Location: root}
}

func TestResolveLocalPathShape(t *testing.T) {
	loc, err := Resolve(localTarget("/media/usb"), "h1", "u1", "2025")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if loc.Repository != "/media/usb/h1/u1/2025" {
		t.Fatalf("repository %q, want /media/usb/h1/u1/2025", loc.Repository)
	}
	if !loc.Local() {
		t.Fatal("expected a local locator")
	}
}

func TestResolveDistinctTuplesDistinctPaths(t *testing.T) {
	tgt := localTarget("/media/usb")
	tuples := [][3]string{
		{"h1", "u1", "2024"},
		{"h1", "u1", "2025"},
		{"h1", "u2", "2025"},
		{"h2", "u1", "2025"},
	}
	seen := map[string]bool{}
	for _, tuple := range tuples {
		loc, err := Resolve(tgt, tuple[0], tuple[1], tuple[2])
		if err != nil {
			t.Fatalf("Resolve %v: %v", tuple, err)
		}
		if seen[loc.Repository] {
			t.Fatalf("path collision for %v: %s", tuple, loc.Repository)
		}
		seen[loc.Repository] = true
	}
}

func TestResolveRemoteJoinsWithSlashes(t *testing.T) {
	tgt := config.Target{Name: "nas", Kind: config.TargetRemote, Location: "sftp:backup@nas:/srv/backup"}
	loc, err := Resolve(tgt, "h1", "u1", "2025")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if loc.Repository != "sftp:backup@nas:/srv/backup/h1/u1/2025" {
		t.Fatalf("repository %q", loc.Repository)
	}
	if loc.Local() {
		t.Fatal("expected a remote locator")
	}
}

func TestResolveValidation(t *testing.T) {
	tgt := localTarget("/media/usb")
	cases := [][3]string{
		{"bad host!", "u1", "2025"},
		{"h1", "bad/user", "2025"},
		{"h1", "u1", "25"},
		{"h1", "u1", "year"},
	}
	for _, tuple := range cases {
		if _, err := Resolve(tgt, tuple[0], tuple[1], tuple[2]); !fault.Is(err, fault.Build) {
			t.Fatalf("tuple %v: expected build error, got %v", tuple, err)
		}
	}
}

func TestResolveDefaultsFillIn(t *testing.T) {
	loc, err := Resolve(localTarget("/media/usb"), "", "", "")
	if err != nil {
		t.Fatalf("Resolve with defaults: %v", err)
	}
	rel, err := filepath.Rel("/media/usb", loc.Repository)
	if err != nil {
		t.Fatalf("Rel: %v", err)
	}
	if got := len(strings.Split(rel, string(filepath.Separator))); got != 3 {
		t.Fatalf("expected host/user/year under the root, got %q", rel)
	}
}

func TestPrepareAndInitialized(t *testing.T) {
	root := t.TempDir()
	loc, err := Resolve(localTarget(root), "h1", "u1", "2025")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if initialized, known := loc.Initialized(); !known || initialized {
		t.Fatalf("missing repository: initialized=%v known=%v", initialized, known)
	}
	if err := loc.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if _, err := os.Stat(loc.Repository); err != nil {
		t.Fatalf("Prepare should create the directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(loc.Repository, "config"), []byte("marker"), 0o600); err != nil {
		t.Fatalf("write marker: %v", err)
	}
	if initialized, known := loc.Initialized(); !known || !initialized {
		t.Fatalf("marker present: initialized=%v known=%v", initialized, known)
	}
}

func TestCleanupFailedInitRemovesEmptyDirs(t *testing.T) {
	root := t.TempDir()
	loc, err := Resolve(localTarget(root), "h1", "u1", "2025")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := loc.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	loc.CleanupFailedInit()
	if _, err := os.Stat(loc.Repository); !os.IsNotExist(err) {
		t.Fatalf("empty repository dir should be gone, stat err=%v", err)
	}
	// The root itself stays.
	if _, err := os.Stat(root); err != nil {
		t.Fatalf("root must survive cleanup: %v", err)
	}
}

func TestCleanupFailedInitKeepsNonEmptyDirs(t *testing.T) {
	root := t.TempDir()
	loc, err := Resolve(localTarget(root), "h1", "u1", "2025")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := loc.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := os.WriteFile(filepath.Join(loc.Repository, "data"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	loc.CleanupFailedInit()
	if _, err := os.Stat(loc.Repository); err != nil {
		t.Fatalf("non-empty repository dir must survive: %v", err)
	}
}

func TestRemoteHasNoLocalPolicy(t *testing.T) {
	tgt := config.Target{Name: "nas", Kind: config.TargetRemote, Location: "sftp:backup@nas:/srv"}
	loc, err := Resolve(tgt, "h1", "u1", "2025")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := loc.Prepare(); err != nil {
		t.Fatalf("Prepare on remote must be a no-op: %v", err)
	}
	if _, known := loc.Initialized(); known {
		t.Fatal("remote initialization state is the engine's to decide")
	}
}
