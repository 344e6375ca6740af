package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"restic-backup/src/fault"
)

const validConfig = `
credentials:
  - name: usb
    type: plain
    value: usb.pwd
  - name: vault
    type: pgp-file
    value: vault.pwd.gpg
  - name: ask
    type: prompt
scopes:
  - name: home
    includes: home.includes
    ignores: ["*.tmp"]
targets:
  - name: usbstick-a
    kind: local
    location: /media/usb/backup
    credentials: usb
    scope: home
    auto-create: true
  - name: nas
    kind: remote
    location: sftp:backup@nas:/srv/backup
    credentials: vault
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, validConfig)
	registry, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tgt, err := registry.Resolve("usbstick-a")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tgt.Kind != TargetLocal || tgt.Location != "/media/usb/backup" || !tgt.AutoCreate {
		t.Fatalf("unexpected target: %#v", tgt)
	}
	if tgt.Credential.Kind != SchemePasswordFile {
		t.Fatalf("expected password file scheme, got %v", tgt.Credential.Kind)
	}
	// Relative credential paths resolve against the config directory.
	if want := filepath.Join(filepath.Dir(path), "usb.pwd"); tgt.Credential.Value != want {
		t.Fatalf("credential path %q, want %q", tgt.Credential.Value, want)
	}
	if tgt.Scope == nil || !strings.HasSuffix(tgt.Scope.Includes, "home.includes") {
		t.Fatalf("unexpected scope: %#v", tgt.Scope)
	}

	nas, err := registry.Resolve("nas")
	if err != nil {
		t.Fatalf("Resolve nas: %v", err)
	}
	if nas.Kind != TargetRemote || nas.Credential.Kind != SchemePgpFile {
		t.Fatalf("unexpected remote target: %#v", nas)
	}
	if nas.Scope != nil {
		t.Fatal("nas has no scope configured")
	}
}

func TestLoadRejectsPermissiveMode(t *testing.T) {
	path := writeConfig(t, validConfig)
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	_, err := Load(path)
	if !fault.Is(err, fault.Config) {
		t.Fatalf("expected config error for mode 0644, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !fault.Is(err, fault.Config) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestLoadValidationErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name: "duplicate target",
			content: `
credentials:
  - {name: c, type: plain, value: c.pwd}
targets:
  - {name: dup, kind: local, location: /a, credentials: c}
  - {name: dup, kind: local, location: /b, credentials: c}
`,
			wantMsg: "duplicate target",
		},
		{
			name: "unknown credential reference",
			content: `
credentials:
  - {name: c, type: plain, value: c.pwd}
targets:
  - {name: t, kind: local, location: /a, credentials: missing}
`,
			wantMsg: "no credential named",
		},
		{
			name: "relative local location",
			content: `
credentials:
  - {name: c, type: plain, value: c.pwd}
targets:
  - {name: t, kind: local, location: relative/path, credentials: c}
`,
			wantMsg: "absolute path",
		},
		{
			name: "bad credential type",
			content: `
credentials:
  - {name: c, type: rot13, value: c.pwd}
targets:
  - {name: t, kind: local, location: /a, credentials: c}
`,
			wantMsg: "unsupported value",
		},
		{
			name: "plain credential without value",
			content: `
credentials:
  - {name: c, type: plain}
targets:
  - {name: t, kind: local, location: /a, credentials: c}
`,
			wantMsg: "required for type",
		},
		{
			name: "unknown scope reference",
			content: `
credentials:
  - {name: c, type: plain, value: c.pwd}
targets:
  - {name: t, kind: local, location: /a, credentials: c, scope: missing}
`,
			wantMsg: "no scope named",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			if !fault.Is(err, fault.Config) {
				t.Fatalf("expected config error, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("error %q should contain %q", err, tc.wantMsg)
			}
		})
	}
}

func TestResolveUnknownTarget(t *testing.T) {
	registry, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	_, err = registry.Resolve("nope")
	if !fault.Is(err, fault.Config) {
		t.Fatalf("expected config error for unknown target, got %v", err)
	}
}

func TestTargetsSorted(t *testing.T) {
	registry, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	targets := registry.Targets()
	if len(targets) != 2 || targets[0].Name != "nas" || targets[1].Name != "usbstick-a" {
		t.Fatalf("unexpected target order: %#v", targets)
	}
}

func TestScaffoldRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	if err := Scaffold(path); err != nil {
		t.Fatalf("Scaffold: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("scaffolded config mode %v, want 0600", info.Mode().Perm())
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("scaffolded config should load: %v", err)
	}
	if err := Scaffold(path); err == nil {
		t.Fatal("Scaffold must refuse to overwrite")
	}
}
