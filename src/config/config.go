package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"restic-backup/src/fault"
)

// EnvConfigPath overrides the default configuration file location.
const EnvConfigPath = "RESTIC_BACKUP_CONFIG"

const defaultConfigSubdir = ".config/restic-backup"
const defaultConfigFile = "config.yaml"

// SchemeKind identifies how secret material for a target is obtained.
// The set is fixed; adding a variant requires touching every switch over
// it, which is intentional.
type SchemeKind int

const (
	// SchemePasswordFile reads the secret verbatim from a file.
	SchemePasswordFile SchemeKind = iota
	// SchemePrompt asks for the secret on the controlling terminal.
	SchemePrompt
	// SchemePgpFile decrypts a PGP-encrypted passphrase file.
	SchemePgpFile
	// SchemePgpToken decrypts a marker file whose key lives on a
	// hardware or software token managed by the PGP agent.
	SchemePgpToken
)

var schemeNames = map[string]SchemeKind{
	"plain":     SchemePasswordFile,
	"prompt":    SchemePrompt,
	"pgp-file":  SchemePgpFile,
	"pgp-token": SchemePgpToken,
}

func (k SchemeKind) String() string {
	for name, kind := range schemeNames {
		if kind == k {
			return name
		}
	}
	return fmt.Sprintf("scheme(%d)", int(k))
}

// Credential names a credential scheme from the configuration file.
type Credential struct {
	Name  string
	Kind  SchemeKind
	Value string // file path (relative paths resolve against the config dir)
}

// Scope describes what a backup covers: a file listing the include paths,
// an optional excludes file, and optional inline ignore patterns.
type Scope struct {
	Name     string
	Includes string
	Excludes string
	Ignores  []string
}

// TargetKind distinguishes local repositories from remote ones.
type TargetKind int

const (
	TargetLocal TargetKind = iota
	TargetRemote
)

func (k TargetKind) String() string {
	if k == TargetRemote {
		return "remote"
	}
	return "local"
}

// Target is one named backup destination. Immutable once loaded.
type Target struct {
	Name       string
	Kind       TargetKind
	Location   string // absolute directory for local, URL prefix for remote
	Credential Credential
	Scope      *Scope // nil when the target has no scope (restore-only use)
	AutoCreate bool
	Comment    string
}

// Registry holds the loaded target set for one session. Read-only after
// Load; safe for concurrent use.
type Registry struct {
	path    string
	targets map[string]Target
}

// rawConfig mirrors the YAML layout of the configuration file.
type rawConfig struct {
	Credentials []rawCredential `mapstructure:"credentials" yaml:"credentials"`
	Scopes      []rawScope      `mapstructure:"scopes" yaml:"scopes,omitempty"`
	Targets     []rawTarget     `mapstructure:"targets" yaml:"targets"`
}

type rawCredential struct {
	Name    string `mapstructure:"name" yaml:"name"`
	Type    string `mapstructure:"type" yaml:"type"`
	Value   string `mapstructure:"value" yaml:"value,omitempty"`
	Comment string `mapstructure:"comment" yaml:"comment,omitempty"`
}

type rawScope struct {
	Name     string   `mapstructure:"name" yaml:"name"`
	Includes string   `mapstructure:"includes" yaml:"includes"`
	Excludes string   `mapstructure:"excludes" yaml:"excludes,omitempty"`
	Ignores  []string `mapstructure:"ignores" yaml:"ignores,omitempty"`
}

type rawTarget struct {
	Name        string `mapstructure:"name" yaml:"name"`
	Kind        string `mapstructure:"kind" yaml:"kind"`
	Location    string `mapstructure:"location" yaml:"location"`
	Credentials string `mapstructure:"credentials" yaml:"credentials"`
	Scope       string `mapstructure:"scope" yaml:"scope,omitempty"`
	AutoCreate  bool   `mapstructure:"auto-create" yaml:"auto-create,omitempty"`
	Comment     string `mapstructure:"comment" yaml:"comment,omitempty"`
}

// ResolvePath returns the configuration file to load: the explicit path
// if given, otherwise the environment override, otherwise the default
// under the user's home directory.
func ResolvePath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, defaultConfigSubdir, defaultConfigFile), nil
}

// Load reads and validates the target configuration. All validation
// failures are ConfigErrors naming the offending target and field.
func Load(path string) (*Registry, error) {
	if err := checkPermissions(path); err != nil {
		return nil, fault.New(fault.Config, "load", path, err)
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fault.Newf(fault.Config, "load", path, "read config: %w", err)
	}
	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fault.Newf(fault.Config, "load", path, "decode config: %w", err)
	}
	targets, err := build(raw, filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	return &Registry{path: path, targets: targets}, nil
}

// checkPermissions rejects configuration files readable by group or
// other. Secrets never live in the config, but credential file names do.
func checkPermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}
	if mode := info.Mode().Perm(); mode&0o077 != 0 {
		return fmt.Errorf("config file %s has overly permissive mode %s (want 0600)", path, mode)
	}
	return nil
}

func build(raw rawConfig, configDir string) (map[string]Target, error) {
	creds := make(map[string]Credential, len(raw.Credentials))
	for _, rc := range raw.Credentials {
		if rc.Name == "" {
			return nil, fault.Newf(fault.Config, "load", "", "credential without a name")
		}
		if _, dup := creds[rc.Name]; dup {
			return nil, fault.Newf(fault.Config, "load", rc.Name, "duplicate credential name")
		}
		kind, ok := schemeNames[strings.ToLower(rc.Type)]
		if !ok {
			return nil, fault.Newf(fault.Config, "load", rc.Name, "credential field type: unsupported value %q", rc.Type)
		}
		value := rc.Value
		if kind != SchemePrompt {
			if value == "" {
				return nil, fault.Newf(fault.Config, "load", rc.Name, "credential field value: required for type %q", rc.Type)
			}
			if !filepath.IsAbs(value) {
				value = filepath.Join(configDir, value)
			}
		}
		creds[rc.Name] = Credential{Name: rc.Name, Kind: kind, Value: value}
	}

	scopes := make(map[string]Scope, len(raw.Scopes))
	for _, rs := range raw.Scopes {
		if rs.Name == "" {
			return nil, fault.Newf(fault.Config, "load", "", "scope without a name")
		}
		if _, dup := scopes[rs.Name]; dup {
			return nil, fault.Newf(fault.Config, "load", rs.Name, "duplicate scope name")
		}
		if rs.Includes == "" {
			return nil, fault.Newf(fault.Config, "load", rs.Name, "scope field includes: required")
		}
		scopes[rs.Name] = Scope{
			Name:     rs.Name,
			Includes: absAgainst(configDir, rs.Includes),
			Excludes: absAgainst(configDir, rs.Excludes),
			Ignores:  rs.Ignores,
		}
	}

	targets := make(map[string]Target, len(raw.Targets))
	for _, rt := range raw.Targets {
		if rt.Name == "" {
			return nil, fault.Newf(fault.Config, "load", "", "target without a name")
		}
		if _, dup := targets[rt.Name]; dup {
			return nil, fault.Newf(fault.Config, "load", rt.Name, "duplicate target name")
		}
		t := Target{Name: rt.Name, AutoCreate: rt.AutoCreate, Comment: rt.Comment}
		switch strings.ToLower(rt.Kind) {
		case "local", "":
			t.Kind = TargetLocal
			if rt.Location == "" || !filepath.IsAbs(rt.Location) {
				return nil, fault.Newf(fault.Config, "load", rt.Name, "target field location: local targets need an absolute path, got %q", rt.Location)
			}
			t.Location = filepath.Clean(rt.Location)
		case "remote":
			t.Kind = TargetRemote
			if !strings.Contains(rt.Location, ":") {
				return nil, fault.Newf(fault.Config, "load", rt.Name, "target field location: remote targets need a URL like sftp:user@host:/path, got %q", rt.Location)
			}
			t.Location = strings.TrimRight(rt.Location, "/")
		default:
			return nil, fault.Newf(fault.Config, "load", rt.Name, "target field kind: unsupported value %q", rt.Kind)
		}
		cred, ok := creds[rt.Credentials]
		if !ok {
			return nil, fault.Newf(fault.Config, "load", rt.Name, "target field credentials: no credential named %q", rt.Credentials)
		}
		t.Credential = cred
		if rt.Scope != "" {
			scope, ok := scopes[rt.Scope]
			if !ok {
				return nil, fault.Newf(fault.Config, "load", rt.Name, "target field scope: no scope named %q", rt.Scope)
			}
			t.Scope = &scope
		}
		targets[rt.Name] = t
	}
	return targets, nil
}

func absAgainst(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// Resolve returns the named target.
func (r *Registry) Resolve(name string) (Target, error) {
	t, ok := r.targets[name]
	if !ok {
		return Target{}, fault.Newf(fault.Config, "resolve", name, "target is not configured")
	}
	return t, nil
}

// Targets returns all configured targets sorted by name.
func (r *Registry) Targets() []Target {
	out := make([]Target, 0, len(r.targets))
	for _, t := range r.targets {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Path returns the configuration file the registry was loaded from.
func (r *Registry) Path() string { return r.path }
