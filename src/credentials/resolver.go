package credentials

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"restic-backup/src/config"
	"restic-backup/src/fault"
	"restic-backup/src/pgp"
)

// Secret is the in-memory handle to resolved credential material. It
// lives for one invocation; callers wipe it when the invocation is done.
type Secret struct {
	value []byte
}

// NewSecret wraps already-resolved credential material, trimming
// trailing whitespace the way file-based resolution does.
func NewSecret(raw []byte) *Secret { return newSecret(raw) }

// Value returns the secret bytes. The slice is owned by the Secret.
func (s *Secret) Value() []byte { return s.value }

// Wipe overwrites the secret material.
func (s *Secret) Wipe() {
	for i := range s.value {
		s.value[i] = 0
	}
	s.value = nil
}

// PromptFunc reads a passphrase from the user.
type PromptFunc func(label string) ([]byte, error)

// Resolver obtains secret material for a target's credential scheme. It
// holds no mutable state, so one Resolver serves concurrent resolutions.
type Resolver struct {
	// Decryptor backs the pgp-file and pgp-token schemes.
	Decryptor pgp.Decryptor
	// Batch suppresses all prompting; the prompt scheme then fails.
	Batch bool
	// Prompt overrides terminal passphrase entry, for tests.
	Prompt PromptFunc
}

// Resolve obtains the secret for the target. The returned error never
// contains secret material.
func (r *Resolver) Resolve(ctx context.Context, op string, t config.Target) (*Secret, error) {
	cred := t.Credential
	switch cred.Kind {
	case config.SchemePasswordFile:
		raw, err := r.readRestricted(cred.Value)
		if err != nil {
			return nil, fault.New(fault.Credential, op, t.Name, err)
		}
		return newSecret(raw), nil
	case config.SchemePrompt:
		if r.Batch {
			return nil, fault.Newf(fault.Credential, op, t.Name, "credential %q needs a prompt, unavailable in batch mode", cred.Name)
		}
		raw, err := r.prompt(fmt.Sprintf("Repository password for target %s: ", t.Name))
		if err != nil {
			return nil, fault.Newf(fault.Credential, op, t.Name, "read passphrase: %w", err)
		}
		return newSecret(raw), nil
	case config.SchemePgpFile, config.SchemePgpToken:
		if r.Decryptor == nil {
			return nil, fault.Newf(fault.Credential, op, t.Name, "no PGP capability configured for credential %q", cred.Name)
		}
		if err := checkSource(cred.Value); err != nil {
			return nil, fault.New(fault.Credential, op, t.Name, err)
		}
		raw, err := r.Decryptor.Decrypt(ctx, cred.Value)
		if err != nil {
			return nil, fault.New(fault.Credential, op, t.Name, err)
		}
		return newSecret(raw), nil
	}
	return nil, fault.Newf(fault.Credential, op, t.Name, "unsupported credential scheme %v", cred.Kind)
}

func newSecret(raw []byte) *Secret {
	return &Secret{value: bytes.TrimRight(raw, " \t\r\n")}
}

func (r *Resolver) prompt(label string) ([]byte, error) {
	if r.Prompt != nil {
		return r.Prompt(label)
	}
	fmt.Fprint(os.Stderr, label)
	defer fmt.Fprintln(os.Stderr)
	return term.ReadPassword(int(os.Stdin.Fd()))
}

// readRestricted reads a password file after verifying restrictive
// permissions on the file and its directory.
func (r *Resolver) readRestricted(path string) ([]byte, error) {
	if err := checkSource(path); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read password file: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("password file %s is empty", path)
	}
	return raw, nil
}

// checkSource enforces that a credential source and its directory are
// inaccessible to group and other. A missing source is a hard failure.
func checkSource(path string) error {
	dir := filepath.Dir(path)
	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("credential directory %s: %w", dir, err)
	}
	if mode := dirInfo.Mode().Perm(); mode&0o077 != 0 {
		return fmt.Errorf("credential directory %s has overly permissive mode %s (want 0700)", dir, mode)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("credential source %s: %w", path, err)
	}
	if mode := info.Mode().Perm(); mode&0o077 != 0 {
		return fmt.Errorf("credential source %s has overly permissive mode %s (want 0600)", path, mode)
	}
	return nil
}
