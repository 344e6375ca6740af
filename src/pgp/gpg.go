package pgp

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// GPG decrypts through the gpg binary. Hardware and software tokens are
// handled by gpg-agent/scdaemon, so an absent token shows up as a
// missing secret key.
type GPG struct {
	// Binary is the gpg executable path.
	Binary string
}

// NewGPG locates gpg on PATH.
func NewGPG() (*GPG, error) {
	exe, err := exec.LookPath("gpg")
	if err != nil {
		return nil, fmt.Errorf("gpg binary not found on PATH: %w", err)
	}
	return &GPG{Binary: exe}, nil
}

// Decrypt runs `gpg --decrypt` on the file and returns its plaintext.
// The plaintext never appears in the returned error.
func (g *GPG) Decrypt(ctx context.Context, path string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, g.Binary, "--batch", "--quiet", "--decrypt", path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		diag := strings.TrimSpace(stderr.String())
		if strings.Contains(diag, "No secret key") {
			return nil, fmt.Errorf("gpg: no secret key available for %s (token not present?): %w", path, err)
		}
		if diag == "" {
			return nil, fmt.Errorf("gpg: decrypt %s: %w", path, err)
		}
		return nil, fmt.Errorf("gpg: decrypt %s: %w: %s", path, err, diag)
	}
	return stdout.Bytes(), nil
}
