package restic

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RequiredVersion is the minimum restic release we support. Older
// releases lack the JSON output shapes the parser relies on.
const RequiredVersion = "0.14.0"

// BinaryInfo describes a detected restic CLI binary.
type BinaryInfo struct {
	Path    string
	Version string
}

var versionRe = regexp.MustCompile(`restic\s+([0-9]+\.[0-9]+\.[0-9]+(?:-[A-Za-z0-9.]+)?)`)

// Detect locates restic on PATH and queries its version. The context
// bounds the version subprocess.
func Detect(ctx context.Context) (BinaryInfo, error) {
	exe, err := exec.LookPath("restic")
	if err != nil {
		return BinaryInfo{}, fmt.Errorf("restic binary not found on PATH: %w", err)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	out, err := exec.CommandContext(ctx, exe, "version").CombinedOutput()
	if err != nil {
		return BinaryInfo{}, fmt.Errorf("restic: version command failed: %w", err)
	}
	ver, err := ExtractVersion(string(out))
	if err != nil {
		return BinaryInfo{}, err
	}
	return BinaryInfo{Path: exe, Version: ver}, nil
}

// ExtractVersion derives the version string from `restic version` output.
func ExtractVersion(output string) (string, error) {
	if m := versionRe.FindStringSubmatch(output); len(m) == 2 {
		return m[1], nil
	}
	return "", fmt.Errorf("restic: could not parse version output %q", strings.TrimSpace(output))
}

// IsCompatible reports whether version satisfies RequiredVersion.
func IsCompatible(version string) bool {
	have, ok := parseVersion(version)
	if !ok {
		return false
	}
	want, _ := parseVersion(RequiredVersion)
	for i := 0; i < 3; i++ {
		if have[i] != want[i] {
			return have[i] > want[i]
		}
	}
	return true
}

func parseVersion(s string) ([3]int, bool) {
	var v [3]int
	core := strings.SplitN(strings.TrimSpace(s), "-", 2)[0]
	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return v, false
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return v, false
		}
		v[i] = n
	}
	return v, true
}
