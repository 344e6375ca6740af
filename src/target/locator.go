package target

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"restic-backup/src/config"
	"restic-backup/src/fault"
)

// Locator is the resolved repository location for one (target, host,
// user, year) tuple. It is computed per operation and never stored.
type Locator struct {
	Target     string
	Kind       config.TargetKind
	Repository string
}

// Host, user and year become repository path segments, so they are held
// to a hostname-safe character set.
var segmentRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
var yearRe = regexp.MustCompile(`^[0-9]{4}$`)

// Resolve computes the repository location root/host/user/year. Empty
// host, user or year fall back to the current machine, the current user
// and the current year.
func Resolve(t config.Target, host, user, year string) (Locator, error) {
	var err error
	if host == "" {
		if host, err = os.Hostname(); err != nil {
			return Locator{}, fault.Newf(fault.Build, "resolve", t.Name, "determine hostname: %w", err)
		}
	}
	if user == "" {
		if user, err = currentUser(); err != nil {
			return Locator{}, fault.Newf(fault.Build, "resolve", t.Name, "determine user: %w", err)
		}
	}
	if year == "" {
		year = strconv.Itoa(time.Now().Year())
	}
	if !segmentRe.MatchString(host) {
		return Locator{}, fault.Newf(fault.Build, "resolve", t.Name, "invalid host %q", host)
	}
	if !segmentRe.MatchString(user) {
		return Locator{}, fault.Newf(fault.Build, "resolve", t.Name, "invalid user %q", user)
	}
	if !yearRe.MatchString(year) {
		return Locator{}, fault.Newf(fault.Build, "resolve", t.Name, "invalid year %q, want 4 digits", year)
	}
	loc := Locator{Target: t.Name, Kind: t.Kind}
	if t.Kind == config.TargetLocal {
		loc.Repository = filepath.Join(t.Location, host, user, year)
	} else {
		// Remote locations always join with forward slashes.
		loc.Repository = fmt.Sprintf("%s/%s/%s/%s", t.Location, host, user, year)
	}
	return loc, nil
}

func currentUser() (string, error) {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username, nil
	}
	if name := os.Getenv("USER"); name != "" {
		return name, nil
	}
	return "", fmt.Errorf("no current user available")
}

// Local reports whether the repository lives on a local filesystem.
func (l Locator) Local() bool { return l.Kind == config.TargetLocal }

// Prepare creates the missing parent directories of a local repository.
// Remote targets are left to the engine's transport.
func (l Locator) Prepare() error {
	if !l.Local() {
		return nil
	}
	if err := os.MkdirAll(l.Repository, 0o755); err != nil {
		return fmt.Errorf("create repository directory: %w", err)
	}
	return nil
}

// Initialized probes for the engine's repository marker. The second
// return value reports whether the probe is authoritative; for remote
// repositories it never is and the engine has the final word.
func (l Locator) Initialized() (initialized, known bool) {
	if !l.Local() {
		return false, false
	}
	if _, err := os.Stat(filepath.Join(l.Repository, "config")); err == nil {
		return true, true
	}
	return false, true
}

// CleanupFailedInit removes the directories Prepare created when the
// subsequent init failed, so no empty repository skeleton survives.
func (l Locator) CleanupFailedInit() {
	if !l.Local() {
		return
	}
	// Remove inner-out; stops at the first non-empty directory.
	dir := l.Repository
	for i := 0; i < 3; i++ {
		if err := removeIfEmpty(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

func removeIfEmpty(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return fmt.Errorf("not empty")
	}
	return os.Remove(dir)
}
