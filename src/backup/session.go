// Package backup is the operation API the CLI (and any GUI) consumes.
// Each operation resolves its target, computes the repository location,
// obtains the secret, builds the engine invocation and decodes the
// captured output. Operations on different targets may run concurrently;
// the only shared state is the read-only registry.
package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"restic-backup/src/config"
	"restic-backup/src/credentials"
	"restic-backup/src/fault"
	"restic-backup/src/restic"
	"restic-backup/src/target"
)

// Engine runs one built invocation. *restic.Runner is the real thing;
// tests substitute their own.
type Engine interface {
	Run(ctx context.Context, inv restic.Invocation, secret *credentials.Secret, timeout time.Duration) (restic.Result, error)
}

// Session owns one caller's view of the target set. Construct at session
// start, discard at session end.
type Session struct {
	Registry *config.Registry
	Creds    *credentials.Resolver
	Engine   Engine
	Timeout  time.Duration
	Batch    bool
	DryRun   bool
}

// Selector overrides which (host, user, year) repository an operation
// addresses. Zero fields mean the current machine, user and year.
type Selector struct {
	Host string
	User string
	Year string
}

// BackupOptions parameterizes Backup.
type BackupOptions struct {
	Selector
	AutoCreate bool // in addition to the target's own flag
	Tags       []string
}

// RestoreOptions parameterizes Restore.
type RestoreOptions struct {
	Selector
	Snapshot string // empty or "latest" for the most recent
	Dest     string // existing directory to restore into
}

// ForgetOptions parameterizes Forget.
type ForgetOptions struct {
	Selector
	Snapshot string // empty: keep only the most recent snapshot
	Prune    bool
}

func (s *Session) resolve(op, name string, sel Selector) (config.Target, target.Locator, error) {
	t, err := s.Registry.Resolve(name)
	if err != nil {
		return config.Target{}, target.Locator{}, err
	}
	loc, err := target.Resolve(t, sel.Host, sel.User, sel.Year)
	if err != nil {
		return config.Target{}, target.Locator{}, err
	}
	return t, loc, nil
}

// run resolves the secret, executes the invocation and wipes the secret,
// whatever the outcome.
func (s *Session) run(ctx context.Context, t config.Target, inv restic.Invocation) (restic.Result, error) {
	secret, err := s.Creds.Resolve(ctx, inv.Op.String(), t)
	if err != nil {
		return restic.Result{}, err
	}
	defer secret.Wipe()
	return s.Engine.Run(ctx, inv, secret, s.Timeout)
}

// ensureRepository initializes the repository if its marker is absent.
// A repository that turns out to exist already counts as success. When
// the init fails, directories created for it are removed again.
func (s *Session) ensureRepository(ctx context.Context, t config.Target, loc target.Locator) error {
	if initialized, known := loc.Initialized(); known && initialized {
		return nil
	}
	if err := loc.Prepare(); err != nil {
		return fault.New(fault.Invocation, "init", t.Name, err)
	}
	inv, err := restic.Build(restic.OpInit, t.Name, loc.Repository, restic.Options{Batch: s.Batch})
	if err != nil {
		return err
	}
	if _, err := s.run(ctx, t, inv); err != nil {
		var fe *fault.Error
		if errors.As(err, &fe) && fe.Kind == fault.Engine && restic.IsAlreadyInitialized(fe.Stderr) {
			return nil
		}
		loc.CleanupFailedInit()
		return err
	}
	return nil
}

// Init creates the repository for the target's current (host, user,
// year) location. Initializing an existing repository succeeds.
func (s *Session) Init(ctx context.Context, name string) error {
	t, loc, err := s.resolve("init", name, Selector{})
	if err != nil {
		return err
	}
	return s.ensureRepository(ctx, t, loc)
}

// Backup saves the target's scope into its repository. With auto-create
// the repository is initialized first when missing; without it a missing
// repository is the engine's "repository does not exist" failure.
func (s *Session) Backup(ctx context.Context, name string, opts BackupOptions) (restic.Result, error) {
	t, loc, err := s.resolve("backup", name, opts.Selector)
	if err != nil {
		return restic.Result{}, err
	}
	if t.Scope == nil {
		return restic.Result{}, fault.Newf(fault.Build, "backup", name, "target has no scope configured")
	}
	if _, err := os.Stat(t.Scope.Includes); err != nil {
		return restic.Result{}, fault.Newf(fault.Build, "backup", name, "scope includes file: %w", err)
	}
	excludeFile, cleanup, err := stageExcludes(t.Scope)
	if err != nil {
		return restic.Result{}, fault.New(fault.Build, "backup", name, err)
	}
	defer cleanup()

	if t.AutoCreate || opts.AutoCreate {
		if err := s.ensureRepository(ctx, t, loc); err != nil {
			return restic.Result{}, err
		}
	}
	inv, err := restic.Build(restic.OpBackup, name, loc.Repository, restic.Options{
		FilesFrom:   t.Scope.Includes,
		ExcludeFile: excludeFile,
		Tags:        opts.Tags,
		DryRun:      s.DryRun,
		Batch:       s.Batch,
	})
	if err != nil {
		return restic.Result{}, err
	}
	return s.run(ctx, t, inv)
}

// Restore extracts the given snapshot into an existing directory.
// Engine failures (such as "no snapshot found") surface verbatim and are
// never retried.
func (s *Session) Restore(ctx context.Context, name string, opts RestoreOptions) (restic.Result, error) {
	t, loc, err := s.resolve("restore", name, opts.Selector)
	if err != nil {
		return restic.Result{}, err
	}
	info, statErr := os.Stat(opts.Dest)
	if statErr != nil {
		return restic.Result{}, fault.Newf(fault.Build, "restore", name, "restore destination: %w", statErr)
	}
	if !info.IsDir() {
		return restic.Result{}, fault.Newf(fault.Build, "restore", name, "restore destination %s is not a directory", opts.Dest)
	}
	inv, err := restic.Build(restic.OpRestore, name, loc.Repository, restic.Options{
		Snapshot:    opts.Snapshot,
		RestorePath: opts.Dest,
		DryRun:      s.DryRun,
		Batch:       s.Batch,
	})
	if err != nil {
		return restic.Result{}, err
	}
	return s.run(ctx, t, inv)
}

// Unlock removes stale engine locks. Unlocking an unlocked repository
// succeeds.
func (s *Session) Unlock(ctx context.Context, name string) (restic.Result, error) {
	t, loc, err := s.resolve("unlock", name, Selector{})
	if err != nil {
		return restic.Result{}, err
	}
	inv, err := restic.Build(restic.OpUnlock, name, loc.Repository, restic.Options{Batch: s.Batch})
	if err != nil {
		return restic.Result{}, err
	}
	return s.run(ctx, t, inv)
}

// Snapshots lists the repository's snapshots, most recent first.
func (s *Session) Snapshots(ctx context.Context, name string, sel Selector) ([]restic.Snapshot, error) {
	t, loc, err := s.resolve("snapshots", name, sel)
	if err != nil {
		return nil, err
	}
	inv, err := restic.Build(restic.OpSnapshots, name, loc.Repository, restic.Options{Batch: s.Batch})
	if err != nil {
		return nil, err
	}
	res, err := s.run(ctx, t, inv)
	if err != nil {
		return nil, err
	}
	return restic.ParseSnapshots("snapshots", name, res.Stdout)
}

// List browses one path inside a snapshot. On a decode failure the
// returned listing still carries the raw engine output alongside the
// parse error, so callers can fall back to it.
func (s *Session) List(ctx context.Context, name, snapshot, path string, sel Selector) (restic.DirectoryListing, error) {
	t, loc, err := s.resolve("list", name, sel)
	if err != nil {
		return restic.DirectoryListing{}, err
	}
	inv, err := restic.Build(restic.OpList, name, loc.Repository, restic.Options{
		Snapshot: snapshot,
		Path:     path,
		Batch:    s.Batch,
	})
	if err != nil {
		return restic.DirectoryListing{}, err
	}
	res, err := s.run(ctx, t, inv)
	if err != nil {
		return restic.DirectoryListing{}, err
	}
	return restic.ParseListing("list", name, res.Stdout)
}

// Search finds paths matching the pattern across the repository's
// snapshots.
func (s *Session) Search(ctx context.Context, name, pattern string, sel Selector) (restic.SearchMatches, error) {
	t, loc, err := s.resolve("search", name, sel)
	if err != nil {
		return restic.SearchMatches{}, err
	}
	inv, err := restic.Build(restic.OpSearch, name, loc.Repository, restic.Options{
		Pattern: pattern,
		Batch:   s.Batch,
	})
	if err != nil {
		return restic.SearchMatches{}, err
	}
	res, err := s.run(ctx, t, inv)
	if err != nil {
		return restic.SearchMatches{}, err
	}
	return restic.ParseFind("search", name, res.Stdout)
}

// Forget drops the given snapshot, or prunes the repository down to the
// most recent snapshot when none is given.
func (s *Session) Forget(ctx context.Context, name string, opts ForgetOptions) (restic.Result, error) {
	t, loc, err := s.resolve("forget", name, opts.Selector)
	if err != nil {
		return restic.Result{}, err
	}
	inv, err := restic.Build(restic.OpForget, name, loc.Repository, restic.Options{
		Snapshot: opts.Snapshot,
		Prune:    opts.Prune,
		DryRun:   s.DryRun,
		Batch:    s.Batch,
	})
	if err != nil {
		return restic.Result{}, err
	}
	return s.run(ctx, t, inv)
}

// stageExcludes merges a scope's inline ignore patterns with its
// excludes file into an ephemeral file for the engine. The returned
// cleanup removes it.
func stageExcludes(scope *config.Scope) (string, func(), error) {
	if len(scope.Ignores) == 0 {
		return scope.Excludes, func() {}, nil
	}
	f, err := os.CreateTemp("", "restic-backup-excludes-*")
	if err != nil {
		return "", nil, fmt.Errorf("stage excludes: %w", err)
	}
	for _, pattern := range scope.Ignores {
		fmt.Fprintln(f, pattern)
	}
	if scope.Excludes != "" {
		data, err := os.ReadFile(scope.Excludes)
		if err != nil {
			f.Close()
			os.Remove(f.Name())
			return "", nil, fmt.Errorf("read excludes file: %w", err)
		}
		f.Write(data)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("stage excludes: %w", err)
	}
	return f.Name(), func() { os.Remove(f.Name()) }, nil
}
