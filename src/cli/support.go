package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"restic-backup/src/backup"
	"restic-backup/src/config"
	"restic-backup/src/credentials"
	"restic-backup/src/pgp"
	"restic-backup/src/restic"
	"restic-backup/src/util/progress"
)

type engineDetectorFunc func(context.Context) (restic.BinaryInfo, error)

var detectEngineFn engineDetectorFunc = restic.Detect

// loadRegistry resolves the configuration path and loads the target set.
func loadRegistry(cmd *cobra.Command) (*config.Registry, error) {
	explicit, _ := cmd.Root().PersistentFlags().GetString("config")
	path, err := config.ResolvePath(explicit)
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

// newSession wires one operation session: registry, credential
// resolver, detected engine binary. It also sweeps credential artifacts
// a crashed prior invocation may have left behind, before anything runs.
func newSession(cmd *cobra.Command, stderr io.Writer, relayLabel string) (*backup.Session, error) {
	registry, err := loadRegistry(cmd)
	if err != nil {
		return nil, err
	}

	if removed := restic.SweepStaleSecrets(); removed > 0 {
		fmt.Fprintf(stderr, "Removed %d stale credential artifact(s)\n", removed)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	bin, err := detectEngineFn(ctx)
	if err != nil {
		return nil, err
	}
	opts := getSafetyOptions(cmd)
	if !restic.IsCompatible(bin.Version) {
		fmt.Fprintf(stderr, "Warning: restic %s detected; %s or newer required.\n", bin.Version, restic.RequiredVersion)
		if !opts.Yes {
			return nil, fmt.Errorf("restic %s is older than required %s", bin.Version, restic.RequiredVersion)
		}
	}

	var decryptor pgp.Decryptor = &pgp.LazyGPG{}
	if keyring, _ := cmd.Root().PersistentFlags().GetString("pgp-keyring"); keyring != "" {
		kr, err := pgp.NewKeyring(keyring, nil)
		if err != nil {
			return nil, err
		}
		decryptor = kr
	}

	runner := &restic.Runner{Bin: bin}
	if !opts.Batch {
		runner.Relay = progress.NewRelay(stderr, relayLabel)
	}

	return &backup.Session{
		Registry: registry,
		Creds:    &credentials.Resolver{Decryptor: decryptor, Batch: opts.Batch},
		Engine:   runner,
		Timeout:  getTimeout(cmd),
		Batch:    opts.Batch,
		DryRun:   opts.DryRun,
	}, nil
}

// SetEngineDetectorForTest stubs engine detection. The returned function
// restores the previous detector.
func SetEngineDetectorForTest(fn engineDetectorFunc) func() {
	prev := detectEngineFn
	detectEngineFn = fn
	return func() { detectEngineFn = prev }
}
