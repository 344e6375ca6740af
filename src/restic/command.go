package restic

import (
	"fmt"
	"regexp"

	"restic-backup/src/fault"
)

// Operation enumerates the engine operations the builder knows. The set
// is closed; the CLI and any GUI go through these and nothing else.
type Operation int

const (
	OpInit Operation = iota
	OpBackup
	OpRestore
	OpUnlock
	OpSnapshots
	OpList
	OpSearch
	OpForget
)

func (op Operation) String() string {
	switch op {
	case OpInit:
		return "init"
	case OpBackup:
		return "backup"
	case OpRestore:
		return "restore"
	case OpUnlock:
		return "unlock"
	case OpSnapshots:
		return "snapshots"
	case OpList:
		return "list"
	case OpSearch:
		return "search"
	case OpForget:
		return "forget"
	}
	return fmt.Sprintf("operation(%d)", int(op))
}

// SnapshotLatest selects the most recent snapshot.
const SnapshotLatest = "latest"

// Options carries the operation-specific parameters. Fields that do not
// apply to the operation must stay zero; Build rejects stray ones.
type Options struct {
	Snapshot    string   // restore, list, forget
	RestorePath string   // restore destination directory
	Path        string   // list: path inside the snapshot
	Pattern     string   // search
	FilesFrom   string   // backup: file listing the paths to save
	ExcludeFile string   // backup
	Tags        []string // backup
	Prune       bool     // forget
	DryRun      bool
	Batch       bool
}

// Invocation is the computed engine call: argument vector plus
// environment additions. It never carries the secret; the delivery
// channel is the runner's business. Identical inputs to Build yield
// identical Invocations.
type Invocation struct {
	Op     Operation
	Target string
	Args   []string
	Env    []string
}

var snapshotRe = regexp.MustCompile(`^[a-fA-F0-9]+$`)

// Build maps (operation, target, repository, options) to an Invocation.
// Invalid combinations fail with a build error before any process is
// spawned.
func Build(op Operation, targetName, repository string, opts Options) (Invocation, error) {
	fail := func(format string, args ...any) (Invocation, error) {
		return Invocation{}, fault.Newf(fault.Build, op.String(), targetName, format, args...)
	}
	if repository == "" {
		return fail("repository location is empty")
	}
	if opts.Pattern != "" && op != OpSearch {
		return fail("search pattern is not valid for %s", op)
	}
	if opts.RestorePath != "" && op != OpRestore {
		return fail("restore path is not valid for %s", op)
	}
	if opts.Path != "" && op != OpList {
		return fail("snapshot path is not valid for %s", op)
	}
	if (opts.FilesFrom != "" || opts.ExcludeFile != "" || len(opts.Tags) > 0) && op != OpBackup {
		return fail("backup scope options are not valid for %s", op)
	}
	if opts.Prune && op != OpForget {
		return fail("prune is not valid for %s", op)
	}
	if opts.DryRun {
		switch op {
		case OpBackup, OpRestore, OpForget:
		default:
			return fail("dry-run is not valid for %s", op)
		}
	}
	if opts.Snapshot != "" {
		switch op {
		case OpRestore, OpList, OpForget:
		default:
			return fail("snapshot selector is not valid for %s", op)
		}
		if opts.Snapshot != SnapshotLatest && !snapshotRe.MatchString(opts.Snapshot) {
			return fail("invalid snapshot id %q, want hex or %q", opts.Snapshot, SnapshotLatest)
		}
	}

	var args []string
	switch op {
	case OpInit:
		args = []string{"init"}
	case OpBackup:
		if opts.FilesFrom == "" {
			return fail("backup needs a files-from listing")
		}
		args = []string{"backup", "--files-from", opts.FilesFrom}
		if opts.ExcludeFile != "" {
			args = append(args, "--exclude-file", opts.ExcludeFile)
		}
		for _, tag := range opts.Tags {
			args = append(args, "--tag", tag)
		}
		if opts.DryRun {
			args = append(args, "--dry-run")
		}
	case OpRestore:
		if opts.RestorePath == "" {
			return fail("restore needs a destination path")
		}
		args = []string{"restore", snapshotOrLatest(opts.Snapshot), "--target", opts.RestorePath}
		if opts.DryRun {
			args = append(args, "--dry-run")
		}
	case OpUnlock:
		args = []string{"unlock"}
	case OpSnapshots:
		args = []string{"snapshots", "--json"}
	case OpList:
		args = []string{"ls", "--json", snapshotOrLatest(opts.Snapshot)}
		if opts.Path != "" {
			args = append(args, opts.Path)
		}
	case OpSearch:
		if opts.Pattern == "" {
			return fail("search needs a pattern")
		}
		args = []string{"find", "--json", opts.Pattern}
	case OpForget:
		if opts.Snapshot != "" {
			args = []string{"forget", opts.Snapshot}
		} else {
			// No snapshot given: keep only the most recent one.
			args = []string{"forget", "--keep-last", "1"}
		}
		if opts.Prune {
			args = append(args, "--prune")
		}
		if opts.DryRun {
			args = append(args, "--dry-run")
		}
	default:
		return fail("unsupported operation")
	}
	if opts.Batch {
		args = append(args, "--quiet")
	}
	return Invocation{
		Op:     op,
		Target: targetName,
		Args:   args,
		Env:    []string{"RESTIC_REPOSITORY=" + repository},
	}, nil
}

func snapshotOrLatest(snapshot string) string {
	if snapshot == "" {
		return SnapshotLatest
	}
	return snapshot
}
