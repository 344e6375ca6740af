package version

// Version is the release identifier, overridden at build time via
// -ldflags "-X restic-backup/src/version.Version=...".
var Version = "0.1.0-dev"
