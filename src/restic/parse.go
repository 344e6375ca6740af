package restic

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"restic-backup/src/fault"
)

// Snapshot is one entry of `snapshots --json`. Unknown fields in the
// engine output are ignored so newer engines keep working.
type Snapshot struct {
	ID       string    `json:"id"`
	ShortID  string    `json:"short_id"`
	Time     time.Time `json:"time"`
	Hostname string    `json:"hostname"`
	Username string    `json:"username"`
	Tags     []string  `json:"tags"`
	Paths    []string  `json:"paths"`
}

// ListEntry is one node of `ls --json` output.
type ListEntry struct {
	Name  string    `json:"name"`
	Type  string    `json:"type"` // "file" or "dir"
	Path  string    `json:"path"`
	Size  int64     `json:"size"`
	Mtime time.Time `json:"mtime"`
}

// DirectoryListing is the decoded content of one snapshot path.
type DirectoryListing struct {
	SnapshotID string
	Entries    []ListEntry
	Raw        string
}

// SearchMatch is one hit of `find --json`.
type SearchMatch struct {
	Path string `json:"path"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// SearchMatches groups find hits per snapshot.
type SearchMatches struct {
	Groups []SearchGroup
	Raw    string
}

type SearchGroup struct {
	SnapshotID string        `json:"snapshot"`
	Hits       int           `json:"hits"`
	Matches    []SearchMatch `json:"matches"`
}

// ParseSnapshots decodes `snapshots --json` output, most recent first.
func ParseSnapshots(op, target, raw string) ([]Snapshot, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	var snaps []Snapshot
	if err := json.Unmarshal([]byte(trimmed), &snaps); err != nil {
		return nil, parseError(op, target, raw, err)
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Time.After(snaps[j].Time) })
	return snaps, nil
}

// lsLine covers both the snapshot header and node lines of the
// line-oriented `ls --json` stream.
type lsLine struct {
	MessageType string `json:"message_type"`
	StructType  string `json:"struct_type"`
	ID          string `json:"id"`
	ShortID     string `json:"short_id"`
	ListEntry
}

// ParseListing decodes the `ls --json` stream: one JSON object per line,
// the first line describing the snapshot, the rest its nodes.
func ParseListing(op, target, raw string) (DirectoryListing, error) {
	listing := DirectoryListing{Raw: raw}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var l lsLine
		if err := json.Unmarshal([]byte(line), &l); err != nil {
			return listing, parseError(op, target, raw, err)
		}
		if l.MessageType == "snapshot" || l.StructType == "snapshot" || (l.Name == "" && l.ID != "") {
			listing.SnapshotID = l.ShortID
			if listing.SnapshotID == "" {
				listing.SnapshotID = l.ID
			}
			continue
		}
		listing.Entries = append(listing.Entries, l.ListEntry)
	}
	return listing, nil
}

// ParseFind decodes `find --json` output.
func ParseFind(op, target, raw string) (SearchMatches, error) {
	matches := SearchMatches{Raw: raw}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" || trimmed == "[]" {
		return matches, nil
	}
	if err := json.Unmarshal([]byte(trimmed), &matches.Groups); err != nil {
		return matches, parseError(op, target, raw, err)
	}
	return matches, nil
}

// parseError keeps the raw engine output with the error so callers can
// fall back to showing it verbatim.
func parseError(op, target, raw string, err error) error {
	return &fault.Error{
		Kind:   fault.Parse,
		Op:     op,
		Target: target,
		Stderr: raw,
		Err:    err,
	}
}
