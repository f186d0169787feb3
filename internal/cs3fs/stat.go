// Package cs3fs adapts the remote storage gateway into a local
// filesystem shaped API: stat structures, buffered file handles, and
// recursive tree operations over the cs3 client.
package cs3fs

import (
	"encoding/json"
	"io/fs"
	"log/slog"
	"time"

	"github.com/cboxdev/cs3fs-go/internal/cs3"
)

// Kind classifies a resource the way a directory listing consumer
// expects it.
type Kind int

// Resource kinds.
const (
	KindFile Kind = iota
	KindDirectory
	KindSymlink
)

// StatInfo is the uniform stat structure translated from gateway
// descriptors. Timestamps are epoch seconds, integer-truncated.
type StatInfo struct {
	Size     int64
	Mtime    int64
	Ctime    int64
	Kind     Kind
	Writable bool
}

// Mode returns conventional mode bits for display purposes.
func (s StatInfo) Mode() fs.FileMode {
	switch s.Kind {
	case KindDirectory:
		return fs.ModeDir | 0o755
	case KindSymlink:
		return fs.ModeSymlink | 0o777
	default:
		return 0o644
	}
}

// IsDir reports whether the stat describes a directory.
func (s StatInfo) IsDir() bool {
	return s.Kind == KindDirectory
}

// resolve converts an abstract path into a gateway resource reference.
// Pure: no I/O, never fails. Containment validation is the caller's
// responsibility and happens before resolution.
func resolve(path string) cs3.ResourceRef {
	return cs3.ResourceRef{Path: path}
}

// translateStat converts a gateway descriptor into a StatInfo. Partial
// descriptors still yield a valid result: a missing mtime becomes the
// current time, an unknown type becomes a file, and absent permission
// bits mean not writable. A resource is writable when its permission
// set allows container creation or deletion.
func translateStat(info *cs3.ResourceInfo) StatInfo {
	st := StatInfo{Kind: KindFile}

	if info == nil {
		st.Mtime = time.Now().Unix()
		st.Ctime = st.Mtime

		return st
	}

	st.Size = int64(info.Size)

	if info.Mtime != nil && (info.Mtime.Seconds != 0 || info.Mtime.Nanos != 0) {
		st.Mtime = info.Mtime.Seconds
	} else {
		st.Mtime = time.Now().Unix()
	}

	// The gateway reports a single change time; ctime mirrors mtime.
	st.Ctime = st.Mtime

	switch info.Type {
	case cs3.ResourceTypeContainer:
		st.Kind = KindDirectory
	case cs3.ResourceTypeSymlink:
		st.Kind = KindSymlink
	default:
		st.Kind = KindFile
	}

	if info.PermissionSet != nil {
		st.Writable = info.PermissionSet.CreateContainer || info.PermissionSet.Delete
	}

	return st
}

// treeSizeKey is the opaque metadata key under which the backend
// annotates directories with their recursive size.
const treeSizeKey = "eos"

// treeSizePayload is the JSON shape of the tree-size annotation.
type treeSizePayload struct {
	TreeSize *int64 `json:"tree_size"`
}

// treeSize extracts the recursive directory size from a descriptor's
// side-channel metadata. The annotation is best-effort enrichment:
// a missing key, wrong decoder, or malformed payload reports false and
// is logged by the caller, never raised.
func treeSize(info *cs3.ResourceInfo) (int64, bool) {
	if info == nil || info.Opaque == nil {
		return 0, false
	}

	entry, ok := info.Opaque[treeSizeKey]
	if !ok || entry.Decoder != "json" {
		return 0, false
	}

	var payload treeSizePayload
	if err := json.Unmarshal(entry.Value, &payload); err != nil {
		return 0, false
	}

	if payload.TreeSize == nil || *payload.TreeSize < 0 {
		return 0, false
	}

	return *payload.TreeSize, true
}

// logStatDefaulted logs once when a descriptor was missing fields and
// defaults were substituted. Debug level: partial descriptors are
// normal for some storage drivers.
func logStatDefaulted(logger *slog.Logger, path string, info *cs3.ResourceInfo) {
	if info == nil {
		logger.Debug("stat descriptor missing, using defaults", slog.String("path", path))
		return
	}

	if info.Mtime == nil || info.PermissionSet == nil {
		logger.Debug("stat descriptor partial, defaults substituted",
			slog.String("path", path),
			slog.Bool("has_mtime", info.Mtime != nil),
			slog.Bool("has_permissions", info.PermissionSet != nil),
		)
	}
}
