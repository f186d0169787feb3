package cs3fs

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sync"
	"unicode/utf8"

	"github.com/cboxdev/cs3fs-go/internal/cs3"
)

// Content formats for ReadFile/SaveFile, matching the host contract.
const (
	FormatText   = "text"
	FormatBase64 = "base64"
	FormatByte   = "byte"
)

// FS exposes filesystem shaped operations over the storage gateway.
// It holds no remote state; the gateway is the system of record. The
// only cache is the writability memo, which lives for the FS instance.
type FS struct {
	client   *cs3.Client
	logger   *slog.Logger
	rootPath string

	writableMu   sync.Mutex
	writableMemo map[string]bool
}

// New creates an FS over the given gateway client. rootPath is the
// user's storage root; paths passed to FS methods are absolute gateway
// paths already validated for containment by the caller.
func New(client *cs3.Client, rootPath string, logger *slog.Logger) *FS {
	if logger == nil {
		logger = slog.Default()
	}

	return &FS{
		client:       client,
		logger:       logger,
		rootPath:     rootPath,
		writableMemo: make(map[string]bool),
	}
}

// Root returns the configured storage root path.
func (f *FS) Root() string {
	return f.rootPath
}

// DirEntry pairs a child name (final path segment only) with its stat.
type DirEntry struct {
	Name string
	Stat StatInfo
}

// Exists reports whether a resource exists at path. Any failure,
// including permission errors, reads as absent.
func (f *FS) Exists(ctx context.Context, p string) bool {
	_, err := f.client.Stat(ctx, resolve(p))

	return err == nil
}

// IsFile reports whether path names a file resource.
func (f *FS) IsFile(ctx context.Context, p string) bool {
	info, err := f.client.Stat(ctx, resolve(p))
	if err != nil {
		return false
	}

	return info.Type == cs3.ResourceTypeFile
}

// IsDir reports whether path names a directory resource.
func (f *FS) IsDir(ctx context.Context, p string) bool {
	info, err := f.client.Stat(ctx, resolve(p))
	if err != nil {
		return false
	}

	return info.Type == cs3.ResourceTypeContainer
}

// Lstat returns the translated stat for path.
func (f *FS) Lstat(ctx context.Context, p string) (StatInfo, error) {
	info, err := f.client.Stat(ctx, resolve(p))
	if err != nil {
		return StatInfo{}, err
	}

	logStatDefaulted(f.logger, p, info)

	return translateStat(info), nil
}

// Access reports whether the resource at path is reachable by the
// caller. Permission denials read as false; other failures propagate.
func (f *FS) Access(ctx context.Context, p string) (bool, error) {
	_, err := f.client.Stat(ctx, resolve(p))
	if err != nil {
		if errors.Is(err, cs3.ErrPermissionDenied) || errors.Is(err, cs3.ErrAuthFailed) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

// Writable reports whether the resource at path is writable, memoizing
// the answer per path for the life of the FS instance. This is the one
// permitted cache in the adapter.
func (f *FS) Writable(ctx context.Context, p string) (bool, error) {
	f.writableMu.Lock()
	cached, ok := f.writableMemo[p]
	f.writableMu.Unlock()

	if ok {
		return cached, nil
	}

	st, err := f.Lstat(ctx, p)
	if err != nil {
		return false, err
	}

	f.writableMu.Lock()
	f.writableMemo[p] = st.Writable
	f.writableMu.Unlock()

	return st.Writable, nil
}

// ListDir returns the entries of the directory at path. Names and stats
// come from one listing call; there is no per-entry stat round trip.
func (f *FS) ListDir(ctx context.Context, p string) ([]DirEntry, error) {
	infos, err := f.client.ListContainer(ctx, resolve(p))
	if err != nil {
		return nil, err
	}

	entries := make([]DirEntry, 0, len(infos))
	for i := range infos {
		entries = append(entries, DirEntry{
			Name: infos[i].Name(),
			Stat: translateStat(&infos[i]),
		})
	}

	return entries, nil
}

// Mkdir creates the directory at path. The parent must exist.
func (f *FS) Mkdir(ctx context.Context, p string) error {
	return f.client.CreateContainer(ctx, resolve(p))
}

// EnsureDirExists creates the directory at path along with any missing
// parents.
func (f *FS) EnsureDirExists(ctx context.Context, p string) error {
	if f.Exists(ctx, p) {
		return nil
	}

	parent := path.Dir(p)
	if parent != "" && parent != "/" && parent != "." && !f.Exists(ctx, parent) {
		if err := f.EnsureDirExists(ctx, parent); err != nil {
			return err
		}
	}

	return f.Mkdir(ctx, p)
}

// Unlink removes the resource at path.
func (f *FS) Unlink(ctx context.Context, p string) error {
	return f.client.Delete(ctx, resolve(p))
}

// Rename moves src to dst.
func (f *FS) Rename(ctx context.Context, src, dst string) error {
	return f.client.Move(ctx, resolve(src), resolve(dst))
}

// Quota returns the backend quota record for path, unmodified.
func (f *FS) Quota(ctx context.Context, p string) (*cs3.Quota, error) {
	return f.client.GetQuota(ctx, resolve(p))
}

// ListFileVersions returns the version history of the file at path.
func (f *FS) ListFileVersions(ctx context.Context, p string) ([]cs3.FileVersion, error) {
	versions, err := f.client.ListVersions(ctx, resolve(p))
	if err != nil {
		return nil, err
	}

	return versions, nil
}

// RestoreFileVersion restores the file at path to the given version key.
func (f *FS) RestoreFileVersion(ctx context.Context, p, key string) error {
	return f.client.RestoreVersion(ctx, resolve(p), key)
}

// FileContent is the result of ReadFile: the raw bytes plus the
// negotiated representation.
type FileContent struct {
	// Format is one of FormatText, FormatBase64, FormatByte.
	Format string
	// Text holds the content for text (UTF-8) and base64 formats.
	Text string
	// Raw always holds the raw bytes.
	Raw []byte
}

// ReadFile pulls the full content of the file at path and negotiates a
// representation. An empty format tries UTF-8 text first and falls back
// to base64 when decoding fails. An explicit FormatText that fails to
// decode is an invalid-input error, not a fallback. FormatByte returns
// raw bytes only.
func (f *FS) ReadFile(ctx context.Context, p, format string) (*FileContent, error) {
	raw, err := f.readAll(ctx, p)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatByte:
		return &FileContent{Format: FormatByte, Raw: raw}, nil

	case FormatText:
		if !utf8.Valid(raw) {
			return nil, fmt.Errorf("cs3fs: cannot decode %s as text: %w", p, cs3.ErrInvalidInput)
		}

		return &FileContent{Format: FormatText, Text: string(raw), Raw: raw}, nil

	case "", FormatBase64:
		if format == "" && utf8.Valid(raw) {
			return &FileContent{Format: FormatText, Text: string(raw), Raw: raw}, nil
		}

		return &FileContent{
			Format: FormatBase64,
			Text:   base64.StdEncoding.EncodeToString(raw),
			Raw:    raw,
		}, nil

	default:
		return nil, fmt.Errorf("cs3fs: unsupported content format %q: %w", format, cs3.ErrInvalidInput)
	}
}

// SaveFile pushes content to the file at path. FormatText content is
// written as UTF-8; FormatBase64 content is decoded before writing.
// Malformed base64 is an invalid-input error.
func (f *FS) SaveFile(ctx context.Context, p, content, format string) error {
	var raw []byte

	switch format {
	case FormatText:
		raw = []byte(content)

	case FormatBase64:
		decoded, err := base64.StdEncoding.DecodeString(content)
		if err != nil {
			return fmt.Errorf("cs3fs: decoding base64 content for %s: %w", p, cs3.ErrInvalidInput)
		}

		raw = decoded

	default:
		return fmt.Errorf("cs3fs: unsupported save format %q: %w", format, cs3.ErrInvalidInput)
	}

	return f.client.Upload(ctx, resolve(p), bytes.NewReader(raw), int64(len(raw)))
}

// OpenRead returns a streaming reader over the file content at path.
// The caller must close it. Content is not buffered client-side.
func (f *FS) OpenRead(ctx context.Context, p string) (io.ReadCloser, error) {
	return f.client.Download(ctx, resolve(p))
}

// WriteStream pushes size bytes from r as the new content of path
// without buffering. Seekable readers survive a credential refresh
// retry; live streams do not.
func (f *FS) WriteStream(ctx context.Context, p string, r io.Reader, size int64) error {
	return f.client.Upload(ctx, resolve(p), r, size)
}

// readAll pulls the complete content of the file at path into memory.
// Used by ReadFile and the buffered file handle; the streaming path in
// tree.go never calls this.
func (f *FS) readAll(ctx context.Context, p string) ([]byte, error) {
	rc, err := f.client.Download(ctx, resolve(p))
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("cs3fs: reading content of %s: %w", p, err)
	}

	return raw, nil
}
