package cs3fs

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/cboxdev/cs3fs-go/internal/cs3"
)

// Handle lifecycle errors.
var (
	ErrClosed      = errors.New("cs3fs: operation on closed file")
	ErrNotWritable = errors.New("cs3fs: file not open for writing")
	ErrBadMode     = errors.New("cs3fs: invalid open mode")
	ErrBadEncoding = errors.New("cs3fs: unsupported text encoding")
)

// File is a buffered handle over a remote file. The backend exposes
// whole-object reads and writes only, so the handle pulls the full
// content on open (for read and append modes) and pushes the full
// content on flush. Reads and writes against the buffer never touch
// the network.
//
// This bounds per-handle memory to the object size, which suits edited
// documents. Large transfers go through FS.CopyFile, which streams.
type File struct {
	fs   *FS
	path string

	read   bool
	write  bool
	append bool
	binary bool

	enc encoding.Encoding // nil means UTF-8 passthrough

	content  []byte // UTF-8 for text handles, raw bytes for binary
	pos      int
	modified bool
	closed   bool
}

// Open creates a handle on path. mode is a POSIX-style string: one of
// "r", "w", "a", optionally suffixed with "b" for binary. encName is an
// IANA charset name used when data crosses the text/binary boundary;
// empty means UTF-8.
//
// Read and append modes pull the content immediately. A pull failure is
// fatal for read mode; append mode tolerates it and starts empty.
func (f *FS) Open(ctx context.Context, p, mode, encName string) (*File, error) {
	h := &File{fs: f, path: p}

	base := strings.TrimSuffix(mode, "b")
	h.binary = strings.HasSuffix(mode, "b")

	switch base {
	case "r":
		h.read = true
	case "w":
		h.write = true
	case "a":
		h.append = true
	default:
		return nil, fmt.Errorf("%w: %q", ErrBadMode, mode)
	}

	enc, err := lookupEncoding(encName)
	if err != nil {
		return nil, err
	}

	h.enc = enc

	if h.read || h.append {
		if err := h.load(ctx); err != nil {
			if h.read {
				return nil, err
			}

			// Append on a missing or unreadable file starts empty.
			f.logger.Debug("append open starts empty",
				slog.String("path", p),
				slog.String("error", err.Error()),
			)

			h.content = nil
		}
	}

	return h, nil
}

// load pulls the full remote content into the buffer.
func (h *File) load(ctx context.Context) error {
	format := FormatText
	if h.binary {
		format = FormatByte
	}

	content, err := h.fs.ReadFile(ctx, h.path, format)
	if err != nil {
		return err
	}

	if h.binary {
		h.content = content.Raw
	} else {
		h.content = []byte(content.Text)
	}

	return nil
}

// Read returns up to n bytes from the cursor, advancing it. n < 0 reads
// to the end. Text handles yield UTF-8 bytes.
func (h *File) Read(n int) ([]byte, error) {
	if h.closed {
		return nil, ErrClosed
	}

	if n < 0 {
		out := h.content[h.pos:]
		h.pos = len(h.content)

		return out, nil
	}

	end := h.pos + n
	if end > len(h.content) {
		end = len(h.content)
	}

	out := h.content[h.pos:end]
	h.pos = end

	return out, nil
}

// ReadString is Read for text consumers.
func (h *File) ReadString(n int) (string, error) {
	out, err := h.Read(n)

	return string(out), err
}

// Write stores data in the buffer. On a text handle, data is decoded
// from the handle's configured encoding into UTF-8 first. In append
// mode data is concatenated; otherwise exactly len(data) bytes are
// replaced starting at the cursor, and the cursor advances past them.
// Returns the number of stored bytes.
func (h *File) Write(data []byte) (int, error) {
	if h.closed {
		return 0, ErrClosed
	}

	if !h.write && !h.append {
		return 0, ErrNotWritable
	}

	if !h.binary {
		decoded, err := h.decode(data)
		if err != nil {
			return 0, err
		}

		data = decoded
	}

	h.splice(data)

	return len(data), nil
}

// WriteString stores s in the buffer. On a binary handle, s is encoded
// with the handle's configured encoding first.
func (h *File) WriteString(s string) (int, error) {
	if h.closed {
		return 0, ErrClosed
	}

	if !h.write && !h.append {
		return 0, ErrNotWritable
	}

	data := []byte(s)

	if h.binary {
		encoded, err := h.encode(s)
		if err != nil {
			return 0, err
		}

		data = encoded
	}

	h.splice(data)

	return len(data), nil
}

// splice applies the write to the buffer. Append concatenates;
// overwrite replaces exactly len(data) bytes at the cursor, extending
// the buffer when the write runs past the end.
func (h *File) splice(data []byte) {
	if h.append {
		h.content = append(h.content, data...)
	} else {
		end := h.pos + len(data)

		var tail []byte
		if end < len(h.content) {
			tail = h.content[end:]
		}

		buf := make([]byte, 0, h.pos+len(data)+len(tail))
		buf = append(buf, h.content[:min(h.pos, len(h.content))]...)
		buf = append(buf, data...)
		buf = append(buf, tail...)

		h.content = buf
		h.pos = end
	}

	h.modified = true
}

// Seek moves the cursor to an absolute offset, clamped to the buffer.
func (h *File) Seek(offset int) error {
	if h.closed {
		return ErrClosed
	}

	if offset < 0 {
		offset = 0
	}

	if offset > len(h.content) {
		offset = len(h.content)
	}

	h.pos = offset

	return nil
}

// Flush pushes the buffer to the backend. It is a no-op unless content
// was modified since the last successful flush. Text content pushes as
// UTF-8 text; binary content pushes base64-encoded. The modified flag
// clears only when the push succeeds.
func (h *File) Flush(ctx context.Context) error {
	if h.closed || !h.modified {
		return nil
	}

	var err error
	if h.binary {
		err = h.fs.SaveFile(ctx, h.path, base64.StdEncoding.EncodeToString(h.content), FormatBase64)
	} else {
		err = h.fs.SaveFile(ctx, h.path, string(h.content), FormatText)
	}

	if err != nil {
		return err
	}

	h.modified = false

	return nil
}

// Close flushes pending changes and marks the handle closed. A second
// Close is a no-op. Every other operation on a closed handle fails with
// ErrClosed.
func (h *File) Close(ctx context.Context) error {
	if h.closed {
		return nil
	}

	if err := h.Flush(ctx); err != nil {
		return err
	}

	h.closed = true

	return nil
}

// decode converts bytes in the handle's encoding to UTF-8.
func (h *File) decode(data []byte) ([]byte, error) {
	if h.enc == nil {
		return data, nil
	}

	out, err := h.enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("cs3fs: decoding write data: %w", cs3.ErrInvalidInput)
	}

	return out, nil
}

// encode converts a UTF-8 string to bytes in the handle's encoding.
func (h *File) encode(s string) ([]byte, error) {
	if h.enc == nil {
		return []byte(s), nil
	}

	out, err := h.enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("cs3fs: encoding write data: %w", cs3.ErrInvalidInput)
	}

	return out, nil
}

// lookupEncoding resolves an IANA charset name. Empty and UTF-8 names
// mean passthrough.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return nil, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%w: %q", ErrBadEncoding, name)
	}

	return enc, nil
}
