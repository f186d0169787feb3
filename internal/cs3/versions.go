package cs3

import (
	"context"
	"log/slog"
)

type listVersionsResponse struct {
	Versions []FileVersion `json:"versions"`
}

type restoreVersionRequest struct {
	Path string `json:"path"`
	Key  string `json:"key"`
}

// ListVersions returns the version history of the file at ref, newest
// last as the gateway reports it. A file without history yields an
// empty slice, not an error.
func (c *Client) ListVersions(ctx context.Context, ref ResourceRef) ([]FileVersion, error) {
	c.logger.Debug("list versions", slog.String("path", ref.Path))

	var lv listVersionsResponse
	if err := c.postJSON(ctx, "/storage/versions", statRequest{Path: ref.Path}, &lv); err != nil {
		return nil, err
	}

	return lv.Versions, nil
}

// RestoreVersion restores the file at ref to the version identified by key.
func (c *Client) RestoreVersion(ctx context.Context, ref ResourceRef, key string) error {
	c.logger.Debug("restore version",
		slog.String("path", ref.Path),
		slog.String("key", key),
	)

	return c.postJSON(ctx, "/storage/versions/restore", restoreVersionRequest{Path: ref.Path, Key: key}, nil)
}
