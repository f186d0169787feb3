package cs3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

// Request/response shapes mirroring the gateway's JSON wire format.
// Unexported — callers only see the normalized exported types.
type statRequest struct {
	Path string `json:"path"`
}

type statResponse struct {
	Info ResourceInfo `json:"info"`
}

type listContainerResponse struct {
	Infos []ResourceInfo `json:"infos"`
}

type moveRequest struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

type quotaResponse struct {
	Quota Quota `json:"quota"`
}

// Stat returns the resource descriptor for ref.
func (c *Client) Stat(ctx context.Context, ref ResourceRef) (*ResourceInfo, error) {
	c.logger.Debug("stat", slog.String("path", ref.Path))

	var sr statResponse
	if err := c.postJSON(ctx, "/storage/stat", statRequest{Path: ref.Path}, &sr); err != nil {
		return nil, err
	}

	return &sr.Info, nil
}

// ListContainer returns the descriptors of ref's direct children.
// Names and stats arrive in one call; there is no per-entry stat round trip.
func (c *Client) ListContainer(ctx context.Context, ref ResourceRef) ([]ResourceInfo, error) {
	c.logger.Debug("list container", slog.String("path", ref.Path))

	var lr listContainerResponse
	if err := c.postJSON(ctx, "/storage/list", statRequest{Path: ref.Path}, &lr); err != nil {
		return nil, err
	}

	return lr.Infos, nil
}

// CreateContainer creates a directory resource at ref.
func (c *Client) CreateContainer(ctx context.Context, ref ResourceRef) error {
	c.logger.Debug("create container", slog.String("path", ref.Path))

	return c.postJSON(ctx, "/storage/create-container", statRequest{Path: ref.Path}, nil)
}

// Delete removes the resource at ref. For directory resources the
// gateway deletes the whole subtree server-side; the client never
// enumerates children before deleting.
func (c *Client) Delete(ctx context.Context, ref ResourceRef) error {
	c.logger.Debug("delete", slog.String("path", ref.Path))

	return c.postJSON(ctx, "/storage/delete", statRequest{Path: ref.Path}, nil)
}

// Move renames src to dst.
func (c *Client) Move(ctx context.Context, src, dst ResourceRef) error {
	c.logger.Debug("move",
		slog.String("source", src.Path),
		slog.String("destination", dst.Path),
	)

	return c.postJSON(ctx, "/storage/move", moveRequest{Source: src.Path, Destination: dst.Path}, nil)
}

// TouchFile creates an empty file resource at ref.
func (c *Client) TouchFile(ctx context.Context, ref ResourceRef) error {
	c.logger.Debug("touch", slog.String("path", ref.Path))

	return c.postJSON(ctx, "/storage/touch", statRequest{Path: ref.Path}, nil)
}

// GetQuota returns the storage quota for the space containing ref.
// The record is passed through unmodified.
func (c *Client) GetQuota(ctx context.Context, ref ResourceRef) (*Quota, error) {
	c.logger.Debug("get quota", slog.String("path", ref.Path))

	var qr quotaResponse
	if err := c.postJSON(ctx, "/storage/quota", statRequest{Path: ref.Path}, &qr); err != nil {
		return nil, err
	}

	return &qr.Quota, nil
}

// Download opens a streaming read of the resource content. The caller
// must close the returned reader. Content is never buffered client-side
// by this call; consumers decide whether to materialize it.
func (c *Client) Download(ctx context.Context, ref ResourceRef) (io.ReadCloser, error) {
	c.logger.Debug("download", slog.String("path", ref.Path))

	resp, err := c.Do(ctx, http.MethodGet, "/storage/download?path="+url.QueryEscape(ref.Path), nil)
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

// Upload streams size bytes from r as the new content of ref. The
// backend exposes whole-object writes only, so size must be the full
// object length. When r is an io.Seeker the call survives a credential
// refresh; a live stream does not and a stale credential surfaces as an
// authentication error instead.
func (c *Client) Upload(ctx context.Context, ref ResourceRef, r io.Reader, size int64) error {
	c.logger.Debug("upload",
		slog.String("path", ref.Path),
		slog.Int64("size", size),
	)

	path := "/storage/upload?path=" + url.QueryEscape(ref.Path)

	resp, err := c.doUpload(ctx, path, r, size)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if _, copyErr := io.Copy(io.Discard, resp.Body); copyErr != nil {
		return fmt.Errorf("cs3: draining upload response: %w", copyErr)
	}

	return nil
}

// doUpload sends the content PUT with the Upload-Length header set so
// the gateway knows the object size up front.
func (c *Client) doUpload(ctx context.Context, path string, r io.Reader, size int64) (*http.Response, error) {
	url := c.baseURL + path
	requestID := uuid.NewString()

	do := func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, r)
		if err != nil {
			return nil, fmt.Errorf("cs3: creating upload request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+c.credential.Token())
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("X-Request-Id", requestID)
		req.Header.Set("Content-Type", "application/octet-stream")
		req.Header.Set("Upload-Length", strconv.FormatInt(size, 10))
		req.ContentLength = size

		return c.httpClient.Do(req)
	}

	resp, err := do()
	if err != nil {
		return nil, fmt.Errorf("cs3: upload %s: %w", path, err)
	}

	if classifyStatus(resp.StatusCode) == nil {
		return resp, nil
	}

	if resp.StatusCode == http.StatusUnauthorized && rewindBody(r) {
		drainAndClose(resp)

		c.logger.Warn("authentication failed on upload, refreshing credential and retrying",
			slog.String("path", path),
			slog.String("request_id", requestID),
		)

		if refreshErr := c.credential.Refresh(); refreshErr != nil {
			return nil, &StatusError{
				Status:    http.StatusUnauthorized,
				RequestID: requestID,
				Message:   fmt.Sprintf("credential refresh failed: %v", refreshErr),
				Err:       ErrAuthFailed,
			}
		}

		resp, err = do()
		if err != nil {
			return nil, fmt.Errorf("cs3: upload %s (retry): %w", path, err)
		}

		if classifyStatus(resp.StatusCode) == nil {
			return resp, nil
		}
	}

	return nil, c.statusError(resp, http.MethodPut, path, requestID)
}

// postJSON marshals req, POSTs it, and decodes the response into out
// when out is non-nil. The bytes.Reader body is seekable, so every
// JSON-RPC call survives a credential refresh retry.
func (c *Client) postJSON(ctx context.Context, path string, req, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("cs3: marshaling %s request: %w", path, err)
	}

	resp, err := c.Do(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		if _, copyErr := io.Copy(io.Discard, resp.Body); copyErr != nil {
			return fmt.Errorf("cs3: draining %s response: %w", path, copyErr)
		}

		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("cs3: decoding %s response: %w", path, err)
	}

	return nil
}
