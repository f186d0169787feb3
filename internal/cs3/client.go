package cs3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

const userAgent = "cs3fs-go/0.1"

// Client is an HTTP client for a CS3-style storage gateway. It handles
// request construction, bearer authentication, and error classification.
//
// Retry policy: an authentication failure triggers exactly one credential
// refresh followed by one re-execution of the call. No other failure
// category is retried and there is no backoff — nothing except a stale
// credential is remediable by calling again.
type Client struct {
	baseURL    string
	httpClient *http.Client
	credential *Credential
	logger     *slog.Logger
}

// NewClient creates a gateway client. baseURL is the gateway endpoint,
// e.g. "https://gateway.example.org/api/v1".
func NewClient(baseURL string, httpClient *http.Client, credential *Credential, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		credential: credential,
		logger:     logger,
	}
}

// Do executes an authenticated request against the gateway. The path is
// appended to the client's base URL. For non-nil bodies, Content-Type is
// set to application/json unless contentType overrides it via DoRaw.
// The caller is responsible for closing the response body on success.
//
// On a 401 response the credential is refreshed from its source and the
// request is re-executed a single time; the retried call's failure, of
// whatever category, propagates as classified.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	return c.DoRaw(ctx, method, path, "application/json", body)
}

// DoRaw is Do with an explicit content type, for byte-stream uploads.
//
// The auth retry re-sends the request body. A nil body or an io.Seeker
// can be replayed; anything else (a live stream) makes the call
// non-retryable, and the classified auth error propagates instead.
func (c *Client) DoRaw(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	url := c.baseURL + path
	requestID := uuid.NewString()

	resp, err := c.doOnce(ctx, method, url, contentType, requestID, body)
	if err != nil {
		return nil, fmt.Errorf("cs3: %s %s: %w", method, path, err)
	}

	if classifyStatus(resp.StatusCode) == nil {
		return resp, nil
	}

	if resp.StatusCode == http.StatusUnauthorized && rewindBody(body) {
		drainAndClose(resp)

		c.logger.Warn("authentication failed, refreshing credential and retrying",
			slog.String("method", method),
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

		resp, err = c.doOnce(ctx, method, url, contentType, requestID, body)
		if err != nil {
			return nil, fmt.Errorf("cs3: %s %s (retry): %w", method, path, err)
		}

		if classifyStatus(resp.StatusCode) == nil {
			return resp, nil
		}
	}

	return nil, c.statusError(resp, method, path, requestID)
}

// doOnce executes a single HTTP request (no retry).
func (c *Client) doOnce(ctx context.Context, method, url, contentType, requestID string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.credential.Token())
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-Id", requestID)

	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}

	return c.httpClient.Do(req)
}

// statusError reads the error body, closes the response, and returns the
// classified error.
func (c *Client) statusError(resp *http.Response, method, path, requestID string) error {
	errBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()

	if readErr != nil {
		errBody = []byte("(failed to read response body)")
	}

	sentinel := classifyStatus(resp.StatusCode)

	c.logger.Debug("request failed",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.String("request_id", requestID),
	)

	return &StatusError{
		Status:    resp.StatusCode,
		RequestID: requestID,
		Message:   string(errBody),
		Err:       sentinel,
	}
}

// rewindBody rewinds a request body for re-sending. Returns false when
// the body cannot be replayed.
func rewindBody(body io.Reader) bool {
	if body == nil {
		return true
	}

	seeker, ok := body.(io.Seeker)
	if !ok {
		return false
	}

	_, err := seeker.Seek(0, io.SeekStart)

	return err == nil
}

// drainAndClose discards any remaining body so the connection can be
// reused before a retry.
func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// IsAuth reports whether err is a classified authentication failure.
// Exposed for callers that treat post-retry auth failures as
// permission-denied at their own boundary.
func IsAuth(err error) bool {
	return errors.Is(err, ErrAuthFailed)
}
