package cs3

import (
	"context"
	"log/slog"
)

// Share API request/response shapes. Create calls carry the full
// resource descriptor because the gateway keys shares on the canonical
// resource id, not the path.
type createShareRequest struct {
	Resource ResourceInfo `json:"resource"`
	Grantee  Grantee      `json:"grantee"`
	Role     string       `json:"role"`
}

type shareResponse struct {
	Share Share `json:"share"`
}

type listSharesRequest struct {
	Filters []ShareFilter `json:"filters,omitempty"`
}

type listSharesResponse struct {
	Shares []Share `json:"shares"`
}

type updateShareRequest struct {
	ID          string `json:"id"`
	Role        string `json:"role,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

type removeShareRequest struct {
	ID string `json:"id"`
}

type listReceivedSharesResponse struct {
	Shares []ReceivedShare `json:"shares"`
}

type updateReceivedShareRequest struct {
	ID    string     `json:"id"`
	State ShareState `json:"state"`
}

// CreateShare grants grantee the given role on the resource described
// by info. The returned record is backend-defined and passed through
// unmodified.
func (c *Client) CreateShare(ctx context.Context, info *ResourceInfo, grantee Grantee, role string) (*Share, error) {
	c.logger.Debug("create share",
		slog.String("path", info.Path),
		slog.String("grantee", grantee.OpaqueID),
		slog.String("role", role),
	)

	var sr shareResponse
	if err := c.postJSON(ctx, "/shares/create", createShareRequest{Resource: *info, Grantee: grantee, Role: role}, &sr); err != nil {
		return nil, err
	}

	return &sr.Share, nil
}

// ListShares returns shares matching the given filters. No filters
// lists every share the caller can see; no matches yields an empty
// slice, never an error.
func (c *Client) ListShares(ctx context.Context, filters ...ShareFilter) ([]Share, error) {
	c.logger.Debug("list shares", slog.Int("filters", len(filters)))

	var lr listSharesResponse
	if err := c.postJSON(ctx, "/shares/list", listSharesRequest{Filters: filters}, &lr); err != nil {
		return nil, err
	}

	return lr.Shares, nil
}

// UpdateShare changes the role and/or display name of an existing share.
func (c *Client) UpdateShare(ctx context.Context, id, role, displayName string) (*Share, error) {
	c.logger.Debug("update share",
		slog.String("id", id),
		slog.String("role", role),
	)

	var sr shareResponse
	if err := c.postJSON(ctx, "/shares/update", updateShareRequest{ID: id, Role: role, DisplayName: displayName}, &sr); err != nil {
		return nil, err
	}

	return &sr.Share, nil
}

// RemoveShare revokes a share by id.
func (c *Client) RemoveShare(ctx context.Context, id string) error {
	c.logger.Debug("remove share", slog.String("id", id))

	return c.postJSON(ctx, "/shares/remove", removeShareRequest{ID: id}, nil)
}

// ListReceivedShares returns the shares granted to the authenticated user.
func (c *Client) ListReceivedShares(ctx context.Context) ([]ReceivedShare, error) {
	c.logger.Debug("list received shares")

	var lr listReceivedSharesResponse
	if err := c.postJSON(ctx, "/shares/received/list", struct{}{}, &lr); err != nil {
		return nil, err
	}

	return lr.Shares, nil
}

// UpdateReceivedShare sets the state of a received share. Only the
// accepted and rejected states are settable through this interface.
func (c *Client) UpdateReceivedShare(ctx context.Context, id string, state ShareState) error {
	c.logger.Debug("update received share",
		slog.String("id", id),
		slog.String("state", string(state)),
	)

	return c.postJSON(ctx, "/shares/received/update", updateReceivedShareRequest{ID: id, State: state}, nil)
}

// Public link API shapes.
type createPublicShareRequest struct {
	Resource        ResourceInfo `json:"resource"`
	Role            string       `json:"role"`
	Password        string       `json:"password,omitempty"`
	Expiration      string       `json:"expiration,omitempty"`
	Description     string       `json:"description,omitempty"`
	Internal        bool         `json:"internal,omitempty"`
	NotifyUploads   bool         `json:"notify_uploads,omitempty"`
	ExtraRecipients []string     `json:"notify_uploads_extra_recipients,omitempty"`
}

type publicShareResponse struct {
	Share PublicShare `json:"share"`
}

type listPublicSharesResponse struct {
	Shares []PublicShare `json:"shares"`
}

type updatePublicShareRequest struct {
	ID              string   `json:"id"`
	Role            string   `json:"role,omitempty"`
	Password        string   `json:"password,omitempty"`
	Expiration      string   `json:"expiration,omitempty"`
	Description     string   `json:"description,omitempty"`
	DisplayName     string   `json:"display_name,omitempty"`
	NotifyUploads   bool     `json:"notify_uploads,omitempty"`
	ExtraRecipients []string `json:"notify_uploads_extra_recipients,omitempty"`
}

// PublicShareOptions carries the optional attributes of a public link.
type PublicShareOptions struct {
	Password        string
	Expiration      string
	Description     string
	Internal        bool
	NotifyUploads   bool
	ExtraRecipients []string
}

// CreatePublicShare creates an anonymous link on the resource described
// by info with the given role and options.
func (c *Client) CreatePublicShare(ctx context.Context, info *ResourceInfo, role string, opts PublicShareOptions) (*PublicShare, error) {
	c.logger.Debug("create public share",
		slog.String("path", info.Path),
		slog.String("role", role),
	)

	req := createPublicShareRequest{
		Resource:        *info,
		Role:            role,
		Password:        opts.Password,
		Expiration:      opts.Expiration,
		Description:     opts.Description,
		Internal:        opts.Internal,
		NotifyUploads:   opts.NotifyUploads,
		ExtraRecipients: opts.ExtraRecipients,
	}

	var pr publicShareResponse
	if err := c.postJSON(ctx, "/links/create", req, &pr); err != nil {
		return nil, err
	}

	return &pr.Share, nil
}

// ListPublicShares returns public links matching the given filters.
// No matches yields an empty slice, never an error.
func (c *Client) ListPublicShares(ctx context.Context, filters ...ShareFilter) ([]PublicShare, error) {
	c.logger.Debug("list public shares", slog.Int("filters", len(filters)))

	var lr listPublicSharesResponse
	if err := c.postJSON(ctx, "/links/list", listSharesRequest{Filters: filters}, &lr); err != nil {
		return nil, err
	}

	return lr.Shares, nil
}

// UpdatePublicShare changes attributes of an existing public link.
func (c *Client) UpdatePublicShare(ctx context.Context, id string, req UpdatePublicShare) (*PublicShare, error) {
	c.logger.Debug("update public share", slog.String("id", id))

	wire := updatePublicShareRequest{
		ID:              id,
		Role:            req.Role,
		Password:        req.Password,
		Expiration:      req.Expiration,
		Description:     req.Description,
		DisplayName:     req.DisplayName,
		NotifyUploads:   req.NotifyUploads,
		ExtraRecipients: req.ExtraRecipients,
	}

	var pr publicShareResponse
	if err := c.postJSON(ctx, "/links/update", wire, &pr); err != nil {
		return nil, err
	}

	return &pr.Share, nil
}

// UpdatePublicShare carries the mutable attributes of a public link.
// Zero-value fields are omitted from the request.
type UpdatePublicShare struct {
	Role            string
	Password        string
	Expiration      string
	Description     string
	DisplayName     string
	NotifyUploads   bool
	ExtraRecipients []string
}

// RemovePublicShare revokes a public link by id.
func (c *Client) RemovePublicShare(ctx context.Context, id string) error {
	c.logger.Debug("remove public share", slog.String("id", id))

	return c.postJSON(ctx, "/links/remove", removeShareRequest{ID: id}, nil)
}
