package cs3fs

import (
	"context"

	"github.com/cboxdev/cs3fs-go/internal/cs3"
)

// Sharing overlay. Every resource-scoped operation follows one pattern:
// resolve the path, stat it to obtain the canonical descriptor the
// share API keys on, then invoke the gateway call. Records come back
// unmodified. Listing calls return empty slices, never errors, when the
// backend yields nothing.

// CreateShare grants a user or group the given role on the resource at
// path.
func (f *FS) CreateShare(ctx context.Context, p, opaqueID, idp, role string, granteeType cs3.GranteeType) (*cs3.Share, error) {
	info, err := f.client.Stat(ctx, resolve(p))
	if err != nil {
		return nil, err
	}

	grantee := cs3.Grantee{Type: granteeType, IDP: idp, OpaqueID: opaqueID}

	return f.client.CreateShare(ctx, info, grantee, role)
}

// ListSharesByResource lists the shares on the resource at path — who
// this resource has been shared with.
func (f *FS) ListSharesByResource(ctx context.Context, p string) ([]cs3.Share, error) {
	shares, err := f.client.ListShares(ctx, cs3.FilterByResource(resolve(p)))
	if err != nil {
		return nil, err
	}

	if shares == nil {
		shares = []cs3.Share{}
	}

	return shares, nil
}

// ListSharesByCreator lists the shares created by the given identity —
// the "shared by me" view.
func (f *FS) ListSharesByCreator(ctx context.Context, idp, opaqueID string) ([]cs3.Share, error) {
	shares, err := f.client.ListShares(ctx, cs3.FilterByCreator(idp, opaqueID))
	if err != nil {
		return nil, err
	}

	if shares == nil {
		shares = []cs3.Share{}
	}

	return shares, nil
}

// UpdateShare changes a share's role and/or display name by id.
func (f *FS) UpdateShare(ctx context.Context, id, role, displayName string) (*cs3.Share, error) {
	return f.client.UpdateShare(ctx, id, role, displayName)
}

// RemoveShare revokes a share by id.
func (f *FS) RemoveShare(ctx context.Context, id string) error {
	return f.client.RemoveShare(ctx, id)
}

// ListReceivedShares lists shares granted to the authenticated user.
func (f *FS) ListReceivedShares(ctx context.Context) ([]cs3.ReceivedShare, error) {
	shares, err := f.client.ListReceivedShares(ctx)
	if err != nil {
		return nil, err
	}

	if shares == nil {
		shares = []cs3.ReceivedShare{}
	}

	return shares, nil
}

// UpdateReceivedShare accepts or rejects a received share. hidden=false
// maps to accepted, hidden=true to rejected; no other state is settable
// through this interface.
func (f *FS) UpdateReceivedShare(ctx context.Context, id string, hidden bool) error {
	state := cs3.ShareStateAccepted
	if hidden {
		state = cs3.ShareStateRejected
	}

	return f.client.UpdateReceivedShare(ctx, id, state)
}

// CreatePublicShare creates an anonymous link on the resource at path.
func (f *FS) CreatePublicShare(ctx context.Context, p, role string, opts cs3.PublicShareOptions) (*cs3.PublicShare, error) {
	info, err := f.client.Stat(ctx, resolve(p))
	if err != nil {
		return nil, err
	}

	return f.client.CreatePublicShare(ctx, info, role, opts)
}

// ListPublicSharesByResource lists the public links on the resource at
// path.
func (f *FS) ListPublicSharesByResource(ctx context.Context, p string) ([]cs3.PublicShare, error) {
	shares, err := f.client.ListPublicShares(ctx, cs3.FilterByResource(resolve(p)))
	if err != nil {
		return nil, err
	}

	if shares == nil {
		shares = []cs3.PublicShare{}
	}

	return shares, nil
}

// ListPublicSharesByCreator lists the public links created by the given
// identity.
func (f *FS) ListPublicSharesByCreator(ctx context.Context, idp, opaqueID string) ([]cs3.PublicShare, error) {
	shares, err := f.client.ListPublicShares(ctx, cs3.FilterByCreator(idp, opaqueID))
	if err != nil {
		return nil, err
	}

	if shares == nil {
		shares = []cs3.PublicShare{}
	}

	return shares, nil
}

// UpdatePublicShare changes a public link's attributes by id.
func (f *FS) UpdatePublicShare(ctx context.Context, id string, update cs3.UpdatePublicShare) (*cs3.PublicShare, error) {
	return f.client.UpdatePublicShare(ctx, id, update)
}

// RemovePublicShare revokes a public link by id.
func (f *FS) RemovePublicShare(ctx context.Context, id string) error {
	return f.client.RemovePublicShare(ctx, id)
}

// FindUsers searches the identity provider for share targets.
func (f *FS) FindUsers(ctx context.Context, query, userType string) ([]cs3.User, error) {
	users, err := f.client.FindUsers(ctx, query, userType)
	if err != nil {
		return nil, err
	}

	if users == nil {
		users = []cs3.User{}
	}

	return users, nil
}

// FindGroups searches the identity provider for group share targets.
func (f *FS) FindGroups(ctx context.Context, query, groupType string) ([]cs3.Group, error) {
	groups, err := f.client.FindGroups(ctx, query, groupType)
	if err != nil {
		return nil, err
	}

	if groups == nil {
		groups = []cs3.Group{}
	}

	return groups, nil
}
