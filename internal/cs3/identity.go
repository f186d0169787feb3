package cs3

import (
	"context"
	"log/slog"
)

type findUsersRequest struct {
	Query    string `json:"query,omitempty"`
	UserType string `json:"user_type,omitempty"`
}

type findUsersResponse struct {
	Users []User `json:"users"`
}

type findGroupsRequest struct {
	Query     string `json:"query,omitempty"`
	GroupType string `json:"group_type,omitempty"`
}

type findGroupsResponse struct {
	Groups []Group `json:"groups"`
}

// FindUsers searches the identity provider for users matching query,
// optionally restricted to a user type (e.g. "USER_TYPE_PRIMARY").
// No matches yields an empty slice.
func (c *Client) FindUsers(ctx context.Context, query, userType string) ([]User, error) {
	c.logger.Debug("find users",
		slog.String("query", query),
		slog.String("user_type", userType),
	)

	var fr findUsersResponse
	if err := c.postJSON(ctx, "/identity/users", findUsersRequest{Query: query, UserType: userType}, &fr); err != nil {
		return nil, err
	}

	return fr.Users, nil
}

// FindGroups searches the identity provider for groups matching query,
// optionally restricted to a group type ("GROUP_TYPE_REGULAR" or
// "GROUP_TYPE_FEDERATED"). No matches yields an empty slice.
func (c *Client) FindGroups(ctx context.Context, query, groupType string) ([]Group, error) {
	c.logger.Debug("find groups",
		slog.String("query", query),
		slog.String("group_type", groupType),
	)

	var fr findGroupsResponse
	if err := c.postJSON(ctx, "/identity/groups", findGroupsRequest{Query: query, GroupType: groupType}, &fr); err != nil {
		return nil, err
	}

	return fr.Groups, nil
}
