package notion

import (
	"context"
	"fmt"
)

// ListUsers returns one page of workspace users.
func (c *Client) ListUsers(ctx context.Context, opts ListOptions) (*UserList, error) {
	var list UserList
	resp, err := opts.apply(c.req()).
		SetContext(ctx).
		SetResult(&list).
		Get("/v1/users")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetUser retrieves a user by ID.
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	var user User
	resp, err := c.req().
		SetContext(ctx).
		SetResult(&user).
		Get(fmt.Sprintf("/v1/users/%s", userID))
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetMe retrieves the bot user behind the token.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var user User
	resp, err := c.req().
		SetContext(ctx).
		SetResult(&user).
		Get("/v1/users/me")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &user, nil
}
