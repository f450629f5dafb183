package notion

import (
	"context"
	"fmt"
)

// GetPage retrieves a page by ID.
func (c *Client) GetPage(ctx context.Context, pageID string) (*Page, error) {
	var page Page
	resp, err := c.req().
		SetContext(ctx).
		SetResult(&page).
		Get(fmt.Sprintf("/v1/pages/%s", pageID))
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreatePageInput are the fields for creating a page.
type CreatePageInput struct {
	Parent     Parent         `json:"parent"`
	Properties map[string]any `json:"properties"`
	Children   []Block        `json:"children,omitempty"`
	Icon       *Icon          `json:"icon,omitempty"`
	Cover      map[string]any `json:"cover,omitempty"`
}

// CreatePage creates a new page under a page or database parent.
func (c *Client) CreatePage(ctx context.Context, input CreatePageInput) (*Page, error) {
	var page Page
	resp, err := c.req().
		SetContext(ctx).
		SetBody(input).
		SetResult(&page).
		Post("/v1/pages")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &page, nil
}

// UpdatePageInput are the fields for a partial page update. Nil fields
// are left untouched.
type UpdatePageInput struct {
	Properties map[string]any `json:"properties,omitempty"`
	Archived   *bool          `json:"archived,omitempty"`
	Icon       *Icon          `json:"icon,omitempty"`
	Cover      map[string]any `json:"cover,omitempty"`
}

// UpdatePage updates a page's properties or archived state.
func (c *Client) UpdatePage(ctx context.Context, pageID string, input UpdatePageInput) (*Page, error) {
	var page Page
	resp, err := c.req().
		SetContext(ctx).
		SetBody(input).
		SetResult(&page).
		Patch(fmt.Sprintf("/v1/pages/%s", pageID))
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetDatabase retrieves a database by ID.
func (c *Client) GetDatabase(ctx context.Context, databaseID string) (*Database, error) {
	var db Database
	resp, err := c.req().
		SetContext(ctx).
		SetResult(&db).
		Get(fmt.Sprintf("/v1/databases/%s", databaseID))
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &db, nil
}

// QueryDatabaseInput are the fields for a database query.
type QueryDatabaseInput struct {
	Filter      map[string]any   `json:"filter,omitempty"`
	Sorts       []map[string]any `json:"sorts,omitempty"`
	StartCursor string           `json:"start_cursor,omitempty"`
	PageSize    int              `json:"page_size,omitempty"`
}

// QueryDatabase returns one page of database rows matching the query.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, input QueryDatabaseInput) (*PageList, error) {
	var list PageList
	resp, err := c.req().
		SetContext(ctx).
		SetBody(input).
		SetResult(&list).
		Post(fmt.Sprintf("/v1/databases/%s/query", databaseID))
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &list, nil
}

// SearchInput are the fields for a workspace search.
type SearchInput struct {
	Query       string         `json:"query,omitempty"`
	Filter      map[string]any `json:"filter,omitempty"`
	Sort        map[string]any `json:"sort,omitempty"`
	StartCursor string         `json:"start_cursor,omitempty"`
	PageSize    int            `json:"page_size,omitempty"`
}

// Search searches pages and databases shared with the integration.
func (c *Client) Search(ctx context.Context, input SearchInput) (*SearchList, error) {
	var list SearchList
	resp, err := c.req().
		SetContext(ctx).
		SetBody(input).
		SetResult(&list).
		Post("/v1/search")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &list, nil
}
