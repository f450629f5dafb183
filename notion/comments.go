package notion

import "context"

// ListComments returns one page of comments on a page or block.
func (c *Client) ListComments(ctx context.Context, blockID string, opts ListOptions) (*CommentList, error) {
	var list CommentList
	resp, err := opts.apply(c.req()).
		SetContext(ctx).
		SetQueryParam("block_id", blockID).
		SetResult(&list).
		Get("/v1/comments")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &list, nil
}

// ListAllComments follows pagination and returns every comment on a
// page or block.
func (c *Client) ListAllComments(ctx context.Context, blockID string) ([]Comment, error) {
	var comments []Comment
	cursor := ""
	for {
		list, err := c.ListComments(ctx, blockID, ListOptions{StartCursor: cursor})
		if err != nil {
			return nil, err
		}
		comments = append(comments, list.Results...)
		if !list.HasMore {
			return comments, nil
		}
		cursor = list.NextCursor
	}
}

// CreateComment adds a comment to a page or an existing discussion.
func (c *Client) CreateComment(ctx context.Context, parent Parent, richText []RichText) (*Comment, error) {
	var comment Comment
	resp, err := c.req().
		SetContext(ctx).
		SetBody(map[string]any{"parent": parent, "rich_text": richText}).
		SetResult(&comment).
		Post("/v1/comments")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &comment, nil
}

// CreatePageComment adds a plain text comment to a page.
func (c *Client) CreatePageComment(ctx context.Context, pageID, text string) (*Comment, error) {
	parent := Parent{Type: "page_id", PageID: pageID}
	return c.CreateComment(ctx, parent, []RichText{Text(text)})
}
