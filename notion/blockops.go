package notion

import (
	"context"
	"fmt"
)

// GetBlock retrieves a block by ID.
func (c *Client) GetBlock(ctx context.Context, blockID string) (*Block, error) {
	var block Block
	resp, err := c.req().
		SetContext(ctx).
		SetResult(&block).
		Get(fmt.Sprintf("/v1/blocks/%s", blockID))
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &block, nil
}

// GetBlockChildren returns one page of a block's children.
func (c *Client) GetBlockChildren(ctx context.Context, blockID string, opts ListOptions) (*BlockList, error) {
	var list BlockList
	resp, err := opts.apply(c.req()).
		SetContext(ctx).
		SetResult(&list).
		Get(fmt.Sprintf("/v1/blocks/%s/children", blockID))
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetAllBlockChildren follows pagination and returns every child of a
// block. onProgress, when non-nil, is called after each fetched page
// with the running block count and whether more pages remain.
func (c *Client) GetAllBlockChildren(ctx context.Context, blockID string, onProgress func(fetched int, hasMore bool)) ([]Block, error) {
	var blocks []Block
	cursor := ""
	for {
		list, err := c.GetBlockChildren(ctx, blockID, ListOptions{StartCursor: cursor})
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, list.Results...)
		if onProgress != nil {
			onProgress(len(blocks), list.HasMore)
		}
		if !list.HasMore {
			return blocks, nil
		}
		cursor = list.NextCursor
	}
}

// AppendBlockChildren appends children to a parent block or page.
func (c *Client) AppendBlockChildren(ctx context.Context, blockID string, children []Block) (*BlockList, error) {
	var list BlockList
	resp, err := c.req().
		SetContext(ctx).
		SetBody(map[string]any{"children": children}).
		SetResult(&list).
		Patch(fmt.Sprintf("/v1/blocks/%s/children", blockID))
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &list, nil
}

// DeleteBlock moves a block to the trash.
func (c *Client) DeleteBlock(ctx context.Context, blockID string) error {
	resp, err := c.req().
		SetContext(ctx).
		Delete(fmt.Sprintf("/v1/blocks/%s", blockID))
	return checkResponse(resp, err)
}
