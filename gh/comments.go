package gh

import (
	"context"
	"fmt"
	"strings"
)

// GetIssueComments returns every comment on an issue or pull request.
func (c *Client) GetIssueComments(ctx context.Context, repository string, issueNumber int) ([]IssueComment, error) {
	var comments []IssueComment
	resp, err := c.req().
		SetContext(ctx).
		SetResult(&comments).
		Get(fmt.Sprintf("/repos/%s/issues/%d/comments", repository, issueNumber))
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return comments, nil
}

// CreateIssueComment posts a comment on an issue or pull request.
func (c *Client) CreateIssueComment(ctx context.Context, repository string, issueNumber int, body string) (*IssueComment, error) {
	var comment IssueComment
	resp, err := c.req().
		SetContext(ctx).
		SetBody(map[string]string{"body": body}).
		SetResult(&comment).
		Post(fmt.Sprintf("/repos/%s/issues/%d/comments", repository, issueNumber))
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteIssueComment removes a comment by ID.
func (c *Client) DeleteIssueComment(ctx context.Context, repository string, commentID int64) error {
	resp, err := c.req().
		SetContext(ctx).
		Delete(fmt.Sprintf("/repos/%s/issues/comments/%d", repository, commentID))
	return checkResponse(resp, err)
}

// FindCommentsWithMarker returns the IDs of comments whose body
// contains the marker string.
func (c *Client) FindCommentsWithMarker(ctx context.Context, repository string, issueNumber int, marker string) ([]int64, error) {
	comments, err := c.GetIssueComments(ctx, repository, issueNumber)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for _, comment := range comments {
		if strings.Contains(comment.Body, marker) {
			ids = append(ids, comment.ID)
		}
	}
	return ids, nil
}

// DeleteCommentsWithMarker removes every comment containing the
// marker and returns how many were deleted.
func (c *Client) DeleteCommentsWithMarker(ctx context.Context, repository string, issueNumber int, marker string, onProgress ProgressCallback) (int, error) {
	ids, err := c.FindCommentsWithMarker(ctx, repository, issueNumber, marker)
	if err != nil {
		return 0, err
	}
	for i, id := range ids {
		if err := c.DeleteIssueComment(ctx, repository, id); err != nil {
			return i, err
		}
		if onProgress != nil {
			onProgress(i+1, len(ids))
		}
	}
	return len(ids), nil
}

// CreateIdempotentComment posts a comment only when no existing
// comment carries the marker. The marker should be part of the body,
// typically as an HTML comment. Returns nil when skipped.
func (c *Client) CreateIdempotentComment(ctx context.Context, repository string, issueNumber int, body, marker string) (*IssueComment, error) {
	ids, err := c.FindCommentsWithMarker(ctx, repository, issueNumber, marker)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		return nil, nil
	}
	return c.CreateIssueComment(ctx, repository, issueNumber, body)
}
