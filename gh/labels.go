package gh

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// GetIssueLabels returns every label on an issue or pull request.
func (c *Client) GetIssueLabels(ctx context.Context, repository string, issueNumber int) ([]Label, error) {
	var labels []Label
	resp, err := c.req().
		SetContext(ctx).
		SetResult(&labels).
		Get(fmt.Sprintf("/repos/%s/issues/%d/labels", repository, issueNumber))
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return labels, nil
}

// AddLabels attaches labels to an issue or pull request and returns
// the resulting label set.
func (c *Client) AddLabels(ctx context.Context, repository string, issueNumber int, labels []string) ([]Label, error) {
	var result []Label
	resp, err := c.req().
		SetContext(ctx).
		SetBody(map[string][]string{"labels": labels}).
		SetResult(&result).
		Post(fmt.Sprintf("/repos/%s/issues/%d/labels", repository, issueNumber))
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveLabel detaches a label. It returns false when the label was
// not on the issue.
func (c *Client) RemoveLabel(ctx context.Context, repository string, issueNumber int, label string) (bool, error) {
	resp, err := c.req().
		SetContext(ctx).
		Delete(fmt.Sprintf("/repos/%s/issues/%d/labels/%s", repository, issueNumber, url.PathEscape(label)))
	if resp != nil && resp.StatusCode() == http.StatusNotFound {
		return false, nil
	}
	if err := checkResponse(resp, err); err != nil {
		return false, err
	}
	return true, nil
}
