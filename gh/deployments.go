package gh

import (
	"context"
	"fmt"
)

// GetDeployments lists deployments, optionally filtered by
// environment.
func (c *Client) GetDeployments(ctx context.Context, repository, environment string) ([]Deployment, error) {
	req := c.req().SetContext(ctx)
	if environment != "" {
		req.SetQueryParam("environment", environment)
	}

	var deployments []Deployment
	resp, err := req.
		SetResult(&deployments).
		Get(fmt.Sprintf("/repos/%s/deployments", repository))
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return deployments, nil
}

// DeploymentStatusInput describes a new deployment status.
type DeploymentStatusInput struct {
	State          string `json:"state"`
	Description    string `json:"description,omitempty"`
	EnvironmentURL string `json:"environment_url,omitempty"`
}

// CreateDeploymentStatus records a new status on a deployment.
func (c *Client) CreateDeploymentStatus(ctx context.Context, repository string, deploymentID int64, input DeploymentStatusInput) (*DeploymentStatus, error) {
	var status DeploymentStatus
	resp, err := c.req().
		SetContext(ctx).
		SetBody(input).
		SetResult(&status).
		Post(fmt.Sprintf("/repos/%s/deployments/%d/statuses", repository, deploymentID))
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetDeploymentStatuses lists the statuses of a deployment, most
// recent first.
func (c *Client) GetDeploymentStatuses(ctx context.Context, repository string, deploymentID int64) ([]DeploymentStatus, error) {
	var statuses []DeploymentStatus
	resp, err := c.req().
		SetContext(ctx).
		SetResult(&statuses).
		Get(fmt.Sprintf("/repos/%s/deployments/%d/statuses", repository, deploymentID))
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return statuses, nil
}

// LatestDeploymentStatus returns the latest status of the most recent
// deployment for an environment, or nil when there is none.
func (c *Client) LatestDeploymentStatus(ctx context.Context, repository, environment string) (*DeploymentStatus, error) {
	deployments, err := c.GetDeployments(ctx, repository, environment)
	if err != nil || len(deployments) == 0 {
		return nil, err
	}
	statuses, err := c.GetDeploymentStatuses(ctx, repository, deployments[0].ID)
	if err != nil || len(statuses) == 0 {
		return nil, err
	}
	return &statuses[0], nil
}

// MarkDeploymentsInactive flags every deployment of an environment as
// inactive and returns how many were updated.
func (c *Client) MarkDeploymentsInactive(ctx context.Context, repository, environment, description string, onProgress ProgressCallback) (int, error) {
	if description == "" {
		description = "Environment removed"
	}
	deployments, err := c.GetDeployments(ctx, repository, environment)
	if err != nil {
		return 0, err
	}
	for i, deployment := range deployments {
		_, err := c.CreateDeploymentStatus(ctx, repository, deployment.ID, DeploymentStatusInput{
			State:       "inactive",
			Description: description,
		})
		if err != nil {
			return i, err
		}
		if onProgress != nil {
			onProgress(i+1, len(deployments))
		}
	}
	return len(deployments), nil
}
