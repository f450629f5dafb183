package gh

import "time"

// User is the author of a comment or deployment.
type User struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// IssueComment is a comment on an issue or pull request.
type IssueComment struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	HTMLURL   string    `json:"html_url"`
}

// Label is an issue label.
type Label struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// Deployment is a GitHub deployment.
type Deployment struct {
	ID          int64     `json:"id"`
	Ref         string    `json:"ref"`
	SHA         string    `json:"sha"`
	Environment string    `json:"environment"`
	Description string    `json:"description"`
	Creator     User      `json:"creator"`
	CreatedAt   time.Time `json:"created_at"`
}

// DeploymentStatus is one status of a deployment. State is one of
// error, failure, inactive, in_progress, queued, pending, success.
type DeploymentStatus struct {
	ID             int64     `json:"id"`
	State          string    `json:"state"`
	Description    string    `json:"description"`
	Environment    string    `json:"environment"`
	EnvironmentURL string    `json:"environment_url"`
	CreatedAt      time.Time `json:"created_at"`
}
