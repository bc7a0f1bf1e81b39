// Package tracker is the authoritative, durable record of every preview
// deployment and its port allocation (spec.md §3, §4.4).
package tracker

import "time"

// Status is a Deployment's lifecycle state.
type Status string

const (
	StatusBuilding Status = "building"
	StatusRunning  Status = "running"
	StatusFailed   Status = "failed"
	StatusStopped  Status = "stopped"
)

// Deployment is the authoritative record of one preview environment.
type Deployment struct {
	PRNumber       int       `json:"prNumber"`
	RepoOwner      string    `json:"repoOwner"`
	RepoName       string    `json:"repoName"`
	ProjectSlug    string    `json:"projectSlug"`
	DeploymentID   string    `json:"deploymentId"`
	Branch         string    `json:"branch"`
	CommitSHA      string    `json:"commitSha"`
	CloneURL       string    `json:"cloneUrl"`
	Framework      string    `json:"framework"`
	DBType         string    `json:"dbType"`
	AppPort        int       `json:"appPort"`
	ExposedAppPort int       `json:"exposedAppPort"`
	ExposedDBPort  int       `json:"exposedDbPort"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	URL            string    `json:"url,omitempty"`
	CommentID      int64     `json:"commentId,omitempty"`
}

// PortAllocation is the pair of host ports reserved for one deployment.
type PortAllocation struct {
	ExposedAppPort int `json:"exposedAppPort"`
	ExposedDBPort  int `json:"exposedDbPort"`
}

// document is the on-disk JSON shape: a single file holding both maps,
// keyed by deploymentId (spec.md §3's Store definition).
type document struct {
	Deployments     map[string]*Deployment     `json:"deployments"`
	PortAllocations map[string]*PortAllocation `json:"portAllocations"`
}

func newDocument() *document {
	return &document{
		Deployments:     make(map[string]*Deployment),
		PortAllocations: make(map[string]*PortAllocation),
	}
}
