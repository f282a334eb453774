// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// RepositoryData holds the raw counters fetched for a single repository.
// It is immutable once fetched; every calculator reads from it.
type RepositoryData struct {
	Stars        int       `json:"stars"`
	Forks        int       `json:"forks"`
	Issues       int       `json:"issues"` // open issue count
	PullRequests int       `json:"pullRequests"`
	Contributors int       `json:"contributors"`
	LastCommit   time.Time `json:"lastCommit"` // last push time
	Commits      int       `json:"commits"`
	Releases     int       `json:"releases"`
	Dependencies int       `json:"dependencies"`
}

// ActivityMetrics describes how busy a repository is.
type ActivityMetrics struct {
	CommitFrequency      float64 `json:"commitFrequency"`
	IssueResponseTime    float64 `json:"issueResponseTime"`
	IssueResolution      float64 `json:"issueResolution"`
	PullRequestFrequency float64 `json:"pullRequestFrequency"`
	CodeReviewFrequency  float64 `json:"codeReviewFrequency"`
}

// MaintenanceMetrics describes how well a repository is kept up to date.
//
// CodeQuality, TestCoverage, CodeReviewFrequency, CodeSmells,
// SecurityVulnerabilities and BreakingChanges have no data source yet and are
// always zero. They stay in the struct so the shape consumed by presentation
// layers does not change once they are computed; see PendingFields.
type MaintenanceMetrics struct {
	DependencyHealth        float64 `json:"dependencyHealth"`
	UpdateFrequency         float64 `json:"updateFrequency"`
	DependencyUpdates       int     `json:"dependencyUpdates"`
	CodeQuality             float64 `json:"codeQuality"`
	TestCoverage            float64 `json:"testCoverage"`
	CodeReviewFrequency     float64 `json:"codeReviewFrequency"`
	CodeSmells              int     `json:"codeSmells"`
	SecurityVulnerabilities int     `json:"securityVulnerabilities"`
	BreakingChanges         int     `json:"breakingChanges"`
}

// PendingFields lists the JSON names of the fields that are not yet computed.
func (MaintenanceMetrics) PendingFields() []string {
	return []string{
		"codeQuality",
		"testCoverage",
		"codeReviewFrequency",
		"codeSmells",
		"securityVulnerabilities",
		"breakingChanges",
	}
}

// StabilityMetrics describes how stable a repository's releases are.
type StabilityMetrics struct {
	BugRate          int     `json:"bugRate"`
	CrashRate        int     `json:"crashRate"`
	BugFrequency     int     `json:"bugFrequency"`
	ReleaseFrequency int     `json:"releaseFrequency"`
	BreakingChanges  int     `json:"breakingChanges"`
	VersionStability float64 `json:"versionStability"`
	ContributorCount int     `json:"contributorCount"`
}

// CommunityMetrics describes the community around a repository.
type CommunityMetrics struct {
	ContributorCount    int     `json:"contributorCount"`
	CommunityEngagement float64 `json:"communityEngagement"`
	Contributors        int     `json:"contributors"`
	Stars               int     `json:"stars"`
	Forks               int     `json:"forks"`
	IssuesEngagement    float64 `json:"issuesEngagement"`
}

// ProjectMetrics is the aggregate result of one metrics computation.
type ProjectMetrics struct {
	Activity    ActivityMetrics    `json:"activity"`
	Maintenance MaintenanceMetrics `json:"maintenance"`
	Stability   StabilityMetrics   `json:"stability"`
	Community   CommunityMetrics   `json:"community"`
}

// PartialMetrics carries a subset of the metrics groups. A nil group is absent.
type PartialMetrics struct {
	Activity    *ActivityMetrics    `json:"activity,omitempty"`
	Maintenance *MaintenanceMetrics `json:"maintenance,omitempty"`
	Stability   *StabilityMetrics   `json:"stability,omitempty"`
	Community   *CommunityMetrics   `json:"community,omitempty"`
}

// Merge returns a copy of m with every group present in p replacing the
// corresponding group wholesale. Groups are never merged field by field.
func (m ProjectMetrics) Merge(p PartialMetrics) ProjectMetrics {
	if p.Activity != nil {
		m.Activity = *p.Activity
	}
	if p.Maintenance != nil {
		m.Maintenance = *p.Maintenance
	}
	if p.Stability != nil {
		m.Stability = *p.Stability
	}
	if p.Community != nil {
		m.Community = *p.Community
	}
	return m
}
