package domain

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"
)

const day = 24 * time.Hour

// Calculate runs the four calculators back-to-back on the same snapshot.
func Calculate(data RepositoryData, now time.Time) ProjectMetrics {
	return ProjectMetrics{
		Activity:    CalculateActivity(data, now),
		Maintenance: CalculateMaintenance(data),
		Stability:   CalculateStability(data),
		Community:   CalculateCommunity(data),
	}
}

// CalculateActivity derives commit, pull request and issue rates.
// Rates are per day since the last push, which counts as at least one day.
func CalculateActivity(data RepositoryData, now time.Time) ActivityMetrics {
	days := daysSince(data.LastCommit, now)
	contributors := atLeastOne(data.Contributors)

	return ActivityMetrics{
		CommitFrequency:      round2(float64(data.Commits) / days),
		IssueResponseTime:    round2(float64(data.Issues) / contributors),
		IssueResolution:      round2(float64(data.Issues) / atLeastOne(data.Commits)),
		PullRequestFrequency: round2(float64(data.PullRequests) / days),
		CodeReviewFrequency:  round2(float64(data.PullRequests) / contributors),
	}
}

// CalculateMaintenance derives dependency and release health.
// DependencyHealth is not clamped and goes negative above 100 dependencies.
func CalculateMaintenance(data RepositoryData) MaintenanceMetrics {
	dependencyHealth := 1.0
	if data.Dependencies > 0 {
		dependencyHealth = 1 - float64(data.Dependencies)/100
	}
	var updateFrequency float64
	if data.Releases > 0 {
		updateFrequency = float64(data.Releases) / 10
	}

	return MaintenanceMetrics{
		DependencyHealth:  round2(dependencyHealth),
		UpdateFrequency:   round2(updateFrequency),
		DependencyUpdates: data.Dependencies,
	}
}

// CalculateStability derives bug and release stability figures.
// BreakingChanges is estimated as 30% of releases, not measured.
func CalculateStability(data RepositoryData) StabilityMetrics {
	commits := atLeastOne(data.Commits)

	var bugRate, crashRate, bugFrequency int
	if data.Issues > 0 {
		bugRate = int(math.Floor(float64(data.Issues) / commits))
		bugFrequency = data.Issues
	}
	if data.PullRequests > 0 {
		crashRate = int(math.Floor(float64(data.PullRequests) / commits))
	}

	breakingChanges := int(math.Floor(float64(data.Releases) * 0.3))
	versionStability := math.Max(1-float64(breakingChanges)/atLeastOne(data.Releases), 0)

	return StabilityMetrics{
		BugRate:          bugRate,
		CrashRate:        crashRate,
		BugFrequency:     bugFrequency,
		ReleaseFrequency: data.Releases,
		BreakingChanges:  breakingChanges,
		VersionStability: round2(versionStability),
		ContributorCount: data.Contributors,
	}
}

// CalculateCommunity derives engagement from stars, forks and issues.
func CalculateCommunity(data RepositoryData) CommunityMetrics {
	return CommunityMetrics{
		ContributorCount:    data.Contributors,
		CommunityEngagement: round2(float64(data.Stars+data.Forks) / 100),
		Contributors:        data.Contributors,
		Stars:               data.Stars,
		Forks:               data.Forks,
		IssuesEngagement:    round2(float64(data.Issues) / atLeastOne(data.Contributors)),
	}
}

// daysSince returns the whole days between t and now, never less than one.
func daysSince(t, now time.Time) float64 {
	return math.Max(1, math.Floor(float64(now.Sub(t))/float64(day)))
}

func atLeastOne(n int) float64 {
	if n < 1 {
		return 1
	}
	return float64(n)
}

// round2 rounds half away from zero to two decimal places.
func round2(v float64) float64 {
	r, err := stats.Round(v, 2)
	if err != nil {
		return v
	}
	return r
}
