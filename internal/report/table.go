// Package report renders computed metrics for terminal output.
package report

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/oferdebug/projectzen/internal/domain"
)

const notComputed = "n/a (not yet computed)"

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	groupStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Table renders one repository's metrics as a bordered table, one row per field.
func Table(repositoryID string, m domain.ProjectMetrics) string {
	rows := Rows(m)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Group", "Metric", "Value").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return groupStyle
			case rows[row][2] == notComputed:
				return dimStyle
			default:
				return lipgloss.NewStyle()
			}
		})

	var b strings.Builder
	b.WriteString(titleStyle.Render(repositoryID))
	b.WriteString("\n")
	b.WriteString(t.Render())
	b.WriteString("\n")
	return b.String()
}

// Rows flattens m into {group, metric, value} rows in a stable order.
func Rows(m domain.ProjectMetrics) [][]string {
	pending := m.Maintenance.PendingFields()
	maintenance := func(name string, value string) []string {
		if slices.Contains(pending, name) {
			value = notComputed
		}
		return []string{"maintenance", name, value}
	}

	return [][]string{
		{"activity", "commitFrequency", ratio(m.Activity.CommitFrequency)},
		{"activity", "issueResponseTime", ratio(m.Activity.IssueResponseTime)},
		{"activity", "issueResolution", ratio(m.Activity.IssueResolution)},
		{"activity", "pullRequestFrequency", ratio(m.Activity.PullRequestFrequency)},
		{"activity", "codeReviewFrequency", ratio(m.Activity.CodeReviewFrequency)},

		maintenance("dependencyHealth", ratio(m.Maintenance.DependencyHealth)),
		maintenance("updateFrequency", ratio(m.Maintenance.UpdateFrequency)),
		maintenance("dependencyUpdates", count(m.Maintenance.DependencyUpdates)),
		maintenance("codeQuality", ratio(m.Maintenance.CodeQuality)),
		maintenance("testCoverage", ratio(m.Maintenance.TestCoverage)),
		maintenance("codeReviewFrequency", ratio(m.Maintenance.CodeReviewFrequency)),
		maintenance("codeSmells", count(m.Maintenance.CodeSmells)),
		maintenance("securityVulnerabilities", count(m.Maintenance.SecurityVulnerabilities)),
		maintenance("breakingChanges", count(m.Maintenance.BreakingChanges)),

		{"stability", "bugRate", count(m.Stability.BugRate)},
		{"stability", "crashRate", count(m.Stability.CrashRate)},
		{"stability", "bugFrequency", count(m.Stability.BugFrequency)},
		{"stability", "releaseFrequency", count(m.Stability.ReleaseFrequency)},
		{"stability", "breakingChanges", count(m.Stability.BreakingChanges)},
		{"stability", "versionStability", ratio(m.Stability.VersionStability)},
		{"stability", "contributorCount", count(m.Stability.ContributorCount)},

		{"community", "contributorCount", count(m.Community.ContributorCount)},
		{"community", "communityEngagement", ratio(m.Community.CommunityEngagement)},
		{"community", "contributors", count(m.Community.Contributors)},
		{"community", "stars", count(m.Community.Stars)},
		{"community", "forks", count(m.Community.Forks)},
		{"community", "issuesEngagement", ratio(m.Community.IssuesEngagement)},
	}
}

func ratio(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func count(v int) string {
	return fmt.Sprintf("%d", v)
}
