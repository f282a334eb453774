package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oferdebug/projectzen/internal/domain"
)

func sampleMetrics() domain.ProjectMetrics {
	now := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	return domain.Calculate(domain.RepositoryData{
		Stars: 100, Forks: 50, Issues: 10, PullRequests: 5, Contributors: 5,
		LastCommit: now.Add(-10 * 24 * time.Hour), Commits: 1000, Releases: 10, Dependencies: 50,
	}, now)
}

func TestRows(t *testing.T) {
	rows := Rows(sampleMetrics())

	assert.Len(t, rows, 27)
	assert.Equal(t, []string{"activity", "commitFrequency", "100.00"}, rows[0])
	assert.Equal(t, []string{"maintenance", "dependencyHealth", "0.50"}, rows[5])
	assert.Equal(t, []string{"maintenance", "codeQuality", notComputed}, rows[8])
	assert.Equal(t, []string{"stability", "bugRate", "0"}, rows[14])
	assert.Equal(t, []string{"community", "communityEngagement", "1.50"}, rows[22])
}

func TestRows_PendingFieldsAreLabelled(t *testing.T) {
	var pending int
	for _, row := range Rows(sampleMetrics()) {
		if row[2] == notComputed {
			assert.Equal(t, "maintenance", row[0])
			pending++
		}
	}
	assert.Equal(t, 6, pending)
}

func TestTable(t *testing.T) {
	out := Table("octo/hello", sampleMetrics())

	assert.Contains(t, out, "octo/hello")
	assert.Contains(t, out, "commitFrequency")
	assert.Contains(t, out, "100.00")
	assert.Contains(t, out, "issuesEngagement")
}
