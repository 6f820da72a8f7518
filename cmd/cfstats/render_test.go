package main

import (
	"bytes"
	"strings"
	"testing"

	"cfstats/internal/app/aggregator"
	"cfstats/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSnapshot(t *testing.T) {
	subs := []model.Submission{
		{Verdict: model.VerdictOK, Problem: model.Problem{Name: "A", Rating: 1200, Rated: true, Tags: []string{"dp"}}},
		{Verdict: model.VerdictOK, Problem: model.Problem{Name: "B", Rating: 1900, Rated: true, Tags: []string{"dp", "graphs"}}},
	}
	changes := []model.RatingChange{
		{ContestName: "Codeforces Round 1", Rank: 10, OldRating: 1500, NewRating: 1620},
		{ContestName: "Codeforces Round 2", Rank: 900, OldRating: 1620, NewRating: 1580},
	}
	snap := &model.Snapshot{
		Handle:        "tourist",
		Profile:       model.UserProfile{Handle: "tourist", FirstName: "Gennady", Rating: 1580, MaxRating: 1620, Rank: "specialist"},
		RatingHistory: changes,
		Submissions:   subs,
		Stats:         aggregator.Aggregate("tourist", subs, changes),
	}

	out := renderSnapshot(snap, 1)
	assert.Contains(t, out, "tourist")
	assert.Contains(t, out, "Gennady")
	assert.Contains(t, out, "1580 (max 1620, -)")
	assert.Contains(t, out, "1200-1299")
	assert.Contains(t, out, "+120")
	assert.Contains(t, out, "-40")
	assert.NotContains(t, out, "graphs", "only the top tag is shown")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestTokenCommandRejectsUnknownRole(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"token", "--role", "root"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); tokenFlags.role = model.RoleAdmin })

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unknown role"))
}
