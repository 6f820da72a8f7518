package main

import (
	"fmt"
	"strings"

	"cfstats/internal/app/aggregator"
	"cfstats/internal/domain/model"

	"github.com/charmbracelet/lipgloss"
)

var (
	labelStyle = lipgloss.NewStyle().Width(14).Foreground(lipgloss.Color("#888888"))
	titleStyle = lipgloss.NewStyle().Bold(true).MarginTop(1)
	upStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#43A047"))
	downStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C62828"))
)

const recentContests = 5

func renderSnapshot(snap *model.Snapshot, topTags int) string {
	p := snap.Profile
	handleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(aggregator.RankColor(p.Rank)))

	var b strings.Builder
	b.WriteString(handleStyle.Render(p.Handle))
	if name := p.DisplayName(); name != p.Handle {
		b.WriteString("  " + name)
	}
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + value + "\n")
	}
	rank := p.Rank
	if rank == "" {
		rank = "unrated"
	}
	row("rank", rank)
	row("rating", fmt.Sprintf("%d (max %d, %s)", p.Rating, p.MaxRating, orDash(p.MaxRank)))
	row("solved", fmt.Sprintf("%d", snap.Stats.TotalSolved))
	row("contests", fmt.Sprintf("%d", len(snap.RatingHistory)))
	if snap.PhotoURL != "" {
		row("photo", snap.PhotoURL)
	}

	if tags := aggregator.SortedTags(snap.Stats.SolvedByTag); len(tags) > 0 {
		b.WriteString(titleStyle.Render("Top tags") + "\n")
		if len(tags) > topTags {
			tags = tags[:topTags]
		}
		for _, t := range tags {
			row(t.Tag, fmt.Sprintf("%d", t.Count))
		}
	}

	if buckets := aggregator.SortedDifficulties(snap.Stats.SolvedByDifficulty); len(buckets) > 0 {
		b.WriteString(titleStyle.Render("By difficulty") + "\n")
		for _, d := range buckets {
			bar := lipgloss.NewStyle().Foreground(lipgloss.Color(d.Color)).Render(strings.Repeat("█", min(d.Count, 40)))
			row(d.Label, fmt.Sprintf("%s %d", bar, d.Count))
		}
	}

	if n := len(snap.RatingHistory); n > 0 {
		b.WriteString(titleStyle.Render("Recent contests") + "\n")
		points := aggregator.RatingPoints(snap.RatingHistory)
		for _, pt := range points[max(0, n-recentContests):] {
			b.WriteString(fmt.Sprintf("  %-48s #%-6d %s\n", truncate(pt.ContestName, 48), pt.Rank, renderDelta(pt.Delta)))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderDelta(d int) string {
	switch {
	case d > 0:
		return upStyle.Render(fmt.Sprintf("+%d", d))
	case d < 0:
		return downStyle.Render(fmt.Sprintf("%d", d))
	default:
		return "0"
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
