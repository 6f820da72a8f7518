// Package aggregator reduces submissions and rating changes into the derived
// statistics. Every function here is pure and never fails.
package aggregator

import (
	"fmt"
	"sort"
	"strings"

	"cfstats/internal/domain/model"

	"github.com/gosimple/slug"
)

// Solved is the result of one pass over a submission list.
type Solved struct {
	Total        int
	ByDifficulty map[int]int
	ByTag        map[string]int
	ByLanguage   map[string]int
}

// DifficultyBucket returns floor(rating/100)*100. Unrated problems (rating 0)
// land in bucket 0.
func DifficultyBucket(rating int) int {
	b := rating / 100 * 100
	if rating < 0 && rating%100 != 0 {
		b -= 100
	}
	return b
}

// SolvedStats counts each accepted problem once, keyed by problem name; the
// first accepted submission seen wins.
func SolvedStats(subs []model.Submission) Solved {
	out := Solved{
		ByDifficulty: map[int]int{},
		ByTag:        map[string]int{},
		ByLanguage:   map[string]int{},
	}
	seen := make(map[string]struct{})
	for _, s := range subs {
		if !s.Accepted() {
			continue
		}
		if _, ok := seen[s.Problem.Name]; ok {
			continue
		}
		seen[s.Problem.Name] = struct{}{}

		out.ByDifficulty[DifficultyBucket(s.Problem.Rating)]++
		for _, tag := range s.Problem.Tags {
			out.ByTag[tag]++
		}
		if s.ProgrammingLanguage != "" {
			out.ByLanguage[s.ProgrammingLanguage]++
		}
	}
	out.Total = len(seen)
	return out
}

// ContestPerformance maps contest name to its rating delta. Duplicate names
// keep the last record.
func ContestPerformance(changes []model.RatingChange) map[string]model.ContestPerformance {
	out := make(map[string]model.ContestPerformance, len(changes))
	for _, c := range changes {
		out[c.ContestName] = model.ContestPerformance{
			ContestID: c.ContestID,
			Delta:     c.Delta(),
			Rank:      c.Rank,
			Color:     ContestRankColor(c.Rank),
		}
	}
	return out
}

// Aggregate builds the full Stats for one handle.
func Aggregate(handle string, subs []model.Submission, changes []model.RatingChange) model.Stats {
	solved := SolvedStats(subs)
	return model.Stats{
		Handle:             handle,
		TotalSolved:        solved.Total,
		SolvedByDifficulty: solved.ByDifficulty,
		SolvedByTag:        solved.ByTag,
		SolvedByLanguage:   solved.ByLanguage,
		ContestPerformance: ContestPerformance(changes),
	}
}

// RatingPoints decorates the rating history for charting.
func RatingPoints(changes []model.RatingChange) []model.RatingPoint {
	out := make([]model.RatingPoint, 0, len(changes))
	for _, c := range changes {
		out = append(out, model.RatingPoint{
			ContestID:   c.ContestID,
			ContestName: c.ContestName,
			Date:        c.UpdatedAt(),
			Rating:      c.NewRating,
			Delta:       c.Delta(),
			Rank:        c.Rank,
			Color:       RatingColor(c.NewRating),
		})
	}
	return out
}

// SortedTags orders tags by count, most frequent first, then by name.
func SortedTags(byTag map[string]int) []model.TagCount {
	out := make([]model.TagCount, 0, len(byTag))
	for tag, n := range byTag {
		out = append(out, model.TagCount{Tag: tag, Slug: slug.Make(tag), Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

// SortedDifficulties orders buckets by rating ascending.
func SortedDifficulties(byDifficulty map[int]int) []model.DifficultyBucket {
	out := make([]model.DifficultyBucket, 0, len(byDifficulty))
	for rating, n := range byDifficulty {
		label := "unrated"
		if rating > 0 {
			label = fmt.Sprintf("%d-%d", rating, rating+99)
		}
		out = append(out, model.DifficultyBucket{
			Rating: rating,
			Label:  label,
			Count:  n,
			Color:  DifficultyColor(rating),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rating < out[j].Rating })
	return out
}

// FilterSubmissions keeps submissions matching verdict and tag. Empty filters
// match everything; tag matches either the raw tag or its slug.
func FilterSubmissions(subs []model.Submission, verdict model.Verdict, tag string) []model.Submission {
	out := make([]model.Submission, 0, len(subs))
	for _, s := range subs {
		if verdict != "" && !strings.EqualFold(string(s.Verdict), string(verdict)) {
			continue
		}
		if tag != "" && !hasTag(s.Problem.Tags, tag) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want || slug.Make(t) == want {
			return true
		}
	}
	return false
}
