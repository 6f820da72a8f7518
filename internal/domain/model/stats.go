package model

// ContestPerformance is the derived result of one rated contest.
type ContestPerformance struct {
	ContestID int    `json:"contest_id"`
	Delta     int    `json:"delta"`
	Rank      int    `json:"rank"`
	Color     string `json:"color"`
}

// Stats holds the aggregates derived from submissions and rating changes.
// Map keys: difficulty bucket (multiple of 100, 0 for unrated), tag, language
// and contest name.
type Stats struct {
	Handle             string                        `json:"handle"`
	TotalSolved        int                           `json:"total_solved"`
	SolvedByDifficulty map[int]int                   `json:"solved_by_difficulty"`
	SolvedByTag        map[string]int                `json:"solved_by_tag"`
	SolvedByLanguage   map[string]int                `json:"solved_by_language"`
	ContestPerformance map[string]ContestPerformance `json:"contest_performance"`
}

type TagCount struct {
	Tag   string `json:"tag"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

type DifficultyBucket struct {
	Rating int    `json:"rating"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
	Color  string `json:"color"`
}
