package model

type LeaderboardEntry struct {
	Place          int    `json:"place"`
	Handle         string `json:"handle"`
	Rating         int    `json:"rating"`
	MaxRating      int    `json:"max_rating"`
	Rank           string `json:"rank"`
	ProblemsSolved int    `json:"problems_solved"`
	Color          string `json:"color"`
}
