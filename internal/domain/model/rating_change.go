package model

import "time"

// RatingChange is one contest the user took part in (user.rating).
type RatingChange struct {
	ContestID               int    `json:"contest_id"`
	ContestName             string `json:"contest_name"`
	Handle                  string `json:"handle"`
	Rank                    int    `json:"rank"`
	RatingUpdateTimeSeconds int64  `json:"rating_update_time_seconds"`
	OldRating               int    `json:"old_rating"`
	NewRating               int    `json:"new_rating"`
}

func (c RatingChange) Delta() int {
	return c.NewRating - c.OldRating
}

func (c RatingChange) UpdatedAt() time.Time {
	return time.Unix(c.RatingUpdateTimeSeconds, 0).UTC()
}

// RatingPoint is a rating-history entry decorated for charting.
type RatingPoint struct {
	ContestID   int       `json:"contest_id"`
	ContestName string    `json:"contest_name"`
	Date        time.Time `json:"date"`
	Rating      int       `json:"rating"`
	Delta       int       `json:"delta"`
	Rank        int       `json:"rank"`
	Color       string    `json:"color"`
}
