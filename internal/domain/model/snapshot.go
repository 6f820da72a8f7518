package model

import "time"

// Snapshot is one complete pipeline result for a handle. It is what gets
// cached and persisted; it is never mutated after being built.
type Snapshot struct {
	ID            string         `json:"id"`
	Handle        string         `json:"handle"`
	Profile       UserProfile    `json:"profile"`
	PhotoURL      string         `json:"photo_url,omitempty"`
	RatingHistory []RatingChange `json:"rating_history"`
	Submissions   []Submission   `json:"submissions"`
	Stats         Stats          `json:"stats"`
	FetchedAt     time.Time      `json:"fetched_at"`
	// Stale marks a persisted snapshot served because the upstream was
	// unavailable.
	Stale bool `json:"stale,omitempty"`
}

type SnapshotSummary struct {
	ID          string    `json:"id"`
	Handle      string    `json:"handle"`
	Rating      int       `json:"rating"`
	MaxRating   int       `json:"max_rating"`
	Rank        string    `json:"rank"`
	TotalSolved int       `json:"total_solved"`
	FetchedAt   time.Time `json:"fetched_at"`
}

func (s *Snapshot) Summary() SnapshotSummary {
	return SnapshotSummary{
		ID:          s.ID,
		Handle:      s.Handle,
		Rating:      s.Profile.Rating,
		MaxRating:   s.Profile.MaxRating,
		Rank:        s.Profile.Rank,
		TotalSolved: s.Stats.TotalSolved,
		FetchedAt:   s.FetchedAt,
	}
}
