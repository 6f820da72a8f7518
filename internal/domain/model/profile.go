package model

import (
	"strings"
	"time"
)

// UserProfile is the normalized user.info record. Absent upstream fields are
// already defaulted to their zero value.
type UserProfile struct {
	Handle                  string `json:"handle"`
	FirstName               string `json:"first_name"`
	LastName                string `json:"last_name"`
	Country                 string `json:"country"`
	City                    string `json:"city"`
	Organization            string `json:"organization"`
	Contribution            int    `json:"contribution"`
	Rank                    string `json:"rank"`
	Rating                  int    `json:"rating"`
	MaxRank                 string `json:"max_rank"`
	MaxRating               int    `json:"max_rating"`
	LastOnlineTimeSeconds   int64  `json:"last_online_time_seconds"`
	RegistrationTimeSeconds int64  `json:"registration_time_seconds"`
	FriendOfCount           int    `json:"friend_of_count"`
	TitlePhoto              string `json:"title_photo,omitempty"`
}

// DisplayName joins first and last name, falling back to the handle.
func (p UserProfile) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return p.Handle
	}
	return name
}

func (p UserProfile) RegisteredAt() time.Time {
	return time.Unix(p.RegistrationTimeSeconds, 0).UTC()
}
