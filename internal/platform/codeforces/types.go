package codeforces

import (
	"strings"

	"cfstats/internal/domain/model"
)

// Raw response shapes. Optional numeric fields are pointers so that absence is
// visible here and nowhere else.

type apiUser struct {
	Handle                  string  `json:"handle"`
	FirstName               *string `json:"firstName"`
	LastName                *string `json:"lastName"`
	Country                 *string `json:"country"`
	City                    *string `json:"city"`
	Organization            *string `json:"organization"`
	Contribution            *int    `json:"contribution"`
	Rank                    *string `json:"rank"`
	Rating                  *int    `json:"rating"`
	MaxRank                 *string `json:"maxRank"`
	MaxRating               *int    `json:"maxRating"`
	LastOnlineTimeSeconds   *int64  `json:"lastOnlineTimeSeconds"`
	RegistrationTimeSeconds *int64  `json:"registrationTimeSeconds"`
	FriendOfCount           *int    `json:"friendOfCount"`
	TitlePhoto              *string `json:"titlePhoto"`
}

type apiRatingChange struct {
	ContestID               int    `json:"contestId"`
	ContestName             string `json:"contestName"`
	Handle                  string `json:"handle"`
	Rank                    *int   `json:"rank"`
	RatingUpdateTimeSeconds int64  `json:"ratingUpdateTimeSeconds"`
	OldRating               *int   `json:"oldRating"`
	NewRating               *int   `json:"newRating"`
}

type apiProblem struct {
	ContestID *int     `json:"contestId"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Rating    *int     `json:"rating"`
	Tags      []string `json:"tags"`
}

type apiSubmission struct {
	ID                  int64      `json:"id"`
	ContestID           *int       `json:"contestId"`
	CreationTimeSeconds int64      `json:"creationTimeSeconds"`
	Problem             apiProblem `json:"problem"`
	ProgrammingLanguage *string    `json:"programmingLanguage"`
	Verdict             *string    `json:"verdict"`
	PassedTestCount     *int       `json:"passedTestCount"`
	TimeConsumedMillis  *int       `json:"timeConsumedMillis"`
	MemoryConsumedBytes *int64     `json:"memoryConsumedBytes"`
}

type apiBlogEntry struct {
	ID                  int    `json:"id"`
	Title               string `json:"title"`
	AuthorHandle        string `json:"authorHandle"`
	CreationTimeSeconds int64  `json:"creationTimeSeconds"`
	Rating              *int   `json:"rating"`
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func num[T int | int64](p *T) T {
	if p == nil {
		return 0
	}
	return *p
}

// photoURL turns the protocol-relative titlePhoto into an absolute URL.
func photoURL(raw string) string {
	switch {
	case raw == "":
		return ""
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	default:
		return raw
	}
}

func (u apiUser) toModel() model.UserProfile {
	return model.UserProfile{
		Handle:                  u.Handle,
		FirstName:               str(u.FirstName),
		LastName:                str(u.LastName),
		Country:                 str(u.Country),
		City:                    str(u.City),
		Organization:            str(u.Organization),
		Contribution:            num(u.Contribution),
		Rank:                    str(u.Rank),
		Rating:                  num(u.Rating),
		MaxRank:                 str(u.MaxRank),
		MaxRating:               num(u.MaxRating),
		LastOnlineTimeSeconds:   num(u.LastOnlineTimeSeconds),
		RegistrationTimeSeconds: num(u.RegistrationTimeSeconds),
		FriendOfCount:           num(u.FriendOfCount),
		TitlePhoto:              photoURL(str(u.TitlePhoto)),
	}
}

func (c apiRatingChange) toModel() model.RatingChange {
	return model.RatingChange{
		ContestID:               c.ContestID,
		ContestName:             c.ContestName,
		Handle:                  c.Handle,
		Rank:                    num(c.Rank),
		RatingUpdateTimeSeconds: c.RatingUpdateTimeSeconds,
		OldRating:               num(c.OldRating),
		NewRating:               num(c.NewRating),
	}
}

func (p apiProblem) toModel() model.Problem {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return model.Problem{
		ContestID: num(p.ContestID),
		Index:     p.Index,
		Name:      p.Name,
		Rating:    num(p.Rating),
		Rated:     p.Rating != nil,
		Tags:      tags,
	}
}

func (s apiSubmission) toModel() model.Submission {
	return model.Submission{
		ID:                  s.ID,
		ContestID:           num(s.ContestID),
		CreationTimeSeconds: s.CreationTimeSeconds,
		Problem:             s.Problem.toModel(),
		Verdict:             model.Verdict(str(s.Verdict)),
		ProgrammingLanguage: str(s.ProgrammingLanguage),
		PassedTestCount:     num(s.PassedTestCount),
		TimeConsumedMillis:  num(s.TimeConsumedMillis),
		MemoryConsumedBytes: num(s.MemoryConsumedBytes),
	}
}

func (b apiBlogEntry) toModel() model.BlogEntry {
	return model.BlogEntry{
		ID:                  b.ID,
		Title:               b.Title,
		AuthorHandle:        b.AuthorHandle,
		CreationTimeSeconds: b.CreationTimeSeconds,
		Rating:              num(b.Rating),
	}
}
