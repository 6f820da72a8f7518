package model

import "strconv"

// Problem identifies a problem on the upstream platform. Rating is 0 when the
// upstream has not rated the problem; Rated tells the two cases apart.
type Problem struct {
	ContestID int      `json:"contest_id,omitempty"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Rating    int      `json:"rating"`
	Rated     bool     `json:"rated"`
	Tags      []string `json:"tags"`
}

// Code returns the short problem code, e.g. "1850A".
func (p Problem) Code() string {
	if p.ContestID == 0 {
		return p.Index
	}
	return strconv.Itoa(p.ContestID) + p.Index
}
