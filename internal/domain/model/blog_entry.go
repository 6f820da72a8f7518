package model

type BlogEntry struct {
	ID                  int    `json:"id"`
	Title               string `json:"title"`
	AuthorHandle        string `json:"author_handle"`
	CreationTimeSeconds int64  `json:"creation_time_seconds"`
	Rating              int    `json:"rating"`
}
