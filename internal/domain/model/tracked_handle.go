package model

import "time"

// TrackedHandle is a handle refreshed by the poller.
type TrackedHandle struct {
	Handle    string    `json:"handle"`
	AddedBy   *string   `json:"added_by,omitempty"` // nil when seeded from config
	CreatedAt time.Time `json:"created_at"`
}
