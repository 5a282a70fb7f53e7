package entity

import "time"

type ProfileChangedEvent struct {
	FID         uint64    `json:"fid"`
	PFPURL      string    `json:"pfp_url"`
	CompositeID string    `json:"composite_id"`
	Filter      Filter    `json:"filter"`
	ChangedAt   time.Time `json:"changed_at"`
}
