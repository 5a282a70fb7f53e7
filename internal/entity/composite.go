package entity

import "time"

type Sticker struct {
	URL     string  `json:"url"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Visible bool    `json:"visible"`
}

type RenderRequest struct {
	SessionID string  `json:"session_id" binding:"required"`
	SourceURL string  `json:"source_url" binding:"required"`
	Filter    Filter  `json:"filter"`
	Sticker   Sticker `json:"sticker"`
	// ContainerSize is the displayed width of the preview box the sticker was positioned in.
	ContainerSize float64 `json:"container_size"`
}

type Composite struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Filter    Filter    `json:"filter"`
	Size      int       `json:"size"`
	Hash      string    `json:"hash"`
	CreatedAt time.Time `json:"created_at"`
}

type UploadResponse struct {
	URL string `json:"url"`
}
