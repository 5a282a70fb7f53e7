package entity

import "time"

type HandshakeState string

const (
	StateNoCredential      HandshakeState = "no_credential"
	StateKeyGenerated      HandshakeState = "key_generated"
	StateSignatureObtained HandshakeState = "signature_obtained"
	StateRequestSubmitted  HandshakeState = "request_submitted"
	StateAwaitingApproval  HandshakeState = "awaiting_approval"
	StateCompleted         HandshakeState = "completed"
	StateErrored           HandshakeState = "errored"
)

func (s HandshakeState) Terminal() bool {
	return s == StateCompleted || s == StateErrored
}

type JobState string

const (
	JobPending     JobState = "pending"
	JobAuthorizing JobState = "authorizing"
	JobUploading   JobState = "uploading"
	JobChanging    JobState = "changing_pfp"
	JobCompleted   JobState = "completed"
	JobFailed      JobState = "failed"
)

type PublishJob struct {
	ID          string         `json:"id"`
	FID         uint64         `json:"fid"`
	CompositeID string         `json:"composite_id"`
	State       JobState       `json:"state"`
	Handshake   HandshakeState `json:"handshake,omitempty"`
	DeepLinkURL string         `json:"deeplink_url,omitempty"`
	PFPURL      string         `json:"pfp_url,omitempty"`
	Error       string         `json:"error,omitempty"`
	Cause       error          `json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type SetPFPRequest struct {
	FID         uint64 `json:"fid" binding:"required"`
	CompositeID string `json:"composite_id" binding:"required"`
}
