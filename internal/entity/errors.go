package entity

import "errors"

var (
	// Compositor errors
	ErrUnknownFilter        = errors.New("unknown filter")
	ErrInvalidContainerSize = errors.New("container size must be positive")
	ErrSourceLoad           = errors.New("failed to load source image")
	ErrStickerLoad          = errors.New("failed to load sticker image")
	ErrEmptyImage           = errors.New("image has no pixels")
	ErrInvalidSticker       = errors.New("sticker placement out of range")
	ErrImageTooLarge        = errors.New("image dimensions exceed limit")

	// Composite errors
	ErrCompositeNotFound = errors.New("composite not found")
	ErrNoComposite       = errors.New("no composite rendered for session")

	// Handshake errors
	ErrCredentialNotFound = errors.New("credential not found")
	ErrApprovalTimeout    = errors.New("signed key request was not approved in time")
	ErrUnexpectedStatus   = errors.New("unexpected response status")
	ErrSignedOut          = errors.New("signed out during handshake")

	// Publish errors
	ErrMissingFID     = errors.New("missing fid")
	ErrJobNotFound    = errors.New("job not found")
	ErrNoDeepLink     = errors.New("deep link not available yet")
	ErrUploadNoHash   = errors.New("upload response has no hash")
	ErrInvalidDataURL = errors.New("invalid data url")
)
