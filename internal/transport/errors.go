package transport

import (
	"context"
	"errors"
	"net/http"

	"github.com/ds124wfegd/pfpframe/internal/entity"
	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrUnknownFilter),
		errors.Is(err, entity.ErrInvalidContainerSize),
		errors.Is(err, entity.ErrEmptyImage),
		errors.Is(err, entity.ErrInvalidSticker),
		errors.Is(err, entity.ErrImageTooLarge),
		errors.Is(err, entity.ErrMissingFID):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrCompositeNotFound),
		errors.Is(err, entity.ErrNoComposite),
		errors.Is(err, entity.ErrJobNotFound),
		errors.Is(err, entity.ErrCredentialNotFound),
		errors.Is(err, entity.ErrNoDeepLink):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrSignedOut):
		return http.StatusConflict
	case errors.Is(err, entity.ErrApprovalTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, entity.ErrSourceLoad),
		errors.Is(err, entity.ErrStickerLoad),
		errors.Is(err, entity.ErrUnexpectedStatus),
		errors.Is(err, entity.ErrUploadNoHash):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}
