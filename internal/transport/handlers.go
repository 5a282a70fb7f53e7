package transport

import (
	"github.com/ds124wfegd/pfpframe/internal/service"
)

type CompositeHandler struct {
	service service.CompositeService
}

func NewCompositeHandler(service service.CompositeService) *CompositeHandler {
	return &CompositeHandler{service: service}
}

type PublishHandler struct {
	service service.PublishService
	qrSize  int
}

func NewPublishHandler(service service.PublishService, qrSize int) *PublishHandler {
	if qrSize <= 0 {
		qrSize = 256
	}
	return &PublishHandler{service: service, qrSize: qrSize}
}
