package transport

import (
	"github.com/ds124wfegd/image-modifier/internal/service"
)

type PipelineHandler struct {
	service        service.PipelineService
	maxUploadBytes int64
}

func NewPipelineHandler(service service.PipelineService, maxUploadBytes int64) *PipelineHandler {
	return &PipelineHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
	}
}
