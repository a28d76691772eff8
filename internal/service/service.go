package service

import (
	"context"

	"github.com/ds124wfegd/image-modifier/internal/entity"
	"github.com/ds124wfegd/image-modifier/internal/pkg/normalize"
)

// Analyzer is the multimodal description collaborator.
type Analyzer interface {
	AnalyzeImage(ctx context.Context, image []byte, instruction string) (string, error)
}

// ImageGenerator is the image generation/edit collaborator.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
	EditImage(ctx context.Context, image, mask []byte, prompt string) (string, error)
	CreateVariation(ctx context.Context, image []byte) (string, error)
}

type PipelineService interface {
	Generate(ctx context.Context, req *entity.ModificationRequest) (*entity.GenerateResponse, error)
	GenerateSmart(ctx context.Context, req *entity.ModificationRequest) (*entity.GenerateResponse, error)
	EditImage(ctx context.Context, req *entity.ModificationRequest, smart bool) (*entity.GenerateResponse, error)
	CreateVariation(ctx context.Context, req *entity.ModificationRequest) (*entity.VariationResponse, error)
	AnalyzeOnly(ctx context.Context, req *entity.ModificationRequest) (*entity.AnalyzeResponse, error)
}

type pipelineService struct {
	analyzer   Analyzer
	generator  ImageGenerator
	normalizer normalize.Normalizer
}

func NewPipelineService(analyzer Analyzer, generator ImageGenerator, normalizer normalize.Normalizer) PipelineService {
	return &pipelineService{
		analyzer:   analyzer,
		generator:  generator,
		normalizer: normalizer,
	}
}
