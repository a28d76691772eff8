package service

import (
	"context"
	"strings"

	"github.com/ds124wfegd/image-modifier/internal/entity"
	"github.com/ds124wfegd/image-modifier/internal/pkg/normalize"
)

// Generate runs the full pipeline: analyze the uploaded image together
// with the caller's instruction, extract a generation prompt from the
// response, then request one generated asset. A failed analysis
// short-circuits before any generation call.
func (s *pipelineService) Generate(ctx context.Context, req *entity.ModificationRequest) (*entity.GenerateResponse, error) {
	if err := validate(req, true); err != nil {
		return nil, err
	}

	analysis, err := s.analyzer.AnalyzeImage(ctx, req.Image, describeInstruction(req.Prompt))
	if err != nil {
		return nil, err
	}

	prompt := ExtractPrompt(analysis)
	imageURL, err := s.generator.GenerateImage(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return &entity.GenerateResponse{
		ImageURL:   imageURL,
		Analysis:   analysis,
		PromptUsed: prompt,
		Method:     "full_generation",
	}, nil
}

// GenerateSmart is the preservation-focused variant: the analysis
// instruction asks for labeled ANALYSIS / DALL-E PROMPT sections so the
// generation prompt keeps the original scene intact.
func (s *pipelineService) GenerateSmart(ctx context.Context, req *entity.ModificationRequest) (*entity.GenerateResponse, error) {
	if err := validate(req, true); err != nil {
		return nil, err
	}

	analysis, err := s.analyzer.AnalyzeImage(ctx, req.Image, smartInstruction(req.Prompt))
	if err != nil {
		return nil, err
	}

	prompt := ExtractPrompt(analysis)
	imageURL, err := s.generator.GenerateImage(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return &entity.GenerateResponse{
		ImageURL:   imageURL,
		PromptUsed: prompt,
		Method:     "smart_generation",
	}, nil
}

// EditImage normalizes the upload onto the square RGBA canvas, prepares a
// mask of identical dimensions (the caller's, normalized, or a synthesized
// full-coverage one) and issues an in-painting call. With smart set, the
// prompt first goes through the analysis stage.
func (s *pipelineService) EditImage(ctx context.Context, req *entity.ModificationRequest, smart bool) (*entity.GenerateResponse, error) {
	if err := validate(req, true); err != nil {
		return nil, err
	}

	normalized, err := s.normalizer.Square(req.Image, normalize.ModeRGBA)
	if err != nil {
		return nil, err
	}

	mask, err := s.prepareMask(req)
	if err != nil {
		return nil, err
	}

	prompt := req.Prompt
	method := "inpainting_edit"
	analysis := ""
	if smart {
		analysis, err = s.analyzer.AnalyzeImage(ctx, normalized.PNG, editInstruction(req.Prompt))
		if err != nil {
			return nil, err
		}
		prompt = ExtractPrompt(analysis)
		method = "smart_edit"
	}

	imageURL, err := s.generator.EditImage(ctx, normalized.PNG, mask.PNG, prompt)
	if err != nil {
		return nil, err
	}

	return &entity.GenerateResponse{
		ImageURL:   imageURL,
		Analysis:   analysis,
		PromptUsed: prompt,
		Method:     method,
	}, nil
}

// CreateVariation normalizes the upload and requests one variation of it;
// no text instruction is involved.
func (s *pipelineService) CreateVariation(ctx context.Context, req *entity.ModificationRequest) (*entity.VariationResponse, error) {
	if err := validate(req, false); err != nil {
		return nil, err
	}

	normalized, err := s.normalizer.Square(req.Image, normalize.ModeRGBA)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.generator.CreateVariation(ctx, normalized.PNG)
	if err != nil {
		return nil, err
	}

	return &entity.VariationResponse{
		ImageURL: imageURL,
		Method:   "variation",
	}, nil
}

// AnalyzeOnly runs the description stage and stops; no generation call.
func (s *pipelineService) AnalyzeOnly(ctx context.Context, req *entity.ModificationRequest) (*entity.AnalyzeResponse, error) {
	if err := validate(req, false); err != nil {
		return nil, err
	}

	instruction := analyzeOnlyInstruction
	if strings.TrimSpace(req.Prompt) != "" {
		instruction = req.Prompt
	}

	analysis, err := s.analyzer.AnalyzeImage(ctx, req.Image, instruction)
	if err != nil {
		return nil, err
	}

	return &entity.AnalyzeResponse{Analysis: analysis}, nil
}

// prepareMask yields the edit mask, always sized identically to the
// normalized image: the caller's mask goes through the same crop/resize
// path, otherwise every pixel is marked editable.
func (s *pipelineService) prepareMask(req *entity.ModificationRequest) (*normalize.Result, error) {
	if len(req.Mask) > 0 {
		return s.normalizer.Square(req.Mask, normalize.ModeGray)
	}
	return s.normalizer.FullMask()
}

func validate(req *entity.ModificationRequest, needPrompt bool) error {
	if req == nil || len(req.Image) == 0 {
		return entity.NewError(entity.KindClientInput, entity.ErrNoImage)
	}
	if needPrompt && strings.TrimSpace(req.Prompt) == "" {
		return entity.NewError(entity.KindClientInput, entity.ErrNoPrompt)
	}
	return nil
}
