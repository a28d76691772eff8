package entity

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the pipeline can produce so that
// handlers and tests can branch on the kind instead of the message text.
type ErrorKind int

const (
	// KindInternal is the catch-all for anything unclassified.
	KindInternal ErrorKind = iota

	// KindClientInput covers missing or empty request fields; no external
	// call is ever attempted for these.
	KindClientInput

	// KindConfig covers a missing provider credential, detected on first use.
	KindConfig

	// KindImageProcessing covers undecodable images and mask mismatches
	// during normalization.
	KindImageProcessing

	// KindAnalysis covers failures of the multimodal description call.
	KindAnalysis

	// KindGeneration covers failures of the image generation/edit call.
	KindGeneration

	// KindRateLimited is a generation failure where the upstream signalled
	// rate limiting.
	KindRateLimited

	// KindQuotaExhausted is a generation failure where the upstream
	// signalled exhausted credits.
	KindQuotaExhausted
)

var (
	ErrNoImage        = errors.New("image file is required")
	ErrEmptyFilename  = errors.New("image filename is empty")
	ErrEmptyFile      = errors.New("image file is empty")
	ErrNoPrompt       = errors.New("prompt is required")
	ErrMissingAPIKey  = errors.New("OPENAI_API_KEY is not configured")
	ErrNoAssetInReply = errors.New("upstream response contained no image")
)

// PipelineError carries an ErrorKind alongside the underlying cause.
type PipelineError struct {
	Kind ErrorKind
	Err  error
}

func (e *PipelineError) Error() string {
	return e.Err.Error()
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func NewError(kind ErrorKind, err error) *PipelineError {
	return &PipelineError{Kind: kind, Err: err}
}

func Errorf(kind ErrorKind, format string, args ...any) *PipelineError {
	return &PipelineError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the classification from err. Anything that does not carry
// a PipelineError is treated as internal.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}
