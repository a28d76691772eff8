package entity

// ModificationRequest is the validated payload of a single pipeline run.
// Everything in it is request-scoped; nothing survives the response.
type ModificationRequest struct {
	Image    []byte
	Filename string
	Prompt   string
	Mask     []byte
}

type GenerateResponse struct {
	ImageURL   string `json:"image_url"`
	Analysis   string `json:"analysis,omitempty"`
	PromptUsed string `json:"prompt_used,omitempty"`
	Method     string `json:"method,omitempty"`
}

type VariationResponse struct {
	ImageURL string `json:"image_url"`
	Method   string `json:"method"`
}

type AnalyzeResponse struct {
	Analysis string `json:"analysis"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
