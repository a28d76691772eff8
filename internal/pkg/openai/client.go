package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/ds124wfegd/image-modifier/config"
	"github.com/ds124wfegd/image-modifier/internal/entity"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultSize    = "1024x1024"

	codeInsufficientQuota = "insufficient_quota"
)

// Client talks to the OpenAI chat-completions and image endpoints.
// It is stateless apart from configuration and safe for concurrent use.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string

	chatModel         string
	imageModel        string
	editModel         string
	maxAnalysisTokens int
}

func NewClient(cfg config.OpenAIConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = "gpt-4o"
	}
	imageModel := cfg.ImageModel
	if imageModel == "" {
		imageModel = "dall-e-3"
	}
	editModel := cfg.EditModel
	if editModel == "" {
		editModel = "dall-e-2"
	}
	maxTokens := cfg.MaxAnalysisTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		apiKey:            cfg.APIKey,
		baseURL:           baseURL,
		chatModel:         chatModel,
		imageModel:        imageModel,
		editModel:         editModel,
		maxAnalysisTokens: maxTokens,
	}
}

// AnalyzeImage sends the image and instruction to the multimodal chat
// endpoint and returns the completion text verbatim.
func (c *Client) AnalyzeImage(ctx context.Context, image []byte, instruction string) (string, error) {
	if err := c.requireKey(); err != nil {
		return "", err
	}

	mimeType := http.DetectContentType(image)
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	reqBody := chatRequest{
		Model: c.chatModel,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: instruction},
					{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
				},
			},
		},
		MaxTokens: c.maxAnalysisTokens,
	}

	var result chatResponse
	if err := c.postJSON(ctx, "/chat/completions", reqBody, &result, entity.KindAnalysis); err != nil {
		return "", err
	}

	if len(result.Choices) == 0 {
		return "", entity.Errorf(entity.KindAnalysis, "analysis response contained no choices")
	}
	return result.Choices[0].Message.Content, nil
}

// GenerateImage requests exactly one generated asset for prompt and
// returns its URL.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if err := c.requireKey(); err != nil {
		return "", err
	}

	reqBody := imageGenerationRequest{
		Model:   c.imageModel,
		Prompt:  prompt,
		N:       1,
		Size:    defaultSize,
		Quality: "standard",
	}

	var result imageResponse
	if err := c.postJSON(ctx, "/images/generations", reqBody, &result, entity.KindGeneration); err != nil {
		return "", err
	}
	return firstURL(result)
}

// EditImage submits an in-painting request: the normalized image, a mask
// marking editable pixels and the prompt. Image and mask must already be
// the same dimensions.
func (c *Client) EditImage(ctx context.Context, image, mask []byte, prompt string) (string, error) {
	if err := c.requireKey(); err != nil {
		return "", err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writeFilePart(writer, "image", "image.png", image); err != nil {
		return "", entity.Errorf(entity.KindInternal, "build edit request: %w", err)
	}
	if err := writeFilePart(writer, "mask", "mask.png", mask); err != nil {
		return "", entity.Errorf(entity.KindInternal, "build edit request: %w", err)
	}
	fields := map[string]string{
		"model":  c.editModel,
		"prompt": prompt,
		"n":      "1",
		"size":   defaultSize,
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return "", entity.Errorf(entity.KindInternal, "build edit request: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", entity.Errorf(entity.KindInternal, "build edit request: %w", err)
	}

	var result imageResponse
	if err := c.postMultipart(ctx, "/images/edits", body, writer.FormDataContentType(), &result); err != nil {
		return "", err
	}
	return firstURL(result)
}

// CreateVariation requests one variation of the normalized image without
// any text prompt.
func (c *Client) CreateVariation(ctx context.Context, image []byte) (string, error) {
	if err := c.requireKey(); err != nil {
		return "", err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writeFilePart(writer, "image", "image.png", image); err != nil {
		return "", entity.Errorf(entity.KindInternal, "build variation request: %w", err)
	}
	fields := map[string]string{
		"model": c.editModel,
		"n":     "1",
		"size":  defaultSize,
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return "", entity.Errorf(entity.KindInternal, "build variation request: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", entity.Errorf(entity.KindInternal, "build variation request: %w", err)
	}

	var result imageResponse
	if err := c.postMultipart(ctx, "/images/variations", body, writer.FormDataContentType(), &result); err != nil {
		return "", err
	}
	return firstURL(result)
}

func (c *Client) requireKey() error {
	if c.apiKey == "" {
		return entity.NewError(entity.KindConfig, entity.ErrMissingAPIKey)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, reqBody, result any, kind entity.ErrorKind) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return entity.Errorf(entity.KindInternal, "marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return entity.Errorf(entity.KindInternal, "create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	return c.send(httpReq, result, kind)
}

func (c *Client) postMultipart(ctx context.Context, path string, body *bytes.Buffer, contentType string, result any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return entity.Errorf(entity.KindInternal, "create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	return c.send(httpReq, result, entity.KindGeneration)
}

func (c *Client) send(httpReq *http.Request, result any, kind entity.ErrorKind) error {
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return entity.Errorf(kind, "send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.classify(resp, kind)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return entity.Errorf(kind, "decode response: %w", err)
	}
	return nil
}

// classify maps an upstream failure onto the error taxonomy. Rate-limit
// and quota signals are only distinguished for the image endpoints; the
// analysis endpoint keeps its own single failure kind.
func (c *Client) classify(resp *http.Response, kind entity.ErrorKind) error {
	raw, _ := io.ReadAll(resp.Body)

	message := string(raw)
	code := ""
	var envelope errorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != nil {
		message = envelope.Error.Message
		code = envelope.Error.Code
	}

	if kind == entity.KindGeneration {
		switch {
		case code == codeInsufficientQuota || resp.StatusCode == http.StatusPaymentRequired:
			kind = entity.KindQuotaExhausted
		case resp.StatusCode == http.StatusTooManyRequests:
			kind = entity.KindRateLimited
		}
	}

	return entity.Errorf(kind, "upstream status %d: %s", resp.StatusCode, message)
}

func firstURL(result imageResponse) (string, error) {
	if len(result.Data) == 0 {
		return "", entity.NewError(entity.KindGeneration, entity.ErrNoAssetInReply)
	}
	return result.Data[0].URL, nil
}

func writeFilePart(writer *multipart.Writer, field, filename string, data []byte) error {
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return err
	}
	_, err = part.Write(data)
	return err
}
