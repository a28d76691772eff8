package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ds124wfegd/image-modifier/internal/entity"
	"github.com/ds124wfegd/image-modifier/internal/pkg/normalize"
	"github.com/ds124wfegd/image-modifier/internal/service"
)

const testMaxUpload = 32 << 20

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

// --- collaborator mocks wired through the real pipeline service ---

type stubAnalyzer struct {
	analysis string
	err      error
	calls    int
}

func (s *stubAnalyzer) AnalyzeImage(_ context.Context, _ []byte, _ string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.analysis, nil
}

type stubGenerator struct {
	url   string
	err   error
	calls int

	lastImage []byte
	lastMask  []byte
}

func (s *stubGenerator) GenerateImage(_ context.Context, _ string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.url, nil
}

func (s *stubGenerator) EditImage(_ context.Context, img, mask []byte, _ string) (string, error) {
	s.calls++
	s.lastImage = img
	s.lastMask = mask
	if s.err != nil {
		return "", s.err
	}
	return s.url, nil
}

func (s *stubGenerator) CreateVariation(_ context.Context, img []byte) (string, error) {
	s.calls++
	s.lastImage = img
	if s.err != nil {
		return "", s.err
	}
	return s.url, nil
}

func newRouter(analyzer *stubAnalyzer, generator *stubGenerator) *gin.Engine {
	svc := service.NewPipelineService(analyzer, generator, normalize.NewNormalizer(64))
	handler := NewPipelineHandler(svc, testMaxUpload)
	return InitRoutes(handler, "*")
}

// --- request builders ---

func newJPEGUpload(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 60, G: 120, B: 180, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}))
	return buf.Bytes()
}

type upload struct {
	field    string
	filename string
	data     []byte
}

func newMultipartRequest(t *testing.T, url string, uploads []upload, fields map[string]string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, u := range uploads {
		part, err := writer.CreateFormFile(u.field, u.filename)
		require.NoError(t, err)
		_, err = part.Write(u.data)
		require.NoError(t, err)
	}
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, url, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func doRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

// --- tests ---

func TestGenerateEndToEnd(t *testing.T) {
	analyzer := &stubAnalyzer{analysis: "ANALYSIS: a park at noon\nDALL-E PROMPT: a park at night"}
	generator := &stubGenerator{url: "https://example/img.png"}
	router := newRouter(analyzer, generator)

	req := newMultipartRequest(t, "/generate",
		[]upload{{field: "image", filename: "park.jpg", data: newJPEGUpload(t, 3000, 2000)}},
		map[string]string{"prompt": "make it nighttime"})

	recorder := doRequest(router, req)

	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	body := decodeBody(t, recorder)
	assert.Equal(t, "https://example/img.png", body["image_url"])
	assert.Equal(t, "a park at night", body["prompt_used"])
	assert.Equal(t, "full_generation", body["method"])
	assert.Equal(t, 1, analyzer.calls)
	assert.Equal(t, 1, generator.calls)
}

func TestGenerateValidationRejectsBeforeExternalCalls(t *testing.T) {
	tests := []struct {
		name    string
		uploads []upload
		fields  map[string]string
	}{
		{
			name:   "missing image",
			fields: map[string]string{"prompt": "make it nighttime"},
		},
		{
			name:    "missing prompt",
			uploads: []upload{{field: "image", filename: "park.jpg", data: []byte("img-bytes")}},
		},
		{
			name:    "blank prompt",
			uploads: []upload{{field: "image", filename: "park.jpg", data: []byte("img-bytes")}},
			fields:  map[string]string{"prompt": "   "},
		},
		{
			name:    "empty file",
			uploads: []upload{{field: "image", filename: "park.jpg", data: nil}},
			fields:  map[string]string{"prompt": "make it nighttime"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := &stubAnalyzer{analysis: "whatever"}
			generator := &stubGenerator{url: "https://example/img.png"}
			router := newRouter(analyzer, generator)

			recorder := doRequest(router, newMultipartRequest(t, "/generate", tt.uploads, tt.fields))

			assert.Equal(t, http.StatusBadRequest, recorder.Code)
			body := decodeBody(t, recorder)
			assert.NotEmpty(t, body["error"])
			assert.NotEmpty(t, body["details"])
			assert.Zero(t, analyzer.calls, "no collaborator may be invoked for invalid input")
			assert.Zero(t, generator.calls)
		})
	}
}

func TestGenerateAnalysisFailureShortCircuits(t *testing.T) {
	analyzer := &stubAnalyzer{err: entity.Errorf(entity.KindAnalysis, "upstream status 500: model overloaded")}
	generator := &stubGenerator{url: "https://example/img.png"}
	router := newRouter(analyzer, generator)

	req := newMultipartRequest(t, "/generate",
		[]upload{{field: "image", filename: "park.jpg", data: newJPEGUpload(t, 100, 80)}},
		map[string]string{"prompt": "make it nighttime"})

	recorder := doRequest(router, req)

	assert.Equal(t, http.StatusBadGateway, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, "Image analysis failed", body["error"])
	assert.Contains(t, body["details"], "model overloaded")
	assert.Zero(t, generator.calls, "generation must not run after failed analysis")
}

func TestErrorKindStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "rate limited",
			err:        entity.Errorf(entity.KindRateLimited, "upstream status 429: slow down"),
			wantStatus: http.StatusTooManyRequests,
			wantError:  "Upstream rate limit exceeded",
		},
		{
			name:       "quota exhausted",
			err:        entity.Errorf(entity.KindQuotaExhausted, "upstream status 429: insufficient_quota"),
			wantStatus: http.StatusPaymentRequired,
			wantError:  "Upstream quota exhausted",
		},
		{
			name:       "generic generation failure",
			err:        entity.Errorf(entity.KindGeneration, "upstream status 500: boom"),
			wantStatus: http.StatusBadGateway,
			wantError:  "Image generation failed",
		},
		{
			name:       "missing credential",
			err:        entity.NewError(entity.KindConfig, entity.ErrMissingAPIKey),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Service is not configured",
		},
		{
			name:       "unclassified error",
			err:        errors.New("something odd"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := &stubAnalyzer{analysis: "DALL-E PROMPT: anything"}
			generator := &stubGenerator{err: tt.err}
			router := newRouter(analyzer, generator)

			req := newMultipartRequest(t, "/generate",
				[]upload{{field: "image", filename: "park.jpg", data: newJPEGUpload(t, 100, 80)}},
				map[string]string{"prompt": "change it"})

			recorder := doRequest(router, req)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			body := decodeBody(t, recorder)
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestEditImageWithoutMaskSubmitsFullCoverageMask(t *testing.T) {
	analyzer := &stubAnalyzer{}
	generator := &stubGenerator{url: "https://example/edited.png"}
	router := newRouter(analyzer, generator)

	req := newMultipartRequest(t, "/edit-image",
		[]upload{{field: "image", filename: "room.jpg", data: newJPEGUpload(t, 640, 480)}},
		map[string]string{"prompt": "remove the chair"})

	recorder := doRequest(router, req)

	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	img, err := png.Decode(bytes.NewReader(generator.lastImage))
	require.NoError(t, err)
	mask, err := png.Decode(bytes.NewReader(generator.lastMask))
	require.NoError(t, err)

	assert.Equal(t, img.Bounds(), mask.Bounds(), "mask must be sized identically to the normalized image")

	for _, p := range []image.Point{{0, 0}, {63, 63}, {32, 32}} {
		_, _, _, a := mask.At(p.X, p.Y).RGBA()
		assert.Equal(t, uint32(0xffff), a, "mask pixel %v must be fully opaque", p)
	}
}

func TestEditImageUndecodableUpload(t *testing.T) {
	analyzer := &stubAnalyzer{}
	generator := &stubGenerator{url: "https://example/edited.png"}
	router := newRouter(analyzer, generator)

	req := newMultipartRequest(t, "/edit-image",
		[]upload{{field: "image", filename: "room.jpg", data: []byte("not an image at all")}},
		map[string]string{"prompt": "remove the chair"})

	recorder := doRequest(router, req)

	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, "Image processing failed", body["error"])
	assert.Zero(t, generator.calls)
}

func TestGenerateVariationNeedsNoPrompt(t *testing.T) {
	analyzer := &stubAnalyzer{}
	generator := &stubGenerator{url: "https://example/variation.png"}
	router := newRouter(analyzer, generator)

	req := newMultipartRequest(t, "/generate-variation",
		[]upload{{field: "image", filename: "cat.jpg", data: newJPEGUpload(t, 200, 200)}}, nil)

	recorder := doRequest(router, req)

	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	body := decodeBody(t, recorder)
	assert.Equal(t, "https://example/variation.png", body["image_url"])
	assert.Equal(t, "variation", body["method"])
	assert.Zero(t, analyzer.calls)
}

func TestAnalyzeOnly(t *testing.T) {
	analyzer := &stubAnalyzer{analysis: "a tabby cat on a sofa"}
	generator := &stubGenerator{}
	router := newRouter(analyzer, generator)

	req := newMultipartRequest(t, "/analyze-only",
		[]upload{{field: "image", filename: "cat.jpg", data: newJPEGUpload(t, 100, 100)}}, nil)

	recorder := doRequest(router, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, "a tabby cat on a sofa", body["analysis"])
	assert.Zero(t, generator.calls, "analyze-only must not reach the image service")
}

func TestHealth(t *testing.T) {
	analyzer := &stubAnalyzer{}
	generator := &stubGenerator{}
	router := newRouter(analyzer, generator)

	recorder := doRequest(router, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, "ok", body["status"])
	assert.Zero(t, analyzer.calls)
	assert.Zero(t, generator.calls)
}

func TestCORSPreflight(t *testing.T) {
	router := newRouter(&stubAnalyzer{}, &stubGenerator{})

	recorder := doRequest(router, httptest.NewRequest(http.MethodOptions, "/generate", nil))

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
}
