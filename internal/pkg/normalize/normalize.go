package normalize

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/ds124wfegd/image-modifier/internal/entity"
)

// Mode selects the color representation of the normalized output.
type Mode int

const (
	// ModeRGBA keeps an alpha channel, required before edit/in-painting
	// calls where the provider reads alpha to find editable regions.
	ModeRGBA Mode = iota

	// ModeGray is used for caller-supplied edit masks.
	ModeGray
)

// Normalizer forces arbitrary uploads onto a fixed square canvas.
// It holds no state beyond the target resolution and is safe for
// concurrent use.
type Normalizer struct {
	targetSize int
}

func NewNormalizer(targetSize int) Normalizer {
	return Normalizer{targetSize: targetSize}
}

func (n Normalizer) TargetSize() int {
	return n.targetSize
}

// Result is a losslessly re-encoded normalized canvas.
type Result struct {
	PNG    []byte
	Width  int
	Height int
}

// Square decodes data, crops it to a centered square using the shorter
// dimension, resamples to the target resolution and converts to the
// requested mode. The output is always exactly targetSize x targetSize.
func (n Normalizer) Square(data []byte, mode Mode) (*Result, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, entity.Errorf(entity.KindImageProcessing, "decode image: %w", err)
	}

	bounds := img.Bounds()
	side := bounds.Dx()
	if bounds.Dy() < side {
		side = bounds.Dy()
	}

	// CropCenter uses (dim - side) / 2 offsets, floor division.
	cropped := imaging.CropCenter(img, side, side)
	resized := imaging.Resize(cropped, n.targetSize, n.targetSize, imaging.Lanczos)

	var out image.Image = resized
	if mode == ModeGray {
		gray := image.NewGray(resized.Bounds())
		draw.Draw(gray, gray.Bounds(), resized, resized.Bounds().Min, draw.Src)
		out = gray
	}

	encoded, err := encodePNG(out)
	if err != nil {
		return nil, entity.Errorf(entity.KindImageProcessing, "encode normalized image: %w", err)
	}

	return &Result{
		PNG:    encoded,
		Width:  n.targetSize,
		Height: n.targetSize,
	}, nil
}

// FullMask synthesizes a full-coverage mask: every pixel opaque white,
// sized identically to a normalized image, so the whole canvas is
// editable when the caller supplies no mask of their own.
func (n Normalizer) FullMask() (*Result, error) {
	mask := image.NewNRGBA(image.Rect(0, 0, n.targetSize, n.targetSize))
	draw.Draw(mask, mask.Bounds(), image.NewUniform(color.NRGBA{255, 255, 255, 255}), image.Point{}, draw.Src)

	encoded, err := encodePNG(mask)
	if err != nil {
		return nil, entity.Errorf(entity.KindImageProcessing, "encode mask: %w", err)
	}

	return &Result{
		PNG:    encoded,
		Width:  n.targetSize,
		Height: n.targetSize,
	}, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
