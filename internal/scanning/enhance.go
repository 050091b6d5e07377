package scanning

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// maxOCRSide bounds the longest side of an image sent to OCR. Phone photos
// are far larger than any model needs.
const maxOCRSide = 2000

// enhanceForOCR shrinks oversized images and boosts contrast so faded
// thermal-paper receipts stay legible.
func enhanceForOCR(pngData []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(pngData), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	var img image.Image = src
	b := src.Bounds()
	if b.Dx() > maxOCRSide || b.Dy() > maxOCRSide {
		img = imaging.Fit(img, maxOCRSide, maxOCRSide, imaging.Lanczos)
	}

	img = imaging.Grayscale(img)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.5)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}
