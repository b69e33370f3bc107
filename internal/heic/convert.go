// Package heic converts HEIC/HEIF images to JPEG.
package heic

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"strings"

	"github.com/jdeng/goheif"

	"github.com/yonagi/kiroku/internal/apperr"
)

const jpegQuality = 90

// IsHEIC reports whether filename carries a HEIC/HEIF extension.
func IsHEIC(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".heic") || strings.HasSuffix(lower, ".heif")
}

// ConvertToJPEG decodes HEIC data and re-encodes it as JPEG. Pure and
// synchronous; the caller decides how to degrade on failure.
func ConvertToJPEG(data []byte) ([]byte, error) {
	img, err := goheif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode heic: %v", apperr.ErrConversion, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("%w: encode jpeg: %v", apperr.ErrConversion, err)
	}
	return buf.Bytes(), nil
}
