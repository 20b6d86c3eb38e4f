package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"
)

var (
	// ErrEmptyPayload is returned when a payload carries no image bytes.
	ErrEmptyPayload = errors.New("empty image payload")

	// ErrNotPNG is returned when the payload decodes to a format other than PNG.
	ErrNotPNG = errors.New("image is not a png")

	// ErrTooManyPixels is returned when an image header declares more pixels
	// than the caller allows.
	ErrTooManyPixels = errors.New("image has too many pixels")
)

// DecodePayload turns a base64 image payload into raw bytes.
//
// The payload may be a bare base64 string or a data URI such as
// "data:image/png;base64,iVBOR...". Whitespace anywhere in the payload,
// including the line breaks MIME encoders insert, is ignored. Both padded
// and unpadded encodings are accepted.
func DecodePayload(payload string) ([]byte, error) {
	s := strings.TrimSpace(payload)

	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 {
			return nil, fmt.Errorf("malformed data URI")
		}
		header := s[len("data:"):comma]
		if !strings.HasSuffix(header, ";base64") {
			return nil, fmt.Errorf("data URI is not base64 encoded")
		}
		s = s[comma+1:]
	}

	s = stripWhitespace(s)
	if s == "" {
		return nil, ErrEmptyPayload
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil && !strings.HasSuffix(s, "=") {
		if raw, rawErr := base64.RawStdEncoding.DecodeString(s); rawErr == nil {
			return raw, nil
		}
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	return data, nil
}

// DecodeImage decodes raw image bytes and reports the detected format.
//
// Any registered format decodes successfully; callers that only accept PNG
// should check the format or use DecodePNG.
func DecodeImage(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyPayload
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}
	return img, format, nil
}

// DecodePNG decodes raw bytes and rejects anything that is not a PNG with
// an error wrapping ErrNotPNG.
func DecodePNG(data []byte) (image.Image, error) {
	img, format, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}
	if format != "png" {
		return nil, fmt.Errorf("%w: got %s", ErrNotPNG, format)
	}
	return img, nil
}

// CheckPNG reads only the image header of data and verifies that it is a
// PNG of at most maxPixels pixels, so oversized rasters are rejected before
// any pixel memory is allocated.
//
// Parameters:
//   - data: Raw image bytes
//   - maxPixels: Largest allowed width*height; zero or negative disables the check
//
// Returns the decoded header.
//
// # Errors
//
// Returns an error wrapping ErrNotPNG for other formats, ErrTooManyPixels
// when the declared size exceeds maxPixels, and the decoder error when the
// header cannot be read.
func CheckPNG(data []byte, maxPixels int) (image.Config, error) {
	if len(data) == 0 {
		return image.Config{}, ErrEmptyPayload
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, err
	}
	if format != "png" {
		return image.Config{}, fmt.Errorf("%w: got %s", ErrNotPNG, format)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return cfg, fmt.Errorf("%w: %dx%d exceeds %d", ErrTooManyPixels, cfg.Width, cfg.Height, maxPixels)
	}
	return cfg, nil
}

func stripWhitespace(s string) string {
	if strings.IndexAny(s, " \t\r\n") < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r', '\n':
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
