// Package imaging normalizes uploaded recipe images before they reach object
// storage: decode, downscale to a bounded size, re-encode to a single lossy
// format. Standardizing the stored format keeps output size bounded no matter
// what the client sends.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"path"
	"strings"
	"time"

	"golang.org/x/image/draw"

	_ "image/png" // decoder registration

	_ "golang.org/x/image/webp" // decoder registration
)

const (
	// MaxDimension bounds the longer side of a normalized image. Smaller
	// images are stored as-is; normalization never upscales.
	MaxDimension = 1200

	// JPEGQuality is the fixed re-encode quality factor.
	JPEGQuality = 85

	// MaxUploadBytes is the per-file size ceiling enforced before decoding.
	MaxUploadBytes = 5 << 20 // 5 MB

	// ContentType is the format every normalized image is stored as.
	ContentType = "image/jpeg"
)

// allowedTypes is the declared-MIME allow-list checked before any decoding.
var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ErrUnsupportedType reports a declared MIME type outside the allow-list.
type ErrUnsupportedType struct {
	DeclaredType string
}

func (e *ErrUnsupportedType) Error() string {
	return fmt.Sprintf("unsupported image type %q (allowed: jpeg, png, webp)", e.DeclaredType)
}

// ErrTooLarge reports a file exceeding MaxUploadBytes.
type ErrTooLarge struct {
	Size int
}

func (e *ErrTooLarge) Error() string {
	return fmt.Sprintf("image is %d bytes, larger than the %d byte limit", e.Size, MaxUploadBytes)
}

// Validate checks the declared content type and size before any decode work.
func Validate(declaredType string, size int) error {
	if !allowedTypes[strings.ToLower(declaredType)] {
		return &ErrUnsupportedType{DeclaredType: declaredType}
	}
	if size > MaxUploadBytes {
		return &ErrTooLarge{Size: size}
	}
	return nil
}

// Normalized is the output of the pipeline: re-encoded bytes plus the final
// pixel dimensions.
type Normalized struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Normalize decodes src, scales the longer side down to at most MaxDimension
// preserving aspect ratio, and re-encodes as JPEG at JPEGQuality. Images
// already within bounds keep their dimensions.
func Normalize(src []byte) (*Normalized, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	tw, th := targetSize(w, h)

	if tw != w || th != h {
		dst := image.NewRGBA(image.Rect(0, 0, tw, th))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &Normalized{
		Data:        buf.Bytes(),
		ContentType: ContentType,
		Width:       tw,
		Height:      th,
	}, nil
}

// targetSize scales (w, h) so the longer side is at most MaxDimension,
// preserving aspect ratio and never upscaling.
func targetSize(w, h int) (int, int) {
	longer := w
	if h > w {
		longer = h
	}
	if longer <= MaxDimension {
		return w, h
	}
	scale := float64(MaxDimension) / float64(longer)
	tw := int(float64(w)*scale + 0.5)
	th := int(float64(h)*scale + 0.5)
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}
	return tw, th
}

// FileName derives a collision-resistant storage name from the original file
// name: a millisecond timestamp plus the slug-safe base name, with the
// extension of the normalized format.
func FileName(original string, now time.Time) string {
	base := strings.TrimSuffix(path.Base(original), path.Ext(original))
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	cleaned := strings.Trim(b.String(), "-")
	if cleaned == "" {
		cleaned = "image"
	}
	return fmt.Sprintf("%d-%s.jpg", now.UnixMilli(), cleaned)
}
