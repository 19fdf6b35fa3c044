package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	assert.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("image/jpeg", 1024))
	assert.NoError(t, Validate("image/PNG", 1024))
	assert.NoError(t, Validate("image/webp", MaxUploadBytes))

	err := Validate("application/pdf", 1024)
	var unsupported *ErrUnsupportedType
	assert.ErrorAs(t, err, &unsupported)

	err = Validate("image/jpeg", MaxUploadBytes+1)
	var tooLarge *ErrTooLarge
	assert.ErrorAs(t, err, &tooLarge)
}

func TestNormalizeDownscalesLongSide(t *testing.T) {
	src := encodePNG(t, 2400, 1200)

	out, err := Normalize(src)
	assert.NoError(t, err)
	assert.Equal(t, ContentType, out.ContentType)
	assert.Equal(t, 1200, out.Width)
	assert.Equal(t, 600, out.Height)

	decoded, err := jpeg.Decode(bytes.NewReader(out.Data))
	assert.NoError(t, err)
	assert.Equal(t, 1200, decoded.Bounds().Dx())
	assert.Equal(t, 600, decoded.Bounds().Dy())
}

func TestNormalizePortraitOrientation(t *testing.T) {
	src := encodePNG(t, 600, 1800)

	out, err := Normalize(src)
	assert.NoError(t, err)
	assert.Equal(t, 1200, out.Height)
	assert.Equal(t, 400, out.Width)
}

func TestNormalizeNeverUpscales(t *testing.T) {
	src := encodePNG(t, 300, 200)

	out, err := Normalize(src)
	assert.NoError(t, err)
	assert.Equal(t, 300, out.Width)
	assert.Equal(t, 200, out.Height)
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	_, err := Normalize([]byte("definitely not an image"))
	assert.Error(t, err)
}

func TestTargetSizeBounds(t *testing.T) {
	for _, c := range []struct{ w, h, tw, th int }{
		{1200, 1200, 1200, 1200},
		{1201, 100, 1200, 100},
		{4800, 2400, 1200, 600},
		{50, 50, 50, 50},
	} {
		tw, th := targetSize(c.w, c.h)
		assert.Equal(t, c.tw, tw, "width for %dx%d", c.w, c.h)
		assert.Equal(t, c.th, th, "height for %dx%d", c.w, c.h)
		assert.LessOrEqual(t, tw, MaxDimension)
		assert.LessOrEqual(t, th, MaxDimension)
	}
}

func TestFileName(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	assert.Equal(t, "1700000000000-tarte-aux-pommes.jpg", FileName("Tarte aux Pommes.PNG", now))
	assert.Equal(t, "1700000000000-image.jpg", FileName("???.webp", now))
	assert.Equal(t, "1700000000000-photo_1.jpg", FileName("photo_1.jpeg", now))
}
