package imageconv

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 6))
	for x := 0; x < 8; x++ {
		img.Set(x, 0, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestConvertPNGToJPEG(t *testing.T) {
	out, err := Convert(samplePNG(t), JPEG)
	require.NoError(t, err)

	assert.Equal(t, JPEG, Detect(out))
	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 8, cfg.Width)
	assert.Equal(t, 6, cfg.Height)
}

func TestConvertSameFormatIsNoop(t *testing.T) {
	in := samplePNG(t)
	out, err := Convert(in, PNG)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestConvertGarbage(t *testing.T) {
	_, err := Convert([]byte("not an image"), PNG)
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, JPEG, f)
	assert.Equal(t, "jpg", f.Extension())
	assert.Equal(t, "image/jpeg", f.MimeType())

	f, err = ParseFormat("WebP")
	require.NoError(t, err)
	assert.Equal(t, WEBP, f)
	assert.Equal(t, "webp", f.Extension())

	_, err = ParseFormat("gif")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
