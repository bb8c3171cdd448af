package imaging

import (
	"bytes"
	"image"
	"image/color"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gradient returns a w x h image whose pixels vary in both axes so crops and
// scales are observable.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 13), B: uint8((x + y) * 3), A: 255})
		}
	}
	return img
}

func uniform(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestTargetHeight(t *testing.T) {
	assert.Equal(t, 216, TargetHeight(384))
	assert.Equal(t, 1080, TargetHeight(1920))
	assert.Equal(t, 56, TargetHeight(100)) // 56.25
	assert.Equal(t, 6, TargetHeight(10))   // 5.625
}

func TestCropRect(t *testing.T) {
	tests := []struct {
		name   string
		bounds image.Rectangle
		want   image.Rectangle
	}{
		{"exact 16:9", image.Rect(0, 0, 1920, 1080), image.Rect(0, 0, 1920, 1080)},
		{"ultrawide crops width", image.Rect(0, 0, 3440, 1440), image.Rect(440, 0, 3000, 1440)},
		{"4:3 crops height", image.Rect(0, 0, 1600, 1200), image.Rect(0, 150, 1600, 1050)},
		{"square", image.Rect(0, 0, 900, 900), image.Rect(0, 197, 900, 703)},
		{"offset bounds", image.Rect(10, 20, 1930, 1100), image.Rect(10, 20, 1930, 1100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CropRect(tt.bounds)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.In(tt.bounds))
		})
	}
}

func TestCropToAspect_OutputSize(t *testing.T) {
	for _, size := range []image.Point{{320, 180}, {400, 300}, {500, 500}, {700, 200}} {
		for _, width := range []int{384, 100, 64} {
			out, err := CropToAspect(gradient(size.X, size.Y), width)
			require.NoError(t, err)
			assert.Equal(t, width, out.Bounds().Dx())
			assert.Equal(t, TargetHeight(width), out.Bounds().Dy())
		}
	}
}

func TestCropToAspect_Deterministic(t *testing.T) {
	src := gradient(400, 300)

	a, err := CropToAspect(src, 160)
	require.NoError(t, err)
	b, err := CropToAspect(src, 160)
	require.NoError(t, err)

	assert.Equal(t, a.Pix, b.Pix)

	pngA, err := PNGBytes(a)
	require.NoError(t, err)
	pngB, err := PNGBytes(b)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(pngA, pngB))
}

func TestCropToAspect_IdempotentAtSameWidth(t *testing.T) {
	once, err := CropToAspect(gradient(400, 300), 160)
	require.NoError(t, err)

	assert.Equal(t, once.Bounds(), CropRect(once.Bounds()))

	twice, err := CropToAspect(once, 160)
	require.NoError(t, err)
	assert.Equal(t, once.Pix, twice.Pix)
}

func TestCropToAspect_InvalidWidth(t *testing.T) {
	_, err := CropToAspect(gradient(16, 9), 0)
	assert.Error(t, err)
}

func TestMeanLuma(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	copy(gray.Pix, []uint8{0, 100, 200, 100})
	assert.InDelta(t, 100.0, MeanLuma(gray), 0.001)

	assert.InDelta(t, 255.0, MeanLuma(uniform(4, 4, color.White)), 0.001)
	assert.InDelta(t, 0.0, MeanLuma(uniform(4, 4, color.Black)), 0.001)

	// Pure red maps to ~76 with the 601 weights.
	assert.InDelta(t, 76.0, MeanLuma(uniform(3, 3, color.RGBA{R: 255, A: 255})), 1.0)

	ycc := image.NewYCbCr(image.Rect(0, 0, 2, 2), image.YCbCrSubsampleRatio420)
	for i := range ycc.Y {
		ycc.Y[i] = 40
	}
	assert.InDelta(t, 40.0, MeanLuma(ycc), 0.001)

	paletted := image.NewPaletted(image.Rect(0, 0, 2, 1), color.Palette{color.Black, color.White})
	paletted.SetColorIndex(1, 0, 1)
	assert.InDelta(t, 127.5, MeanLuma(paletted), 0.001)
}

func TestMeanLuma_IgnoresAlpha(t *testing.T) {
	translucent := color.NRGBA{R: 200, G: 200, B: 200, A: 128}

	paletted := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{translucent})
	assert.InDelta(t, 200.0, MeanLuma(paletted), 0.001)

	nrgba := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < len(nrgba.Pix); i += 4 {
		copy(nrgba.Pix[i:], []uint8{translucent.R, translucent.G, translucent.B, translucent.A})
	}
	assert.InDelta(t, MeanLuma(nrgba), MeanLuma(paletted), 0.001)
}

func TestOpenAndDimensions(t *testing.T) {
	data, err := PNGBytes(gradient(32, 18))
	require.NoError(t, err)
	jpg, err := JPEGBytes(gradient(32, 18), DefaultPreviewQuality)
	require.NoError(t, err)

	fsys := fstest.MapFS{
		"a.png":   {Data: data},
		"b.jpg":   {Data: jpg},
		"bad.png": {Data: []byte("not an image")},
	}

	w, h, err := Dimensions(fsys, "a.png")
	require.NoError(t, err)
	assert.Equal(t, 32, w)
	assert.Equal(t, 18, h)

	img, err := Open(fsys, "b.jpg")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 32, 18), img.Bounds())

	_, err = Open(fsys, "bad.png")
	assert.Error(t, err)
	_, _, err = Dimensions(fsys, "missing.png")
	assert.Error(t, err)
}
