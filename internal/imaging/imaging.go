// Package imaging provides the image operations used to validate theme
// frames and derive thumbnails and previews from them.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"

	"golang.org/x/image/draw"

	// Register image format decoders
	_ "image/gif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Aspect ratio every derived artifact is cropped to.
const (
	AspectWidth  = 16
	AspectHeight = 9
)

// DefaultPreviewQuality is the JPEG quality used for web previews.
const DefaultPreviewQuality = 75

// Decode decodes image data in any registered format.
func Decode(r io.Reader) (image.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding image (format=%s): %w", format, err)
	}
	return img, nil
}

// Open decodes the image called name from fsys.
func Open(fsys fs.FS, name string) (image.Image, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()

	img, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return img, nil
}

// Dimensions returns the width and height of the image called name without
// decoding its pixels.
func Dimensions(fsys fs.FS, name string) (int, int, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return 0, 0, fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()

	config, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decoding image config of %s: %w", name, err)
	}
	return config.Width, config.Height, nil
}

// MeanLuma returns the arithmetic mean of the image's grayscale intensity
// on a 0-255 scale, using the ITU-R 601 luma weights.
func MeanLuma(img image.Image) float64 {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}

	var sum uint64
	switch src := img.(type) {
	case *image.Gray:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, y):]
			for x := 0; x < b.Dx(); x++ {
				sum += uint64(row[x])
			}
		}
	case *image.YCbCr:
		// Y is already the luma channel.
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				sum += uint64(src.Y[src.YOffset(x, y)])
			}
		}
	case *image.RGBA:
		sum = sumRGBLuma(src.Pix, src.Stride, src.PixOffset(b.Min.X, b.Min.Y), b.Dx(), b.Dy())
	case *image.NRGBA:
		sum = sumRGBLuma(src.Pix, src.Stride, src.PixOffset(b.Min.X, b.Min.Y), b.Dx(), b.Dy())
	default:
		// Luma of the straight channels; alpha is ignored.
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				sum += luma(c.R, c.G, c.B)
			}
		}
	}
	return float64(sum) / float64(n)
}

// sumRGBLuma sums the luma of 4-byte-per-pixel RGB data, ignoring alpha.
func sumRGBLuma(pix []uint8, stride, offset, w, h int) uint64 {
	var sum uint64
	for y := 0; y < h; y++ {
		row := pix[offset+y*stride:]
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+3]
			sum += luma(p[0], p[1], p[2])
		}
	}
	return sum
}

func luma(r, g, b uint8) uint64 {
	return uint64((19595*uint32(r) + 38470*uint32(g) + 7471*uint32(b) + 1<<15) >> 16)
}

// TargetHeight returns round(width*9/16).
func TargetHeight(width int) int {
	return (width*AspectHeight + AspectWidth/2) / AspectWidth
}

// CropRect returns the centered 16:9 region of bounds. The axis in excess is
// trimmed symmetrically; an exact 16:9 rectangle is returned unchanged.
func CropRect(bounds image.Rectangle) image.Rectangle {
	w, h := bounds.Dx(), bounds.Dy()
	switch {
	case w*AspectHeight > h*AspectWidth:
		cw := min((h*AspectWidth+AspectHeight/2)/AspectHeight, w)
		x0 := bounds.Min.X + (w-cw)/2
		return image.Rect(x0, bounds.Min.Y, x0+cw, bounds.Max.Y)
	case w*AspectHeight < h*AspectWidth:
		ch := min((w*AspectHeight+AspectWidth/2)/AspectWidth, h)
		y0 := bounds.Min.Y + (h-ch)/2
		return image.Rect(bounds.Min.X, y0, bounds.Max.X, y0+ch)
	default:
		return bounds
	}
}

// CropToAspect center-crops img to 16:9 and resizes the result to exactly
// width x TargetHeight(width). The output depends only on the inputs.
func CropToAspect(img image.Image, width int) (*image.RGBA, error) {
	if width <= 0 {
		return nil, fmt.Errorf("invalid target width %d", width)
	}
	crop := CropRect(img.Bounds())
	if crop.Empty() {
		return nil, fmt.Errorf("image %dx%d is too small to crop", img.Bounds().Dx(), img.Bounds().Dy())
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, TargetHeight(width)))
	if crop.Size() == dst.Rect.Size() {
		draw.Draw(dst, dst.Rect, img, crop.Min, draw.Src)
		return dst, nil
	}
	draw.CatmullRom.Scale(dst, dst.Rect, img, crop, draw.Src, nil)
	return dst, nil
}

// EncodePNG encodes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("encoding to PNG: %w", err)
	}
	return nil
}

// EncodeJPEG encodes img as JPEG at the given quality.
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("encoding to JPEG: %w", err)
	}
	return nil
}

// PNGBytes is EncodePNG into a byte slice.
func PNGBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// JPEGBytes is EncodeJPEG into a byte slice.
func JPEGBytes(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeJPEG(&buf, img, quality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
