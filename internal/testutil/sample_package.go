// Package testutil builds sample theme packages for tests.
package testutil

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing/fstest"
)

// Sample frame geometry. Small enough to keep tests fast, 16:9 so crops are
// no-ops.
const (
	SampleWidth  = 64
	SampleHeight = 36
)

// SamplePackage describes a theme package assembled in memory.
type SamplePackage struct {
	// ManifestName is the manifest's file name, theme.json by default.
	ManifestName string
	// Manifest holds the raw manifest keys.
	Manifest map[string]any
	// Frames maps frame ids to the gray level of a uniform image.
	Frames map[int]uint8
	// Width and Height size every frame.
	Width, Height int
	// Extra holds additional files by name.
	Extra map[string][]byte
}

// NewSamplePackage returns a valid five-frame package: frame brightness
// [10 40 90 60 20], day frames [2 3 4], night frames [5 1].
func NewSamplePackage() *SamplePackage {
	p := &SamplePackage{
		ManifestName: "theme.json",
		Manifest: map[string]any{
			"displayName":    "Mountain Lake",
			"imageCredits":   "Photo by Jane Doe",
			"imageFilename":  "lake_*.png",
			"dayImageList":   []int{2, 3, 4},
			"nightImageList": []int{5, 1},
		},
		Frames: map[int]uint8{},
		Width:  SampleWidth,
		Height: SampleHeight,
		Extra:  map[string][]byte{},
	}
	return p.WithFrames(10, 40, 90, 60, 20)
}

// WithFrames replaces the frames with ids 1..n using the given gray levels.
func (p *SamplePackage) WithFrames(levels ...uint8) *SamplePackage {
	p.Frames = make(map[int]uint8, len(levels))
	for i, level := range levels {
		p.Frames[i+1] = level
	}
	return p
}

// WithSize sets the frame dimensions.
func (p *SamplePackage) WithSize(width, height int) *SamplePackage {
	p.Width, p.Height = width, height
	return p
}

// Set sets a manifest key.
func (p *SamplePackage) Set(key string, value any) *SamplePackage {
	p.Manifest[key] = value
	return p
}

// Without removes manifest keys.
func (p *SamplePackage) Without(keys ...string) *SamplePackage {
	for _, key := range keys {
		delete(p.Manifest, key)
	}
	return p
}

// WithFile adds an extra file.
func (p *SamplePackage) WithFile(name string, data []byte) *SamplePackage {
	p.Extra[name] = data
	return p
}

// FrameName returns the file name of frame id.
func (p *SamplePackage) FrameName(id int) string {
	pattern, _ := p.Manifest["imageFilename"].(string)
	return strings.Replace(pattern, "*", strconv.Itoa(id), 1)
}

// Files renders the package as a name to content map.
func (p *SamplePackage) Files() (map[string][]byte, error) {
	files := make(map[string][]byte, len(p.Frames)+len(p.Extra)+1)
	if p.ManifestName != "" {
		data, err := json.Marshal(p.Manifest)
		if err != nil {
			return nil, err
		}
		files[p.ManifestName] = data
	}
	for id, level := range p.Frames {
		data, err := GrayPNG(p.Width, p.Height, level)
		if err != nil {
			return nil, err
		}
		files[p.FrameName(id)] = data
	}
	for name, data := range p.Extra {
		files[name] = data
	}
	return files, nil
}

// FS renders the package as an in-memory file system.
func (p *SamplePackage) FS() (fstest.MapFS, error) {
	files, err := p.Files()
	if err != nil {
		return nil, err
	}
	fsys := make(fstest.MapFS, len(files))
	for name, data := range files {
		fsys[name] = &fstest.MapFile{Data: data, Mode: 0o644}
	}
	return fsys, nil
}

// WriteZip writes the package as a zip archive at path.
func (p *SamplePackage) WriteZip(path string) error {
	files, err := p.Files()
	if err != nil {
		return err
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		if _, err := w.Write(files[name]); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// GrayPNG encodes a uniform gray image.
func GrayPNG(width, height int, level uint8) ([]byte, error) {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = level
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ColorPNG encodes a uniform image of c.
func ColorPNG(width, height int, c color.Color) ([]byte, error) {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
