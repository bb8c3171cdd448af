// Package theme defines the manifest carried inside a wallpaper theme package
// and the frame selection rules derived from it.
package theme

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
)

// ManifestFilename is the manifest name inside a published theme package.
const ManifestFilename = "theme.json"

// Wildcard stands in for the frame identifier in Manifest.ImageFilename.
const Wildcard = "*"

// NoFrame is returned by frame selectors when a list is empty or absent.
const NoFrame = -1

// ErrNoManifest is returned when a package does not contain its manifest.
var ErrNoManifest = errors.New("manifest not found")

// Manifest is the metadata file describing a theme's images.
type Manifest struct {
	DisplayName      string `json:"displayName"`
	ImageCredits     string `json:"imageCredits"`
	ImageFilename    string `json:"imageFilename"`
	SunriseImageList []int  `json:"sunriseImageList,omitempty"`
	DayImageList     []int  `json:"dayImageList"`
	SunsetImageList  []int  `json:"sunsetImageList,omitempty"`
	NightImageList   []int  `json:"nightImageList"`

	// DayHighlight overrides the middle-of-list choice for the brightest frame.
	DayHighlight *int `json:"dayHighlight,omitempty"`
	// NightHighlight overrides the middle-of-list choice for the darkest frame.
	NightHighlight *int `json:"nightHighlight,omitempty"`
}

// LoadManifest reads and parses the manifest called name from fsys.
func LoadManifest(fsys fs.FS, name string) (*Manifest, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoManifest, name)
		}
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes manifest JSON.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// MissingKeys lists the required keys that are absent or empty, in the
// order dayImageList, imageCredits, imageFilename, nightImageList.
func (m *Manifest) MissingKeys() []string {
	var missing []string
	if len(m.DayImageList) == 0 {
		missing = append(missing, "dayImageList")
	}
	if m.ImageCredits == "" {
		missing = append(missing, "imageCredits")
	}
	if m.ImageFilename == "" {
		missing = append(missing, "imageFilename")
	}
	if len(m.NightImageList) == 0 {
		missing = append(missing, "nightImageList")
	}
	return missing
}

// MiddleFrame returns the element at index len(list)/2, or NoFrame.
func MiddleFrame(list []int) int {
	if len(list) == 0 {
		return NoFrame
	}
	return list[len(list)/2]
}

// DayFrame returns the canonical brightest frame.
func (m *Manifest) DayFrame() int {
	if m.DayHighlight != nil && *m.DayHighlight != 0 {
		return *m.DayHighlight
	}
	return MiddleFrame(m.DayImageList)
}

// NightFrame returns the canonical darkest frame.
func (m *Manifest) NightFrame() int {
	if m.NightHighlight != nil && *m.NightHighlight != 0 {
		return *m.NightHighlight
	}
	return MiddleFrame(m.NightImageList)
}

// SunriseFrame returns the middle sunrise frame, or NoFrame.
func (m *Manifest) SunriseFrame() int {
	return MiddleFrame(m.SunriseImageList)
}

// SunsetFrame returns the middle sunset frame, or NoFrame.
func (m *Manifest) SunsetFrame() int {
	return MiddleFrame(m.SunsetImageList)
}

// ReferencedFrames returns sunrise, day, sunset and night ids in that order.
// Duplicates are kept.
func (m *Manifest) ReferencedFrames() []int {
	ids := make([]int, 0, len(m.SunriseImageList)+len(m.DayImageList)+len(m.SunsetImageList)+len(m.NightImageList))
	ids = append(ids, m.SunriseImageList...)
	ids = append(ids, m.DayImageList...)
	ids = append(ids, m.SunsetImageList...)
	ids = append(ids, m.NightImageList...)
	return ids
}

// FrameFilename returns the file name of frame id.
func (m *Manifest) FrameFilename(id int) string {
	return strings.Replace(m.ImageFilename, Wildcard, strconv.Itoa(id), 1)
}

// FrameID extracts the frame identifier from a file name that matches
// ImageFilename.
func (m *Manifest) FrameID(filename string) (int, error) {
	star := strings.Index(m.ImageFilename, Wildcard)
	if star < 0 {
		return 0, fmt.Errorf("image filename %q has no wildcard", m.ImageFilename)
	}
	suffix := len(m.ImageFilename) - star - len(Wildcard)
	if len(filename) < star+suffix {
		return 0, fmt.Errorf("file %q does not match %q", filename, m.ImageFilename)
	}
	id, err := strconv.Atoi(filename[star : len(filename)-suffix])
	if err != nil {
		return 0, fmt.Errorf("file %q has no numeric frame id: %w", filename, err)
	}
	return id, nil
}
