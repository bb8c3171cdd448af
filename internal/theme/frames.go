package theme

import (
	"fmt"
	"io/fs"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Frame is an image file of a theme package together with its identifier.
type Frame struct {
	ID   int
	Name string
}

// MatchesImage reports whether name matches the manifest's image pattern.
func (m *Manifest) MatchesImage(name string) bool {
	ok, err := doublestar.Match(m.ImageFilename, name)
	return err == nil && ok
}

// ListFrames returns the files at the root of fsys that match the image
// pattern, ordered by frame id. Matching files without a numeric id are
// returned separately in directory order.
func (m *Manifest) ListFrames(fsys fs.FS) (frames []Frame, unnumbered []string, err error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, nil, fmt.Errorf("listing package files: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !m.MatchesImage(entry.Name()) {
			continue
		}
		id, idErr := m.FrameID(entry.Name())
		if idErr != nil {
			unnumbered = append(unnumbered, entry.Name())
			continue
		}
		frames = append(frames, Frame{ID: id, Name: entry.Name()})
	}

	sort.SliceStable(frames, func(i, j int) bool {
		return frames[i].ID < frames[j].ID
	})
	return frames, unnumbered, nil
}
