package core

// ArtifactType identifies the kind of file a stage produced.
type ArtifactType string

const (
	// ArtifactTypeThumbnail is a small PNG used in theme listings.
	ArtifactTypeThumbnail ArtifactType = "thumbnail"

	// ArtifactTypePreview is a full-width JPEG preview.
	ArtifactTypePreview ArtifactType = "preview"
)

// Artifact represents a file written by a pipeline stage.
type Artifact struct {
	// Type identifies the content type.
	Type ArtifactType

	// Phase is the sun phase the image depicts (day, night, ...).
	Phase string

	// FilePath is the path of the written file.
	FilePath string

	// FileSize is the size in bytes.
	FileSize int64

	// CreatedBy is the stage ID that created this artifact.
	CreatedBy string
}

// NewArtifact creates a new artifact of the given type and phase.
func NewArtifact(artifactType ArtifactType, phase, createdBy string) Artifact {
	return Artifact{
		Type:      artifactType,
		Phase:     phase,
		CreatedBy: createdBy,
	}
}

// WithFilePath sets the file path for the artifact.
func (a Artifact) WithFilePath(path string) Artifact {
	a.FilePath = path
	return a
}

// WithFileSize sets the file size for the artifact.
func (a Artifact) WithFileSize(size int64) Artifact {
	a.FileSize = size
	return a
}
