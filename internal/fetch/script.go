package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jmylchreest/wallthemes/internal/archive"
)

// ScriptFetcher delegates downloads to an external program invoked as
// "<script> <url> <destDir>". The program prints the downloaded file's path
// as the last line of its standard output; relative paths are resolved
// against destDir.
type ScriptFetcher struct {
	script string
	logger *slog.Logger
}

// NewScriptFetcher creates a ScriptFetcher running script.
func NewScriptFetcher(script string, logger *slog.Logger) *ScriptFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScriptFetcher{script: script, logger: logger}
}

// Fetch runs the download script and describes the file it reports.
// The last-modified time is the file's modification time.
func (f *ScriptFetcher) Fetch(ctx context.Context, rawURL, destDir string) (*Package, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.script, rawURL, destDir)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			f.logger.Warn("download script failed",
				slog.Int("exit_code", exitErr.ExitCode()),
				slog.String("stderr", strings.TrimSpace(stderr.String())),
			)
		}
		return nil, fmt.Errorf("running download script: %w", err)
	}

	p := lastLine(stdout.String())
	if p == "" {
		return nil, fmt.Errorf("download script reported no file")
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(destDir, p)
	}
	if !archive.HasExtension(p) {
		return nil, fmt.Errorf("%w: %q", ErrBadExtension, filepath.Base(p))
	}

	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("reading downloaded package: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("downloaded package %s is not a regular file", p)
	}

	return describe(p, info.ModTime())
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
