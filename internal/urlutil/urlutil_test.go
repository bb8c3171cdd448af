package urlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRemoteURL(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"https://example.com/theme.ddw", true},
		{"HTTP://example.com/theme.ddw", true},
		{"file:///tmp/theme.ddw", false},
		{"//example.com/theme.ddw", false},
		{"theme.ddw", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRemoteURL(tt.input))
		})
	}
}

func TestIsFileURL(t *testing.T) {
	assert.True(t, IsFileURL("file:///tmp/theme.ddw"))
	assert.True(t, IsFileURL("FILE:///tmp/theme.ddw"))
	assert.False(t, IsFileURL("https://example.com/theme.ddw"))
	assert.False(t, IsFileURL("/tmp/theme.ddw"))
}

func TestGetScheme(t *testing.T) {
	assert.Equal(t, "https", GetScheme("HTTPS://example.com"))
	assert.Equal(t, "file", GetScheme("file:///tmp/x"))
	assert.Equal(t, "", GetScheme("theme.ddw"))
	assert.Equal(t, "", GetScheme("://bad"))
}

func TestFilePathFromURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"absolute", "file:///srv/themes/lake.ddw", "/srv/themes/lake.ddw", false},
		{"localhost", "file://localhost/srv/lake.ddw", "/srv/lake.ddw", false},
		{"escaped", "file:///srv/my%20themes/lake.ddw", "/srv/my themes/lake.ddw", false},
		{"remote host", "file://server/share/lake.ddw", "", true},
		{"empty path", "file://", "", true},
		{"not a file url", "https://example.com/lake.ddw", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FilePathFromURL(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		errMsg string
	}{
		{"https", "https://example.com/lake.ddw", ""},
		{"http", "http://example.com/lake.ddw", ""},
		{"file", "file:///tmp/lake.ddw", ""},
		{"empty", "", "URL is required"},
		{"no scheme", "example.com/lake.ddw", "must include a scheme"},
		{"ftp", "ftp://example.com/lake.ddw", "unsupported URL scheme: ftp"},
		{"no host", "https:///lake.ddw", "no host"},
		{"unparseable", "http://[::1", "invalid URL format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
