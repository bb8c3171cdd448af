package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBytes(t *testing.T) {
	tests := map[int64]string{
		0:                  "0 B",
		512:                "512 B",
		1536:               "1.5 KB",
		5 * 1024 * 1024:    "5.0 MB",
		1024 * 1024 * 1024: "1.0 GB",
	}
	for input, expected := range tests {
		assert.Equal(t, expected, Bytes(input), "bytes %d", input)
	}
}

func TestNumber(t *testing.T) {
	assert.Equal(t, "1,234,567", Number(1234567))
	assert.Equal(t, "42", Number(42))
}

func TestDimensions(t *testing.T) {
	assert.Equal(t, "1920x1080", Dimensions(1920, 1080))
}

func TestDuration(t *testing.T) {
	assert.Equal(t, "1.5s", Duration(1534*time.Millisecond))
	assert.Equal(t, "250ms", Duration(250400*time.Microsecond))
	assert.Equal(t, "500µs", Duration(500*time.Microsecond))
}
