package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTextLike(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"notes.txt", true},
		{"README.md", true},
		{"main.go", true},
		{"data.JSON", true}, // extension matching is case-insensitive
		{"report.pdf", false},
		{"slides.pptx", false},
		{"image.png", false},
		{"no-extension", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsTextLike(tt.path), tt.path)
	}
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "go", DetectLanguage("/src/main.go"))
	assert.Equal(t, "markdown", DetectLanguage("README.md"))
	assert.Equal(t, "", DetectLanguage("notes.txt"))
	assert.Equal(t, "", DetectLanguage("binary.pdf"))
}

func TestIsCodeLanguage(t *testing.T) {
	assert.True(t, IsCodeLanguage("go"))
	assert.True(t, IsCodeLanguage("python"))
	assert.False(t, IsCodeLanguage("markdown"))
	assert.False(t, IsCodeLanguage(""))
}
