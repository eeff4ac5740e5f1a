package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"windows newlines", "a\r\nb", "a\nb"},
		{"control characters", "RAG\x00 sys\x07tem", "RAG system"},
		{"blank runs", "one\n\n\n\ntwo", "one\n\ntwo"},
		{"trailing spaces", "  line   \n", "line"},
		{"only whitespace", " \n\t\n ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestExtractTextPlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chapter1.txt")
	require.NoError(t, os.WriteFile(path, []byte("Chapter 1\r\n\r\n\r\nRetrieval comes first.\n"), 0o644))

	text, err := ExtractText(path)
	require.NoError(t, err)
	assert.Equal(t, "Chapter 1\n\nRetrieval comes first.", text)
}

func TestExtractTextEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.md")
	require.NoError(t, os.WriteFile(path, []byte("\n\n  \n"), 0o644))

	_, err := ExtractText(path)
	assert.ErrorIs(t, err, ErrNoText)
}

func TestExtractTextMissingFile(t *testing.T) {
	_, err := ExtractText(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoText)

	_, err = ExtractText(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}
