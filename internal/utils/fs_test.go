package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "published csv name",
			input:    "SRI_Vehiculos_Nuevos_2023.csv",
			expected: "SRI_Vehiculos_Nuevos_2023.csv",
		},
		{
			name:     "invalid characters",
			input:    "test:file<>?*.csv",
			expected: "test-file.csv",
		},
		{
			name:     "whitespace",
			input:    "vehiculos  nuevos 2020.csv",
			expected: "vehiculos_nuevos_2020.csv",
		},
		{
			name:     "path separators",
			input:    "raw/2020/file.csv",
			expected: "raw-2020-file.csv",
		},
		{
			name:     "Windows reserved name CON",
			input:    "CON.csv",
			expected: "_CON.csv",
		},
		{
			name:     "very long filename",
			input:    strings.Repeat("a", 250) + ".csv",
			expected: strings.Repeat("a", 200-4) + ".csv",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "untitled",
		},
		{
			name:     "only invalid characters",
			input:    "<>:\"|?*",
			expected: "untitled",
		},
		{
			name:     "control characters dropped",
			input:    "data\x00set.csv",
			expected: "dataset.csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeFilename(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestBaseNameFromURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"https://descargas.sri.gob.ec/download/datosAbiertos/SRI_Vehiculos_Nuevos_2021.csv", "SRI_Vehiculos_Nuevos_2021.csv"},
		{"https://example.com/files/data.csv?token=abc", "data.csv"},
		{"https://example.com/files/data.csv#top", "data.csv"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, BaseNameFromURL(tt.input))
		})
	}
}

func TestEnsureDir(t *testing.T) {
	t.Parallel()

	t.Run("creates directory", func(t *testing.T) {
		tempDir := t.TempDir()
		testPath := filepath.Join(tempDir, "subdir", "file.txt")

		err := EnsureDir(testPath)
		require.NoError(t, err)

		// Check that the directory was created
		info, err := os.Stat(filepath.Dir(testPath))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("existing directory", func(t *testing.T) {
		tempDir := t.TempDir()
		testPath := filepath.Join(tempDir, "file.txt")

		err := EnsureDir(testPath)
		require.NoError(t, err)

		// Should not error if directory already exists
		err = EnsureDir(testPath)
		require.NoError(t, err)
	})
}

func TestExpandPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "home directory with slash",
			input:    "~/test",
			expected: filepath.Join(os.Getenv("HOME"), "test"),
		},
		{
			name:     "home directory only",
			input:    "~",
			expected: os.Getenv("HOME"),
		},
		{
			name:     "regular path",
			input:    "/tmp/test",
			expected: "/tmp/test",
		},
		{
			name:     "relative path",
			input:    "./test",
			expected: "./test",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ExpandPath(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}
