package utils

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSHA256Hex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "empty input",
			input:    []byte{},
			expected: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:     "nil input",
			input:    nil,
			expected: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:     "abc",
			input:    []byte("abc"),
			expected: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SHA256Hex(tt.input)
			assert.Equal(t, tt.expected, got)
			assert.Len(t, got, 64)
		})
	}
}

func TestSHA256Hex_Deterministic(t *testing.T) {
	data := []byte("MARCA;MODELO;AÑO\nKIA;RIO;2023\n")
	assert.Equal(t, SHA256Hex(data), SHA256Hex(append([]byte(nil), data...)))
	assert.NotEqual(t, SHA256Hex(data), SHA256Hex(append(data, '\n')))
}

func TestSHA256Reader(t *testing.T) {
	data := []byte("abc")
	got, err := SHA256Reader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, SHA256Hex(data), got)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestSHA256Reader_Error(t *testing.T) {
	_, err := SHA256Reader(failingReader{})
	assert.Error(t, err)
}
