package utils

import (
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// MaxFilenameLength is the maximum length for a filename
const MaxFilenameLength = 200

// Windows reserved names
var windowsReserved = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true,
	"COM5": true, "COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true,
	"LPT5": true, "LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// invalidCharsRegex matches invalid filename characters
var invalidCharsRegex = regexp.MustCompile(`[<>:"|?*\\/]`)

// whitespaceRegex matches runs of whitespace
var whitespaceRegex = regexp.MustCompile(`\s+`)

// SanitizeFilename makes a name safe for use as a single path segment.
// Underscores and dots are preserved so published file names survive intact.
func SanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = invalidCharsRegex.ReplaceAllString(name, "-")
	name = whitespaceRegex.ReplaceAllString(name, "_")

	ext := filepath.Ext(name)
	baseName := strings.Trim(strings.TrimSuffix(name, ext), "-_. ")
	name = baseName + ext

	upper := strings.ToUpper(baseName)
	if windowsReserved[upper] {
		name = "_" + name
	}

	if len(name) > MaxFilenameLength {
		name = name[:MaxFilenameLength-len(ext)] + ext
	}

	if baseName == "" {
		name = "untitled" + ext
	}

	return name
}

// BaseNameFromURL returns the last path segment of a URL, without query or fragment
func BaseNameFromURL(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		rawURL = rawURL[:i]
	}
	base := path.Base(rawURL)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// EnsureDir ensures a directory exists, creating it if necessary
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	return path
}
