package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/quantmind-br/sri-ingest/internal/utils"
)

// Local stores objects as files below a base directory
type Local struct {
	baseDir string
}

// NewLocal creates a Local backend rooted at baseDir
func NewLocal(baseDir string) (*Local, error) {
	if baseDir == "" {
		baseDir = "."
	}
	abs, err := filepath.Abs(utils.ExpandPath(baseDir))
	if err != nil {
		return nil, fmt.Errorf("resolve base dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("create base dir: %w", err)
	}
	return &Local{baseDir: abs}, nil
}

// Name implements Backend
func (l *Local) Name() string { return "local" }

// BaseDir returns the absolute root directory
func (l *Local) BaseDir() string { return l.baseDir }

func (l *Local) path(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(l.baseDir, filepath.FromSlash(key)), nil
}

// writeData is swapped in tests to simulate a full disk
var writeData = func(f *os.File, data []byte) error {
	_, err := f.Write(data)
	return err
}

// writeTemp writes data to a synced temp file next to p and returns its
// name. Nothing is left on disk when it fails.
func writeTemp(p, key string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(p), "."+filepath.Base(p)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()

	fail := func(op string, err error) (string, error) {
		tmp.Close()
		os.Remove(name)
		return "", fmt.Errorf("%s %s: %w", op, key, err)
	}
	if err := writeData(tmp, data); err != nil {
		return fail("write", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("sync", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Chmod(name, 0644); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("chmod %s: %w", key, err)
	}
	return name, nil
}

// Write replaces the object atomically via a temp file and rename
func (l *Local) Write(ctx context.Context, key string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(p); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	tmpName, err := writeTemp(p, key, data)
	if err != nil {
		return err
	}
	defer os.Remove(tmpName)

	if err := os.Rename(tmpName, p); err != nil {
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

// Create writes the object only if no file exists at key. The content is
// written to a temp file first and hard-linked into place, so key is either
// absent or complete.
func (l *Local) Create(ctx context.Context, key string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(p); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	if _, err := os.Lstat(p); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, key)
	}

	tmpName, err := writeTemp(p, key, data)
	if err != nil {
		return err
	}
	defer os.Remove(tmpName)

	err = os.Link(tmpName, p)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", ErrExists, key)
	}
	if err != nil {
		return fmt.Errorf("link %s: %w", key, err)
	}
	return nil
}

// Read implements Backend
func (l *Local) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := l.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return data, err
}

// Exists implements Backend
func (l *Local) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p, err := l.path(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// List walks the directory holding prefix. Temp files from interrupted
// writes are skipped.
func (l *Local) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	dir := l.baseDir
	if i := strings.LastIndex(prefix, "/"); i >= 0 {
		p, err := l.path(prefix[:i])
		if err != nil {
			return nil, err
		}
		dir = p
	}

	var out []ObjectInfo
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || strings.Contains(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(l.baseDir, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			// vanished between readdir and stat
			return nil
		}
		out = append(out, ObjectInfo{Key: key, Size: info.Size(), ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Location returns the absolute file path of key
func (l *Local) Location(key string) string {
	return filepath.Join(l.baseDir, filepath.FromSlash(key))
}

// Close implements Backend
func (l *Local) Close() error { return nil }
