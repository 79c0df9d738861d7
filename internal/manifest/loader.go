package manifest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/quantmind-br/sri-ingest/internal/storage"
)

// Decode parses JSON Lines into entries. Blank lines are ignored.
func Decode(data []byte) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(text, &e); err != nil {
			return nil, fmt.Errorf("line %d: %w: %v", line, ErrInvalidFormat, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Load reads and decodes the manifest stored under key
func Load(ctx context.Context, backend storage.Backend, key string) ([]Entry, error) {
	data, err := backend.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// List returns the manifests whose key starts with prefix, oldest run first
func List(ctx context.Context, backend storage.Backend, prefix string) ([]storage.ObjectInfo, error) {
	objs, err := backend.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := objs[:0]
	for _, o := range objs {
		if strings.HasSuffix(o.Key, ".jsonl") {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
