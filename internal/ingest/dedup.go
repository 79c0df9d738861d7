package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/quantmind-br/sri-ingest/internal/cache"
	"github.com/quantmind-br/sri-ingest/internal/state"
	"github.com/quantmind-br/sri-ingest/internal/storage"
	"github.com/quantmind-br/sri-ingest/internal/utils"
)

// Dedup policy names
const (
	PolicyAuto     = "auto"
	PolicyLastHash = "last_hash"
	PolicyScan     = "scan"
)

// DedupPolicy decides whether freshly downloaded content is already stored
type DedupPolicy interface {
	Name() string
	IsDuplicate(ctx context.Context, year int, digest string, ys state.YearState) (bool, error)
}

// LastHashPolicy compares against the digest recorded for the year. It
// suits object stores where listing a partition is expensive.
type LastHashPolicy struct{}

// Name returns PolicyLastHash
func (LastHashPolicy) Name() string { return PolicyLastHash }

// IsDuplicate reports whether digest equals the year's last recorded digest
func (LastHashPolicy) IsDuplicate(_ context.Context, _ int, digest string, ys state.YearState) (bool, error) {
	return ys.LastSHA256 != nil && *ys.LastSHA256 == digest, nil
}

// ScanPolicy hashes every CSV stored under the year's partition. Digests are
// remembered in an optional HashIndex so unchanged files are read once.
type ScanPolicy struct {
	backend storage.Backend
	layout  storage.Layout
	index   *cache.HashIndex
	logger  *utils.Logger
}

// NewScanPolicy creates a ScanPolicy. index may be nil.
func NewScanPolicy(backend storage.Backend, layout storage.Layout, index *cache.HashIndex, logger *utils.Logger) *ScanPolicy {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &ScanPolicy{backend: backend, layout: layout, index: index, logger: logger}
}

// Name returns PolicyScan
func (p *ScanPolicy) Name() string { return PolicyScan }

// IsDuplicate reports whether any stored CSV for year has digest. Files
// that cannot be read are skipped.
func (p *ScanPolicy) IsDuplicate(ctx context.Context, year int, digest string, _ state.YearState) (bool, error) {
	objects, err := p.backend.List(ctx, p.layout.YearPrefix(year))
	if err != nil {
		return false, fmt.Errorf("scan year %d: %w", year, err)
	}

	for _, obj := range objects {
		if !strings.HasSuffix(strings.ToLower(obj.Key), artifactExt) {
			continue
		}
		known, ok := p.digest(ctx, obj)
		if !ok {
			continue
		}
		if known == digest {
			p.logger.Debug().Int("year", year).Str("key", obj.Key).Msg("Matching content already stored")
			return true, nil
		}
	}
	return false, nil
}

func (p *ScanPolicy) digest(ctx context.Context, obj storage.ObjectInfo) (string, bool) {
	location := p.backend.Location(obj.Key)
	if p.index != nil {
		if d, ok, err := p.index.Lookup(ctx, location, obj.Size, obj.ModTime); err == nil && ok {
			return d, true
		}
	}

	data, err := p.backend.Read(ctx, obj.Key)
	if err != nil {
		p.logger.Debug().Err(err).Str("key", obj.Key).Msg("Skipping unreadable file")
		return "", false
	}
	d := utils.SHA256Hex(data)

	if p.index != nil {
		if err := p.index.Remember(ctx, location, obj.Size, obj.ModTime, d); err != nil {
			p.logger.Debug().Err(err).Str("key", obj.Key).Msg("Failed to remember digest")
		}
	}
	return d, true
}

// SelectPolicy resolves a policy name. "auto" scans a local filesystem and
// compares the last digest on object stores.
func SelectPolicy(name string, backend storage.Backend, layout storage.Layout, index *cache.HashIndex, logger *utils.Logger) (DedupPolicy, error) {
	switch name {
	case "", PolicyAuto:
		if backend.Name() == "local" {
			return NewScanPolicy(backend, layout, index, logger), nil
		}
		return LastHashPolicy{}, nil
	case PolicyLastHash:
		return LastHashPolicy{}, nil
	case PolicyScan:
		return NewScanPolicy(backend, layout, index, logger), nil
	default:
		return nil, fmt.Errorf("unknown dedup policy %q", name)
	}
}
