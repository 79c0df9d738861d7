package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/quantmind-br/sri-ingest/internal/cache"
	"github.com/quantmind-br/sri-ingest/internal/config"
	"github.com/quantmind-br/sri-ingest/internal/domain"
	"github.com/quantmind-br/sri-ingest/internal/fetcher"
	"github.com/quantmind-br/sri-ingest/internal/ingest"
	"github.com/quantmind-br/sri-ingest/internal/manifest"
	"github.com/quantmind-br/sri-ingest/internal/portal"
	"github.com/quantmind-br/sri-ingest/internal/state"
	"github.com/quantmind-br/sri-ingest/internal/storage"
	"github.com/quantmind-br/sri-ingest/internal/trigger"
	"github.com/quantmind-br/sri-ingest/internal/utils"
)

// hashIndexTTL bounds how long a remembered file digest is trusted
const hashIndexTTL = 30 * 24 * time.Hour

// Orchestrator wires configuration into a runnable ingest driver
type Orchestrator struct {
	config   *config.Config
	logger   *utils.Logger
	location *time.Location
	clock    utils.Clock
	progress io.Writer

	backend  storage.Backend
	layout   storage.Layout
	store    *state.Store
	index    *cache.HashIndex
	dedup    ingest.DedupPolicy
	metadata domain.MetadataProvider
	content  domain.ContentProvider
	trigger  trigger.Trigger

	// closers run in reverse order on Close
	closers []func() error
}

// OrchestratorOptions contains options for creating an orchestrator.
// Backend, Metadata, Content and Trigger replace the configured
// implementations when set.
type OrchestratorOptions struct {
	Config  *config.Config
	Verbose bool
	// LogOutput defaults to stderr
	LogOutput io.Writer
	// Progress receives the per-year progress bar; nil disables it
	Progress io.Writer
	Clock    utils.Clock

	Backend  storage.Backend
	Metadata domain.MetadataProvider
	Content  domain.ContentProvider
	Trigger  trigger.Trigger
}

// RunOptions selects the years and flags of one run. Zero Start and End
// take the configured default start and the current year.
type RunOptions struct {
	Start        int
	End          int
	Force        bool
	MetadataOnly bool
}

// NewOrchestrator creates a new orchestrator with the given configuration
func NewOrchestrator(ctx context.Context, opts OrchestratorOptions) (*Orchestrator, error) {
	cfg := opts.Config

	// Validate config
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := utils.NewLogger(utils.LoggerOptions{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Output:  opts.LogOutput,
		Verbose: opts.Verbose,
	})

	location, err := utils.LoadLocation(cfg.Run.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	o := &Orchestrator{
		config:   cfg,
		logger:   logger,
		location: location,
		clock:    clock,
		progress: opts.Progress,
		layout:   storage.NewLayout(cfg.Storage.Prefix, cfg.Dataset.Name),
	}

	if err := o.setupStorage(ctx, opts.Backend); err != nil {
		o.Close()
		return nil, err
	}
	if err := o.setupSources(opts); err != nil {
		o.Close()
		return nil, err
	}
	if err := o.setupTrigger(opts.Trigger); err != nil {
		o.Close()
		return nil, err
	}

	logger.Debug().
		Str("backend", o.backend.Name()).
		Str("dedup", o.dedup.Name()).
		Str("trigger", o.trigger.Name()).
		Str("state", o.store.Location()).
		Msg("Orchestrator ready")

	return o, nil
}

func (o *Orchestrator) setupStorage(ctx context.Context, backend storage.Backend) error {
	cfg := o.config
	if backend == nil {
		b, err := CreateBackend(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to create storage backend: %w", err)
		}
		backend = b
		o.closers = append(o.closers, b.Close)
	}
	o.backend = backend

	o.store = state.NewStore(state.StoreOptions{
		Backend:  backend,
		Key:      o.layout.StateKey(),
		Logger:   o.logger.WithComponent("state"),
		Clock:    o.clock,
		Location: o.location,
	})

	if cfg.Dedup.CacheEnabled && o.scans() {
		c, err := cache.NewBadgerCache(cache.Options{
			Directory:  utils.ExpandPath(cfg.Dedup.CacheDir),
			GCInterval: cache.DefaultOptions().GCInterval,
		})
		if err != nil {
			// The scan still works without memoised digests
			o.logger.Warn().Err(err).Str("dir", cfg.Dedup.CacheDir).Msg("Hash cache unavailable, scanning without it")
		} else {
			o.logger.Debug().
				Str("dir", cfg.Dedup.CacheDir).
				Int64("entries", c.Size(cache.PrefixFileHash+":")).
				Msg("Hash cache opened")
			o.index = cache.NewHashIndex(c, hashIndexTTL)
			o.closers = append(o.closers, o.index.Close)
		}
	}

	dedup, err := ingest.SelectPolicy(cfg.Dedup.Policy, backend, o.layout, o.index, o.logger.WithComponent("dedup"))
	if err != nil {
		return err
	}
	o.dedup = dedup
	return nil
}

// scans reports whether the configured policy resolves to a partition scan
func (o *Orchestrator) scans() bool {
	switch o.config.Dedup.Policy {
	case ingest.PolicyScan:
		return true
	case ingest.PolicyAuto, "":
		return o.backend.Name() == string(BackendLocal)
	default:
		return false
	}
}

func (o *Orchestrator) setupSources(opts OrchestratorOptions) error {
	cfg := o.config
	o.metadata = opts.Metadata
	o.content = opts.Content
	if o.metadata != nil && o.content != nil {
		return nil
	}

	client, err := fetcher.NewClient(o.clientOptions(cfg.HTTP.MaxRetries))
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}
	o.closers = append(o.closers, client.Close)

	if o.metadata == nil {
		o.metadata = portal.NewMetadataProvider(client, portal.MetadataOptions{
			CKANAPIURL:  cfg.Source.CKANAPIURL,
			DatasetID:   cfg.Source.DatasetID,
			PageURL:     cfg.Source.MetaPageURL,
			CSVURL:      cfg.Source.CSVURL,
			CKANTimeout: o.requestBudget(cfg.HTTP.MaxRetries),
			Logger:      o.logger,
		})
	}
	if o.content == nil {
		o.content = portal.NewContentProvider(client, cfg.Source.CSVURL)
	}
	return nil
}

func (o *Orchestrator) setupTrigger(override trigger.Trigger) error {
	cfg := o.config.Trigger
	if override != nil {
		o.trigger = override
		return nil
	}
	if !cfg.Enabled {
		o.trigger = trigger.Noop{}
		return nil
	}

	// The trigger retries on its own schedule, independent of portal fetches
	client, err := fetcher.NewClient(o.clientOptions(cfg.MaxRetries))
	if err != nil {
		return fmt.Errorf("failed to create trigger client: %w", err)
	}
	o.closers = append(o.closers, client.Close)

	db, err := trigger.NewDatabricks(client, trigger.DatabricksOptions{
		Host:   cfg.Host,
		Token:  cfg.Token,
		JobID:  cfg.JobID,
		Logger: o.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create trigger: %w", err)
	}
	o.trigger = db
	return nil
}

// Logger returns the configured logger
func (o *Orchestrator) Logger() *utils.Logger {
	return o.logger
}

// Location returns the configured timezone
func (o *Orchestrator) Location() *time.Location {
	return o.location
}

// Backend returns the storage backend
func (o *Orchestrator) Backend() storage.Backend {
	return o.backend
}

// Layout returns the key layout of the dataset
func (o *Orchestrator) Layout() storage.Layout {
	return o.layout
}

// Range resolves zero bounds to the configured start and the current year
func (o *Orchestrator) Range(start, end int) (int, int) {
	if start == 0 {
		start = o.config.Run.DefaultStart
	}
	if end == 0 {
		end = o.clock().In(o.location).Year()
	}
	return start, end
}

// Run executes one ingest run over the requested years
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*ingest.Summary, error) {
	start, end := o.Range(opts.Start, opts.End)
	if start > end {
		return nil, fmt.Errorf("%w: %d > %d", ingest.ErrInvalidRange, start, end)
	}

	o.loadState(ctx)

	// Metadata gets room for the CKAN lookup and the dataset page fallback
	download := o.requestBudget(o.config.HTTP.MaxRetries)
	driver := ingest.NewDriver(ingest.Dependencies{
		Metadata: o.metadata,
		Content:  o.content,
		Store:    o.store,
		Backend:  o.backend,
		Dedup:    o.dedup,
		Trigger:  o.trigger,
		Logger:   o.logger,
		Clock:    o.clock,
	}, ingest.Options{
		Dataset:         o.config.Dataset.Name,
		SourceName:      o.config.Source.SourceName,
		Layout:          o.layout,
		Location:        o.location,
		Force:           opts.Force,
		MetadataOnly:    opts.MetadataOnly,
		FetchTimeout:    download,
		MetadataTimeout: 2 * download,
		TriggerTimeout:  o.requestBudget(o.config.Trigger.MaxRetries),
		StorageTimeout:  o.config.Storage.Timeout,
		Progress:        o.progress,
	})

	return driver.Run(ctx, start, end)
}

// requestBudget covers every attempt a client with maxRetries may make for
// one request
func (o *Orchestrator) requestBudget(maxRetries int) time.Duration {
	return time.Duration(maxRetries+1) * o.config.HTTP.Timeout
}

// clientOptions starts from the fetcher defaults and applies the http section
func (o *Orchestrator) clientOptions(maxRetries int) fetcher.ClientOptions {
	opts := fetcher.DefaultClientOptions()
	opts.Timeout = o.config.HTTP.Timeout
	opts.MaxRetries = maxRetries
	opts.UserAgent = o.config.HTTP.UserAgent
	opts.ProxyURL = o.config.HTTP.ProxyURL
	return opts
}

// loadState reads the persisted state, starting empty when it is missing or unreadable
func (o *Orchestrator) loadState(ctx context.Context) {
	loadCtx, cancel := context.WithTimeout(ctx, o.config.Storage.Timeout)
	defer cancel()

	err := o.store.Load(loadCtx)
	switch {
	case err == nil:
	case errors.Is(err, state.ErrStateNotFound):
		o.logger.Info().Str("location", o.store.Location()).Msg("No previous state, starting fresh")
	case errors.Is(err, state.ErrStateCorrupted):
		o.logger.Warn().Err(err).Str("location", o.store.Location()).Msg("State file is corrupted, starting fresh")
	default:
		o.logger.Warn().Err(err).Str("location", o.store.Location()).Msg("Failed to read state, starting fresh")
	}
}

// State returns the persisted records for years in [start, end]
func (o *Orchestrator) State(ctx context.Context, start, end int) (state.RunState, error) {
	start, end = o.Range(start, end)
	if start > end {
		return nil, fmt.Errorf("%w: %d > %d", ingest.ErrInvalidRange, start, end)
	}

	loadCtx, cancel := context.WithTimeout(ctx, o.config.Storage.Timeout)
	defer cancel()
	if err := o.store.Load(loadCtx); err != nil && !errors.Is(err, state.ErrStateNotFound) {
		return nil, err
	}

	out := state.RunState{}
	for year := start; year <= end; year++ {
		out[state.Key(year)] = o.store.Get(year)
	}
	return out, nil
}

// Manifests lists the manifests written for the dataset, oldest first
func (o *Orchestrator) Manifests(ctx context.Context) ([]storage.ObjectInfo, error) {
	return manifest.List(ctx, o.backend, o.layout.ManifestPrefix())
}

// Manifest returns the entries of one run
func (o *Orchestrator) Manifest(ctx context.Context, runTS string) ([]manifest.Entry, error) {
	return manifest.Load(ctx, o.backend, o.layout.ManifestKey(runTS))
}

// Close releases resources
func (o *Orchestrator) Close() error {
	var errs []error
	for i := len(o.closers) - 1; i >= 0; i-- {
		if err := o.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	o.closers = nil
	return errors.Join(errs...)
}
