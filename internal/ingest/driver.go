package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/quantmind-br/sri-ingest/internal/domain"
	"github.com/quantmind-br/sri-ingest/internal/manifest"
	"github.com/quantmind-br/sri-ingest/internal/state"
	"github.com/quantmind-br/sri-ingest/internal/storage"
	"github.com/quantmind-br/sri-ingest/internal/trigger"
	"github.com/quantmind-br/sri-ingest/internal/utils"
)

// ErrInvalidRange is returned by Run when start is after end
var ErrInvalidRange = errors.New("invalid year range")

// Default step timeouts
const (
	DefaultFetchTimeout   = 120 * time.Second
	DefaultStorageTimeout = 60 * time.Second
)

// Dependencies holds the collaborators of a Driver
type Dependencies struct {
	Metadata domain.MetadataProvider
	Content  domain.ContentProvider
	Store    *state.Store
	Backend  storage.Backend
	Dedup    DedupPolicy
	Trigger  trigger.Trigger
	Logger   *utils.Logger
	Clock    utils.Clock
}

// Options controls one run
type Options struct {
	Dataset      string
	SourceName   string
	Layout       storage.Layout
	Location     *time.Location
	Force        bool
	MetadataOnly bool
	// FetchTimeout bounds each content download
	FetchTimeout time.Duration
	// MetadataTimeout bounds each metadata lookup including its fallback.
	// Defaults to twice FetchTimeout.
	MetadataTimeout time.Duration
	// TriggerTimeout bounds the downstream trigger. Defaults to FetchTimeout.
	TriggerTimeout time.Duration
	// StorageTimeout bounds each state save and artifact write
	StorageTimeout time.Duration
	// Progress receives a progress bar when non-nil
	Progress io.Writer
}

// Driver runs the per-year state machine over a range of years
type Driver struct {
	deps     Dependencies
	opts     Options
	logger   *utils.Logger
	runTS    string
	manifest *manifest.Accumulator
}

// NewDriver creates a Driver. The run timestamp is taken from the clock now
// and names every artifact and the manifest of this run.
func NewDriver(deps Dependencies, opts Options) *Driver {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = utils.NewNopLogger()
	}
	if deps.Trigger == nil {
		deps.Trigger = trigger.Noop{}
	}
	if deps.Dedup == nil {
		deps.Dedup = LastHashPolicy{}
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.MetadataTimeout <= 0 {
		opts.MetadataTimeout = 2 * opts.FetchTimeout
	}
	if opts.TriggerTimeout <= 0 {
		opts.TriggerTimeout = opts.FetchTimeout
	}
	if opts.StorageTimeout <= 0 {
		opts.StorageTimeout = DefaultStorageTimeout
	}

	runTS := utils.RunTimestamp(deps.Clock(), opts.Location)
	return &Driver{
		deps:     deps,
		opts:     opts,
		logger:   deps.Logger.WithDataset(opts.Dataset),
		runTS:    runTS,
		manifest: manifest.NewAccumulator(runTS),
	}
}

// RunTS returns the run timestamp
func (d *Driver) RunTS() string {
	return d.runTS
}

// Manifest returns the entries collected so far
func (d *Driver) Manifest() *manifest.Accumulator {
	return d.manifest
}

// RunYear processes one year. Every path records the year in the state store
// and saves it; the only error returned is a failed save.
func (d *Driver) RunYear(ctx context.Context, year int) (Outcome, error) {
	log := d.logger.WithYear(year)
	prev := d.deps.Store.Get(year)

	meta, metaErr := d.fetchMetadata(ctx, year)
	var marker *string
	record := domain.ErrorRecord(year, metaErr)
	if metaErr != nil {
		log.Warn().Err(metaErr).Msg("Metadata unavailable, continuing without freshness marker")
	} else {
		marker = meta.UpdatedAt
		record = meta.Record()
	}

	if d.opts.MetadataOnly {
		return d.finish(ctx, log, Outcome{Year: year, Kind: OutcomeMetadataOnly, Status: state.StatusMetadataChecked},
			state.Patch{LastMetadataUpdate: marker, Status: state.StatusMetadataChecked})
	}

	decision := Decide(d.opts.Force, prev.LastMetadataUpdate, marker)
	log.Info().
		Bool("download", decision.Download).
		Str("reason", decision.Reason).
		Msg("Decision")

	if !decision.Download {
		return d.finish(ctx, log, Outcome{Year: year, Kind: OutcomeSkipped, Status: state.StatusNoChanges, Decision: &decision},
			state.Patch{LastMetadataUpdate: marker, Status: state.StatusNoChanges})
	}

	// Failed fetches keep the previous marker so the next run decides again.
	content, err := d.fetchContent(ctx, year)
	if err != nil {
		kind, status := OutcomeFailed, state.StatusErrorDownload
		if domain.IsNotFound(err) {
			kind, status = OutcomeNotFound, state.StatusNotFound
		}
		return d.finish(ctx, log, Outcome{Year: year, Kind: kind, Status: status, Decision: &decision, Err: err},
			state.Patch{LastMetadataUpdate: prev.LastMetadataUpdate, Status: status})
	}

	digest := utils.SHA256Hex(content.Body)
	duplicate, err := d.deps.Dedup.IsDuplicate(ctx, year, digest, prev)
	if err != nil {
		log.Warn().Err(err).Str("policy", d.deps.Dedup.Name()).Msg("Duplicate check failed, storing content")
	}
	if duplicate {
		return d.finish(ctx, log, Outcome{Year: year, Kind: OutcomeDuplicate, Status: state.StatusSame, Decision: &decision, SHA256: digest},
			state.Patch{LastMetadataUpdate: marker, Status: state.StatusSame})
	}

	fileName := ArtifactName(content.Name, d.runTS)
	key := d.opts.Layout.RawKey(year, fileName)
	if err := d.persist(ctx, key, content.Body); err != nil {
		return d.finish(ctx, log, Outcome{Year: year, Kind: OutcomeFailed, Status: state.StatusErrorStorage, Decision: &decision, SHA256: digest, Err: err},
			state.Patch{LastMetadataUpdate: prev.LastMetadataUpdate, Status: state.StatusErrorStorage})
	}
	location := d.deps.Backend.Location(key)

	d.manifest.Add(manifest.Entry{
		Source:      d.opts.SourceName,
		ResourceURL: content.URL,
		Metadata:    record,
		Dataset:     d.opts.Dataset,
		Year:        year,
		FileName:    fileName,
		SHA256:      digest,
		IngestionTS: utils.ISOTimestamp(d.deps.Clock(), d.opts.Location),
		LocalPath:   location,
		Notes:       manifest.DefaultNote,
	})

	return d.finish(ctx, log, Outcome{Year: year, Kind: OutcomeDownloaded, Status: state.StatusNew, Decision: &decision, Location: location, SHA256: digest},
		state.Patch{LastMetadataUpdate: marker, Status: state.StatusNew, FilePath: location, SHA256: digest})
}

// finish records the year and persists the state
func (d *Driver) finish(ctx context.Context, log *utils.Logger, out Outcome, patch state.Patch) (Outcome, error) {
	d.deps.Store.Upsert(out.Year, patch)

	saveCtx, cancel := context.WithTimeout(ctx, d.opts.StorageTimeout)
	defer cancel()
	if err := d.deps.Store.Save(saveCtx); err != nil {
		log.Error().Err(err).Str("status", out.Status).Msg("Failed to save state")
		return out, fmt.Errorf("year %d: %w", out.Year, err)
	}

	event := log.Info()
	if out.Kind == OutcomeFailed || out.Kind == OutcomeNotFound {
		event = log.Warn().Err(out.Err)
	}
	event = event.Str("status", out.Status).Str("outcome", string(out.Kind))
	if out.Decision != nil {
		event = event.Str("reason", out.Decision.Reason)
	}
	if out.SHA256 != "" {
		event = event.Str("sha256", out.SHA256)
	}
	if out.Location != "" {
		event = event.Str("location", out.Location)
	}
	event.Msg("Year processed")
	return out, nil
}

func (d *Driver) fetchMetadata(ctx context.Context, year int) (*domain.Metadata, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, d.opts.MetadataTimeout)
	defer cancel()

	meta, err := d.deps.Metadata.Fetch(fetchCtx, year)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, domain.ErrMetadataUnavailable
	}
	return meta, nil
}

func (d *Driver) fetchContent(ctx context.Context, year int) (*domain.Content, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, d.opts.FetchTimeout)
	defer cancel()

	content, err := d.deps.Content.Fetch(fetchCtx, year)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, fmt.Errorf("no content returned for year %d", year)
	}
	return content, nil
}

func (d *Driver) persist(ctx context.Context, key string, data []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, d.opts.StorageTimeout)
	defer cancel()
	return d.deps.Backend.Create(writeCtx, key, data, storage.ContentTypeCSV)
}

// Run processes start..end inclusive in ascending order, then writes the
// manifest and fires the trigger. A failed state save stops the loop; the
// manifest collected so far is still written and the error is returned
// alongside the summary.
func (d *Driver) Run(ctx context.Context, start, end int) (*Summary, error) {
	if start > end {
		return nil, fmt.Errorf("%w: %d > %d", ErrInvalidRange, start, end)
	}

	summary := newSummary(d.runTS, start, end)
	summary.StateLocation = d.deps.Store.Location()

	d.logger.Info().
		Int("start", start).
		Int("end", end).
		Bool("force", d.opts.Force).
		Bool("metadata_only", d.opts.MetadataOnly).
		Str("run_ts", d.runTS).
		Str("dedup", d.deps.Dedup.Name()).
		Msg("Starting run")

	var bar interface{ Add(int) error }
	if d.opts.Progress != nil {
		pb := utils.NewProgressBar(d.opts.Progress, end-start+1, utils.DescChecking)
		defer func() { _ = pb.Finish() }()
		bar = pb
	}

	var runErr error
	for year := start; year <= end; year++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		out, err := d.RunYear(ctx, year)
		summary.record(out)
		if bar != nil {
			_ = bar.Add(1)
		}
		if err != nil {
			runErr = fmt.Errorf("run aborted: %w", err)
			break
		}
	}
	summary.Aborted = runErr != nil

	d.writeManifest(ctx, summary)

	d.logger.Info().
		Int("processed", summary.Processed()).
		Int("new_files", summary.NewFiles).
		Int("skipped", summary.Count(OutcomeSkipped)).
		Int("duplicates", summary.Count(OutcomeDuplicate)).
		Int("not_found", summary.Count(OutcomeNotFound)).
		Int("failed", summary.Count(OutcomeFailed)).
		Msg("Run finished")

	if runErr != nil {
		d.logger.Error().Err(runErr).Msg("Run aborted, trigger not fired")
		return summary, runErr
	}

	d.fireTrigger(ctx, summary)
	return summary, nil
}

func (d *Driver) writeManifest(ctx context.Context, summary *Summary) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.opts.StorageTimeout)
	defer cancel()

	location, err := d.manifest.Write(writeCtx, d.deps.Backend, d.opts.Layout.ManifestKey(d.runTS))
	switch {
	case errors.Is(err, manifest.ErrNothingWritten):
		d.logger.Info().Msg("No new files in this run, manifest not written")
	case err != nil:
		summary.ManifestErr = err
		d.logger.Error().Err(err).Msg("Failed to write manifest")
	default:
		summary.ManifestLocation = location
		d.logger.Info().Str("location", location).Int("entries", d.manifest.Len()).Msg("Manifest written")
	}
}

func (d *Driver) fireTrigger(ctx context.Context, summary *Summary) {
	fireCtx, cancel := context.WithTimeout(ctx, d.opts.TriggerTimeout)
	defer cancel()

	res, err := d.deps.Trigger.Fire(fireCtx)
	if err != nil {
		summary.TriggerErr = err
		d.logger.Error().Err(err).Str("trigger", d.deps.Trigger.Name()).Msg("Downstream trigger failed")
		return
	}
	summary.Trigger = res
	if res != nil {
		d.logger.Info().Str("trigger", d.deps.Trigger.Name()).Msg(res.Message)
	}
}
