package ingest_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/quantmind-br/sri-ingest/internal/cache"
	"github.com/quantmind-br/sri-ingest/internal/domain"
	"github.com/quantmind-br/sri-ingest/internal/ingest"
	"github.com/quantmind-br/sri-ingest/internal/manifest"
	"github.com/quantmind-br/sri-ingest/internal/mocks"
	"github.com/quantmind-br/sri-ingest/internal/state"
	"github.com/quantmind-br/sri-ingest/internal/storage"
	"github.com/quantmind-br/sri-ingest/internal/trigger"
	"github.com/quantmind-br/sri-ingest/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const csvBody = "MARCA;MODELO;PAIS\nKIA;RIO;COREA\n"

func strPtr(s string) *string { return &s }

// stepClock advances one second per reading
type stepClock struct {
	t time.Time
}

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

type harness struct {
	t       *testing.T
	meta    *mocks.MockMetadataProvider
	content *mocks.MockContentProvider
	backend *storage.Local
	layout  storage.Layout
	store   *state.Store
	clock   *stepClock
	loc     *time.Location
	index   *cache.HashIndex
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)

	backend, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	loc, err := utils.LoadLocation(utils.DefaultTimezone)
	require.NoError(t, err)

	clock := &stepClock{t: time.Date(2025, 1, 3, 15, 15, 0, 0, time.UTC)}
	layout := storage.NewLayout("", "vehiculos")

	return &harness{
		t:       t,
		meta:    mocks.NewMockMetadataProvider(ctrl),
		content: mocks.NewMockContentProvider(ctrl),
		backend: backend,
		layout:  layout,
		store: state.NewStore(state.StoreOptions{
			Backend:  backend,
			Key:      layout.StateKey(),
			Clock:    clock.Now,
			Location: loc,
		}),
		clock: clock,
		loc:   loc,
	}
}

func (h *harness) withIndex() *harness {
	c, err := cache.NewBadgerCache(cache.Options{InMemory: true})
	require.NoError(h.t, err)
	h.t.Cleanup(func() { _ = c.Close() })
	h.index = cache.NewHashIndex(c, 0)
	return h
}

func (h *harness) driver(policy string, tr trigger.Trigger, configure ...func(*ingest.Options)) *ingest.Driver {
	h.t.Helper()
	dedup, err := ingest.SelectPolicy(policy, h.backend, h.layout, h.index, nil)
	require.NoError(h.t, err)

	opts := ingest.Options{
		Dataset:    "vehiculos",
		SourceName: "datosabiertos.gob.ec",
		Layout:     h.layout,
		Location:   h.loc,
	}
	for _, fn := range configure {
		fn(&opts)
	}

	return ingest.NewDriver(ingest.Dependencies{
		Metadata: h.meta,
		Content:  h.content,
		Store:    h.store,
		Backend:  h.backend,
		Dedup:    dedup,
		Trigger:  tr,
		Clock:    h.clock.Now,
	}, opts)
}

func (h *harness) seed(year int, patch state.Patch) state.YearState {
	h.t.Helper()
	ys := h.store.Upsert(year, patch)
	require.NoError(h.t, h.store.Save(context.Background()))
	return ys
}

func (h *harness) expectMeta(year int, marker *string) {
	h.meta.EXPECT().Fetch(gomock.Any(), year).Return(&domain.Metadata{
		Page:      fmt.Sprintf("https://datosabiertos.gob.ec/dataset/estadisticas-vehiculos-%d", year),
		Source:    "Servicio de Rentas Internas",
		UpdatedAt: marker,
	}, nil)
}

func (h *harness) expectContent(year int, body string) {
	h.content.EXPECT().Fetch(gomock.Any(), year).Return(&domain.Content{
		Body: []byte(body),
		Name: fmt.Sprintf("SRI_Vehiculos_Nuevos_%d.csv", year),
		URL:  fmt.Sprintf("https://descargas.sri.gob.ec/download/datosAbiertos/SRI_Vehiculos_Nuevos_%d.csv", year),
	}, nil)
}

func (h *harness) persisted(year int) state.YearState {
	h.t.Helper()
	reloaded := state.NewStore(state.StoreOptions{Backend: h.backend, Key: h.layout.StateKey(), Location: h.loc})
	require.NoError(h.t, reloaded.Load(context.Background()))
	return reloaded.Get(year)
}

func (h *harness) storedFiles(year int) []storage.ObjectInfo {
	h.t.Helper()
	objs, err := h.backend.List(context.Background(), h.layout.YearPrefix(year))
	require.NoError(h.t, err)
	return objs
}

func TestRunYear_FirstRecordDownloads(t *testing.T) {
	h := newHarness(t)
	h.expectMeta(2021, strPtr("2021-05-01"))
	h.expectContent(2021, csvBody)
	d := h.driver(ingest.PolicyAuto, nil)

	out, err := d.RunYear(context.Background(), 2021)
	require.NoError(t, err)

	assert.Equal(t, ingest.OutcomeDownloaded, out.Kind)
	assert.Equal(t, state.StatusNew, out.Status)
	require.NotNil(t, out.Decision)
	assert.Equal(t, ingest.ReasonFirstRecord, out.Decision.Reason)
	assert.Equal(t, utils.SHA256Hex([]byte(csvBody)), out.SHA256)

	ys := h.persisted(2021)
	assert.Equal(t, state.StatusNew, ys.LastStatus)
	require.NotNil(t, ys.LastMetadataUpdate)
	assert.Equal(t, "2021-05-01", *ys.LastMetadataUpdate)
	require.NotNil(t, ys.LastSHA256)
	assert.Equal(t, out.SHA256, *ys.LastSHA256)
	require.NotNil(t, ys.LastFilePath)
	assert.Equal(t, out.Location, *ys.LastFilePath)
	assert.NotNil(t, ys.LastCheckedTS)

	files := h.storedFiles(2021)
	require.Len(t, files, 1)
	assert.Equal(t, "raw/vehiculos/year=2021/SRI_Vehiculos_Nuevos_2021__ingest_ts="+d.RunTS()+".csv", files[0].Key)

	entries := d.Manifest().Entries()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "datosabiertos.gob.ec", e.Source)
	assert.Equal(t, "vehiculos", e.Dataset)
	assert.Equal(t, 2021, e.Year)
	assert.Equal(t, out.SHA256, e.SHA256)
	assert.Equal(t, out.Location, e.LocalPath)
	assert.Equal(t, manifest.DefaultNote, e.Notes)
	assert.Equal(t, "2021-05-01", e.Metadata["fecha_actualizacion"])
	assert.Contains(t, e.IngestionTS, "-05:00")
}

func TestRunYear_UnchangedMarkerSkips(t *testing.T) {
	h := newHarness(t)
	before := h.seed(2021, state.Patch{LastMetadataUpdate: strPtr("2021-05-01"), Status: state.StatusNew})
	h.expectMeta(2021, strPtr("2021-05-01"))
	d := h.driver(ingest.PolicyAuto, nil)

	out, err := d.RunYear(context.Background(), 2021)
	require.NoError(t, err)

	assert.Equal(t, ingest.OutcomeSkipped, out.Kind)
	assert.Equal(t, ingest.ReasonNoChanges, out.Decision.Reason)
	assert.Zero(t, d.Manifest().Len())

	ys := h.persisted(2021)
	assert.Equal(t, state.StatusNoChanges, ys.LastStatus)
	require.NotNil(t, ys.LastCheckedTS)
	assert.Greater(t, *ys.LastCheckedTS, *before.LastCheckedTS)
}

func TestRun_NotFoundContinuesWithNextYear(t *testing.T) {
	h := newHarness(t)
	h.expectMeta(2020, strPtr("2020-12-31"))
	h.content.EXPECT().Fetch(gomock.Any(), 2020).Return(nil, fmt.Errorf("no file: %w", domain.ErrNotFound))
	h.expectMeta(2021, strPtr("2021-05-01"))
	h.expectContent(2021, csvBody)
	d := h.driver(ingest.PolicyAuto, trigger.Noop{})

	summary, err := d.Run(context.Background(), 2020, 2021)
	require.NoError(t, err)

	require.Len(t, summary.Outcomes, 2)
	assert.Equal(t, ingest.OutcomeNotFound, summary.Outcomes[0].Kind)
	assert.Equal(t, ingest.OutcomeDownloaded, summary.Outcomes[1].Kind)
	assert.Equal(t, 1, summary.NewFiles)
	assert.Equal(t, 1, summary.Count(ingest.OutcomeNotFound))
	assert.NotEmpty(t, summary.ManifestLocation)

	y2020 := h.persisted(2020)
	assert.Equal(t, state.StatusNotFound, y2020.LastStatus)
	assert.Nil(t, y2020.LastMetadataUpdate, "a failed fetch must not record the new marker")
	assert.Nil(t, y2020.LastSHA256)
	assert.Empty(t, h.storedFiles(2020))

	entries, err := manifest.Load(context.Background(), h.backend, h.layout.ManifestKey(d.RunTS()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2021, entries[0].Year)
}

func TestRunYear_DuplicateOfLastHash(t *testing.T) {
	h := newHarness(t)
	h.seed(2021, state.Patch{
		LastMetadataUpdate: strPtr("2021-05-01"),
		Status:             state.StatusNew,
		FilePath:           "/old/path.csv",
		SHA256:             utils.SHA256Hex([]byte(csvBody)),
	})
	h.expectMeta(2021, strPtr("2021-06-01"))
	h.expectContent(2021, csvBody)
	d := h.driver(ingest.PolicyLastHash, nil)

	out, err := d.RunYear(context.Background(), 2021)
	require.NoError(t, err)

	assert.Equal(t, ingest.OutcomeDuplicate, out.Kind)
	assert.Equal(t, state.StatusSame, out.Status)
	assert.Empty(t, h.storedFiles(2021))
	assert.Zero(t, d.Manifest().Len())

	ys := h.persisted(2021)
	assert.Equal(t, state.StatusSame, ys.LastStatus)
	assert.Equal(t, "2021-06-01", *ys.LastMetadataUpdate)
	assert.Equal(t, "/old/path.csv", *ys.LastFilePath)
}

func TestRunYear_DuplicateFoundByScan(t *testing.T) {
	h := newHarness(t).withIndex()
	ctx := context.Background()
	existing := h.layout.RawKey(2021, "SRI_Vehiculos_Nuevos_2021__ingest_ts=20240101_000000.csv")
	require.NoError(t, h.backend.Write(ctx, existing, []byte(csvBody), storage.ContentTypeCSV))
	require.NoError(t, h.backend.Write(ctx, h.layout.RawKey(2021, "notes.txt"), []byte("ignored"), "text/plain"))

	h.expectMeta(2021, nil)
	h.expectContent(2021, csvBody)
	d := h.driver(ingest.PolicyAuto, nil)

	out, err := d.RunYear(ctx, 2021)
	require.NoError(t, err)

	assert.Equal(t, ingest.OutcomeDuplicate, out.Kind)
	assert.Equal(t, ingest.ReasonNoSignal, out.Decision.Reason)
	assert.Len(t, h.storedFiles(2021), 2)

	info := h.storedFiles(2021)[0]
	require.Equal(t, existing, info.Key)
	digest, ok, err := h.index.Lookup(ctx, h.backend.Location(info.Key), info.Size, info.ModTime)
	require.NoError(t, err)
	assert.True(t, ok, "scanned digest is remembered")
	assert.Equal(t, utils.SHA256Hex([]byte(csvBody)), digest)
}

func TestRunYear_ScanStoresNewContent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.backend.Write(ctx, h.layout.RawKey(2021, "old__ingest_ts=20240101_000000.csv"), []byte("old content"), storage.ContentTypeCSV))

	h.expectMeta(2021, strPtr("2021-05-01"))
	h.expectContent(2021, csvBody)
	d := h.driver(ingest.PolicyScan, nil)

	out, err := d.RunYear(ctx, 2021)
	require.NoError(t, err)
	assert.Equal(t, ingest.OutcomeDownloaded, out.Kind)
	assert.Len(t, h.storedFiles(2021), 2)
}

func TestRunYear_MetadataUnavailableDownloadsDefensively(t *testing.T) {
	h := newHarness(t)
	h.meta.EXPECT().Fetch(gomock.Any(), 2019).Return(nil, fmt.Errorf("%w: portal down", domain.ErrMetadataUnavailable))
	h.expectContent(2019, csvBody)
	d := h.driver(ingest.PolicyAuto, nil)

	out, err := d.RunYear(context.Background(), 2019)
	require.NoError(t, err)

	assert.Equal(t, ingest.OutcomeDownloaded, out.Kind)
	assert.Equal(t, ingest.ReasonNoSignal, out.Decision.Reason)

	entries := d.Manifest().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "(year=2019)", entries[0].Metadata["metadata_page"])
	assert.Contains(t, entries[0].Metadata["error"], "portal down")

	ys := h.persisted(2019)
	assert.Nil(t, ys.LastMetadataUpdate)
	assert.Equal(t, state.StatusNew, ys.LastStatus)
}

func TestRunYear_MetadataOnly(t *testing.T) {
	h := newHarness(t)
	h.expectMeta(2022, strPtr("2022-03-01"))
	d := h.driver(ingest.PolicyAuto, nil, func(o *ingest.Options) { o.MetadataOnly = true })

	out, err := d.RunYear(context.Background(), 2022)
	require.NoError(t, err)

	assert.Equal(t, ingest.OutcomeMetadataOnly, out.Kind)
	assert.Nil(t, out.Decision)
	assert.Zero(t, d.Manifest().Len())

	ys := h.persisted(2022)
	assert.Equal(t, state.StatusMetadataChecked, ys.LastStatus)
	assert.Equal(t, "2022-03-01", *ys.LastMetadataUpdate)
}

func TestRunYear_ForceDownloadsUnchanged(t *testing.T) {
	h := newHarness(t)
	h.seed(2021, state.Patch{LastMetadataUpdate: strPtr("2021-05-01"), Status: state.StatusNew})
	h.expectMeta(2021, strPtr("2021-05-01"))
	h.expectContent(2021, csvBody)
	d := h.driver(ingest.PolicyLastHash, nil, func(o *ingest.Options) { o.Force = true })

	out, err := d.RunYear(context.Background(), 2021)
	require.NoError(t, err)
	assert.Equal(t, ingest.OutcomeDownloaded, out.Kind)
	assert.Equal(t, ingest.ReasonForced, out.Decision.Reason)
}

func TestRunYear_TransientErrorKeepsPreviousMarker(t *testing.T) {
	h := newHarness(t)
	h.seed(2021, state.Patch{
		LastMetadataUpdate: strPtr("2021-05-01"),
		Status:             state.StatusNew,
		SHA256:             "abc",
	})
	h.expectMeta(2021, strPtr("2021-06-01"))
	h.content.EXPECT().Fetch(gomock.Any(), 2021).Return(nil, errors.New("connection reset"))
	d := h.driver(ingest.PolicyAuto, nil)

	out, err := d.RunYear(context.Background(), 2021)
	require.NoError(t, err)

	assert.Equal(t, ingest.OutcomeFailed, out.Kind)
	assert.Equal(t, state.StatusErrorDownload, out.Status)
	assert.EqualError(t, out.Err, "connection reset")

	ys := h.persisted(2021)
	assert.Equal(t, state.StatusErrorDownload, ys.LastStatus)
	assert.Equal(t, "2021-05-01", *ys.LastMetadataUpdate)
	assert.Equal(t, "abc", *ys.LastSHA256)

	next := ingest.Decide(false, ys.LastMetadataUpdate, strPtr("2021-06-01"))
	assert.True(t, next.Download, "the next run retries the year")
}

func TestRunYear_ArtifactWriteFailure(t *testing.T) {
	h := newHarness(t)
	h.expectMeta(2021, strPtr("2021-05-01"))
	h.expectContent(2021, csvBody)
	d := h.driver(ingest.PolicyLastHash, nil)

	taken := h.layout.RawKey(2021, ingest.ArtifactName("SRI_Vehiculos_Nuevos_2021.csv", d.RunTS()))
	require.NoError(t, h.backend.Write(context.Background(), taken, []byte("other"), storage.ContentTypeCSV))

	out, err := d.RunYear(context.Background(), 2021)
	require.NoError(t, err)

	assert.Equal(t, ingest.OutcomeFailed, out.Kind)
	assert.Equal(t, state.StatusErrorStorage, out.Status)
	assert.ErrorIs(t, out.Err, storage.ErrExists)
	assert.Zero(t, d.Manifest().Len())

	ys := h.persisted(2021)
	assert.Equal(t, state.StatusErrorStorage, ys.LastStatus)
	assert.Nil(t, ys.LastMetadataUpdate)
	assert.Nil(t, ys.LastSHA256)
}

func TestRunYear_CheckedTimestampNeverDecreases(t *testing.T) {
	h := newHarness(t)
	h.meta.EXPECT().Fetch(gomock.Any(), 2021).Return(&domain.Metadata{UpdatedAt: strPtr("2021-05-01")}, nil).Times(3)
	h.expectContent(2021, csvBody)
	d := h.driver(ingest.PolicyAuto, nil)
	ctx := context.Background()

	var previous string
	for i := 0; i < 3; i++ {
		if i == 2 {
			h.clock.t = h.clock.t.Add(-time.Hour)
		}
		_, err := d.RunYear(ctx, 2021)
		require.NoError(t, err)

		ys := h.persisted(2021)
		require.NotNil(t, ys.LastCheckedTS)
		assert.GreaterOrEqual(t, *ys.LastCheckedTS, previous)
		previous = *ys.LastCheckedTS
	}
}

func TestRun_StateSaveFailureAborts(t *testing.T) {
	h := newHarness(t)
	failing := &mocks.MockBackend{}
	failing.On("Write", mock.Anything, "metadata/vehiculos/state.json", mock.Anything, storage.ContentTypeJSON).
		Return(errors.New("bucket unavailable"))
	failing.On("Location", mock.Anything).Return("gs://bucket/metadata/vehiculos/state.json")
	h.store = state.NewStore(state.StoreOptions{Backend: failing, Key: h.layout.StateKey(), Clock: h.clock.Now, Location: h.loc})

	ctrl := gomock.NewController(t)
	tr := mocks.NewMockTrigger(ctrl)

	h.expectMeta(2020, strPtr("2020-12-31"))
	h.expectContent(2020, csvBody)
	d := h.driver(ingest.PolicyLastHash, tr)

	summary, err := d.Run(context.Background(), 2020, 2022)
	require.Error(t, err)
	assert.ErrorIs(t, err, state.ErrSaveFailed)

	require.NotNil(t, summary)
	assert.True(t, summary.Aborted)
	assert.Equal(t, 1, summary.Processed())
	assert.NotEmpty(t, summary.ManifestLocation, "the manifest collected so far is written")
	assert.Nil(t, summary.Trigger)
	failing.AssertExpectations(t)
}

func TestRun_TriggerFailureDoesNotFailRun(t *testing.T) {
	h := newHarness(t)
	ctrl := gomock.NewController(t)
	tr := mocks.NewMockTrigger(ctrl)
	tr.EXPECT().Name().Return("databricks").AnyTimes()
	tr.EXPECT().Fire(gomock.Any()).Return(nil, errors.New("401 unauthorized"))

	h.seed(2021, state.Patch{LastMetadataUpdate: strPtr("2021-05-01")})
	h.expectMeta(2021, strPtr("2021-05-01"))
	d := h.driver(ingest.PolicyAuto, tr)

	summary, err := d.Run(context.Background(), 2021, 2021)
	require.NoError(t, err)

	assert.EqualError(t, summary.TriggerErr, "401 unauthorized")
	assert.Empty(t, summary.ManifestLocation)
	assert.Equal(t, 1, summary.Count(ingest.OutcomeSkipped))
}

func TestRun_FiresTriggerOnce(t *testing.T) {
	h := newHarness(t)
	ctrl := gomock.NewController(t)
	tr := mocks.NewMockTrigger(ctrl)
	tr.EXPECT().Name().Return("databricks").AnyTimes()
	tr.EXPECT().Fire(gomock.Any()).Return(&trigger.Result{RunID: 5, Message: "started"}, nil).Times(1)

	for _, y := range []int{2017, 2018, 2019} {
		h.expectMeta(y, strPtr(fmt.Sprintf("%d-01-01", y)))
		h.expectContent(y, fmt.Sprintf("%s%d\n", csvBody, y))
	}

	var progress bytes.Buffer
	d := h.driver(ingest.PolicyAuto, tr, func(o *ingest.Options) { o.Progress = &progress })

	summary, err := d.Run(context.Background(), 2017, 2019)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.NewFiles)
	assert.Equal(t, int64(5), summary.Trigger.RunID)
	assert.Equal(t, []int{2017, 2018, 2019}, []int{summary.Outcomes[0].Year, summary.Outcomes[1].Year, summary.Outcomes[2].Year})
	assert.NotEmpty(t, progress.String())

	entries, err := manifest.Load(context.Background(), h.backend, h.layout.ManifestKey(d.RunTS()))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 2017, entries[0].Year)
	assert.Equal(t, 2019, entries[2].Year)
}

func TestRun_StepTimeouts(t *testing.T) {
	h := newHarness(t)
	ctrl := gomock.NewController(t)
	tr := mocks.NewMockTrigger(ctrl)
	tr.EXPECT().Name().Return("databricks").AnyTimes()

	// Metadata defaults to twice the download budget so a fallback source fits
	h.seed(2021, state.Patch{LastMetadataUpdate: strPtr("2021-05-01")})
	h.meta.EXPECT().Fetch(gomock.Any(), 2021).DoAndReturn(func(ctx context.Context, year int) (*domain.Metadata, error) {
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.Greater(t, time.Until(deadline), time.Hour)
		return &domain.Metadata{UpdatedAt: strPtr("2021-05-01")}, nil
	})
	tr.EXPECT().Fire(gomock.Any()).DoAndReturn(func(ctx context.Context) (*trigger.Result, error) {
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.Greater(t, time.Until(deadline), 2*time.Hour)
		return &trigger.Result{Message: "started"}, nil
	})

	d := h.driver(ingest.PolicyAuto, tr, func(o *ingest.Options) {
		o.FetchTimeout = time.Hour
		o.TriggerTimeout = 3 * time.Hour
	})

	summary, err := d.Run(context.Background(), 2021, 2021)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Count(ingest.OutcomeSkipped))
}

func TestRun_InvalidRange(t *testing.T) {
	h := newHarness(t)
	d := h.driver(ingest.PolicyAuto, nil)

	_, err := d.Run(context.Background(), 2025, 2020)
	assert.ErrorIs(t, err, ingest.ErrInvalidRange)
}

func TestSelectPolicy(t *testing.T) {
	h := newHarness(t)

	p, err := ingest.SelectPolicy(ingest.PolicyAuto, h.backend, h.layout, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, ingest.PolicyScan, p.Name())

	gcsLike := &mocks.MockBackend{}
	gcsLike.On("Name").Return("gcs")
	p, err = ingest.SelectPolicy("", gcsLike, h.layout, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, ingest.PolicyLastHash, p.Name())

	_, err = ingest.SelectPolicy("bloom", h.backend, h.layout, nil, nil)
	assert.Error(t, err)
}

func TestLastHashPolicy(t *testing.T) {
	p := ingest.LastHashPolicy{}
	ctx := context.Background()

	dup, err := p.IsDuplicate(ctx, 2021, "abc", state.NewYearState())
	require.NoError(t, err)
	assert.False(t, dup)

	ys := state.NewYearState()
	ys.LastSHA256 = strPtr("abc")
	dup, _ = p.IsDuplicate(ctx, 2021, "abc", ys)
	assert.True(t, dup)
	dup, _ = p.IsDuplicate(ctx, 2021, "def", ys)
	assert.False(t, dup)
}

func TestScanPolicy_SkipsUnreadableFiles(t *testing.T) {
	layout := storage.NewLayout("", "vehiculos")
	backend := &mocks.MockBackend{}
	backend.On("List", mock.Anything, layout.YearPrefix(2021)).Return([]storage.ObjectInfo{
		{Key: layout.RawKey(2021, "broken.csv"), Size: 1},
		{Key: layout.RawKey(2021, "good.csv"), Size: 2},
	}, nil)
	backend.On("Location", mock.Anything).Return("loc")
	backend.On("Read", mock.Anything, layout.RawKey(2021, "broken.csv")).Return(nil, errors.New("permission denied"))
	backend.On("Read", mock.Anything, layout.RawKey(2021, "good.csv")).Return([]byte(csvBody), nil)

	p := ingest.NewScanPolicy(backend, layout, nil, nil)
	dup, err := p.IsDuplicate(context.Background(), 2021, utils.SHA256Hex([]byte(csvBody)), state.NewYearState())
	require.NoError(t, err)
	assert.True(t, dup)
}
