package discover

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pravo-monitor/internal/domain/entity"
	"pravo-monitor/internal/observability/logging"
	"pravo-monitor/internal/repository"
	"pravo-monitor/internal/usecase/track"
)

type fakeWalker struct {
	mu       sync.Mutex
	docs     []entity.Document
	err      error
	lastURL  string
	walkCnt  int
	orgParam string
}

func (w *fakeWalker) Walk(_ context.Context, startURL, organization string, _ int) ([]entity.Document, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastURL = startURL
	w.orgParam = organization
	w.walkCnt++
	if w.err != nil {
		return nil, w.err
	}
	return w.docs, nil
}

type fakeResolver struct {
	urls map[string]string
	err  error
}

func (r *fakeResolver) ListingURLs(_ context.Context, _ int, _ []entity.Source) (map[string]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.urls, nil
}

type fakeAnnouncer struct {
	mu      sync.Mutex
	added   []entity.Document
	total   int
	calls   int
	batchID string
	panics  bool
}

func (a *fakeAnnouncer) NotifyNewDocuments(ctx context.Context, added []entity.Document, total int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.panics {
		panic("announcer exploded")
	}
	a.added = added
	a.total = total
	a.calls++
	a.batchID = logging.BatchIDFromContext(ctx)
	return nil
}

// panicWalker simulates a scrape blowing up on pathological markup.
type panicWalker struct{}

func (panicWalker) Walk(_ context.Context, _, _ string, _ int) ([]entity.Document, error) {
	panic("malformed markup")
}

type memDocRepo struct {
	mu     sync.Mutex
	byURL  map[string]entity.Document
	update time.Time
}

func newMemDocRepo() *memDocRepo {
	return &memDocRepo{byURL: make(map[string]entity.Document)}
}

func (r *memDocRepo) List(_ context.Context, org string) ([]entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Document
	for _, d := range r.byURL {
		if org == "" || d.Organization == org {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memDocRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byURL), nil
}

func (r *memDocRepo) Add(_ context.Context, candidates []entity.Document) ([]entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var added []entity.Document
	for _, d := range candidates {
		if _, ok := r.byURL[d.URL]; ok {
			continue
		}
		r.byURL[d.URL] = d
		added = append(added, d)
	}
	return added, nil
}

func (r *memDocRepo) Search(_ context.Context, _ string, _ int) ([]entity.Document, error) {
	return nil, nil
}

func (r *memDocRepo) Latest(_ context.Context, _ string, _ int) ([]entity.Document, error) {
	return nil, nil
}

func (r *memDocRepo) LastUpdate(_ context.Context) (time.Time, error) { return r.update, nil }

func (r *memDocRepo) SetLastUpdate(_ context.Context, t time.Time) error {
	r.update = t
	return nil
}

func (r *memDocRepo) CheckIntegrity(_ context.Context) (repository.IntegrityStats, error) {
	return repository.IntegrityStats{}, nil
}

type memBoundaryRepo struct {
	mu         sync.Mutex
	boundaries map[string]time.Time
}

func newMemBoundaryRepo() *memBoundaryRepo {
	return &memBoundaryRepo{boundaries: make(map[string]time.Time)}
}

func (r *memBoundaryRepo) Get(_ context.Context, source string) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.boundaries[source], nil
}

func (r *memBoundaryRepo) Set(_ context.Context, source string, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.boundaries[source] = t
	return nil
}

type memNotifiedRepo struct {
	mu   sync.Mutex
	urls map[string][]string
}

func newMemNotifiedRepo() *memNotifiedRepo {
	return &memNotifiedRepo{urls: make(map[string][]string)}
}

func (r *memNotifiedRepo) List(_ context.Context, source string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.urls[source]...), nil
}

func (r *memNotifiedRepo) Append(_ context.Context, source string, urls []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls[source] = append(r.urls[source], urls...)
	return nil
}

func doc(org, url, date string) entity.Document {
	return entity.Document{
		Organization: org,
		Title:        "Приказ об организации работы",
		PublishDate:  date,
		URL:          url,
	}
}

type fixture struct {
	svc       *Service
	walkers   map[string]*fakeWalker
	announcer *fakeAnnouncer
	docs      *memDocRepo
	boundary  *memBoundaryRepo
	notified  *memNotifiedRepo
}

func newFixture(resolver ListingResolver) *fixture {
	sources := []entity.Source{
		{Key: "federal", Organization: "Минпросвещения", IndexID: "id-1", ListingURL: "http://static/federal"},
		{Key: "regional", Organization: "Минобрнауки Якутии", IndexID: "id-2", ListingURL: "http://static/regional"},
	}

	walkers := map[string]*fakeWalker{
		"federal":  {},
		"regional": {},
	}
	boundary := newMemBoundaryRepo()
	notified := newMemNotifiedRepo()
	docs := newMemDocRepo()
	announcer := &fakeAnnouncer{}

	svc := &Service{
		Sources: sources,
		Walkers: map[string]Walker{
			"federal":  walkers["federal"],
			"regional": walkers["regional"],
		},
		Index:     resolver,
		Docs:      docs,
		Boundary:  track.NewBoundaryTracker(boundary),
		Notified:  track.NewNotifiedTracker(notified),
		Announcer: announcer,
		Config: Config{
			Interval:      time.Hour,
			ErrorCooldown: time.Minute,
			Limit:         500,
		},
	}
	return &fixture{
		svc:       svc,
		walkers:   walkers,
		announcer: announcer,
		docs:      docs,
		boundary:  boundary,
		notified:  notified,
	}
}

func TestRunCycle_AddsAndAnnouncesNewDocuments(t *testing.T) {
	f := newFixture(&fakeResolver{urls: map[string]string{}})
	f.walkers["federal"].docs = []entity.Document{
		doc("Минпросвещения", "http://x/document/f1", "15.01.2024"),
		doc("Минпросвещения", "http://x/document/f2", "14.01.2024"),
	}
	f.walkers["regional"].docs = []entity.Document{
		doc("Минобрнауки Якутии", "http://x/document/r1", "16.01.2024"),
	}

	stats, err := f.svc.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Scraped)
	assert.Equal(t, 3, stats.Fresh)
	assert.Equal(t, 3, stats.Added)
	assert.Equal(t, 0, stats.Failed)

	assert.Equal(t, 1, f.announcer.calls)
	assert.Len(t, f.announcer.added, 3)
	assert.Equal(t, 3, f.announcer.total)
	assert.ElementsMatch(t, f.announcer.added, stats.Documents,
		"stats must carry the added subset for the manual trigger surface")
	assert.NotEmpty(t, f.announcer.batchID,
		"announcer must see the cycle's batch ID in its context")

	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), f.boundary.boundaries["federal"])
	assert.Equal(t, time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), f.boundary.boundaries["regional"])
	assert.ElementsMatch(t, []string{"http://x/document/f1", "http://x/document/f2"}, f.notified.urls["federal"])
}

func TestRunCycle_SecondCycleIsQuiet(t *testing.T) {
	f := newFixture(&fakeResolver{urls: map[string]string{}})
	f.walkers["federal"].docs = []entity.Document{
		doc("Минпросвещения", "http://x/document/f1", "15.01.2024"),
	}

	_, err := f.svc.RunCycle(context.Background())
	require.NoError(t, err)

	stats, err := f.svc.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Fresh, "boundary must suppress the already-seen batch")
	assert.Equal(t, 0, stats.Added)
	assert.Equal(t, 1, f.announcer.calls, "no second announcement")
}

func TestRunCycle_UsesResolvedListingURLs(t *testing.T) {
	f := newFixture(&fakeResolver{urls: map[string]string{
		"federal": "http://index/federal-current",
	}})

	_, err := f.svc.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "http://index/federal-current", f.walkers["federal"].lastURL)
	assert.Equal(t, "http://static/regional", f.walkers["regional"].lastURL,
		"sources missing from the index keep their static URL")
}

func TestRunCycle_IndexFailureFallsBackToStaticURLs(t *testing.T) {
	f := newFixture(&fakeResolver{err: errors.New("index down")})

	_, err := f.svc.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "http://static/federal", f.walkers["federal"].lastURL)
	assert.Equal(t, "http://static/regional", f.walkers["regional"].lastURL)
}

func TestRunCycle_OneFailingSourceDoesNotStopOthers(t *testing.T) {
	f := newFixture(&fakeResolver{urls: map[string]string{}})
	f.walkers["federal"].err = errors.New("site unreachable")
	f.walkers["regional"].docs = []entity.Document{
		doc("Минобрнауки Якутии", "http://x/document/r1", "16.01.2024"),
	}

	stats, err := f.svc.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Added)
	assert.Empty(t, f.boundary.boundaries["federal"], "failed source keeps its boundary")
}

func TestRunCycle_AllSourcesFailing(t *testing.T) {
	f := newFixture(&fakeResolver{urls: map[string]string{}})
	f.walkers["federal"].err = errors.New("down")
	f.walkers["regional"].err = errors.New("down")

	_, err := f.svc.RunCycle(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, f.announcer.calls)
}

func TestRunCycle_PanickingSourceIsAnOrdinaryFailure(t *testing.T) {
	f := newFixture(&fakeResolver{urls: map[string]string{}})
	f.svc.Walkers["federal"] = panicWalker{}
	f.walkers["regional"].docs = []entity.Document{
		doc("Минобрнауки Якутии", "http://x/document/r1", "16.01.2024"),
	}

	stats, err := f.svc.RunCycle(context.Background())
	require.NoError(t, err, "one panicking source must not fail the cycle")

	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Added)
	assert.Empty(t, f.boundary.boundaries["federal"], "panicked source keeps its boundary")
}

func TestRunCycle_RecoversPanicAfterCollection(t *testing.T) {
	f := newFixture(&fakeResolver{urls: map[string]string{}})
	f.announcer.panics = true
	f.walkers["federal"].docs = []entity.Document{
		doc("Минпросвещения", "http://x/document/f1", "15.01.2024"),
	}

	stats, err := f.svc.RunCycle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
	require.NotNil(t, stats, "caller always gets stats back")
}

func TestBackfill_SeedsWithoutAnnouncingOrAdvancing(t *testing.T) {
	f := newFixture(&fakeResolver{urls: map[string]string{}})
	f.walkers["federal"].docs = []entity.Document{
		doc("Минпросвещения", "http://x/document/f1", "15.01.2024"),
		doc("Минпросвещения", "http://x/document/f2", "14.01.2024"),
	}

	added, err := f.svc.Backfill(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, added)
	assert.Equal(t, 0, f.announcer.calls)
	assert.Empty(t, f.boundary.boundaries)

	count, _ := f.docs.Count(context.Background())
	assert.Equal(t, 2, count)
}
