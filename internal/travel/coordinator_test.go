package travel

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailmark/pkg/models"
)

// fakeClient is an in-memory stand-in for the gateway: country and park
// relations live in maps and per-method errors can be injected.
type fakeClient struct {
	mu sync.Mutex

	countries map[string]models.CountryVisit
	parks     map[string]struct{}

	addParkErr    error
	removeParkErr error
	addCountryErr error
	listParksErr  error

	logoutCalls int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		countries: make(map[string]models.CountryVisit),
		parks:     make(map[string]struct{}),
	}
}

func (f *fakeClient) VisitedCountries(ctx context.Context) ([]models.CountryVisit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.CountryVisit, 0, len(f.countries))
	for _, v := range f.countries {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (f *fakeClient) AddCountryVisit(ctx context.Context, code string, meta *models.VisitMeta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addCountryErr != nil {
		return f.addCountryErr
	}
	v := models.CountryVisit{Code: code}
	if meta != nil {
		if meta.VisitDate != nil {
			v.VisitDate = *meta.VisitDate
		}
		if meta.Notes != nil {
			v.Notes = *meta.Notes
		}
	}
	f.countries[code] = v
	return nil
}

func (f *fakeClient) RemoveCountryVisit(ctx context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.countries, code)
	return nil
}

func (f *fakeClient) UpdateCountryVisit(ctx context.Context, code string, meta models.VisitMeta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.countries[code]
	if !ok {
		// Patching an unvisited country creates the relation.
		v = models.CountryVisit{Code: code}
	}
	if meta.VisitDate != nil {
		v.VisitDate = *meta.VisitDate
	}
	if meta.Notes != nil {
		v.Notes = *meta.Notes
	}
	f.countries[code] = v
	return nil
}

func (f *fakeClient) ClearCountryVisits(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countries = make(map[string]models.CountryVisit)
	return nil
}

func (f *fakeClient) VisitedParks(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listParksErr != nil {
		return nil, f.listParksErr
	}
	out := make([]string, 0, len(f.parks))
	for code := range f.parks {
		out = append(out, code)
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeClient) AddParkVisit(ctx context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addParkErr != nil {
		return f.addParkErr
	}
	f.parks[code] = struct{}{}
	return nil
}

func (f *fakeClient) RemoveParkVisit(ctx context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeParkErr != nil {
		return f.removeParkErr
	}
	delete(f.parks, code)
	return nil
}

func (f *fakeClient) ClearParkVisits(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parks = make(map[string]struct{})
	return nil
}

func (f *fakeClient) Logout(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	return nil
}

type fakeNav struct {
	calls int
}

func (n *fakeNav) ToLogin() { n.calls++ }

func newTestCoordinator(t *testing.T) (*Coordinator, *fakeClient, *MemKV, *fakeNav) {
	t.Helper()
	client := newFakeClient()
	kv := NewMemKV()
	nav := &fakeNav{}
	co := NewCoordinator(client, kv, nav)
	co.Load(context.Background())
	require.True(t, co.Loaded())
	return co, client, kv, nav
}

func TestToggleLocalCategory(t *testing.T) {
	ctx := context.Background()
	co, _, kv, _ := newTestCoordinator(t)

	state := Item{ID: "CA"}

	require.NoError(t, co.ToggleVisited(ctx, CategoryUSStates, state, nil))
	assert.True(t, co.IsVisited(CategoryUSStates, state))
	assert.Equal(t, 1, co.VisitedCount(CategoryUSStates))

	// Double toggle returns to the initial state.
	require.NoError(t, co.ToggleVisited(ctx, CategoryUSStates, state, nil))
	assert.False(t, co.IsVisited(CategoryUSStates, state))
	assert.Equal(t, 0, co.VisitedCount(CategoryUSStates))

	// The flip persisted both times.
	data, err := kv.Get(LocalKey)
	require.NoError(t, err)
	ls, err := decodeLocalSets(data)
	require.NoError(t, err)
	assert.Empty(t, ls.States)
}

func TestLocalSetsSurviveReload(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	kv := NewMemKV()

	co := NewCoordinator(client, kv, &fakeNav{})
	co.Load(ctx)
	require.NoError(t, co.ToggleVisited(ctx, CategoryMLBBallparks, Item{ID: "101"}, nil))
	require.NoError(t, co.ToggleVisited(ctx, CategoryNFLStadiums, Item{ID: "201"}, nil))
	require.NoError(t, co.ToggleVisited(ctx, CategoryUSStates, Item{ID: "WY"}, nil))

	// A fresh coordinator over the same store sees the same memberships.
	co2 := NewCoordinator(newFakeClient(), kv, &fakeNav{})
	co2.Load(ctx)
	assert.True(t, co2.IsVisited(CategoryMLBBallparks, Item{ID: "101"}))
	assert.True(t, co2.IsVisited(CategoryNFLStadiums, Item{ID: "201"}))
	assert.True(t, co2.IsVisited(CategoryUSStates, Item{ID: "WY"}))
	assert.Equal(t, []string{"101"}, co2.VisitedKeys(CategoryMLBBallparks))
}

func TestCorruptLocalDataStartsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := NewMemKV()
	require.NoError(t, kv.Set(LocalKey, []byte("{not json")))

	co := NewCoordinator(newFakeClient(), kv, &fakeNav{})
	co.Load(ctx)

	assert.True(t, co.Loaded())
	for _, cat := range Categories() {
		assert.Zero(t, co.VisitedCount(cat), "category %s", cat)
	}
}

func TestCountriesKeyedByCode(t *testing.T) {
	ctx := context.Background()
	co, client, _, _ := newTestCoordinator(t)

	require.NoError(t, co.ToggleVisited(ctx, CategoryCountries, Item{ID: "2", Code: "FR"}, nil))

	// Membership follows the code, whatever synthetic id is attached.
	assert.True(t, co.IsVisited(CategoryCountries, Item{ID: "999", Code: "FR"}))
	assert.False(t, co.IsVisited(CategoryCountries, Item{ID: "2", Code: "US"}))

	_, ok := client.countries["FR"]
	assert.True(t, ok)
}

func TestToggleCountryWithMeta(t *testing.T) {
	ctx := context.Background()
	co, _, _, _ := newTestCoordinator(t)

	date := "2026-08-01"
	notes := "summer trip"
	meta := &models.VisitMeta{VisitDate: &date, Notes: &notes}
	require.NoError(t, co.ToggleVisited(ctx, CategoryCountries, Item{ID: "2", Code: "FR"}, meta))

	gotDate, ok := co.CountryVisitDate("FR")
	require.True(t, ok)
	assert.Equal(t, "2026-08-01", gotDate)

	gotNotes, ok := co.CountryNotes("FR")
	require.True(t, ok)
	assert.Equal(t, "summer trip", gotNotes)

	// Toggling off removes the relation and its metadata.
	require.NoError(t, co.ToggleVisited(ctx, CategoryCountries, Item{Code: "FR"}, nil))
	assert.False(t, co.IsVisited(CategoryCountries, Item{Code: "FR"}))
	_, ok = co.CountryVisitDate("FR")
	assert.False(t, ok)
}

func TestUpdateCountryVisitCreatesWhenMissing(t *testing.T) {
	ctx := context.Background()
	co, _, _, _ := newTestCoordinator(t)

	date := "2025-12-24"
	require.NoError(t, co.UpdateCountryVisit(ctx, "JP", models.VisitMeta{VisitDate: &date}))

	// Setting a date on an unvisited country implicitly marks it visited.
	assert.True(t, co.IsVisited(CategoryCountries, Item{Code: "JP"}))
	gotDate, ok := co.CountryVisitDate("JP")
	require.True(t, ok)
	assert.Equal(t, "2025-12-24", gotDate)
}

func TestUpdateCountryVisitClearsFields(t *testing.T) {
	ctx := context.Background()
	co, _, _, _ := newTestCoordinator(t)

	date := "2025-12-24"
	notes := "holiday"
	require.NoError(t, co.ToggleVisited(ctx, CategoryCountries, Item{Code: "JP"},
		&models.VisitMeta{VisitDate: &date, Notes: &notes}))

	empty := ""
	require.NoError(t, co.UpdateCountryVisit(ctx, "JP", models.VisitMeta{Notes: &empty}))

	// Date survives, notes are gone, membership is untouched.
	assert.True(t, co.IsVisited(CategoryCountries, Item{Code: "JP"}))
	gotDate, ok := co.CountryVisitDate("JP")
	require.True(t, ok)
	assert.Equal(t, "2025-12-24", gotDate)
	_, ok = co.CountryNotes("JP")
	assert.False(t, ok)
}

func TestToggleParkOptimisticSuccess(t *testing.T) {
	ctx := context.Background()
	co, client, _, _ := newTestCoordinator(t)

	require.NoError(t, co.ToggleVisited(ctx, CategoryNationalParks, Item{ID: "yose"}, nil))
	assert.True(t, co.IsVisited(CategoryNationalParks, Item{ID: "yose"}))
	_, ok := client.parks["yose"]
	assert.True(t, ok)

	require.NoError(t, co.ToggleVisited(ctx, CategoryNationalParks, Item{ID: "yose"}, nil))
	assert.False(t, co.IsVisited(CategoryNationalParks, Item{ID: "yose"}))
	assert.Empty(t, client.parks)
}

func TestToggleParkRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	co, client, _, _ := newTestCoordinator(t)

	client.addParkErr = errors.New("connection refused")

	err := co.ToggleVisited(ctx, CategoryNationalParks, Item{ID: "yell"}, nil)
	require.Error(t, err)

	// The optimistic flip was reverted and the server never stored it.
	assert.False(t, co.IsVisited(CategoryNationalParks, Item{ID: "yell"}))
	assert.Empty(t, client.parks)
}

func TestToggleParkReconcilesWithServer(t *testing.T) {
	ctx := context.Background()
	co, client, _, _ := newTestCoordinator(t)

	// Server already knows about a park this coordinator never toggled.
	client.parks["grca"] = struct{}{}

	require.NoError(t, co.ToggleVisited(ctx, CategoryNationalParks, Item{ID: "yose"}, nil))

	// The mandatory re-fetch after a toggle picks up the drift.
	assert.True(t, co.IsVisited(CategoryNationalParks, Item{ID: "grca"}))
	assert.Equal(t, []string{"grca", "yose"}, co.VisitedKeys(CategoryNationalParks))
}

func TestRefreshFailureKeepsPriorState(t *testing.T) {
	ctx := context.Background()
	co, client, _, _ := newTestCoordinator(t)

	require.NoError(t, co.ToggleVisited(ctx, CategoryNationalParks, Item{ID: "yose"}, nil))

	client.listParksErr = errors.New("upstream unreachable")
	err := co.refreshParks(ctx)
	require.Error(t, err)

	// Previously known membership is not cleared by a failed refresh.
	assert.True(t, co.IsVisited(CategoryNationalParks, Item{ID: "yose"}))
}

func TestClearCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("local", func(t *testing.T) {
		co, _, kv, _ := newTestCoordinator(t)
		require.NoError(t, co.ToggleVisited(ctx, CategoryUSStates, Item{ID: "CA"}, nil))
		require.NoError(t, co.ToggleVisited(ctx, CategoryUSStates, Item{ID: "WY"}, nil))

		require.NoError(t, co.ClearCategory(ctx, CategoryUSStates))
		assert.Zero(t, co.VisitedCount(CategoryUSStates))

		data, err := kv.Get(LocalKey)
		require.NoError(t, err)
		ls, err := decodeLocalSets(data)
		require.NoError(t, err)
		assert.Empty(t, ls.States)
	})

	t.Run("server", func(t *testing.T) {
		co, client, _, _ := newTestCoordinator(t)
		require.NoError(t, co.ToggleVisited(ctx, CategoryCountries, Item{Code: "FR"}, nil))
		require.NoError(t, co.ToggleVisited(ctx, CategoryCountries, Item{Code: "JP"}, nil))

		require.NoError(t, co.ClearCategory(ctx, CategoryCountries))
		assert.Zero(t, co.VisitedCount(CategoryCountries))
		assert.Empty(t, client.countries)
	})
}

func TestSessionExpiryRunsOnce(t *testing.T) {
	ctx := context.Background()
	co, client, _, nav := newTestCoordinator(t)

	client.addParkErr = ErrUnauthorized

	err := co.ToggleVisited(ctx, CategoryNationalParks, Item{ID: "yose"}, nil)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, nav.calls)
	assert.Equal(t, 1, client.logoutCalls)

	// A second rejection does not re-run the recovery path.
	err = co.ToggleVisited(ctx, CategoryNationalParks, Item{ID: "yell"}, nil)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, nav.calls)
	assert.Equal(t, 1, client.logoutCalls)
}

func TestExpiredToggleDoesNotMutateServerSet(t *testing.T) {
	ctx := context.Background()
	co, client, _, _ := newTestCoordinator(t)

	client.addParkErr = ErrUnauthorized
	_ = co.ToggleVisited(ctx, CategoryNationalParks, Item{ID: "yose"}, nil)

	assert.Empty(t, client.parks)
}

func TestToggleRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	co, _, _, _ := newTestCoordinator(t)

	assert.Error(t, co.ToggleVisited(ctx, Category("moon-craters"), Item{ID: "x"}, nil))
	assert.Error(t, co.ToggleVisited(ctx, CategoryCountries, Item{ID: "2"}, nil)) // no code
	assert.Error(t, co.ToggleVisited(ctx, CategoryUSStates, Item{}, nil))
	assert.Error(t, co.UpdateCountryVisit(ctx, "", models.VisitMeta{}))
}
