// Package travel holds the data coordinator that merges the two persistence
// tiers — server-backed visited sets (countries, national parks) and the
// local preference store (US states, stadiums) — behind one toggle/query
// interface with optimistic updates and rollback.
package travel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"trailmark/pkg/models"
)

type Coordinator struct {
	client Client
	kv     KV
	nav    Navigator

	mu      sync.Mutex
	sets    map[Category]map[string]struct{}
	dates   map[string]string // country code -> visit date
	notes   map[string]string // country code -> notes
	loaded  bool
	expired bool
}

func NewCoordinator(client Client, kv KV, nav Navigator) *Coordinator {
	sets := make(map[Category]map[string]struct{}, len(Categories()))
	for _, cat := range Categories() {
		sets[cat] = make(map[string]struct{})
	}
	return &Coordinator{
		client: client,
		kv:     kv,
		nav:    nav,
		sets:   sets,
		dates:  make(map[string]string),
		notes:  make(map[string]string),
	}
}

// Load hydrates the coordinator: local preference store first (corrupt or
// missing data is treated as empty), then both remote visited sets. The
// coordinator reports loaded only after both remote fetches have settled,
// success or not.
func (co *Coordinator) Load(ctx context.Context) {
	data, err := co.kv.Get(LocalKey)
	if err != nil {
		log.Printf("[travel] local read failed: %v", err)
	}
	ls, err := decodeLocalSets(data)
	if err != nil {
		log.Printf("[travel] local data corrupt, starting empty: %v", err)
		ls = localSets{}
	}

	co.mu.Lock()
	co.sets[CategoryUSStates] = toSet(ls.States)
	co.sets[CategoryMLBBallparks] = toSet(ls.MLBBallparks)
	co.sets[CategoryNFLStadiums] = toSet(ls.NFLStadiums)
	co.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := co.refreshCountries(ctx); err != nil {
			log.Printf("[travel] load countries: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := co.refreshParks(ctx); err != nil {
			log.Printf("[travel] load parks: %v", err)
		}
	}()
	wg.Wait()

	co.mu.Lock()
	co.loaded = true
	co.mu.Unlock()
}

func (co *Coordinator) Loaded() bool {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.loaded
}

func (co *Coordinator) IsVisited(cat Category, item Item) bool {
	key := cat.Key(item)
	co.mu.Lock()
	defer co.mu.Unlock()
	_, ok := co.sets[cat][key]
	return ok
}

func (co *Coordinator) VisitedCount(cat Category) int {
	co.mu.Lock()
	defer co.mu.Unlock()
	return len(co.sets[cat])
}

// VisitedKeys returns the sorted membership keys for a category.
func (co *Coordinator) VisitedKeys(cat Category) []string {
	co.mu.Lock()
	defer co.mu.Unlock()
	keys := make([]string, 0, len(co.sets[cat]))
	for k := range co.sets[cat] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (co *Coordinator) CountryVisitDate(code string) (string, bool) {
	co.mu.Lock()
	defer co.mu.Unlock()
	d, ok := co.dates[code]
	return d, ok
}

func (co *Coordinator) CountryNotes(code string) (string, bool) {
	co.mu.Lock()
	defer co.mu.Unlock()
	n, ok := co.notes[code]
	return n, ok
}

// ToggleVisited flips membership of item in cat. Locally-backed categories
// flip synchronously and persist. National parks flip optimistically, roll
// back on failure and always reconcile with a re-fetch. Countries are not
// optimistic: the server call completes first, then the authoritative set
// (with dates and notes) is re-fetched. meta only applies when toggling a
// country on.
func (co *Coordinator) ToggleVisited(ctx context.Context, cat Category, item Item, meta *models.VisitMeta) error {
	if !cat.Valid() {
		return fmt.Errorf("unknown category %q", cat)
	}
	key := cat.Key(item)
	if key == "" {
		return fmt.Errorf("item has no key for category %q", cat)
	}

	if cat.Local() {
		co.mu.Lock()
		co.flipLocked(cat, key)
		co.persistLocked()
		co.mu.Unlock()
		return nil
	}

	if cat == CategoryNationalParks {
		return co.togglePark(ctx, key)
	}
	return co.toggleCountry(ctx, key, meta)
}

func (co *Coordinator) togglePark(ctx context.Context, key string) error {
	// Optimistic: flip immediately so the UI responds, revert on failure.
	co.mu.Lock()
	_, was := co.sets[CategoryNationalParks][key]
	co.flipLocked(CategoryNationalParks, key)
	co.mu.Unlock()

	var err error
	if was {
		err = co.client.RemoveParkVisit(ctx, key)
	} else {
		err = co.client.AddParkVisit(ctx, key)
	}

	if errors.Is(err, ErrUnauthorized) {
		co.sessionExpired(ctx)
		return err
	}
	if err != nil {
		co.mu.Lock()
		co.setMembershipLocked(CategoryNationalParks, key, was)
		co.mu.Unlock()
	}

	// Reconcile with the authoritative set regardless of outcome.
	if rErr := co.refreshParks(ctx); rErr != nil {
		log.Printf("[travel] park reconcile: %v", rErr)
	}
	return err
}

func (co *Coordinator) toggleCountry(ctx context.Context, code string, meta *models.VisitMeta) error {
	co.mu.Lock()
	_, was := co.sets[CategoryCountries][code]
	co.mu.Unlock()

	var err error
	if was {
		err = co.client.RemoveCountryVisit(ctx, code)
	} else {
		err = co.client.AddCountryVisit(ctx, code, meta)
	}

	if errors.Is(err, ErrUnauthorized) {
		co.sessionExpired(ctx)
		return err
	}
	if err != nil {
		return err
	}
	return co.refreshCountries(ctx)
}

// UpdateCountryVisit patches date/notes for a country. Patching a country
// that isn't visited yet creates the relation, so the visited set is always
// re-fetched afterwards.
func (co *Coordinator) UpdateCountryVisit(ctx context.Context, code string, meta models.VisitMeta) error {
	if code == "" {
		return errors.New("country code required")
	}

	err := co.client.UpdateCountryVisit(ctx, code, meta)
	if errors.Is(err, ErrUnauthorized) {
		co.sessionExpired(ctx)
		return err
	}
	if err != nil {
		return err
	}
	return co.refreshCountries(ctx)
}

// ClearCategory empties one category: synchronously for locally-backed
// categories, via bulk delete plus re-fetch for server-backed ones.
func (co *Coordinator) ClearCategory(ctx context.Context, cat Category) error {
	if !cat.Valid() {
		return fmt.Errorf("unknown category %q", cat)
	}

	if cat.Local() {
		co.mu.Lock()
		co.sets[cat] = make(map[string]struct{})
		co.persistLocked()
		co.mu.Unlock()
		return nil
	}

	var err error
	switch cat {
	case CategoryNationalParks:
		err = co.client.ClearParkVisits(ctx)
	case CategoryCountries:
		err = co.client.ClearCountryVisits(ctx)
	}

	if errors.Is(err, ErrUnauthorized) {
		co.sessionExpired(ctx)
		return err
	}
	if err != nil {
		return err
	}

	if cat == CategoryNationalParks {
		return co.refreshParks(ctx)
	}
	return co.refreshCountries(ctx)
}

// refreshCountries replaces the country set, dates and notes with the
// server's authoritative view. Failures leave the previously known state
// intact.
func (co *Coordinator) refreshCountries(ctx context.Context) error {
	visits, err := co.client.VisitedCountries(ctx)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			co.sessionExpired(ctx)
		}
		return err
	}

	set := make(map[string]struct{}, len(visits))
	dates := make(map[string]string)
	notes := make(map[string]string)
	for _, v := range visits {
		set[v.Code] = struct{}{}
		if v.VisitDate != "" {
			dates[v.Code] = v.VisitDate
		}
		if v.Notes != "" {
			notes[v.Code] = v.Notes
		}
	}

	co.mu.Lock()
	co.sets[CategoryCountries] = set
	co.dates = dates
	co.notes = notes
	co.mu.Unlock()
	return nil
}

func (co *Coordinator) refreshParks(ctx context.Context) error {
	codes, err := co.client.VisitedParks(ctx)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			co.sessionExpired(ctx)
		}
		return err
	}

	co.mu.Lock()
	co.sets[CategoryNationalParks] = toSet(codes)
	co.mu.Unlock()
	return nil
}

// sessionExpired runs the recovery path once per coordinator: best-effort
// server-side invalidation, then redirect to the login entry point.
func (co *Coordinator) sessionExpired(ctx context.Context) {
	co.mu.Lock()
	if co.expired {
		co.mu.Unlock()
		return
	}
	co.expired = true
	co.mu.Unlock()

	_ = co.client.Logout(ctx)
	co.nav.ToLogin()
}

func (co *Coordinator) flipLocked(cat Category, key string) {
	if _, ok := co.sets[cat][key]; ok {
		delete(co.sets[cat], key)
	} else {
		co.sets[cat][key] = struct{}{}
	}
}

func (co *Coordinator) setMembershipLocked(cat Category, key string, member bool) {
	if member {
		co.sets[cat][key] = struct{}{}
	} else {
		delete(co.sets[cat], key)
	}
}

// persistLocked writes only the locally-backed subset back to the KV store.
// It is a no-op until hydration completes so an empty initial state never
// clobbers stored data. Write failures are logged, never fatal.
func (co *Coordinator) persistLocked() {
	if !co.loaded {
		return
	}

	ls := localSets{
		States:       sortedKeys(co.sets[CategoryUSStates]),
		MLBBallparks: sortedKeys(co.sets[CategoryMLBBallparks]),
		NFLStadiums:  sortedKeys(co.sets[CategoryNFLStadiums]),
	}
	data, err := json.Marshal(ls)
	if err != nil {
		log.Printf("[travel] encode local sets: %v", err)
		return
	}
	if err := co.kv.Set(LocalKey, data); err != nil {
		log.Printf("[travel] local write failed: %v", err)
	}
}

func toSet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k != "" {
			set[k] = struct{}{}
		}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
