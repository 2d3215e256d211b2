package state

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatlabs/cockpit-container-apps/internal/backend"
)

func sampleData() backend.StoreData {
	return backend.StoreData{
		Store: backend.Store{ID: "marine", Name: "Marine Apps"},
		Packages: []backend.Package{
			{Name: "signalk-server", Summary: "Signal K data server", Installed: true, Categories: []string{"navigation", "data"}},
			{Name: "avnav", Summary: "Chart plotter", Categories: []string{"navigation"}},
			{Name: "grafana", Summary: "Dashboards for boat DATA", Categories: []string{"monitoring"}},
			{Name: "influxdb", Summary: "Time series database", Installed: true, Categories: []string{"monitoring", "data"}},
		},
		Categories: []backend.Category{
			{ID: "navigation", Label: "Navigation", Count: 2, CountAll: 2, CountAvailable: 1, CountInstalled: 1},
			{ID: "monitoring", Label: "Monitoring", Count: 2, CountAll: 2, CountAvailable: 1, CountInstalled: 1},
			{ID: "data", Label: "Data", Count: 2, CountAll: 2, CountAvailable: 0, CountInstalled: 2},
		},
	}
}

func names(pkgs []backend.Package) []string {
	out := make([]string, 0, len(pkgs))
	for _, p := range pkgs {
		out = append(out, p.Name)
	}
	return out
}

func countingLoader(data backend.StoreData, calls *int32) Loader {
	return func(_ context.Context, id string) (backend.StoreData, error) {
		atomic.AddInt32(calls, 1)
		d := data
		d.Store.ID = id
		return d, nil
	}
}

func fetched(t *testing.T, calls *int32) *Store {
	t.Helper()
	var s Store
	_, err := s.Fetch(context.Background(), countingLoader(sampleData(), calls), "marine")
	require.NoError(t, err)
	return &s
}

func TestView_AvailableFilter(t *testing.T) {
	var s Store
	var calls int32
	data := backend.StoreData{Packages: []backend.Package{
		{Name: "a", Installed: false},
		{Name: "b", Installed: true},
	}}
	_, err := s.Fetch(context.Background(), countingLoader(data, &calls), "x")
	require.NoError(t, err)

	view, ok := s.View(Query{Install: FilterAvailable})
	require.True(t, ok, "View after fetch")
	assert.Equal(t, []string{"a"}, names(view.Packages))
}

func TestView_FilterChangesNeverFetch(t *testing.T) {
	var calls int32
	s := fetched(t, &calls)

	queries := []Query{
		{Install: FilterAll},
		{Install: FilterInstalled},
		{Install: FilterAvailable, Category: "navigation"},
		{Search: "chart"},
		{Category: "data", Install: FilterInstalled, Search: "SERIES"},
	}
	for _, q := range queries {
		_, ok := s.View(q)
		assert.True(t, ok, "View(%+v)", q)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestView_Derivation(t *testing.T) {
	var calls int32
	s := fetched(t, &calls)

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"all sorted", Query{}, []string{"avnav", "grafana", "influxdb", "signalk-server"}},
		{"category", Query{Category: "navigation"}, []string{"avnav", "signalk-server"}},
		{"category installed", Query{Category: "navigation", Install: FilterInstalled}, []string{"signalk-server"}},
		{"search summary case-insensitive", Query{Search: "data"}, []string{"grafana", "influxdb", "signalk-server"}},
		{"search whitespace ignored", Query{Search: "   "}, []string{"avnav", "grafana", "influxdb", "signalk-server"}},
		{"all three", Query{Category: "data", Install: FilterInstalled, Search: "influx"}, []string{"influxdb"}},
		{"no match", Query{Search: "zzz"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, _ := s.View(tt.q)
			assert.Equal(t, tt.want, names(view.Packages))
			assert.Equal(t, 4, view.Total)
		})
	}
}

func TestView_CategoryCountsSelectedByFilter(t *testing.T) {
	var calls int32
	s := fetched(t, &calls)

	want := map[InstallFilter][]int{
		FilterAll:       {2, 2, 2},
		FilterAvailable: {1, 1, 0},
		FilterInstalled: {1, 1, 2},
	}
	for f, counts := range want {
		view, _ := s.View(Query{Install: f})
		for i, c := range view.Categories {
			assert.Equal(t, counts[i], c.Count, "filter %s category %s", f, c.ID)
		}
	}

	// The cached categories keep their original counts.
	assert.Equal(t, 2, s.Snapshot().Data.Categories[2].Count)
}

func TestCategoryCount_SingleCountSource(t *testing.T) {
	c := backend.Category{ID: "x", Count: 7}
	assert.Equal(t, 7, CategoryCount(c, FilterAll))
	assert.Zero(t, CategoryCount(c, FilterInstalled))
}

func TestView_ColdCache(t *testing.T) {
	var s Store
	_, ok := s.View(Query{})
	assert.False(t, ok, "View on empty store")
	_, ok = s.Lookup("avnav")
	assert.False(t, ok, "Lookup on empty store")
}

func TestTickets_SupersededResponseDropped(t *testing.T) {
	var s Store

	first := s.Begin("marine")
	second := s.Begin("other")

	assert.False(t, s.Apply(first, sampleData()), "stale apply")
	assert.False(t, s.Fail(first, errors.New("late failure")), "stale failure")
	assert.NoError(t, s.Snapshot().LastError)

	data := sampleData()
	data.Store.ID = "other"
	require.True(t, s.Apply(second, data))
	snap := s.Snapshot()
	assert.Equal(t, "other", snap.ActiveStore)
	assert.True(t, snap.Cached)
	assert.Equal(t, "other", snap.Data.Store.ID)
}

func TestFetch_StaleResultReturnsErrStale(t *testing.T) {
	var s Store
	release := make(chan struct{})
	slow := func(ctx context.Context, id string) (backend.StoreData, error) {
		<-release
		return backend.StoreData{Store: backend.Store{ID: id}}, nil
	}
	done := make(chan error, 1)
	go func() {
		_, err := s.Fetch(context.Background(), slow, "marine")
		done <- err
	}()

	require.Eventually(t, func() bool { return s.Snapshot().Loading }, time.Second, time.Millisecond,
		"first fetch never started")

	var calls int32
	_, err := s.Fetch(context.Background(), countingLoader(sampleData(), &calls), "other")
	require.NoError(t, err)
	close(release)

	assert.ErrorIs(t, <-done, ErrStale)
	assert.Equal(t, "other", s.Snapshot().Data.Store.ID)
}

func TestFetch_ErrorKeepsPreviousData(t *testing.T) {
	var calls int32
	s := fetched(t, &calls)
	before := time.Now()
	origErr := errors.New("boom")
	_, err := s.Fetch(context.Background(), func(context.Context, string) (backend.StoreData, error) {
		return backend.StoreData{}, origErr
	}, "marine")
	assert.ErrorIs(t, err, origErr)

	snap := s.Snapshot()
	assert.True(t, snap.Cached, "cache lost on error")
	assert.Len(t, snap.Data.Packages, 4)
	require.Error(t, snap.LastError)
	assert.Equal(t, "boom", snap.LastError.Error())
	assert.NotSame(t, origErr, snap.LastError, "Snapshot should clone the error")
	assert.False(t, snap.LastUpdated.Before(before), "LastUpdated = %v", snap.LastUpdated)
	assert.Equal(t, 1, snap.ConsecutiveFailures)
}

func TestSwitch_DropsCache(t *testing.T) {
	var calls int32
	s := fetched(t, &calls)

	assert.False(t, s.Switch("marine"), "switch to the active store")
	assert.True(t, s.Cached("marine"), "cache dropped by no-op switch")
	assert.True(t, s.Switch("other"))
	assert.False(t, s.Cached("marine"))
	assert.False(t, s.Cached("other"))
	_, ok := s.View(Query{})
	assert.False(t, ok, "View after switch")
}

func TestInvalidate(t *testing.T) {
	var calls int32
	s := fetched(t, &calls)

	inflight := s.Begin("marine")
	s.Invalidate("marine")
	assert.False(t, s.Cached("marine"), "Invalidate kept data")
	assert.False(t, s.Apply(inflight, sampleData()), "request issued before Invalidate was applied")
}

func TestLookupAndSnapshotClone(t *testing.T) {
	var calls int32
	s := fetched(t, &calls)

	p, ok := s.Lookup("avnav")
	require.True(t, ok)
	assert.Equal(t, "Chart plotter", p.Summary)
	p.Categories[0] = "mutated"

	snap := s.Snapshot()
	snap.Data.Packages[0].Name = "mutated"
	again, _ := s.Lookup("avnav")
	assert.Equal(t, "navigation", again.Categories[0], "Lookup should clone categories")
	assert.Equal(t, "signalk-server", s.Snapshot().Data.Packages[0].Name, "Snapshot should clone packages")
}

func TestInstallFilterParseAndNext(t *testing.T) {
	f, ok := ParseInstallFilter("Installed")
	assert.True(t, ok)
	assert.Equal(t, FilterInstalled, f)

	f, ok = ParseInstallFilter("bogus")
	assert.False(t, ok)
	assert.Equal(t, FilterAll, f)

	assert.Equal(t, FilterAll, FilterAll.Next().Next().Next())
	assert.Equal(t, "all", InstallFilter("").String())
}
