package dashboard

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sync"
	"testing"

	"github.com/fmuoria/candidate-dashboard/internal/aggregate"
	"github.com/fmuoria/candidate-dashboard/internal/facets"
	"github.com/fmuoria/candidate-dashboard/internal/filter"
	"github.com/fmuoria/candidate-dashboard/internal/models"
)

type fakeSource struct {
	dataset *models.Dataset
	err     error
}

func (f fakeSource) Load(ctx context.Context) (*models.Dataset, error) {
	return f.dataset, f.err
}

func candidate(n int, location, skills, client string) models.Candidate {
	return models.Candidate{
		Row: n,
		Fields: map[string]string{
			"Location": location,
			"skills":   skills,
			"client":   client,
		},
	}
}

func scenario() *models.Dataset {
	return &models.Dataset{
		Headers: []string{"Location", "skills", "client"},
		Candidates: []models.Candidate{
			candidate(1, "Bengaluru", "Java,SQL", "Acme"),
			candidate(2, "Gurugram", "Java", "Acme"),
			candidate(3, "", "SQL", "Beta"),
		},
		Source: "scenario.xlsx",
	}
}

func TestLoad(t *testing.T) {
	d := New(nil, 0)
	if got := d.Status().State; got != StateEmpty {
		t.Errorf("initial state = %s, want %s", got, StateEmpty)
	}

	var stages []string
	d.SetProgressCallback(func(current, total int, message string) {
		stages = append(stages, fmt.Sprintf("%d/%d", current, total))
	})

	if err := d.Load(context.Background(), fakeSource{dataset: scenario()}); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	status := d.Status()
	if status.State != StateReady || status.Rows != 3 || status.Source != "scenario.xlsx" {
		t.Errorf("Status() = %+v", status)
	}
	if !reflect.DeepEqual(stages, []string{"0/3", "1/3", "3/3"}) {
		t.Errorf("progress = %v", stages)
	}
	if got := aggregate.Names(d.Catalog().Table(facets.Location)); !reflect.DeepEqual(got, []string{"Bangalore", "Gurgaon"}) {
		t.Errorf("location catalog = %v", got)
	}
}

func TestLoadFailureKeepsPreviousDataset(t *testing.T) {
	d := New(nil, 0)
	d.Load(context.Background(), fakeSource{dataset: scenario()})

	err := d.Load(context.Background(), fakeSource{err: errors.New("disk gone")})
	if err == nil {
		t.Fatal("Load() should report the failure")
	}

	status := d.Status()
	if status.State != StateError || status.Message != "disk gone" {
		t.Errorf("Status() = %+v", status)
	}
	if d.Dataset().Len() != 3 || d.View().TotalRows != 3 {
		t.Error("previous dataset must survive a failed load")
	}
}

// blockingSource signals when Load starts and returns once released
type blockingSource struct {
	started chan struct{}
	release chan struct{}
	dataset *models.Dataset
	err     error
}

func newBlockingSource(dataset *models.Dataset, err error) blockingSource {
	return blockingSource{
		started: make(chan struct{}),
		release: make(chan struct{}),
		dataset: dataset,
		err:     err,
	}
}

func (b blockingSource) Load(ctx context.Context) (*models.Dataset, error) {
	close(b.started)
	<-b.release
	return b.dataset, b.err
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	older := scenario()
	older.Source = "old.xlsx"
	newer := scenario()
	newer.Candidates = newer.Candidates[:1]
	newer.Source = "new.xlsx"

	tests := []struct {
		name string
		slow blockingSource
	}{
		{name: "Slow success", slow: newBlockingSource(older, nil)},
		{name: "Slow failure", slow: newBlockingSource(nil, errors.New("timeout"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(nil, 0)

			errc := make(chan error, 1)
			go func() { errc <- d.Load(context.Background(), tt.slow) }()
			<-tt.slow.started

			if err := d.Load(context.Background(), fakeSource{dataset: newer}); err != nil {
				t.Fatalf("Load(newer) error: %v", err)
			}
			close(tt.slow.release)

			if err := <-errc; !errors.Is(err, ErrSuperseded) {
				t.Errorf("stale Load() error = %v, want ErrSuperseded", err)
			}
			status := d.Status()
			if status.State != StateReady || status.Source != "new.xlsx" || status.Rows != 1 {
				t.Errorf("Status() = %+v, want the newer dataset", status)
			}
			if d.View().TotalRows != 1 {
				t.Errorf("view rows = %d, want 1", d.View().TotalRows)
			}
		})
	}
}

func TestSetDatasetSupersedesLoad(t *testing.T) {
	d := New(nil, 0)
	slow := newBlockingSource(scenario(), nil)

	errc := make(chan error, 1)
	go func() { errc <- d.Load(context.Background(), slow) }()
	<-slow.started

	d.SetDataset(&models.Dataset{Source: "manual"})
	close(slow.release)

	if err := <-errc; !errors.Is(err, ErrSuperseded) {
		t.Errorf("Load() error = %v, want ErrSuperseded", err)
	}
	if got := d.Status().Source; got != "manual" {
		t.Errorf("Source = %q, want manual", got)
	}
}

func TestLoadResetsSelections(t *testing.T) {
	d := New(nil, 0)
	d.SetDataset(scenario())
	d.Toggle(facets.Client, "Acme")
	d.Submit(facets.Client)

	d.SetDataset(scenario())
	if d.View().TotalRows != 3 {
		t.Error("a new dataset should start unfiltered")
	}
}

func TestFilterScenario(t *testing.T) {
	d := New(nil, 0)
	d.SetDataset(scenario())

	view, err := d.Toggle(facets.Client, "Acme")
	if err != nil {
		t.Fatalf("Toggle() error: %v", err)
	}
	if view.TotalRows != 3 {
		t.Error("toggling must not filter before submit")
	}

	picker, _ := d.Picker(facets.Client)
	if !picker.Open || !reflect.DeepEqual(picker.Draft, []string{"Acme"}) || len(picker.Selected) != 0 {
		t.Errorf("Picker() = %+v", picker)
	}

	view, _ = d.Submit(facets.Client)
	if view.TotalRows != 2 {
		t.Errorf("TotalRows = %d, want 2", view.TotalRows)
	}
	want := models.FrequencyTable{{Name: "Java", Count: 2}, {Name: "SQL", Count: 1}}
	if got := view.Table(facets.Skill); !reflect.DeepEqual(got, want) {
		t.Errorf("skills = %v, want %v", got, want)
	}

	snap := d.Snapshot()
	if !snap.Active || snap.TotalRows != 2 || len(snap.Facets) != len(facets.All) {
		t.Errorf("Snapshot() = %+v", snap)
	}

	view = d.ClearAll()
	if view.TotalRows != 3 {
		t.Errorf("after ClearAll TotalRows = %d", view.TotalRows)
	}
}

func TestUnknownFacet(t *testing.T) {
	d := New(nil, 0)
	d.SetDataset(scenario())
	bogus := facets.Facet("salary")

	if _, err := d.Toggle(bogus, "x"); !errors.Is(err, filter.ErrUnknownFacet) {
		t.Errorf("Toggle() error = %v", err)
	}
	if _, err := d.Options(bogus, ""); !errors.Is(err, filter.ErrUnknownFacet) {
		t.Errorf("Options() error = %v", err)
	}
	if _, err := d.CandidatesFor(bogus, "x"); !errors.Is(err, filter.ErrUnknownFacet) {
		t.Errorf("CandidatesFor() error = %v", err)
	}
	if _, err := d.Picker(bogus); !errors.Is(err, filter.ErrUnknownFacet) {
		t.Errorf("Picker() error = %v", err)
	}
}

func TestPage(t *testing.T) {
	d := New(nil, 10)
	dataset := &models.Dataset{}
	for i := 1; i <= 23; i++ {
		dataset.Candidates = append(dataset.Candidates, candidate(i, "Pune", "Go", "Acme"))
	}
	d.SetDataset(dataset)

	tests := []struct {
		name      string
		page      int
		size      int
		wantRows  []int
		wantPages int
	}{
		{name: "First page", page: 1, size: 0, wantRows: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, wantPages: 3},
		{name: "Last partial page", page: 3, size: 0, wantRows: []int{21, 22, 23}, wantPages: 3},
		{name: "Past the end", page: 4, size: 0, wantRows: []int{}, wantPages: 3},
		{name: "Page zero clamps to one", page: 0, size: 5, wantRows: []int{1, 2, 3, 4, 5}, wantPages: 5},
		{name: "Huge page number", page: 1 << 62, size: 4, wantRows: []int{}, wantPages: 6},
		{name: "Max page number", page: math.MaxInt, size: math.MaxInt, wantRows: []int{}, wantPages: 1},
		{name: "Huge page size", page: 1, size: math.MaxInt, wantRows: rowNumbers(23), wantPages: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := d.Page(tt.page, tt.size)
			rows := []int{}
			for _, c := range p.Candidates {
				rows = append(rows, c.Row)
			}
			if !reflect.DeepEqual(rows, tt.wantRows) {
				t.Errorf("rows = %v, want %v", rows, tt.wantRows)
			}
			if p.TotalPages != tt.wantPages || p.TotalRows != 23 {
				t.Errorf("totals = %d pages, %d rows", p.TotalPages, p.TotalRows)
			}
		})
	}
}

func rowNumbers(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestPageEmpty(t *testing.T) {
	p := New(nil, 0).Page(1, 0)
	if p.TotalPages != 0 || len(p.Candidates) != 0 || p.PageSize != DefaultPageSize {
		t.Errorf("Page() on empty dashboard = %+v", p)
	}
}

func TestCandidatesFor(t *testing.T) {
	d := New(nil, 0)
	d.SetDataset(scenario())

	got, err := d.CandidatesFor(facets.Skill, "SQL")
	if err != nil {
		t.Fatalf("CandidatesFor() error: %v", err)
	}
	if len(got) != 2 || got[0].Row != 1 || got[1].Row != 3 {
		t.Errorf("CandidatesFor(skill, SQL) = %v", got)
	}

	// drill-down respects the active filter
	d.Toggle(facets.Client, "Beta")
	d.Submit(facets.Client)
	got, _ = d.CandidatesFor(facets.Skill, "SQL")
	if len(got) != 1 || got[0].Row != 3 {
		t.Errorf("filtered CandidatesFor() = %v", got)
	}
}

func TestExportData(t *testing.T) {
	d := New(nil, 0)
	if _, _, err := d.ExportData(); !errors.Is(err, ErrNoData) {
		t.Errorf("ExportData() on empty dashboard error = %v", err)
	}

	d.SetDataset(scenario())
	headers, view, err := d.ExportData()
	if err != nil {
		t.Fatalf("ExportData() error: %v", err)
	}
	if len(headers) != 3 || view.TotalRows != 3 {
		t.Errorf("ExportData() = %v, %d rows", headers, view.TotalRows)
	}
}

func TestConcurrentAccess(t *testing.T) {
	d := New(nil, 0)
	d.SetDataset(scenario())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				d.Toggle(facets.Client, "Acme")
				d.Submit(facets.Client)
			} else {
				d.Snapshot()
				d.Page(1, 0)
			}
		}(i)
	}
	wg.Wait()
}
