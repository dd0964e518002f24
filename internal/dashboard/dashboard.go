package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/fmuoria/candidate-dashboard/internal/facets"
	"github.com/fmuoria/candidate-dashboard/internal/filter"
	"github.com/fmuoria/candidate-dashboard/internal/ingestion"
	"github.com/fmuoria/candidate-dashboard/internal/models"
)

// DefaultPageSize is the number of table rows per page
const DefaultPageSize = 10

// ErrNoData is returned by operations that need a loaded dataset
var ErrNoData = errors.New("no dataset loaded")

// ErrSuperseded is returned by a Load whose result was discarded because a
// newer load or SetDataset started after it
var ErrSuperseded = errors.New("dataset load superseded by a newer one")

// ProgressCallback is called to report progress during loading
type ProgressCallback func(current, total int, message string)

// State is the lifecycle state of the dashboard data
type State string

const (
	StateEmpty   State = "empty"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Status describes the loaded dataset and the last load attempt
type Status struct {
	State    State     `json:"state"`
	Message  string    `json:"message,omitempty"`
	Rows     int       `json:"rows"`
	Source   string    `json:"source,omitempty"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
}

// Dashboard owns the dataset, its catalog, the filter engine and the
// current filtered view. Every method is safe for concurrent use.
type Dashboard struct {
	schema   *facets.Schema
	pageSize int

	mu         sync.RWMutex
	dataset    *models.Dataset
	catalog    *facets.Catalog
	engine     *filter.Engine
	view       *filter.View
	status     Status
	progressCb ProgressCallback
	generation uint64 // bumped by every Load and SetDataset
}

// New creates an empty dashboard. A nil schema uses the default columns.
func New(schema *facets.Schema, pageSize int) *Dashboard {
	if schema == nil {
		schema = facets.NewSchema(nil, nil)
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	d := &Dashboard{
		schema:   schema,
		pageSize: pageSize,
		dataset:  &models.Dataset{Candidates: []models.Candidate{}},
		engine:   filter.NewEngine(),
		status:   Status{State: StateEmpty, Message: "No dataset loaded"},
	}
	d.catalog = schema.BuildCatalog(nil)
	d.view = filter.Recompute(schema, nil, d.engine)
	return d
}

// SetProgressCallback sets the progress callback function
func (d *Dashboard) SetProgressCallback(cb ProgressCallback) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.progressCb = cb
}

// reportProgress calls the progress callback if set
func (d *Dashboard) reportProgress(current, total int, message string) {
	d.mu.RLock()
	cb := d.progressCb
	d.mu.RUnlock()

	if cb != nil {
		cb(current, total, message)
	}
}

// Load reads a dataset from src and makes it current. On failure the
// previous dataset stays in place and the error is recorded in Status.
// Only the most recently started load may change the dataset or Status;
// an older one that finishes later returns ErrSuperseded.
func (d *Dashboard) Load(ctx context.Context, src ingestion.Source) error {
	d.mu.Lock()
	d.generation++
	gen := d.generation
	d.status.State = StateLoading
	d.status.Message = "Loading dataset..."
	d.mu.Unlock()

	d.reportProgress(0, 3, "Loading dataset...")

	dataset, err := src.Load(ctx)
	if err != nil {
		log.Printf("dashboard: load failed: %v", err)
		d.mu.Lock()
		current := gen == d.generation
		if current {
			d.status.State = StateError
			d.status.Message = err.Error()
		}
		d.mu.Unlock()
		if !current {
			return fmt.Errorf("%w: %v", ErrSuperseded, err)
		}
		d.reportProgress(3, 3, "Load failed")
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	d.reportProgress(1, 3, fmt.Sprintf("Building catalog for %d candidates...", dataset.Len()))
	if !d.commit(dataset, gen) {
		log.Printf("dashboard: discarded stale load from %s", dataset.Source)
		return ErrSuperseded
	}
	d.reportProgress(3, 3, "Dataset ready")

	return nil
}

// SetDataset replaces the dataset, rebuilds the catalog and resets every
// selection. Loads still in flight are superseded.
func (d *Dashboard) SetDataset(dataset *models.Dataset) {
	d.mu.Lock()
	d.generation++
	gen := d.generation
	d.mu.Unlock()

	d.commit(dataset, gen)
}

// commit installs dataset unless a newer generation has started since gen
func (d *Dashboard) commit(dataset *models.Dataset, gen uint64) bool {
	if dataset == nil {
		dataset = &models.Dataset{}
	}
	if dataset.Candidates == nil {
		dataset.Candidates = []models.Candidate{}
	}

	catalog := d.schema.BuildCatalog(dataset.Candidates)
	engine := filter.NewEngine()
	view := filter.Recompute(d.schema, dataset.Candidates, engine)

	d.mu.Lock()
	defer d.mu.Unlock()

	if gen != d.generation {
		return false
	}

	d.dataset = dataset
	d.catalog = catalog
	d.engine = engine
	d.view = view
	d.status = Status{
		State:    StateReady,
		Message:  fmt.Sprintf("Loaded %d candidates", dataset.Len()),
		Rows:     dataset.Len(),
		Source:   dataset.Source,
		LoadedAt: dataset.LoadedAt,
	}
	log.Printf("dashboard: loaded %d candidates from %s", dataset.Len(), dataset.Source)
	return true
}

// Status returns the current load status
func (d *Dashboard) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status
}

// Dataset returns the unfiltered dataset
func (d *Dashboard) Dataset() *models.Dataset {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.dataset
}

// HasData reports whether at least one candidate is loaded
func (d *Dashboard) HasData() bool {
	return d.Dataset().Len() > 0
}

// Schema returns the facet schema
func (d *Dashboard) Schema() *facets.Schema {
	return d.schema
}

// Catalog returns the catalog of the unfiltered dataset
func (d *Dashboard) Catalog() *facets.Catalog {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.catalog
}

// Options lists the picker options of f matching query
func (d *Dashboard) Options(f facets.Facet, query string) (models.FrequencyTable, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %q", filter.ErrUnknownFacet, f)
	}
	return d.Catalog().Options(f, query), nil
}

// View returns the current filtered view
func (d *Dashboard) View() *filter.View {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.view
}

// apply runs a filter action and recomputes the view when committed
// selections may have changed
func (d *Dashboard) apply(action func(e *filter.Engine) error, recompute bool) (*filter.View, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := action(d.engine); err != nil {
		return d.view, err
	}
	if recompute {
		d.view = filter.Recompute(d.schema, d.dataset.Candidates, d.engine)
	}
	return d.view, nil
}

// Open opens the picker of f with a draft of its committed selection
func (d *Dashboard) Open(f facets.Facet) (*filter.View, error) {
	return d.apply(func(e *filter.Engine) error { return e.Open(f) }, false)
}

// Toggle flips value in the draft of f
func (d *Dashboard) Toggle(f facets.Facet, value string) (*filter.View, error) {
	return d.apply(func(e *filter.Engine) error { return e.Toggle(f, value) }, false)
}

// Submit commits the draft of f
func (d *Dashboard) Submit(f facets.Facet) (*filter.View, error) {
	return d.apply(func(e *filter.Engine) error { return e.Submit(f) }, true)
}

// Cancel discards the draft of f
func (d *Dashboard) Cancel(f facets.Facet) (*filter.View, error) {
	return d.apply(func(e *filter.Engine) error { return e.Cancel(f) }, false)
}

// Clear removes the committed selection of f
func (d *Dashboard) Clear(f facets.Facet) (*filter.View, error) {
	return d.apply(func(e *filter.Engine) error { return e.Clear(f) }, true)
}

// ClearAll removes every selection and closes every picker
func (d *Dashboard) ClearAll() *filter.View {
	view, _ := d.apply(func(e *filter.Engine) error {
		e.ClearAll()
		return nil
	}, true)
	return view
}

// Picker is the state of one facet picker
type Picker struct {
	Facet    facets.Facet `json:"facet"`
	Label    string       `json:"label"`
	Open     bool         `json:"open"`
	Draft    []string     `json:"draft"`
	Selected []string     `json:"selected"`
}

// Picker returns the picker state of f
func (d *Dashboard) Picker(f facets.Facet) (Picker, error) {
	if !f.Valid() {
		return Picker{}, fmt.Errorf("%w: %q", filter.ErrUnknownFacet, f)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	p := Picker{
		Facet:    f,
		Label:    f.Label(),
		Open:     d.engine.IsOpen(f),
		Selected: d.engine.Selected(f).Values(),
		Draft:    []string{},
	}
	if p.Open {
		p.Draft = d.engine.Draft(f).Values()
	}
	return p, nil
}

// Page returns page n (1-based) of the filtered rows. A size of zero or
// less uses the configured page size. Pages past the end are empty.
func (d *Dashboard) Page(n, size int) models.Page {
	if size <= 0 {
		size = d.pageSize
	}
	if n < 1 {
		n = 1
	}

	rows := d.View().Rows
	page := models.Page{
		Page:       n,
		PageSize:   size,
		TotalRows:  len(rows),
		Candidates: []models.Candidate{},
	}
	if len(rows) == 0 {
		return page
	}

	// bound size so that index arithmetic below cannot overflow
	span := min(size, len(rows))
	page.TotalPages = len(rows) / span
	if len(rows)%span != 0 {
		page.TotalPages++
	}
	if n > page.TotalPages {
		return page
	}

	start := (n - 1) * span
	end := min(start+span, len(rows))
	page.Candidates = rows[start:end]
	return page
}

// CandidatesFor returns the filtered rows whose value of f is value
func (d *Dashboard) CandidatesFor(f facets.Facet, value string) ([]models.Candidate, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %q", filter.ErrUnknownFacet, f)
	}

	out := []models.Candidate{}
	for _, row := range d.View().Rows {
		if slices.Contains(d.schema.Tokens(f, row), value) {
			out = append(out, row)
		}
	}
	return out, nil
}

// FacetSummary is the chart and metric data of one facet
type FacetSummary struct {
	Facet    facets.Facet          `json:"facet"`
	Label    string                `json:"label"`
	Unique   int                   `json:"unique"`
	Display  models.FrequencyTable `json:"display"`
	Selected []string              `json:"selected"`
}

// Snapshot is everything the dashboard screen shows at once
type Snapshot struct {
	Status    Status         `json:"status"`
	TotalRows int            `json:"total_rows"`
	Active    bool           `json:"active"`
	Facets    []FacetSummary `json:"facets"`
}

// Snapshot summarises the current view
func (d *Dashboard) Snapshot() Snapshot {
	d.mu.RLock()
	view := d.view
	status := d.status
	d.mu.RUnlock()

	snap := Snapshot{
		Status:    status,
		TotalRows: view.TotalRows,
		Facets:    make([]FacetSummary, 0, len(facets.All)),
	}
	for _, f := range facets.All {
		selected := view.Selected(f).Values()
		if len(selected) > 0 {
			snap.Active = true
		}
		snap.Facets = append(snap.Facets, FacetSummary{
			Facet:    f,
			Label:    f.Label(),
			Unique:   view.UniqueCount(f),
			Display:  view.Display(f),
			Selected: selected,
		})
	}
	return snap
}

// ExportData returns the dataset headers and the current view for a
// spreadsheet export
func (d *Dashboard) ExportData() ([]string, *filter.View, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.dataset.Len() == 0 {
		return nil, nil, ErrNoData
	}
	return d.dataset.Headers, d.view, nil
}
