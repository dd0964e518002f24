// Package filter narrows the candidate list by the values selected in each
// facet picker and re-aggregates what survives.
package filter

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/fmuoria/candidate-dashboard/internal/facets"
	"github.com/fmuoria/candidate-dashboard/internal/models"
)

// ErrUnknownFacet is returned for actions naming a facet that does not exist
var ErrUnknownFacet = errors.New("unknown facet")

// ErrUnselectable is returned when toggling a value the facet never offers,
// such as Unknown on a facet whose tables drop it
var ErrUnselectable = errors.New("value cannot be selected")

// Selection is a set of canonical values
type Selection map[string]struct{}

// NewSelection builds a selection from values
func NewSelection(values ...string) Selection {
	s := make(Selection, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Has reports whether v is selected
func (s Selection) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Values returns the selected values sorted alphabetically
func (s Selection) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (s Selection) clone() Selection {
	out := make(Selection, len(s))
	for v := range s {
		out[v] = struct{}{}
	}
	return out
}

// Engine holds the committed selection of every facet plus the drafts of
// the pickers that are currently open. Drafts never affect filtering until
// they are submitted.
type Engine struct {
	selected map[facets.Facet]Selection
	drafts   map[facets.Facet]Selection
}

// NewEngine creates an engine with nothing selected
func NewEngine() *Engine {
	return &Engine{
		selected: make(map[facets.Facet]Selection),
		drafts:   make(map[facets.Facet]Selection),
	}
}

func check(action string, f facets.Facet) error {
	if !f.Valid() {
		log.Printf("filter: %s ignored for unknown facet %q", action, f)
		return ErrUnknownFacet
	}
	return nil
}

// Open starts editing f: the draft becomes a copy of the committed selection
func (e *Engine) Open(f facets.Facet) error {
	if err := check("open", f); err != nil {
		return err
	}
	e.drafts[f] = e.selected[f].clone()
	return nil
}

// IsOpen reports whether f has a pending draft
func (e *Engine) IsOpen(f facets.Facet) bool {
	_, ok := e.drafts[f]
	return ok
}

// Toggle flips value in the draft of f, opening the picker if needed
func (e *Engine) Toggle(f facets.Facet, value string) error {
	if err := check("toggle", f); err != nil {
		return err
	}
	if value == models.Unknown && f.DropsUnknown() {
		return fmt.Errorf("%w: %s has no %q option", ErrUnselectable, f.Label(), value)
	}
	draft, ok := e.drafts[f]
	if !ok {
		draft = e.selected[f].clone()
		e.drafts[f] = draft
	}
	if draft.Has(value) {
		delete(draft, value)
	} else {
		draft[value] = struct{}{}
	}
	return nil
}

// Submit commits the draft of f and closes the picker. Submitting a picker
// that was never opened keeps the committed selection as is.
func (e *Engine) Submit(f facets.Facet) error {
	if err := check("submit", f); err != nil {
		return err
	}
	draft, ok := e.drafts[f]
	if !ok {
		return nil
	}
	delete(e.drafts, f)
	if len(draft) == 0 {
		delete(e.selected, f)
		return nil
	}
	e.selected[f] = draft
	return nil
}

// Cancel discards the draft of f
func (e *Engine) Cancel(f facets.Facet) error {
	if err := check("cancel", f); err != nil {
		return err
	}
	delete(e.drafts, f)
	return nil
}

// Clear empties both the draft and the committed selection of f
func (e *Engine) Clear(f facets.Facet) error {
	if err := check("clear", f); err != nil {
		return err
	}
	delete(e.selected, f)
	if _, ok := e.drafts[f]; ok {
		e.drafts[f] = Selection{}
	}
	return nil
}

// ClearAll clears every facet and closes every picker
func (e *Engine) ClearAll() {
	e.selected = make(map[facets.Facet]Selection)
	e.drafts = make(map[facets.Facet]Selection)
}

// Selected returns a copy of the committed selection of f
func (e *Engine) Selected(f facets.Facet) Selection {
	return e.selected[f].clone()
}

// Draft returns a copy of the draft of f, or nil when the picker is closed
func (e *Engine) Draft(f facets.Facet) Selection {
	draft, ok := e.drafts[f]
	if !ok {
		return nil
	}
	return draft.clone()
}

// Selections returns a copy of every non-empty committed selection
func (e *Engine) Selections() map[facets.Facet]Selection {
	out := make(map[facets.Facet]Selection, len(e.selected))
	for f, s := range e.selected {
		if len(s) > 0 {
			out[f] = s.clone()
		}
	}
	return out
}

// Active reports whether any facet constrains the rows
func (e *Engine) Active() bool {
	for _, s := range e.selected {
		if len(s) > 0 {
			return true
		}
	}
	return false
}

// Apply returns the rows that satisfy the committed selections
func (e *Engine) Apply(schema *facets.Schema, rows []models.Candidate) []models.Candidate {
	return Apply(schema, rows, e.selected)
}

// Apply keeps the rows that match every facet with a non-empty selection.
// A single-valued facet matches when the row's value is selected; skills
// match when any of the row's skills is selected.
func Apply(schema *facets.Schema, rows []models.Candidate, selections map[facets.Facet]Selection) []models.Candidate {
	out := make([]models.Candidate, 0, len(rows))
	for _, row := range rows {
		if Matches(schema, row, selections) {
			out = append(out, row)
		}
	}
	return out
}

// Matches reports whether a single row satisfies selections
func Matches(schema *facets.Schema, row models.Candidate, selections map[facets.Facet]Selection) bool {
	for f, sel := range selections {
		if len(sel) == 0 {
			continue
		}
		if !intersects(schema.Tokens(f, row), sel) {
			return false
		}
	}
	return true
}

func intersects(tokens []string, sel Selection) bool {
	for _, t := range tokens {
		if sel.Has(t) {
			return true
		}
	}
	return false
}
