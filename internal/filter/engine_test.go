package filter

import (
	"errors"
	"reflect"
	"testing"

	"github.com/fmuoria/candidate-dashboard/internal/aggregate"
	"github.com/fmuoria/candidate-dashboard/internal/facets"
	"github.com/fmuoria/candidate-dashboard/internal/models"
)

func row(n int, location, skills, client string) models.Candidate {
	return models.Candidate{
		Row: n,
		Fields: map[string]string{
			"Location": location,
			"skills":   skills,
			"client":   client,
		},
	}
}

func rowNumbers(rows []models.Candidate) []int {
	out := []int{}
	for _, r := range rows {
		out = append(out, r.Row)
	}
	return out
}

func TestApplyAndAcrossFacetsOrWithinSkills(t *testing.T) {
	schema := facets.NewSchema(nil, nil)
	rows := []models.Candidate{
		row(1, "Mumbai", "Python, Go", "Acme"),
		row(2, "Bangalore", "Python", "Acme"),
		row(3, "Bengaluru", "Java, Go", "Beta"),
		row(4, "Bangalore", "SQL", "Beta"),
	}

	tests := []struct {
		name       string
		selections map[facets.Facet]Selection
		want       []int
	}{
		{
			name:       "No selection keeps everything",
			selections: nil,
			want:       []int{1, 2, 3, 4},
		},
		{
			name: "Skill and location must both match",
			selections: map[facets.Facet]Selection{
				facets.Skill:    NewSelection("Python"),
				facets.Location: NewSelection("Bangalore"),
			},
			want: []int{2},
		},
		{
			name: "Any selected skill matches",
			selections: map[facets.Facet]Selection{
				facets.Skill: NewSelection("Go", "SQL"),
			},
			want: []int{1, 3, 4},
		},
		{
			name: "Location synonyms match the canonical value",
			selections: map[facets.Facet]Selection{
				facets.Location: NewSelection("Bangalore"),
			},
			want: []int{2, 3, 4},
		},
		{
			name: "Empty selection imposes nothing",
			selections: map[facets.Facet]Selection{
				facets.Client: {},
				facets.Skill:  NewSelection("Java"),
			},
			want: []int{3},
		},
		{
			name: "Selecting Unknown constrains to the Unknown bucket",
			selections: map[facets.Facet]Selection{
				facets.Role: NewSelection("Unknown"),
			},
			want: []int{1, 2, 3, 4},
		},
		{
			name: "No row matches",
			selections: map[facets.Facet]Selection{
				facets.Client: NewSelection("Initech"),
			},
			want: []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rowNumbers(Apply(schema, rows, tt.selections))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Apply() rows = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStagedSelection(t *testing.T) {
	e := NewEngine()

	if err := e.Open(facets.Client); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	e.Toggle(facets.Client, "Acme")
	e.Toggle(facets.Client, "Beta")
	e.Toggle(facets.Client, "Beta")

	if len(e.Selected(facets.Client)) != 0 {
		t.Error("draft must not be live before submit")
	}
	if got := e.Draft(facets.Client).Values(); !reflect.DeepEqual(got, []string{"Acme"}) {
		t.Errorf("Draft() = %v, want [Acme]", got)
	}

	e.Submit(facets.Client)
	if got := e.Selected(facets.Client).Values(); !reflect.DeepEqual(got, []string{"Acme"}) {
		t.Errorf("Selected() after submit = %v, want [Acme]", got)
	}
	if e.IsOpen(facets.Client) {
		t.Error("picker should be closed after submit")
	}

	// reopening starts from the committed set; cancel throws edits away
	e.Open(facets.Client)
	if !e.Draft(facets.Client).Has("Acme") {
		t.Error("reopened draft should contain the committed value")
	}
	e.Toggle(facets.Client, "Beta")
	e.Cancel(facets.Client)
	if got := e.Selected(facets.Client).Values(); !reflect.DeepEqual(got, []string{"Acme"}) {
		t.Errorf("Selected() after cancel = %v, want [Acme]", got)
	}
	if e.Draft(facets.Client) != nil {
		t.Error("Draft() should be nil after cancel")
	}
}

func TestToggleUnknownOnDroppingFacet(t *testing.T) {
	e := NewEngine()

	if err := e.Toggle(facets.Location, models.Unknown); !errors.Is(err, ErrUnselectable) {
		t.Errorf("Toggle(location, Unknown) error = %v, want ErrUnselectable", err)
	}
	if e.IsOpen(facets.Location) {
		t.Error("a rejected toggle should not open the picker")
	}

	// facets that keep the Unknown bucket can filter on it
	if err := e.Toggle(facets.Client, models.Unknown); err != nil {
		t.Errorf("Toggle(client, Unknown) error: %v", err)
	}
}

func TestSubmitEmptyDraftClearsSelection(t *testing.T) {
	e := NewEngine()
	e.Toggle(facets.Role, "Engineer")
	e.Submit(facets.Role)

	e.Open(facets.Role)
	e.Toggle(facets.Role, "Engineer")
	e.Submit(facets.Role)

	if e.Active() {
		t.Error("deselecting every value should leave no active filter")
	}
}

func TestClear(t *testing.T) {
	e := NewEngine()
	e.Toggle(facets.Skill, "Go")
	e.Submit(facets.Skill)
	e.Toggle(facets.Location, "Pune")
	e.Submit(facets.Location)

	e.Open(facets.Skill)
	e.Toggle(facets.Skill, "Rust")
	e.Clear(facets.Skill)

	if len(e.Selected(facets.Skill)) != 0 {
		t.Error("Clear() should empty the committed selection")
	}
	if d := e.Draft(facets.Skill); d == nil || len(d) != 0 {
		t.Errorf("Clear() should empty the open draft, got %v", d)
	}
	if !e.Selected(facets.Location).Has("Pune") {
		t.Error("Clear() must not touch other facets")
	}

	e.ClearAll()
	if e.Active() || e.IsOpen(facets.Skill) {
		t.Error("ClearAll() should reset every facet")
	}
}

func TestUnknownFacetIsNoop(t *testing.T) {
	e := NewEngine()
	bogus := facets.Facet("salary")

	actions := map[string]func() error{
		"open":   func() error { return e.Open(bogus) },
		"toggle": func() error { return e.Toggle(bogus, "x") },
		"submit": func() error { return e.Submit(bogus) },
		"cancel": func() error { return e.Cancel(bogus) },
		"clear":  func() error { return e.Clear(bogus) },
	}
	for name, action := range actions {
		if err := action(); !errors.Is(err, ErrUnknownFacet) {
			t.Errorf("%s: error = %v, want ErrUnknownFacet", name, err)
		}
	}
	if e.Active() || e.IsOpen(bogus) {
		t.Error("unknown facet actions must not change state")
	}
}

func TestSelectionsAreCopies(t *testing.T) {
	e := NewEngine()
	e.Toggle(facets.Client, "Acme")
	e.Submit(facets.Client)

	e.Selected(facets.Client)["Beta"] = struct{}{}
	e.Selections()[facets.Client]["Gamma"] = struct{}{}

	if got := e.Selected(facets.Client).Values(); !reflect.DeepEqual(got, []string{"Acme"}) {
		t.Errorf("engine state leaked: %v", got)
	}
}

func TestApplyIsPure(t *testing.T) {
	schema := facets.NewSchema(nil, nil)
	rows := []models.Candidate{row(1, "Pune", "Go", "Acme"), row(2, "Delhi", "Java", "Beta")}
	sel := map[facets.Facet]Selection{facets.Client: NewSelection("Acme")}

	first := Apply(schema, rows, sel)
	second := Apply(schema, rows, sel)
	if !reflect.DeepEqual(first, second) {
		t.Error("Apply() is not deterministic")
	}
	if len(rows) != 2 {
		t.Error("Apply() modified its input")
	}
	if got := aggregate.Names(schema.Table(facets.Client, first)); !reflect.DeepEqual(got, []string{"Acme"}) {
		t.Errorf("filtered clients = %v", got)
	}
}
