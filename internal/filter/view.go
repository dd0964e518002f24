package filter

import (
	"github.com/fmuoria/candidate-dashboard/internal/aggregate"
	"github.com/fmuoria/candidate-dashboard/internal/facets"
	"github.com/fmuoria/candidate-dashboard/internal/models"
)

// DefaultTopN is how many entries a chart shows when nothing is selected
const DefaultTopN = 5

// View is the aggregate state of the filtered rows. It is rebuilt from
// scratch whenever the dataset or a committed selection changes.
type View struct {
	Rows       []models.Candidate
	Tables     map[facets.Facet]models.FrequencyTable
	TotalRows  int
	selections map[facets.Facet]Selection
}

// Recompute filters rows with the engine's committed selections and
// aggregates every facet over the survivors
func Recompute(schema *facets.Schema, rows []models.Candidate, e *Engine) *View {
	selections := e.Selections()
	filtered := Apply(schema, rows, selections)
	return &View{
		Rows:       filtered,
		Tables:     schema.Tables(filtered),
		TotalRows:  len(filtered),
		selections: selections,
	}
}

// Table returns the filtered frequency table of f
func (v *View) Table(f facets.Facet) models.FrequencyTable {
	if t, ok := v.Tables[f]; ok {
		return t
	}
	return models.FrequencyTable{}
}

// UniqueCount is the number of distinct values of f among the filtered rows
func (v *View) UniqueCount(f facets.Facet) int {
	return len(v.Tables[f])
}

// Display returns the chart entries of f: the top DefaultTopN values when
// f has no selection, otherwise exactly the selected values in frequency
// order.
func (v *View) Display(f facets.Facet) models.FrequencyTable {
	sel := v.selections[f]
	if len(sel) == 0 {
		return aggregate.Top(v.Table(f), DefaultTopN)
	}
	return aggregate.Only(v.Table(f), sel)
}

// Selected returns the selection of f the view was computed with
func (v *View) Selected(f facets.Facet) Selection {
	return v.selections[f].clone()
}
