package facets

import (
	"github.com/fmuoria/candidate-dashboard/internal/aggregate"
	"github.com/fmuoria/candidate-dashboard/internal/models"
)

// Catalog holds the frequency tables of the full, unfiltered dataset. It
// feeds the filter pickers and is rebuilt only when a new dataset is loaded.
type Catalog struct {
	tables map[Facet]models.FrequencyTable
	rows   int
}

// BuildCatalog aggregates every facet over the whole dataset
func (s *Schema) BuildCatalog(rows []models.Candidate) *Catalog {
	return &Catalog{
		tables: s.Tables(rows),
		rows:   len(rows),
	}
}

// Table returns a copy of the facet's table
func (c *Catalog) Table(f Facet) models.FrequencyTable {
	if c == nil {
		return models.FrequencyTable{}
	}
	return aggregate.Top(c.tables[f], -1)
}

// Options returns the picker entries of f whose name contains query
func (c *Catalog) Options(f Facet, query string) models.FrequencyTable {
	if c == nil {
		return models.FrequencyTable{}
	}
	return aggregate.Search(c.tables[f], query)
}

// Tables returns a copy of every facet table
func (c *Catalog) Tables() map[Facet]models.FrequencyTable {
	out := make(map[Facet]models.FrequencyTable, len(All))
	for _, f := range All {
		out[f] = c.Table(f)
	}
	return out
}

// Rows is the size of the dataset the catalog was built from
func (c *Catalog) Rows() int {
	if c == nil {
		return 0
	}
	return c.rows
}
