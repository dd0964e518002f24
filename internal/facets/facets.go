// Package facets defines the categorical dimensions of the candidate data
// and builds their frequency tables.
package facets

import (
	"strings"

	"github.com/fmuoria/candidate-dashboard/internal/aggregate"
	"github.com/fmuoria/candidate-dashboard/internal/models"
	"github.com/fmuoria/candidate-dashboard/internal/normalize"
)

// Facet names one dimension of categorization
type Facet string

const (
	Location Facet = "location"
	Skill    Facet = "skill"
	Client   Facet = "client"
	Role     Facet = "role"
	Industry Facet = "industry"
	Domain   Facet = "domain"
	ITType   Facet = "it_type"
)

// All lists every facet in display order
var All = []Facet{Location, Skill, Client, Role, Industry, Domain, ITType}

var labels = map[Facet]string{
	Location: "Location",
	Skill:    "Skills",
	Client:   "Client",
	Role:     "Role",
	Industry: "Industry",
	Domain:   "Domain",
	ITType:   "IT/Non-IT",
}

var aliases = map[string]Facet{
	"location":    Location,
	"locations":   Location,
	"city":        Location,
	"skill":       Skill,
	"skills":      Skill,
	"client":      Client,
	"clients":     Client,
	"company":     Client,
	"role":        Role,
	"roles":       Role,
	"designation": Role,
	"industry":    Industry,
	"vertical":    Industry,
	"verticals":   Industry,
	"domain":      Domain,
	"department":  Domain,
	"it_type":     ITType,
	"it":          ITType,
	"it/non-it":   ITType,
	"it/non it":   ITType,
}

// Label returns the human readable name of the facet
func (f Facet) Label() string {
	if l, ok := labels[f]; ok {
		return l
	}
	return string(f)
}

// Multi reports whether a row can carry several values for the facet
func (f Facet) Multi() bool { return f == Skill }

// DropsUnknown reports whether the facet's tables omit the Unknown bucket.
// Only location does; the other facets keep it.
func (f Facet) DropsUnknown() bool { return f == Location }

// Valid reports whether f is one of the known facets
func (f Facet) Valid() bool {
	_, ok := labels[f]
	return ok
}

// ParseFacet resolves a facet from its name or a common alias, ignoring case
func ParseFacet(name string) (Facet, bool) {
	f, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	return f, ok
}

// FieldMap lists, per facet, the spreadsheet columns that may carry it.
// The first column present in a row wins.
type FieldMap map[Facet][]string

// DefaultFieldMap covers both sheet layouts the dashboard is fed with
func DefaultFieldMap() FieldMap {
	return FieldMap{
		Location: {"Location", "candidate_city"},
		Skill:    {"skills", "skill"},
		Client:   {"client", "company_name"},
		Role:     {"roleDesignation", "designation"},
		Industry: {"vertical"},
		Domain:   {"department type", "Domain"},
		ITType:   {"IT/Non IT"},
	}
}

// Schema binds facets to columns and a normalizer
type Schema struct {
	fields FieldMap
	norm   *normalize.Normalizer
}

// NewSchema creates a schema. Nil arguments fall back to the defaults.
func NewSchema(fields FieldMap, norm *normalize.Normalizer) *Schema {
	if fields == nil {
		fields = DefaultFieldMap()
	}
	if norm == nil {
		norm = normalize.New(nil)
	}
	return &Schema{fields: fields, norm: norm}
}

// Column returns the column that carries f in c, or "" when none is present
func (s *Schema) Column(f Facet, c models.Candidate) string {
	for _, col := range s.fields[f] {
		if _, ok := c.Fields[col]; ok {
			return col
		}
	}
	return ""
}

// Raw returns the unnormalized value of f in c
func (s *Schema) Raw(f Facet, c models.Candidate) string {
	if col := s.Column(f, c); col != "" {
		return c.Fields[col]
	}
	return ""
}

// Tokens returns the canonical values c contributes to f
func (s *Schema) Tokens(f Facet, c models.Candidate) []string {
	raw := s.Raw(f, c)
	switch f {
	case Location:
		return []string{s.norm.Location(raw)}
	case Skill:
		return s.norm.Skills(raw)
	default:
		return []string{s.norm.Simple(raw)}
	}
}

// Extractor adapts Tokens to the aggregator
func (s *Schema) Extractor(f Facet) aggregate.Extractor {
	return func(c models.Candidate) []string {
		return s.Tokens(f, c)
	}
}

// Table aggregates one facet over rows, applying its unknown policy
func (s *Schema) Table(f Facet, rows []models.Candidate) models.FrequencyTable {
	table := aggregate.Aggregate(rows, s.Extractor(f))
	if f.DropsUnknown() {
		table = aggregate.Without(table, models.Unknown)
	}
	return table
}

// Tables aggregates every facet over rows
func (s *Schema) Tables(rows []models.Candidate) map[Facet]models.FrequencyTable {
	tables := make(map[Facet]models.FrequencyTable, len(All))
	for _, f := range All {
		tables[f] = s.Table(f, rows)
	}
	return tables
}
