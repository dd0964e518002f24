package aggregate

import (
	"sort"
	"strings"

	"github.com/fmuoria/candidate-dashboard/internal/models"
)

// Extractor returns the canonical tokens a candidate contributes to one facet
type Extractor func(models.Candidate) []string

// Aggregate counts the tokens produced by extract over rows. The table is
// sorted by count descending; equal counts keep the order in which their
// token was first seen.
func Aggregate(rows []models.Candidate, extract Extractor) models.FrequencyTable {
	index := make(map[string]int)
	table := models.FrequencyTable{}

	for _, row := range rows {
		for _, token := range extract(row) {
			if i, ok := index[token]; ok {
				table[i].Count++
				continue
			}
			index[token] = len(table)
			table = append(table, models.FrequencyEntry{Name: token, Count: 1})
		}
	}

	sort.SliceStable(table, func(i, j int) bool {
		return table[i].Count > table[j].Count
	})
	return table
}

// Without returns a copy of table with the named entry removed
func Without(table models.FrequencyTable, name string) models.FrequencyTable {
	out := make(models.FrequencyTable, 0, len(table))
	for _, e := range table {
		if e.Name != name {
			out = append(out, e)
		}
	}
	return out
}

// Top returns at most the first n entries
func Top(table models.FrequencyTable, n int) models.FrequencyTable {
	if n < 0 || n >= len(table) {
		return append(models.FrequencyTable{}, table...)
	}
	return append(models.FrequencyTable{}, table[:n]...)
}

// Only keeps the entries whose name is in selected, preserving table order
func Only(table models.FrequencyTable, selected map[string]struct{}) models.FrequencyTable {
	out := models.FrequencyTable{}
	for _, e := range table {
		if _, ok := selected[e.Name]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Search keeps the entries whose name contains query, ignoring case.
// An empty query returns the whole table.
func Search(table models.FrequencyTable, query string) models.FrequencyTable {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return append(models.FrequencyTable{}, table...)
	}
	out := models.FrequencyTable{}
	for _, e := range table {
		if strings.Contains(strings.ToLower(e.Name), query) {
			out = append(out, e)
		}
	}
	return out
}

// Names lists the entry names in table order
func Names(table models.FrequencyTable) []string {
	names := make([]string, len(table))
	for i, e := range table {
		names[i] = e.Name
	}
	return names
}

// Total sums the counts of all entries
func Total(table models.FrequencyTable) int {
	total := 0
	for _, e := range table {
		total += e.Count
	}
	return total
}
