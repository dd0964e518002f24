package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fmuoria/candidate-dashboard/internal/facets"
	"github.com/fmuoria/candidate-dashboard/internal/normalize"
)

// LoadSynonyms returns the default synonym tables extended with the YAML
// file at path. An empty path yields the defaults.
//
//	locations:
//	  trivandrum: thiruvananthapuram
//	skills:
//	  spring boot: Spring Boot
func LoadSynonyms(path string) (*normalize.Synonyms, error) {
	synonyms := normalize.DefaultSynonyms()
	if path == "" {
		return synonyms, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read synonyms file: %w", err)
	}

	var extra normalize.Synonyms
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("failed to parse synonyms file: %w", err)
	}

	synonyms.Merge(&extra)
	return synonyms, nil
}

// LoadFieldMap returns the default column mapping with the facets named in
// the YAML file at path replaced. An empty path yields the defaults.
//
//	location: [City, Location]
//	client: [Account]
func LoadFieldMap(path string) (facets.FieldMap, error) {
	fields := facets.DefaultFieldMap()
	if path == "" {
		return fields, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read field map file: %w", err)
	}

	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse field map file: %w", err)
	}

	for name, columns := range raw {
		f, ok := facets.ParseFacet(name)
		if !ok {
			return nil, fmt.Errorf("field map names unknown facet %q", name)
		}
		if len(columns) == 0 {
			return nil, fmt.Errorf("field map gives no columns for facet %q", name)
		}
		fields[f] = columns
	}

	return fields, nil
}
