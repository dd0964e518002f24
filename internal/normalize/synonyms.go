package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Synonyms maps lookup keys (lower-case, single-spaced) to canonical values
type Synonyms struct {
	Locations map[string]string `yaml:"locations" json:"locations"`
	Skills    map[string]string `yaml:"skills" json:"skills"`
}

// DefaultSynonyms returns the built-in synonym tables
func DefaultSynonyms() *Synonyms {
	return &Synonyms{
		Locations: map[string]string{
			"bengaluru": "bangalore",
			"gurugram":  "gurgaon",
			"bombay":    "mumbai",
			"calcutta":  "kolkata",
			"madras":    "chennai",
			"new delhi": "delhi",
			"delhi ncr": "delhi",
		},
		Skills: map[string]string{
			"react":      "React.js",
			"reactjs":    "React.js",
			"react js":   "React.js",
			"react.js":   "React.js",
			"react. js":  "React.js",
			"node":       "Node.js",
			"nodejs":     "Node.js",
			"node js":    "Node.js",
			"node.js":    "Node.js",
			"vue":        "Vue.js",
			"vuejs":      "Vue.js",
			"vue.js":     "Vue.js",
			"golang":     "Go",
			"k8s":        "Kubernetes",
			"kubernetes": "Kubernetes",
			"ts":         "TypeScript",
			"typescript": "TypeScript",
			"javascript": "JavaScript",
			"postgres":   "PostgreSQL",
			"postgresql": "PostgreSQL",
		},
	}
}

// Merge copies the entries of other over s. Keys are re-keyed so that
// hand-written YAML like "New  Delhi" still matches.
func (s *Synonyms) Merge(other *Synonyms) {
	if other == nil {
		return
	}
	if s.Locations == nil {
		s.Locations = make(map[string]string)
	}
	if s.Skills == nil {
		s.Skills = make(map[string]string)
	}
	for k, v := range other.Locations {
		s.Locations[lookupKey(k)] = strings.ToLower(strings.TrimSpace(v))
	}
	for k, v := range other.Skills {
		s.Skills[lookupKey(k)] = strings.TrimSpace(v)
	}
}

// lookupKey lower-cases, NFKC-folds and collapses internal whitespace
func lookupKey(s string) string {
	s = norm.NFKC.String(s)
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
