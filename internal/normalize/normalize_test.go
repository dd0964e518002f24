package normalize

import (
	"reflect"
	"testing"
)

func TestLocation(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "Synonym", raw: "Bengaluru", want: "Bangalore"},
		{name: "Synonym with state", raw: "bengaluru, Karnataka", want: "Bangalore"},
		{name: "Synonym with pin code", raw: "BENGALURU-560001", want: "Bangalore"},
		{name: "Gurugram", raw: "Gurugram", want: "Gurgaon"},
		{name: "Two word synonym", raw: "New Delhi", want: "Delhi"},
		{name: "Delhi NCR", raw: "Delhi NCR / Noida", want: "Delhi"},
		{name: "Parenthesis", raw: "Pune (Maharashtra)", want: "Pune"},
		{name: "En dash", raw: "Hyderabad – Telangana", want: "Hyderabad"},
		{name: "Digits stripped", raw: "Chennai600001", want: "Chennai"},
		{name: "Multi word title case", raw: "navi mumbai", want: "Navi Mumbai"},
		{name: "Upper case", raw: "KOCHI", want: "Kochi"},
		{name: "Empty", raw: "", want: "Unknown"},
		{name: "Whitespace", raw: "   ", want: "Unknown"},
		{name: "NaN", raw: "NaN", want: "Unknown"},
		{name: "null", raw: "NULL", want: "Unknown"},
		{name: "N/A collapses to one letter", raw: "N/A", want: "Unknown"},
		{name: "Only digits", raw: "560001", want: "Unknown"},
		{name: "Non-breaking space", raw: "New\u00a0Delhi", want: "Delhi"},
		{name: "Thin space and tab", raw: "Navi\u2009\tMumbai", want: "Navi Mumbai"},
		{name: "Repeated spaces", raw: "New   Delhi", want: "Delhi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Location(tt.raw); got != tt.want {
				t.Errorf("Location(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestLocationDeterministic(t *testing.T) {
	for _, raw := range []string{"Bengaluru", "Mumbai - Andheri", "", "x"} {
		if Location(raw) != Location(raw) {
			t.Errorf("Location(%q) is not deterministic", raw)
		}
	}
}

func TestSkills(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "Synonyms dedup", raw: "React, React JS, SQL", want: []string{"React.js", "SQL"}},
		{name: "Spelling variants", raw: "reactjs,React. js,react  js", want: []string{"React.js"}},
		{name: "Semicolons", raw: "Go; Python ;Docker", want: []string{"Go", "Python", "Docker"}},
		{name: "Mixed delimiters", raw: "Java, SQL; AWS", want: []string{"Java", "SQL", "AWS"}},
		{name: "Case preserved for unmapped", raw: "spring Boot", want: []string{"spring Boot"}},
		{name: "Case duplicates in one row", raw: "Java, java, SQL", want: []string{"Java", "SQL"}},
		{name: "Empty pieces dropped", raw: "Java,, ,SQL,", want: []string{"Java", "SQL"}},
		{name: "Golang maps to Go", raw: "Golang, Go", want: []string{"Go"}},
		{name: "Empty", raw: "", want: nil},
		{name: "NaN", raw: "nan", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Skills(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Skills(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSimple(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "  Acme Corp ", want: "Acme Corp"},
		{raw: "", want: "Unknown"},
		{raw: "\t", want: "Unknown"},
		{raw: "IT", want: "IT"},
	}

	for _, tt := range tests {
		if got := Simple(tt.raw); got != tt.want {
			t.Errorf("Simple(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestCustomSynonyms(t *testing.T) {
	syn := DefaultSynonyms()
	syn.Merge(&Synonyms{
		Locations: map[string]string{"Trivandrum": "Thiruvananthapuram"},
		Skills:    map[string]string{"Spring  Boot": "Spring Boot"},
	})
	n := New(syn)

	if got := n.Location("trivandrum, kerala"); got != "Thiruvananthapuram" {
		t.Errorf("Location() = %q, want Thiruvananthapuram", got)
	}
	if got := n.Skills("spring boot, SPRING BOOT"); !reflect.DeepEqual(got, []string{"Spring Boot"}) {
		t.Errorf("Skills() = %v, want [Spring Boot]", got)
	}
	// defaults survive the merge
	if got := n.Location("Bombay"); got != "Mumbai" {
		t.Errorf("Location(Bombay) = %q, want Mumbai", got)
	}
}
