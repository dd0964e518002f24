package models

import "testing"

func TestCandidateGet(t *testing.T) {
	c := Candidate{Fields: map[string]string{"client": "Acme"}}
	if got := c.Get("client"); got != "Acme" {
		t.Errorf("Get(client) = %q, want Acme", got)
	}
	if got := c.Get("skills"); got != "" {
		t.Errorf("Get(skills) = %q, want empty", got)
	}

	var empty Candidate
	if got := empty.Get("client"); got != "" {
		t.Errorf("Get() on a row without fields = %q", got)
	}
}

func TestDatasetLen(t *testing.T) {
	var nilDataset *Dataset
	if nilDataset.Len() != 0 {
		t.Error("nil dataset should have length 0")
	}

	d := &Dataset{Candidates: []Candidate{{Row: 1}, {Row: 2}}}
	if d.Len() != 2 {
		t.Errorf("Len() = %d, want 2", d.Len())
	}
}
