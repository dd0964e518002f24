package models

import "time"

// Unknown is the bucket used for missing or unusable field values
const Unknown = "Unknown"

// Candidate is one row of the candidate spreadsheet
type Candidate struct {
	Fields map[string]string `json:"fields"`
	Row    int               `json:"row"` // 1-based position in the source sheet, header excluded
}

// Get returns the raw value of a column, or "" when absent
func (c Candidate) Get(field string) string {
	if c.Fields == nil {
		return ""
	}
	return c.Fields[field]
}

// Dataset is the immutable, ordered sequence of loaded candidates
type Dataset struct {
	Headers    []string    `json:"headers"`
	Candidates []Candidate `json:"candidates"`
	Source     string      `json:"source"`
	LoadedAt   time.Time   `json:"loaded_at"`
}

// Len returns the number of candidates in the dataset
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Candidates)
}

// FrequencyEntry is one canonical value and the number of rows carrying it
type FrequencyEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// FrequencyTable is ordered by count descending, ties in first-seen order
type FrequencyTable []FrequencyEntry

// SeriesPoint is one point of a chart series returned by the assistant
type SeriesPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// AnswerKind classifies an assistant answer
type AnswerKind string

const (
	AnswerText      AnswerKind = "text"
	AnswerAnalysis  AnswerKind = "analysis"
	AnswerSentiment AnswerKind = "sentiment"
)

// ChatAnswer is the structured reply of the natural-language query service
type ChatAnswer struct {
	Text   string        `json:"text"`
	Kind   AnswerKind    `json:"type"`
	Series []SeriesPoint `json:"chartData,omitempty"`
}

// ChatMessage is one entry of the assistant conversation
type ChatMessage struct {
	ID        string        `json:"id"`
	Sender    string        `json:"sender"` // "user" or "bot"
	Text      string        `json:"text"`
	Kind      AnswerKind    `json:"type,omitempty"`
	Series    []SeriesPoint `json:"chartData,omitempty"`
	IsError   bool          `json:"is_error,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// Page is one page of the filtered candidate table
type Page struct {
	Candidates []Candidate `json:"candidates"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
	TotalRows  int         `json:"total_rows"`
}
