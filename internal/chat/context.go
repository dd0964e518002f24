package chat

import (
	"fmt"
	"strings"

	"github.com/fmuoria/candidate-dashboard/internal/models"
)

// DefaultExcluded lists the columns left out of the model context. They are
// personal or free-text fields that cost tokens without helping answers.
var DefaultExcluded = []string{
	"HRBP Name",
	"aadhaar",
	"assignmentRating",
	"dreamProject",
	"feedback",
	"hiringManagerEmail",
	"hiringManagerName",
	"j2wEmail",
	"j2wId",
	"j2wRating",
	"nativePlace",
	"opportunities",
	"recentAssignments",
	"reportingManagerEmail",
}

// NoData is the context sent when nothing is loaded
const NoData = "No data available."

// BuildContext renders the whole dataset as a CSV block for the model
func BuildContext(dataset *models.Dataset, excluded []string) string {
	if dataset.Len() == 0 {
		return NoData
	}

	skip := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		skip[name] = struct{}{}
	}

	var headers []string
	for _, h := range dataset.Headers {
		if _, ok := skip[h]; !ok {
			headers = append(headers, h)
		}
	}

	var csv strings.Builder
	csv.WriteString(strings.Join(headers, ","))
	for _, c := range dataset.Candidates {
		csv.WriteString("\n")
		for i, h := range headers {
			if i > 0 {
				csv.WriteString(",")
			}
			csv.WriteString(csvField(c.Get(h)))
		}
	}

	var sb strings.Builder
	sb.WriteString("Dataset Description: Candidate data (CSV).\n")
	sb.WriteString(fmt.Sprintf("Columns: %s\n", strings.Join(headers, ", ")))
	sb.WriteString(fmt.Sprintf("Total Records: %d\n\n", dataset.Len()))
	sb.WriteString("CSV DATA:\n")
	sb.WriteString(csv.String())
	sb.WriteString("\n")

	return sb.String()
}

// csvField quotes a value only when it holds a comma, quote or newline
func csvField(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
