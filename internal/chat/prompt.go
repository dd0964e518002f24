package chat

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fmuoria/candidate-dashboard/internal/models"
)

// buildPrompt creates the analyst prompt for one question
func buildPrompt(dataContext, question string) string {
	var sb strings.Builder

	sb.WriteString("You are a data analyst assistant for a recruitment dashboard.\n\n")

	sb.WriteString("## DATA\n")
	sb.WriteString(dataContext)
	sb.WriteString("\n")

	sb.WriteString("## QUESTION\n")
	sb.WriteString(fmt.Sprintf("%q\n\n", question))

	sb.WriteString("## INSTRUCTIONS\n")
	sb.WriteString("1. Answer strictly from the data above.\n")
	sb.WriteString("2. For counts, lists or specific details, give them clearly.\n")
	sb.WriteString(`3. For questions about "sentiment", "trend" or "analysis", also return a six month series (Jan to Jun, values 0-100).` + "\n")
	sb.WriteString(`4. If the data does not hold the answer, say "I couldn't find that information in the current dataset."` + "\n")
	sb.WriteString("5. Keep the text concise and professional.\n\n")

	sb.WriteString("Respond in the following JSON format:\n")
	sb.WriteString("{\n")
	sb.WriteString(`  "text": "<natural language answer>",` + "\n")
	sb.WriteString(`  "type": "text" | "analysis" | "sentiment",` + "\n")
	sb.WriteString(`  "chartData": [{"name": "Jan", "sentiment": 65}, ...]` + "\n")
	sb.WriteString("}\n\n")
	sb.WriteString("chartData is only present when type is sentiment. Return ONLY the JSON object.\n")

	return sb.String()
}

type rawAnswer struct {
	Text      string           `json:"text"`
	Type      string           `json:"type"`
	ChartData []map[string]any `json:"chartData"`
}

// parseAnswer extracts the JSON answer from a reply. Replies without a
// usable JSON object become plain text answers.
func parseAnswer(response string) models.ChatAnswer {
	fallback := models.ChatAnswer{Text: strings.TrimSpace(response), Kind: models.AnswerText}

	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")
	if startIdx == -1 || endIdx < startIdx {
		return fallback
	}

	var raw rawAnswer
	if err := json.Unmarshal([]byte(response[startIdx:endIdx+1]), &raw); err != nil {
		return fallback
	}
	if raw.Text == "" {
		return fallback
	}

	answer := models.ChatAnswer{Text: raw.Text, Kind: parseKind(raw.Type)}
	for _, point := range raw.ChartData {
		if p, ok := seriesPoint(point); ok {
			answer.Series = append(answer.Series, p)
		}
	}
	return answer
}

func parseKind(s string) models.AnswerKind {
	switch kind := models.AnswerKind(strings.ToLower(strings.TrimSpace(s))); kind {
	case models.AnswerAnalysis, models.AnswerSentiment:
		return kind
	default:
		return models.AnswerText
	}
}

var valueKeys = []string{"sentiment", "value", "count"}

func seriesPoint(point map[string]any) (models.SeriesPoint, bool) {
	name, ok := point["name"]
	if !ok {
		return models.SeriesPoint{}, false
	}

	for _, key := range valueKeys {
		if v, ok := number(point[key]); ok {
			return models.SeriesPoint{Name: fmt.Sprint(name), Value: v}, true
		}
	}
	return models.SeriesPoint{}, false
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
