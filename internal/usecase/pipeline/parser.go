package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/EliranNovik/Leadify-sub026/errors"
	"github.com/EliranNovik/Leadify-sub026/internal/domain/entities"
)

// analysisPayload is the JSON object the summarization model is instructed
// to return
type analysisPayload struct {
	Summary       string            `json:"summary"`
	Questionnaire map[string]string `json:"questionnaire"`
}

// DefaultQuestionnaire returns the CRM questionnaire applied when the caller
// does not supply one
func DefaultQuestionnaire() map[string]string {
	return map[string]string{
		"client_name":      "What is the client's full name?",
		"topic":            "What was the main topic of the meeting?",
		"eligibility":      "Was the client assessed as eligible, and for what?",
		"next_steps":       "What follow-up actions were agreed on?",
		"documents_needed": "Which documents does the client still need to provide?",
		"decision":         "What decision, if any, was reached?",
	}
}

// parseAnalysis extracts the summary and questionnaire from the model's raw
// response. Models wrap JSON in prose or code fences often enough that the
// parser scans for the outermost object instead of decoding the whole body.
func parseAnalysis(raw string) (string, entities.Questionnaire, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return "", nil, apperrors.ErrSummarizationFailed(fmt.Errorf("no JSON object in model response"))
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return "", nil, apperrors.ErrSummarizationFailed(fmt.Errorf("model response is not valid JSON: %w", err))
	}
	if strings.TrimSpace(payload.Summary) == "" {
		return "", nil, apperrors.ErrSummarizationFailed(fmt.Errorf("model response has an empty summary"))
	}

	questionnaire := entities.Questionnaire{}
	for key, answer := range payload.Questionnaire {
		questionnaire[key] = answer
	}
	return payload.Summary, questionnaire, nil
}
