package pipeline

import (
	"testing"

	apperrors "github.com/EliranNovik/Leadify-sub026/errors"
)

func TestParseAnalysis_PlainJSON(t *testing.T) {
	text, q, err := parseAnalysis(`{"summary": "client call about visa", "questionnaire": {"topic": "visa", "decision": ""}}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if text != "client call about visa" {
		t.Fatalf("unexpected summary %q", text)
	}
	if q["topic"] != "visa" {
		t.Fatalf("unexpected questionnaire %+v", q)
	}
}

func TestParseAnalysis_JSONWrappedInProse(t *testing.T) {
	raw := "Here is the analysis you asked for:\n```json\n{\"summary\": \"s\", \"questionnaire\": {}}\n```\nLet me know if you need more."
	text, _, err := parseAnalysis(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if text != "s" {
		t.Fatalf("unexpected summary %q", text)
	}
}

func TestParseAnalysis_Failures(t *testing.T) {
	cases := map[string]string{
		"no json":       "the model rambled without structure",
		"invalid json":  "{summary: unquoted}",
		"empty summary": `{"summary": "  ", "questionnaire": {}}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := parseAnalysis(raw)
			if err == nil {
				t.Fatal("expected error")
			}
			if apperrors.CodeOf(err) != apperrors.ErrorCode_SUMMARIZATION_FAILED {
				t.Fatalf("unexpected code %s", apperrors.CodeOf(err))
			}
		})
	}
}
