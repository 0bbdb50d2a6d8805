package models

import (
	"encoding/json"
	"strings"
)

// ErrorDetail is the error envelope returned by the backend. Detail is
// either a plain string or a list of validation issues.
type ErrorDetail struct {
	Detail json.RawMessage `json:"detail"`
}

type ValidationIssue struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// Message flattens the detail into something a user can read.
func (e *ErrorDetail) Message() string {
	if e == nil || len(e.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(e.Detail, &text); err == nil {
		return text
	}

	var issues []ValidationIssue
	if err := json.Unmarshal(e.Detail, &issues); err == nil && len(issues) > 0 {
		messages := make([]string, 0, len(issues))
		for _, issue := range issues {
			if len(issue.Msg) > 0 {
				messages = append(messages, issue.Msg)
			}
		}
		return strings.Join(messages, "; ")
	}

	return strings.Trim(string(e.Detail), `"`)
}
