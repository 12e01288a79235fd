package model

import "strings"

// Term is a single controlled terminology value within a CT subset
type Term struct {
	ConceptCode     string `json:"conceptCode" yaml:"conceptCode"`
	SubmissionValue string `json:"submissionValue" yaml:"submissionValue"`
	IsDefault       bool   `json:"isDefault" yaml:"isDefault"`
}

// NewTerm creates a term
func NewTerm(conceptCode, submissionValue string, isDefault bool) Term {
	return Term{
		ConceptCode:     conceptCode,
		SubmissionValue: submissionValue,
		IsDefault:       isDefault,
	}
}

// ParseDefaultFlag interprets the Yes/No default indicator used by CT sources
func ParseDefaultFlag(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "yes")
}

// Label returns the display label, e.g. "mg/dL (C67015)"
func (t Term) Label() string {
	return t.SubmissionValue + " (" + t.ConceptCode + ")"
}

// ListLabel returns the label as rendered in a qualifier term list.
// Default terms carry a " default" suffix.
func (t Term) ListLabel() string {
	if t.IsDefault {
		return t.Label() + " default"
	}
	return t.Label()
}
