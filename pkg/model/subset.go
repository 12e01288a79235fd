package model

// Subset is a CT subset: a named, coded, ordered list of permissible terms
// for an enumerated conceptual domain.
type Subset struct {
	ConceptCode string `json:"conceptCode"`
	Name        string `json:"name"`
	Terms       []Term `json:"terms"`
}

// NewSubset creates an empty subset
func NewSubset(conceptCode, name string) *Subset {
	return &Subset{
		ConceptCode: conceptCode,
		Name:        name,
		Terms:       make([]Term, 0),
	}
}

// AddTerm appends a term, preserving declaration order
func (s *Subset) AddTerm(conceptCode, submissionValue string, isDefault bool) {
	s.Terms = append(s.Terms, NewTerm(conceptCode, submissionValue, isDefault))
}

// ListLabels returns the term labels with default terms suffixed
func (s *Subset) ListLabels() []string {
	labels := make([]string, 0, len(s.Terms))
	for _, t := range s.Terms {
		labels = append(labels, t.ListLabel())
	}
	return labels
}

// SubmissionValues returns the submission values of all terms in order
func (s *Subset) SubmissionValues() []string {
	values := make([]string, 0, len(s.Terms))
	for _, t := range s.Terms {
		values = append(values, t.SubmissionValue)
	}
	return values
}

// Defaults returns the terms marked as default. More than one default, or
// none at all, is allowed.
func (s *Subset) Defaults() []Term {
	var defaults []Term
	for _, t := range s.Terms {
		if t.IsDefault {
			defaults = append(defaults, t)
		}
	}
	return defaults
}
