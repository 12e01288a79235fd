// Package bc builds Biomedical Concepts (BCs) from concept map graphs.
//
// A BC is a flat record describing a clinical measurement plus a set of
// data element concept (DEC) qualifiers, each bound to a conceptual domain
// that is either described (free text or datatype) or enumerated by a
// controlled terminology subset.
package bc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ritzau/cmap-bc/pkg/model"
)

// DomainType distinguishes described and enumerated conceptual domains
type DomainType string

const (
	DomainDescribed  DomainType = "described"
	DomainEnumerated DomainType = "enumerated"
)

// Qualifier describes one data element concept of a BC
type Qualifier struct {
	DECName                   string     `json:"decName"`
	DECConceptID              string     `json:"decConceptId"`
	ConceptualDomainType      DomainType `json:"conceptualDomainType"`
	ConceptualDomainName      string     `json:"conceptualDomainName"`
	ConceptualDomainConceptID string     `json:"conceptualDomainConceptId,omitempty"` // enumerated only
	Role                      string     `json:"role"`
	Mandatory                 *bool      `json:"mandatory"`
	Terms                     []string   `json:"terms,omitempty"` // enumerated only
}

// DataElementConcepts maps DEC concept codes to qualifiers, keeping the
// order in which they were extracted.
type DataElementConcepts struct {
	keys    []string
	entries map[string]Qualifier
}

// Add inserts a qualifier. It returns false, leaving the existing entry in
// place, when the code is already present.
func (d *DataElementConcepts) Add(code string, q Qualifier) bool {
	if d.entries == nil {
		d.entries = make(map[string]Qualifier)
	}
	if _, exists := d.entries[code]; exists {
		return false
	}
	d.keys = append(d.keys, code)
	d.entries[code] = q
	return true
}

// Get returns the qualifier for a DEC concept code
func (d DataElementConcepts) Get(code string) (Qualifier, bool) {
	q, ok := d.entries[code]
	return q, ok
}

// Keys returns the DEC concept codes in extraction order
func (d DataElementConcepts) Keys() []string {
	keys := make([]string, len(d.keys))
	copy(keys, d.keys)
	return keys
}

// Len returns the number of qualifiers
func (d DataElementConcepts) Len() int {
	return len(d.keys)
}

// MarshalJSON writes the qualifiers as a JSON object in extraction order
func (d DataElementConcepts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, code := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(code)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(d.entries[code])
		if err != nil {
			return nil, fmt.Errorf("marshal qualifier %s: %w", code, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping the key order
func (d *DataElementConcepts) UnmarshalJSON(data []byte) error {
	*d = DataElementConcepts{}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("dataElementConcepts: expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		code, ok := tok.(string)
		if !ok {
			return fmt.Errorf("dataElementConcepts: expected key, got %v", tok)
		}
		var q Qualifier
		if err := dec.Decode(&q); err != nil {
			return fmt.Errorf("dataElementConcepts[%s]: %w", code, err)
		}
		d.Add(code, q)
	}

	_, err = dec.Token()
	return err
}

// BiomedicalConcept is the standardized output record of an extraction
type BiomedicalConcept struct {
	Designation         string              `json:"designation"`
	ConceptID           string              `json:"conceptId"`
	Label               string              `json:"label"`
	Definition          string              `json:"definition"`
	TestCode            string              `json:"testCode"`
	TestConceptID       string              `json:"testConceptId"`
	TestName            string              `json:"testName"`
	LOINCCode           string              `json:"loincCode"`
	ResultType          string              `json:"resultType"`
	UnitList            []string            `json:"unitList"`
	DefaultUnit         string              `json:"defaultUnit"`
	StandardUnit        string              `json:"standardUnit"`
	DataElementConcepts DataElementConcepts `json:"dataElementConcepts"`

	// Not part of the serialized BC
	format  string
	subsets []*model.Subset
}

// Format returns the timing format captured from a timing DEC
func (c *BiomedicalConcept) Format() string {
	return c.format
}

// Subsets returns the CT subsets the BC references, in extraction order
func (c *BiomedicalConcept) Subsets() []*model.Subset {
	result := make([]*model.Subset, len(c.subsets))
	copy(result, c.subsets)
	return result
}

// addSubset records a referenced subset once per concept code
func (c *BiomedicalConcept) addSubset(s *model.Subset) {
	for _, existing := range c.subsets {
		if existing.ConceptCode == s.ConceptCode {
			return
		}
	}
	c.subsets = append(c.subsets, s)
}

// MarshalJSON serializes the BC. An unset unit list is written as [].
func (c BiomedicalConcept) MarshalJSON() ([]byte, error) {
	type record BiomedicalConcept
	r := record(c)
	if r.UnitList == nil {
		r.UnitList = []string{}
	}
	return json.Marshal(r)
}

// ParseJSON reads a serialized BC
func ParseJSON(data []byte) (*BiomedicalConcept, error) {
	var c BiomedicalConcept
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse BC: %w", err)
	}
	return &c, nil
}

// FileName returns the file name the BC is saved under
func (c *BiomedicalConcept) FileName() string {
	return strings.ReplaceAll(c.Designation, " ", "_") + ".json"
}

// SaveJSON writes the BC as JSON into dir and returns the file path
func (c *BiomedicalConcept) SaveJSON(dir string) (string, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize BC %s: %w", c.Designation, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(dir, c.FileName())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing BC: %w", err)
	}
	return path, nil
}
