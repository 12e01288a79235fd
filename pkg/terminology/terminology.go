// Package terminology loads controlled terminology (CT) subsets and attaches
// them to the conceptual domain nodes of a concept map.
package terminology

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/ritzau/cmap-bc/pkg/logging"
	"github.com/ritzau/cmap-bc/pkg/model"
)

var (
	// ErrSubsetShared is returned when a subset matches more than one domain node
	ErrSubsetShared = errors.New("subset matches more than one conceptual domain")
	// ErrDuplicateSubset is returned when two subsets target the same domain node
	ErrDuplicateSubset = errors.New("conceptual domain already has a subset")
	// ErrInvalidSubset is returned for subsets missing required fields
	ErrInvalidSubset = errors.New("invalid subset")
)

// File is the on-disk representation of a terminology catalogue
type File struct {
	Subsets []SubsetEntry `yaml:"subsets"`
}

// SubsetEntry binds a CT subset to a conceptual domain, named by the label
// or id of its node in the map.
type SubsetEntry struct {
	ConceptualDomain string      `yaml:"conceptualDomain"`
	ConceptCode      string      `yaml:"conceptCode"`
	Name             string      `yaml:"name"`
	Terms            []TermEntry `yaml:"terms"`
}

// TermEntry is one term of a subset. Default accepts "yes" or "true".
type TermEntry struct {
	ConceptCode     string `yaml:"conceptCode"`
	SubmissionValue string `yaml:"submissionValue"`
	Default         string `yaml:"default,omitempty"`
}

// Catalog is a parsed terminology file. Entries sharing a concept code
// share one subset.
type Catalog struct {
	entries []SubsetEntry
	subsets map[string]*model.Subset
	log     *logging.Logger
}

// Load reads a terminology file
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading terminology file: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates terminology YAML
func Parse(data []byte) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing terminology YAML: %w", err)
	}

	c := &Catalog{
		entries: f.Subsets,
		subsets: make(map[string]*model.Subset),
		log:     logging.New("terminology"),
	}
	seen := make(map[string]SubsetEntry)
	for i, s := range f.Subsets {
		if strings.TrimSpace(s.ConceptualDomain) == "" {
			return nil, fmt.Errorf("%w: subset %d has no conceptualDomain", ErrInvalidSubset, i)
		}
		code := strings.TrimSpace(s.ConceptCode)
		if code == "" {
			return nil, fmt.Errorf("%w: subset for %q has no conceptCode", ErrInvalidSubset, s.ConceptualDomain)
		}
		if strings.TrimSpace(s.Name) == "" {
			return nil, fmt.Errorf("%w: subset %s has no name", ErrInvalidSubset, code)
		}
		for j, t := range s.Terms {
			if t.ConceptCode == "" || t.SubmissionValue == "" {
				return nil, fmt.Errorf("%w: subset %s term %d needs conceptCode and submissionValue",
					ErrInvalidSubset, code, j)
			}
		}

		// The same subset may serve several domains, but every entry
		// must then declare it identically
		if first, ok := seen[code]; ok {
			if !sameSubset(first, s) {
				return nil, fmt.Errorf("%w: subset %s is declared for %q and %q with different contents",
					ErrInvalidSubset, code, first.ConceptualDomain, s.ConceptualDomain)
			}
			continue
		}
		seen[code] = s
		c.subsets[code] = s.subset()
	}

	return c, nil
}

// Len returns the number of distinct subsets in the catalogue
func (c *Catalog) Len() int {
	return len(c.subsets)
}

// Subsets returns the distinct model subsets in file order
func (c *Catalog) Subsets() []*model.Subset {
	result := make([]*model.Subset, 0, len(c.subsets))
	for _, e := range c.entries {
		s := c.subsets[strings.TrimSpace(e.ConceptCode)]
		if !slices.Contains(result, s) {
			result = append(result, s)
		}
	}
	return result
}

// Attach sets the CT subset of every domain node of type domainType named
// by an entry. It returns the number of attached subsets. Entries naming no
// node are logged and skipped.
func (c *Catalog) Attach(g *model.Graph, domainType string) (int, error) {
	attached := 0
	for _, e := range c.entries {
		var matches []*model.Vertex
		for _, v := range g.Vertices() {
			if v.Type != domainType {
				continue
			}
			if v.ID == e.ConceptualDomain || strings.TrimSpace(v.Label) == strings.TrimSpace(e.ConceptualDomain) {
				matches = append(matches, v)
			}
		}

		switch len(matches) {
		case 0:
			c.log.Warn("no conceptual domain for subset", "subset", e.ConceptCode, "domain", e.ConceptualDomain)
			continue
		case 1:
		default:
			return attached, fmt.Errorf("%w: subset %s matches %s and %s",
				ErrSubsetShared, e.ConceptCode, matches[0].ID, matches[1].ID)
		}

		v := matches[0]
		if v.CTSubset != nil {
			return attached, fmt.Errorf("%w: %s %q has %s, cannot add %s",
				ErrDuplicateSubset, v.ID, v.Label, v.CTSubset.ConceptCode, e.ConceptCode)
		}
		v.SetCTSubset(c.subsets[strings.TrimSpace(e.ConceptCode)])
		attached++
		c.log.Debug("attached subset", "subset", e.ConceptCode, "vertex", v.ID, "terms", len(e.Terms))
	}
	return attached, nil
}

func (e SubsetEntry) subset() *model.Subset {
	s := model.NewSubset(strings.TrimSpace(e.ConceptCode), strings.TrimSpace(e.Name))
	for _, t := range e.Terms {
		s.AddTerm(t.ConceptCode, t.SubmissionValue, isDefault(t.Default))
	}
	return s
}

func sameSubset(a, b SubsetEntry) bool {
	if strings.TrimSpace(a.Name) != strings.TrimSpace(b.Name) || len(a.Terms) != len(b.Terms) {
		return false
	}
	for i := range a.Terms {
		ta, tb := a.Terms[i], b.Terms[i]
		if ta.ConceptCode != tb.ConceptCode || ta.SubmissionValue != tb.SubmissionValue ||
			isDefault(ta.Default) != isDefault(tb.Default) {
			return false
		}
	}
	return true
}

func isDefault(s string) bool {
	return model.ParseDefaultFlag(s) || strings.EqualFold(strings.TrimSpace(s), "true")
}
