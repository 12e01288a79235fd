package bc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ritzau/cmap-bc/pkg/logging"
	"github.com/ritzau/cmap-bc/pkg/model"
	"github.com/ritzau/cmap-bc/pkg/nodetype"
)

// ErrMissingSubset is returned when an enumerated test code or test name
// domain has no CT subset attached
var ErrMissingSubset = errors.New("conceptual domain has no CT subset")

// DefaultConceptualDomainLabel is used when the catalog does not define the
// conceptual_domain node type
const DefaultConceptualDomainLabel = "Conceptual Domain"

// Diagnostic is a non-fatal problem found while extracting a BC
type Diagnostic struct {
	VertexID string `json:"vertexId"`
	Label    string `json:"label"`
	Message  string `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %q: %s", d.VertexID, d.Label, d.Message)
}

// Factory creates a BC from the metadata in a concept map graph.
// A factory is not safe for concurrent use; give every graph its own.
type Factory struct {
	graph   *model.Graph
	decType string
	cdType  string
	log     *logging.Logger

	concept     *BiomedicalConcept
	diagnostics []Diagnostic
}

// NewFactory creates a factory for the graph. The catalog must define the
// dec node type.
func NewFactory(g *model.Graph, catalog *nodetype.Catalog) (*Factory, error) {
	types := catalog.Labels()

	decType, ok := types[nodetype.DataElement]
	if !ok {
		return nil, fmt.Errorf("%w: %s", nodetype.ErrUnknownNodeType, nodetype.DataElement)
	}
	cdType, ok := types[nodetype.ConceptualDomain]
	if !ok {
		cdType = DefaultConceptualDomainLabel
	}

	return &Factory{
		graph:   g,
		decType: decType,
		cdType:  cdType,
		log:     logging.New("bc.factory"),
	}, nil
}

// Diagnostics returns the non-fatal problems found by the last Create
func (f *Factory) Diagnostics() []Diagnostic {
	result := make([]Diagnostic, len(f.diagnostics))
	copy(result, f.diagnostics)
	return result
}

// Create walks the graph in loader order and builds the BC. Any fatal
// problem aborts the run and no BC is returned.
func (f *Factory) Create() (*BiomedicalConcept, error) {
	f.concept = &BiomedicalConcept{}
	f.diagnostics = nil

	var root *model.Vertex
	for _, v := range f.graph.Vertices() {
		switch {
		case v.IsRoot:
			if root != nil {
				return nil, fmt.Errorf("%w: %s and %s", model.ErrMultipleRoots, root.ID, v.ID)
			}
			root = v
			if err := f.setNameConceptID(v); err != nil {
				return nil, fmt.Errorf("root concept %s: %w", v.ID, err)
			}
		case v.Type == f.decType:
			if err := f.setDECAttributes(v); err != nil {
				return nil, fmt.Errorf("data element concept %s %q: %w", v.ID, v.Label, err)
			}
		}
	}

	if root == nil {
		return nil, model.ErrNoRoot
	}

	f.log.Debug("created biomedical concept",
		"designation", f.concept.Designation,
		"qualifiers", f.concept.DataElementConcepts.Len(),
		"warnings", len(f.diagnostics))

	c := f.concept
	f.concept = nil
	return c, nil
}

// setNameConceptID uses the root node label to set the BC name, label and
// concept id
func (f *Factory) setNameConceptID(v *model.Vertex) error {
	text, code, err := SplitLabel(v.Label)
	if err != nil {
		return err
	}
	f.concept.ConceptID = code
	f.concept.Designation = Designation(text)
	f.concept.Label = text
	f.concept.Definition = strings.TrimSpace(v.Definition)
	return nil
}

// setDECAttributes dispatches a data element concept on its role
func (f *Factory) setDECAttributes(v *model.Vertex) error {
	role := ParseRole(v.Role)
	f.log.Trace("processing data element concept", "vertex", v.ID, "role", role.Raw)

	if role.IsGeneric() {
		return f.setQualifier(v)
	}

	switch role.Kind {
	case RoleMissing:
		f.warn(v, "missing the role attribute")
		return nil
	case RoleUnits:
		return f.setUnits(v)
	case RoleResult:
		return f.setResult(v)
	case RoleTestCode:
		return f.setTestCode(v)
	case RoleTestName:
		return f.setTestName(v)
	case RoleLOINC:
		return f.setLOINCCode(v)
	case RoleTiming:
		return f.setTiming(v)
	default:
		f.warn(v, "not processing role "+role.Raw)
		return nil
	}
}

// conceptualDomain returns the first target of v that is a conceptual
// domain. Only that one contributes to the BC.
func (f *Factory) conceptualDomain(v *model.Vertex) (*model.Vertex, bool) {
	for _, t := range f.graph.Targets(v) {
		if t.Vertex.Type == f.cdType {
			return t.Vertex, true
		}
	}
	f.warn(v, "no conceptual domain target")
	return nil, false
}

// setUnits sets the valid units for a BC measurement
func (f *Factory) setUnits(v *model.Vertex) error {
	cd, ok := f.conceptualDomain(v)
	if !ok {
		return nil
	}
	decCode, decName, err := decIdentity(v)
	if err != nil {
		return err
	}

	subset := cd.CTSubset
	if subset == nil {
		// The unit list stays unset without a subset
		return f.addQualifier(v, decCode, described(v, decCode, decName, cd.Label))
	}

	units := subset.SubmissionValues()
	f.concept.UnitList = units
	for _, t := range subset.Terms {
		if t.IsDefault {
			f.concept.DefaultUnit = t.SubmissionValue
		}
	}
	f.concept.addSubset(subset)

	return f.addQualifier(v, decCode,
		enumerated(v, decCode, decName, subset.Name, subset.ConceptCode, units))
}

// setResult sets the result type (e.g. Numeric) for a BC
func (f *Factory) setResult(v *model.Vertex) error {
	cd, ok := f.conceptualDomain(v)
	if !ok {
		return nil
	}
	decCode, decName, err := decIdentity(v)
	if err != nil {
		return err
	}

	f.concept.ResultType = cd.Label
	return f.addQualifier(v, decCode, described(v, decCode, decName, cd.Label))
}

// setTestCode sets the test code and its concept id for findings BCs
func (f *Factory) setTestCode(v *model.Vertex) error {
	cd, ok := f.conceptualDomain(v)
	if !ok {
		return nil
	}
	testCode, testConceptID, err := SplitLabel(cd.Label)
	if err != nil {
		return fmt.Errorf("test code domain %s: %w", cd.ID, err)
	}
	if cd.CTSubset == nil {
		return fmt.Errorf("test code domain %s %q: %w", cd.ID, cd.Label, ErrMissingSubset)
	}
	decCode, decName, err := decIdentity(v)
	if err != nil {
		return err
	}

	f.concept.TestCode = testCode
	f.concept.TestConceptID = testConceptID
	f.concept.addSubset(cd.CTSubset)

	return f.addQualifier(v, decCode,
		enumerated(v, decCode, decName, testCode, testConceptID, cd.CTSubset.ListLabels()))
}

// setTestName sets the test name for findings BCs. The test name concept id
// only appears in the qualifier.
func (f *Factory) setTestName(v *model.Vertex) error {
	cd, ok := f.conceptualDomain(v)
	if !ok {
		return nil
	}
	testName, testNameCode, err := SplitLabel(cd.Label)
	if err != nil {
		return fmt.Errorf("test name domain %s: %w", cd.ID, err)
	}
	if cd.CTSubset == nil {
		return fmt.Errorf("test name domain %s %q: %w", cd.ID, cd.Label, ErrMissingSubset)
	}
	decCode, decName, err := decIdentity(v)
	if err != nil {
		return err
	}

	f.concept.TestName = testName
	f.concept.addSubset(cd.CTSubset)

	return f.addQualifier(v, decCode,
		enumerated(v, decCode, decName, testName, testNameCode, cd.CTSubset.ListLabels()))
}

// setLOINCCode sets the LOINC code for findings BCs
func (f *Factory) setLOINCCode(v *model.Vertex) error {
	cd, ok := f.conceptualDomain(v)
	if !ok {
		return nil
	}
	decCode, decName, err := decIdentity(v)
	if err != nil {
		return err
	}

	f.concept.LOINCCode = strings.TrimSpace(cd.Label)
	return f.addQualifier(v, decCode, described(v, decCode, decName, f.concept.LOINCCode))
}

// setQualifier handles topic, record, variable and grouping qualifiers.
// Without a subset the domain is described by its datatype label.
func (f *Factory) setQualifier(v *model.Vertex) error {
	cd, ok := f.conceptualDomain(v)
	if !ok {
		return nil
	}
	decCode, decName, err := decIdentity(v)
	if err != nil {
		return err
	}

	if cd.CTSubset == nil {
		return f.addQualifier(v, decCode, described(v, decCode, decName, cd.Label))
	}

	f.concept.addSubset(cd.CTSubset)
	return f.addQualifier(v, decCode,
		enumerated(v, decCode, decName, cd.CTSubset.Name, cd.CTSubset.ConceptCode, cd.CTSubset.ListLabels()))
}

// setTiming sets the described domain to the datetime format
func (f *Factory) setTiming(v *model.Vertex) error {
	cd, ok := f.conceptualDomain(v)
	if !ok {
		return nil
	}
	decCode, decName, err := decIdentity(v)
	if err != nil {
		return err
	}

	f.concept.format = strings.TrimSpace(cd.Label)
	return f.addQualifier(v, decCode, described(v, decCode, decName, f.concept.format))
}

func (f *Factory) addQualifier(v *model.Vertex, decCode string, q Qualifier) error {
	if !f.concept.DataElementConcepts.Add(decCode, q) {
		f.warn(v, "duplicate data element concept "+decCode+" ignored")
	}
	return nil
}

func (f *Factory) warn(v *model.Vertex, message string) {
	d := Diagnostic{VertexID: v.ID, Label: v.Label, Message: message}
	f.diagnostics = append(f.diagnostics, d)
	f.log.Warn(message, "vertex", v.ID, "label", v.Label)
}

// decIdentity returns the concept code and name of a data element concept
func decIdentity(v *model.Vertex) (code, name string, err error) {
	text, code, err := SplitLabel(v.Label)
	if err != nil {
		return "", "", err
	}
	return code, Designation(text), nil
}

func described(v *model.Vertex, decCode, decName, domainName string) Qualifier {
	return Qualifier{
		DECName:              decName,
		DECConceptID:         decCode,
		ConceptualDomainType: DomainDescribed,
		ConceptualDomainName: domainName,
		Role:                 v.Role,
		Mandatory:            v.Mandatory,
	}
}

func enumerated(v *model.Vertex, decCode, decName, domainName, domainCode string, terms []string) Qualifier {
	return Qualifier{
		DECName:                   decName,
		DECConceptID:              decCode,
		ConceptualDomainType:      DomainEnumerated,
		ConceptualDomainName:      domainName,
		ConceptualDomainConceptID: domainCode,
		Role:                      v.Role,
		Mandatory:                 v.Mandatory,
		Terms:                     terms,
	}
}
