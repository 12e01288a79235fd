package bc

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/cmap-bc/pkg/model"
)

func boolPtr(b bool) *bool {
	return &b
}

func sampleConcept() *BiomedicalConcept {
	c := &BiomedicalConcept{
		Designation: "systolic_blood_pressure",
		ConceptID:   "C0005823",
		Label:       "Systolic Blood Pressure",
		TestCode:    "SYSBP",
		ResultType:  "Numeric",
		UnitList:    []string{"mmHg"},
		DefaultUnit: "mmHg",
		format:      "ISO 8601",
	}
	c.DataElementConcepts.Add("C44276", Qualifier{
		DECName:              "result",
		DECConceptID:         "C44276",
		ConceptualDomainType: DomainDescribed,
		ConceptualDomainName: "Numeric",
		Role:                 "qualifier.result",
		Mandatory:            boolPtr(true),
	})
	c.DataElementConcepts.Add("C44256", Qualifier{
		DECName:                   "unit",
		DECConceptID:              "C44256",
		ConceptualDomainType:      DomainEnumerated,
		ConceptualDomainName:      "Units",
		ConceptualDomainConceptID: "C66770",
		Role:                      "qualifier.variable.units",
		Terms:                     []string{"mmHg"},
	})
	c.addSubset(model.NewSubset("C66770", "Units"))
	return c
}

func TestSerializedKeys(t *testing.T) {
	data, err := json.Marshal(sampleConcept())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	want := []string{
		"designation", "conceptId", "label", "definition", "testCode",
		"testConceptId", "testName", "loincCode", "resultType", "unitList",
		"defaultUnit", "standardUnit", "dataElementConcepts",
	}
	assert.Len(t, raw, len(want))
	for _, key := range want {
		assert.Contains(t, raw, key)
	}
	assert.NotContains(t, raw, "format")
	assert.NotContains(t, raw, "subsets")
}

func TestEmptyUnitListSerializesAsArray(t *testing.T) {
	data, err := json.Marshal(&BiomedicalConcept{Designation: "x"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"unitList":[]`)
	assert.Contains(t, string(data), `"dataElementConcepts":{}`)
}

func TestRoundTrip(t *testing.T) {
	original := sampleConcept()
	data, err := json.Marshal(original)
	require.NoError(t, err)

	parsed, err := ParseJSON(data)
	require.NoError(t, err)

	again, err := json.Marshal(parsed)
	require.NoError(t, err)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal(data, &first))
	require.NoError(t, json.Unmarshal(again, &second))
	assert.Equal(t, first, second)

	assert.Equal(t, []string{"C44276", "C44256"}, parsed.DataElementConcepts.Keys())
	q, ok := parsed.DataElementConcepts.Get("C44276")
	require.True(t, ok)
	require.NotNil(t, q.Mandatory)
	assert.True(t, *q.Mandatory)

	// Fields outside the JSON surface do not survive
	assert.Empty(t, parsed.Subsets())
	assert.Empty(t, parsed.Format())
}

func TestDataElementConceptsKeepOrder(t *testing.T) {
	var d DataElementConcepts
	for _, code := range []string{"C3", "C1", "C2"} {
		assert.True(t, d.Add(code, Qualifier{DECConceptID: code}))
	}
	assert.False(t, d.Add("C1", Qualifier{DECName: "again"}))

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t,
		`{"C3":{"decName":"","decConceptId":"C3","conceptualDomainType":"","conceptualDomainName":"","role":"","mandatory":null},`+
			`"C1":{"decName":"","decConceptId":"C1","conceptualDomainType":"","conceptualDomainName":"","role":"","mandatory":null},`+
			`"C2":{"decName":"","decConceptId":"C2","conceptualDomainType":"","conceptualDomainName":"","role":"","mandatory":null}}`,
		string(data))

	var parsed DataElementConcepts
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, []string{"C3", "C1", "C2"}, parsed.Keys())
}

func TestDataElementConceptsRejectsArray(t *testing.T) {
	var d DataElementConcepts
	assert.Error(t, json.Unmarshal([]byte(`[{"C1":{}}]`), &d))
}

func TestSaveJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	path, err := sampleConcept().SaveJSON(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "systolic_blood_pressure.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	parsed, err := ParseJSON(data)
	require.NoError(t, err)
	assert.Equal(t, "C0005823", parsed.ConceptID)
	assert.Equal(t, 2, parsed.DataElementConcepts.Len())
}

func TestSubsetsAreKeptOncePerCode(t *testing.T) {
	c := sampleConcept()
	c.addSubset(model.NewSubset("C66770", "Units"))
	c.addSubset(model.NewSubset("C66742", "No Yes Response"))

	subsets := c.Subsets()
	require.Len(t, subsets, 2)
	assert.Equal(t, "C66770", subsets[0].ConceptCode)
	assert.Equal(t, "C66742", subsets[1].ConceptCode)
}
