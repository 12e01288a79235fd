package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/cmap-bc/pkg/bc"
	"github.com/ritzau/cmap-bc/pkg/model"
	"github.com/ritzau/cmap-bc/pkg/nodetype"
	"github.com/ritzau/cmap-bc/pkg/terminology"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "bc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// extract builds a BC with a units subset through the factory, so that the
// unexported subset list is populated
func extract(t *testing.T, label string, units ...string) *bc.BiomedicalConcept {
	t.Helper()
	g := model.NewGraph()
	root := model.NewVertex("root", label, "Observation Concept", "")
	root.IsRoot = true
	dec := model.NewVertex("u", "Unit (C44256)", "Data Element Concept", "")
	dec.Role = "qualifier.variable.units"
	cd := model.NewVertex("cd", "Units", "Conceptual Domain", "")
	subset := model.NewSubset("C66770", "Units for Vital Signs Results")
	for i, u := range units {
		subset.AddTerm("T"+u, u, i == 0)
	}
	cd.SetCTSubset(subset)
	for _, v := range []*model.Vertex{root, dec, cd} {
		require.NoError(t, g.AddVertex(v))
	}
	require.NoError(t, g.Connect("root", "u", "has"))
	require.NoError(t, g.Connect("u", "cd", "value"))

	catalog, err := nodetype.NewCatalog(nodetype.Defaults())
	require.NoError(t, err)
	f, err := bc.NewFactory(g, catalog)
	require.NoError(t, err)
	c, err := f.Create()
	require.NoError(t, err)
	return c
}

func TestSaveAndGet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	c := extract(t, "Systolic Blood Pressure (C0005823)", "mmHg", "kPa")
	require.NoError(t, s.Save(ctx, c))

	got, err := s.Get(ctx, "C0005823")
	require.NoError(t, err)
	assert.Equal(t, c.Designation, got.Designation)
	assert.Equal(t, []string{"mmHg", "kPa"}, got.UnitList)
	assert.Equal(t, c.DataElementConcepts.Keys(), got.DataElementConcepts.Keys())

	subset, err := s.Subset(ctx, "C0005823", "C66770")
	require.NoError(t, err)
	assert.Equal(t, "Units for Vital Signs Results", subset.Name)
	assert.Equal(t, []string{"mmHg (TmmHg) default", "kPa (TkPa)"}, subset.ListLabels())

	ids, err := s.ConceptsWithRole(ctx, "QUALIFIER.VARIABLE.UNITS")
	require.NoError(t, err)
	assert.Equal(t, []string{"C0005823"}, ids)
}

func TestSaveReplaces(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, extract(t, "Systolic Blood Pressure (C0005823)", "mmHg", "kPa")))
	require.NoError(t, s.Save(ctx, extract(t, "Systolic Blood Pressure (C0005823)", "mmHg")))

	got, err := s.Get(ctx, "C0005823")
	require.NoError(t, err)
	assert.Equal(t, []string{"mmHg"}, got.UnitList)

	subset, err := s.Subset(ctx, "C0005823", "C66770")
	require.NoError(t, err)
	assert.Len(t, subset.Terms, 1)

	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSubsetSharedByTwoDomains(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	catalog, err := terminology.Parse([]byte(`subsets:
  - conceptualDomain: CD1
    conceptCode: C66742
    name: No Yes Response
    terms:
      - {conceptCode: C49488, submissionValue: "Y", default: "yes"}
      - {conceptCode: C49487, submissionValue: "N"}
  - conceptualDomain: CD2
    conceptCode: C66742
    name: No Yes Response
    terms:
      - {conceptCode: C49488, submissionValue: "Y", default: "yes"}
      - {conceptCode: C49487, submissionValue: "N"}
`))
	require.NoError(t, err)

	g := model.NewGraph()
	root := model.NewVertex("root", "Systolic Blood Pressure (C0005823)", "Observation Concept", "")
	root.IsRoot = true
	fasting := model.NewVertex("f", "Fasting Status (C93563)", "Data Element Concept", "")
	fasting.Role = "qualifier.variable"
	done := model.NewVertex("d", "Completion Status (C62182)", "Data Element Concept", "")
	done.Role = "qualifier.record"
	for _, v := range []*model.Vertex{
		root, fasting, done,
		model.NewVertex("cd1", "CD1", "Conceptual Domain", ""),
		model.NewVertex("cd2", "CD2", "Conceptual Domain", ""),
	} {
		require.NoError(t, g.AddVertex(v))
	}
	require.NoError(t, g.Connect("root", "f", "has"))
	require.NoError(t, g.Connect("root", "d", "has"))
	require.NoError(t, g.Connect("f", "cd1", "value"))
	require.NoError(t, g.Connect("d", "cd2", "value"))

	n, err := catalog.Attach(g, "Conceptual Domain")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	types, err := nodetype.NewCatalog(nodetype.Defaults())
	require.NoError(t, err)
	f, err := bc.NewFactory(g, types)
	require.NoError(t, err)
	c, err := f.Create()
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, c))

	subset, err := s.Subset(ctx, "C0005823", "C66742")
	require.NoError(t, err)
	assert.Equal(t, []string{"Y (C49488) default", "N (C49487)"}, subset.ListLabels())
}

func TestList(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, extract(t, "Systolic Blood Pressure (C0005823)", "mmHg")))
	require.NoError(t, s.Save(ctx, extract(t, "Diastolic Blood Pressure (C0005824)", "mmHg")))

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "diastolic_blood_pressure", entries[0].Designation)
	assert.Equal(t, "C0005823", entries[1].ConceptID)
	assert.False(t, entries[1].SavedAt.IsZero())
}

func TestNotFound(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "C0")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Subset(ctx, "C0", "C1")
	assert.ErrorIs(t, err, ErrNotFound)
}
