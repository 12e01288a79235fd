package export

import (
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/cmap-bc/pkg/graph"
	"github.com/ritzau/cmap-bc/pkg/model"
)

func sampleGraph(t *testing.T) *model.Graph {
	t.Helper()
	g := model.NewGraph()
	root := model.NewVertex("root", "Systolic Blood Pressure (C0005823)", "Observation Concept", "#FF0000")
	root.IsRoot = true
	require.NoError(t, g.AddVertex(root))
	require.NoError(t, g.AddVertex(model.NewVertex("dec", "Result (C70856)", "Data Element Concept", "#00FF00")))
	require.NoError(t, g.AddVertex(model.NewVertex("cd", "Numeric", "Conceptual Domain", "#0000FF")))
	require.NoError(t, g.Connect("root", "dec", "has"))
	require.NoError(t, g.Connect("dec", "cd", "value"))
	require.NoError(t, g.Connect("dec", "cd", "datatype"))
	return g
}

func TestWriteGraphML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGraphML(&buf, sampleGraph(t)))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"))

	var doc graphMLDoc
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "directed", doc.Graph.EdgeDefault)
	assert.Len(t, doc.Keys, 6)

	require.Len(t, doc.Graph.Nodes, 3)
	root := doc.Graph.Nodes[0]
	assert.Equal(t, "root", root.ID)
	assert.Equal(t, []graphMLData{
		{Key: "d0", Value: "root"},
		{Key: "d1", Value: "Systolic Blood Pressure (C0005823)"},
		{Key: "d2", Value: "Observation Concept"},
		{Key: "d3", Value: "Systolic Blood Pressure (C0005823)"},
		{Key: "d4", Value: "#FF0000"},
	}, root.Data)

	require.Len(t, doc.Graph.Edges, 2)
	assert.Equal(t, "has", doc.Graph.Edges[0].Data[0].Value)
	assert.Equal(t, "dec", doc.Graph.Edges[1].Source)
	assert.Equal(t, "value, datatype", doc.Graph.Edges[1].Data[0].Value)
}

func TestWriteDOT(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDOT(&buf, graph.Build(sampleGraph(t)), "sysbp"))

	out := buf.String()
	assert.Contains(t, out, "digraph sysbp {")
	assert.Contains(t, out, "root")
	assert.Contains(t, out, `"Systolic Blood Pressure (C0005823)"`)
	assert.Contains(t, out, `"value, datatype"`)
}

func TestSaveFiles(t *testing.T) {
	dir := t.TempDir()
	g := sampleGraph(t)

	graphml := filepath.Join(dir, "sysbp.graphml")
	require.NoError(t, SaveGraphML(graphml, g))
	dotFile := filepath.Join(dir, "sysbp.dot")
	require.NoError(t, SaveDOT(dotFile, g, "sysbp"))

	for _, path := range []string{graphml, dotFile} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	assert.Error(t, SaveGraphML(filepath.Join(dir, "missing", "x.graphml"), g))
}
