package cycles

import (
	"reflect"
	"testing"

	"gonum.org/v1/gonum/graph/topo"

	"github.com/ritzau/cmap-bc/pkg/graph"
	"github.com/ritzau/cmap-bc/pkg/model"
)

func conceptGraph(t *testing.T, ids []string, edges [][2]string) *graph.ConceptGraph {
	t.Helper()
	g := model.NewGraph()
	for _, id := range ids {
		if err := g.AddVertex(model.NewVertex(id, id, "Concept", "")); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range edges {
		if err := g.Connect(e[0], e[1], "rel"); err != nil {
			t.Fatal(err)
		}
	}
	return graph.Build(g)
}

func TestFindConceptCycles_NoCycles(t *testing.T) {
	cg := conceptGraph(t, []string{"root", "dec", "cd"}, [][2]string{
		{"root", "dec"},
		{"dec", "cd"},
	})

	if cycles := FindConceptCycles(cg); len(cycles) != 0 {
		t.Errorf("Expected no cycles, but found %d", len(cycles))
	}
}

func TestFindConceptCycles_SimpleCycle(t *testing.T) {
	cg := conceptGraph(t, []string{"root", "a", "b"}, [][2]string{
		{"root", "a"},
		{"a", "b"},
		{"b", "a"},
	})

	cycles := FindConceptCycles(cg)
	if len(cycles) != 1 {
		t.Fatalf("Expected 1 cycle, but found %d", len(cycles))
	}
	if got := cycles[0].IDs(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("IDs() = %v", got)
	}
	if got := cycles[0].String(); got != "a -> b" {
		t.Errorf("String() = %q", got)
	}
}

func TestFindConceptCycles_Multiple(t *testing.T) {
	cg := conceptGraph(t, []string{"x", "y", "root", "a", "b", "c"}, [][2]string{
		{"root", "a"},
		{"a", "b"},
		{"b", "c"},
		{"c", "a"},
		{"x", "y"},
		{"y", "x"},
		{"root", "root"},
	})

	cycles := FindConceptCycles(cg)
	if len(cycles) != 3 {
		t.Fatalf("Expected 3 cycles, but found %d", len(cycles))
	}
	want := [][]string{{"root"}, {"x", "y"}, {"a", "b", "c"}}
	for i, w := range want {
		if got := cycles[i].IDs(); !reflect.DeepEqual(got, w) {
			t.Errorf("cycle %d = %v, want %v", i, got, w)
		}
	}
}

func TestTarjanAgreesWithGonum(t *testing.T) {
	cg := conceptGraph(t, []string{"a", "b", "c", "d", "e"}, [][2]string{
		{"a", "b"}, {"b", "c"}, {"c", "a"},
		{"c", "d"}, {"d", "e"}, {"e", "d"},
	})

	ours := stronglyConnected(cg)

	nontrivial := 0
	for _, scc := range topo.TarjanSCC(cg.Graph()) {
		if len(scc) > 1 {
			nontrivial++
		}
	}
	if len(ours) != nontrivial {
		t.Errorf("found %d components, gonum found %d", len(ours), nontrivial)
	}
}
