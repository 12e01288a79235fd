package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/ritzau/cmap-bc/pkg/bc"
	"github.com/ritzau/cmap-bc/pkg/cycles"
	"github.com/ritzau/cmap-bc/pkg/model"
)

// Summary collects what the console report prints
type Summary struct {
	Source      string
	Graph       *model.Graph
	Concept     *bc.BiomedicalConcept
	Diagnostics []bc.Diagnostic
	Unreachable []*model.Vertex
	Cycles      []cycles.ConceptCycle
}

// PrintSummary prints a colored summary of an extraction run
func PrintSummary(w io.Writer, s Summary) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Fprintln(w, "CMAP Biomedical Concept Report")
	bold.Fprintln(w, "==============================")
	fmt.Fprintf(w, "Source: %s\n", s.Source)
	if s.Graph != nil {
		fmt.Fprintf(w, "Concepts: %d, relationships: %d\n", s.Graph.Len(), s.Graph.EdgeCount())
	}
	fmt.Fprintln(w)

	if c := s.Concept; c != nil {
		cyan.Fprintf(w, "%s (%s)\n", c.Label, c.ConceptID)
		printField(w, "Designation", c.Designation)
		printField(w, "Test code", joinCode(c.TestCode, c.TestConceptID))
		printField(w, "Test name", c.TestName)
		printField(w, "LOINC", c.LOINCCode)
		printField(w, "Result type", c.ResultType)
		if len(c.UnitList) > 0 {
			printField(w, "Units", fmt.Sprintf("%v (default %s)", c.UnitList, c.DefaultUnit))
		}
		printField(w, "Timing format", c.Format())
		fmt.Fprintln(w)

		bold.Fprintf(w, "Data element concepts (%d):\n", c.DataElementConcepts.Len())
		for _, code := range c.DataElementConcepts.Keys() {
			q, _ := c.DataElementConcepts.Get(code)
			fmt.Fprintf(w, "  %-28s %-10s %s: %s\n", q.DECName, code, q.ConceptualDomainType, q.ConceptualDomainName)
		}
		fmt.Fprintln(w)
	}

	if len(s.Diagnostics) > 0 {
		yellow.Fprintf(w, "WARNINGS (%d):\n", len(s.Diagnostics))
		for _, d := range s.Diagnostics {
			yellow.Fprintf(w, "  %s\n", d)
		}
		fmt.Fprintln(w)
	}

	if len(s.Unreachable) > 0 {
		red.Fprintf(w, "UNREACHABLE CONCEPTS (%d):\n", len(s.Unreachable))
		for _, v := range s.Unreachable {
			fmt.Fprintf(w, "  %s %q\n", v.ID, v.Label)
		}
		fmt.Fprintln(w)
	}

	if len(s.Cycles) > 0 {
		red.Fprintf(w, "CYCLES (%d):\n", len(s.Cycles))
		for _, c := range s.Cycles {
			fmt.Fprintf(w, "  %s\n", c)
		}
		fmt.Fprintln(w)
	}

	if len(s.Diagnostics)+len(s.Unreachable)+len(s.Cycles) == 0 {
		green.Fprintln(w, "✓ Concept map is clean")
	} else {
		yellow.Fprintf(w, "Summary: %d warning(s), %d unreachable, %d cycle(s)\n",
			len(s.Diagnostics), len(s.Unreachable), len(s.Cycles))
	}
}

func printField(w io.Writer, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(w, "  %-14s %s\n", name+":", value)
}

func joinCode(text, code string) string {
	if code == "" {
		return text
	}
	return fmt.Sprintf("%s (%s)", text, code)
}
