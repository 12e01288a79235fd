// Package report summarizes a concept map and the BC extracted from it.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ritzau/cmap-bc/pkg/model"
)

// ConceptHeader is the header row of the concept report
var ConceptHeader = []string{
	"id", "label", "type", "root", "role", "mandatory",
	"subset_code", "subset_name", "terms", "targets",
}

// WriteConceptCSV writes one row per vertex in loader order
func WriteConceptCSV(w io.Writer, g *model.Graph) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ConceptHeader); err != nil {
		return err
	}

	for _, v := range g.Vertices() {
		if err := cw.Write(conceptRow(g, v)); err != nil {
			return fmt.Errorf("writing row for %s: %w", v.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveConceptCSV writes the concept report to path
func SaveConceptCSV(path string, g *model.Graph) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteConceptCSV(f, g)
}

func conceptRow(g *model.Graph, v *model.Vertex) []string {
	mandatory := ""
	if v.Mandatory != nil {
		mandatory = strconv.FormatBool(*v.Mandatory)
	}

	var subsetCode, subsetName, terms string
	if v.CTSubset != nil {
		subsetCode = v.CTSubset.ConceptCode
		subsetName = v.CTSubset.Name
		terms = strings.Join(v.CTSubset.ListLabels(), "; ")
	}

	targets := make([]string, 0, len(v.Target))
	for _, t := range g.Targets(v) {
		if t.Relationship == "" {
			targets = append(targets, t.Vertex.Label)
			continue
		}
		targets = append(targets, t.Relationship+": "+t.Vertex.Label)
	}

	return []string{
		v.ID,
		v.Label,
		v.Type,
		strconv.FormatBool(v.IsRoot),
		v.Role,
		mandatory,
		subsetCode,
		subsetName,
		terms,
		strings.Join(targets, "; "),
	}
}
