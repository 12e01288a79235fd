// Package pipeline runs an extraction end to end: load the concept map,
// attach terminology, check the graph, write the exports and build the BC.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ritzau/cmap-bc/pkg/bc"
	"github.com/ritzau/cmap-bc/pkg/cxl"
	"github.com/ritzau/cmap-bc/pkg/cycles"
	"github.com/ritzau/cmap-bc/pkg/export"
	"github.com/ritzau/cmap-bc/pkg/graph"
	"github.com/ritzau/cmap-bc/pkg/logging"
	"github.com/ritzau/cmap-bc/pkg/model"
	"github.com/ritzau/cmap-bc/pkg/nodetype"
	"github.com/ritzau/cmap-bc/pkg/pubsub"
	"github.com/ritzau/cmap-bc/pkg/report"
	"github.com/ritzau/cmap-bc/pkg/store"
	"github.com/ritzau/cmap-bc/pkg/terminology"
)

// Run states published on the status topic
const (
	StateLoading    = "loading"
	StateAttaching  = "attaching"
	StateChecking   = "checking"
	StateExporting  = "exporting"
	StateExtracting = "extracting"
	StateSaving     = "saving"
	StateReady      = "ready"
	StateError      = "error"
)

const totalSteps = 6

// ErrNoLoader is returned when the settings have no concept map loader
var ErrNoLoader = errors.New("no concept map loader")

// Settings configures a Runner. Only Loader and Catalog are required.
type Settings struct {
	Loader      cxl.Loader
	Catalog     *nodetype.Catalog
	Terminology string // CT subset YAML, optional
	OutputDir   string // empty disables all file output
	BaseName    string // export file prefix, e.g. "VS-SYSBP"
	GraphML     bool
	DOT         bool
	Report      bool
	Store       *store.Store
	Publisher   pubsub.Publisher
}

// Result is the outcome of one run
type Result struct {
	Reason      string
	Graph       *model.Graph
	Concept     *bc.BiomedicalConcept
	Diagnostics []bc.Diagnostic
	Unreachable []*model.Vertex
	Cycles      []cycles.ConceptCycle
	Files       []string
	Duration    time.Duration
	Finished    time.Time
	Err         error
}

// Summary converts the result for the console report
func (r *Result) Summary(source string) report.Summary {
	return report.Summary{
		Source:      source,
		Graph:       r.Graph,
		Concept:     r.Concept,
		Diagnostics: r.Diagnostics,
		Unreachable: r.Unreachable,
		Cycles:      r.Cycles,
	}
}

// Runner orchestrates extraction runs. Runs are serialized; each builds
// its own graph and factory.
type Runner struct {
	settings Settings
	log      *logging.Logger

	mu sync.Mutex // one run at a time

	stateMu sync.RWMutex
	status  pubsub.RunStatus
	last    *Result
}

// NewRunner creates a new runner
func NewRunner(s Settings) (*Runner, error) {
	if s.Loader == nil {
		return nil, ErrNoLoader
	}
	if s.Catalog == nil {
		return nil, fmt.Errorf("%w: no node type catalog", nodetype.ErrInvalidCatalog)
	}
	if s.BaseName == "" {
		s.BaseName = "cmap"
	}
	return &Runner{
		settings: s,
		log:      logging.New("pipeline"),
		status:   pubsub.RunStatus{State: "idle", Message: "No run yet", Total: totalSteps},
	}, nil
}

// Status returns the state of the current or last run
func (r *Runner) Status() pubsub.RunStatus {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return r.status
}

// Last returns the result of the last completed run, or nil
func (r *Runner) Last() *Result {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return r.last
}

// Run executes one extraction. Fatal problems abort the run; the returned
// result then carries what was produced before the failure.
func (r *Runner) Run(ctx context.Context, reason string) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	result := &Result{Reason: reason}
	r.log.Info("starting extraction", "reason", reason, "source", r.settings.Loader.Name())
	if p, ok := r.settings.Publisher.(interface{ ResetTopic(string) }); ok {
		p.ResetTopic(pubsub.TopicStatus)
	}

	err := r.run(ctx, result, reason)

	result.Duration = time.Since(start)
	result.Finished = time.Now()
	result.Err = err

	r.stateMu.Lock()
	r.last = result
	r.stateMu.Unlock()

	if err != nil {
		r.publishStatus(StateError, err.Error(), 0, reason)
		r.log.Error("extraction failed", "reason", reason, "error", err)
		return result, err
	}

	r.publishStatus(StateReady, "Extraction complete", totalSteps, reason)
	r.publishConcept(result)
	r.log.Info("extraction complete",
		"designation", result.Concept.Designation,
		"qualifiers", result.Concept.DataElementConcepts.Len(),
		"warnings", len(result.Diagnostics),
		"durationMs", result.Duration.Milliseconds())
	return result, nil
}

func (r *Runner) run(ctx context.Context, result *Result, reason string) error {
	s := r.settings

	// Phase 1: load the concept map
	r.publishStatus(StateLoading, "Loading "+s.Loader.Name(), 1, reason)
	g, err := s.Loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading concept map: %w", err)
	}
	result.Graph = g
	r.log.Debug("loaded concept map", "vertices", g.Len(), "edges", g.EdgeCount())

	// Phase 2: attach CT subsets
	if s.Terminology != "" {
		r.publishStatus(StateAttaching, "Attaching terminology", 2, reason)
		ct, err := terminology.Load(s.Terminology)
		if err != nil {
			return err
		}
		attached, err := ct.Attach(g, r.domainType())
		if err != nil {
			return fmt.Errorf("attaching terminology: %w", err)
		}
		r.log.Debug("attached terminology", "subsets", attached, "declared", ct.Len())
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Phase 3: structural checks, warnings only
	r.publishStatus(StateChecking, "Checking graph structure", 3, reason)
	r.check(result)

	// Phase 4: exports, before extraction so a failing map can still be inspected
	r.publishStatus(StateExporting, "Writing exports", 4, reason)
	if err := r.export(result); err != nil {
		return err
	}

	// Phase 5: build the BC
	r.publishStatus(StateExtracting, "Creating biomedical concept", 5, reason)
	factory, err := bc.NewFactory(g, s.Catalog)
	if err != nil {
		return err
	}
	concept, err := factory.Create()
	result.Diagnostics = factory.Diagnostics()
	if err != nil {
		return fmt.Errorf("creating biomedical concept: %w", err)
	}
	result.Concept = concept

	// Phase 6: persist. The BC file is written last so a failed store
	// leaves no BC behind.
	r.publishStatus(StateSaving, "Saving biomedical concept", 6, reason)
	if s.Store != nil {
		if err := s.Store.Save(ctx, concept); err != nil {
			return fmt.Errorf("storing biomedical concept: %w", err)
		}
	}
	if s.OutputDir != "" {
		path, err := concept.SaveJSON(s.OutputDir)
		if err != nil {
			return err
		}
		result.Files = append(result.Files, path)
	}
	return nil
}

func (r *Runner) domainType() string {
	label, err := r.settings.Catalog.LabelOf(nodetype.ConceptualDomain)
	if err != nil {
		return bc.DefaultConceptualDomainLabel
	}
	return label
}

func (r *Runner) check(result *Result) {
	cg := graph.Build(result.Graph)

	if root, err := result.Graph.Root(); err == nil {
		unreachable, err := cg.Unreachable(root.ID)
		if err == nil {
			result.Unreachable = unreachable
		}
		for _, v := range unreachable {
			r.log.Warn("concept not reachable from root", "vertex", v.ID, "label", v.Label)
		}
	}

	result.Cycles = cycles.FindConceptCycles(cg)
	for _, c := range result.Cycles {
		r.log.Warn("cycle in concept map", "concepts", c.String())
	}
}

func (r *Runner) export(result *Result) error {
	s := r.settings
	if s.OutputDir == "" {
		return nil
	}
	base := filepath.Join(s.OutputDir, s.BaseName)

	type output struct {
		enabled bool
		path    string
		write   func(string) error
	}
	outputs := []output{
		{s.GraphML, base + ".graphml", func(p string) error { return export.SaveGraphML(p, result.Graph) }},
		{s.DOT, base + ".dot", func(p string) error { return export.SaveDOT(p, result.Graph, s.BaseName) }},
		{s.Report, base + "-report.csv", func(p string) error { return report.SaveConceptCSV(p, result.Graph) }},
	}

	if err := os.MkdirAll(s.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	for _, o := range outputs {
		if !o.enabled {
			continue
		}
		if err := o.write(o.path); err != nil {
			return fmt.Errorf("writing %s: %w", o.path, err)
		}
		result.Files = append(result.Files, o.path)
		r.log.Debug("wrote export", "path", o.path)
	}
	return nil
}

func (r *Runner) publishStatus(state, message string, step int, reason string) {
	status := pubsub.RunStatus{State: state, Message: message, Step: step, Total: totalSteps, Reason: reason}

	r.stateMu.Lock()
	r.status = status
	r.stateMu.Unlock()

	if r.settings.Publisher == nil {
		return
	}
	if err := r.settings.Publisher.Publish(pubsub.TopicStatus, state, status); err != nil {
		r.log.Warn("failed to publish status", "state", state, "error", err)
	}
}

func (r *Runner) publishConcept(result *Result) {
	if r.settings.Publisher == nil {
		return
	}
	update := pubsub.ConceptUpdate{
		ConceptID:   result.Concept.ConceptID,
		Designation: result.Concept.Designation,
		Qualifiers:  result.Concept.DataElementConcepts.Len(),
		Warnings:    len(result.Diagnostics),
	}
	if err := r.settings.Publisher.Publish(pubsub.TopicConcept, "updated", update); err != nil {
		r.log.Warn("failed to publish concept", "error", err)
	}
}
