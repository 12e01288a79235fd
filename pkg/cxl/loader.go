package cxl

import (
	"context"
	"fmt"

	"github.com/ritzau/cmap-bc/pkg/model"
	"github.com/ritzau/cmap-bc/pkg/nodetype"
)

// Loader supplies a concept map graph.
// Implementations encapsulate where the map comes from, e.g. a CXL export on
// disk, and return a fully linked graph.
type Loader interface {
	// Name returns a short description of the source, used in logs
	Name() string

	// Load reads the graph. It should respect the context for cancellation.
	Load(ctx context.Context) (*model.Graph, error)
}

// FileLoader loads a CXL export from the file system
type FileLoader struct {
	path   string
	parser *Parser
}

// NewFileLoader creates a loader for the CXL file at path
func NewFileLoader(path string, catalog *nodetype.Catalog) *FileLoader {
	return &FileLoader{path: path, parser: NewParser(catalog)}
}

// Name implements Loader
func (l *FileLoader) Name() string {
	return "cxl:" + l.path
}

// Path returns the CXL file path
func (l *FileLoader) Path() string {
	return l.path
}

// Load implements Loader
func (l *FileLoader) Load(ctx context.Context) (*model.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("loading %s: %w", l.path, err)
	}
	return l.parser.ParseFile(l.path)
}
