package watcher

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ChangeAnalysis describes what a change requires before the next run
type ChangeAnalysis struct {
	ReloadConfig bool // node types or paths may have changed
	Reason       string
	ChangedFiles []string
}

// AnalyzeChanges decides how to react to a change event. Every change
// leads to a full extraction; a config change also rebuilds the runner.
func AnalyzeChanges(event ChangeEvent) *ChangeAnalysis {
	names := make([]string, len(event.Paths))
	for i, p := range event.Paths {
		names[i] = filepath.Base(p)
	}

	return &ChangeAnalysis{
		ReloadConfig: event.Type == ChangeTypeConfig,
		Reason:       fmt.Sprintf("%s changed: %s", event.Type, strings.Join(names, ", ")),
		ChangedFiles: event.Paths,
	}
}
