package finder

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// ConceptMapExt is the extension of CmapTools XML exports
const ConceptMapExt = ".cxl"

// FindConceptMaps walks root and returns all CXL files in lexical order,
// skipping hidden directories such as .git.
func FindConceptMaps(root string) ([]string, error) {
	var maps []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.EqualFold(filepath.Ext(path), ConceptMapExt) {
			maps = append(maps, path)
		}
		return nil
	})

	sort.Strings(maps)
	return maps, err
}
