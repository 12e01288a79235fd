package finder

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("<cmap/>"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFindConceptMaps(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "vital-signs", "VS-SYSBP.cxl"))
	touch(t, filepath.Join(root, "vital-signs", "VS-DIABP.CXL"))
	touch(t, filepath.Join(root, "lab", "LB-GLUC.cxl"))
	touch(t, filepath.Join(root, "lab", "LB-GLUC.yaml"))
	touch(t, filepath.Join(root, ".git", "stale.cxl"))

	files, err := FindConceptMaps(root)
	if err != nil {
		t.Fatalf("FindConceptMaps() error = %v", err)
	}

	want := []string{
		filepath.Join(root, "lab", "LB-GLUC.cxl"),
		filepath.Join(root, "vital-signs", "VS-DIABP.CXL"),
		filepath.Join(root, "vital-signs", "VS-SYSBP.cxl"),
	}
	if len(files) != len(want) {
		t.Fatalf("FindConceptMaps() = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, files[i], want[i])
		}
	}
}

func TestFindConceptMapsMissingRoot(t *testing.T) {
	if _, err := FindConceptMaps(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("FindConceptMaps() on a missing directory should fail")
	}
}
