package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDebouncerMergesBurst(t *testing.T) {
	input := make(chan ChangeEvent)
	d := NewDebouncer(input, 20*time.Millisecond, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	input <- ChangeEvent{Type: ChangeTypeTerminology, Paths: []string{"/x/ct.yaml"}}
	input <- ChangeEvent{Type: ChangeTypeConceptMap, Paths: []string{"/x/map.cxl"}}
	input <- ChangeEvent{Type: ChangeTypeConceptMap, Paths: []string{"/x/map.cxl"}}

	first := <-d.Output()
	second := <-d.Output()

	if first.Type != ChangeTypeConceptMap || len(first.Paths) != 1 {
		t.Errorf("first event = %+v, want one concept map path", first)
	}
	if second.Type != ChangeTypeTerminology {
		t.Errorf("second event = %+v, want terminology", second)
	}

	select {
	case e := <-d.Output():
		t.Errorf("unexpected extra event %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDebouncerMaxWait(t *testing.T) {
	input := make(chan ChangeEvent)
	d := NewDebouncer(input, time.Hour, 30*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	input <- ChangeEvent{Type: ChangeTypeConfig, Paths: []string{"cmap-bc.toml"}}

	select {
	case e := <-d.Output():
		if e.Type != ChangeTypeConfig {
			t.Errorf("got %v", e.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("max wait did not flush")
	}
}

func TestDebouncerFlushesOnClose(t *testing.T) {
	input := make(chan ChangeEvent, 1)
	d := NewDebouncer(input, time.Hour, time.Hour)
	d.Start(context.Background())

	input <- ChangeEvent{Type: ChangeTypeConceptMap, Paths: []string{"map.cxl"}}
	close(input)

	var got []ChangeEvent
	for e := range d.Output() {
		got = append(got, e)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 event, got %d", len(got))
	}
}

func TestAnalyzeChanges(t *testing.T) {
	a := AnalyzeChanges(ChangeEvent{Type: ChangeTypeConceptMap, Paths: []string{"/maps/VS-SYSBP.cxl"}})
	if a.ReloadConfig {
		t.Error("concept map change should not reload config")
	}
	if a.Reason != "concept map changed: VS-SYSBP.cxl" {
		t.Errorf("Reason = %q", a.Reason)
	}

	if !AnalyzeChanges(ChangeEvent{Type: ChangeTypeConfig}).ReloadConfig {
		t.Error("config change should reload config")
	}
}

func TestFileWatcher(t *testing.T) {
	dir := t.TempDir()
	cxl := filepath.Join(dir, "map.cxl")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{cxl, other} {
		if err := os.WriteFile(p, []byte("v1"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	fw, err := NewFileWatcher(map[ChangeType]string{
		ChangeTypeConceptMap:  cxl,
		ChangeTypeTerminology: "",
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := fw.Start(ctx); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(other, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cxl, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case e := <-fw.Events():
		if e.Type != ChangeTypeConceptMap || len(e.Paths) != 1 || filepath.Base(e.Paths[0]) != "map.cxl" {
			t.Errorf("unexpected event %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change event")
	}

	cancel()
	for range fw.Events() {
	}
}
