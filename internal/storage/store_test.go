package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/stepviz/internal/algorithms/classical"
	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/runner"
	"github.com/san-kum/stepviz/internal/step"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func document(t *testing.T, def generator.Definition, inputs generator.Inputs) step.Document {
	t.Helper()
	seq, err := runner.Run(def, inputs)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	resolved := generator.Resolve(def.Metadata().Defaults, inputs)
	return step.NewDocument(def.Metadata().ID, resolved, seq, step.GeneratedByGo, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
}

func TestStoreSaveLoad(t *testing.T) {
	st := newStore(t)
	doc := document(t, classical.BubbleSort, generator.Inputs{"array": []int{3, 1, 2}})

	runID, err := st.Save(doc, "tiny")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if runID == "" {
		t.Fatal("Save() returned empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if meta.Algorithm != "bubble-sort" || meta.Preset != "tiny" {
		t.Errorf("Load() = %+v, want bubble-sort/tiny", meta)
	}
	if meta.Steps != len(doc.Steps) {
		t.Errorf("Steps = %d, want %d", meta.Steps, len(doc.Steps))
	}
	if meta.Terminal != doc.Steps.Last().ID {
		t.Errorf("Terminal = %s, want %s", meta.Terminal, doc.Steps.Last().ID)
	}

	back, err := st.LoadDocument(runID)
	if err != nil {
		t.Fatalf("LoadDocument() error = %v", err)
	}
	want, _ := json.Marshal(doc)
	got, _ := json.Marshal(back)
	if diff := cmp.Diff(string(want), string(got)); diff != "" {
		t.Errorf("document round trip mismatch (-want +got):\n%s", diff)
	}

	rows, err := st.LoadRows(runID)
	if err != nil {
		t.Fatalf("LoadRows() error = %v", err)
	}
	if len(rows) != len(doc.Steps) {
		t.Fatalf("len(rows) = %d, want %d", len(rows), len(doc.Steps))
	}
	for i, r := range rows {
		s := doc.Steps[i]
		if r.Index != i || r.ID != s.ID || r.Title != s.Title || r.Terminal != s.IsTerminal {
			t.Errorf("row %d = %+v, want step %s", i, r, s.ID)
		}
		if len(r.Actions) != len(s.VisualActions) {
			t.Errorf("row %d actions = %v, want %d", i, r.Actions, len(s.VisualActions))
		}
	}
}

func TestStoreList(t *testing.T) {
	st := newStore(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	st.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first, err := st.Save(document(t, classical.BubbleSort, nil), "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := st.Save(document(t, classical.BinarySearch, nil), "")
	if err != nil {
		t.Fatal(err)
	}

	runs, err := st.List("")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	if diff := cmp.Diff([]string{second, first}, ids); diff != "" {
		t.Errorf("List() order mismatch (-want +got):\n%s", diff)
	}

	runs, err = st.List("bubble-sort")
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != first {
		t.Errorf("List(bubble-sort) = %+v, want only %s", runs, first)
	}
}

func TestStoreSameInstant(t *testing.T) {
	st := newStore(t)
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return fixed }

	doc := document(t, classical.BubbleSort, nil)
	a, err := st.Save(doc, "")
	if err != nil {
		t.Fatal(err)
	}
	b, err := st.Save(doc, "")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Errorf("run ids collide: %s", a)
	}
}

func TestStoreReindex(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Save(document(t, classical.QuickSort, nil), ""); err != nil {
		t.Fatal(err)
	}
	st.Close()

	if err := os.Remove(filepath.Join(dir, indexFile)); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	st = newStoreAt(t, dir)
	n, err := st.Reindex()
	if err != nil {
		t.Fatalf("Reindex() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Reindex() = %d, want 1", n)
	}
	runs, _ := st.List("quicksort")
	if len(runs) != 1 {
		t.Errorf("List(quicksort) = %d runs after reindex, want 1", len(runs))
	}
}

func newStoreAt(t *testing.T, dir string) *Store {
	t.Helper()
	st := New(dir)
	if err := st.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestStoreNotFound(t *testing.T) {
	st := newStore(t)
	for _, id := range []string{"missing_1", "../escape", ".hidden", ""} {
		if _, err := st.Load(id); !errors.Is(err, ErrRunNotFound) {
			t.Errorf("Load(%q) error = %v, want ErrRunNotFound", id, err)
		}
	}
	if _, err := st.LoadDocument("missing_1"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("LoadDocument() error = %v, want ErrRunNotFound", err)
	}
}

func TestStoreRequiresInit(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.List(""); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("List() error = %v, want ErrNotInitialized", err)
	}
	if _, err := st.Save(step.Document{}, ""); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Save() error = %v, want ErrNotInitialized", err)
	}
}

func TestStoreRejectsInvalidDocument(t *testing.T) {
	st := newStore(t)
	doc := document(t, classical.BubbleSort, nil)
	doc.FormatVersion = 99
	if _, err := st.Save(doc, ""); !errors.Is(err, step.ErrFormatVersion) {
		t.Errorf("Save() error = %v, want ErrFormatVersion", err)
	}
}
