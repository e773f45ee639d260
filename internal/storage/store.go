// Package storage keeps saved runs on disk. Each run gets a directory under
// the base dir holding metadata.json, the full document as steps.json and a
// flat steps.csv; index.db (sqlite) lists runs without walking directories.
package storage

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/san-kum/stepviz/internal/step"
)

const (
	metadataFile = "metadata.json"
	stepsFile    = "steps.json"
	csvFile      = "steps.csv"
	indexFile    = "index.db"
)

var (
	ErrRunNotFound    = errors.New("storage: run not found")
	ErrNotInitialized = errors.New("storage: store not initialized")
)

type Store struct {
	baseDir string
	db      *sql.DB
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

// Init creates the base directory and opens the run index.
func (s *Store) Init() error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return err
	}
	db, err := sql.Open("sqlite", filepath.Join(s.baseDir, indexFile))
	if err != nil {
		return fmt.Errorf("storage: open index: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return fmt.Errorf("storage: set busy timeout: %w", err)
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	algorithm TEXT NOT NULL,
	preset TEXT NOT NULL DEFAULT '',
	steps INTEGER NOT NULL,
	created_at INTEGER NOT NULL
)`); err != nil {
		_ = db.Close()
		return fmt.Errorf("storage: initialize schema: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS runs_algorithm ON runs (algorithm)`); err != nil {
		_ = db.Close()
		return fmt.Errorf("storage: initialize schema: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

type RunMetadata struct {
	ID        string         `json:"id"`
	Algorithm string         `json:"algorithm"`
	Preset    string         `json:"preset,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Steps     int            `json:"steps"`
	Terminal  string         `json:"terminal"`
	Inputs    map[string]any `json:"inputs"`
}

// Save writes doc as a new run and returns its id.
func (s *Store) Save(doc step.Document, preset string) (string, error) {
	if s.db == nil {
		return "", ErrNotInitialized
	}
	if err := doc.Validate(); err != nil {
		return "", fmt.Errorf("storage: refusing invalid document: %w", err)
	}

	ts := s.now()
	runID, runDir, err := s.makeRunDir(doc.AlgorithmID, ts)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Algorithm: doc.AlgorithmID,
		Preset:    preset,
		Timestamp: ts.UTC(),
		Steps:     len(doc.Steps),
		Terminal:  doc.Steps.Last().ID,
		Inputs:    doc.Inputs,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, stepsFile), doc); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, csvFile), doc.Steps); err != nil {
		return "", err
	}
	if err := s.index(meta); err != nil {
		return "", err
	}
	return runID, nil
}

// makeRunDir claims a fresh <algorithm>_<unixnano> directory.
func (s *Store) makeRunDir(algorithm string, ts time.Time) (string, string, error) {
	nano := ts.UnixNano()
	for {
		runID := fmt.Sprintf("%s_%d", algorithm, nano)
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", "", err
		}
		nano++
	}
}

func (s *Store) index(meta RunMetadata) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (id, algorithm, preset, steps, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		 algorithm = excluded.algorithm,
		 preset = excluded.preset,
		 steps = excluded.steps,
		 created_at = excluded.created_at`,
		meta.ID, meta.Algorithm, meta.Preset, meta.Steps, meta.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("storage: index run %s: %w", meta.ID, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

func writeCSV(path string, seq step.Sequence) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"index", "id", "title", "phase", "actions", "terminal"}); err != nil {
		return err
	}
	for _, st := range seq {
		types := make([]string, len(st.VisualActions))
		for i, a := range st.VisualActions {
			types[i] = a.Type
		}
		row := []string{
			strconv.Itoa(st.Index),
			st.ID,
			st.Title,
			st.Phase,
			strings.Join(types, ";"),
			strconv.FormatBool(st.IsTerminal),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// List returns indexed runs, newest first. An empty algorithm lists all.
func (s *Store) List(algorithm string) ([]RunMetadata, error) {
	if s.db == nil {
		return nil, ErrNotInitialized
	}
	query := `SELECT id, algorithm, preset, steps, created_at FROM runs`
	var args []any
	if algorithm != "" {
		query += ` WHERE algorithm = ?`
		args = append(args, algorithm)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		var meta RunMetadata
		var created int64
		if err := rows.Scan(&meta.ID, &meta.Algorithm, &meta.Preset, &meta.Steps, &created); err != nil {
			return nil, fmt.Errorf("storage: scan run row: %w", err)
		}
		meta.Timestamp = time.Unix(0, created).UTC()
		runs = append(runs, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate run rows: %w", err)
	}
	return runs, nil
}

// Reindex rebuilds index.db from the run directories on disk and returns
// how many runs it found. Directories without readable metadata are skipped.
func (s *Store) Reindex() (int, error) {
	if s.db == nil {
		return 0, ErrNotInitialized
	}
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return 0, err
	}
	if _, err := s.db.Exec(`DELETE FROM runs`); err != nil {
		return 0, fmt.Errorf("storage: clear index: %w", err)
	}

	n := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		if err := s.index(*meta); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (s *Store) runDir(runID string) (string, error) {
	if runID == "" || runID != filepath.Base(runID) || strings.HasPrefix(runID, ".") {
		return "", fmt.Errorf("%w: %q", ErrRunNotFound, runID)
	}
	return filepath.Join(s.baseDir, runID), nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := readJSON(filepath.Join(dir, metadataFile), runID, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadDocument reads a run's steps.json back and validates it.
func (s *Store) LoadDocument(runID string) (step.Document, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return step.Document{}, err
	}
	var doc step.Document
	if err := readJSON(filepath.Join(dir, stepsFile), runID, &doc); err != nil {
		return step.Document{}, err
	}
	if err := doc.Validate(); err != nil {
		return step.Document{}, fmt.Errorf("storage: run %s: %w", runID, err)
	}
	return doc, nil
}

// Row is one line of steps.csv.
type Row struct {
	Index    int
	ID       string
	Title    string
	Phase    string
	Actions  []string
	Terminal bool
}

func (s *Store) LoadRows(runID string) ([]Row, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(dir, csvFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Row{}, nil
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		idx, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("storage: run %s: bad index %q", runID, rec[0])
		}
		terminal, _ := strconv.ParseBool(rec[5])
		var actions []string
		if rec[4] != "" {
			actions = strings.Split(rec[4], ";")
		}
		rows = append(rows, Row{
			Index:    idx,
			ID:       rec[1],
			Title:    rec[2],
			Phase:    rec[3],
			Actions:  actions,
			Terminal: terminal,
		})
	}
	return rows, nil
}

func readJSON(path, runID string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("storage: run %s: %w", runID, err)
	}
	return nil
}
