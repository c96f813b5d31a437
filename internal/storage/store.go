package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
	"github.com/pkg/errors"

	"github.com/san-kum/pipeflow/internal/director"
)

const (
	metadataFile   = "metadata.json"
	capacitiesFile = "capacities.csv"

	idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	idLength   = 8
)

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return errors.Wrap(os.MkdirAll(s.baseDir, 0755), "create data dir")
}

// RunMetadata describes one stored choreography run.
type RunMetadata struct {
	ID        string              `json:"id"`
	Config    string              `json:"config"`
	Preset    string              `json:"preset,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
	FPS       int                 `json:"fps"`
	Frames    int                 `json:"frames"`
	Duration  float64             `json:"duration"`
	Stages    []string            `json:"stages"`
	Baseline  []int               `json:"baseline"`
	Final     []int               `json:"final"`
	Decisions []director.Decision `json:"decisions"`
	Metrics   map[string]float64  `json:"metrics"`
}

// Save writes the run under a fresh id and returns it. Identity fields
// (Config, Preset, FPS, Stages) come from meta; the rest from result.
func (s *Store) Save(meta RunMetadata, result *director.Result) (string, error) {
	if result == nil {
		return "", errors.New("storage: nil result")
	}
	ts := s.now()
	name := meta.Config
	if name == "" {
		name = "run"
	}
	suffix, err := nanoid.Generate(idAlphabet, idLength)
	if err != nil {
		return "", errors.Wrap(err, "generate run id")
	}
	runID := fmt.Sprintf("%s_%s_%s", name, ts.Format("20060102-150405"), suffix)
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", errors.Wrap(err, "create run dir")
	}

	meta.ID = runID
	meta.Timestamp = ts
	meta.Frames = result.Frames
	meta.Duration = result.Duration
	meta.Baseline = result.Baseline
	meta.Final = result.Final
	meta.Decisions = result.Decisions
	meta.Metrics = result.Metrics

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeCapacities(filepath.Join(runDir, capacitiesFile), result); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create metadata")
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "encode metadata")
}

func writeCapacities(path string, result *director.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create capacities")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if len(result.Capacities) == 0 {
		w.Flush()
		return errors.Wrap(w.Error(), "write capacities")
	}

	header := []string{"time"}
	for i := range result.Capacities[0] {
		header = append(header, fmt.Sprintf("cap%d", i))
	}
	if err := w.Write(header); err != nil {
		return errors.Wrap(err, "write capacities")
	}

	for i, caps := range result.Capacities {
		t := 0.0
		if i < len(result.Times) {
			t = result.Times[i]
		}
		row := []string{strconv.FormatFloat(t, 'f', 6, 64)}
		for _, c := range caps {
			row = append(row, strconv.FormatFloat(c, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return errors.Wrap(err, "write capacities")
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "write capacities")
}

// List returns stored runs, oldest first. Unreadable entries are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, errors.Wrap(err, "read data dir")
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, errors.Wrapf(err, "load run %s", runID)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "decode run %s", runID)
	}
	return &meta, nil
}

// LoadCapacities reads the per-frame capacity history of a run.
func (s *Store) LoadCapacities(runID string) ([][]float64, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, capacitiesFile))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open capacities %s", runID)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "read capacities %s", runID)
	}

	if len(records) < 2 {
		return [][]float64{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	caps := make([][]float64, 0, len(records)-1)

	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		row := make([]float64, 0, len(record)-1)
		for _, field := range record[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				continue
			}
			row = append(row, v)
		}
		times = append(times, t)
		caps = append(caps, row)
	}
	return caps, times, nil
}

// Latest returns the id of the most recent run, or "" if there is none.
func (s *Store) Latest() (string, error) {
	runs, err := s.List()
	if err != nil || len(runs) == 0 {
		return "", err
	}
	return runs[len(runs)-1].ID, nil
}
