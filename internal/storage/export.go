package storage

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/san-kum/pipeflow/internal/director"
)

type ExportData struct {
	Config     string              `json:"config"`
	Preset     string              `json:"preset,omitempty"`
	FPS        int                 `json:"fps"`
	Frames     int                 `json:"frames"`
	Duration   float64             `json:"duration"`
	Baseline   []int               `json:"baseline"`
	Final      []int               `json:"final"`
	Decisions  []director.Decision `json:"decisions"`
	Times      []float64           `json:"times"`
	Capacities [][]float64         `json:"capacities"`
	Metrics    map[string]float64  `json:"metrics"`
}

// ExportJSON writes a full run, including per-frame history, as one document.
func ExportJSON(w io.Writer, meta RunMetadata, result *director.Result) error {
	if result == nil {
		return errors.New("storage: nil result")
	}
	data := ExportData{
		Config:     meta.Config,
		Preset:     meta.Preset,
		FPS:        meta.FPS,
		Frames:     result.Frames,
		Duration:   result.Duration,
		Baseline:   result.Baseline,
		Final:      result.Final,
		Decisions:  result.Decisions,
		Times:      result.Times,
		Capacities: result.Capacities,
		Metrics:    result.Metrics,
	}
	return encodeExport(w, data)
}

// Export writes a stored run, metadata plus per-frame history, as one
// document in the same shape as ExportJSON.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	caps, times, err := s.LoadCapacities(runID)
	if err != nil {
		return err
	}
	return encodeExport(w, ExportData{
		Config:     meta.Config,
		Preset:     meta.Preset,
		FPS:        meta.FPS,
		Frames:     meta.Frames,
		Duration:   meta.Duration,
		Baseline:   meta.Baseline,
		Final:      meta.Final,
		Decisions:  meta.Decisions,
		Times:      times,
		Capacities: caps,
		Metrics:    meta.Metrics,
	})
}

func encodeExport(w io.Writer, data ExportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(data), "export run")
}
