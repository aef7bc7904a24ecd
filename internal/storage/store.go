package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/san-kum/biodyn/internal/dynamo"
)

var ErrNoRuns = errors.New("storage: no runs recorded")

// Store keeps one directory per run under baseDir.
type Store struct {
	baseDir string
	log     *zap.Logger
}

func New(baseDir string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{baseDir: baseDir, log: log}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string { return filepath.Join(s.baseDir, runID) }

type RunMetadata struct {
	ID          string             `json:"id"`
	Model       string             `json:"model"`
	Preset      string             `json:"preset,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	SampleEvery int                `json:"sample_every,omitempty"`
	Integrator  string             `json:"integrator"`
	Stimulus    string             `json:"stimulus"`
	Params      map[string]float64 `json:"params,omitempty"`
	Labels      []string           `json:"labels"`
	Metrics     map[string]float64 `json:"metrics"`
	Steps       int                `json:"steps"`
	Errors      []string           `json:"errors,omitempty"`
}

// NewRunID names a run <model>_<unix seconds>_<first 8 hex digits of a uuid>.
func NewRunID(model string, now time.Time) string {
	return fmt.Sprintf("%s_%d_%s", model, now.Unix(), uuid.New().String()[:8])
}

// Save writes metadata.json and states.csv for result and returns the run
// id. ID, Timestamp, Steps, Metrics and Errors are filled from the result.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	now := time.Now()
	meta.ID = NewRunID(meta.Model, now)
	meta.Timestamp = now
	meta.Steps = result.StepsTaken
	for _, e := range result.Errors {
		meta.Errors = append(meta.Errors, e.Error())
	}
	// JSON has no NaN or Inf
	meta.Metrics = make(map[string]float64, len(result.Metrics))
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v := result.Metrics[name]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			meta.Errors = append(meta.Errors, fmt.Sprintf("metric %s is %g", name, v))
			continue
		}
		meta.Metrics[name] = v
	}
	if len(meta.Labels) == 0 && len(result.States) > 0 {
		for i := range result.States[0] {
			meta.Labels = append(meta.Labels, fmt.Sprintf("x%d", i))
		}
	}

	runDir := s.Dir(meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "states.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, meta.Labels, result); err != nil {
		return "", fmt.Errorf("write states: %w", err)
	}

	s.log.Debug("run saved", zap.String("id", meta.ID), zap.Int("samples", len(result.States)))
	return meta.ID, nil
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// WriteCSV writes time, every labelled state component and every input
// component, one row per recorded sample.
func WriteCSV(out io.Writer, labels []string, result *dynamo.Result) error {
	w := csv.NewWriter(out)

	if len(result.States) == 0 {
		w.Flush()
		return w.Error()
	}

	header := append([]string{"time"}, labels...)

	numInputs := 0
	if len(result.Inputs) > 0 {
		numInputs = len(result.Inputs[0])
		for i := 0; i < numInputs; i++ {
			header = append(header, fmt.Sprintf("u%d", i))
		}
	}

	if err := w.Write(header); err != nil {
		return err
	}

	for i := range result.States {
		row := make([]string, 0, len(header))
		row = append(row, formatFloat(result.Times[i]))

		for _, val := range result.States[i] {
			row = append(row, formatFloat(val))
		}

		if i < len(result.Inputs) && len(result.Inputs[i]) == numInputs {
			for _, val := range result.Inputs[i] {
				row = append(row, formatFloat(val))
			}
		} else {
			for j := 0; j < numInputs; j++ {
				row = append(row, "0")
			}
		}

		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			s.log.Debug("skipping run directory", zap.String("dir", entry.Name()), zap.Error(err))
			continue
		}

		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

// Latest returns the most recent run.
func (s *Store) Latest() (*RunMetadata, error) {
	runs, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}
	return &runs[len(runs)-1], nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	return &meta, nil
}

// LoadStates reads states.csv back. The state width comes from the run's
// labels; remaining columns are inputs.
func (s *Store) LoadStates(runID string) (*dynamo.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.Dir(runID), "states.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	res := &dynamo.Result{Metrics: meta.Metrics, StepsTaken: meta.Steps}
	dim := len(meta.Labels)

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) < dim+1 {
			return nil, fmt.Errorf("run %s: row %d has %d columns, want at least %d", runID, i, len(record), dim+1)
		}

		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("run %s: row %d column %d: %w", runID, i, j, err)
			}
			vals[j] = v
		}

		res.Times = append(res.Times, vals[0])
		res.States = append(res.States, dynamo.State(vals[1:dim+1]))
		res.Inputs = append(res.Inputs, dynamo.Input(vals[dim+1:]))
	}

	return res, nil
}
