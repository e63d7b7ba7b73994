package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/san-kum/stockflow/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	seriesFile   = "series.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string           `json:"id"`
	Model     string           `json:"model"`
	Source    string           `json:"source,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Dt        float64          `json:"dt"`
	Duration  float64          `json:"duration"`
	Steps     int              `json:"steps"`
	Stocks    []string         `json:"stocks"`
	Params    map[string]Float `json:"params,omitempty"`
	Metrics   map[string]Float `json:"metrics,omitempty"`
}

// RunInfo describes how a result was produced. Source names a preset or model
// file when there is one.
type RunInfo struct {
	Source   string
	Duration float64
	Params   map[string]float64
}

// Save writes result into a new run directory and returns the run id. A failed
// save removes the directory again.
func (s *Store) Save(info RunInfo, result *dynamo.Result) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}

	now := time.Now()
	base := fmt.Sprintf("%s_%d", result.Model, now.UnixNano())
	runID := base
	runDir := filepath.Join(s.baseDir, runID)
	for i := 1; ; i++ {
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return "", err
		}
		runID = fmt.Sprintf("%s_%d", base, i)
		runDir = filepath.Join(s.baseDir, runID)
	}

	if err := s.writeRun(runDir, runID, now, info, result); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	return runID, nil
}

func (s *Store) writeRun(runDir, runID string, now time.Time, info RunInfo, result *dynamo.Result) error {
	meta := RunMetadata{
		ID:        runID,
		Model:     result.Model,
		Source:    info.Source,
		Timestamp: now,
		Dt:        result.TimeStep,
		Duration:  info.Duration,
		Steps:     result.StepsTaken,
		Stocks:    result.StockIDs(),
		Params:    toFloatMap(info.Params),
		Metrics:   toFloatMap(result.Metrics),
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	f, err := os.Create(filepath.Join(runDir, seriesFile))
	if err != nil {
		return err
	}
	if err := WriteSeries(f, result); err != nil {
		f.Close()
		return fmt.Errorf("write series: %w", err)
	}
	return f.Close()
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
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadResult rebuilds the recorded result of a run.
func (s *Store) LoadResult(runID string) (*dynamo.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.baseDir, runID, seriesFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	result, err := ReadSeries(f)
	if err != nil {
		return nil, fmt.Errorf("read series: %w", err)
	}
	result.Model = meta.Model
	result.TimeStep = meta.Dt
	result.StepsTaken = meta.Steps
	for k, v := range meta.Metrics {
		result.Metrics[k] = float64(v)
	}
	return result, nil
}

// Latest returns the id of the most recent run.
func (s *Store) Latest() (string, error) {
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("no runs in %s", s.baseDir)
	}
	return runs[len(runs)-1].ID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
