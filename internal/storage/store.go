package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/orrery/internal/sim"
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
	ID            string             `json:"id"`
	Preset        string             `json:"preset"`
	Timestamp     time.Time          `json:"timestamp"`
	Seed          int64              `json:"seed"`
	Frames        int                `json:"frames"`
	FrameInterval float64            `json:"frame_interval"`
	GlobalSpeed   float64            `json:"global_speed"`
	Bodies        []string           `json:"bodies"`
	Metrics       map[string]float64 `json:"metrics"`
}

// Recording holds every body's angle per sampled frame.
type Recording struct {
	Names  []string
	Times  []float64
	Angles [][]float64
}

func NewRecording(snap sim.Snapshot) *Recording {
	r := &Recording{}
	for _, b := range snap.Bodies {
		r.Names = append(r.Names, b.Name)
	}
	return r
}

// Add appends the angles in snap at time t.
func (r *Recording) Add(t float64, snap sim.Snapshot) {
	row := make([]float64, len(snap.Bodies))
	for i, b := range snap.Bodies {
		row[i] = b.Angle
	}
	r.Times = append(r.Times, t)
	r.Angles = append(r.Angles, row)
}

// Series returns one body's angles over time.
func (r *Recording) Series(name string) []float64 {
	col := -1
	for i, n := range r.Names {
		if n == name {
			col = i
		}
	}
	if col < 0 {
		return nil
	}
	out := make([]float64, 0, len(r.Angles))
	for _, row := range r.Angles {
		if col < len(row) {
			out = append(out, row[col])
		}
	}
	return out
}

func (s *Store) Save(meta RunMetadata, rec *Recording) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.Preset, time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.Bodies = rec.Names
	meta.Frames = len(rec.Times)

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvPath := filepath.Join(runDir, "angles.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	header := append([]string{"time"}, rec.Names...)
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i := range rec.Times {
		row := []string{strconv.FormatFloat(rec.Times[i], 'f', 6, 64)}
		for _, val := range rec.Angles[i] {
			row = append(row, strconv.FormatFloat(val, 'f', 9, 64))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

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

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadRecording reads a run's angle table back.
func (s *Store) LoadRecording(runID string) (*Recording, error) {
	csvPath := filepath.Join(s.baseDir, runID, "angles.csv")
	file, err := os.Open(csvPath)
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

	rec := &Recording{}
	if len(records) == 0 {
		return rec, nil
	}
	rec.Names = append(rec.Names, records[0][1:]...)

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
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				val = 0
			}
			row = append(row, val)
		}
		rec.Times = append(rec.Times, t)
		rec.Angles = append(rec.Angles, row)
	}

	return rec, nil
}
