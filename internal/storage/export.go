package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	Run    RunMetadata `json:"run"`
	Times  []float64   `json:"times"`
	Angles [][]float64 `json:"angles"`
}

// ExportJSON writes a run and its angle table as indented JSON.
func ExportJSON(w io.Writer, meta RunMetadata, rec *Recording) error {
	data := ExportData{
		Run:    meta,
		Times:  rec.Times,
		Angles: rec.Angles,
	}
	if data.Run.Bodies == nil {
		data.Run.Bodies = rec.Names
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
