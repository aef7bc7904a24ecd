package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/biodyn/internal/dynamo"
)

type ExportData struct {
	RunMetadata
	Times  []float64   `json:"times"`
	States [][]float64 `json:"states"`
	Inputs [][]float64 `json:"inputs"`
}

// ExportJSON writes the run metadata together with every recorded sample.
func ExportJSON(w io.Writer, meta RunMetadata, result *dynamo.Result) error {
	data := ExportData{
		RunMetadata: meta,
		Times:       result.Times,
		States:      make([][]float64, len(result.States)),
		Inputs:      make([][]float64, len(result.Inputs)),
	}
	if data.Metrics == nil {
		data.Metrics = result.Metrics
	}

	for i, s := range result.States {
		data.States[i] = s
	}
	for i, u := range result.Inputs {
		data.Inputs[i] = u
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
