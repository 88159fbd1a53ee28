package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	Meta    RunMetadata  `json:"meta"`
	Records []ExportTick `json:"ticks"`
}

type ExportTick struct {
	Tick int    `json:"tick"`
	A1   Number `json:"a1"`
	A2   Number `json:"a2"`
	V1   Number `json:"v1"`
	V2   Number `json:"v2"`
	X1   Number `json:"x1"`
	Y1   Number `json:"y1"`
	X2   Number `json:"x2"`
	Y2   Number `json:"y2"`
}

func ExportJSON(w io.Writer, meta RunMetadata, records []Record) error {
	data := ExportData{
		Meta:    meta,
		Records: make([]ExportTick, len(records)),
	}
	for i, r := range records {
		data.Records[i] = ExportTick{
			Tick: r.Tick,
			A1:   Number(r.A1), A2: Number(r.A2), V1: Number(r.V1), V2: Number(r.V2),
			X1: Number(r.Bob1.X), Y1: Number(r.Bob1.Y),
			X2: Number(r.Bob2.X), Y2: Number(r.Bob2.Y),
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
