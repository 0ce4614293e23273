package report

import (
	"encoding/json"
	"io"
)

func WritePruneJSON(w io.Writer, r PruneReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func WriteWhyJSON(w io.Writer, r WhyReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func WriteImpactJSON(w io.Writer, r ImpactReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
