package driver

import (
	"encoding/json"
	"fmt"

	"mcc/internal/diag"
	"mcc/internal/observ"
	"mcc/internal/source"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	Path    string               `json:"path,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// timingDiagnostic packs a timing report into an informational diagnostic
// whose single note carries the JSON payload.
func timingDiagnostic(at source.Span, path string, rep observ.Report) diag.Diagnostic {
	payload := timingPayload{Kind: "unit", Path: path, TotalMS: rep.TotalMS, Phases: rep.Phases}
	msg := fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.TotalMS)
	if path != "" {
		msg = fmt.Sprintf("%s, %s", msg, path)
	}
	d := diag.Diagnostic{
		Severity: diag.SevInfo,
		Code:     diag.ObsTimings,
		Stage:    diag.StageDriver,
		Message:  msg,
		Primary:  at,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return d
	}
	d.Notes = []diag.Note{{Span: at, Msg: string(data)}}
	return d
}
