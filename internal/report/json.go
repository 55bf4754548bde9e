package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/verte-zerg/tunecurve/internal/dataset"
	"github.com/verte-zerg/tunecurve/internal/model"
	"github.com/verte-zerg/tunecurve/internal/tuning"
)

type jsonDocument struct {
	Summary   jsonSummary    `json:"summary"`
	Decisions []jsonDecision `json:"decisions"`
	Rejected  []string       `json:"rejected,omitempty"`
}

type jsonSummary struct {
	Total        int `json:"total"`
	OnCurve      int `json:"on_curve"`
	BelowCurve   int `json:"below_curve"`
	AboveCurve   int `json:"above_curve"`
	NoCentroid   int `json:"no_centroid"`
	MissingCurve int `json:"missing_curve"`
}

type jsonDecision struct {
	ID           int           `json:"id"`
	Level        int           `json:"level"`
	Attempts     int           `json:"attempts"`
	Target       *int          `json:"target,omitempty"`
	Action       *model.Action `json:"action,omitempty"`
	Params       *model.Params `json:"params,omitempty"`
	FromCentroid bool          `json:"from_centroid"`
	Error        string        `json:"error,omitempty"`
}

// RenderJSON writes the decisions, summary and rejections as one JSON document.
func RenderJSON(w io.Writer, outcomes []tuning.Outcome, malformed []*dataset.MalformedRecordError, rejected []tuning.Rejection) error {
	s := tuning.Summarize(outcomes)
	doc := jsonDocument{
		Summary: jsonSummary{
			Total:        s.Total,
			OnCurve:      s.OnCurve,
			BelowCurve:   s.BelowCurve,
			AboveCurve:   s.AboveCurve,
			NoCentroid:   s.NoCentroid,
			MissingCurve: s.MissingCurve,
		},
		Decisions: make([]jsonDecision, 0, len(outcomes)),
	}
	for _, o := range outcomes {
		doc.Decisions = append(doc.Decisions, toJSONDecision(o))
	}
	for _, m := range malformed {
		doc.Rejected = append(doc.Rejected, m.Error())
	}
	for _, r := range rejected {
		doc.Rejected = append(doc.Rejected, r.Err.Error())
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

func toJSONDecision(o tuning.Outcome) jsonDecision {
	d := o.Decision
	out := jsonDecision{
		ID:       o.Record.ID,
		Level:    o.Record.Level,
		Attempts: o.Record.Attempts,
	}
	if o.Err != nil {
		out.Error = o.Err.Error()
	}
	if errors.Is(o.Err, tuning.ErrMissingCurveEntry) {
		return out
	}
	target, action := d.Target, d.Action
	out.Target = &target
	out.Action = &action
	if d.HasParams {
		params := d.Params
		out.Params = &params
		out.FromCentroid = d.FromCentroid
	}
	return out
}
