package handler

import (
	"net/http"

	"github.com/rollcall/gradebook/internal/aggregate"
	"github.com/rollcall/gradebook/internal/errors"
)

// averagesResponse is the JSON shape of GET /averages.
type averagesResponse struct {
	StudentAverages []aggregate.Metric `json:"student_averages"`
	Failures        []failureResponse  `json:"failures,omitempty"`
}

// summaryResponse is the JSON shape of GET /summary.
type summaryResponse struct {
	SubjectSummaries []aggregate.SummaryStats `json:"subject_summaries"`
	Failures         []failureResponse        `json:"failures,omitempty"`
}

type failureResponse struct {
	ID    string `json:"id"`
	Field string `json:"field"`
	Error string `json:"error"`
}

func toFailures(in []*errors.FieldParseError) []failureResponse {
	out := make([]failureResponse, 0, len(in))
	for _, f := range in {
		out = append(out, failureResponse{ID: f.ID, Field: f.Field, Error: f.Err.Error()})
	}
	return out
}

// GetAverages handles GET /averages: one derived average per record,
// computed by the worker pool. Concurrent requests share one computation.
//
// An empty store is NoRecords (nothing to process); a non-empty store whose
// records all fail is NoResults. The two conditions are reported distinctly.
func (h *Handler) GetAverages(w http.ResponseWriter, r *http.Request) {
	v, err, shared := h.flight.Do("averages", func() (any, error) {
		records, err := h.store.List()
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, errors.ErrNoRecords
		}

		res, err := h.engine.ComputeAverages(r.Context(), records)
		if err != nil {
			return nil, err
		}
		if res.AllFailed() {
			return nil, errors.Wrapf(errors.ErrNoResults,
				"all %d records failed", len(records))
		}
		return res, nil
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if shared {
		h.log.Debug("served from shared computation", "path", r.URL.Path)
	}

	res := v.(*aggregate.Result)
	h.respondJSON(w, http.StatusOK, averagesResponse{
		StudentAverages: res.Metrics,
		Failures:        toFailures(res.Failures),
	})
}

// GetSummary handles GET /summary: per-subject distribution statistics.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	v, err, _ := h.flight.Do("summary", func() (any, error) {
		records, err := h.store.List()
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, errors.ErrNoRecords
		}
		return h.engine.ComputeFieldSummaries(r.Context(), records)
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	sum := v.(*aggregate.Summary)
	h.respondJSON(w, http.StatusOK, summaryResponse{
		SubjectSummaries: sum.Fields,
		Failures:         toFailures(sum.Failures),
	})
}
