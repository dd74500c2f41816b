package web

// handlers_common.go holds request parsing and response shaping shared by
// the JSON and HTML handlers.

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/popstat/internal/core"
	"github.com/JonMunkholm/popstat/internal/web/middleware"
	"github.com/JonMunkholm/popstat/internal/web/templates"
)

// analyzeRequest reads the variant and year selection from the query.
func analyzeRequest(r *http.Request) core.AnalyzeRequest {
	q := r.URL.Query()
	return core.AnalyzeRequest{
		Variant: strings.TrimSpace(q.Get("variant")),
		Year:    strings.TrimSpace(q.Get("year")),
	}
}

// parseIntParam parses an optional non-negative integer query parameter.
// An absent parameter yields 0.
func parseIntParam(r *http.Request, name string) (int, error) {
	val := strings.TrimSpace(r.URL.Query().Get(name))
	if val == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return 0, &core.QueryError{Param: name, Reason: "must be a non-negative integer"}
	}
	return i, nil
}

// clientIP returns the address used for rate limiting.
func clientIP(r *http.Request) string {
	if addr, ok := middleware.ParseAddr(r.RemoteAddr); ok {
		return addr.String()
	}
	return r.RemoteAddr
}

// pointJSON is one age of the selected year, ready for a bar chart.
type pointJSON struct {
	AgeLabel string     `json:"ageLabel"`
	Age      int        `json:"age"`
	Value    core.Value `json:"value"`
}

// sliceResponse is the chart hand-off for one variant and year.
type sliceResponse struct {
	RunID       string           `json:"runId"`
	Variant     string           `json:"variant"`
	Year        string           `json:"year"`
	Years       []string         `json:"years"`
	Points      []pointJSON      `json:"points"`
	NoData      bool             `json:"noData"`
	Diagnostics core.Diagnostics `json:"diagnostics"`
}

func newSliceResponse(an *core.Analysis) sliceResponse {
	resp := sliceResponse{
		RunID:       an.Frame.RunID,
		Variant:     an.Frame.Variant,
		Year:        an.Year,
		Years:       an.Frame.Labels,
		Points:      make([]pointJSON, 0, an.Slice.Len()),
		Diagnostics: an.Frame.Diagnostics,
	}
	if resp.Years == nil {
		resp.Years = []string{}
	}
	for _, rec := range an.Slice.Records {
		resp.Points = append(resp.Points, pointJSON{
			AgeLabel: rec.AgeLabel,
			Age:      rec.Age.Int,
			Value:    rec.Value,
		})
	}
	resp.NoData = len(resp.Points) == 0
	return resp
}

// sliceData converts an analysis into the page model.
func (s *Server) sliceData(an *core.Analysis) templates.SliceData {
	d := templates.SliceData{
		RunID:   an.Frame.RunID,
		Variant: an.Frame.Variant,
		Year:    an.Year,
		Years:   an.Frame.Labels,
	}
	for _, v := range s.service.Variants() {
		d.Variants = append(d.Variants, templates.VariantLink{
			Key:      v.Key,
			Label:    v.Label,
			Selected: v.Key == an.Frame.Variant,
		})
	}
	for _, rec := range an.Slice.Records {
		d.Rows = append(d.Rows, templates.Row{
			AgeLabel: rec.AgeLabel,
			Age:      rec.Age.Int,
			Value:    rec.Value.Float64,
			HasValue: rec.Value.Valid,
		})
	}
	return d
}
