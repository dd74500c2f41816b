package web

import (
	"bytes"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/JonMunkholm/popstat/internal/core"
	"github.com/JonMunkholm/popstat/internal/indicator"
	"github.com/JonMunkholm/popstat/internal/logging"
	"github.com/JonMunkholm/popstat/internal/web/templates"
)

// handleHealth reports liveness plus the pipeline limiter state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":   "ok",
		"pipeline": s.service.LimiterStatus(),
	})
}

// variantJSON is a registered variant as listed to clients.
type variantJSON struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Default bool   `json:"default"`
}

// handleListVariants returns the registered schema variants.
func (s *Server) handleListVariants(w http.ResponseWriter, r *http.Request) {
	variants := s.service.Variants()
	out := make([]variantJSON, 0, len(variants))
	for _, v := range variants {
		out = append(out, variantJSON{
			Key:     v.Key,
			Label:   v.Label,
			Default: v.Key == s.service.DefaultVariant(),
		})
	}
	writeJSON(w, out)
}

// handleYears returns the distinct time labels of a variant's run.
func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	req := analyzeRequest(r)
	req.Year = ""
	an, err := s.service.Analyze(r.Context(), req)
	if err != nil && !errors.Is(err, core.ErrNoData) {
		s.respondError(w, r, err)
		return
	}

	years := an.Frame.Labels
	if years == nil {
		years = []string{}
	}
	writeJSON(w, map[string]any{
		"runId":   an.Frame.RunID,
		"variant": an.Frame.Variant,
		"years":   years,
	})
}

// handleSlice returns one year's age/value series for charting. A source or
// year without rows is a normal response with noData set.
func (s *Server) handleSlice(w http.ResponseWriter, r *http.Request) {
	an, err := s.service.Analyze(r.Context(), analyzeRequest(r))
	if err != nil && !errors.Is(err, core.ErrNoData) {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, newSliceResponse(an))
}

// handleSliceCSV streams the selected year as a UTF-8 CSV download.
func (s *Server) handleSliceCSV(w http.ResponseWriter, r *http.Request) {
	// Buffer so a failed run can still send an error status.
	var buf bytes.Buffer
	name, err := s.service.Export(r.Context(), analyzeRequest(r), &buf)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	if _, err := buf.WriteTo(w); err != nil {
		logging.FromContext(r.Context()).Error("csv write failed", "error", err)
	}
}

// indicatorResponse is the hand-off for a remote indicator series.
type indicatorResponse struct {
	IndicatorCode string            `json:"indicatorCode"`
	RegionCode    string            `json:"regionCode"`
	Points        []indicator.Point `json:"points"`
	NoData        bool              `json:"noData"`
}

// handleIndicator fetches one indicator series from the remote service.
func (s *Server) handleIndicator(w http.ResponseWriter, r *http.Request) {
	if s.indicator == nil {
		s.respondError(w, r, &core.RemoteError{Err: errors.New("indicator client not configured")})
		return
	}

	start, err := parseIntParam(r, "startYear")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	end, err := parseIntParam(r, "endYear")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	q := indicator.Query{
		IndicatorCode: strings.TrimSpace(r.URL.Query().Get("indicatorCode")),
		RegionCode:    strings.TrimSpace(r.URL.Query().Get("regionCode")),
		StartYear:     start,
		EndYear:       end,
	}
	if q.RegionCode == "" {
		q.RegionCode = indicator.DefaultRegionCode
	}

	points, err := s.indicator.FetchIndicator(r.Context(), q)
	if err != nil && !errors.Is(err, core.ErrNoData) {
		s.respondError(w, r, err)
		return
	}
	if points == nil {
		points = []indicator.Point{}
	}
	writeJSON(w, indicatorResponse{
		IndicatorCode: q.IndicatorCode,
		RegionCode:    q.RegionCode,
		Points:        points,
		NoData:        len(points) == 0,
	})
}

// handleSlicePage renders the variant and year selectors with the table.
// HTMX requests get only the fragment.
func (s *Server) handleSlicePage(w http.ResponseWriter, r *http.Request) {
	an, err := s.service.Analyze(r.Context(), analyzeRequest(r))
	if err != nil && !errors.Is(err, core.ErrNoData) {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	view := templates.SliceView(s.sliceData(an))
	if isPartial(r) {
		err = view.Render(r.Context(), w)
	} else {
		err = templates.Page("年齢別人口 "+an.Year, view).Render(r.Context(), w)
	}
	if err != nil {
		logging.FromContext(r.Context()).Error("render failed", "error", err)
	}
}
