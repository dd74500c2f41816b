// Package indicator is the alternate input adapter: it fetches a yearly time
// series from a remote statistics indicator endpoint and reshapes it into
// (time, value) points.
package indicator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/popstat/internal/core"
	"github.com/JonMunkholm/popstat/internal/logging"
)

// DefaultBaseURL is the e-Stat dashboard data endpoint.
const DefaultBaseURL = "https://dashboard.e-stat.go.jp/api/1.0/Json/getData"

// DefaultTimeout bounds a single fetch. The endpoint is outside our control.
const DefaultTimeout = 10 * time.Second

// DefaultRegionCode is the whole of Japan.
const DefaultRegionCode = "00000"

// maxBodySize caps the response body read from the endpoint.
const maxBodySize = 10 * 1024 * 1024

// Query selects one indicator series. Zero years leave that end of the
// range open.
type Query struct {
	IndicatorCode string
	RegionCode    string
	StartYear     int
	EndYear       int
}

// Validate checks the query before any request is made.
func (q Query) Validate() error {
	if strings.TrimSpace(q.IndicatorCode) == "" {
		return &core.QueryError{Param: "indicatorCode", Reason: "is required"}
	}
	if q.StartYear < 0 || q.EndYear < 0 {
		return &core.QueryError{Param: "startYear/endYear", Reason: "must not be negative"}
	}
	if q.StartYear > 0 && q.EndYear > 0 && q.StartYear > q.EndYear {
		return &core.QueryError{
			Param:  "startYear",
			Reason: fmt.Sprintf("%d is after endYear %d", q.StartYear, q.EndYear),
		}
	}
	return nil
}

// Point is one year of an indicator series.
type Point struct {
	Year  int     `json:"year"`
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}

// Recorder receives fetch measurements. internal/metrics implements it.
type Recorder interface {
	ObserveIndicatorFetch(outcome string, d time.Duration)
}

// Client fetches indicator series.
type Client struct {
	baseURL  string
	http     *http.Client
	recorder Recorder
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its timeout is kept.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// NewClient creates a client for baseURL. A non-positive timeout means
// DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// response mirrors the part of the endpoint's JSON this adapter reads.
type response struct {
	IndicatorData []struct {
		DataValue []struct {
			Time  string          `json:"Time"`
			Value json.RawMessage `json:"Value"`
		} `json:"DataValue"`
	} `json:"IndicatorData"`
}

// FetchIndicator issues one GET request and returns the series ordered by
// year. It is never retried.
//
// A non-2xx status or a transport failure yields a *core.RemoteError. A valid
// response without usable points yields an empty slice and core.ErrNoData.
// Points whose time is not a whole year or whose value is not numeric are
// dropped.
func (c *Client) FetchIndicator(ctx context.Context, q Query) ([]Point, error) {
	start := time.Now()
	points, err := c.fetch(ctx, q)
	c.observe(err, time.Since(start))
	return points, err
}

func (c *Client) fetch(ctx context.Context, q Query) ([]Point, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	reqURL, err := c.requestURL(q)
	if err != nil {
		return nil, err
	}
	logger := logging.WithFields(ctx, "indicator", q.IndicatorCode, "region", q.RegionCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &core.RemoteError{URL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		logger.Warn("indicator request failed", "status", resp.StatusCode)
		return nil, &core.RemoteError{StatusCode: resp.StatusCode, URL: c.baseURL}
	}

	var body response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&body); err != nil {
		return nil, &core.MalformedError{Path: c.baseURL, Reason: fmt.Sprintf("decode response: %v", err)}
	}

	points := []Point{}
	if len(body.IndicatorData) > 0 {
		points = reshape(body, q)
	}
	if len(points) == 0 {
		logger.Info("indicator returned no data")
		return points, core.ErrNoData
	}
	logger.Debug("indicator fetched", "points", len(points))
	return points, nil
}

func (c *Client) requestURL(q Query) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	region := q.RegionCode
	if region == "" {
		region = DefaultRegionCode
	}

	v := u.Query()
	v.Set("indicatorCode", q.IndicatorCode)
	v.Set("regionCode", region)
	if q.StartYear > 0 {
		v.Set("startYear", strconv.Itoa(q.StartYear))
	}
	if q.EndYear > 0 {
		v.Set("endYear", strconv.Itoa(q.EndYear))
	}
	v.Set("format", "json")
	u.RawQuery = v.Encode()
	return u.String(), nil
}

// reshape turns the first series into points. Duplicate years keep the
// first occurrence.
func reshape(body response, q Query) []Point {
	seen := make(map[int]bool)
	points := []Point{}
	for _, dv := range body.IndicatorData[0].DataValue {
		year, ok := ParseYear(dv.Time)
		if !ok || seen[year] {
			continue
		}
		if (q.StartYear > 0 && year < q.StartYear) || (q.EndYear > 0 && year > q.EndYear) {
			continue
		}
		v := core.ParseValue(rawValue(dv.Value))
		if !v.Valid {
			continue
		}
		seen[year] = true
		points = append(points, Point{Year: year, Time: strings.TrimSpace(dv.Time), Value: v.Float64})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Year < points[j].Year
	})
	return points
}

// rawValue accepts the value as a JSON string or a bare number.
func rawValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

var yearPattern = regexp.MustCompile(`^(\d{4})(?:年|CY00|-01-01|0{6})?$`)

// ParseYear accepts whole-year time labels: "2020", "2020年", "2020CY00",
// "2020-01-01" and the dashboard's "2020000000".
func ParseYear(s string) (int, bool) {
	m := yearPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return year, true
}

func (c *Client) observe(err error, d time.Duration) {
	if c.recorder == nil {
		return
	}
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, core.ErrNoData):
		outcome = "no_data"
	case errors.Is(err, core.ErrRemoteUnavailable):
		outcome = "remote_unavailable"
	case errors.Is(err, core.ErrInvalidQuery):
		outcome = "invalid_query"
	default:
		outcome = "error"
	}
	c.recorder.ObserveIndicatorFetch(outcome, d)
}
