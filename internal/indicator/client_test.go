package indicator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/popstat/internal/core"
)

func newServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32, chan *http.Request) {
	t.Helper()
	var calls atomic.Int32
	reqs := make(chan *http.Request, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		reqs <- r
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls, reqs
}

func TestFetchIndicator_ReshapesSeries(t *testing.T) {
	body := `{"IndicatorData":[{"DataValue":[
		{"Time":"2021","Value":"125,502,000"},
		{"Time":"2020CY00","Value":"126,146,099"},
		{"Time":"2019-04-01","Value":"1"},
		{"Time":"2018","Value":"-"},
		{"Time":"2019","Value":126167000}
	]}]}`
	srv, _, reqs := newServer(t, http.StatusOK, body)

	c := NewClient(srv.URL, time.Second)
	points, err := c.FetchIndicator(context.Background(), Query{
		IndicatorCode: "0201010000000010000",
		RegionCode:    "00000",
		StartYear:     2015,
		EndYear:       2022,
	})
	require.NoError(t, err)

	require.Len(t, points, 3)
	assert.Equal(t, []int{2019, 2020, 2021}, []int{points[0].Year, points[1].Year, points[2].Year})
	assert.Equal(t, 126146099.0, points[1].Value)
	assert.Equal(t, 125502000.0, points[2].Value)

	r := <-reqs
	q := r.URL.Query()
	assert.Equal(t, http.MethodGet, r.Method)
	assert.Equal(t, "0201010000000010000", q.Get("indicatorCode"))
	assert.Equal(t, "00000", q.Get("regionCode"))
	assert.Equal(t, "2015", q.Get("startYear"))
	assert.Equal(t, "2022", q.Get("endYear"))
	assert.Equal(t, "json", q.Get("format"))
}

func TestFetchIndicator_EmptyIndicatorData(t *testing.T) {
	srv, _, _ := newServer(t, http.StatusOK, `{"IndicatorData":[]}`)

	points, err := NewClient(srv.URL, time.Second).FetchIndicator(context.Background(), Query{IndicatorCode: "X"})
	require.ErrorIs(t, err, core.ErrNoData)
	assert.NotNil(t, points)
	assert.Empty(t, points)
	assert.False(t, errors.Is(err, core.ErrRemoteUnavailable))
}

func TestFetchIndicator_NoUsablePoints(t *testing.T) {
	srv, _, _ := newServer(t, http.StatusOK, `{"IndicatorData":[{"DataValue":[{"Time":"unknown","Value":"1"},{"Time":"2020","Value":"x"}]}]}`)

	points, err := NewClient(srv.URL, time.Second).FetchIndicator(context.Background(), Query{IndicatorCode: "X"})
	assert.ErrorIs(t, err, core.ErrNoData)
	assert.Empty(t, points)
}

func TestFetchIndicator_NonSuccessStatus(t *testing.T) {
	srv, calls, _ := newServer(t, http.StatusServiceUnavailable, `oops`)

	_, err := NewClient(srv.URL, time.Second).FetchIndicator(context.Background(), Query{IndicatorCode: "X"})
	require.ErrorIs(t, err, core.ErrRemoteUnavailable)

	var re *core.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusServiceUnavailable, re.StatusCode)
	assert.Equal(t, int32(1), calls.Load(), "must not retry")
	assert.Equal(t, "API001", core.MapError(err).Code)
}

func TestFetchIndicator_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).FetchIndicator(context.Background(), Query{IndicatorCode: "X"})
	var re *core.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Zero(t, re.StatusCode)
}

func TestFetchIndicator_InvalidBody(t *testing.T) {
	srv, _, _ := newServer(t, http.StatusOK, `<html>`)

	_, err := NewClient(srv.URL, time.Second).FetchIndicator(context.Background(), Query{IndicatorCode: "X"})
	assert.ErrorIs(t, err, core.ErrMalformedSource)
}

func TestFetchIndicator_InvalidQuery(t *testing.T) {
	srv, calls, _ := newServer(t, http.StatusOK, `{}`)
	c := NewClient(srv.URL, time.Second)

	tests := []struct {
		name string
		q    Query
	}{
		{"missing indicator", Query{}},
		{"inverted range", Query{IndicatorCode: "X", StartYear: 2020, EndYear: 2010}},
		{"negative year", Query{IndicatorCode: "X", StartYear: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.FetchIndicator(context.Background(), tt.q)
			assert.ErrorIs(t, err, core.ErrInvalidQuery)
		})
	}
	assert.Zero(t, calls.Load())
}

type fakeRecorder struct{ outcomes []string }

func (f *fakeRecorder) ObserveIndicatorFetch(outcome string, _ time.Duration) {
	f.outcomes = append(f.outcomes, outcome)
}

func TestFetchIndicator_RecordsOutcome(t *testing.T) {
	srv, _, _ := newServer(t, http.StatusOK, `{"IndicatorData":[]}`)
	rec := &fakeRecorder{}

	_, _ = NewClient(srv.URL, time.Second, WithRecorder(rec)).FetchIndicator(context.Background(), Query{IndicatorCode: "X"})
	assert.Equal(t, []string{"no_data"}, rec.outcomes)
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"2020", 2020, true},
		{" 2020 ", 2020, true},
		{"2020年", 2020, true},
		{"2020CY00", 2020, true},
		{"2020-01-01", 2020, true},
		{"2020000000", 2020, true},
		{"2020-04-01", 0, false},
		{"20", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseYear(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
