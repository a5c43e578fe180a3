package steam

import (
	"boilerroom-backend/internal/components/telemetry"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Options{
		BaseUrl:           server.URL,
		RequestsPerSecond: 1000,
		BreakerFailures:   3,
		BreakerCooldown:   time.Hour,
	}, telemetry.NewRecorder())
}

func ptr[T any](v T) *T {
	return &v
}

func TestAppDetails(t *testing.T) {
	fixture, err := os.ReadFile("testdata/appdetails_620.json")
	require.NoError(t, err)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/appdetails", r.URL.Path)
		require.Equal(t, "620", r.URL.Query().Get("appids"))
		require.Equal(t, "english", r.URL.Query().Get("l"))
		w.Write(fixture)
	})

	details, err := client.AppDetails(context.Background(), 620)
	require.NoError(t, err)
	require.Equal(t, "Portal 2", details.Name)

	game := NewGame(620, details)
	expected := Game{
		AppId:           620,
		Name:            "Portal 2",
		HeaderImage:     ptr("https://cdn.akamai.steamstatic.com/steam/apps/620/header.jpg"),
		MetacriticScore: ptr(95),
		Platforms:       PlatformWindows + PlatformMac + PlatformLinux,
		Categories:      []int64{2, 9},
		Genres:          []int64{1, 25},
		Developers:      []string{"Valve"},
		Publishers:      []string{"Valve"},
		Description:     ptr(`The "Perpetual Testing Initiative" has been expanded.`),
		ReleaseDate:     ptr("2011-04-18"),
		Dlcs:            []int64{323180, 323181},
	}
	if diff := cmp.Diff(expected, game); diff != "" {
		t.Fatalf("game mismatch (-want +got):\n%s", diff)
	}
}

func TestAppDetailsEnvelopeErrors(t *testing.T) {
	table := []struct {
		name     string
		body     string
		expected error
	}{
		{name: "missing app", body: `{"10": {"success": true, "data": {}}}`, expected: ErrMalformedResponse},
		{name: "not json", body: `<html>oops</html>`, expected: ErrMalformedResponse},
		{name: "null envelope", body: `{"620": null}`, expected: ErrMalformedResponse},
		{name: "failure", body: `{"620": {"success": false}}`, expected: ErrAppUnavailable},
		{name: "no data", body: `{"620": {"success": true}}`, expected: ErrNoData},
	}

	for _, row := range table {
		t.Run(row.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(row.body))
			})
			_, err := client.AppDetails(context.Background(), 620)
			require.ErrorIs(t, err, row.expected)
			require.False(t, IsRetryable(err))
		})
	}
}

func TestAppDetailsStatusErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.AppDetails(context.Background(), 620)
	var status StatusError
	require.ErrorAs(t, err, &status)
	require.Equal(t, http.StatusTooManyRequests, status.Code)
	require.True(t, IsRetryable(err))
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 3; i++ {
		_, err := client.AppDetails(context.Background(), 620)
		require.False(t, IsRetryable(err))
	}

	_, err := client.AppDetails(context.Background(), 620)
	require.True(t, errors.Is(err, gobreaker.ErrOpenState))
	require.True(t, IsRetryable(err))
	require.Equal(t, int32(3), calls.Load())
}

func TestReviews(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/appreviews/620", r.URL.Path)
		require.Equal(t, "1", r.URL.Query().Get("json"))
		require.Equal(t, "all", r.URL.Query().Get("purchase_type"))
		w.Write([]byte(`{
			"success": 1,
			"query_summary": {
				"num_reviews": 20,
				"review_score": 9,
				"review_score_desc": "Overwhelmingly Positive",
				"total_positive": 300000,
				"total_negative": 3000,
				"total_reviews": 303000
			},
			"reviews": []
		}`))
	})

	summary, ok, err := client.Reviews(context.Background(), 620)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ReviewSummary{
		Description: "Overwhelmingly Positive",
		Positive:    300000,
		Negative:    3000,
		Total:       303000,
	}, summary)
}

func TestReviewsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": 2}`))
	})
	_, ok, err := client.Reviews(context.Background(), 620)
	require.NoError(t, err)
	require.False(t, ok)

	client = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": 0}`))
	})
	_, ok, err = client.Reviews(context.Background(), 620)
	require.NoError(t, err)
	require.False(t, ok)

	client = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": 1}`))
	})
	_, ok, err = client.Reviews(context.Background(), 620)
	require.NoError(t, err)
	require.False(t, ok)
}

type memoryOutput struct {
	lock     sync.Mutex
	messages []string
}

func (o *memoryOutput) Write(id string, contents string) {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.messages = append(o.messages, contents)
}

func TestAppDetailsWithRequestDumps(t *testing.T) {
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer slog.SetDefault(prev)

	fixture, err := os.ReadFile("testdata/appdetails_620.json")
	require.NoError(t, err)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(fixture)
	}))
	defer server.Close()

	out := &memoryOutput{}
	client := NewClient(Options{
		BaseUrl:           server.URL,
		RequestsPerSecond: 1000,
		InstrumentOutput:  out,
	}, telemetry.NewRecorder())

	details, err := client.AppDetails(context.Background(), 620)
	require.NoError(t, err)
	require.Equal(t, "Portal 2", details.Name)

	require.Len(t, out.messages, 1)
	require.Contains(t, out.messages[0], "<NO BODY AVAILABLE>")
	require.Contains(t, out.messages[0], "Portal 2")
}

func TestNewGameDefaults(t *testing.T) {
	game := NewGame(42, AppDetails{
		Metacritic:  &Metacritic{Score: 0},
		ReleaseDate: &ReleaseDate{ComingSoon: true, Date: "Coming soon"},
	})
	require.Equal(t, "Unknown", game.Name)
	require.Nil(t, game.HeaderImage)
	require.Nil(t, game.Description)
	require.Nil(t, game.MetacriticScore)
	require.Nil(t, game.ReleaseDate)
	require.Equal(t, 0, game.Platforms)
	require.Equal(t, []string{}, game.Developers)
	require.Equal(t, []int64{}, game.Dlcs)
}

func TestPlatformMask(t *testing.T) {
	require.Equal(t, 0, PlatformMask(nil))
	require.Equal(t, 4, PlatformMask(&Platforms{Windows: true}))
	require.Equal(t, 6, PlatformMask(&Platforms{Windows: true, Mac: true}))
	require.Equal(t, 3, PlatformMask(&Platforms{Mac: true, Linux: true}))
}

func TestParseReleaseDate(t *testing.T) {
	table := []struct {
		input    string
		expected *string
	}{
		{input: "21 Aug, 2012", expected: ptr("2012-08-21")},
		{input: "Aug 21, 2012", expected: ptr("2012-08-21")},
		{input: "1 Jan, 2000", expected: ptr("2000-01-01")},
		{input: "9 September, 2019", expected: ptr("2019-09-09")},
		{input: "2020-02-29", expected: ptr("2020-02-29")},
		{input: "Aug 2012", expected: ptr("2012-08-01")},
		{input: "21-Aug-2012", expected: ptr("2012-08-21")},
		{input: "3 Sept 2021", expected: ptr("2021-09-03")},
		{input: "29-Feb-2020", expected: ptr("2020-02-29")},
		{input: "31-Feb-2012", expected: nil},
		{input: "29-Feb-2011", expected: nil},
		{input: "31-Apr-2019", expected: nil},
		{input: "Coming soon", expected: nil},
		{input: "Q3 2025", expected: nil},
		{input: "To be announced", expected: nil},
		{input: "", expected: nil},
	}

	for _, row := range table {
		require.Equal(t, row.expected, ParseReleaseDate(row.input), row.input)
	}
}

func TestFlexIntRejectsGarbage(t *testing.T) {
	var f FlexInt
	require.Error(t, f.UnmarshalJSON([]byte(`"abc"`)))
	require.NoError(t, f.UnmarshalJSON([]byte(`"12"`)))
	require.Equal(t, FlexInt(12), f)
	require.NoError(t, f.UnmarshalJSON([]byte(`7`)))
	require.Equal(t, FlexInt(7), f)
}
