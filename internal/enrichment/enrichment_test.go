package enrichment

import (
	"boilerroom-backend/internal/boil"
	"boilerroom-backend/internal/components/telemetry"
	"boilerroom-backend/internal/db"
	"boilerroom-backend/internal/hltb"
	"boilerroom-backend/internal/steam"
	"boilerroom-backend/lib/testutil"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const portalDetails = `{"620":{"success":true,"data":{
	"type":"game",
	"name":"Portal 2",
	"steam_appid":620,
	"header_image":"https://cdn/620/header.jpg",
	"short_description":"The sequel.",
	"developers":["Valve"],
	"publishers":["Valve"],
	"platforms":{"windows":true,"mac":true,"linux":true},
	"metacritic":{"score":95,"url":"https://metacritic"},
	"categories":[{"id":2,"description":"Single-player"}],
	"genres":[{"id":"1","description":"Action"}],
	"release_date":{"coming_soon":false,"date":"18 Apr, 2011"},
	"dlc":[323180]
}}}`

const portalOneDetails = `{"400":{"success":true,"data":{
	"type":"game",
	"name":"Portal",
	"platforms":{"windows":true,"mac":false,"linux":false},
	"release_date":{"coming_soon":true,"date":"Coming soon"}
}}}`

func steamHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/appdetails", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("appids") {
		case "620":
			fmt.Fprint(w, portalDetails)
		case "400":
			fmt.Fprint(w, portalOneDetails)
		case "500":
			w.WriteHeader(http.StatusTooManyRequests)
		case "700":
			fmt.Fprint(w, `{"700":{"success":false}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	mux.HandleFunc("/appreviews/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/620") {
			fmt.Fprint(w, `{"success":1,"query_summary":{
				"review_score_desc":"Overwhelmingly Positive",
				"total_positive":990,
				"total_negative":10,
				"total_reviews":1000
			}}`)
			return
		}
		// steam answers 2 for apps without a review summary
		fmt.Fprint(w, `{"success":2}`)
	})
	return mux
}

// playtimes keyed by steam id, unknown profiles fail to render
type fakePlaytimes map[string][]hltb.Entry

func (f fakePlaytimes) ProfilePlaytimes(ctx context.Context, steamId string) ([]hltb.Entry, error) {
	entries, ok := f[steamId]
	if !ok {
		return nil, errors.New("render timed out")
	}
	return entries, nil
}

type fixture struct {
	service Service
	store   db.Store
	tel     *telemetry.Recorder
}

func setup(t testing.TB, playtimes PlaytimeSource) fixture {
	res := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "enrichment",
		DbSchema: db.Schema,
	})
	store := db.NewStore(res.DB)

	server := httptest.NewServer(steamHandler())
	t.Cleanup(server.Close)

	tel := telemetry.NewRecorder()
	client := steam.NewClient(steam.Options{
		BaseUrl:           server.URL,
		RequestsPerSecond: 1000,
	}, tel)

	service, err := NewService(store, client, playtimes, Options{Concurrency: 2}, tel)
	require.NoError(t, err)

	return fixture{service: service, store: store, tel: tel}
}

func resultsById(results []GameResult) map[string]GameResult {
	out := map[string]GameResult{}
	for _, r := range results {
		out[r.GameId] = r
	}
	return out
}

func TestLoadGames(t *testing.T) {
	f := setup(t, fakePlaytimes{})
	ctx := context.Background()

	for _, id := range []string{"620", "400", "abc", "500", "700"} {
		require.NoError(t, f.store.EnqueueGame(ctx, id))
	}

	summary, err := f.service.LoadGames(ctx)
	require.NoError(t, err)
	require.Equal(t, 5, summary.Total)
	require.Equal(t, 2, summary.Succeeded)
	require.Equal(t, 3, summary.Failed)

	results := resultsById(summary.Results)
	require.Equal(t, StatusInserted, results["620"].Status)
	require.Equal(t, StatusInserted, results["400"].Status)
	require.Equal(t, StatusInvalid, results["abc"].Status)
	require.Equal(t, StatusFailed, results["500"].Status)
	require.True(t, results["500"].Retry)
	require.Equal(t, StatusFailed, results["700"].Status)
	require.False(t, results["700"].Retry)

	// only the rate limited game stays buffered
	buffered, err := f.store.BufferedGames(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, []string{"500"}, buffered)

	portal, err := f.store.Game(ctx, 620)
	require.NoError(t, err)
	expected := db.GameRecord{
		GameId:          620,
		Name:            "Portal 2",
		HeaderImage:     sql.NullString{String: "https://cdn/620/header.jpg", Valid: true},
		Platform:        7,
		MetacriticScore: sql.NullInt64{Int64: 95, Valid: true},
		Released:        sql.NullString{String: "2011-04-18", Valid: true},
		Description:     sql.NullString{String: "The sequel.", Valid: true},
		Developers:      []string{"Valve"},
		Publishers:      []string{"Valve"},
		Categories:      []int64{2},
		Genres:          []int64{1},
		Dlcs:            []int64{323180},
	}
	if diff := cmp.Diff(expected, portal); diff != "" {
		t.Fatalf("unexpected game (-want +got):\n%s", diff)
	}

	unreleased, err := f.store.Game(ctx, 400)
	require.NoError(t, err)
	require.Equal(t, 4, unreleased.Platform)
	require.False(t, unreleased.Released.Valid)
	require.False(t, unreleased.MetacriticScore.Valid)

	reviews, err := f.store.Recommendation(ctx, 620)
	require.NoError(t, err)
	require.EqualValues(t, 1000, reviews.Total)
	require.Equal(t, "Overwhelmingly Positive", reviews.Description.String)

	// no summary means no recommendation row, not a row of zeros
	_, err = f.store.Recommendation(ctx, 400)
	require.ErrorIs(t, err, db.ErrNotFound)

	require.Len(t, f.tel.Reports("warning", report_games_invalid_id), 1)
}

func TestLoadGamesEmpty(t *testing.T) {
	f := setup(t, fakePlaytimes{})

	summary, err := f.service.LoadGames(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, summary.Total)
	require.Empty(t, summary.Results)
}

func insertGames(t testing.TB, store db.Store) {
	ctx := context.Background()
	require.NoError(t, store.InsertGame(ctx, db.GameRecord{
		GameId:          620,
		Name:            "Portal 2",
		MetacriticScore: sql.NullInt64{Int64: 95, Valid: true},
	}))
	require.NoError(t, store.InsertGame(ctx, db.GameRecord{
		GameId: 400,
		Name:   "Portal",
	}))
}

func TestUpdatePlaytimes(t *testing.T) {
	f := setup(t, fakePlaytimes{
		"76561197960287930": {
			{AppID: 620, Hours: 8.5},
			{AppID: 400, Hours: 3},
			{AppID: 999, Hours: 1},
		},
	})
	ctx := context.Background()
	insertGames(t, f.store)

	require.NoError(t, f.store.EnqueueProfile(ctx, "76561197960287930"))
	require.NoError(t, f.store.EnqueueProfile(ctx, "broken"))

	summary, err := f.service.UpdatePlaytimes(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Updated)
	require.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Profiles, 2)

	portal, err := f.store.Game(ctx, 620)
	require.NoError(t, err)
	require.Equal(t, sql.NullFloat64{Float64: 8.5, Valid: true}, portal.HltbScore)
	require.Equal(t, sql.NullFloat64{Float64: boil.Rating(8.5, 95, 0), Valid: true}, portal.BoilScore)

	// no critic score means no boil rating
	unscored, err := f.store.Game(ctx, 400)
	require.NoError(t, err)
	require.Equal(t, sql.NullFloat64{Float64: 3, Valid: true}, unscored.HltbScore)
	require.False(t, unscored.BoilScore.Valid)

	// failed profiles leave the buffer as well
	buffered, err := f.store.BufferedProfiles(ctx)
	require.NoError(t, err)
	require.Empty(t, buffered)

	require.Len(t, f.tel.Reports("broken", report_playtimes_profile), 1)
}

func TestUpdateProfile(t *testing.T) {
	f := setup(t, fakePlaytimes{
		"76561197960287930": {{AppID: 620, Hours: 100}},
	})
	insertGames(t, f.store)

	result, err := f.service.UpdateProfile(context.Background(), "76561197960287930")
	require.NoError(t, err)
	require.Equal(t, ProfileResult{SteamId: "76561197960287930", Games: 1, Updated: 1}, result)

	_, err = f.service.UpdateProfile(context.Background(), "unknown")
	require.Error(t, err)
}

func TestRunCronjob(t *testing.T) {
	f := setup(t, fakePlaytimes{
		"76561197960287930": {{AppID: 620, Hours: 22.8}},
	})
	ctx := context.Background()

	require.NoError(t, f.store.EnqueueGame(ctx, "620"))
	require.NoError(t, f.store.EnqueueProfile(ctx, "76561197960287930"))

	summary, err := f.service.RunCronjob(ctx)
	require.NoError(t, err)

	_, err = uuid.Parse(summary.RunId)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Games.Succeeded)
	require.Equal(t, 1, summary.Playtimes.Updated)

	game, err := f.store.Game(ctx, 620)
	require.NoError(t, err)
	require.Equal(t, boil.Rating(22.8, 95, 0), game.BoilScore.Float64)
}

func TestRunCronjobCancelled(t *testing.T) {
	f := setup(t, fakePlaytimes{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.service.RunCronjob(ctx)
	require.Error(t, err)
}

// blockingPlaytimes signals `started` and waits for `release` before
// answering.
type blockingPlaytimes struct {
	started chan struct{}
	release chan struct{}
}

func (b blockingPlaytimes) ProfilePlaytimes(ctx context.Context, steamId string) ([]hltb.Entry, error) {
	b.started <- struct{}{}
	<-b.release
	return nil, nil
}

func TestRunCronjobExclusive(t *testing.T) {
	source := blockingPlaytimes{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	f := setup(t, source)
	ctx := context.Background()
	require.NoError(t, f.store.EnqueueProfile(ctx, "76561197960287930"))

	done := make(chan error, 1)
	go func() {
		_, err := f.service.RunCronjob(ctx)
		done <- err
	}()
	<-source.started

	_, err := f.service.RunCronjob(ctx)
	require.ErrorIs(t, err, ErrCronjobRunning)

	close(source.release)
	require.NoError(t, <-done)

	// the lock is released once the first run is done
	_, err = f.service.RunCronjob(ctx)
	require.NoError(t, err)
}
