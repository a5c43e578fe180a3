package enrichment

import (
	"boilerroom-backend/internal/db"
	"boilerroom-backend/internal/steam"
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

const (
	report_games_read       = "load-games.read"
	report_games_invalid_id = "load-games.invalid-id"
	report_games_details    = "load-games.details"
	report_games_insert     = "load-games.insert"
	report_games_reviews    = "load-games.reviews"
	report_games_buffer     = "load-games.delete-buffer"
	report_games_processed  = "load-games.processed"
)

const (
	StatusInserted = "inserted"
	StatusFailed   = "failed"
	StatusInvalid  = "invalid"
)

type GameResult struct {
	GameId string `json:"gameId"`
	Status string `json:"status"`
	// true when the game stays buffered for the next run
	Retry bool   `json:"retry,omitempty"`
	Error string `json:"error,omitempty"`
}

type LoadSummary struct {
	Total     int          `json:"total"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Results   []GameResult `json:"results"`
}

// LoadGames enriches a batch of buffered games with steam store data.
// Every processed game leaves the buffer except for the ones steam asked us
// to retry later.
func (s Service) LoadGames(ctx context.Context) (LoadSummary, error) {
	ctx, span := tracer.Start(ctx, "LoadGames")
	defer span.End()

	rawIds, err := s.store.BufferedGames(ctx, s.options.BatchSize)
	if err != nil {
		s.tel.ReportBroken(report_games_read, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "read buffer")
		return LoadSummary{}, err
	}
	span.SetAttributes(attribute.Int("buffered", len(rawIds)))

	results := make([]GameResult, len(rawIds))

	group := errgroup.Group{}
	group.SetLimit(s.options.Concurrency)
	for i, raw := range rawIds {
		appId, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || appId <= 0 {
			s.tel.ReportWarning(report_games_invalid_id, raw)
			s.deleteBufferedGame(ctx, raw)
			results[i] = GameResult{
				GameId: raw,
				Status: StatusInvalid,
				Error:  "game id is not a steam app id",
			}
			continue
		}

		i, raw := i, raw
		group.Go(func() error {
			results[i] = s.loadGame(ctx, raw, appId)
			return nil
		})
	}
	group.Wait()

	summary := LoadSummary{
		Total:   len(results),
		Results: results,
	}
	for _, r := range results {
		if r.Status == StatusInserted {
			summary.Succeeded++
			continue
		}
		summary.Failed++
	}
	s.gamesProcessed.Add(ctx, int64(summary.Succeeded), metric.WithAttributes(attribute.String("status", StatusInserted)))
	s.gamesProcessed.Add(ctx, int64(summary.Failed), metric.WithAttributes(attribute.String("status", StatusFailed)))
	s.tel.ReportCount(report_games_processed, int64(summary.Total))

	span.SetAttributes(
		attribute.Int("succeeded", summary.Succeeded),
		attribute.Int("failed", summary.Failed),
	)
	return summary, ctx.Err()
}

func (s Service) loadGame(ctx context.Context, raw string, appId int64) GameResult {
	ctx, span := tracer.Start(ctx, "loadGame")
	defer span.End()
	span.SetAttributes(attribute.Int64("appid", appId))

	details, err := s.steam.AppDetails(ctx, appId)
	if err != nil {
		if errors.Is(err, steam.ErrAppUnavailable) ||
			errors.Is(err, steam.ErrNoData) ||
			errors.Is(err, steam.ErrMalformedResponse) {
			s.tel.ReportWarning(report_games_details, appId, err.Error())
		} else {
			s.tel.ReportBroken(report_games_details, err, appId)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "app details")
		return s.failGame(ctx, raw, err)
	}

	game := steam.NewGame(appId, details)
	err = s.store.InsertGame(ctx, gameRecord(game))
	if err != nil {
		s.tel.ReportBroken(report_games_insert, err, appId)
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert game")
		return s.failGame(ctx, raw, err)
	}

	reviews, ok, err := s.steam.Reviews(ctx, appId)
	switch {
	case err != nil:
		s.tel.ReportWarning(report_games_reviews, appId, err.Error())
	case ok:
		err = s.store.UpsertRecommendation(ctx, db.Recommendation{
			GameId:      appId,
			Total:       reviews.Total,
			Positive:    reviews.Positive,
			Negative:    reviews.Negative,
			Description: nullString(&reviews.Description),
		})
		if err != nil {
			s.tel.ReportWarning(report_games_reviews, appId, err.Error())
		}
	}

	s.deleteBufferedGame(ctx, raw)
	return GameResult{GameId: raw, Status: StatusInserted}
}

// failGame drops the game from the buffer unless the failure is expected to
// go away on its own.
func (s Service) failGame(ctx context.Context, raw string, err error) GameResult {
	result := GameResult{
		GameId: raw,
		Status: StatusFailed,
		Error:  err.Error(),
	}
	if steam.IsRetryable(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		result.Retry = true
		return result
	}
	s.deleteBufferedGame(ctx, raw)
	return result
}

func (s Service) deleteBufferedGame(ctx context.Context, raw string) {
	err := s.store.DeleteBufferedGame(ctx, raw)
	if err != nil {
		s.tel.ReportBroken(report_games_buffer, err, raw)
	}
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func gameRecord(game steam.Game) db.GameRecord {
	record := db.GameRecord{
		GameId:      game.AppId,
		Name:        game.Name,
		HeaderImage: nullString(game.HeaderImage),
		Platform:    game.Platforms,
		Released:    nullString(game.ReleaseDate),
		Description: nullString(game.Description),
		Developers:  game.Developers,
		Publishers:  game.Publishers,
		Categories:  game.Categories,
		Genres:      game.Genres,
		Dlcs:        game.Dlcs,
	}
	if game.MetacriticScore != nil {
		record.MetacriticScore = sql.NullInt64{Int64: int64(*game.MetacriticScore), Valid: true}
	}
	return record
}
