package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("boilerroom.internal.db")

var ErrNotFound = errors.New("not found")

// Store is the relational store behind the service, every query is written
// with `?` placeholders and rebound for the driver in use.
type Store struct {
	db *sqlx.DB
}

func NewStore(database *sqlx.DB) Store {
	return Store{db: database}
}

func (s Store) DB() *sqlx.DB {
	return s.db
}

func (s Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func recordErr(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// BufferedGames returns up to `limit` raw game ids waiting to be enriched.
func (s Store) BufferedGames(ctx context.Context, limit int) ([]string, error) {
	ctx, span := tracer.Start(ctx, "BufferedGames")
	defer span.End()

	ids := []string{}
	err := s.db.SelectContext(
		ctx, &ids,
		s.db.Rebind(`SELECT "game_id" FROM "Buffer_Games" LIMIT ?`),
		limit,
	)
	return ids, recordErr(span, err)
}

func (s Store) EnqueueGame(ctx context.Context, gameId string) error {
	_, err := s.db.ExecContext(
		ctx,
		s.db.Rebind(`INSERT INTO "Buffer_Games" ("game_id") VALUES (?) ON CONFLICT DO NOTHING`),
		gameId,
	)
	return err
}

func (s Store) DeleteBufferedGame(ctx context.Context, gameId string) error {
	_, err := s.db.ExecContext(
		ctx,
		s.db.Rebind(`DELETE FROM "Buffer_Games" WHERE "game_id" = ?`),
		gameId,
	)
	return err
}

// BufferedProfiles returns the steam ids of every profile waiting for a
// playtime update.
func (s Store) BufferedProfiles(ctx context.Context) ([]string, error) {
	ctx, span := tracer.Start(ctx, "BufferedProfiles")
	defer span.End()

	ids := []string{}
	err := s.db.SelectContext(ctx, &ids, `SELECT "steam_id" FROM "Buffer_Profiles"`)
	return ids, recordErr(span, err)
}

func (s Store) EnqueueProfile(ctx context.Context, steamId string) error {
	_, err := s.db.ExecContext(
		ctx,
		s.db.Rebind(`INSERT INTO "Buffer_Profiles" ("steam_id") VALUES (?) ON CONFLICT DO NOTHING`),
		steamId,
	)
	return err
}

func (s Store) DeleteBufferedProfile(ctx context.Context, steamId string) error {
	_, err := s.db.ExecContext(
		ctx,
		s.db.Rebind(`DELETE FROM "Buffer_Profiles" WHERE "steam_id" = ?`),
		steamId,
	)
	return err
}

// Recommendation is the steam review summary of a game.
type Recommendation struct {
	GameId      int64          `db:"game_id"`
	Total       int64          `db:"total"`
	Positive    int64          `db:"positive"`
	Negative    int64          `db:"negative"`
	Description sql.NullString `db:"description"`
}

func (s Store) UpsertRecommendation(ctx context.Context, r Recommendation) error {
	ctx, span := tracer.Start(ctx, "UpsertRecommendation")
	defer span.End()

	_, err := s.db.ExecContext(
		ctx,
		s.db.Rebind(`INSERT INTO "Game_Recommendations"
			("game_id", "total", "positive", "negative", "description")
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT ("game_id") DO UPDATE SET
			"total" = EXCLUDED."total",
			"positive" = EXCLUDED."positive",
			"negative" = EXCLUDED."negative",
			"description" = EXCLUDED."description"`),
		r.GameId, r.Total, r.Positive, r.Negative, r.Description,
	)
	return recordErr(span, err)
}

func (s Store) Recommendation(ctx context.Context, gameId int64) (Recommendation, error) {
	var r Recommendation
	err := s.db.GetContext(
		ctx, &r,
		s.db.Rebind(`SELECT "game_id", "total", "positive", "negative", "description"
			FROM "Game_Recommendations" WHERE "game_id" = ?`),
		gameId,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Recommendation{}, ErrNotFound
	}
	return r, err
}

// MetacriticScore returns the stored critic score of a game, it is null
// when the game is unknown or has no score.
func (s Store) MetacriticScore(ctx context.Context, gameId int64) (sql.NullInt64, error) {
	var score sql.NullInt64
	err := s.db.GetContext(
		ctx, &score,
		s.db.Rebind(`SELECT "metacritic_score" FROM "Games" WHERE "game_id" = ?`),
		gameId,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return sql.NullInt64{}, nil
	}
	if err != nil {
		return sql.NullInt64{}, fmt.Errorf("select metacritic score: %w", err)
	}
	return score, nil
}

// UpdatePlaytime sets the hours to beat and boil rating of a game, updated
// is false when the game does not exist.
func (s Store) UpdatePlaytime(ctx context.Context, gameId int64, hours float64, boilScore sql.NullFloat64) (updated bool, err error) {
	res, err := s.db.ExecContext(
		ctx,
		s.db.Rebind(`UPDATE "Games" SET "hltb_score" = ?, "boil_score" = ? WHERE "game_id" = ?`),
		hours, boilScore, gameId,
	)
	if err != nil {
		return false, fmt.Errorf("update playtime: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Profiles returns every row of the profiles table as column -> value maps.
func (s Store) Profiles(ctx context.Context) ([]map[string]any, error) {
	ctx, span := tracer.Start(ctx, "Profiles")
	defer span.End()

	rows, err := s.db.QueryxContext(ctx, `SELECT * FROM "Profiles"`)
	if err != nil {
		return nil, recordErr(span, err)
	}
	defer rows.Close()

	profiles := []map[string]any{}
	for rows.Next() {
		row := map[string]any{}
		err := rows.MapScan(row)
		if err != nil {
			return nil, recordErr(span, err)
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		profiles = append(profiles, row)
	}
	return profiles, recordErr(span, rows.Err())
}
