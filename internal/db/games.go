package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// GameRecord is a row of "Games" together with its dictionary and join
// table rows.
type GameRecord struct {
	GameId          int64           `db:"game_id"`
	Name            string          `db:"name"`
	HeaderImage     sql.NullString  `db:"header_image"`
	Platform        int             `db:"platform"`
	MetacriticScore sql.NullInt64   `db:"metacritic_score"`
	Released        sql.NullString  `db:"released"`
	Description     sql.NullString  `db:"description"`
	HltbScore       sql.NullFloat64 `db:"hltb_score"`
	BoilScore       sql.NullFloat64 `db:"boil_score"`

	Developers []string `db:"-"`
	Publishers []string `db:"-"`
	Categories []int64  `db:"-"`
	Genres     []int64  `db:"-"`
	Dlcs       []int64  `db:"-"`
}

// InsertGame writes a game and all of its related rows in a single
// transaction. Re-inserting a known game refreshes its metadata but keeps
// "hltb_score" and "boil_score" untouched.
func (s Store) InsertGame(ctx context.Context, game GameRecord) error {
	ctx, span := tracer.Start(ctx, "InsertGame")
	defer span.End()

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(
			ctx,
			tx.Rebind(`INSERT INTO "Games"
				("game_id", "name", "header_image", "platform", "metacritic_score", "released", "description")
				VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT ("game_id") DO UPDATE SET
				"name" = EXCLUDED."name",
				"header_image" = EXCLUDED."header_image",
				"platform" = EXCLUDED."platform",
				"metacritic_score" = EXCLUDED."metacritic_score",
				"released" = EXCLUDED."released",
				"description" = EXCLUDED."description"`),
			game.GameId,
			game.Name,
			game.HeaderImage,
			game.Platform,
			game.MetacriticScore,
			game.Released,
			game.Description,
		)
		if err != nil {
			return fmt.Errorf("insert game: %w", err)
		}

		for _, dev := range game.Developers {
			err = execAll(
				ctx, tx,
				`INSERT INTO "Developers" ("developers") VALUES (?) ON CONFLICT DO NOTHING`,
				`INSERT INTO "Game_Developers" ("game_id", "developer") VALUES (?, ?) ON CONFLICT DO NOTHING`,
				game.GameId, dev,
			)
			if err != nil {
				return fmt.Errorf("insert developer %q: %w", dev, err)
			}
		}
		for _, pub := range game.Publishers {
			err = execAll(
				ctx, tx,
				`INSERT INTO "Publishers" ("publisher") VALUES (?) ON CONFLICT DO NOTHING`,
				`INSERT INTO "Game_Publishers" ("game_id", "publisher") VALUES (?, ?) ON CONFLICT DO NOTHING`,
				game.GameId, pub,
			)
			if err != nil {
				return fmt.Errorf("insert publisher %q: %w", pub, err)
			}
		}

		for _, category := range game.Categories {
			_, err = tx.ExecContext(
				ctx,
				tx.Rebind(`INSERT INTO "Game_Category" ("game_id", "category") VALUES (?, ?) ON CONFLICT DO NOTHING`),
				game.GameId, category,
			)
			if err != nil {
				return fmt.Errorf("insert category %d: %w", category, err)
			}
		}
		for _, genre := range game.Genres {
			_, err = tx.ExecContext(
				ctx,
				tx.Rebind(`INSERT INTO "Game_Genres" ("games", "genres") VALUES (?, ?) ON CONFLICT DO NOTHING`),
				game.GameId, genre,
			)
			if err != nil {
				return fmt.Errorf("insert genre %d: %w", genre, err)
			}
		}
		for _, dlc := range game.Dlcs {
			_, err = tx.ExecContext(
				ctx,
				tx.Rebind(`INSERT INTO "DLCs" ("dlc_id", "main_game") VALUES (?, ?) ON CONFLICT DO NOTHING`),
				dlc, game.GameId,
			)
			if err != nil {
				return fmt.Errorf("insert dlc %d: %w", dlc, err)
			}
		}
		return nil
	})
	return recordErr(span, err)
}

// execAll inserts `name` into a dictionary table with `dictQuery` and then
// links it to `gameId` with `joinQuery`.
func execAll(ctx context.Context, tx *sqlx.Tx, dictQuery, joinQuery string, gameId int64, name string) error {
	_, err := tx.ExecContext(ctx, tx.Rebind(dictQuery), name)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, tx.Rebind(joinQuery), gameId, name)
	return err
}

// Game reads a game and its related rows, ErrNotFound is returned when the
// game does not exist.
func (s Store) Game(ctx context.Context, gameId int64) (GameRecord, error) {
	ctx, span := tracer.Start(ctx, "Game")
	defer span.End()

	var game GameRecord
	err := s.db.GetContext(
		ctx, &game,
		s.db.Rebind(`SELECT "game_id", "name", "header_image", "platform", "metacritic_score",
			CAST("released" AS TEXT) AS "released", "description", "hltb_score", "boil_score"
			FROM "Games" WHERE "game_id" = ?`),
		gameId,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return GameRecord{}, ErrNotFound
	}
	if err != nil {
		return GameRecord{}, recordErr(span, err)
	}

	queries := []struct {
		dest  any
		query string
	}{
		{&game.Developers, `SELECT "developer" FROM "Game_Developers" WHERE "game_id" = ? ORDER BY "developer"`},
		{&game.Publishers, `SELECT "publisher" FROM "Game_Publishers" WHERE "game_id" = ? ORDER BY "publisher"`},
		{&game.Categories, `SELECT "category" FROM "Game_Category" WHERE "game_id" = ? ORDER BY "category"`},
		{&game.Genres, `SELECT "genres" FROM "Game_Genres" WHERE "games" = ? ORDER BY "genres"`},
		{&game.Dlcs, `SELECT "dlc_id" FROM "DLCs" WHERE "main_game" = ? ORDER BY "dlc_id"`},
	}
	for _, q := range queries {
		err = s.db.SelectContext(ctx, q.dest, s.db.Rebind(q.query), gameId)
		if err != nil {
			return GameRecord{}, recordErr(span, err)
		}
	}

	return game, nil
}
