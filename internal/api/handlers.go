package api

import (
	"boilerroom-backend/internal/db"
	"boilerroom-backend/internal/enrichment"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_handler_cronjob  = "handler.cronjob"
	report_handler_profiles = "handler.profiles"
	report_handler_game     = "handler.game"
	report_handler_write    = "handler.write"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s Server) writeJson(w http.ResponseWriter, status int, value any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(value)
	if err != nil {
		s.tel.ReportWarning(report_handler_write, err)
	}
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("content-type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(text))
}

func (s Server) hello(w http.ResponseWriter, r *http.Request) {
	s.writeJson(w, http.StatusOK, map[string]string{"message": "hello"})
}

func (s Server) serviceStatus(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "online")
}

var errRenderOffline = errors.New("render app is not online")

// renderStatus polls the render app until it reports that it is online,
// free tier hosts can take minutes to wake up.
func (s Server) renderStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "renderStatus")
	defer span.End()

	if s.options.RenderStatusUrl == "" {
		writeText(w, http.StatusGatewayTimeout, "Render app did not respond in time")
		return
	}

	attempts := 0
	poll := func() error {
		attempts++
		res, err := s.status.R().
			SetContext(ctx).
			Get(s.options.RenderStatusUrl)
		if err != nil {
			return err
		}
		if res.StatusCode() != http.StatusOK || res.String() != "online" {
			return fmt.Errorf("%w: status %d", errRenderOffline, res.StatusCode())
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(s.options.RenderInterval),
			uint64(s.options.RenderAttempts-1),
		),
		ctx,
	)
	err := backoff.Retry(poll, policy)
	span.SetAttributes(attribute.Int("attempts", attempts))
	if err != nil {
		s.tel.ReportDebug("render app did not respond", attempts, err.Error())
		span.SetStatus(codes.Error, err.Error())
		writeText(w, http.StatusGatewayTimeout, "Render app did not respond in time")
		return
	}
	writeText(w, http.StatusOK, "Render app is online")
}

// runCronjob finishes the run even when the caller goes away, a batch can
// take longer than most clients wait for a response.
func (s Server) runCronjob(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.options.CronjobTimeout)
	defer cancel()

	summary, err := s.cronjob.RunCronjob(ctx)
	if errors.Is(err, enrichment.ErrCronjobRunning) {
		s.writeJson(w, http.StatusConflict, errorResponse{
			Error: "Cronjob is already running",
		})
		return
	}
	if err != nil {
		s.tel.ReportBroken(report_handler_cronjob, err)
		s.writeJson(w, http.StatusInternalServerError, errorResponse{
			Error: "Error fetching HLTB scores",
		})
		return
	}
	s.writeJson(w, http.StatusCreated, summary)
}

func (s Server) profiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.store.Profiles(r.Context())
	if err != nil {
		s.tel.ReportBroken(report_handler_profiles, err)
		s.writeJson(w, http.StatusInternalServerError, errorResponse{
			Error: "Error fetching profiles",
		})
		return
	}
	s.writeJson(w, http.StatusOK, profiles)
}

type gameResponse struct {
	GameId          int64    `json:"game_id"`
	Name            string   `json:"name"`
	HeaderImage     *string  `json:"header_image"`
	Platform        int      `json:"platform"`
	MetacriticScore *int64   `json:"metacritic_score"`
	Released        *string  `json:"released"`
	Description     *string  `json:"description"`
	HltbScore       *float64 `json:"hltb_score"`
	BoilScore       *float64 `json:"boil_score"`
	Developers      []string `json:"developers"`
	Publishers      []string `json:"publishers"`
	Categories      []int64  `json:"categories"`
	Genres          []int64  `json:"genres"`
	Dlcs            []int64  `json:"dlcs"`
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func newGameResponse(game db.GameRecord) gameResponse {
	res := gameResponse{
		GameId:     game.GameId,
		Name:       game.Name,
		Platform:   game.Platform,
		Developers: orEmpty(game.Developers),
		Publishers: orEmpty(game.Publishers),
		Categories: orEmpty(game.Categories),
		Genres:     orEmpty(game.Genres),
		Dlcs:       orEmpty(game.Dlcs),
	}
	if game.HeaderImage.Valid {
		res.HeaderImage = &game.HeaderImage.String
	}
	if game.MetacriticScore.Valid {
		res.MetacriticScore = &game.MetacriticScore.Int64
	}
	if game.Released.Valid {
		res.Released = &game.Released.String
	}
	if game.Description.Valid {
		res.Description = &game.Description.String
	}
	if game.HltbScore.Valid {
		res.HltbScore = &game.HltbScore.Float64
	}
	if game.BoilScore.Valid {
		res.BoilScore = &game.BoilScore.Float64
	}
	return res
}

func (s Server) game(w http.ResponseWriter, r *http.Request) {
	gameId, err := strconv.ParseInt(chi.URLParam(r, "gameId"), 10, 64)
	if err != nil {
		s.writeJson(w, http.StatusBadRequest, errorResponse{Error: "game id must be an integer"})
		return
	}

	game, err := s.store.Game(r.Context(), gameId)
	if errors.Is(err, db.ErrNotFound) {
		s.writeJson(w, http.StatusNotFound, errorResponse{Error: "game not found"})
		return
	}
	if err != nil {
		s.tel.ReportBroken(report_handler_game, err, gameId)
		s.writeJson(w, http.StatusInternalServerError, errorResponse{Error: "Error fetching game"})
		return
	}
	s.writeJson(w, http.StatusOK, newGameResponse(game))
}
