package enrichment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrCronjobRunning is returned by RunCronjob while another run is in
// progress, runs share the same buffers.
var ErrCronjobRunning = errors.New("cronjob is already running")

type CronjobSummary struct {
	RunId     string          `json:"runId"`
	Games     LoadSummary     `json:"games"`
	Playtimes PlaytimeSummary `json:"playtimes"`
}

// RunCronjob loads buffered games and then updates buffered profiles, new
// games are inserted first so their playtimes can be written in the same
// run.
func (s Service) RunCronjob(ctx context.Context) (CronjobSummary, error) {
	if !s.running.TryLock() {
		return CronjobSummary{}, ErrCronjobRunning
	}
	defer s.running.Unlock()

	summary := CronjobSummary{RunId: uuid.NewString()}

	ctx, span := tracer.Start(ctx, "RunCronjob")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", summary.RunId))

	s.tel.ReportDebug("cronjob: start", summary.RunId)

	games, err := s.LoadGames(ctx)
	summary.Games = games
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load games")
		return summary, fmt.Errorf("load games: %w", err)
	}

	playtimes, err := s.UpdatePlaytimes(ctx)
	summary.Playtimes = playtimes
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update playtimes")
		return summary, fmt.Errorf("update playtimes: %w", err)
	}

	s.tel.ReportDebug(
		"cronjob: done",
		summary.RunId,
		games.Succeeded, games.Failed,
		playtimes.Updated, playtimes.Failed,
	)
	return summary, nil
}
