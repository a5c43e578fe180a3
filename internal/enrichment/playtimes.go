package enrichment

import (
	"boilerroom-backend/internal/boil"
	"context"
	"database/sql"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_playtimes_read    = "playtimes.read"
	report_playtimes_profile = "playtimes.profile"
	report_playtimes_game    = "playtimes.game"
	report_playtimes_buffer  = "playtimes.delete-buffer"
	report_playtimes_updated = "playtimes.updated"
)

type ProfileResult struct {
	SteamId string `json:"steamId"`
	// games with a known playtime in the profile's library
	Games int `json:"games"`
	// games that exist in the store and were updated
	Updated int    `json:"updated"`
	Error   string `json:"error,omitempty"`
}

type PlaytimeSummary struct {
	Profiles []ProfileResult `json:"profiles"`
	Updated  int             `json:"updated"`
	Failed   int             `json:"failed"`
}

// UpdatePlaytimes runs UpdateProfile on every buffered profile, one at a
// time. Profiles are removed from the buffer once the pass is done, whether
// they succeeded or not.
func (s Service) UpdatePlaytimes(ctx context.Context) (PlaytimeSummary, error) {
	ctx, span := tracer.Start(ctx, "UpdatePlaytimes")
	defer span.End()

	steamIds, err := s.store.BufferedProfiles(ctx)
	if err != nil {
		s.tel.ReportBroken(report_playtimes_read, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "read buffer")
		return PlaytimeSummary{}, err
	}
	span.SetAttributes(attribute.Int("profiles", len(steamIds)))

	summary := PlaytimeSummary{Profiles: make([]ProfileResult, 0, len(steamIds))}
	for _, steamId := range steamIds {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		result, err := s.UpdateProfile(ctx, steamId)
		if err != nil {
			s.tel.ReportBroken(report_playtimes_profile, err, steamId)
			result.Error = err.Error()
			summary.Failed++
		}
		summary.Updated += result.Updated
		summary.Profiles = append(summary.Profiles, result)
	}

	for _, steamId := range steamIds {
		err := s.store.DeleteBufferedProfile(ctx, steamId)
		if err != nil {
			s.tel.ReportBroken(report_playtimes_buffer, err, steamId)
		}
	}

	s.tel.ReportCount(report_playtimes_updated, int64(summary.Updated))
	return summary, nil
}

// UpdateProfile scrapes the playtimes of a steam profile and writes the hours
// to beat and boil rating of every game in it. A game without a critic score
// gets its hours but no boil rating.
func (s Service) UpdateProfile(ctx context.Context, steamId string) (ProfileResult, error) {
	ctx, span := tracer.Start(ctx, "UpdateProfile")
	defer span.End()
	span.SetAttributes(attribute.String("steam_id", steamId))

	result := ProfileResult{SteamId: steamId}

	entries, err := s.playtimes.ProfilePlaytimes(ctx, steamId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch playtimes")
		return result, err
	}
	result.Games = len(entries)

	for _, entry := range entries {
		score, err := s.store.MetacriticScore(ctx, entry.AppID)
		if err != nil {
			s.tel.ReportBroken(report_playtimes_game, err, entry.AppID)
			continue
		}

		var rating sql.NullFloat64
		if score.Valid {
			rating = sql.NullFloat64{
				Float64: boil.Rating(entry.Hours, float64(score.Int64), s.options.QualityWeight),
				Valid:   true,
			}
		}

		updated, err := s.store.UpdatePlaytime(ctx, entry.AppID, entry.Hours, rating)
		if err != nil {
			s.tel.ReportBroken(report_playtimes_game, err, entry.AppID)
			continue
		}
		if updated {
			result.Updated++
		}
	}

	s.playtimesUpdated.Add(ctx, int64(result.Updated))
	span.SetAttributes(
		attribute.Int("games", result.Games),
		attribute.Int("updated", result.Updated),
	)
	return result, nil
}
