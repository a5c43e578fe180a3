package hltb

import (
	"boilerroom-backend/internal/components/telemetry"
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("boilerroom.internal.hltb")

const (
	report_client_render = "client.render"
	report_client_parse  = "client.parse"
	report_client_rows   = "client.rows"
)

const DefaultBaseUrl = "https://howlongtobeat.com"

// Client reads the playtimes of a steam user's library from HLTB.
type Client struct {
	baseUrl  string
	renderer Renderer
	tel      telemetry.API
}

func NewClient(baseUrl string, renderer Renderer, tel telemetry.API) Client {
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}
	return Client{
		baseUrl:  strings.TrimSuffix(baseUrl, "/"),
		renderer: renderer,
		tel:      telemetry.NewScopedAPI("hltb", tel),
	}
}

func (c Client) profileUrl(steamId string) string {
	return fmt.Sprintf("%s/steam?userName=%s", c.baseUrl, url.QueryEscape(steamId))
}

// ProfilePlaytimes renders the HLTB page of a steam profile and returns
// every game in it with a known playtime.
func (c Client) ProfilePlaytimes(ctx context.Context, steamId string) ([]Entry, error) {
	ctx, span := tracer.Start(ctx, "ProfilePlaytimes")
	defer span.End()
	span.SetAttributes(attribute.String("steam_id", steamId))

	link := c.profileUrl(steamId)
	html, err := c.renderer.Render(ctx, link)
	if err != nil {
		c.tel.ReportBroken(report_client_render, err, link)
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		return nil, err
	}

	entries, err := ParseSteamTable(ctx, html)
	if err != nil {
		c.tel.ReportBroken(report_client_parse, err, link)
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return nil, err
	}
	if len(entries) == 0 {
		c.tel.ReportWarning(report_client_rows, "no playtimes found", link)
	}
	c.tel.ReportDebug(report_client_rows, steamId, len(entries))
	span.SetAttributes(attribute.Int("entries", len(entries)))

	return entries, nil
}
