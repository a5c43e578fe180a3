package steam

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const report_client_app_details = "client.app-details"

var (
	// ErrMalformedResponse means the response did not contain the requested app.
	ErrMalformedResponse = errors.New("invalid API response structure")
	// ErrAppUnavailable means steam reported failure for the app, usually
	// because it does not exist or is not available in the store region.
	ErrAppUnavailable = errors.New("steam API reported failure")
	// ErrNoData means steam reported success without any app data.
	ErrNoData = errors.New("no game data in API response")
)

// FlexInt decodes ids that steam sends either as numbers or as strings.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		err := json.Unmarshal(data, &s)
		if err != nil {
			return err
		}
		data = []byte(s)
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("decode id %q: %w", string(data), err)
	}
	*f = FlexInt(n)
	return nil
}

type Platforms struct {
	Windows bool `json:"windows"`
	Mac     bool `json:"mac"`
	Linux   bool `json:"linux"`
}

type Metacritic struct {
	Score int    `json:"score"`
	Url   string `json:"url"`
}

type Tag struct {
	Id          FlexInt `json:"id"`
	Description string  `json:"description"`
}

type ReleaseDate struct {
	ComingSoon bool   `json:"coming_soon"`
	Date       string `json:"date"`
}

// AppDetails is the subset of the appdetails payload this service stores.
type AppDetails struct {
	Type             string       `json:"type"`
	Name             string       `json:"name"`
	SteamAppId       int64        `json:"steam_appid"`
	HeaderImage      string       `json:"header_image"`
	ShortDescription string       `json:"short_description"`
	Developers       []string     `json:"developers"`
	Publishers       []string     `json:"publishers"`
	Platforms        *Platforms   `json:"platforms"`
	Metacritic       *Metacritic  `json:"metacritic"`
	Categories       []Tag        `json:"categories"`
	Genres           []Tag        `json:"genres"`
	ReleaseDate      *ReleaseDate `json:"release_date"`
	Dlc              []FlexInt    `json:"dlc"`
}

// AppDetails fetches the store page details of an app.
func (c Client) AppDetails(ctx context.Context, appId int64) (AppDetails, error) {
	ctx, span := tracer.Start(ctx, "AppDetails")
	defer span.End()
	span.SetAttributes(attribute.Int64("appid", appId))

	key := strconv.FormatInt(appId, 10)
	body, err := c.get(ctx, "/api/appdetails", map[string]string{
		"appids": key,
		"l":      "english",
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return AppDetails{}, err
	}

	details, err := decodeAppDetails(body, key)
	if err != nil {
		c.tel.ReportWarning(report_client_app_details, err, appId)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return AppDetails{}, err
	}
	return details, nil
}

func decodeAppDetails(body []byte, key string) (AppDetails, error) {
	if !gjson.ValidBytes(body) {
		return AppDetails{}, ErrMalformedResponse
	}
	envelope := gjson.GetBytes(body, key)
	if !envelope.IsObject() {
		return AppDetails{}, ErrMalformedResponse
	}
	if !envelope.Get("success").Bool() {
		return AppDetails{}, ErrAppUnavailable
	}
	data := envelope.Get("data")
	if !data.IsObject() {
		return AppDetails{}, ErrNoData
	}

	var details AppDetails
	err := json.Unmarshal([]byte(data.Raw), &details)
	if err != nil {
		return AppDetails{}, fmt.Errorf("decode app data: %w", err)
	}
	return details, nil
}
