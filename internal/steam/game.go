package steam

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	PlatformWindows = 4
	PlatformMac     = 2
	PlatformLinux   = 1
)

// Game is a normalized AppDetails, ready to be stored.
type Game struct {
	AppId       int64
	Name        string
	HeaderImage *string
	// nil when steam has no metacritic score
	MetacriticScore *int
	// bitmask of PlatformWindows, PlatformMac and PlatformLinux
	Platforms   int
	Categories  []int64
	Genres      []int64
	Developers  []string
	Publishers  []string
	Description *string
	// YYYY-MM-DD, nil when unreleased or unparsable
	ReleaseDate *string
	Dlcs        []int64
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func PlatformMask(p *Platforms) int {
	if p == nil {
		return 0
	}
	mask := 0
	if p.Windows {
		mask += PlatformWindows
	}
	if p.Mac {
		mask += PlatformMac
	}
	if p.Linux {
		mask += PlatformLinux
	}
	return mask
}

func tagIds(tags []Tag) []int64 {
	ids := make([]int64, len(tags))
	for i, t := range tags {
		ids[i] = int64(t.Id)
	}
	return ids
}

// NewGame normalizes the details of `appId` into a Game.
func NewGame(appId int64, details AppDetails) Game {
	game := Game{
		AppId:       appId,
		Name:        details.Name,
		HeaderImage: optionalString(details.HeaderImage),
		Description: optionalString(details.ShortDescription),
		Platforms:   PlatformMask(details.Platforms),
		Categories:  tagIds(details.Categories),
		Genres:      tagIds(details.Genres),
		Developers:  details.Developers,
		Publishers:  details.Publishers,
		Dlcs:        make([]int64, len(details.Dlc)),
	}
	if game.Name == "" {
		game.Name = "Unknown"
	}
	if game.Developers == nil {
		game.Developers = []string{}
	}
	if game.Publishers == nil {
		game.Publishers = []string{}
	}
	if details.Metacritic != nil && details.Metacritic.Score != 0 {
		score := details.Metacritic.Score
		game.MetacriticScore = &score
	}
	for i, dlc := range details.Dlc {
		game.Dlcs[i] = int64(dlc)
	}
	if details.ReleaseDate != nil && details.ReleaseDate.Date != "" && !details.ReleaseDate.ComingSoon {
		game.ReleaseDate = ParseReleaseDate(details.ReleaseDate.Date)
	}
	return game
}

var releaseDateLayouts = []string{
	"2 Jan 2006",
	"Jan 2 2006",
	"2 January 2006",
	"January 2 2006",
	"2006-01-02",
	"2006/01/02",
	"Jan 2006",
	"January 2006",
}

var whitespace = regexp.MustCompile(`\s+`)
var releaseDateSeparators = regexp.MustCompile(`[\s,\-]+`)

// ParseReleaseDate normalizes the store's human readable release date
// ("21 Aug, 2012", "Aug 21, 2012") into YYYY-MM-DD. It returns nil for
// dates it cannot make sense of, like "Coming soon" or "Q3 2025".
func ParseReleaseDate(text string) *string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	normalized := whitespace.ReplaceAllString(strings.ReplaceAll(text, ",", " "), " ")
	for _, layout := range releaseDateLayouts {
		date, err := time.Parse(layout, normalized)
		if err == nil {
			formatted := date.Format(time.DateOnly)
			return &formatted
		}
	}

	// day-month-year with any separator, like "21-Aug-2012"
	parts := releaseDateSeparators.Split(text, -1)
	if len(parts) != 3 {
		return nil
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil || day < 1 || day > 31 {
		return nil
	}
	month, ok := parseMonth(parts[1])
	if !ok {
		return nil
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil || year < 1000 || year > 9999 {
		return nil
	}
	// time.Date normalizes overflowing days, "31-Feb-2012" would become March 2nd
	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if date.Day() != day || date.Month() != month {
		return nil
	}
	formatted := date.Format(time.DateOnly)
	return &formatted
}

func parseMonth(s string) (time.Month, bool) {
	s = strings.ToLower(strings.TrimSuffix(s, "."))
	if len(s) < 3 {
		return 0, false
	}
	for m := time.January; m <= time.December; m++ {
		if strings.HasPrefix(strings.ToLower(m.String()), s) {
			return m, true
		}
	}
	return 0, false
}
