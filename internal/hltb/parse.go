package hltb

import (
	"boilerroom-backend/lib/htmlutil"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Entry is one game of a profile's library with a known playtime.
type Entry struct {
	AppID int64
	Hours float64
}

var appIdRegex = regexp.MustCompile(`app/(\d+)`)

const (
	rowSelector       = "tr.spreadsheet"
	storeLinkSelector = `a[href*="store.steampowered.com/app/"]`
	timeCellSelector  = "td.center"
)

// ParseSteamTable extracts the steam app id and playtime of every row of a
// rendered HLTB steam library page. Rows without a store link or time cell
// are skipped, as are rows with a playtime of 0.
func ParseSteamTable(ctx context.Context, html string) ([]Entry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	entries := []Entry{}
	doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		anchors := htmlutil.GetAnchors(ctx, row.Find(storeLinkSelector).First())
		if len(anchors) == 0 {
			return
		}
		match := appIdRegex.FindStringSubmatch(anchors[0].Href.Path)
		if match == nil {
			return
		}
		appId, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			return
		}

		cell := row.Find(timeCellSelector).First()
		if cell.Length() == 0 {
			return
		}
		hours := ParsePlaytime(htmlutil.CleanText(cell.Text()))
		if hours == 0 {
			return
		}

		entries = append(entries, Entry{AppID: appId, Hours: hours})
	})

	return entries, nil
}
