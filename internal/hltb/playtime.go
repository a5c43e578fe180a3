package hltb

import (
	"boilerroom-backend/internal/boil"
	"regexp"
	"strconv"
	"strings"
)

var playtimeRegex = regexp.MustCompile(`(?:(\d+)h)?\s*(?:(\d+)m)?`)

// ParsePlaytime converts a playtime cell like "12h 30m", "45m" or "3h" into
// hours rounded to one decimal. Text that does not start with a playtime
// (like "--") is 0.
func ParsePlaytime(text string) float64 {
	match := playtimeRegex.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return 0
	}

	var hours, minutes int
	if match[1] != "" {
		hours, _ = strconv.Atoi(match[1])
	}
	if match[2] != "" {
		minutes, _ = strconv.Atoi(match[2])
	}
	return boil.Round1(float64(hours) + float64(minutes)/60)
}
