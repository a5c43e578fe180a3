package htmlutil

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	table := []struct {
		input    string
		expected string
	}{
		{input: "  12h 30m ", expected: "12h 30m"},
		{input: "\n\t12h\n\n   30m\t", expected: "12h 30m"},
		{input: "Portal\u00002", expected: "Portal2"},
		{input: "", expected: ""},
	}

	for _, row := range table {
		require.Equal(t, row.expected, CleanText(row.input))
	}
}

func TestGetAnchors(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<div>
			<a href="http://store.steampowered.com/app/620/">  Portal
				2 </a>
			<a href="/relative?x=1">relative</a>
			<a href="http://[::1]:namedport">broken</a>
		</div>
	`))
	require.NoError(t, err)

	anchors := GetAnchors(context.Background(), doc.Find("a"))
	require.Len(t, anchors, 2)
	require.Equal(t, "Portal 2", anchors[0].Name)
	require.Equal(t, "store.steampowered.com", anchors[0].Href.Host)
	require.Equal(t, "/relative", anchors[1].Href.Path)
}
