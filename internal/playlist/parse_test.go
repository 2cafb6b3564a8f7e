// SPDX-License-Identifier: MIT

package playlist

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoChannels = "#EXTINF:-1 group-title=\"News\" tvg-logo=\"http://x/l.png\",Channel A\n" +
	"http://x/a.m3u8\n" +
	"#EXTINF:-1,Channel B\n" +
	"http://x/b.m3u8"

func TestParse_TwoChannels(t *testing.T) {
	got := Parse(twoChannels)
	want := []Channel{
		{Title: "Channel A", Category: "News", LogoURL: "http://x/l.png", StreamURL: "http://x/a.m3u8"},
		{Title: "Channel B", Category: DefaultCategory, LogoURL: PlaceholderLogo, StreamURL: "http://x/b.m3u8"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Table(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []Channel
	}{
		{
			name: "empty document",
			raw:  "",
			want: []Channel{},
		},
		{
			name: "header only",
			raw:  "#EXTM3U\n\n",
			want: []Channel{},
		},
		{
			name: "crlf line endings and extra whitespace",
			raw:  "#EXTM3U\r\n   #EXTINF:-1 group-title=\"Sports\" ,  Sport 1  \r\n\r\n  https://s/1.m3u8  \r\n",
			want: []Channel{
				{Title: "Sport 1", Category: "Sports", LogoURL: PlaceholderLogo, StreamURL: "https://s/1.m3u8"},
			},
		},
		{
			name: "blank and comment lines between metadata and url",
			raw:  "#EXTINF:-1 tvg-logo=\"http://l/1.png\",Movies\n\n#EXTVLCOPT:http-user-agent=Foo\n# comment\nhttp://m/1.ts\n",
			want: []Channel{
				{Title: "Movies", Category: DefaultCategory, LogoURL: "http://l/1.png", StreamURL: "http://m/1.ts"},
			},
		},
		{
			name: "consecutive metadata lines keep the last",
			raw:  "#EXTINF:-1 group-title=\"A\",First\n#EXTINF:-1 group-title=\"B\",Second\nhttp://h/2\n",
			want: []Channel{
				{Title: "Second", Category: "B", LogoURL: PlaceholderLogo, StreamURL: "http://h/2"},
			},
		},
		{
			name: "dangling metadata at end of input",
			raw:  "#EXTINF:-1,Kept\nhttp://h/1\n#EXTINF:-1,Lost\n",
			want: []Channel{
				{Title: "Kept", Category: DefaultCategory, LogoURL: PlaceholderLogo, StreamURL: "http://h/1"},
			},
		},
		{
			name: "orphan url is dropped",
			raw:  "http://h/orphan\n#EXTINF:-1,Real\nhttp://h/real\n",
			want: []Channel{
				{Title: "Real", Category: DefaultCategory, LogoURL: PlaceholderLogo, StreamURL: "http://h/real"},
			},
		},
		{
			name: "missing title yields empty title",
			raw:  "#EXTINF:-1 group-title=\"X\"\nhttp://h/1\n",
			want: []Channel{
				{Title: "", Category: "X", LogoURL: PlaceholderLogo, StreamURL: "http://h/1"},
			},
		},
		{
			name: "comma inside attribute does not split the title",
			raw:  "#EXTINF:-1 group-title=\"News, Local\",City TV, HD\nhttp://h/1\n",
			want: []Channel{
				{Title: "City TV, HD", Category: "News, Local", LogoURL: PlaceholderLogo, StreamURL: "http://h/1"},
			},
		},
		{
			name: "empty attribute values fall back to defaults",
			raw:  "#EXTINF:-1 group-title=\"\" tvg-logo=\"\",Empty Attrs\nhttp://h/1\n",
			want: []Channel{
				{Title: "Empty Attrs", Category: DefaultCategory, LogoURL: PlaceholderLogo, StreamURL: "http://h/1"},
			},
		},
		{
			name: "non http schemes are ignored",
			raw:  "#EXTINF:-1,Ace\nacestream://abc\nrtmp://h/live\n",
			want: []Channel{},
		},
		{
			name: "uppercase scheme accepted",
			raw:  "#EXTINF:-1,Upper\nHTTPS://H/1\n",
			want: []Channel{
				{Title: "Upper", Category: DefaultCategory, LogoURL: PlaceholderLogo, StreamURL: "HTTPS://H/1"},
			},
		},
		{
			name: "url without host is ignored",
			raw:  "#EXTINF:-1,NoHost\nhttp://\nhttp://h/ok\n",
			want: []Channel{
				{Title: "NoHost", Category: DefaultCategory, LogoURL: PlaceholderLogo, StreamURL: "http://h/ok"},
			},
		},
		{
			name: "title attributes are not read as metadata",
			raw:  "#EXTINF:-1,Show group-title=\"Fake\"\nhttp://h/1\n",
			want: []Channel{
				{Title: "Show group-title=\"Fake\"", Category: DefaultCategory, LogoURL: PlaceholderLogo, StreamURL: "http://h/1"},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Parse(tc.raw)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseWithStats_Counts(t *testing.T) {
	raw := strings.Join([]string{
		"#EXTM3U",
		"http://h/orphan",
		"#EXTINF:-1,Overwritten",
		"#EXTINF:-1,One",
		"http://h/1",
		"#EXTINF:-1,Two",
		"http://h/2",
		"#EXTINF:-1,Dangling",
	}, "\n")

	channels, stats := ParseWithStats(raw)
	require.Len(t, channels, 2)
	assert.Equal(t, Stats{Entries: 2, Dropped: 2, Orphans: 1}, stats)
}

func TestParseReader_MatchesParse(t *testing.T) {
	got, stats, err := ParseReader(strings.NewReader(twoChannels))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Entries)
	if diff := cmp.Diff(Parse(twoChannels), got); diff != "" {
		t.Fatalf("ParseReader() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseReader_SkipsOversizedLine(t *testing.T) {
	raw := "#EXTINF:-1,Good\nhttp://a/1\n" +
		"#EXTINF:-1," + strings.Repeat("x", 2<<20) + "\n" +
		"http://a/2\n" +
		"#EXTINF:-1,After\nhttp://a/3\n"

	got, stats, err := ParseReader(strings.NewReader(raw))
	require.NoError(t, err)
	want := []Channel{
		{Title: "Good", Category: DefaultCategory, LogoURL: PlaceholderLogo, StreamURL: "http://a/1"},
		{Title: "After", Category: DefaultCategory, LogoURL: PlaceholderLogo, StreamURL: "http://a/3"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ParseReader() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Stats{Entries: 2, Dropped: 1, Orphans: 1}, stats)
}

func TestParseReader_LineAtLimit(t *testing.T) {
	url := "http://a/" + strings.Repeat("y", maxLineBytes-len("http://a/")-1)
	got, _, err := ParseReader(strings.NewReader("#EXTINF:-1,Long\n" + url + "\n"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, url, got[0].StreamURL)
}

func TestParseReader_ReadError(t *testing.T) {
	boom := errors.New("boom")
	r := iotest.TimeoutReader(strings.NewReader(twoChannels))
	_, _, err := ParseReader(r)
	// TimeoutReader fails the second read.
	require.Error(t, err)

	_, _, err = ParseReader(iotest.ErrReader(boom))
	require.ErrorIs(t, err, boom)
}

// Each metadata line followed (ignoring blanks) by a URL line contributes
// exactly one channel.
func TestParse_EntryCountProperty(t *testing.T) {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	want := 0
	for i := 0; i < 50; i++ {
		b.WriteString("#EXTINF:-1 group-title=\"G\",C\n")
		if i%3 == 0 {
			continue // dangling: next line is another metadata line
		}
		if i%2 == 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("http://h/" + strings.Repeat("x", i+1) + "\n")
		want++
	}
	assert.Len(t, Parse(b.String()), want)
}
