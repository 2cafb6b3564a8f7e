// SPDX-License-Identifier: MIT

package playlist

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWriteM3UTable(t *testing.T) {
	tests := []struct {
		name     string
		channels []Channel
		expect   []string
	}{
		{
			name: "basic with logo and category",
			channels: []Channel{{
				Title: "ORF1 HD", Category: "AT", LogoURL: "http://p/ORF1.png", StreamURL: "http://s/1",
			}},
			expect: []string{
				"#EXTM3U",
				`group-title="AT"`,
				`tvg-logo="http://p/ORF1.png"`,
				",ORF1 HD",
				"http://s/1",
			},
		},
		{
			name: "quotes in attributes are neutralized",
			channels: []Channel{{
				Title: `Say "hi"`, Category: `The "Best"`, LogoURL: PlaceholderLogo, StreamURL: "http://s/2",
			}},
			expect: []string{
				`group-title="The 'Best'"`,
				`,Say "hi"`,
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var b strings.Builder
			if err := WriteM3U(&b, tc.channels); err != nil {
				t.Fatalf("WriteM3U failed: %v", err)
			}
			out := b.String()
			for _, want := range tc.expect {
				if !strings.Contains(out, want) {
					t.Fatalf("missing substring %q\n--- output ---\n%s", want, out)
				}
			}
			if strings.Count(out, "#EXTINF:") != len(tc.channels) {
				t.Fatalf("expected %d EXTINF lines, got %d", len(tc.channels), strings.Count(out, "#EXTINF:"))
			}
		})
	}
}

func TestWriteM3U_NewlinesCannotInjectEntries(t *testing.T) {
	var b strings.Builder
	err := WriteM3U(&b, []Channel{{
		Title:     "Evil\n#EXTINF:-1,Injected\nhttp://evil/x",
		Category:  "News",
		LogoURL:   PlaceholderLogo,
		StreamURL: "http://s/1",
	}})
	if err != nil {
		t.Fatalf("WriteM3U failed: %v", err)
	}
	if got := Parse(b.String()); len(got) != 1 {
		t.Fatalf("expected exactly one channel after re-parse, got %d", len(got))
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		twoChannels,
		"",
		"#EXTM3U\n#EXTINF:-1 group-title=\"News, Local\" tvg-logo=\"https://l/x.png\",City TV, HD\r\nhttps://h/1.m3u8\r\n",
		"#EXTINF:0 tvg-id=\"a\" group-title=\"Kids\",Cartoons \"Classic\"\n\nhttp://h/k\n#EXTINF:-1,Dangling\n",
		"#EXTINF:-1,Ünïcødé Κανάλι\nhttp://h/u\n",
	}

	for _, in := range inputs {
		first := Parse(in)

		var b strings.Builder
		if err := WriteM3U(&b, first); err != nil {
			t.Fatalf("WriteM3U failed: %v", err)
		}
		second := Parse(b.String())

		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("round trip mismatch for %q (-first +second):\n%s", in, diff)
		}
	}
}
