// SPDX-License-Identifier: MIT

package playlist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
)

const extinfPrefix = "#EXTINF:"

// maxLineBytes bounds a single playlist line when reading from a stream.
// Longer lines are skipped.
const maxLineBytes = 1 << 20

var attrRegex = regexp.MustCompile(`([a-zA-Z0-9_-]+)="([^"]*)"`)

// Parse converts raw playlist text into channels. It never fails: entries
// that are incomplete or malformed are dropped.
//
// The title is the text after the first comma that is not inside a quoted
// attribute value, so group-title="News, Sports" does not cut the title
// short. Lines with unbalanced quotes fall back to the first comma.
func Parse(raw string) []Channel {
	channels, _ := ParseWithStats(raw)
	return channels
}

// ParseWithStats is Parse plus counters for what was dropped.
func ParseWithStats(raw string) ([]Channel, Stats) {
	p := &parser{}
	for _, line := range strings.Split(raw, "\n") {
		p.feed(line)
	}
	return p.finish()
}

// ParseReader reads a playlist from r. Malformed input never fails it: a
// line longer than 1 MiB is skipped along with any entry it belonged to. The
// only error returned is a read error from r; in that case the channels
// completed so far are still returned.
func ParseReader(r io.Reader) ([]Channel, Stats, error) {
	p := &parser{}
	br := bufio.NewReaderSize(r, 64*1024)
	var line []byte
	oversized := false
	for {
		chunk, err := br.ReadSlice('\n')
		if !oversized {
			if len(line)+len(chunk) > maxLineBytes {
				oversized = true
				line = line[:0]
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			channels, stats := p.finish()
			return channels, stats, fmt.Errorf("read playlist: %w", err)
		}

		if oversized {
			p.skip()
		} else {
			p.feed(string(line))
		}
		line = line[:0]
		oversized = false

		if err != nil {
			break
		}
	}
	channels, stats := p.finish()
	return channels, stats, nil
}

// parser holds at most one pending entry; a second #EXTINF line replaces it.
type parser struct {
	pending  *Channel
	channels []Channel
	stats    Stats
}

func (p *parser) feed(line string) {
	line = strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(line, extinfPrefix):
		if p.pending != nil {
			p.stats.Dropped++
		}
		ch := parseExtinf(line)
		p.pending = &ch
	case isStreamURL(line):
		if p.pending == nil {
			p.stats.Orphans++
			return
		}
		p.pending.StreamURL = line
		p.channels = append(p.channels, *p.pending)
		p.pending = nil
	}
}

// skip discards a line too long to buffer. A pending entry cannot be
// completed across it, so it is dropped too.
func (p *parser) skip() {
	if p.pending != nil {
		p.stats.Dropped++
		p.pending = nil
	}
	p.stats.Dropped++
}

func (p *parser) finish() ([]Channel, Stats) {
	if p.pending != nil {
		p.stats.Dropped++
		p.pending = nil
	}
	p.stats.Entries = len(p.channels)
	if p.channels == nil {
		p.channels = []Channel{}
	}
	return p.channels, p.stats
}

// parseExtinf extracts title, category and logo from a metadata line.
func parseExtinf(line string) Channel {
	header, title := splitTitle(line)
	ch := Channel{
		Title:    strings.TrimSpace(title),
		Category: DefaultCategory,
		LogoURL:  PlaceholderLogo,
	}

	for _, match := range attrRegex.FindAllStringSubmatch(header, -1) {
		value := strings.TrimSpace(match[2])
		if value == "" {
			continue
		}
		switch strings.ToLower(match[1]) {
		case "group-title":
			ch.Category = value
		case "tvg-logo":
			ch.LogoURL = value
		}
	}
	return ch
}

// splitTitle splits a metadata line at the first comma outside a quoted
// attribute value.
func splitTitle(line string) (header, title string) {
	inQuotes := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				return line[:i], line[i+1:]
			}
		}
	}
	// Unbalanced quotes: fall back to the first comma.
	if before, after, ok := strings.Cut(line, ","); ok {
		return before, after
	}
	return line, ""
}

// isStreamURL reports whether line is an absolute http(s) URL with a host.
func isStreamURL(line string) bool {
	lower := strings.ToLower(line)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}
	u, err := url.Parse(line)
	if err != nil {
		return false
	}
	return u.Host != ""
}

// IsStreamURL reports whether s is acceptable as a channel stream URL.
func IsStreamURL(s string) bool {
	return isStreamURL(strings.TrimSpace(s))
}
