package model

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Station is one radio station record as returned by the station directory.
// Field names follow the directory's JSON wire format. Records are treated as
// immutable once received.
type Station struct {
	ID                string `json:"stationuuid"`
	Name              string `json:"name"`
	StreamURL         string `json:"url"`
	ResolvedStreamURL string `json:"url_resolved,omitempty"`
	IconURL           string `json:"favicon,omitempty"`
	Country           string `json:"country"`
	Tags              string `json:"tags"`  // comma separated
	Votes             int    `json:"votes"` // popularity, display only
	BitrateKbps       int    `json:"bitrate,omitempty"`
	Codec             string `json:"codec,omitempty"`
}

// PlayURL returns the address handed to the audio output. The resolved address
// is preferred because it is more likely to be directly playable.
func (s Station) PlayURL() string {
	if u := strings.TrimSpace(s.ResolvedStreamURL); u != "" {
		return u
	}
	return strings.TrimSpace(s.StreamURL)
}

// TagList returns at most n non-empty, trimmed tags in their original order.
func (s Station) TagList(n int) []string {
	if n <= 0 || s.Tags == "" {
		return nil
	}
	tags := make([]string, 0, n)
	for _, t := range strings.Split(s.Tags, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		tags = append(tags, t)
		if len(tags) == n {
			break
		}
	}
	return tags
}

// FirstTag returns the first tag or "".
func (s Station) FirstTag() string {
	if tags := s.TagList(1); len(tags) > 0 {
		return tags[0]
	}
	return ""
}

// HasIcon reports whether the icon address is an absolute http(s) URL. Anything
// else is rendered as the placeholder glyph.
func (s Station) HasIcon() bool {
	raw := strings.TrimSpace(s.IconURL)
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// VoteLabel abbreviates the vote count: 999 -> "999", 1234 -> "1.2k", 2000000 -> "2M".
func (s Station) VoteLabel() string {
	return AbbreviateCount(s.Votes)
}

// QualityLabel renders bitrate and codec, e.g. "128 kbps MP3".
func (s Station) QualityLabel() string {
	var parts []string
	if s.BitrateKbps > 0 {
		parts = append(parts, fmt.Sprintf("%d kbps", s.BitrateKbps))
	}
	if c := strings.TrimSpace(s.Codec); c != "" {
		parts = append(parts, strings.ToUpper(c))
	}
	return strings.Join(parts, " ")
}

// AbbreviateCount renders non-negative counts with a k/M suffix above 999.
// The decimal is truncated, not rounded, so 1999 is "1.9k".
func AbbreviateCount(n int) string {
	if n < 0 {
		n = 0
	}
	switch {
	case n < 1000:
		return strconv.Itoa(n)
	case n < 1_000_000:
		return tenths(n/100) + "k"
	default:
		return tenths(n/100_000) + "M"
	}
}

func tenths(t int) string {
	if t%10 == 0 {
		return strconv.Itoa(t / 10)
	}
	return fmt.Sprintf("%d.%d", t/10, t%10)
}
