package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStation_PlayURL(t *testing.T) {
	s := Station{StreamURL: "http://a"}
	assert.Equal(t, "http://a", s.PlayURL())

	s.ResolvedStreamURL = "http://b-resolved"
	assert.Equal(t, "http://b-resolved", s.PlayURL())

	s.ResolvedStreamURL = "   "
	assert.Equal(t, "http://a", s.PlayURL(), "blank resolved address falls back to the raw one")
}

func TestStation_TagList(t *testing.T) {
	s := Station{Tags: "jazz, smooth jazz,,lounge,chill"}

	assert.Equal(t, []string{"jazz"}, s.TagList(1))
	assert.Equal(t, []string{"jazz", "smooth jazz", "lounge"}, s.TagList(3))
	assert.Equal(t, "jazz", s.FirstTag())
	assert.Nil(t, s.TagList(0))
	assert.Equal(t, "", Station{}.FirstTag())
}

func TestStation_HasIcon(t *testing.T) {
	cases := map[string]bool{
		"":                           false,
		"   ":                        false,
		"not a url":                  false,
		"/relative/icon.png":         false,
		"data:image/png;base64,AAAA": false,
		"https://example.com/i.png":  true,
		"http://example.com/i.ico":   true,
	}
	for icon, want := range cases {
		assert.Equal(t, want, Station{IconURL: icon}.HasIcon(), "icon %q", icon)
	}
}

func TestAbbreviateCount(t *testing.T) {
	cases := map[int]string{
		-5:        "0",
		0:         "0",
		999:       "999",
		1000:      "1k",
		1234:      "1.2k",
		1999:      "1.9k",
		2300:      "2.3k",
		999999:    "999.9k",
		1_000_000: "1M",
		1_550_000: "1.5M",
	}
	for n, want := range cases {
		assert.Equal(t, want, AbbreviateCount(n), "count %d", n)
	}
}

func TestStation_QualityLabel(t *testing.T) {
	assert.Equal(t, "128 kbps MP3", Station{BitrateKbps: 128, Codec: "mp3"}.QualityLabel())
	assert.Equal(t, "AAC", Station{Codec: "aac"}.QualityLabel())
	assert.Equal(t, "", Station{}.QualityLabel())
}

func TestStation_DecodeDirectoryRecord(t *testing.T) {
	raw := `{"stationuuid":"s1","name":"Jazz FM","url":"http://a","url_resolved":"http://a/live",
		"favicon":"https://a/icon.png","country":"UK","tags":"jazz,smooth","votes":500,
		"bitrate":128,"codec":"MP3","homepage":"https://a","clickcount":12}`

	var s Station
	require.NoError(t, json.Unmarshal([]byte(raw), &s))

	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, "Jazz FM", s.Name)
	assert.Equal(t, "http://a/live", s.PlayURL())
	assert.Equal(t, 500, s.Votes)
	assert.Equal(t, "jazz", s.FirstTag())
}
