// Package channel defines the SomaFM channel directory model and the
// exact-title stream lookup used by play mode.
package channel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Playlist is one stream variant of a channel. Position in Channel.Playlists
// is the quality rank; index 0 is the highest quality.
type Playlist struct {
	URL     string `json:"url"`
	Format  string `json:"format,omitempty"`
	Quality string `json:"quality,omitempty"`
}

// Channel is a single entry in the directory.
type Channel struct {
	ID          string        `json:"id,omitempty"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Genre       string        `json:"genre,omitempty"`
	DJ          string        `json:"dj,omitempty"`
	Listeners   ListenerCount `json:"listeners"`
	Playlists   []Playlist    `json:"playlists"`
}

// Directory is the full, ordered channel list returned by one fetch.
// It is replaced wholesale on every fetch and never patched.
type Directory struct {
	Channels  []Channel `json:"channels"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Len returns the number of channels in the directory.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Channels)
}

// TotalListeners returns the sum of listener counts across all channels.
func (d *Directory) TotalListeners() int {
	total := 0
	for _, ch := range d.Channels {
		total += int(ch.Listeners)
	}
	return total
}

// ListenerCount is a non-negative listener total. The feed sends it either
// as a JSON string ("123") or a JSON number.
type ListenerCount int

// UnmarshalJSON accepts a quoted or bare integer.
func (c *ListenerCount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = 0
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding listeners: %w", err)
		}
		raw = strings.TrimSpace(s)
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("listeners %q is not an integer", raw)
	}
	if n < 0 {
		return fmt.Errorf("listeners %d is negative", n)
	}

	*c = ListenerCount(n)
	return nil
}

// feed is the top-level shape of the channels.json document.
type feed struct {
	Channels *[]Channel `json:"channels"`
}

// Decode parses a channels.json document into a Directory.
// A body that is not JSON, lacks a "channels" array, or carries a
// non-integer listener count is rejected.
func Decode(data []byte, fetchedAt time.Time) (*Directory, error) {
	var f feed
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding channel feed: %w", err)
	}
	if f.Channels == nil {
		return nil, fmt.Errorf("channel feed has no channels field")
	}

	return &Directory{
		Channels:  *f.Channels,
		FetchedAt: fetchedAt,
	}, nil
}
