// Package testutil provides test utilities including sample channel data generation.
package testutil

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/jmylchreest/somafm/internal/channel"
)

// SampleFeedJSON is a trimmed channels.json document in the shape the SomaFM
// endpoint serves. Listener counts mix the string and numeric encodings.
const SampleFeedJSON = `{
  "channels": [
    {
      "id": "groovesalad",
      "title": "Groove Salad",
      "description": "A nicely chilled plate of ambient/downtempo beats and grooves.",
      "dj": "Rusty Hodge",
      "genre": "ambient|electronica",
      "listeners": "1520",
      "playlists": [
        {"url": "https://somafm.com/groovesalad256.pls", "format": "mp3", "quality": "highest"},
        {"url": "https://somafm.com/groovesalad130.pls", "format": "aac", "quality": "highest"},
        {"url": "https://somafm.com/groovesalad2.pls", "format": "aacp", "quality": "low"}
      ]
    },
    {
      "id": "dronezone",
      "title": "Drone Zone",
      "description": "Served best chilled, safe with most medications.",
      "dj": "Rusty Hodge",
      "genre": "ambient",
      "listeners": 874,
      "playlists": [
        {"url": "https://somafm.com/dronezone256.pls", "format": "mp3", "quality": "highest"}
      ]
    },
    {
      "id": "secretagent",
      "title": "Secret Agent",
      "description": "The soundtrack for your stylish, mysterious, dangerous life.",
      "dj": "Rusty Hodge",
      "genre": "lounge",
      "listeners": "2301",
      "playlists": [
        {"url": "https://somafm.com/secretagent.pls", "format": "mp3", "quality": "high"},
        {"url": "https://somafm.com/secretagent64.pls", "format": "aacp", "quality": "low"}
      ]
    }
  ]
}`

// SampleDirectory decodes SampleFeedJSON into a Directory.
func SampleDirectory() *channel.Directory {
	dir, err := channel.Decode([]byte(SampleFeedJSON), time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if err != nil {
		panic(fmt.Sprintf("sample feed must decode: %v", err))
	}
	return dir
}

// Fictional channel name parts for generated directories.
var (
	Moods = []string{"Groove", "Drone", "Deep", "Space", "Beat", "Sonic", "Indie", "Lush"}
	Nouns = []string{"Salad", "Zone", "Station", "Pop", "Blender", "Universe", "Lounge", "Trip"}
)

// SampleDataGenerator generates random channel directories for tests.
type SampleDataGenerator struct {
	rng *rand.Rand
}

// NewSampleDataGenerator creates a generator seeded from the current time.
func NewSampleDataGenerator() *SampleDataGenerator {
	return NewSampleDataGeneratorWithSeed(time.Now().UnixNano())
}

// NewSampleDataGeneratorWithSeed creates a generator with a fixed seed for reproducible data.
func NewSampleDataGeneratorWithSeed(seed int64) *SampleDataGenerator {
	return &SampleDataGenerator{
		rng: rand.New(rand.NewSource(seed)), //nolint:gosec // test data only
	}
}

// GenerateDirectory returns a directory of count channels with unique titles,
// random listener counts, and one to three playlists each.
func (g *SampleDataGenerator) GenerateDirectory(count int) *channel.Directory {
	channels := make([]channel.Channel, 0, count)
	for i := 0; i < count; i++ {
		title := fmt.Sprintf("%s %s %d",
			Moods[g.rng.Intn(len(Moods))], Nouns[g.rng.Intn(len(Nouns))], i+1)
		id := fmt.Sprintf("chan%03d", i+1)

		playlists := make([]channel.Playlist, 1+g.rng.Intn(3))
		for j := range playlists {
			playlists[j] = channel.Playlist{
				URL:     fmt.Sprintf("https://radio.example.test/%s-%d.pls", id, j),
				Format:  "mp3",
				Quality: "highest",
			}
		}

		channels = append(channels, channel.Channel{
			ID:          id,
			Title:       title,
			Description: fmt.Sprintf("Generated channel number %d.", i+1),
			Listeners:   channel.ListenerCount(g.rng.Intn(5000)),
			Playlists:   playlists,
		})
	}

	return &channel.Directory{
		Channels:  channels,
		FetchedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

// FeedJSON encodes a directory back into a channels.json document.
func FeedJSON(dir *channel.Directory) []byte {
	data, err := json.Marshal(struct {
		Channels []channel.Channel `json:"channels"`
	}{Channels: dir.Channels})
	if err != nil {
		panic(fmt.Sprintf("encoding feed: %v", err))
	}
	return data
}
