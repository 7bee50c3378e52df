// Package nowplaying turns the media player's console output into
// now-playing status lines.
package nowplaying

import (
	"bytes"
	"iter"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/jmylchreest/somafm/internal/termui"
)

// Kind identifies what a line of player output announced.
type Kind int

const (
	KindChannel Kind = iota + 1
	KindGenre
	KindBitrate
	KindTrack
)

func (k Kind) String() string {
	switch k {
	case KindChannel:
		return "channel"
	case KindGenre:
		return "genre"
	case KindBitrate:
		return "bitrate"
	case KindTrack:
		return "track"
	default:
		return "unknown"
	}
}

// NoTitle is shown for ICY metadata without a StreamTitle.
const NoTitle = "(none)"

// TimeLayout formats the arrival time of a track change.
const TimeLayout = "15:04:05"

// Event is one recognised line of player output.
type Event struct {
	Kind  Kind
	Value string
	Time  time.Time
	// Attributes holds the ICY key/value pairs of a track event.
	Attributes map[string]string
}

// Title returns the StreamTitle of a track event, or NoTitle.
func (e Event) Title() string {
	if title, ok := e.Attributes["StreamTitle"]; ok {
		return title
	}
	return NoTitle
}

// Lines returns the status lines printed for the event.
func (e Event) Lines() []string {
	switch e.Kind {
	case KindChannel:
		return []string{"Channel: " + e.Value}
	case KindGenre:
		return []string{"Genre: " + e.Value}
	case KindBitrate:
		return []string{"Bitrate: " + e.Value, termui.StreamSeparator}
	case KindTrack:
		return []string{e.Time.Format(TimeLayout) + " | " + e.Title()}
	default:
		return nil
	}
}

var icyAttr = regexp.MustCompile(`(\w+)='([^']*)'`)

var (
	prefixName    = []byte("Name")
	prefixGenre   = []byte("Genre")
	prefixBitrate = []byte("Bitrate")
	prefixICY     = []byte("ICY Info:")
)

// Parse recognises one raw output line. Prefix matching is byte-exact and
// the first matching rule wins. Unrecognised lines, and recognised ones
// with no value after a ':', return false.
func Parse(line []byte, now time.Time) (Event, bool) {
	switch {
	case bytes.HasPrefix(line, prefixName):
		return field(KindChannel, line, 3, now)
	case bytes.HasPrefix(line, prefixGenre):
		return field(KindGenre, line, 2, now)
	case bytes.HasPrefix(line, prefixBitrate):
		return field(KindBitrate, line, 2, now)
	case bytes.HasPrefix(line, prefixICY):
		return track(line, now), true
	}
	return Event{}, false
}

// field splits the decoded line on ':' into at most n parts and keeps the second.
func field(kind Kind, line []byte, n int, now time.Time) (Event, bool) {
	parts := strings.SplitN(decode(line), ":", n)
	if len(parts) < 2 {
		return Event{}, false
	}
	return Event{Kind: kind, Value: strings.TrimSpace(parts[1]), Time: now}, true
}

func track(line []byte, now time.Time) Event {
	text := decode(line)
	_, info, _ := strings.Cut(text, ":")
	info = strings.TrimSpace(info)

	attrs := make(map[string]string)
	for _, m := range icyAttr.FindAllStringSubmatch(info, -1) {
		attrs[m[1]] = m[2]
	}
	return Event{Kind: KindTrack, Time: now, Attributes: attrs}
}

// decode returns line as text. Bytes that are not valid UTF-8 are read as
// Windows-1252, the usual encoding of ICY metadata.
func decode(line []byte) string {
	if utf8.Valid(line) {
		return string(line)
	}
	text, err := charmap.Windows1252.NewDecoder().Bytes(line)
	if err != nil {
		return strings.ToValidUTF8(string(line), string(utf8.RuneError))
	}
	return string(text)
}

// Events lazily parses lines, stamping each event with clock().
func Events(lines iter.Seq[[]byte], clock func() time.Time) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for line := range lines {
			ev, ok := Parse(line, clock())
			if !ok {
				continue
			}
			if !yield(ev) {
				return
			}
		}
	}
}

// Format lazily turns lines into status strings.
func Format(lines iter.Seq[[]byte], clock func() time.Time) iter.Seq[string] {
	return func(yield func(string) bool) {
		for ev := range Events(lines, clock) {
			for _, s := range ev.Lines() {
				if !yield(s) {
					return
				}
			}
		}
	}
}
