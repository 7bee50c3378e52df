package channel

import "fmt"

// ChannelNotFoundError is returned when no channel title matches exactly.
type ChannelNotFoundError struct {
	Name string
}

func (e *ChannelNotFoundError) Error() string {
	return fmt.Sprintf("channel %q not found", e.Name)
}

// PlaylistIndexError is returned when a quality index is outside a channel's playlist range.
type PlaylistIndexError struct {
	Channel   string
	Index     int
	Available int
}

func (e *PlaylistIndexError) Error() string {
	return fmt.Sprintf("quality %d out of range for channel %q (%d playlists available)",
		e.Index, e.Channel, e.Available)
}

// Find returns the first channel whose title equals name exactly.
// Matching is case- and whitespace-sensitive.
func (d *Directory) Find(name string) (*Channel, error) {
	if d != nil {
		for i := range d.Channels {
			if d.Channels[i].Title == name {
				return &d.Channels[i], nil
			}
		}
	}
	return nil, &ChannelNotFoundError{Name: name}
}

// Resolve returns the playlist URL for the named channel at the given quality index.
func (d *Directory) Resolve(name string, quality int) (string, error) {
	ch, err := d.Find(name)
	if err != nil {
		return "", err
	}

	if quality < 0 || quality >= len(ch.Playlists) {
		return "", &PlaylistIndexError{
			Channel:   ch.Title,
			Index:     quality,
			Available: len(ch.Playlists),
		}
	}

	return ch.Playlists[quality].URL, nil
}
