package nowplaying

import (
	"fmt"
	"io"

	"github.com/jmylchreest/somafm/internal/termui"
)

// Printer writes styled now-playing events.
type Printer struct {
	w      io.Writer
	styles termui.Styles
}

// NewPrinter returns a Printer for w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, styles: termui.NewStyles(w)}
}

// Print writes the status lines for ev.
func (p *Printer) Print(ev Event) error {
	var err error
	switch ev.Kind {
	case KindChannel:
		_, err = fmt.Fprintf(p.w, "%s %s\n", p.styles.Label.Render("Channel:"), ev.Value)
	case KindGenre:
		_, err = fmt.Fprintf(p.w, "%s %s\n", p.styles.Label.Render("Genre:"), ev.Value)
	case KindBitrate:
		_, err = fmt.Fprintf(p.w, "%s %s\n%s\n",
			p.styles.Label.Render("Bitrate:"), ev.Value,
			p.styles.Separator.Render(termui.StreamSeparator))
	case KindTrack:
		_, err = fmt.Fprintf(p.w, "%s | %s\n",
			p.styles.Timestamp.Render(ev.Time.Format(TimeLayout)),
			p.styles.Track.Render(ev.Title()))
	}
	return err
}
