package download

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"yt-dl-archiver/internal/ytdlp"
)

var (
	prefixStyle   = lipgloss.NewStyle().Bold(true)
	titleStyle    = lipgloss.NewStyle()
	skippedStyle  = lipgloss.NewStyle().Faint(true)
	finishedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// Display renders a single-line "N/M" position indicator from the event
// stream. M comes from the count estimate and shows "??" until a playlist
// count has been seen.
type Display struct {
	enabled  bool
	out      io.Writer
	estimate *CountEstimate

	position int
	title    string
	percent  uint8
}

func NewDisplay(enabled bool, out io.Writer, estimate *CountEstimate) *Display {
	return &Display{enabled: enabled, out: out, estimate: estimate}
}

// Reset clears per-URL state before the next invocation.
func (d *Display) Reset() {
	d.position = 0
	d.title = ""
	d.percent = 0
}

// Handle consumes one stream event. Safe to call when disabled.
func (d *Display) Handle(ev ytdlp.Event) {
	if !d.enabled {
		return
	}
	switch ev := ev.(type) {
	case ytdlp.UrlStarting:
		d.render("starting")
	case ytdlp.SingleStarting:
		d.position++
		d.title = ev.Title
		d.percent = 0
		d.println(titleStyle.Render("Downloading: " + ev.Title))
		d.render("")
	case ytdlp.SingleProgress:
		d.percent = ev.Percent
		d.render("")
	case ytdlp.SingleFinished:
		d.println(finishedStyle.Render("Finished Downloading: " + d.title))
	case ytdlp.Skipped:
		if ev.Reason == ytdlp.SkipInArchive {
			d.println(skippedStyle.Render("Skipped (already in archive)"))
		} else {
			d.println(skippedStyle.Render("Skipped (error)"))
		}
	case ytdlp.PlaylistInfo:
		d.render("")
	case ytdlp.UrlFinished:
		d.clearLine()
		d.println(fmt.Sprintf("Finished URL: %d new media", ev.Count))
	}
}

func (d *Display) render(phase string) {
	prefix := prefixStyle.Render(fmt.Sprintf("[%d/%s]", d.position, d.estimate.Display()))
	msg := d.title
	if phase != "" {
		msg = phase
	}
	line := fmt.Sprintf("%s %3d%% %s", prefix, d.percent, truncateMessage(msg, 80))
	fmt.Fprintf(d.out, "\r\033[2K%s", line)
}

func (d *Display) clearLine() {
	fmt.Fprint(d.out, "\r\033[2K")
}

func (d *Display) println(s string) {
	d.clearLine()
	fmt.Fprintln(d.out, s)
}

// truncateMessage keeps the status line from wrapping; the last three
// characters are replaced with "..." to mark the cut.
func truncateMessage(msg string, max int) string {
	runes := []rune(msg)
	if len(runes) <= max {
		return msg
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
