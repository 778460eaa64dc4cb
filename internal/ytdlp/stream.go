package ytdlp

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"yt-dl-archiver/internal/log"
	"yt-dl-archiver/internal/model"
)

// StreamProcessor consumes the output of one yt-dlp invocation line by
// line and turns it into typed events plus a list of completed media.
// Each URL invocation gets a fresh instance.
type StreamProcessor struct {
	emit EventFunc
	lg   zerolog.Logger

	// at most one item is presumed in flight; the tool processes media
	// sequentially per URL
	current     *model.MediaInfo
	hadDownload bool
	// sticky until a later non-error, non-warning line is classified
	pendingErr error

	completed []model.MediaInfo
}

func NewStreamProcessor(emit EventFunc) *StreamProcessor {
	if emit == nil {
		emit = func(Event) {}
	}
	return &StreamProcessor{
		emit: emit,
		lg:   log.Logger("stream"),
	}
}

// Start resets the processor for a new invocation and emits UrlStarting.
func (p *StreamProcessor) Start() {
	p.current = nil
	p.hadDownload = false
	p.pendingErr = nil
	p.completed = nil
	p.emit(UrlStarting{})
}

// ProcessLine classifies one output line and applies it to the state
// machine. Line-level extraction failures are logged and dropped, never
// returned as errors.
func (p *StreamProcessor) ProcessLine(line string) {
	linetype := ClassifyLine(line)

	// clear the sticky error once a recognized non-error line shows up, so
	// a playlist does not fail just because some of its members were
	// skipped; warnings and unrecognized chatter (e.g. traceback
	// continuation lines after an ERROR:) keep the error pending
	if linetype != LineError && linetype != LineWarning && linetype != LineUnrecognized {
		p.pendingErr = nil
	}

	switch linetype {
	case LineFfmpeg, LineProviderSpecific, LineGeneric:
		// nothing to do for these

	case LineDownload:
		p.hadDownload = true
		if percent, ok := DownloadPercent(line); ok {
			var id string
			if p.current != nil {
				id = p.current.ID
			}
			p.emit(SingleProgress{ID: id, Percent: percent})
		}

	case LineCustom:
		p.handleMarker(line)

	case LineArchiveSkip:
		p.emit(Skipped{Count: 1, Reason: SkipInArchive})

	case LineError:
		p.lg.Warn().Str("line", line).Msg("tool reported an error")
		p.pendingErr = errors.New(line)
		p.emit(Skipped{Count: 1, Reason: SkipError})
		// an item that errors never reaches the completed list, even if it
		// had download progress
		p.current = nil
		p.hadDownload = false

	case LineWarning:
		p.lg.Warn().Str("line", line).Msg("tool warning")

	default:
		if line != "" {
			p.lg.Debug().Str("line", line).Msg("no type found for line")
		}
	}
}

func (p *StreamProcessor) handleMarker(line string) {
	marker, ok := ParseMarker(line)
	if !ok {
		p.lg.Info().Str("line", line).Msg("custom line matched no known marker")
		return
	}

	switch marker.Kind {
	case MarkerStart:
		if p.current != nil {
			p.lg.Warn().
				Str("id", p.current.ID).
				Msg("start marker while another item is in flight, overwriting")
		}
		media := marker.Media
		p.current = &media
		p.emit(SingleStarting{ID: media.ID, Title: media.Title})

	case MarkerEnd:
		if p.current == nil {
			// happens when the item was discarded earlier due to an error
			p.lg.Debug().Str("id", marker.Media.ID).Msg("end marker without in-flight item")
			return
		}
		p.emit(SingleFinished{ID: marker.Media.ID})
		if marker.Media.ID != p.current.ID {
			p.lg.Warn().
				Str("start_id", p.current.ID).
				Str("end_id", marker.Media.ID).
				Msg("end marker id does not match in-flight item")
		}
		// found-but-not-downloaded media is dropped here
		if p.hadDownload {
			p.completed = append(p.completed, *p.current)
		}
		p.current = nil
		p.hadDownload = false

	case MarkerPlaylist:
		p.emit(PlaylistInfo{Count: marker.Count})

	case MarkerMove:
		if p.current == nil {
			p.lg.Warn().Str("id", marker.Media.ID).Msg("move marker without in-flight item")
			return
		}
		p.current.Filename = marker.Media.Filename
	}
}

// Finish emits UrlFinished and returns the sticky error, if any. The
// completed media stay available through Completed regardless of the
// returned error.
func (p *StreamProcessor) Finish() error {
	p.emit(UrlFinished{Count: len(p.completed)})
	if p.pendingErr != nil {
		return fmt.Errorf("download tool: %w", p.pendingErr)
	}
	return nil
}

// Completed returns the media accumulated so far this invocation.
func (p *StreamProcessor) Completed() []model.MediaInfo {
	return p.completed
}

// Consume reads r to EOF, feeding every line through ProcessLine, then
// finishes the invocation. Read errors end the stream without failing it;
// in practice they are just the subprocess closing its pipe.
func (p *StreamProcessor) Consume(r io.Reader) error {
	p.Start()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(splitByNewlineOrCR)
	for scanner.Scan() {
		p.ProcessLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		p.lg.Debug().Err(err).Msg("output stream ended with a read error")
	}
	return p.Finish()
}
