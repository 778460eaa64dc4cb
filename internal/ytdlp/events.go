package ytdlp

// SkipReason says why media was skipped instead of finishing.
type SkipReason int

const (
	// SkipError: skipped because the tool reported an error.
	SkipError SkipReason = iota
	// SkipInArchive: skipped because it is already in the tool archive.
	SkipInArchive
)

func (r SkipReason) String() string {
	if r == SkipInArchive {
		return "in-archive"
	}
	return "error"
}

// Event is one member of the closed set of progress events emitted by the
// stream processor, in exactly the order of the underlying output lines.
// Not every variant fires for every media: a sequence may be
// SingleStarting -> SingleProgress -> Skipped instead of SingleFinished.
type Event interface {
	isEvent()
}

// UrlStarting is emitted once when an URL invocation begins.
type UrlStarting struct{}

// UrlFinished is emitted once when the output stream ends. Count is the
// number of media actually downloaded this invocation, not just found.
type UrlFinished struct {
	Count int
}

// SingleStarting reports that one media item has entered processing.
type SingleStarting struct {
	ID    string
	Title string
}

// SingleProgress reports a progress percentage for the in-flight item.
// ID is empty when no start marker was parsed before the progress line.
type SingleProgress struct {
	ID      string
	Percent uint8
}

// SingleFinished reports that a media item finished processing. The ID is
// taken from the end marker and is not guaranteed to equal the one from
// SingleStarting.
type SingleFinished struct {
	ID string
}

// Skipped reports media that will not be downloaded.
type Skipped struct {
	Count  int
	Reason SkipReason
}

// PlaylistInfo reports the playlist item count; may never fire when the
// URL is not a playlist.
type PlaylistInfo struct {
	Count int
}

func (UrlStarting) isEvent()    {}
func (UrlFinished) isEvent()    {}
func (SingleStarting) isEvent() {}
func (SingleProgress) isEvent() {}
func (SingleFinished) isEvent() {}
func (Skipped) isEvent()        {}
func (PlaylistInfo) isEvent()   {}

// EventFunc receives stream events; invoked synchronously in line order.
type EventFunc func(Event)
