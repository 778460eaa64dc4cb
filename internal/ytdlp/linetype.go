package ytdlp

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"yt-dl-archiver/internal/model"
)

// LineType categorizes one line of yt-dlp console output. Classification is
// a pure function of the line text; everything except the explicit marker
// lines is best-effort scraping of human-readable log text and may break
// between tool versions.
type LineType int

const (
	// LineUnrecognized is the fallback for lines no rule matches.
	LineUnrecognized LineType = iota
	// LineFfmpeg is post-processing output ("[ffmpeg] ...").
	LineFfmpeg
	// LineDownload is download progress ("[download] ...").
	LineDownload
	// LineProviderSpecific is unhandled provider chatter ("[youtube] ...").
	LineProviderSpecific
	// LineGeneric covers known untagged chatter like "Deleting original file".
	LineGeneric
	// LineCustom is an instrumentation marker (PARSE_START, PARSE_END,
	// PLAYLIST, MOVE) or a legacy playlist announcement.
	LineCustom
	// LineError is a tool-reported error.
	LineError
	// LineWarning is a tool-reported warning.
	LineWarning
	// LineArchiveSkip reports media already present in the tool archive.
	LineArchiveSkip
)

func (t LineType) String() string {
	switch t {
	case LineFfmpeg:
		return "ffmpeg"
	case LineDownload:
		return "download"
	case LineProviderSpecific:
		return "provider"
	case LineGeneric:
		return "generic"
	case LineCustom:
		return "custom"
	case LineError:
		return "error"
	case LineWarning:
		return "warning"
	case LineArchiveSkip:
		return "archive-skip"
	default:
		return "unrecognized"
	}
}

var (
	bracketTagRe  = regexp.MustCompile(`(?i)^\[([\da-z:_]*)\]`)
	archiveSkipRe = regexp.MustCompile(`^\[\w+\] [^:]+: has already been recorded in the archive$`)
	playlistTagRe = regexp.MustCompile(`^\[[\w:]+\] Playlist [^:]+:`)
	genericRe     = regexp.MustCompile(`(?i)^deleting original file`)
	errorPrefixRe = regexp.MustCompile(`^(ERROR:|youtube-dl: error:)`)
)

// ClassifyLine determines the LineType of a raw output line (without the
// trailing newline). First matching rule wins.
func ClassifyLine(line string) LineType {
	if m := bracketTagRe.FindStringSubmatch(line); m != nil {
		if archiveSkipRe.MatchString(line) {
			return LineArchiveSkip
		}
		// legacy provider-native playlist announcement; routed through
		// Custom so the extractor can pull the item count out of it
		if playlistTagRe.MatchString(line) {
			return LineCustom
		}
		switch m[1] {
		case "download":
			return LineDownload
		case "ffmpeg":
			return LineFfmpeg
		}
		return LineProviderSpecific
	}

	// marker lines from the --print instrumentation templates; these are
	// the only fully structured, version-stable signal available
	if hasAnyPrefix(line, "PARSE", "PLAYLIST", "MOVE") {
		return LineCustom
	}

	if genericRe.MatchString(line) {
		return LineGeneric
	}
	if errorPrefixRe.MatchString(line) {
		return LineError
	}
	if hasAnyPrefix(line, "WARNING:") {
		return LineWarning
	}
	return LineUnrecognized
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

var downloadPercentRe = regexp.MustCompile(`(?i)^\[download\]\s+(\d{1,3})(?:\.\d)?%`)

// DownloadPercent extracts the integer progress percentage from a Download
// line. A missing or unparseable percentage (e.g. "Unknown") is not an
// error, it simply suppresses the progress emission for that line.
func DownloadPercent(line string) (uint8, bool) {
	m := downloadPercentRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseUint(m[1], 10, 8)
	if err != nil {
		return 0, false
	}
	return uint8(v), true
}

// MarkerKind discriminates the parsed forms of a Custom line.
type MarkerKind int

const (
	MarkerStart MarkerKind = iota
	MarkerEnd
	MarkerPlaylist
	MarkerMove
)

// Marker is the typed form of one Custom line.
type Marker struct {
	Kind  MarkerKind
	Media model.MediaInfo // Start, End, Move
	Count int             // Playlist
}

var (
	parseStartEndRe = regexp.MustCompile(`(?i)^PARSE_(START|END) '([^']+)' '([^']+)'(?: (.+))?$`)
	parsePlaylistRe = regexp.MustCompile(`(?i)^PLAYLIST '(\d+)'$`)
	parseMoveRe     = regexp.MustCompile(`(?i)^MOVE '([^']+)' '([^']+)' (.+)$`)
	playlistCountRe = regexp.MustCompile(`^\[[\w:]+\] Playlist [^:]+: Downloading (\d+) items of (\d+)$`)
)

// ParseMarker extracts the typed marker from a line already classified as
// Custom. A Custom line matching no known sub-form yields false; callers
// log and drop it, never fail.
func ParseMarker(line string) (Marker, bool) {
	if m := parseStartEndRe.FindStringSubmatch(line); m != nil {
		media := model.NewMediaInfo(m[3], m[2])
		if strings.EqualFold(m[1], "START") {
			media.Title = m[4]
			return Marker{Kind: MarkerStart, Media: media}, true
		}
		return Marker{Kind: MarkerEnd, Media: media}, true
	}

	if m := parseMoveRe.FindStringSubmatch(line); m != nil {
		base := filepath.Base(m[3])
		if base == "." || base == string(filepath.Separator) {
			return Marker{}, false
		}
		media := model.NewMediaInfo(m[2], m[1])
		media.Filename = base
		return Marker{Kind: MarkerMove, Media: media}, true
	}

	if m := parsePlaylistRe.FindStringSubmatch(line); m != nil {
		count, err := strconv.Atoi(m[1])
		if err != nil {
			return Marker{}, false
		}
		return Marker{Kind: MarkerPlaylist, Count: count}, true
	}

	if m := playlistCountRe.FindStringSubmatch(line); m != nil {
		count, err := strconv.Atoi(m[1])
		if err != nil {
			return Marker{}, false
		}
		return Marker{Kind: MarkerPlaylist, Count: count}, true
	}

	return Marker{}, false
}
