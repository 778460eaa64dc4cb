package ytdlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyLine(t *testing.T) {
	cases := []struct {
		line string
		want LineType
	}{
		{"[download]  51.3% of 4.00MiB at 2.00MiB/s ETA 00:01", LineDownload},
		{"[download] Destination: some file.mkv", LineDownload},
		{"[ffmpeg] Merging formats into \"file.mkv\"", LineFfmpeg},
		{"[youtube] dQw4w9WgXcQ: Downloading webpage", LineProviderSpecific},
		{"[youtube:tab] Extracting URL", LineProviderSpecific},
		{"[youtube] abc123: has already been recorded in the archive", LineArchiveSkip},
		{"[youtube:tab] Playlist Some Mix: Downloading 3 items of 10", LineCustom},
		{"PARSE_START 'youtube' 'abc123' Some Title", LineCustom},
		{"PARSE_END 'youtube' 'abc123'", LineCustom},
		{"PLAYLIST '42'", LineCustom},
		{"MOVE 'youtube' 'abc123' /tmp/dl/file.mkv", LineCustom},
		{"Deleting original file file.f616.mp4 (pass -k to keep)", LineGeneric},
		{"ERROR: [youtube] abc: Video unavailable", LineError},
		{"youtube-dl: error: something broke", LineError},
		{"WARNING: unable to obtain file audio codec", LineWarning},
		{"completely freeform chatter", LineUnrecognized},
		{"", LineUnrecognized},
	}

	for _, tc := range cases {
		assert.Equalf(t, tc.want, ClassifyLine(tc.line), "line %q", tc.line)
	}
}

func TestClassifyLineIsPure(t *testing.T) {
	// same line classified repeatedly and out of order yields the same type
	lines := []string{
		"ERROR: boom",
		"[download]  10.0%",
		"PARSE_END 'youtube' 'x'",
	}
	first := make([]LineType, len(lines))
	for i, l := range lines {
		first[i] = ClassifyLine(l)
	}
	for i := len(lines) - 1; i >= 0; i-- {
		assert.Equal(t, first[i], ClassifyLine(lines[i]))
	}
}

func TestDownloadPercent(t *testing.T) {
	percent, ok := DownloadPercent("[download]  51.3% of 4.00MiB at 2.00MiB/s ETA 00:01")
	require.True(t, ok)
	assert.Equal(t, uint8(51), percent)

	percent, ok = DownloadPercent("[download] 100% of 4.00MiB in 00:02")
	require.True(t, ok)
	assert.Equal(t, uint8(100), percent)

	_, ok = DownloadPercent("[download] Destination: file.mkv")
	assert.False(t, ok)

	// 4 digits never parse as a percentage
	_, ok = DownloadPercent("[download] 1000% of something")
	assert.False(t, ok)

	_, ok = DownloadPercent("[download] Unknown% of ~10MiB")
	assert.False(t, ok)
}

func TestParseMarkerStartEnd(t *testing.T) {
	marker, ok := ParseMarker("PARSE_START 'youtube' 'abc123' Some Title - With Dashes")
	require.True(t, ok)
	assert.Equal(t, MarkerStart, marker.Kind)
	assert.Equal(t, "youtube", marker.Media.Provider)
	assert.Equal(t, "abc123", marker.Media.ID)
	assert.Equal(t, "Some Title - With Dashes", marker.Media.Title)

	marker, ok = ParseMarker("PARSE_END 'soundcloud' 'xyz'")
	require.True(t, ok)
	assert.Equal(t, MarkerEnd, marker.Kind)
	assert.Equal(t, "soundcloud", marker.Media.Provider)
	assert.Equal(t, "xyz", marker.Media.ID)
	assert.Empty(t, marker.Media.Title)
}

func TestParseMarkerMoveKeepsBasenameOnly(t *testing.T) {
	marker, ok := ParseMarker("MOVE 'youtube' 'abc123' /tmp/dl/'youtube'-'abc123'-title.mkv")
	require.True(t, ok)
	assert.Equal(t, MarkerMove, marker.Kind)
	assert.Equal(t, "'youtube'-'abc123'-title.mkv", marker.Media.Filename)
}

func TestParseMarkerPlaylist(t *testing.T) {
	marker, ok := ParseMarker("PLAYLIST '42'")
	require.True(t, ok)
	assert.Equal(t, MarkerPlaylist, marker.Kind)
	assert.Equal(t, 42, marker.Count)

	// legacy provider-native announcement form
	marker, ok = ParseMarker("[youtube:tab] Playlist Some Mix: Downloading 3 items of 25")
	require.True(t, ok)
	assert.Equal(t, MarkerPlaylist, marker.Kind)
	assert.Equal(t, 3, marker.Count)
}

func TestParseMarkerRejectsUnknownCustom(t *testing.T) {
	_, ok := ParseMarker("PLAYLIST 'NA'")
	assert.False(t, ok)

	_, ok = ParseMarker("PARSE_MIDDLE 'youtube' 'abc'")
	assert.False(t, ok)
}
