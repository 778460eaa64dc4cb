package model

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// MediaInfo is one media item as known to the pipeline. Identity is
// (Provider, ID); two values with the same identity refer to the same
// logical media and must be merged, never duplicated.
type MediaInfo struct {
	// Provider-assigned identifier, stable key component.
	ID string
	// Lower-cased source name ("youtube", "soundcloud", ...).
	Provider string
	// Human title; set by the time a start marker is handled.
	Title string
	// On-disk basename once known; filled in later than Title.
	Filename string
}

func NewMediaInfo(id, provider string) MediaInfo {
	return MediaInfo{
		ID:       id,
		Provider: strings.ToLower(provider),
	}
}

// Key returns the collection key for this media.
func (m MediaInfo) Key() string {
	provider := m.Provider
	if provider == "" {
		provider = "unknown"
	}
	return fmt.Sprintf("%s-%s", provider, m.ID)
}

// FormatFilenameStem renders the on-disk naming convention
// '<provider>'-'<id>'-<title> used by the download output template, which
// makes (provider, id, title) reconstructable from a directory listing.
func (m MediaInfo) FormatFilenameStem() string {
	return fmt.Sprintf("'%s'-'%s'-%s", m.Provider, m.ID, m.Title)
}

var fromFilenameRe = regexp.MustCompile(`^'([^']+)'-'([^']+)'-(.+)$`)

// MediaFromFilename reconstructs a MediaInfo from a file basename written
// with the download output template. Returns false for names that do not
// follow the convention.
func MediaFromFilename(filename string) (MediaInfo, bool) {
	// a single extension is expected, e.g. ".mkv" but never ".tar.gz"
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	m := fromFilenameRe.FindStringSubmatch(stem)
	if m == nil {
		return MediaInfo{}, false
	}
	media := NewMediaInfo(m[2], m[1])
	media.Title = m[3]
	media.Filename = filename
	return media, true
}
