package model

import "testing"

func TestMediaFromFilename(t *testing.T) {
	media, ok := MediaFromFilename("'youtube'-'dQw4w9WgXcQ'-Some Title Here.mkv")
	if !ok {
		t.Fatalf("expected filename to parse")
	}
	if media.Provider != "youtube" || media.ID != "dQw4w9WgXcQ" {
		t.Fatalf("unexpected identity: %q %q", media.Provider, media.ID)
	}
	if media.Title != "Some Title Here" {
		t.Fatalf("unexpected title: %q", media.Title)
	}
	if media.Filename != "'youtube'-'dQw4w9WgXcQ'-Some Title Here.mkv" {
		t.Fatalf("unexpected filename: %q", media.Filename)
	}

	if _, ok := MediaFromFilename("random_download.mp4"); ok {
		t.Fatalf("expected non-conventional filename to be rejected")
	}
}

func TestMediaFromFilenameKeepsInnerDashes(t *testing.T) {
	media, ok := MediaFromFilename("'soundcloud'-'12345'-dash-heavy - title.mp3")
	if !ok {
		t.Fatalf("expected filename to parse")
	}
	if media.Title != "dash-heavy - title" {
		t.Fatalf("unexpected title: %q", media.Title)
	}
}

func TestKeyFallsBackToUnknownProvider(t *testing.T) {
	m := MediaInfo{ID: "abc"}
	if got := m.Key(); got != "unknown-abc" {
		t.Fatalf("unexpected key: %q", got)
	}
	if got := NewMediaInfo("abc", "YouTube").Key(); got != "youtube-abc" {
		t.Fatalf("unexpected key: %q", got)
	}
}
