package ytdlp

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestToolArchivePathUsesCurrentPid(t *testing.T) {
	got := ToolArchivePath("/tmp/dl")
	want := filepath.Join("/tmp/dl", fmt.Sprintf("ytdl_archive_%d.txt", os.Getpid()))
	if got != want {
		t.Fatalf("unexpected archive path: got %q want %q", got, want)
	}
}

func TestAssembleArgsIncludesMarkers(t *testing.T) {
	args := AssembleArgs(InvokeOptions{
		URL:         "https://example.com/watch?v=abc",
		DownloadDir: "/tmp/dl",
		ArchiveFile: "/tmp/dl/ytdl_archive_1.txt",
	})

	joined := strings.Join(args, " ")
	for _, want := range []string{
		"before_dl:PLAYLIST '%(playlist_count)s'",
		"before_dl:PARSE_START '%(extractor)s' '%(id)s' %(title)s",
		"after_video:PARSE_END '%(extractor)s' '%(id)s'",
		"after_move:MOVE '%(extractor)s' '%(id)s' %(filepath)s",
		"--newline",
		"--download-archive",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args missing %q: %v", want, args)
		}
	}
	if args[len(args)-1] != "https://example.com/watch?v=abc" {
		t.Fatalf("url must be the last argument: %v", args)
	}
}

func TestAssembleArgsAudioOnly(t *testing.T) {
	args := AssembleArgs(InvokeOptions{URL: "u", DownloadDir: "d", AudioOnly: true})
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "--audio-format mp3") {
		t.Fatalf("expected audio-only args, got: %v", args)
	}
	if strings.Contains(joined, "--remux-video") {
		t.Fatalf("audio-only must not remux video: %v", args)
	}
}

func TestAssembleArgsSkipsArchiveWhenUnset(t *testing.T) {
	args := AssembleArgs(InvokeOptions{URL: "u", DownloadDir: "d"})
	for _, a := range args {
		if a == "--download-archive" {
			t.Fatalf("unexpected --download-archive without archive file")
		}
	}
}
