package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yt-dl-archiver/internal/config"
	"yt-dl-archiver/internal/model"
	"yt-dl-archiver/internal/recovery"
)

func TestRunUnknownCommand(t *testing.T) {
	err := Run([]string{"frobnicate"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frobnicate")
}

func TestRunNoArgsPrintsUsage(t *testing.T) {
	assert.NoError(t, Run(nil))
}

func TestSettingsSetPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	err := Run([]string{"settings", "set",
		"-config", path,
		"-download-dir", "/data/tmp",
		"-audio-only", "true",
	})
	require.NoError(t, err)

	settings, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/tmp", settings.DownloadDir)
	assert.True(t, settings.AudioOnly)
	// untouched fields keep their defaults
	assert.Equal(t, config.DefaultOutputDir, settings.OutputDir)
}

func TestSettingsSetRejectsBadAudioOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	err := Run([]string{"settings", "set", "-config", path, "-audio-only", "maybe"})
	require.Error(t, err)
}

func TestDownloadRequiresURL(t *testing.T) {
	err := Run([]string{"download", "-config", filepath.Join(t.TempDir(), "s.json")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one URL")
}

func TestEnsureWritableDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fresh")
	ok, msg := ensureWritableDir(dir)
	assert.True(t, ok)
	assert.Equal(t, dir, msg)
}

func writeStubBinary(t *testing.T, dir, name string) {
	t.Helper()
	script := []byte("#!/bin/sh\nexit 0\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), script, 0o755))
}

func TestDownloadFinalizeFailureKeepsAdoptedRecords(t *testing.T) {
	binDir := t.TempDir()
	writeStubBinary(t, binDir, "yt-dlp")
	writeStubBinary(t, binDir, "ffmpeg")
	t.Setenv("PATH", binDir)

	dir := t.TempDir()
	downloadDir := filepath.Join(dir, "dl")
	require.NoError(t, os.MkdirAll(downloadDir, 0o755))

	// a crashed run of a long-gone process left one finished record behind
	adopted := recovery.FilePath(downloadDir, 4194000)
	require.NoError(t, os.WriteFile(adopted, []byte("'youtube'-'abc'-Orphaned Title\n"), 0o644))

	// a plain file where the output directory should be makes finalization
	// fail after the downloads themselves succeeded
	outFile := filepath.Join(dir, "outfile")
	require.NoError(t, os.WriteFile(outFile, []byte("x"), 0o644))

	ownPath := recovery.FilePath(downloadDir, os.Getpid())
	defer recovery.RemoveFile(ownPath)

	err := Run([]string{"download",
		"-config", filepath.Join(dir, "settings.json"),
		"-download-dir", downloadDir,
		"-output-dir", outFile,
		"-no-archive",
		"-progress=false",
		"https://example.com/watch?v=abc",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "destination directory")

	// the adopted file must survive the failed run
	_, statErr := os.Stat(adopted)
	assert.NoError(t, statErr)

	// and the failing run must have snapshotted the adopted record itself
	records, readErr := recovery.ReadFile(ownPath)
	require.NoError(t, readErr)
	require.Len(t, records, 1)
	assert.Equal(t, "abc", records[0].ID)
	assert.Equal(t, "youtube", records[0].Provider)
	assert.Equal(t, "Orphaned Title", records[0].Title)
}

func TestDownloadSuccessRemovesAdoptedFiles(t *testing.T) {
	binDir := t.TempDir()
	writeStubBinary(t, binDir, "yt-dlp")
	writeStubBinary(t, binDir, "ffmpeg")
	t.Setenv("PATH", binDir)

	dir := t.TempDir()
	downloadDir := filepath.Join(dir, "dl")
	require.NoError(t, os.MkdirAll(downloadDir, 0o755))

	adopted := recovery.FilePath(downloadDir, 4194001)
	require.NoError(t, os.WriteFile(adopted, []byte("'youtube'-'def'-Committed Title\n"), 0o644))

	// the matching file on disk lets the back-fill and the finalizer
	// actually commit the adopted record
	media := model.NewMediaInfo("def", "youtube")
	media.Title = "Committed Title"
	onDisk := media.FormatFilenameStem() + ".mkv"
	require.NoError(t, os.WriteFile(filepath.Join(downloadDir, onDisk), []byte("payload"), 0o644))

	outputDir := filepath.Join(dir, "out")
	err := Run([]string{"download",
		"-config", filepath.Join(dir, "settings.json"),
		"-download-dir", downloadDir,
		"-output-dir", outputDir,
		"-no-archive",
		"-progress=false",
		"https://example.com/watch?v=def",
	})
	require.NoError(t, err)

	// committed: file moved, adopted recovery state gone
	_, statErr := os.Stat(filepath.Join(outputDir, "Committed Title.mkv"))
	assert.NoError(t, statErr)
	_, statErr = os.Stat(adopted)
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(recovery.FilePath(downloadDir, os.Getpid()))
	assert.True(t, os.IsNotExist(statErr))
}
