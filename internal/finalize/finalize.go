package finalize

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"yt-dl-archiver/internal/download"
	"yt-dl-archiver/internal/log"
	"yt-dl-archiver/internal/model"
)

// Mode selects how surviving media is committed.
type Mode int

const (
	// ModeMove copies each file into the output directory and deletes the
	// source; copy+delete because the output may be on another filesystem.
	ModeMove Mode = iota
	// ModeStage renames each file into a staging subdirectory of the
	// download directory, for hand-off to an external tagging tool.
	ModeStage
)

// StageDirName is the staging subdirectory used by ModeStage.
const StageDirName = "final"

// collisionAttempts caps the numeric-suffix retries per destination name.
const collisionAttempts = 30

// maxTitleBytes caps the destination basename; only the title is
// truncated, never the extension or a collision suffix.
const maxTitleBytes = 200

// Options configures a finalize pass.
type Options struct {
	DownloadDir string
	OutputDir   string // ModeMove target
	Mode        Mode
}

// Result reports what a finalize pass did.
type Result struct {
	Committed int
	Skipped   int
	// Destination is the directory files ended up in.
	Destination string
}

// DestinationName derives the final basename for a media item: the title
// with the original extension, path separators swapped for a visually
// similar non-separator, and the title truncated to fit.
func DestinationName(media model.MediaInfo) (string, bool) {
	if media.Filename == "" || media.Title == "" {
		return "", false
	}
	ext := filepath.Ext(media.Filename)
	if ext == "" {
		return "", false
	}
	title := strings.ReplaceAll(media.Title, "/", "∕")
	title = strings.ReplaceAll(title, "\\", "∕")
	title = truncateBytes(title, maxTitleBytes)
	return title + ext, true
}

// truncateBytes cuts s to at most max bytes without splitting a rune.
func truncateBytes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !isRuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// resolveCollision finds a non-existing path for name within dir, retrying
// with " 1", " 2", ... suffixes before the extension. Returns false once
// the attempt cap is reached; the item then stays in the download
// directory and is rediscovered by the next run's orphan scan.
func resolveCollision(dir, name string) (string, bool) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for attempt := 0; attempt < collisionAttempts; attempt++ {
		candidate := name
		if attempt > 0 {
			candidate = fmt.Sprintf("%s %d%s", stem, attempt, ext)
		}
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, true
		}
	}
	return "", false
}

// Run commits every collection entry that has both a filename and a title.
// Entries missing either are logged and skipped; they were not fully
// observed and cannot be named.
func Run(opts Options, coll *download.Collection) (Result, error) {
	lg := log.Logger("finalize")

	destDir := opts.OutputDir
	if opts.Mode == ModeStage {
		destDir = filepath.Join(opts.DownloadDir, StageDirName)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create destination directory %s: %w", destDir, err)
	}

	result := Result{Destination: destDir}
	for _, entry := range coll.Sorted() {
		name, ok := DestinationName(entry.Media)
		if !ok {
			lg.Warn().Str("id", entry.Media.ID).Msg("media has no usable filename or title, skipping")
			result.Skipped++
			continue
		}
		target, ok := resolveCollision(destDir, name)
		if !ok {
			lg.Warn().Str("name", name).Msg("no collision-free destination found, leaving file for next run")
			result.Skipped++
			continue
		}
		source := filepath.Join(opts.DownloadDir, entry.Media.Filename)

		var err error
		if opts.Mode == ModeStage {
			err = os.Rename(source, target)
		} else {
			err = copyThenDelete(source, target)
		}
		if err != nil {
			lg.Warn().Err(err).Str("source", source).Msg("committing media failed, skipping")
			result.Skipped++
			continue
		}
		result.Committed++
	}
	return result, nil
}

// copyThenDelete moves a file across possibly different filesystems.
func copyThenDelete(source, target string) error {
	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("open %s: %w", source, err)
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(target)
		return fmt.Errorf("copy to %s: %w", target, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", target, err)
	}
	if err := os.Remove(source); err != nil {
		return fmt.Errorf("remove source %s: %w", source, err)
	}
	return nil
}
