package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"

	"yt-dl-archiver/internal/archive"
	"yt-dl-archiver/internal/log"
	"yt-dl-archiver/internal/ytdlp"
)

// Options configures one multi-URL driver run.
type Options struct {
	URLs        []string
	DownloadDir string
	AudioOnly   bool
	SubLangs    string
	ExtraArgs   []string

	// Progress enables the live status line on Out.
	Progress bool
	Out      io.Writer
	// LogWriter receives a copy of the raw tool output when non-nil.
	LogWriter io.Writer

	// Archive is the optional "already downloaded?" oracle used to seed
	// the per-invocation tool-archive file.
	Archive *archive.Store

	// Stop aborts the loop before the next URL when set. Output already
	// being consumed runs to completion so it can still be salvaged.
	Stop *atomic.Bool
}

// Result summarizes one driver run.
type Result struct {
	URLsProcessed int
	Downloaded    int
}

// Run iterates the URLs in order and accumulates every completed media
// into coll. Partial success from a failing URL is merged into coll before
// the error is re-raised, so it is never lost.
func Run(ctx context.Context, opts Options, coll *Collection) (Result, error) {
	lg := log.Logger("driver")
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	var estimate CountEstimate
	display := NewDisplay(opts.Progress, out, &estimate)

	result := Result{}
	for _, url := range opts.URLs {
		if stopRequested(ctx, opts.Stop) {
			lg.Info().Str("url", url).Msg("stop requested, aborting before next url")
			break
		}

		estimate.Reset()
		display.Reset()

		archiveFile, err := seedToolArchive(ctx, opts)
		if err != nil {
			return result, err
		}

		emit := func(ev ytdlp.Event) {
			switch ev := ev.(type) {
			case ytdlp.PlaylistInfo:
				estimate.SetEstimate(ev.Count)
			case ytdlp.Skipped:
				// skipped items shrink the remaining-playlist estimate
				estimate.Decrement()
			}
			display.Handle(ev)
		}

		media, dlErr := ytdlp.DownloadURL(ctx, ytdlp.InvokeOptions{
			URL:         url,
			DownloadDir: opts.DownloadDir,
			AudioOnly:   opts.AudioOnly,
			ArchiveFile: archiveFile,
			SubLangs:    opts.SubLangs,
			ExtraArgs:   opts.ExtraArgs,
			LogWriter:   opts.LogWriter,
		}, emit)

		// merge before any error gets to unwind further
		for _, m := range media {
			coll.Insert(m)
		}
		result.URLsProcessed++
		result.Downloaded += len(media)

		if opts.Archive != nil && len(media) > 0 {
			if err := opts.Archive.InsertAll(ctx, media); err != nil {
				lg.Warn().Err(err).Msg("recording downloaded media in archive failed")
			}
		}

		resetToolArchive(opts.DownloadDir, lg)

		if dlErr != nil {
			return result, fmt.Errorf("download %s: %w", url, dlErr)
		}
	}

	return result, nil
}

func stopRequested(ctx context.Context, stop *atomic.Bool) bool {
	if ctx.Err() != nil {
		return true
	}
	return stop != nil && stop.Load()
}

// seedToolArchive writes the per-process tool-archive file from the oracle
// so the tool skips media that is already archived. Without an oracle the
// tool runs archiveless.
func seedToolArchive(ctx context.Context, opts Options) (string, error) {
	if opts.Archive == nil {
		return "", nil
	}
	lines, err := opts.Archive.ToolArchiveLines(ctx)
	if err != nil {
		return "", fmt.Errorf("generate tool archive: %w", err)
	}
	path := ytdlp.ToolArchivePath(opts.DownloadDir)
	if err := os.MkdirAll(opts.DownloadDir, 0o755); err != nil {
		return "", fmt.Errorf("create download directory %s: %w", opts.DownloadDir, err)
	}
	content := strings.Join(lines, "\n")
	if content != "" {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write tool archive %s: %w", path, err)
	}
	return path, nil
}

// resetToolArchive removes the per-process tool-archive file so it does
// not bloat across invocations.
func resetToolArchive(downloadDir string, lg zerolog.Logger) {
	path := ytdlp.ToolArchivePath(downloadDir)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		lg.Debug().Err(err).Str("path", path).Msg("removing tool archive failed")
	}
}
