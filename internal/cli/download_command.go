package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"yt-dl-archiver/internal/archive"
	"yt-dl-archiver/internal/config"
	"yt-dl-archiver/internal/download"
	"yt-dl-archiver/internal/finalize"
	"yt-dl-archiver/internal/fsutil"
	"yt-dl-archiver/internal/log"
	"yt-dl-archiver/internal/model"
	"yt-dl-archiver/internal/recovery"
	"yt-dl-archiver/internal/ytdlp"
)

type downloadReport struct {
	URLsProcessed int    `json:"urls_processed"`
	Downloaded    int    `json:"downloaded"`
	Adopted       int    `json:"adopted_records,omitempty"`
	Committed     int    `json:"committed"`
	Skipped       int    `json:"skipped,omitempty"`
	Destination   string `json:"destination"`
}

func runDownload(args []string) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultConfigPath, "settings file path")
	downloadDir := fs.String("download-dir", "", "working directory for in-flight downloads (default: settings)")
	outputDir := fs.String("output-dir", "", "final output directory (default: settings)")
	audioOnly := fs.Bool("audio-only", false, "extract audio instead of keeping video")
	subLangs := fs.String("sub-langs", "", "subtitle language preference (default: settings)")
	stage := fs.Bool("stage", false, "rename finished files into a staging subdirectory instead of moving them")
	noArchive := fs.Bool("no-archive", false, "skip the archive database entirely")
	progress := fs.Bool("progress", true, "show live progress line")
	rawOutput := fs.Bool("raw-output", false, "copy raw yt-dlp output to stderr")
	logLevel := fs.String("log-level", "", "log level: debug|info|warn|error")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	urls := fs.Args()
	if len(urls) == 0 {
		return errors.New("download requires at least one URL")
	}

	log.Configure(log.Config{Level: *logLevel})
	lg := log.Logger("cli")

	settings, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if strings.TrimSpace(*downloadDir) != "" {
		settings.DownloadDir = strings.TrimSpace(*downloadDir)
	}
	if strings.TrimSpace(*outputDir) != "" {
		settings.OutputDir = strings.TrimSpace(*outputDir)
	}
	if strings.TrimSpace(*subLangs) != "" {
		settings.SubLangs = strings.TrimSpace(*subLangs)
	}
	if *audioOnly {
		settings.AudioOnly = true
	}

	if err := ytdlp.CheckDependencies(); err != nil {
		return err
	}
	if err := fsutil.Mkdir(settings.DownloadDir); err != nil {
		return err
	}

	var store *archive.Store
	if !*noArchive {
		store, err = archive.Open(settings.ArchivePath)
		if err != nil {
			return err
		}
		defer func() {
			_ = store.Close()
		}()
	}

	// first interrupt stops after the current URL, second cancels outright
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var stop atomic.Bool
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		stop.Store(true)
		lg.Info().Msg("stop requested, finishing current url (interrupt again to abort)")
		<-sigCh
		cancel()
	}()

	coll := download.NewCollection()
	table := recovery.SystemProcessTable{}

	adoptedFiles, err := recovery.AdoptOrphans(settings.DownloadDir, table, coll)
	if err != nil {
		return err
	}
	adoptedRecords := coll.Len()
	if err := recovery.PurgeDeadToolArchives(settings.DownloadDir, table); err != nil {
		lg.Warn().Err(err).Msg("purging stale tool archives failed")
	}

	recoveryStore, err := recovery.NewStore(recovery.FilePath(settings.DownloadDir, os.Getpid()))
	if err != nil {
		return err
	}

	var logWriter io.Writer
	if *rawOutput {
		logWriter = os.Stderr
	}
	result, runErr := download.Run(ctx, download.Options{
		URLs:        urls,
		DownloadDir: settings.DownloadDir,
		AudioOnly:   settings.AudioOnly,
		SubLangs:    settings.SubLangs,
		Progress:    *progress && !*jsonOut,
		Out:         os.Stdout,
		LogWriter:   logWriter,
		Archive:     store,
		Stop:        &stop,
	}, coll)

	var finResult finalize.Result
	if runErr == nil {
		if err := recovery.BackfillFilenames(settings.DownloadDir, coll); err != nil {
			lg.Warn().Err(err).Msg("filename back-fill failed")
		}
		mode := finalize.ModeMove
		if *stage {
			mode = finalize.ModeStage
		}
		finResult, runErr = finalize.Run(finalize.Options{
			DownloadDir: settings.DownloadDir,
			OutputDir:   settings.OutputDir,
			Mode:        mode,
		}, coll)
	}

	if runErr != nil {
		// snapshot everything accumulated so far, adopted records
		// included, then surface the original failure untouched; the
		// adopted files stay on disk until a later run commits them
		if snapErr := recoveryStore.WriteSnapshot(coll); snapErr != nil {
			lg.Error().Err(snapErr).Msg("writing recovery snapshot failed")
		}
		return runErr
	}

	if store != nil && coll.NeedsReconcile() {
		if err := reconcileArchive(ctx, store, coll); err != nil {
			lg.Warn().Err(err).Msg("archive reconciliation failed")
		}
	}

	// the whole pipeline committed; only now is it safe to drop the
	// crash-recovery state
	recoveryStore.Finish()
	for _, path := range adoptedFiles {
		recovery.RemoveFile(path)
	}

	report := downloadReport{
		URLsProcessed: result.URLsProcessed,
		Downloaded:    result.Downloaded,
		Adopted:       adoptedRecords,
		Committed:     finResult.Committed,
		Skipped:       finResult.Skipped,
		Destination:   finResult.Destination,
	}
	if *jsonOut {
		return printJSON(report)
	}
	fmt.Printf("download: %d url(s), %d new media, %d committed to %s\n",
		report.URLsProcessed, report.Downloaded, report.Committed, report.Destination)
	if report.Skipped > 0 {
		fmt.Printf("download: %d item(s) left in %s for the next run\n", report.Skipped, settings.DownloadDir)
	}
	return nil
}

// reconcileArchive records adopted entries that the live-download path
// never saw, so the archive catches up with reality on disk.
func reconcileArchive(ctx context.Context, store *archive.Store, coll *download.Collection) error {
	entries := coll.Sorted()
	media := make([]model.MediaInfo, 0, len(entries))
	for _, e := range entries {
		if e.Comment != "" {
			media = append(media, e.Media)
		}
	}
	if len(media) == 0 {
		return nil
	}
	return store.InsertAll(ctx, media)
}
