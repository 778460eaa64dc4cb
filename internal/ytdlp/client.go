package ytdlp

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"yt-dl-archiver/internal/log"
	"yt-dl-archiver/internal/model"
)

const toolBinName = "yt-dlp"

const (
	// ToolArchivePrefix and ToolArchiveExt name the per-process temporary
	// archive file passed via --download-archive.
	ToolArchivePrefix = "ytdl_archive_"
	ToolArchiveExt    = ".txt"
)

// ToolArchivePath returns the temporary tool-archive path for this process.
func ToolArchivePath(downloadDir string) string {
	return filepath.Join(downloadDir, fmt.Sprintf("%s%d%s", ToolArchivePrefix, os.Getpid(), ToolArchiveExt))
}

// DependencyReport lists the external binaries the pipeline shells out to.
type DependencyReport struct {
	ToolFound   bool   `json:"yt_dlp_found"`
	ToolPath    string `json:"yt_dlp_path,omitempty"`
	FFmpegFound bool   `json:"ffmpeg_found"`
	FFmpegPath  string `json:"ffmpeg_path,omitempty"`
}

func DependencyStatus() DependencyReport {
	report := DependencyReport{}
	if path, err := exec.LookPath(toolBinName); err == nil {
		report.ToolFound = true
		report.ToolPath = path
	}
	if path, err := exec.LookPath("ffmpeg"); err == nil {
		report.FFmpegFound = true
		report.FFmpegPath = path
	}
	return report
}

func CheckDependencies() error {
	report := DependencyStatus()
	if !report.ToolFound {
		return fmt.Errorf("missing dependency: %s is not installed or not on PATH", toolBinName)
	}
	if !report.FFmpegFound {
		return fmt.Errorf("missing dependency: ffmpeg is required for muxing and was not found on PATH")
	}
	return nil
}

// InvokeOptions describe one download-tool invocation for a single URL.
type InvokeOptions struct {
	URL         string
	DownloadDir string
	AudioOnly   bool
	// ArchiveFile is passed as --download-archive when non-empty; the
	// driver seeds it from the archive oracle and resets it per URL.
	ArchiveFile string
	SubLangs    string
	ExtraArgs   []string
	// LogWriter receives a copy of the raw output when non-nil.
	LogWriter io.Writer
}

// AssembleArgs builds the tool argv, including the --print instrumentation
// templates that produce the PARSE_START / PARSE_END / PLAYLIST / MOVE
// marker lines the stream processor relies on.
func AssembleArgs(opts InvokeOptions) []string {
	outputFormat := filepath.Join(opts.DownloadDir, "'%(extractor)s'-'%(id)s'-%(title).150B.%(ext)s")

	args := []string{}
	if opts.ArchiveFile != "" {
		args = append(args, "--download-archive", opts.ArchiveFile)
	}
	if opts.AudioOnly {
		args = append(args, "-f", "bestaudio/best", "-x", "--audio-format", "mp3", "--embed-thumbnail")
	} else {
		args = append(args, "--remux-video", "mkv")
	}
	args = append(args,
		"--convert-thumbnails", "webp>jpg",
		"--write-thumbnail",
	)
	if lang := strings.TrimSpace(opts.SubLangs); lang != "" {
		args = append(args,
			"--embed-subs",
			"--write-subs",
			"--sub-langs", lang,
			"--ppa", "EmbedSubtitle:-disposition:s:0 default",
		)
	}
	args = append(args,
		"--print", "before_dl:PLAYLIST '%(playlist_count)s'",
		"--print", "before_dl:PARSE_START '%(extractor)s' '%(id)s' %(title)s",
		"--print", "after_video:PARSE_END '%(extractor)s' '%(id)s'",
		"--print", "after_move:MOVE '%(extractor)s' '%(id)s' %(filepath)s",
		"--progress",
		"--newline",
		"--no-simulate",
		"-o", outputFormat,
	)
	args = append(args, opts.ExtraArgs...)
	args = append(args, opts.URL)
	return args
}

// DownloadURL runs the download tool for one URL and feeds its merged
// stdout/stderr through a fresh stream processor. The returned media list
// is valid even when an error is returned: partial success must survive.
//
// The subprocess exit code is deliberately not inspected for correctness.
// Most non-zero exits correspond to already-surfaced error lines, and the
// sticky error line is the source of truth for invocation failure. A crash
// that produces no error line is therefore treated as success; known gap.
func DownloadURL(ctx context.Context, opts InvokeOptions, emit EventFunc) ([]model.MediaInfo, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return nil, fmt.Errorf("url is required")
	}
	if strings.TrimSpace(opts.DownloadDir) == "" {
		return nil, fmt.Errorf("download directory is required")
	}
	if err := os.MkdirAll(opts.DownloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create download directory %s: %w", opts.DownloadDir, err)
	}

	lg := log.Logger("ytdlp")
	args := AssembleArgs(opts)
	lg.Debug().Strs("args", args).Msg("invoking download tool")

	cmd := exec.Command(toolBinName, args...)

	// merge stderr into stdout so lines keep their emission order
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("setup output pipe: %w", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return nil, fmt.Errorf("start %s: %w", toolBinName, err)
	}
	// close the parent's copy; the child keeps its own
	_ = pw.Close()

	var output io.Reader = pr
	if opts.LogWriter != nil {
		output = io.TeeReader(pr, opts.LogWriter)
	}

	processor := NewStreamProcessor(emit)
	streamErr := processor.Consume(output)
	_ = pr.Close()

	waitProcess(ctx, cmd, lg)

	return processor.Completed(), streamErr
}

// waitProcess waits for the subprocess with a bounded poll instead of a
// blocking wait, so cancellation can be observed between polls. A non-zero
// exit is logged and otherwise treated as a benign end of stream.
func waitProcess(ctx context.Context, cmd *exec.Cmd, lg zerolog.Logger) {
	waitC := make(chan error, 1)
	go func() { waitC <- cmd.Wait() }()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case err := <-waitC:
			if err != nil {
				lg.Warn().Err(err).Msg("download tool exited with a non-zero code")
			}
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				// stop waiting; the salvaged output stays valid and the
				// process is left to run to completion on its own
				lg.Warn().Msg("cancellation requested while waiting for tool exit")
				go func() { <-waitC }()
				return
			}
		}
	}
}

// splitByNewlineOrCR splits on \n and \r so the tool's in-place progress
// updates (carriage returns without newlines) still come through as lines.
func splitByNewlineOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' || data[i] == '\r' {
			if i == 0 {
				return 1, nil, nil
			}
			return i + 1, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}
