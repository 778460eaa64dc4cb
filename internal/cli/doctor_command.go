package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"yt-dl-archiver/internal/config"
	"yt-dl-archiver/internal/ytdlp"
)

type doctorCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type doctorResult struct {
	OK     bool          `json:"ok"`
	Checks []doctorCheck `json:"checks"`
}

func runDoctor(args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultConfigPath, "settings file path")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings, err := config.Load(strings.TrimSpace(*configPath))
	if err != nil {
		return err
	}

	dep := ytdlp.DependencyStatus()
	checks := []doctorCheck{
		{
			Name:    "dependency:yt-dlp",
			OK:      dep.ToolFound,
			Message: dependencyMessage(dep.ToolFound, dep.ToolPath, "yt-dlp"),
		},
		{
			Name:    "dependency:ffmpeg",
			OK:      dep.FFmpegFound,
			Message: dependencyMessage(dep.FFmpegFound, dep.FFmpegPath, "ffmpeg"),
		},
	}

	dlOK, dlMsg := ensureWritableDir(settings.DownloadDir)
	checks = append(checks, doctorCheck{Name: "directory:download", OK: dlOK, Message: dlMsg})

	outOK, outMsg := ensureWritableDir(settings.OutputDir)
	checks = append(checks, doctorCheck{Name: "directory:output", OK: outOK, Message: outMsg})

	archOK, archMsg := ensureWritableDir(filepath.Dir(settings.ArchivePath))
	checks = append(checks, doctorCheck{Name: "directory:archive", OK: archOK, Message: archMsg})

	res := doctorResult{OK: true, Checks: checks}
	for _, c := range checks {
		if !c.OK {
			res.OK = false
			break
		}
	}

	if *jsonOut {
		return printJSON(res)
	}
	for _, c := range res.Checks {
		status := "ok"
		if !c.OK {
			status = "fail"
		}
		fmt.Printf("%s: %s (%s)\n", c.Name, status, c.Message)
	}
	if !res.OK {
		return errors.New("doctor checks failed")
	}
	fmt.Println("doctor: all checks passed")
	return nil
}

func dependencyMessage(found bool, path, name string) string {
	if found {
		return path
	}
	return name + " not found on PATH"
}

func ensureWritableDir(dir string) (bool, string) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Sprintf("cannot create %s: %v", dir, err)
	}
	f, err := os.CreateTemp(dir, "yt-dl-archiver-check-*.tmp")
	if err != nil {
		return false, fmt.Sprintf("%s is not writable: %v", dir, err)
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true, dir
}
