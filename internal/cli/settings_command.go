package cli

import (
	"flag"
	"fmt"
	"strings"

	"yt-dl-archiver/internal/config"
)

func runSettings(args []string) error {
	if len(args) == 0 {
		printSettingsUsage()
		return nil
	}
	switch args[0] {
	case "show":
		return runSettingsShow(args[1:])
	case "set":
		return runSettingsSet(args[1:])
	case "help", "-h", "--help":
		printSettingsUsage()
		return nil
	default:
		printSettingsUsage()
		return fmt.Errorf("unknown settings subcommand %q", args[0])
	}
}

func printSettingsUsage() {
	fmt.Println("settings: show/update the persisted settings file")
	fmt.Println()
	fmt.Println("Subcommands:")
	fmt.Println("  show  print current settings")
	fmt.Println("  set   update settings fields")
}

func runSettingsShow(args []string) error {
	fs := flag.NewFlagSet("settings show", flag.ContinueOnError)
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
	if *jsonOut {
		return printJSON(map[string]any{
			"config_path": strings.TrimSpace(*configPath),
			"settings":    settings,
		})
	}

	fmt.Printf("config: %s\n", strings.TrimSpace(*configPath))
	fmt.Printf("download_dir: %s\n", settings.DownloadDir)
	fmt.Printf("output_dir: %s\n", settings.OutputDir)
	fmt.Printf("archive_path: %s\n", settings.ArchivePath)
	fmt.Printf("audio_only: %t\n", settings.AudioOnly)
	fmt.Printf("sub_langs: %s\n", settings.SubLangs)
	return nil
}

func runSettingsSet(args []string) error {
	fs := flag.NewFlagSet("settings set", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultConfigPath, "settings file path")
	downloadDir := fs.String("download-dir", "", "working directory for in-flight downloads (empty keeps current)")
	outputDir := fs.String("output-dir", "", "final output directory (empty keeps current)")
	archivePath := fs.String("archive-path", "", "archive database path (empty keeps current)")
	subLangs := fs.String("sub-langs", "", "subtitle language preference (empty keeps current)")
	audioOnly := fs.String("audio-only", "", "default to audio extraction: true|false (empty keeps current)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := strings.TrimSpace(*configPath)
	settings, err := config.Load(path)
	if err != nil {
		return err
	}

	if v := strings.TrimSpace(*downloadDir); v != "" {
		settings.DownloadDir = v
	}
	if v := strings.TrimSpace(*outputDir); v != "" {
		settings.OutputDir = v
	}
	if v := strings.TrimSpace(*archivePath); v != "" {
		settings.ArchivePath = v
	}
	if v := strings.TrimSpace(*subLangs); v != "" {
		settings.SubLangs = v
	}
	switch strings.ToLower(strings.TrimSpace(*audioOnly)) {
	case "":
	case "true", "yes":
		settings.AudioOnly = true
	case "false", "no":
		settings.AudioOnly = false
	default:
		return fmt.Errorf("invalid --audio-only value %q", *audioOnly)
	}

	if err := config.Save(path, settings); err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(map[string]any{
			"config_path": path,
			"settings":    settings,
		})
	}
	fmt.Printf("settings: updated %s\n", path)
	return nil
}
