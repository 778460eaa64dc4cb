package cli

import (
	"encoding/json"
	"fmt"
	"os"
)

func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	switch args[0] {
	case "download":
		return runDownload(args[1:])
	case "doctor":
		return runDoctor(args[1:])
	case "settings":
		return runSettings(args[1:])
	case "version":
		return runVersion(args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage() {
	fmt.Println("yt-dl-archiver: crash-safe yt-dlp download archiver")
	fmt.Println()
	fmt.Println("Quick Start:")
	fmt.Println("  yt-dl-archiver doctor")
	fmt.Println("  yt-dl-archiver download <url> [<url> ...]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  download  download URL(s), recover orphaned state, finalize files")
	fmt.Println("  doctor    run dependency and filesystem preflight checks")
	fmt.Println("  settings  show/update the persisted settings file")
	fmt.Println("  version   print the build version")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - Use --json on commands for machine-readable output")
	fmt.Println("  - Interrupt a download once to stop after the current URL")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
