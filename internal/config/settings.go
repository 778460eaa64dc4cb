package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"yt-dl-archiver/internal/fsutil"
)

const (
	DefaultConfigPath  = "config/settings.json"
	DefaultDownloadDir = "downloads/tmp"
	DefaultOutputDir   = "downloads"
	DefaultArchivePath = "config/archive.db"
	DefaultSubLangs    = "en-US"

	settingsSchemaVersion = 1
)

// Settings is the persisted on-disk configuration. Flags override these
// per invocation; the file holds the durable choices.
type Settings struct {
	SchemaVersion int    `json:"schema_version"`
	UpdatedAt     string `json:"updated_at,omitempty"`

	DownloadDir string `json:"download_dir,omitempty"`
	OutputDir   string `json:"output_dir,omitempty"`
	ArchivePath string `json:"archive_path,omitempty"`
	AudioOnly   bool   `json:"audio_only,omitempty"`
	SubLangs    string `json:"sub_langs,omitempty"`
}

func defaultSettings() Settings {
	return Settings{
		SchemaVersion: settingsSchemaVersion,
		DownloadDir:   DefaultDownloadDir,
		OutputDir:     DefaultOutputDir,
		ArchivePath:   DefaultArchivePath,
		SubLangs:      DefaultSubLangs,
	}
}

func normalizeSettings(raw Settings) Settings {
	norm := raw
	norm.SchemaVersion = settingsSchemaVersion
	norm.DownloadDir = strings.TrimSpace(norm.DownloadDir)
	norm.OutputDir = strings.TrimSpace(norm.OutputDir)
	norm.ArchivePath = strings.TrimSpace(norm.ArchivePath)
	norm.SubLangs = strings.TrimSpace(norm.SubLangs)
	if norm.DownloadDir == "" {
		norm.DownloadDir = DefaultDownloadDir
	}
	if norm.OutputDir == "" {
		norm.OutputDir = DefaultOutputDir
	}
	if norm.ArchivePath == "" {
		norm.ArchivePath = DefaultArchivePath
	}
	if norm.SubLangs == "" {
		norm.SubLangs = DefaultSubLangs
	}
	return norm
}

func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultConfigPath
	}
	return path
}

// Load reads the settings file, returning defaults when it does not exist.
func Load(configPath string) (Settings, error) {
	path := normalizePath(configPath)
	var s Settings
	if err := fsutil.ReadJSON(path, &s); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultSettings(), nil
		}
		return Settings{}, err
	}
	return normalizeSettings(s), nil
}

// Save persists the settings atomically, stamping the update time.
func Save(configPath string, s Settings) error {
	path := normalizePath(configPath)
	norm := normalizeSettings(s)
	norm.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return fsutil.WriteJSON(path, norm)
}
