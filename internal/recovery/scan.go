package recovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"yt-dl-archiver/internal/download"
	"yt-dl-archiver/internal/log"
	"yt-dl-archiver/internal/model"
	"yt-dl-archiver/internal/ytdlp"
)

// AdoptOrphans scans dir for recovery files left by other processes. Files
// whose encoded pid is still alive are skipped untouched: that run still
// owns them. Files of dead pids are read into coll with a provenance
// comment and returned so the caller can delete them once the merge is
// safely committed.
func AdoptOrphans(dir string, table ProcessTable, coll *download.Collection) ([]string, error) {
	lg := log.Logger("recovery")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read download directory %s: %w", dir, err)
	}

	ownPid := os.Getpid()
	var adopted []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		pid, ok := pidFromName(name, FilePrefix, "")
		if !ok || pid == ownPid {
			continue
		}
		if table.Alive(pid) {
			lg.Info().Int("pid", pid).Msg("recovery file owner still running, skipping")
			continue
		}

		path := FilePath(dir, pid)
		records, err := ReadFile(path)
		if err != nil {
			return adopted, err
		}
		comment := fmt.Sprintf("from recovery file of pid %d", pid)
		for _, media := range records {
			coll.InsertRecovered(media, comment)
		}
		lg.Info().Int("pid", pid).Int("records", len(records)).Msg("adopted recovery file")
		adopted = append(adopted, path)
	}
	return adopted, nil
}

// PurgeDeadToolArchives removes temporary tool-archive files left behind
// by dead processes, using the same liveness test as recovery adoption.
func PurgeDeadToolArchives(dir string, table ProcessTable) error {
	lg := log.Logger("recovery")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read download directory %s: %w", dir, err)
	}

	ownPid := os.Getpid()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		pid, ok := pidFromName(entry.Name(), ytdlp.ToolArchivePrefix, ytdlp.ToolArchiveExt)
		if !ok || pid == ownPid {
			continue
		}
		if table.Alive(pid) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			lg.Info().Err(err).Str("path", path).Msg("removing stale tool archive failed")
			continue
		}
		lg.Info().Int("pid", pid).Msg("removed stale tool archive")
	}
	return nil
}

// BackfillFilenames re-scans dir and fills in the filename of collection
// entries whose on-disk name matches the output naming convention.
// Recovered records never persist a filename, so this is how they get one
// back.
func BackfillFilenames(dir string, coll *download.Collection) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read download directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		media, ok := model.MediaFromFilename(entry.Name())
		if !ok {
			continue
		}
		if existing := coll.Get(media.Key()); existing != nil {
			existing.Media.Filename = media.Filename
		}
	}
	return nil
}

// pidFromName extracts the trailing decimal pid from a file name shaped
// <prefix><pid><suffix>.
func pidFromName(name, prefix, suffix string) (int, bool) {
	if !strings.HasPrefix(name, prefix) {
		return 0, false
	}
	rest := strings.TrimPrefix(name, prefix)
	if suffix != "" {
		if !strings.HasSuffix(rest, suffix) {
			return 0, false
		}
		rest = strings.TrimSuffix(rest, suffix)
	}
	pid, err := strconv.Atoi(rest)
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}
