package recovery

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"yt-dl-archiver/internal/download"
	"yt-dl-archiver/internal/log"
	"yt-dl-archiver/internal/model"
)

// FilePrefix starts every recovery file name; the remainder is the owning
// process id in decimal.
const FilePrefix = "recovery_"

// FilePath returns the recovery file path for the given pid.
func FilePath(dir string, pid int) string {
	return filepath.Join(dir, fmt.Sprintf("%s%d", FilePrefix, pid))
}

// Store persists the completed-media collection when a run fails, so a
// later run by a different process can adopt the finished work. The writer
// opens lazily on first write: a run that never writes never creates a
// file.
type Store struct {
	path    string
	file    *os.File
	written bool
}

// NewStore validates the target path up front, before any download work
// begins: it must not exist yet and its parent must exist and be writable.
func NewStore(path string) (*Store, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve recovery path %s: %w", path, err)
	}
	if _, err := os.Stat(abs); err == nil {
		return nil, fmt.Errorf("recovery file %s already exists", abs)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat recovery path %s: %w", abs, err)
	}
	parent := filepath.Dir(abs)
	info, err := os.Stat(parent)
	if err != nil {
		return nil, fmt.Errorf("recovery directory %s: %w", parent, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("recovery parent %s is not a directory", parent)
	}
	if info.Mode().Perm()&0o200 == 0 {
		return nil, fmt.Errorf("recovery directory %s is not writable", parent)
	}
	return &Store{path: abs}, nil
}

// Path returns the validated target path.
func (s *Store) Path() string {
	return s.path
}

// WriteSnapshot persists the whole collection, entries in insertion order.
// It truncates and rewrites on repeated calls so the file always holds the
// latest snapshot.
func (s *Store) WriteSnapshot(coll *download.Collection) error {
	if coll.Len() == 0 && !s.written {
		return nil
	}
	if s.file == nil {
		f, err := os.Create(s.path)
		if err != nil {
			return fmt.Errorf("create recovery file %s: %w", s.path, err)
		}
		s.file = f
	} else if err := s.file.Truncate(0); err != nil {
		return fmt.Errorf("truncate recovery file %s: %w", s.path, err)
	} else if _, err := s.file.Seek(0, 0); err != nil {
		return fmt.Errorf("rewind recovery file %s: %w", s.path, err)
	}
	s.written = true

	w := bufio.NewWriter(s.file)
	for _, entry := range coll.Sorted() {
		if _, err := w.WriteString(FormatLine(entry.Media)); err != nil {
			return fmt.Errorf("write recovery file %s: %w", s.path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush recovery file %s: %w", s.path, err)
	}
	return s.file.Sync()
}

// Finish removes the recovery file after a clean completion. When nothing
// was ever written there is no file to remove.
func (s *Store) Finish() {
	if s.file == nil {
		return
	}
	_ = s.file.Close()
	s.file = nil
	RemoveFile(s.path)
}

// RemoveFile deletes a recovery file, tolerating its absence.
func RemoveFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		lg := log.Logger("recovery")
		lg.Info().Err(err).Str("path", path).Msg("removing recovery file failed")
	}
}

// FormatLine renders one record as '<provider>'-'<id>'-<title> plus
// newline. Filename is intentionally not persisted; the on-disk naming
// convention already encodes the identity and a directory re-scan restores
// it.
func FormatLine(media model.MediaInfo) string {
	return fmt.Sprintf("'%s'-'%s'-%s\n", media.Provider, media.ID, media.Title)
}

var lineRe = regexp.MustCompile(`^'([^']+)'-'([^']+)'-(.+)$`)

// ParseLine reads one record back. Malformed lines yield false and are
// skipped by the reader.
func ParseLine(line string) (model.MediaInfo, bool) {
	m := lineRe.FindStringSubmatch(line)
	if m == nil {
		return model.MediaInfo{}, false
	}
	media := model.NewMediaInfo(m[2], m[1])
	media.Title = m[3]
	return media, true
}

// ReadFile parses every well-formed record from a recovery file.
func ReadFile(path string) ([]model.MediaInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recovery file %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	var records []model.MediaInfo
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		if media, ok := ParseLine(line); ok {
			records = append(records, media)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read recovery file %s: %w", path, err)
	}
	return records, nil
}
