package recovery

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yt-dl-archiver/internal/download"
)

// fakeTable marks a fixed set of pids as alive.
type fakeTable map[int]bool

func (f fakeTable) Alive(pid int) bool { return f[pid] }

func writeRecoveryFile(t *testing.T, dir string, pid int, lines ...string) string {
	t.Helper()
	path := FilePath(dir, pid)
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAdoptOrphansSkipsLivePids(t *testing.T) {
	dir := t.TempDir()
	writeRecoveryFile(t, dir, 4242, "'youtube'-'abc'-Still Owned")

	coll := download.NewCollection()
	adopted, err := AdoptOrphans(dir, fakeTable{4242: true}, coll)
	require.NoError(t, err)
	assert.Empty(t, adopted)
	assert.Equal(t, 0, coll.Len())

	// the live owner's file stays on disk
	_, statErr := os.Stat(FilePath(dir, 4242))
	assert.NoError(t, statErr)
}

func TestAdoptOrphansAdoptsDeadPids(t *testing.T) {
	dir := t.TempDir()
	path := writeRecoveryFile(t, dir, 4242,
		"'youtube'-'abc'-First",
		"'soundcloud'-'xyz'-Second",
	)

	coll := download.NewCollection()
	adopted, err := AdoptOrphans(dir, fakeTable{}, coll)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, adopted)
	require.Equal(t, 2, coll.Len())

	entry := coll.Get("youtube-abc")
	require.NotNil(t, entry)
	assert.Equal(t, "First", entry.Media.Title)
	assert.Contains(t, entry.Comment, "4242")
	assert.True(t, coll.NeedsReconcile())
}

func TestAdoptOrphansIgnoresOwnPidAndJunk(t *testing.T) {
	dir := t.TempDir()
	writeRecoveryFile(t, dir, os.Getpid(), "'youtube'-'self'-Mine")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "recovery_notapid"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o644))

	coll := download.NewCollection()
	adopted, err := AdoptOrphans(dir, fakeTable{}, coll)
	require.NoError(t, err)
	assert.Empty(t, adopted)
	assert.Equal(t, 0, coll.Len())
}

func TestPurgeDeadToolArchives(t *testing.T) {
	dir := t.TempDir()
	dead := filepath.Join(dir, "ytdl_archive_4242.txt")
	live := filepath.Join(dir, "ytdl_archive_4343.txt")
	own := filepath.Join(dir, fmt.Sprintf("ytdl_archive_%d.txt", os.Getpid()))
	for _, p := range []string{dead, live, own} {
		require.NoError(t, os.WriteFile(p, []byte("youtube abc\n"), 0o644))
	}

	require.NoError(t, PurgeDeadToolArchives(dir, fakeTable{4343: true}))

	_, err := os.Stat(dead)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(live)
	assert.NoError(t, err)
	_, err = os.Stat(own)
	assert.NoError(t, err)
}

func TestBackfillFilenames(t *testing.T) {
	dir := t.TempDir()
	name := "'youtube'-'abc'-Recovered Title.mkv"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("media"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "not-matching.mkv"), []byte("x"), 0o644))

	coll := download.NewCollection()
	coll.InsertRecovered(mediaWithTitle("abc", "youtube", "Recovered Title"), "test")
	coll.InsertRecovered(mediaWithTitle("zzz", "youtube", "No File"), "test")

	require.NoError(t, BackfillFilenames(dir, coll))
	assert.Equal(t, name, coll.Get("youtube-abc").Media.Filename)
	assert.Empty(t, coll.Get("youtube-zzz").Media.Filename)
}
