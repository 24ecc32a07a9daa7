package main

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/t7a/coldvault/catalog"
)

func tassert(t *testing.T, cond bool, txt string, args ...interface{}) {
	t.Helper()
	if !cond {
		t.Fatalf(txt, args...)
	}
}

type fakeStore struct {
	uploads chan string
}

func (f *fakeStore) Ensure(name string) error { return nil }

func (f *fakeStore) Upload(name, description string, body io.ReadSeeker, checksum string) (string, error) {
	f.uploads <- checksum
	return "archive-0001", nil
}

func TestSpooled(t *testing.T) {
	yes := fsnotify.Event{Name: "spool/site_backup_2021-06-15.tar.gz", Op: fsnotify.Create}
	tassert(t, spooled(yes), "%v", yes)
	rename := fsnotify.Event{Name: "spool/site_backup_2021-06-15.tar.gz", Op: fsnotify.Rename}
	tassert(t, spooled(rename), "%v", rename)
	partial := fsnotify.Event{Name: "spool/backup.tar.gz.tmp123", Op: fsnotify.Create}
	tassert(t, !spooled(partial), "%v", partial)
	write := fsnotify.Event{Name: "spool/backup.tar.gz", Op: fsnotify.Write}
	tassert(t, !spooled(write), "%v", write)
}

func TestWatch(t *testing.T) {
	dir, err := ioutil.TempDir("", "coldvaultd")
	tassert(t, err == nil, "%v", err)
	defer os.RemoveAll(dir)

	spool := filepath.Join(dir, "spool")
	err = os.Mkdir(spool, 0755)
	tassert(t, err == nil, "%v", err)
	catpath := filepath.Join(dir, "catalog.msgpack")

	store := &fakeStore{uploads: make(chan string, 1)}
	quit := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- watch(store, "testvault", spool, catpath, quit)
	}()

	// write outside the spool dir, then rename in, as producers must
	staging := filepath.Join(dir, "backup.tar.gz")
	err = ioutil.WriteFile(staging, []byte("tarball bytes"), 0644)
	tassert(t, err == nil, "%v", err)
	// give the watcher a beat to register
	time.Sleep(100 * time.Millisecond)
	err = os.Rename(staging, filepath.Join(spool, "backup.tar.gz"))
	tassert(t, err == nil, "%v", err)

	select {
	case checksum := <-store.uploads:
		tassert(t, len(checksum) == 64, "checksum %q", checksum)
	case <-time.After(5 * time.Second):
		t.Fatal("upload never happened")
	}

	close(quit)
	err = <-done
	tassert(t, err == nil, "%v", err)

	// the upload was cataloged before the watcher moved on
	cat, err := catalog.Open(catpath)
	tassert(t, err == nil, "%v", err)
	tassert(t, len(cat.Entries) == 1, "entries %v", cat.Entries)
	tassert(t, cat.Latest().ArchiveID == "archive-0001", "%#v", cat.Latest())
}
