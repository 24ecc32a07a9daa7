package catalog

import (
	"io/ioutil"
	"os"
	"time"

	"github.com/google/renameio"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
	"github.com/vmihailenco/msgpack"
)

// Entry records one completed upload.  The archive ID and checksum
// together are what a later retrieval job needs; without them an
// archive in cold storage is unreachable.
type Entry struct {
	Vault       string
	ArchiveID   string
	Checksum    string
	Description string
	Size        int64
	Uploaded    time.Time
}

// Catalog is the local record of completed uploads, newest last,
// stored as a msgpack file.
type Catalog struct {
	Path    string
	Entries []Entry
}

// Open loads the catalog at path.  A missing file is an empty
// catalog, not an error -- the first backup has nothing to load.
func Open(path string) (cat *Catalog, err error) {
	defer Return(&err)

	cat = &Catalog{Path: path}
	buf, err := ioutil.ReadFile(path)
	if os.IsNotExist(errors.Cause(err)) {
		return cat, nil
	}
	Ck(err)

	err = msgpack.Unmarshal(buf, &cat.Entries)
	Ck(err)
	log.Debugf("loaded %d catalog entries from %s", len(cat.Entries), path)
	return
}

// Append adds an entry and persists the catalog atomically.
func (cat *Catalog) Append(entry Entry) (err error) {
	defer Return(&err)

	cat.Entries = append(cat.Entries, entry)
	buf, err := msgpack.Marshal(cat.Entries)
	Ck(err)
	err = renameio.WriteFile(cat.Path, buf, 0644)
	Ck(err)
	return
}

// Latest returns the most recent entry, or nil if the catalog is
// empty.
func (cat *Catalog) Latest() *Entry {
	if len(cat.Entries) == 0 {
		return nil
	}
	return &cat.Entries[len(cat.Entries)-1]
}

// ByVault returns the entries for one vault, oldest first.
func (cat *Catalog) ByVault(vault string) (entries []Entry) {
	for _, entry := range cat.Entries {
		if entry.Vault == vault {
			entries = append(entries, entry)
		}
	}
	return
}
