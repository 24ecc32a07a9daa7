package coldvault

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"

	"github.com/t7a/coldvault/archive"
	"github.com/t7a/coldvault/catalog"
	"github.com/t7a/coldvault/dump"
	"github.com/t7a/coldvault/treehash"
	"github.com/t7a/coldvault/vault"
)

// CatalogName is the catalog filename inside the backups directory.
const CatalogName = "catalog.msgpack"

// Backup runs one full backup: dump, pack, hash, upload, record,
// prune.  Store is the remote side; tests supply a fake.
type Backup struct {
	Cfg   *Config
	Store vault.Store
}

// Run performs the backup and returns the catalog entry it recorded.
// Any failure aborts the run before the catalog is touched -- a
// partially-uploaded backup is never recorded as done.
func (b *Backup) Run() (entry *catalog.Entry, err error) {
	defer Return(&err)

	cfg := b.Cfg
	err = os.MkdirAll(cfg.BackupsDirectory, 0755)
	Ck(err)

	dumper := dump.MySQL{
		Host:     cfg.MysqlHost,
		Port:     cfg.MysqlPort,
		Database: cfg.MysqlDatabase,
		User:     cfg.MysqlUser,
		Password: cfg.MysqlPassword,
		Command:  cfg.DumpCommand,
	}
	dumpPath, err := dumper.Run(cfg.BackupsDirectory)
	Ck(err)

	date := time.Now().UTC().Format("2006-01-02")
	archivePath := filepath.Join(cfg.BackupsDirectory,
		fmt.Sprintf("site_backup_%s.tar.gz", date))
	members := []archive.Member{
		{Name: filepath.Base(dumpPath), Path: dumpPath},
	}
	if cfg.SiteDirectory != "" {
		members = append(members, archive.Member{
			Name: fmt.Sprintf("site_%s", date),
			Path: cfg.SiteDirectory,
		})
	}
	err = archive.Pack(archivePath, members...)
	Ck(err)

	entry, err = Upload(b.Store, cfg.Vault, archivePath,
		filepath.Join(cfg.BackupsDirectory, CatalogName))
	Ck(err)

	removed, err := PruneLocal(cfg.BackupsDirectory, cfg.KeepLocal)
	Ck(err)
	for _, fn := range removed {
		log.Infof("pruned %s", fn)
	}

	return
}

// Upload tree-hashes one archive file, uploads it to the named vault
// on store, and appends the result to the catalog at catalogPath.
// The daemon and the `upload` CLI command share this path with
// Backup.Run.
func Upload(store vault.Store, vaultName, archivePath, catalogPath string) (entry *catalog.Entry, err error) {
	defer Return(&err)

	sum, err := treehash.SumFile(archivePath)
	Ck(err)
	checksum := treehash.Hex(sum)
	log.Infof("tree hash of %s is %s", archivePath, checksum)

	err = store.Ensure(vaultName)
	Ck(err)

	fh, err := os.Open(archivePath)
	Ck(err)
	defer fh.Close()
	info, err := fh.Stat()
	Ck(err)

	description := filepath.Base(archivePath)
	archiveID, err := store.Upload(vaultName, description, fh, checksum)
	Ck(err)

	cat, err := catalog.Open(catalogPath)
	Ck(err)
	entry = &catalog.Entry{
		Vault:       vaultName,
		ArchiveID:   archiveID,
		Checksum:    checksum,
		Description: description,
		Size:        info.Size(),
		Uploaded:    time.Now().UTC(),
	}
	err = cat.Append(*entry)
	Ck(err)

	return
}
