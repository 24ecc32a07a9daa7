package archive

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
)

// Member is one entry to include in an archive.  Path is the file or
// directory on disk; Name is the path it gets inside the tarball.  A
// directory member is walked recursively.
type Member struct {
	Name string
	Path string
}

// Pack writes a gzipped tarball at dst containing the given members,
// in order.  The tarball appears at dst atomically -- a crashed or
// failed Pack leaves no partial archive behind for the uploader to
// find.
func Pack(dst string, members ...Member) (err error) {
	defer Return(&err)

	pending, err := renameio.TempFile("", dst)
	Ck(err)
	defer pending.Cleanup()

	gz := gzip.NewWriter(pending)
	tw := tar.NewWriter(gz)

	for _, member := range members {
		err = add(tw, member)
		Ck(err)
	}

	err = tw.Close()
	Ck(err)
	err = gz.Close()
	Ck(err)
	err = pending.CloseAtomicallyReplace()
	Ck(err)

	log.Debugf("packed %d members into %s", len(members), dst)
	return
}

// add appends one member to the tar stream, recursing into
// directories.
func add(tw *tar.Writer, member Member) (err error) {
	defer Return(&err)

	info, err := os.Stat(member.Path)
	Ck(err)

	if !info.IsDir() {
		return addFile(tw, member.Name, member.Path, info)
	}

	err = filepath.Walk(member.Path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(member.Path, path)
		if err != nil {
			return err
		}
		name := member.Name
		if rel != "." {
			name = filepath.Join(member.Name, rel)
		}
		if info.IsDir() {
			hdr, err := tar.FileInfoHeader(info, "")
			if err != nil {
				return err
			}
			hdr.Name = name + "/"
			return tw.WriteHeader(hdr)
		}
		if !info.Mode().IsRegular() {
			// symlinks and specials have no place in a backup
			// tarball headed for cold storage
			log.Debugf("skipping irregular file %s", path)
			return nil
		}
		return addFile(tw, name, path, info)
	})
	Ck(err)
	return
}

func addFile(tw *tar.Writer, name, path string, info os.FileInfo) (err error) {
	defer Return(&err)

	hdr, err := tar.FileInfoHeader(info, "")
	Ck(err)
	hdr.Name = strings.TrimPrefix(name, "/")
	err = tw.WriteHeader(hdr)
	Ck(err)

	fh, err := os.Open(path)
	Ck(err)
	defer fh.Close()

	n, err := io.Copy(tw, fh)
	Ck(err)
	if n != info.Size() {
		return errors.Errorf("short copy of %s: %d of %d bytes", path, n, info.Size())
	}
	return
}
