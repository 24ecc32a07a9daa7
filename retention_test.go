package coldvault

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestPruneLocal(t *testing.T) {
	dir, err := ioutil.TempDir("", "retention")
	tassert(t, err == nil, "%v", err)
	defer os.RemoveAll(dir)

	dates := []string{"2021-06-11", "2021-06-12", "2021-06-13", "2021-06-14", "2021-06-15"}
	for _, date := range dates {
		for _, name := range []string{"dump_" + date + ".sql", "site_backup_" + date + ".tar.gz"} {
			err = ioutil.WriteFile(filepath.Join(dir, name), []byte("x"), 0644)
			tassert(t, err == nil, "%v", err)
		}
	}
	// an unrelated file is never pruned
	err = ioutil.WriteFile(filepath.Join(dir, "catalog.msgpack"), []byte("x"), 0644)
	tassert(t, err == nil, "%v", err)

	removed, err := PruneLocal(dir, 3)
	tassert(t, err == nil, "%v", err)
	tassert(t, len(removed) == 4, "removed %v", removed)

	files, err := ioutil.ReadDir(dir)
	tassert(t, err == nil, "%v", err)
	var names []string
	for _, info := range files {
		names = append(names, info.Name())
	}
	sort.Strings(names)
	expect := []string{
		"catalog.msgpack",
		"dump_2021-06-13.sql", "dump_2021-06-14.sql", "dump_2021-06-15.sql",
		"site_backup_2021-06-13.tar.gz", "site_backup_2021-06-14.tar.gz", "site_backup_2021-06-15.tar.gz",
	}
	tassert(t, len(names) == len(expect), "files %v", names)
	for i := range expect {
		tassert(t, names[i] == expect[i], "files %v", names)
	}
}

func TestPruneLocalDisabled(t *testing.T) {
	dir, err := ioutil.TempDir("", "retention")
	tassert(t, err == nil, "%v", err)
	defer os.RemoveAll(dir)

	err = ioutil.WriteFile(filepath.Join(dir, "dump_2021-06-15.sql"), []byte("x"), 0644)
	tassert(t, err == nil, "%v", err)

	removed, err := PruneLocal(dir, 0)
	tassert(t, err == nil, "%v", err)
	tassert(t, len(removed) == 0, "removed %v", removed)
}
