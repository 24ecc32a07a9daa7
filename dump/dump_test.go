package dump

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func tassert(t *testing.T, cond bool, txt string, args ...interface{}) {
	t.Helper()
	if !cond {
		t.Fatalf(txt, args...)
	}
}

func TestArgv(t *testing.T) {
	m := MySQL{
		Host:     "db.example.com",
		Port:     "3306",
		Database: "wordpress",
		User:     "backup",
		Password: "hunter2",
	}
	args, err := m.argv()
	tassert(t, err == nil, "%v", err)
	expect := []string{
		"mysqldump", "-h", "db.example.com", "--port", "3306",
		"-u", "backup", "-phunter2", "--databases", "wordpress",
	}
	tassert(t, strings.Join(args, " ") == strings.Join(expect, " "),
		"expect %v got %v", expect, args)
}

func TestArgvCommand(t *testing.T) {
	m := MySQL{Command: `sh -c "echo 'quoted arg'"`}
	args, err := m.argv()
	tassert(t, err == nil, "%v", err)
	tassert(t, len(args) == 3, "args %#v", args)
	tassert(t, args[2] == "echo 'quoted arg'", "args %#v", args)

	m = MySQL{Command: "   "}
	_, err = m.argv()
	tassert(t, err != nil, "expected error for empty command")
}

func TestRun(t *testing.T) {
	dir, err := ioutil.TempDir("", "dump")
	tassert(t, err == nil, "%v", err)
	defer os.RemoveAll(dir)

	m := MySQL{Command: "echo -- MySQL dump"}
	path, err := m.Run(dir)
	tassert(t, err == nil, "%v", err)

	date := time.Now().UTC().Format("2006-01-02")
	tassert(t, path == filepath.Join(dir, "dump_"+date+".sql"), "path %s", path)

	buf, err := ioutil.ReadFile(path)
	tassert(t, err == nil, "%v", err)
	tassert(t, string(buf) == "-- MySQL dump\n", "content %q", string(buf))
}

func TestRunFailure(t *testing.T) {
	dir, err := ioutil.TempDir("", "dump")
	tassert(t, err == nil, "%v", err)
	defer os.RemoveAll(dir)

	m := MySQL{Command: "false"}
	_, err = m.Run(dir)
	tassert(t, err != nil, "expected error")

	// no partial dump file
	files, err := ioutil.ReadDir(dir)
	tassert(t, err == nil, "%v", err)
	tassert(t, len(files) == 0, "leftover files: %v", files)
}
