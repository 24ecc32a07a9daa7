package dump

import (
	"bytes"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/renameio"
	"github.com/google/shlex"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
)

// MySQL describes a database to dump.  Command, when set, replaces
// the default mysqldump invocation entirely -- it is split
// shell-style, so something like
// "docker exec db mysqldump --all-databases" works.
type MySQL struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
	Command  string
}

// argv builds the command line for the dump.
func (m MySQL) argv() (args []string, err error) {
	defer Return(&err)

	if m.Command != "" {
		args, err = shlex.Split(m.Command)
		Ck(err)
		if len(args) == 0 {
			return nil, errors.New("empty dump command")
		}
		return args, nil
	}

	args = []string{
		"mysqldump",
		"-h", m.Host,
		"--port", m.Port,
		"-u", m.User,
		fmt.Sprintf("-p%s", m.Password),
		"--databases", m.Database,
	}
	return
}

// Run executes the dump and writes its stdout atomically to
// dump_<date>.sql under dir, returning the path of the written file.
// The dump file never exists in a partial state -- a failed dump
// leaves nothing behind to get packed into an archive.
func (m MySQL) Run(dir string) (path string, err error) {
	defer Return(&err)

	args, err := m.argv()
	Ck(err)

	date := time.Now().UTC().Format("2006-01-02")
	path = filepath.Join(dir, fmt.Sprintf("dump_%s.sql", date))

	pending, err := renameio.TempFile("", path)
	Ck(err)
	defer pending.Cleanup()

	log.Debugf("running %s with %d args", args[0], len(args)-1)
	var stderr bytes.Buffer
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = pending
	cmd.Stderr = &stderr
	err = cmd.Run()
	if err != nil {
		return "", errors.Wrapf(err, "%s: %s", args[0], stderr.String())
	}

	err = pending.CloseAtomicallyReplace()
	Ck(err)
	log.Infof("wrote dump %s", path)
	return
}
