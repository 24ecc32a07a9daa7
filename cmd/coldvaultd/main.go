package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	cv "github.com/t7a/coldvault"
	"github.com/t7a/coldvault/vault"

	"github.com/docopt/docopt-go"
	. "github.com/stevegt/goadapt"
)

const usage = `coldvaultd

Usage:
  coldvaultd watch <spooldir>

Options:
  -h --help     Show this screen.
  --version     Show version.
`

type Opts struct {
	Watch    bool
	Spooldir string
}

func main() {
	rc, msg := Run()
	if len(msg) > 0 {
		fmt.Fprintf(os.Stderr, msg+"\n")
	}
	os.Exit(rc)
}

func Run() (rc int, msg string) {
	defer Halt(&rc, &msg)

	parser := &docopt.Parser{OptionsFirst: false}
	o, _ := parser.ParseArgs(usage, os.Args[1:], "0.0")
	var opts Opts
	err := o.Bind(&opts)
	Ck(err)

	if opts.Watch {
		cfg, err := cv.LoadConfig()
		Ck(err)
		log.SetLevel(cfg.LogLevel())

		store, err := vault.NewGlacier(cfg.AwsRegion)
		Ck(err)

		err = os.MkdirAll(cfg.BackupsDirectory, 0755)
		Ck(err)
		catpath := filepath.Join(cfg.BackupsDirectory, cv.CatalogName)

		// quit on SIGINT or SIGTERM
		quit := make(chan struct{})
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sig
			close(quit)
		}()

		err = watch(store, cfg.Vault, opts.Spooldir, catpath, quit)
		Ck(err)
	}

	return
}

// spooled reports whether a spool directory event names an archive
// ready for upload.  Producers must rename archives into the spool
// dir so the file is complete when the event fires -- the writers in
// this repo all write-then-rename.
func spooled(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	return strings.HasSuffix(event.Name, ".tar.gz")
}

// watch uploads every archive that lands in spooldir until quit
// closes.  An upload failure is logged and the daemon keeps going;
// the archive stays in the spool dir for a retry by hand.
func watch(store vault.Store, vaultName, spooldir, catpath string, quit <-chan struct{}) (err error) {
	defer Return(&err)

	watcher, err := fsnotify.NewWatcher()
	Ck(err)
	defer watcher.Close()

	err = watcher.Add(spooldir)
	Ck(err)
	log.Infof("watching %s for archives", spooldir)

	for {
		select {
		case event := <-watcher.Events:
			if !spooled(event) {
				log.Debugf("ignoring event %v", event)
				continue
			}
			entry, err := cv.Upload(store, vaultName, event.Name, catpath)
			if err != nil {
				log.Errorf("upload of %s failed: %v", event.Name, err)
				continue
			}
			log.Infof("uploaded %s as %s", event.Name, entry.ArchiveID)
		case err := <-watcher.Errors:
			log.Errorf("watcher: %v", err)
		case <-quit:
			log.Infof("shutting down")
			return nil
		}
	}
}
