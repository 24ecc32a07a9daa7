package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
	cv "github.com/t7a/coldvault"
	"github.com/t7a/coldvault/catalog"
	"github.com/t7a/coldvault/treehash"
	"github.com/t7a/coldvault/vault"

	"github.com/docopt/docopt-go"
)

func init() {
	var debug string
	debug = os.Getenv("DEBUG")
	if debug == "1" {
		log.SetLevel(log.DebugLevel)
	}
	logrus.SetReportCaller(true)
	formatter := &logrus.TextFormatter{
		CallerPrettyfier: caller(),
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyFile: "caller",
		},
	}
	formatter.TimestampFormat = "15:04:05.999999999"
	logrus.SetFormatter(formatter)
}

// caller returns string presentation of log caller which is formatted as
// `/path/to/file.go:line_number`. e.g. `/internal/app/api.go:25`
func caller() func(*runtime.Frame) (function string, file string) {
	return func(f *runtime.Frame) (function string, file string) {
		p, _ := os.Getwd()
		return "", fmt.Sprintf("%s:%d gid %d", strings.TrimPrefix(f.File, p), f.Line, cv.GetGID())
	}
}

type Opts struct {
	Backup   bool
	Hash     bool
	Upload   bool
	Catalog  bool
	Prune    bool
	Filename string
	Last     bool   `docopt:"-n"`
	Count    string `docopt:"<count>"`
}

func main() {
	// see https://github.com/google/go-cmdtest
	os.Exit(run())
}

func run() (rc int) {

	usage := `coldvault

Usage:
  coldvault backup
  coldvault hash <filename>
  coldvault upload <filename>
  coldvault catalog [-n <count>]
  coldvault prune

Options:
  -h --help     Show this screen.
  --version     Show version.
`
	parser := &docopt.Parser{OptionsFirst: false}
	o, _ := parser.ParseArgs(usage, os.Args[1:], "0.0")
	var opts Opts
	err := o.Bind(&opts)
	if err != nil {
		log.Error(err)
		return 22
	}
	log.Debug(opts)

	switch true {
	case opts.Hash:
		sum, err := treehash.SumFile(opts.Filename)
		if err != nil {
			log.Error(err)
			return 42
		}
		fmt.Println(treehash.Hex(sum))
	case opts.Backup:
		entry, err := backup()
		if err != nil {
			log.Error(err)
			return 42
		}
		fmt.Printf("%s %s\n", entry.ArchiveID, entry.Checksum)
	case opts.Upload:
		entry, err := upload(opts.Filename)
		if err != nil {
			log.Error(err)
			return 42
		}
		fmt.Printf("%s %s\n", entry.ArchiveID, entry.Checksum)
	case opts.Catalog:
		lines, err := listCatalog(opts.Last, opts.Count)
		if err != nil {
			log.Error(err)
			return 42
		}
		if len(lines) > 0 {
			fmt.Println(strings.Join(lines, "\n"))
		}
	case opts.Prune:
		removed, err := prune()
		if err != nil {
			log.Error(err)
			return 42
		}
		for _, fn := range removed {
			fmt.Println(fn)
		}
	}
	return 0
}

func backup() (entry *catalog.Entry, err error) {
	cfg, err := cv.LoadConfig()
	if err != nil {
		return
	}
	log.SetLevel(cfg.LogLevel())
	store, err := vault.NewGlacier(cfg.AwsRegion)
	if err != nil {
		return
	}
	b := &cv.Backup{Cfg: cfg, Store: store}
	return b.Run()
}

func upload(filename string) (entry *catalog.Entry, err error) {
	cfg, err := cv.LoadConfig()
	if err != nil {
		return
	}
	log.SetLevel(cfg.LogLevel())
	store, err := vault.NewGlacier(cfg.AwsRegion)
	if err != nil {
		return
	}
	err = os.MkdirAll(cfg.BackupsDirectory, 0755)
	if err != nil {
		return
	}
	catpath := filepath.Join(cfg.BackupsDirectory, cv.CatalogName)
	return cv.Upload(store, cfg.Vault, filename, catpath)
}

func listCatalog(last bool, count string) (lines []string, err error) {
	cfg, err := cv.LoadConfig()
	if err != nil {
		return
	}
	cat, err := catalog.Open(filepath.Join(cfg.BackupsDirectory, cv.CatalogName))
	if err != nil {
		return
	}
	entries := cat.Entries
	if last {
		n, err := strconv.Atoi(count)
		if err != nil {
			return nil, err
		}
		if n < len(entries) {
			entries = entries[len(entries)-n:]
		}
	}
	for _, entry := range entries {
		lines = append(lines, fmt.Sprintf("%s %s %s %d %s",
			entry.Uploaded.Format("2006-01-02"), entry.Vault,
			entry.ArchiveID, entry.Size, entry.Checksum))
	}
	return
}

func prune() (removed []string, err error) {
	cfg, err := cv.LoadConfig()
	if err != nil {
		return
	}
	return cv.PruneLocal(cfg.BackupsDirectory, cfg.KeepLocal)
}
