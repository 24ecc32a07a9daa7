package coldvault

import (
	"os"
	"path/filepath"
	"sort"

	. "github.com/stevegt/goadapt"
)

// pruneGlobs name the local files a backup run leaves behind.  Dates
// in the names sort lexically, so plain string order is age order.
var pruneGlobs = []string{"dump_*.sql", "site_backup_*.tar.gz"}

// PruneLocal removes all but the newest keep dumps and archives from
// dir, returning what it removed.  keep < 1 disables pruning; the
// uploaded copies in the vault are never touched.
func PruneLocal(dir string, keep int) (removed []string, err error) {
	defer Return(&err)

	if keep < 1 {
		return
	}
	for _, glob := range pruneGlobs {
		matches, err := filepath.Glob(filepath.Join(dir, glob))
		Ck(err)
		sort.Strings(matches)
		if len(matches) <= keep {
			continue
		}
		for _, fn := range matches[:len(matches)-keep] {
			err = os.Remove(fn)
			Ck(err)
			removed = append(removed, fn)
		}
	}
	return
}
