/*

Coldvault dumps a MySQL database, packs the dump and a site directory
into a compressed tarball, computes the tarball's tree hash, and
uploads it to a Glacier-style vault, keeping a local catalog of what
went where.

Vocabulary:

- chunk: contiguous segment of a stream, at most 1 MiB, consumed in order
- leaf: level-0 tree-hash node; the SHA-256 digest of exactly one chunk
- level: number of merges separating a node from the leaves below it
- frame: one (level, digest) node on the reduction stack
- tree hash: root digest formed by pairwise-combining chunk digests
	until one remains; the integrity checksum the vault verifies
- archive: one gzipped tarball holding a dump file and site snapshot
- vault: named container for archives on the remote storage service
- catalog: local msgpack file recording uploaded archive IDs and checksums
- spool: directory the daemon watches for archives to upload

*/

package coldvault
