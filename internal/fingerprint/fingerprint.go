// Package fingerprint digests the scanned source tree so a previous
// run's output can be checked for staleness without regenerating.
package fingerprint

import (
	"encoding/hex"
	"fmt"
	"sort"

	"golang.org/x/crypto/blake2b"

	"repomap/internal/source"
)

// Tree returns a hex BLAKE2b-256 digest over the scanned files. Paths
// and contents feed the hash in sorted path order with length framing,
// so the digest changes exactly when the mapped inputs change and never
// with scan order.
func Tree(files []source.File) string {
	sorted := make([]source.File, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	h, _ := blake2b.New256(nil)
	for _, f := range sorted {
		fmt.Fprintf(h, "%s\x00%d\x00", f.Path, len(f.Text))
		h.Write([]byte(f.Text))
	}
	return hex.EncodeToString(h.Sum(nil))
}
