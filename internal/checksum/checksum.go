package checksum

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/starford/recents/internal/models"
)

// Sum returns the hex-encoded xxhash64 digest of data.
func Sum(data []byte) string {
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}

// Snapshot fingerprints the ordered target sequence of s. Two snapshots that
// compare equal under Snapshot.SameTargets share a fingerprint.
func Snapshot(s models.Snapshot) string {
	d := xxhash.New()
	for _, item := range s {
		_, _ = d.WriteString(strings.ToLower(item.TargetPath))
		_, _ = d.Write([]byte{0})
	}
	return strconv.FormatUint(d.Sum64(), 16)
}
