package badger

import (
	"encoding/binary"
)

// Key prefixes for the two index artifacts. Every key of an artifact shares
// its artifact prefix so the artifact can be dropped as a whole.
const (
	vectorPrefix      = "vecidx:"
	vectorHeaderKey   = vectorPrefix + "hdr"
	vectorRowPrefix   = vectorPrefix + "row:"
	metadataPrefix    = "meta:"
	metadataHeaderKey = metadataPrefix + "hdr"
	metadataRowPrefix = metadataPrefix + "row:"
)

// makeRowKey generates a key for row position row under prefix.
// Format: prefix:row
func makeRowKey(prefix string, row int) []byte {
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort follows row order
	binary.BigEndian.PutUint64(buf[offset:], uint64(row))
	return buf
}

// parseRowKey extracts the row position from a key made by makeRowKey.
func parseRowKey(prefix string, key []byte) (int, bool) {
	if len(key) != len(prefix)+8 {
		return 0, false
	}
	return int(binary.BigEndian.Uint64(key[len(prefix):])), true
}
