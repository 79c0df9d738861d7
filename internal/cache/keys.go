package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// Key prefixes for the kinds of entries kept in the cache
const (
	PrefixFileHash = "filehash"
)

// GenerateKey hashes an arbitrary identifier into a fixed-size key
func GenerateKey(id string) string {
	hash := sha256.Sum256([]byte(id))
	return hex.EncodeToString(hash[:])
}

// GenerateKeyWithPrefix generates a cache key with a prefix
func GenerateKeyWithPrefix(prefix, id string) string {
	return prefix + ":" + GenerateKey(id)
}

// FileHashKey identifies one version of a stored file. A rewrite changes
// size or modification time and therefore the key.
func FileHashKey(location string, size int64, modTime time.Time) string {
	id := location + "\x00" + strconv.FormatInt(size, 10) + "\x00" + strconv.FormatInt(modTime.UnixNano(), 10)
	return GenerateKeyWithPrefix(PrefixFileHash, id)
}
