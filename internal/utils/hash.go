package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// SHA256Hex returns the lowercase hex sha256 digest of b
func SHA256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// SHA256Reader hashes everything read from r
func SHA256Reader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
