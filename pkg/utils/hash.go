package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// CalculateStringSHA256 computes the SHA-256 hash of a string. Used to
// fingerprint extracted document content for duplicate-import detection.
func CalculateStringSHA256(content string) string {
	hash := sha256.New()
	hash.Write([]byte(content))
	return hex.EncodeToString(hash.Sum(nil))
}

// CalculateReaderSHA256 computes the SHA-256 hash of everything readable
// from r. The caller is responsible for rewinding r afterwards if the
// content is needed again.
func CalculateReaderSHA256(r io.Reader) (string, error) {
	hash := sha256.New()
	if _, err := io.Copy(hash, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
