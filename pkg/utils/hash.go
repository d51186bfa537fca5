package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

// SessionFingerprint identifies a telemetry source file by content marker
// (path + size + mtime). Cheap enough to compute on every query; a full
// content hash is not needed since the decoder rewrites the file on change.
func SessionFingerprint(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	hasher := sha256.New()
	fmt.Fprintf(hasher, "%s|%d|%d", path, fi.Size(), fi.ModTime().UnixNano())
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
