package updater

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

const hashBlockSize = 4 * 1024

// EmptyDigest is the SHA-256 of zero bytes.
const EmptyDigest = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// HashFile returns the lowercase hex SHA-256 of the file at path. A missing or
// unreadable file yields an error, never a placeholder digest.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hash %q: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.CopyBuffer(h, f, make([]byte, hashBlockSize)); err != nil {
		return "", fmt.Errorf("hash %q: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// IsNotFound reports whether a HashFile error means the file is gone.
func IsNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
