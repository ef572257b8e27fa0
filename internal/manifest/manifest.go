// Package manifest models the file sets the launcher keeps in sync: an
// ordered mapping of client-relative paths to SHA-256 content digests.
package manifest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/genesisproj/launcher/internal/utils"
)

// DigestLen is the length of a hex encoded SHA-256 digest.
const DigestLen = 64

var (
	ErrInvalidDigest = errors.New("manifest: invalid digest")
	ErrInvalidPath   = errors.New("manifest: invalid path")
)

// FileRecord is one managed file. Path is relative to the client root and
// always uses forward slashes; Digest is lowercase hex.
type FileRecord struct {
	Path   string
	Digest string
}

// NewFileRecord normalizes path and digest and validates the result. Paths
// rooted with either separator are rejected rather than rebased.
func NewFileRecord(path, digest string) (FileRecord, error) {
	if strings.HasPrefix(path, "/") || strings.HasPrefix(path, "\\") {
		return FileRecord{}, fmt.Errorf("%w: %q: %w", ErrInvalidPath, path, utils.ErrAbsoluteEntry)
	}

	rec := FileRecord{
		Path:   utils.NormPath(path),
		Digest: strings.ToLower(strings.TrimSpace(digest)),
	}
	if err := rec.Validate(); err != nil {
		return FileRecord{}, err
	}
	return rec, nil
}

func (r FileRecord) Validate() error {
	if err := utils.CheckRelPath(r.Path); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidPath, r.Path, err)
	}
	if !IsDigest(r.Digest) {
		return fmt.Errorf("%w: %q for %q", ErrInvalidDigest, r.Digest, r.Path)
	}
	return nil
}

// IsDigest reports whether s is a lowercase hex SHA-256 digest.
func IsDigest(s string) bool {
	if len(s) != DigestLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Manifest maps paths to records and remembers insertion order.
// The zero value is not usable; call New.
type Manifest struct {
	order   []string
	records map[string]FileRecord
}

func New() *Manifest {
	return &Manifest{records: make(map[string]FileRecord)}
}

// Set adds rec, or replaces the record with the same path keeping its position.
func (m *Manifest) Set(rec FileRecord) {
	if _, ok := m.records[rec.Path]; !ok {
		m.order = append(m.order, rec.Path)
	}
	m.records[rec.Path] = rec
}

// Get is nil-safe so an absent manifest behaves like an empty one.
func (m *Manifest) Get(path string) (FileRecord, bool) {
	if m == nil {
		return FileRecord{}, false
	}
	rec, ok := m.records[path]
	return rec, ok
}

func (m *Manifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Paths returns the paths in insertion order.
func (m *Manifest) Paths() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.order...)
}

// Records returns the records in insertion order.
func (m *Manifest) Records() []FileRecord {
	if m == nil {
		return nil
	}
	out := make([]FileRecord, 0, len(m.order))
	for _, p := range m.order {
		out = append(out, m.records[p])
	}
	return out
}

// Each calls fn for every record in insertion order until fn returns false.
func (m *Manifest) Each(fn func(FileRecord) bool) {
	if m == nil {
		return
	}
	for _, p := range m.order {
		if !fn(m.records[p]) {
			return
		}
	}
}
