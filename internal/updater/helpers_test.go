package updater

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/genesisproj/launcher/internal/manifest"
	"github.com/stretchr/testify/require"
)

func sha(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func manifestOf(t *testing.T, pairs ...string) *manifest.Manifest {
	t.Helper()
	require.Zero(t, len(pairs)%2, "pairs must be path, digest")
	m := manifest.New()
	for i := 0; i < len(pairs); i += 2 {
		rec, err := manifest.NewFileRecord(pairs[i], pairs[i+1])
		require.NoError(t, err)
		m.Set(rec)
	}
	return m
}

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
