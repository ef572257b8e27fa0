package updater

import (
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/genesisproj/launcher/internal/manifest"
)

// DownloadTask is one file the client root must fetch.
type DownloadTask struct {
	Path           string
	ExpectedDigest string
}

// Diff lists, in remote order, every remote file that is missing locally or
// whose digest differs. A nil or empty local manifest yields every remote
// entry. Files only present locally are never scheduled.
func Diff(remote, local *manifest.Manifest) []DownloadTask {
	var tasks []DownloadTask
	remote.Each(func(rec manifest.FileRecord) bool {
		if cur, ok := local.Get(rec.Path); !ok || cur.Digest != rec.Digest {
			tasks = append(tasks, DownloadTask{Path: rec.Path, ExpectedDigest: rec.Digest})
		}
		return true
	})
	return tasks
}

// Unmanaged returns the sorted local paths the remote manifest does not list.
// They are reported for audit only; the client root may hold user data.
func Unmanaged(remote, local *manifest.Manifest) []string {
	localPaths := mapset.NewThreadUnsafeSet(local.Paths()...)
	remotePaths := mapset.NewThreadUnsafeSet(remote.Paths()...)

	out := localPaths.Difference(remotePaths).ToSlice()
	slices.Sort(out)
	return out
}
