package updater

import (
	"fmt"
	"testing"

	"github.com/genesisproj/launcher/internal/manifest"
	"github.com/stretchr/testify/assert"
)

func TestDiff(t *testing.T) {
	h1, h2, h3 := sha("1"), sha("2"), sha("3")

	tests := []struct {
		name   string
		remote *manifest.Manifest
		local  *manifest.Manifest
		want   []DownloadTask
	}{
		{
			name:   "missing file",
			remote: manifestOf(t, "a.txt", h1, "b.txt", h2),
			local:  manifestOf(t, "a.txt", h1),
			want:   []DownloadTask{{Path: "b.txt", ExpectedDigest: h2}},
		},
		{
			name:   "empty local downloads everything",
			remote: manifestOf(t, "a.txt", h1),
			local:  manifest.New(),
			want:   []DownloadTask{{Path: "a.txt", ExpectedDigest: h1}},
		},
		{
			name:   "absent local downloads everything in remote order",
			remote: manifestOf(t, "z.txt", h1, "a.txt", h2, "m/n.bin", h3),
			local:  nil,
			want: []DownloadTask{
				{Path: "z.txt", ExpectedDigest: h1},
				{Path: "a.txt", ExpectedDigest: h2},
				{Path: "m/n.bin", ExpectedDigest: h3},
			},
		},
		{
			name:   "stale file carries remote digest",
			remote: manifestOf(t, "a.txt", h1, "b.txt", h3),
			local:  manifestOf(t, "a.txt", h1, "b.txt", h2),
			want:   []DownloadTask{{Path: "b.txt", ExpectedDigest: h3}},
		},
		{
			name:   "all matching",
			remote: manifestOf(t, "a.txt", h1, "dir\\b.txt", h2),
			local:  manifestOf(t, "dir/b.txt", h2, "a.txt", h1),
			want:   nil,
		},
		{
			name:   "local only files are left alone",
			remote: manifestOf(t, "a.txt", h1),
			local:  manifestOf(t, "a.txt", h1, "saves/slot1.sav", h2),
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Diff(tt.remote, tt.local))
		})
	}
}

func TestDiff_OneTaskPerRemoteEntryWhenLocalEmpty(t *testing.T) {
	remote := manifest.New()
	for i := range 50 {
		path := fmt.Sprintf("data/%02d.pak", i)
		remote.Set(manifest.FileRecord{Path: path, Digest: sha(path)})
	}

	tasks := Diff(remote, manifest.New())
	assert.Len(t, tasks, remote.Len())

	seen := map[string]bool{}
	for i, task := range tasks {
		assert.False(t, seen[task.Path])
		seen[task.Path] = true
		assert.Equal(t, remote.Paths()[i], task.Path)
	}
}

func TestUnmanaged(t *testing.T) {
	h := sha("x")
	remote := manifestOf(t, "a.txt", h, "b.txt", h)
	local := manifestOf(t, "a.txt", h, "user/config.ini", h, "screens/001.png", h)

	assert.Equal(t, []string{"screens/001.png", "user/config.ini"}, Unmanaged(remote, local))
	assert.Empty(t, Unmanaged(remote, nil))
}
