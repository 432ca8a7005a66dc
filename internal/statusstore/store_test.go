package statusstore_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soos-io/cli-extension-sca/internal/scancontext"
	"github.com/soos-io/cli-extension-sca/internal/scanerrors"
	"github.com/soos-io/cli-extension-sca/internal/soosclient"
	"github.com/soos-io/cli-extension-sca/internal/statusstore"
)

const handle = soosclient.ScanHandle("https://api.soos.io/api/clients/c1/projects/p1/branches/b1/scan-types/sca/scans/s1")

func TestFileStore_Path(t *testing.T) {
	store := statusstore.NewFileStore("/var/jenkins_home")

	path := store.Path(scancontext.BuildKey{Job: "my-job", Number: 7})

	assert.Equal(t, filepath.Join("/var/jenkins_home", "jobs", "my-job", "builds", "7", "resultUrl.txt"), path)
}

func TestFileStore_SaveThenLoad(t *testing.T) {
	ctx := context.Background()
	store := statusstore.NewFileStore(t.TempDir())
	key := scancontext.BuildKey{Job: "my-job", Number: 7}

	require.NoError(t, store.Save(ctx, key, handle))

	loaded, err := store.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, handle, loaded)

	raw, err := os.ReadFile(store.Path(key))
	require.NoError(t, err)
	assert.Equal(t, string(handle)+"\n", string(raw))
}

func TestFileStore_RecordIsPrivate(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix file modes")
	}
	store := statusstore.NewFileStore(t.TempDir())
	key := scancontext.BuildKey{Job: "my-job", Number: 7}

	require.NoError(t, store.Save(context.Background(), key, handle))

	info, err := os.Stat(store.Path(key))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	store := statusstore.NewFileStore(t.TempDir())
	key := scancontext.BuildKey{Job: "my-job", Number: 7}

	require.NoError(t, store.Save(ctx, key, "https://api.soos.io/first"))
	require.NoError(t, store.Save(ctx, key, handle))

	loaded, err := store.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, handle, loaded)

	entries, err := os.ReadDir(filepath.Dir(store.Path(key)))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files should not be left behind")
}

func TestFileStore_BuildsDoNotCollide(t *testing.T) {
	ctx := context.Background()
	store := statusstore.NewFileStore(t.TempDir())

	require.NoError(t, store.Save(ctx, scancontext.BuildKey{Job: "my-job", Number: 7}, "https://x/7"))
	require.NoError(t, store.Save(ctx, scancontext.BuildKey{Job: "my-job", Number: 8}, "https://x/8"))
	require.NoError(t, store.Save(ctx, scancontext.BuildKey{Job: "other-job", Number: 7}, "https://y/7"))

	loaded, err := store.Load(ctx, scancontext.BuildKey{Job: "my-job", Number: 7})
	require.NoError(t, err)
	assert.Equal(t, soosclient.ScanHandle("https://x/7"), loaded)
}

func TestFileStore_LoadMissing(t *testing.T) {
	store := statusstore.NewFileStore(t.TempDir())

	_, err := store.Load(context.Background(), scancontext.BuildKey{Job: "my-job", Number: 6})

	require.Error(t, err)
	assert.ErrorIs(t, err, statusstore.ErrNotFound)
	assert.True(t, scanerrors.Is(err, scanerrors.Persistence))
}

func TestFileStore_LoadLegacyRecord(t *testing.T) {
	store := statusstore.NewFileStore(t.TempDir())
	key := scancontext.BuildKey{Job: "my-job", Number: 3}
	path := store.Path(key)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(handle), 0o644))

	loaded, err := store.Load(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, handle, loaded)
}

func TestFileStore_LoadEmptyRecord(t *testing.T) {
	store := statusstore.NewFileStore(t.TempDir())
	key := scancontext.BuildKey{Job: "my-job", Number: 3}
	path := store.Path(key)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("\n  \n"), 0o644))

	_, err := store.Load(context.Background(), key)
	require.Error(t, err)
	assert.True(t, scanerrors.Is(err, scanerrors.Persistence))
	assert.Contains(t, err.Error(), "empty status record")
}

func TestFileStore_InvalidKeys(t *testing.T) {
	store := statusstore.NewFileStore(t.TempDir())

	tests := []struct {
		name string
		key  scancontext.BuildKey
	}{
		{"empty job", scancontext.BuildKey{Job: "", Number: 1}},
		{"path traversal", scancontext.BuildKey{Job: "../etc", Number: 1}},
		{"zero build", scancontext.BuildKey{Job: "my-job", Number: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Save(context.Background(), tt.key, handle)
			assert.True(t, scanerrors.Is(err, scanerrors.Persistence))

			_, err = store.Load(context.Background(), tt.key)
			assert.True(t, scanerrors.Is(err, scanerrors.Persistence))
		})
	}
}

func TestFileStore_SaveEmptyHandle(t *testing.T) {
	store := statusstore.NewFileStore(t.TempDir())

	err := store.Save(context.Background(), scancontext.BuildKey{Job: "my-job", Number: 1}, " ")

	assert.True(t, scanerrors.Is(err, scanerrors.Persistence))
}

func TestFileStore_CancelledContext(t *testing.T) {
	store := statusstore.NewFileStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Save(ctx, scancontext.BuildKey{Job: "my-job", Number: 1}, handle)

	assert.True(t, scanerrors.Is(err, scanerrors.Aborted))
}
