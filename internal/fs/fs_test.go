package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalFS_TempLifecycle(t *testing.T) {
	f, name, err := Default.CreateTemp(t.TempDir(), "stage-*")
	require.NoError(t, err)

	_, err = f.Write([]byte("blob"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Default.Stat(name)
	require.NoError(t, err)

	require.NoError(t, Default.Remove(name))
	_, err = Default.Stat(name)
	require.True(t, os.IsNotExist(err))
}

func TestFaultyFS_FailsAfterLimit(t *testing.T) {
	dir := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.FailWritesTo("victim", 4)

	f, err := ffs.OpenFile(filepath.Join(dir, "victim.bin"), os.O_WRONLY|os.O_CREATE, 0o644)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Write([]byte("ok"))
	require.NoError(t, err)

	_, err = f.Write([]byte("too much"))
	require.ErrorIs(t, err, ErrInjected)
}

func TestFaultyFS_TracksRemovals(t *testing.T) {
	dir := t.TempDir()
	ffs := NewFaultyFS(nil)

	f, name, err := ffs.CreateTemp(dir, "stage-*")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, ffs.Remove(name))
	require.Equal(t, []string{name}, ffs.Removed())
}

func TestFaultyFS_UntouchedFilesPass(t *testing.T) {
	dir := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.FailWritesTo("other", 0)

	f, err := ffs.OpenFile(filepath.Join(dir, "fine.bin"), os.O_WRONLY|os.O_CREATE, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte("plenty of bytes"))
	require.NoError(t, err)
	require.NoError(t, f.Close())
}
