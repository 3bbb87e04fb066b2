//go:build linux

package sparse

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1 MiB of zeros must not allocate 1 MiB on disk.
func TestWriter_AllocatesHoles(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "sparse"))
	require.NoError(t, err)
	defer f.Close()

	w, err := NewWriter(f)
	require.NoError(t, err)
	_, err = w.Write(make([]byte, 1<<20))
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	fi, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(1<<20), fi.Size())

	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		t.Skip("no stat_t")
	}

	// st.Blocks is in 512-byte units.
	assert.LessOrEqualf(t, st.Blocks*512, int64(4*st.Blksize), "allocated %d blocks", st.Blocks)
}
