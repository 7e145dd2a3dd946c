package suffixtreefile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ckern-go/ckern/pkg/suffixtreefile"
)

func TestOpenReadsContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("banana"), 0o644))

	m, err := suffixtreefile.Open(path)
	require.NoError(t, err)
	require.Equal(t, []byte("banana"), m.Bytes())
	require.Equal(t, 6, m.Len())
	require.Equal(t, path, m.Path())

	require.NoError(t, m.Close())
	require.Nil(t, m.Bytes())
}

func TestOpenMissingFile(t *testing.T) {
	_, err := suffixtreefile.Open(filepath.Join(t.TempDir(), "missing.bin"))
	require.Error(t, err)
}
