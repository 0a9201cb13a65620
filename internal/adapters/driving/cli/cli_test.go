package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func isolateHome(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CYBERCACHE_DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("CYBERCACHE_UPLOADS_DIR", filepath.Join(dir, "uploads"))
	t.Setenv("HOME", dir)
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "cybercache version")
}

func TestExportCommand_RejectsUnknownBrowser(t *testing.T) {
	_, err := runCommand(t, "export", "--browser", "netscape")
	assert.Error(t, err)
}

func TestScanCommand_NoWatchedDirs(t *testing.T) {
	isolateHome(t)

	out, err := runCommand(t, "scan")
	require.NoError(t, err)
	assert.Contains(t, out, "No watched directories")
}

func TestExportCommand_EmptyCatalogue(t *testing.T) {
	isolateHome(t)

	out, err := runCommand(t, "export", "--browser", "chrome", "--format", "html")
	require.NoError(t, err)
	assert.Contains(t, out, "NETSCAPE-Bookmark-file-1")
}
