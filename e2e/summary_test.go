//go:build e2e && unix

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Summary mode writes to stdout and exits, so it runs without a PTY.
func TestSummaryPrintsArchiveTable(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	cmd := exec.Command(binPath, "-demo", "-summary",
		"-archive", filepath.Join(dir, "archive"),
		"-downloads", filepath.Join(dir, "downloads"))
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "HOME="+dir, "XDG_CONFIG_HOME="+filepath.Join(dir, ".config"))

	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "summary run failed: %s", out)

	text := string(out)
	assert.Contains(t, text, "PEER")
	assert.Contains(t, text, "PHOTO")
	assert.Contains(t, text, "Alice Baker")
	assert.Contains(t, text, "Design Team")
	assert.Contains(t, text, "now Design Team", "migration pair should be annotated")
}

func TestSummaryOnEmptyArchive(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	cmd := exec.Command(binPath, "-summary",
		"-archive", filepath.Join(dir, "archive"),
		"-downloads", filepath.Join(dir, "downloads"))
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "HOME="+dir, "XDG_CONFIG_HOME="+filepath.Join(dir, ".config"))

	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "summary run failed: %s", out)
	assert.Contains(t, string(out), "archive is empty")
}
