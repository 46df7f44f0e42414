package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/entangle/internal/testutil"
)

// copySpecs copies testdata/specs/<name> into a fresh temp directory.
func copySpecs(t *testing.T, name string) string {
	t.Helper()

	src := filepath.Join("testdata", "specs", name)
	dst := t.TempDir()
	entries, err := os.ReadDir(src)
	require.NoError(t, err)
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(src, e.Name()))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dst, e.Name()), data, 0644))
	}
	return dst
}

// testOptions returns root options that discard logs.
func testOptions(format string) *RootOptions {
	return &RootOptions{Format: format, Logger: testutil.DiscardLogger()}
}

// execute runs cmd with args and returns what it wrote to stdout and stderr.
func execute(cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

// expandInto records one run of specsDir into session id of db.
func expandInto(t *testing.T, specsDir, db, id string) {
	t.Helper()
	_, _, err := execute(NewExpandCommand(testOptions("text")), specsDir, "--db", db, "--session", id)
	require.NoError(t, err)
}
