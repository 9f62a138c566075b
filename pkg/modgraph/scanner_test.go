package modgraph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()

	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestScanCollectsSourceFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "src/app.js", "const a = 1;\n")
	writeFile(t, root, "src/util.ts", "export const b = 2;\n")
	writeFile(t, root, "README.md", "docs\n")
	writeFile(t, root, "node_modules/lodash/index.js", "module.exports = {};\n")
	writeFile(t, root, "vendor/lib.js", "ignored\n")

	files, err := NewScanner(root, []string{"vendor"}, 0).Scan()
	require.NoError(t, err)

	require.Len(t, files, 2)
	assert.Equal(t, "src/app.js", files[0].CanonicalPath)
	assert.Equal(t, "src/util.ts", files[1].CanonicalPath)
	assert.Equal(t, len("const a = 1;\n"), files[0].Size)
}

func TestScanStopsAtMaxFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.js", "1\n")
	writeFile(t, root, "b.js", "2\n")
	writeFile(t, root, "c.js", "3\n")

	files, err := NewScanner(root, nil, 2).Scan()
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestScanMissingRootFails(t *testing.T) {
	t.Parallel()

	_, err := NewScanner(filepath.Join(t.TempDir(), "nope"), nil, 0).Scan()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan")
}
