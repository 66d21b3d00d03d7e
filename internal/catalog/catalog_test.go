package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Contains(t, c.Companies, "Atome")
	assert.Contains(t, c.Companies, "Citibank")

	// callers must not be able to modify the built-in list
	c.Companies[0] = "changed"
	assert.Equal(t, "Atome", Default().Companies[0])
}

func TestMerge(t *testing.T) {
	c := &Catalog{Companies: []string{"Pace", "Atome"}}

	got := c.Merge([]string{"Zip", "Atome", " ", "atome"})

	assert.Equal(t, []string{"Atome", "Pace", "Zip", "atome"}, got)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companies.yaml")
	require.NoError(t, os.WriteFile(path, []byte("companies:\n  - Boost\n  - Touch 'n Go\n"), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Boost", "Touch 'n Go"}, c.Companies)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("companies: []\n"), 0o600))
	_, err = Load(empty)
	assert.Error(t, err)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("companies: [unclosed\n"), 0o600))
	_, err = Load(broken)
	assert.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	c, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}
