package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed_Text(t *testing.T) {
	db := filepath.Join(t.TempDir(), "shop.db")

	out, err := run(t, "seed", "testdata/shop.yaml", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 4 table(s), 105 row(s)")
	assert.Contains(t, out, db)
}

func TestSeed_JSON(t *testing.T) {
	db := filepath.Join(t.TempDir(), "shop.db")

	out, err := run(t, "seed", "testdata/shop.yaml", "--db", db, "--format", "json")
	require.NoError(t, err)

	resp := decode(t, out)
	require.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.NotEmpty(t, data["id"])
	assert.Equal(t, float64(4), data["tables"])
	assert.Equal(t, float64(105), data["rows"])
}

func TestSeed_InvalidFixtures(t *testing.T) {
	dir := t.TempDir()
	fixtures := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(fixtures, []byte("tables: []\n"), 0o644))

	out, err := run(t, "seed", fixtures, "--db", filepath.Join(dir, "x.db"), "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeFixtures, decode(t, out).Error.Code)
}

func TestSeed_MissingArgument(t *testing.T) {
	_, err := run(t, "seed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}
