package cmd

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JulianFrattini/cira/internal/bundle"
	"github.com/JulianFrattini/cira/internal/store"
)

// saveButton processes and stores the button requirement and returns its id.
func saveButton(t *testing.T) string {
	t.Helper()
	out, err := execute(t, "", "process", writeFile(t, "button.json", buttonDocument), "--save")
	require.NoError(t, err)
	var rec store.Record
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	return rec.ID
}

func TestHistoryCmd_empty(t *testing.T) {
	setupDataDir(t)
	out, err := execute(t, "", "history", "list")
	require.NoError(t, err)
	assert.Equal(t, "No requirements stored yet.\n", out)
}

func TestHistoryCmd_listShowForget(t *testing.T) {
	setupDataDir(t)
	id := saveButton(t)

	out, err := execute(t, "", "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "SENTENCE")
	assert.Contains(t, out, id)
	assert.Contains(t, out, "If the button is pressed then the system shuts down.")

	out, err = execute(t, "", "history", "show", id)
	require.NoError(t, err)
	var rec store.Record
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, id, rec.ID)
	assert.Len(t, rec.Labels, 6)

	out, err = execute(t, "", "history", "forget", id)
	require.NoError(t, err)
	assert.Equal(t, "Forgot "+id+"\n", out)

	_, err = execute(t, "", "history", "show", id)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = execute(t, "", "history", "forget", id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestExportImportCmd(t *testing.T) {
	setupDataDir(t)
	id := saveButton(t)
	path := filepath.Join(t.TempDir(), "release.cira")

	out, err := execute(t, "", "export", path, "--author", "QA")
	require.NoError(t, err)
	assert.Equal(t, "Exported 1 requirement(s) to "+path+"\n", out)

	out, err = execute(t, "", "import", path, "--inspect")
	require.NoError(t, err)
	var manifest bundle.Manifest
	require.NoError(t, json.Unmarshal([]byte(out), &manifest))
	assert.Equal(t, "release", manifest.Name)
	assert.Equal(t, "QA", manifest.Author)
	assert.Equal(t, 1, manifest.RequirementCount)

	// the requirement is already known
	out, err = execute(t, "", "import", path)
	require.NoError(t, err)
	assert.Equal(t, "Imported 0 of 1 requirement(s) from \"release\"\n", out)

	// a fresh store takes it over with its id
	setupDataDir(t)
	out, err = execute(t, "", "import", path)
	require.NoError(t, err)
	assert.Equal(t, "Imported 1 of 1 requirement(s) from \"release\"\n", out)

	out, err = execute(t, "", "history", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, id)
}

func TestImportCmd_invalidBundle(t *testing.T) {
	setupDataDir(t)
	path := writeFile(t, "bogus.cira", "not a bundle")
	_, err := execute(t, "", "import", path)
	assert.ErrorIs(t, err, bundle.ErrFormat)
}
