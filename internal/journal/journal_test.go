package journal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata3d/strata/internal/docstore"
)

func openTest(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func rev(id string, seq int64, source string) docstore.Revision {
	return docstore.Revision{
		ID:     id,
		Seq:    seq,
		Source: source,
		Hash:   "hash_" + id,
		Body:   []byte(`{"activeScene":"main"}`),
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j1.Append(rev("r1", 1, "set")))
	require.NoError(t, j1.Close())

	j2, err := Open(path)
	require.NoError(t, err)
	defer j2.Close()

	n, err := j2.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n, "reopening preserves stored revisions")
}

func TestAppend_AndReadBack(t *testing.T) {
	j := openTest(t)

	require.NoError(t, j.Append(rev("r1", 1, "set")))
	require.NoError(t, j.Append(rev("r2", 2, "patch")))

	got, err := j.Revision("r2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Seq)
	assert.Equal(t, "patch", got.Source)
	assert.Equal(t, "hash_r2", got.Hash)
	assert.JSONEq(t, `{"activeScene":"main"}`, string(got.Body))
	assert.NotEmpty(t, got.CreatedAt)
}

func TestAppend_DuplicateIDIsIgnored(t *testing.T) {
	j := openTest(t)

	require.NoError(t, j.Append(rev("r1", 1, "set")))
	require.NoError(t, j.Append(rev("r1", 1, "set")), "replayed append must not error")

	n, err := j.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHistory_NewestFirstWithLimit(t *testing.T) {
	j := openTest(t)
	require.NoError(t, j.Append(rev("r1", 1, "set")))
	require.NoError(t, j.Append(rev("r2", 2, "mutate")))
	require.NoError(t, j.Append(rev("r3", 3, "patch")))

	all, err := j.History(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "r3", all[0].ID)
	assert.Equal(t, "r1", all[2].ID)

	limited, err := j.History(2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "r3", limited[0].ID)
	assert.Equal(t, "r2", limited[1].ID)
}

func TestRevision_NotFound(t *testing.T) {
	j := openTest(t)

	_, err := j.Revision("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
