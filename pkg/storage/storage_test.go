package storage

import (
	"io"
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	a, err := Open(t.TempDir(), WithLogger(logrus.NewEntry(log)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

const fieldsBody = "<Fields>\n<Field FieldName=\"A\" FieldSize=8 FieldModifier=0>01</Field>\n</Fields>\n"

func TestArchive_CRUD(t *testing.T) {
	a := openTestArchive(t)

	id, err := a.Create(KindFields, "sample", []byte(fieldsBody))
	require.NoError(t, err)
	assert.NotEqual(t, ksuid.Nil, id)

	r, err := a.Read(id)
	require.NoError(t, err)
	assert.Equal(t, KindFields, r.Kind)
	assert.Equal(t, "sample", string(r.Name))
	assert.Equal(t, fieldsBody, string(r.Body))

	updated := "<Fields>\n</Fields>\n"
	require.NoError(t, a.Update(id, []byte(updated)))
	r, err = a.Read(id)
	require.NoError(t, err)
	assert.Equal(t, updated, string(r.Body))
	assert.Equal(t, "sample", string(r.Name), "update keeps the name")
	assert.Equal(t, KindFields, r.Kind)

	require.NoError(t, a.Delete(id))
	_, err = a.Read(id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestArchive_Missing(t *testing.T) {
	a := openTestArchive(t)
	id := ksuid.New()

	_, err := a.Read(id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, a.Update(id, []byte("x")), ErrNotFound)
	assert.ErrorIs(t, a.Delete(id), ErrNotFound)
}

func TestArchive_RejectsUnknownKind(t *testing.T) {
	a := openTestArchive(t)
	_, err := a.Create(Kind(0), "bad", nil)
	assert.ErrorIs(t, err, ErrUnknownKind)

	n, err := a.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestArchive_List(t *testing.T) {
	a := openTestArchive(t)

	ids := map[ksuid.KSUID]string{}
	for _, name := range []string{"one", "two", "three"} {
		id, err := a.Create(KindCFList, name, []byte("<cFList></cFList>"))
		require.NoError(t, err)
		ids[id] = name
	}

	entries, err := a.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, ids[e.ID], e.Name)
		assert.Equal(t, KindCFList, e.Kind)
		assert.Equal(t, len("<cFList></cFList>"), e.Size)
		if i > 0 {
			assert.True(t, ksuid.Compare(entries[i-1].ID, e.ID) < 0, "entries must be in key order")
		}
	}

	limited, err := a.List(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	n, err := a.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestArchive_ListKind(t *testing.T) {
	a := openTestArchive(t)

	for _, name := range []string{"f1", "f2", "f3"} {
		_, err := a.Create(KindFields, name, []byte(fieldsBody))
		require.NoError(t, err)
	}
	_, err := a.Create(KindCFList, "c1", []byte("<cFList></cFList>"))
	require.NoError(t, err)

	kind, err := ParseKind("cflist")
	require.NoError(t, err)
	cf, err := a.ListKind(kind, 0)
	require.NoError(t, err)
	require.Len(t, cf, 1)
	assert.Equal(t, "c1", cf[0].Name)

	fs, err := a.ListKind(KindFields, 2)
	require.NoError(t, err)
	require.Len(t, fs, 2)
	for _, e := range fs {
		assert.Equal(t, KindFields, e.Kind)
	}

	_, err = a.ListKind(Kind(9), 0)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestArchive_DetectsCorruption(t *testing.T) {
	a := openTestArchive(t)
	id, err := a.Create(KindFields, "sample", []byte(fieldsBody))
	require.NoError(t, err)

	data, closer, err := a.db.Get(id.Bytes())
	require.NoError(t, err)
	corrupt := append([]byte(nil), data...)
	require.NoError(t, closer.Close())

	corrupt[len(corrupt)-2] ^= 0xFF
	require.NoError(t, a.db.Set(id.Bytes(), corrupt, pebble.Sync))

	_, err = a.Read(id)
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestArchive_Reopen(t *testing.T) {
	dir := t.TempDir()

	a, err := Open(dir, WithSync(true))
	require.NoError(t, err)
	id, err := a.Create(KindFields, "persisted", []byte(fieldsBody))
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b, err := Open(dir)
	require.NoError(t, err)
	defer b.Close()

	r, err := b.Read(id)
	require.NoError(t, err)
	assert.Equal(t, "persisted", string(r.Name))
}
