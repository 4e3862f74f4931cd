package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testDatabase(t *testing.T, db Database) {
	t.Helper()

	_, err := db.Get([]byte("missing"))
	require.True(t, errors.Is(err, ErrKeyNotFound))

	require.NoError(t, db.Put([]byte("alpha"), []byte("one")))
	value, err := db.Get([]byte("alpha"))
	require.NoError(t, err)
	require.Equal(t, []byte("one"), value)

	has, err := db.Has([]byte("alpha"))
	require.NoError(t, err)
	require.True(t, has)

	// Overwrites replace the stored value.
	require.NoError(t, db.Put([]byte("alpha"), []byte("two")))
	value, err = db.Get([]byte("alpha"))
	require.NoError(t, err)
	require.Equal(t, []byte("two"), value)

	require.NoError(t, db.Delete([]byte("alpha")))
	has, err = db.Has([]byte("alpha"))
	require.NoError(t, err)
	require.False(t, has)
	_, err = db.Get([]byte("alpha"))
	require.True(t, errors.Is(err, ErrKeyNotFound))

	// Deleting an absent key is not an error.
	require.NoError(t, db.Delete([]byte("missing")))
}

func TestMemDB(t *testing.T) {
	db := NewMemDB()
	testDatabase(t, db)
	require.NoError(t, db.Close())
}

func TestMemDBCopiesValues(t *testing.T) {
	db := NewMemDB()
	buf := []byte("mutable")
	require.NoError(t, db.Put([]byte("key"), buf))
	buf[0] = 'X'
	value, err := db.Get([]byte("key"))
	require.NoError(t, err)
	require.Equal(t, []byte("mutable"), value)
}

func TestLevelDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	db, err := NewLevelDB(path)
	require.NoError(t, err)
	testDatabase(t, db)
	require.NoError(t, db.Close())

	// Reopening finds what the previous instance stored.
	db, err = NewLevelDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Put([]byte("persist"), []byte("yes")))
	require.NoError(t, db.Close())
	db, err = NewLevelDB(path)
	require.NoError(t, err)
	value, err := db.Get([]byte("persist"))
	require.NoError(t, err)
	require.Equal(t, []byte("yes"), value)
	require.NoError(t, db.Close())
}
