package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemDBPutGet(t *testing.T) {
	db := NewMemDB()
	require.NoError(t, db.Put([]byte("a"), []byte("1")))
	v, err := db.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), v)
}

func TestMemDBGetMissing(t *testing.T) {
	db := NewMemDB()
	_, err := db.Get([]byte("missing"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemDBIteratePrefixOrdered(t *testing.T) {
	db := NewMemDB()
	require.NoError(t, db.Put([]byte("ledger/t1/0003"), []byte("c")))
	require.NoError(t, db.Put([]byte("ledger/t1/0001"), []byte("a")))
	require.NoError(t, db.Put([]byte("ledger/t1/0002"), []byte("b")))
	require.NoError(t, db.Put([]byte("ledger/t2/0001"), []byte("other-tenant")))

	var got []string
	err := db.Iterate([]byte("ledger/t1/"), func(key, value []byte) error {
		got = append(got, string(value))
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, got)
}

func TestMemDBPutBatch(t *testing.T) {
	db := NewMemDB()
	err := db.PutBatch(map[string][]byte{
		"a": []byte("1"),
		"b": []byte("2"),
	})
	require.NoError(t, err)
	va, err := db.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), va)
	vb, err := db.Get([]byte("b"))
	require.NoError(t, err)
	require.Equal(t, []byte("2"), vb)
}

func TestMemDBPutCopiesValue(t *testing.T) {
	db := NewMemDB()
	buf := []byte("original")
	require.NoError(t, db.Put([]byte("k"), buf))
	buf[0] = 'X'
	v, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("original"), v)
}
