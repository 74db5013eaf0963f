package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, db, err := Open(context.Background(), "file:kvtest?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return st
}

func TestSQLiteStore_MissingKeyIsNil(t *testing.T) {
	st := setupStore(t)

	v, err := st.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestSQLiteStore_SetGetDelete(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "k", []byte(`{"a":1}`)))

	v, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(v))

	// overwrite
	require.NoError(t, st.Set(ctx, "k", []byte(`{"a":2}`)))
	v, err = st.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(v))

	require.NoError(t, st.Delete(ctx, "k"))
	v, err = st.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, v)

	// deleting twice is fine
	require.NoError(t, st.Delete(ctx, "k"))
}
