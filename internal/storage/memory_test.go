package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtyard/internal/storage"
	"courtyard/pkg/platform/sentinel"
)

func TestMemory_GetMissingKey(t *testing.T) {
	kv := storage.NewMemory()

	_, err := kv.Get(t.Context(), storage.KeyAccounts)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemory_SetGetRoundTrip(t *testing.T) {
	kv := storage.NewMemory()

	require.NoError(t, kv.Set(t.Context(), storage.KeyAccounts, []byte("value")))

	got, err := kv.Get(t.Context(), storage.KeyAccounts)
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	kv := storage.NewMemory()

	require.NoError(t, kv.Set(t.Context(), storage.KeySession, []byte("abc")))

	first, err := kv.Get(t.Context(), storage.KeySession)
	require.NoError(t, err)
	first[0] = 'x'

	second, err := kv.Get(t.Context(), storage.KeySession)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), second)
}

func TestMemory_SetStoresCopy(t *testing.T) {
	kv := storage.NewMemory()

	value := []byte("abc")
	require.NoError(t, kv.Set(t.Context(), storage.KeySession, value))
	value[0] = 'x'

	got, err := kv.Get(t.Context(), storage.KeySession)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}

func TestMemory_SetMulti(t *testing.T) {
	kv := storage.NewMemory()

	err := kv.SetMulti(t.Context(), map[string][]byte{
		storage.KeyAccounts:    []byte("a"),
		storage.KeyCommunities: []byte("c"),
	})
	require.NoError(t, err)

	got, err := kv.Get(t.Context(), storage.KeyAccounts)
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), got)

	got, err = kv.Get(t.Context(), storage.KeyCommunities)
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), got)
}

func TestMemory_Delete(t *testing.T) {
	kv := storage.NewMemory()

	require.NoError(t, kv.Set(t.Context(), storage.KeyMessages, []byte("m")))
	require.NoError(t, kv.Delete(t.Context(), storage.KeyMessages))

	_, err := kv.Get(t.Context(), storage.KeyMessages)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	assert.NoError(t, kv.Delete(t.Context(), storage.KeyMessages))
}
