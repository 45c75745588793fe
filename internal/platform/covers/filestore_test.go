package covers

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	id := uuid.NewString()

	require.NoError(t, store.Save(id, strings.NewReader("jpeg bytes")))
	assert.True(t, store.Exists(id))

	require.NoError(t, store.Delete(id))
	assert.False(t, store.Exists(id))

	// deleting again is fine
	assert.NoError(t, store.Delete(id))
}

func TestFileStore_RejectsPathLikeIDs(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	assert.ErrorIs(t, store.Delete("../etc/passwd"), ErrInvalidID)
	assert.ErrorIs(t, store.Save("x", strings.NewReader("")), ErrInvalidID)
}
