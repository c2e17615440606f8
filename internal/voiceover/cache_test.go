package voiceover_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyreel/internal/voiceover"
)

func TestScriptHash(t *testing.T) {
	assert.Equal(t, voiceover.ScriptHash("Hello"), voiceover.ScriptHash("Hello"))
	assert.NotEqual(t, voiceover.ScriptHash("Hello"), voiceover.ScriptHash("Hello "))
	assert.Len(t, voiceover.ScriptHash(""), 64)
}

func TestAudioPath(t *testing.T) {
	path := voiceover.AudioPath(3, "Hello", "v1")
	assert.Contains(t, path, "3/")
	assert.Contains(t, path, voiceover.ScriptHash("Hello"))
	assert.Contains(t, path, "_v1.mp3")
	// Stable across calls: the path is part of the content address.
	assert.Equal(t, path, voiceover.AudioPath(3, "Hello", "v1"))
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("lookup misses before store", func(t *testing.T) {
		cache := voiceover.NewMemoryCache(nil)
		entry, err := cache.Lookup(ctx, 1, "Hello", "v1")
		require.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("store then lookup hits", func(t *testing.T) {
		cache := voiceover.NewMemoryCache(nil)
		stored, err := cache.Store(ctx, 1, "Hello", "v1", []byte("audio"))
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.False(t, stored.GeneratedAt.IsZero())

		entry, err := cache.Lookup(ctx, 1, "Hello", "v1")
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, stored.AudioPath, entry.AudioPath)
	})

	t.Run("key is content identity", func(t *testing.T) {
		cache := voiceover.NewMemoryCache(nil)
		_, err := cache.Store(ctx, 1, "Hello", "v1", []byte("audio"))
		require.NoError(t, err)

		for name, lookup := range map[string][3]interface{}{
			"different scene": {2, "Hello", "v1"},
			"edited script":   {1, "Hello!", "v1"},
			"other voice":     {1, "Hello", "v2"},
		} {
			entry, err := cache.Lookup(ctx, lookup[0].(int), lookup[1].(string), lookup[2].(string))
			require.NoError(t, err)
			assert.Nil(t, entry, "expected a miss for %s", name)
		}
	})

	t.Run("re-store overwrites", func(t *testing.T) {
		cache := voiceover.NewMemoryCache(nil)
		first, err := cache.Store(ctx, 1, "Hello", "v1", []byte("old"))
		require.NoError(t, err)
		second, err := cache.Store(ctx, 1, "Hello", "v1", []byte("new"))
		require.NoError(t, err)
		assert.Equal(t, first.AudioPath, second.AudioPath)

		entry, err := cache.Lookup(ctx, 1, "Hello", "v1")
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.False(t, entry.GeneratedAt.Before(first.GeneratedAt))
	})
}
