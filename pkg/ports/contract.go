package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/stagehand/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	chatID := time.Now().UnixNano() % 1_000_000_000

	t.Run("Save and Load", func(t *testing.T) {
		s := domain.NewSession()
		s.ActiveSceneID = domain.Ptr("counter")
		s.LastMessageID = domain.Ptr(int32(10))
		s.InputPromptMessageID = domain.Ptr(int32(11))
		s.ReplyToLastOnce = true
		s.SetSceneHint(10, `{"scene_id":"counter","scene_version":1}`)

		require.NoError(t, store.Save(ctx, chatID, s), "Save should not return error")

		loaded, err := store.Load(ctx, chatID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "counter", *loaded.ActiveSceneID)
		assert.Equal(t, int32(10), *loaded.LastMessageID)
		assert.Equal(t, int32(11), *loaded.InputPromptMessageID)
		assert.True(t, loaded.ReplyToLastOnce)
		assert.Equal(t, s.MessageScenes, loaded.MessageScenes)
	})

	t.Run("Save Replaces Whole Record", func(t *testing.T) {
		first := domain.NewSession()
		first.LastMessageID = domain.Ptr(int32(1))
		require.NoError(t, store.Save(ctx, chatID, first))

		second := domain.NewSession()
		second.ActiveSceneID = domain.Ptr("other")
		require.NoError(t, store.Save(ctx, chatID, second))

		loaded, err := store.Load(ctx, chatID)
		require.NoError(t, err)
		assert.Nil(t, loaded.LastMessageID, "later write wins, no partial merge")
		assert.Equal(t, "other", *loaded.ActiveSceneID)
	})

	t.Run("Caller Mutation Is Isolated", func(t *testing.T) {
		s := domain.NewSession()
		s.SetSceneHint(5, "x")
		require.NoError(t, store.Save(ctx, chatID, s))
		s.SetSceneHint(6, "y")

		loaded, err := store.Load(ctx, chatID)
		require.NoError(t, err)
		_, ok := loaded.MessageScenes[6]
		assert.False(t, ok)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, chatID+1)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, chatID, domain.NewSession()))
		require.NoError(t, store.Delete(ctx, chatID), "Delete should not return error")

		_, err := store.Load(ctx, chatID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})
}

// RunMetadataStoreContract runs a suite of tests to verify that a MetadataStore
// implementation adheres to the defined interface contract.
func RunMetadataStoreContract(t *testing.T, store MetadataStore) {
	ctx := context.Background()
	chatID := time.Now().UnixNano() % 1_000_000_000

	fresh := func(sceneID string) domain.MessageMetadata {
		snap := domain.NewSnapshot(sceneID, 3, []byte(`{"count":1}`))
		return domain.MetadataFromSnapshot(snap, time.Now(), time.Hour)
	}

	t.Run("Put and Get", func(t *testing.T) {
		meta := fresh("counter")
		meta.StateRef = domain.Ptr("ref-1")
		require.NoError(t, store.Put(ctx, chatID, 100, meta))

		loaded, err := store.Get(ctx, chatID, 100)
		require.NoError(t, err)
		assert.Equal(t, "counter", loaded.SceneID)
		assert.Equal(t, uint16(3), loaded.SceneVersion)
		require.NotNil(t, loaded.StateJSON)
		assert.Equal(t, `{"count":1}`, *loaded.StateJSON)
		require.NotNil(t, loaded.StateChecksum)
		assert.Equal(t, *meta.StateChecksum, *loaded.StateChecksum)
		require.NotNil(t, loaded.StateRef)
		assert.Equal(t, "ref-1", *loaded.StateRef)
		assert.Equal(t, meta.CreatedAt, loaded.CreatedAt)
		assert.Equal(t, meta.TTLSecs, loaded.TTLSecs)
	})

	t.Run("Keyed By Chat And Message", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, chatID, 200, fresh("a")))
		require.NoError(t, store.Put(ctx, chatID+1, 200, fresh("b")))

		a, err := store.Get(ctx, chatID, 200)
		require.NoError(t, err)
		b, err := store.Get(ctx, chatID+1, 200)
		require.NoError(t, err)
		assert.Equal(t, "a", a.SceneID)
		assert.Equal(t, "b", b.SceneID)

		_, err = store.Get(ctx, chatID, 201)
		assert.ErrorIs(t, err, domain.ErrMetadataNotFound)
	})

	t.Run("Put Overwrites", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, chatID, 300, fresh("first")))
		require.NoError(t, store.Put(ctx, chatID, 300, fresh("second")))

		loaded, err := store.Get(ctx, chatID, 300)
		require.NoError(t, err)
		assert.Equal(t, "second", loaded.SceneID)
	})

	t.Run("Expired Record Is Absent", func(t *testing.T) {
		meta := fresh("old")
		meta.CreatedAt = time.Now().Add(-2 * time.Hour).Unix()
		meta.TTLSecs = 60
		require.NoError(t, store.Put(ctx, chatID, 400, meta))

		_, err := store.Get(ctx, chatID, 400)
		assert.ErrorIs(t, err, domain.ErrMetadataNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, chatID, 500, fresh("gone")))
		require.NoError(t, store.Delete(ctx, chatID, 500))

		_, err := store.Get(ctx, chatID, 500)
		assert.ErrorIs(t, err, domain.ErrMetadataNotFound)
	})
}
