package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runEventStoreSuite exercises the EventStore contract against a backend.
// newStore must return an empty store.
func runEventStoreSuite(t *testing.T, newStore func(t *testing.T) EventStore) {
	ctx := context.Background()

	t.Run("put then get", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, "demo:1", []byte(`{"a":1}`), 0))

		value, err := s.Get(ctx, "demo:1")
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, string(value))
	})

	t.Run("get missing key", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "demo:missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("put overwrites", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, "demo:1", []byte("first"), 0))
		require.NoError(t, s.Put(ctx, "demo:1", []byte("second"), 0))

		value, err := s.Get(ctx, "demo:1")
		require.NoError(t, err)
		assert.Equal(t, "second", string(value))

		res, err := s.List(ctx, ListOptions{Prefix: "demo:", Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, []string{"demo:1"}, res.Keys)
	})

	t.Run("delete present and absent keys", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, "demo:1", []byte("x"), 0))

		require.NoError(t, s.Delete(ctx, "demo:1"))
		require.NoError(t, s.Delete(ctx, "demo:1"))
		require.NoError(t, s.Delete(ctx, "demo:never"))

		_, err := s.Get(ctx, "demo:1")
		assert.ErrorIs(t, err, ErrNotFound)

		res, err := s.List(ctx, ListOptions{Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, res.Keys)
		assert.True(t, res.Complete)
	})

	t.Run("list filters by prefix in lexicographic order", func(t *testing.T) {
		s := newStore(t)
		for _, key := range []string{"demo:3", "other:1", "demo:1", "demo2:1", "dem:1", "demo:2"} {
			require.NoError(t, s.Put(ctx, key, []byte("x"), 0))
		}

		res, err := s.List(ctx, ListOptions{Prefix: "demo:", Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, []string{"demo:1", "demo:2", "demo:3"}, res.Keys)
		assert.True(t, res.Complete)
		assert.Empty(t, res.Cursor)

		all, err := s.List(ctx, ListOptions{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, []string{"dem:1", "demo2:1", "demo:1", "demo:2", "demo:3", "other:1"}, all.Keys)
	})

	t.Run("list paginates with cursors", func(t *testing.T) {
		s := newStore(t)
		for _, key := range []string{"demo:a", "demo:b", "demo:c", "demo:d", "demo:e", "zzz:a"} {
			require.NoError(t, s.Put(ctx, key, []byte("x"), 0))
		}

		var pages [][]string
		cursor := ""
		for {
			res, err := s.List(ctx, ListOptions{Prefix: "demo:", Cursor: cursor, Limit: 2})
			require.NoError(t, err)
			pages = append(pages, res.Keys)
			assert.Equal(t, res.Complete, res.Cursor == "", "cursor must be absent iff complete")
			if res.Complete {
				break
			}
			cursor = res.Cursor
			require.Less(t, len(pages), 10, "pagination did not terminate")
		}

		assert.Equal(t, [][]string{{"demo:a", "demo:b"}, {"demo:c", "demo:d"}, {"demo:e"}}, pages)
	})

	t.Run("exactly limit keys is complete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, "demo:a", []byte("x"), 0))
		require.NoError(t, s.Put(ctx, "demo:b", []byte("x"), 0))

		res, err := s.List(ctx, ListOptions{Prefix: "demo:", Limit: 2})
		require.NoError(t, err)
		assert.Len(t, res.Keys, 2)
		assert.True(t, res.Complete)
		assert.Empty(t, res.Cursor)
	})

	t.Run("limit is clamped", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, "demo:a", []byte("x"), 0))
		require.NoError(t, s.Put(ctx, "demo:b", []byte("x"), 0))

		res, err := s.List(ctx, ListOptions{Prefix: "demo:", Limit: 0})
		require.NoError(t, err)
		assert.Equal(t, []string{"demo:a"}, res.Keys)
		assert.False(t, res.Complete)
	})

	t.Run("invalid cursors are rejected", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, "demo:a", []byte("x"), 0))

		_, err := s.List(ctx, ListOptions{Prefix: "demo:", Cursor: "!!not-base64!!", Limit: 1})
		assert.ErrorIs(t, err, ErrInvalidCursor)

		_, err = s.List(ctx, ListOptions{Prefix: "demo:", Cursor: EncodeCursor("other:a"), Limit: 1})
		assert.ErrorIs(t, err, ErrInvalidCursor)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, newStore(t).Ping(ctx))
	})
}
