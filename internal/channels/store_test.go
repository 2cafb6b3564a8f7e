// SPDX-License-Identifier: MIT

package channels

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ManuGH/tvgrid/internal/favorites"
	"github.com/ManuGH/tvgrid/internal/playlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleChannels() []playlist.Channel {
	return []playlist.Channel{
		{Title: "Channel A", Category: "News", LogoURL: "http://x/l.png", StreamURL: "http://x/a.m3u8"},
		{Title: "Channel B", Category: playlist.DefaultCategory, LogoURL: playlist.PlaceholderLogo, StreamURL: "http://x/b.m3u8"},
		{Title: "Channel C", Category: "News", LogoURL: playlist.PlaceholderLogo, StreamURL: "http://x/c.m3u8"},
	}
}

func TestStore_LoadReplacesListAndCategories(t *testing.T) {
	s := NewStore(nil)
	assert.False(t, s.Loaded())

	rev := s.Load(sampleChannels())
	assert.Equal(t, uint64(1), rev)
	assert.True(t, s.Loaded())
	assert.Len(t, s.Channels(), 3)
	assert.Equal(t, []string{"News", "Others"}, s.Categories())

	rev = s.Load([]playlist.Channel{{Title: "Z", Category: "Sports", LogoURL: "l", StreamURL: "http://z/1"}})
	assert.Equal(t, uint64(2), rev)
	assert.Len(t, s.Channels(), 1)
	assert.Equal(t, []string{"Sports"}, s.Categories(), "stale categories must not survive a reload")

	s.Load(nil)
	assert.Empty(t, s.Channels())
	assert.Empty(t, s.Categories())
	assert.True(t, s.Loaded())
}

func TestStore_LoadCopiesInput(t *testing.T) {
	s := NewStore(nil)
	in := sampleChannels()
	s.Load(in)
	in[0].Title = "mutated"
	assert.Equal(t, "Channel A", s.Channels()[0].Title)
}

func TestStore_ToggleFavoriteIsInvolution(t *testing.T) {
	ctx := context.Background()
	s := NewStore(favorites.NewMemoryBackend())
	s.Load(sampleChannels())

	before := s.Favorites()

	on, err := s.ToggleFavorite(ctx, "http://x/a.m3u8")
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, s.IsFavorite("http://x/a.m3u8"))

	off, err := s.ToggleFavorite(ctx, "http://x/a.m3u8")
	require.NoError(t, err)
	assert.False(t, off)
	assert.False(t, s.IsFavorite("http://x/a.m3u8"))

	assert.Equal(t, before, s.Favorites())
}

func TestStore_FavoriteNotInPlaylist(t *testing.T) {
	s := NewStore(nil)
	s.Load(sampleChannels())

	on, err := s.ToggleFavorite(context.Background(), "http://elsewhere/x")
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, s.IsFavorite("http://elsewhere/x"))
}

func TestStore_FavoritesSurviveReload(t *testing.T) {
	s := NewStore(nil)
	s.Load(sampleChannels())
	_, err := s.ToggleFavorite(context.Background(), "http://x/a.m3u8")
	require.NoError(t, err)

	s.Load([]playlist.Channel{{Title: "Other", Category: "X", LogoURL: "l", StreamURL: "http://o/1"}})
	assert.True(t, s.IsFavorite("http://x/a.m3u8"))
	assert.Equal(t, []string{"http://x/a.m3u8"}, s.Favorites())
}

func TestStore_PersistsAndReloadsFavorites(t *testing.T) {
	ctx := context.Background()
	backend := favorites.NewMemoryBackend()

	s := NewStore(backend)
	_, err := s.ToggleFavorite(ctx, "http://x/b")
	require.NoError(t, err)
	_, err = s.ToggleFavorite(ctx, "http://x/a")
	require.NoError(t, err)

	data, found, err := backend.Read(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `["http://x/a","http://x/b"]`, string(data))

	restarted := NewStore(backend)
	require.NoError(t, restarted.LoadFavorites(ctx))
	assert.Equal(t, []string{"http://x/a", "http://x/b"}, restarted.Favorites())
}

func TestStore_LoadFavoritesDefaults(t *testing.T) {
	ctx := context.Background()

	t.Run("absent", func(t *testing.T) {
		s := NewStore(favorites.NewMemoryBackend())
		require.NoError(t, s.LoadFavorites(ctx))
		assert.Empty(t, s.Favorites())
	})

	t.Run("unparseable", func(t *testing.T) {
		backend := favorites.NewMemoryBackend()
		require.NoError(t, backend.Write(ctx, []byte("{oops")))
		s := NewStore(backend)
		require.NoError(t, s.LoadFavorites(ctx))
		assert.Empty(t, s.Favorites())
	})
}

func TestStore_PersistenceFailureIsNonFatal(t *testing.T) {
	backend := favorites.NewMemoryBackend()
	backend.FailWrites = errors.New("quota exceeded")
	s := NewStore(backend)

	on, err := s.ToggleFavorite(context.Background(), "http://x/a")
	require.Error(t, err)
	assert.True(t, on, "toggle result must reflect the in-memory state")
	assert.True(t, s.IsFavorite("http://x/a"))
	assert.ErrorIs(t, err, ErrPersistence)

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "memory", perr.Backend)
	assert.EqualError(t, perr.Err, "quota exceeded")
}

func TestStore_ReadFailureNeverOverwritesStoredFavorites(t *testing.T) {
	ctx := context.Background()
	backend := favorites.NewMemoryBackend()
	stored, err := favorites.Encode([]string{"http://a/1", "http://a/2", "http://a/3"})
	require.NoError(t, err)
	require.NoError(t, backend.Write(ctx, stored))

	backend.FailReads = errors.New("connection refused")
	s := NewStore(backend)
	require.Error(t, s.LoadFavorites(ctx))

	on, err := s.ToggleFavorite(ctx, "http://b/9")
	assert.True(t, on)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.True(t, s.IsFavorite("http://b/9"))

	data, found, err := favoritesRaw(backend)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{"http://a/1", "http://a/2", "http://a/3"}, data, "stored set must be left alone")

	// Once the backend answers again the stored set is merged and written back.
	backend.FailReads = nil
	on, err = s.ToggleFavorite(ctx, "http://a/2")
	require.NoError(t, err)
	assert.False(t, on)
	assert.Equal(t, []string{"http://a/1", "http://a/3", "http://b/9"}, s.Favorites())

	data, _, err = favoritesRaw(backend)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a/1", "http://a/3", "http://b/9"}, data)
}

func TestStore_ResyncKeepsRequestedMembership(t *testing.T) {
	ctx := context.Background()
	backend := favorites.NewMemoryBackend()
	stored, err := favorites.Encode([]string{"http://a/1"})
	require.NoError(t, err)
	require.NoError(t, backend.Write(ctx, stored))

	backend.FailReads = errors.New("timeout")
	s := NewStore(backend)
	require.Error(t, s.LoadFavorites(ctx))
	backend.FailReads = nil

	// The session does not know about http://a/1 yet, so the user asks to add it.
	on, err := s.ToggleFavorite(ctx, "http://a/1")
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, []string{"http://a/1"}, s.Favorites())
}

func favoritesRaw(b *favorites.MemoryBackend) ([]string, bool, error) {
	data, found, err := b.Read(context.Background())
	if err != nil || !found {
		return nil, found, err
	}
	urls, err := favorites.Decode(data)
	return urls, true, err
}

func TestStore_SnapshotIsStable(t *testing.T) {
	s := NewStore(nil)
	s.Load(sampleChannels())
	_, _ = s.ToggleFavorite(context.Background(), "http://x/a.m3u8")

	snap := s.Snapshot()
	s.Load(nil)
	_, _ = s.ToggleFavorite(context.Background(), "http://x/a.m3u8")

	assert.Len(t, snap.Channels(), 3)
	assert.True(t, snap.IsFavorite("http://x/a.m3u8"))
	assert.True(t, snap.Loaded())
	assert.Equal(t, uint64(1), snap.Revision())
	assert.Equal(t, []string{"News", "Others"}, snap.Categories())
}

func TestStore_ConcurrentToggles(t *testing.T) {
	backend := favorites.NewMemoryBackend()
	s := NewStore(backend)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.ToggleFavorite(context.Background(), "http://x/shared")
		}()
	}
	wg.Wait()

	// An even number of toggles leaves the URL unset, in memory and on disk.
	assert.False(t, s.IsFavorite("http://x/shared"))
	data, _, err := backend.Read(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}
