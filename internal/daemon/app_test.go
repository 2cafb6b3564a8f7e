// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/tvgrid/internal/browser"
	"github.com/ManuGH/tvgrid/internal/channels"
	"github.com/ManuGH/tvgrid/internal/config"
	"github.com/ManuGH/tvgrid/internal/favorites"
	"github.com/ManuGH/tvgrid/internal/fetch"
	"github.com/ManuGH/tvgrid/internal/health"
	"github.com/ManuGH/tvgrid/internal/playback"
)

type fakeServer struct {
	once    sync.Once
	stopped chan struct{}
	err     error
}

func newFakeServer() *fakeServer { return &fakeServer{stopped: make(chan struct{})} }

func (s *fakeServer) ListenAndServe() error {
	if s.err != nil {
		return s.err
	}
	<-s.stopped
	return nil
}

func (s *fakeServer) Shutdown(context.Context) error {
	s.once.Do(func() { close(s.stopped) })
	return nil
}

type mapFetcher map[string]string

func (m mapFetcher) Fetch(_ context.Context, source string) (io.ReadCloser, error) {
	body, ok := m[source]
	if !ok {
		return nil, &fetch.FetchError{Source: source, StatusCode: 404}
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

const (
	srcOne = "https://one.example/list.m3u"
	srcTwo = "https://two.example/list.m3u"
)

func newBrowser(t *testing.T, sources ...string) *browser.App {
	t.Helper()
	store := channels.NewStore(favorites.NewMemoryBackend())
	f := mapFetcher{
		srcOne: "#EXTM3U\n#EXTINF:-1,One\nhttps://one.example/1.m3u8\n",
		srcTwo: "#EXTM3U\n#EXTINF:-1,Two A\nhttps://two.example/a.m3u8\n#EXTINF:-1,Two B\nhttps://two.example/b.m3u8\n",
	}
	return browser.New(store, f, playback.NewPlayer(), sources)
}

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestRun_RequiresServerAndBrowser(t *testing.T) {
	assert.ErrorIs(t, NewApp(zerolog.Nop(), nil, nil, nil).Run(context.Background()), ErrMissingServer)
	assert.ErrorIs(t, NewApp(zerolog.Nop(), newFakeServer(), nil, nil).Run(context.Background()), ErrMissingBrowser)
}

func TestRun_InitialLoadAndShutdown(t *testing.T) {
	b := newBrowser(t, srcOne)
	srv := newFakeServer()
	app := NewApp(zerolog.Nop(), srv, b, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool {
		return b.State().Status == browser.StatusReady
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, b.State().Channels)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_ServerFailureStopsApp(t *testing.T) {
	srv := newFakeServer()
	srv.err = errors.New("address already in use")
	app := NewApp(zerolog.Nop(), srv, newBrowser(t, srcOne), nil)

	err := app.Run(context.Background())
	assert.EqualError(t, err, "address already in use")
}

func TestRun_ConfigReloadSwitchesSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "dataDir: "+dir+"\nsources: ["+srcOne+"]\n")
	loader := config.NewLoader(path, "test")
	cfg, err := loader.Load()
	require.NoError(t, err)
	holder := config.NewConfigHolder(cfg, loader)

	b := newBrowser(t, cfg.Sources...)
	app := NewApp(zerolog.Nop(), newFakeServer(), b, holder)
	app.reloadSignal = nil

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.Eventually(t, func() bool { return b.State().Status == browser.StatusReady }, 2*time.Second, 10*time.Millisecond)

	writeConfig(t, path, "dataDir: "+dir+"\nsources: ["+srcTwo+"]\n")
	require.NoError(t, holder.Reload(ctx))

	require.Eventually(t, func() bool {
		st := b.State()
		return st.Source == srcTwo && st.Status == browser.StatusReady
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, b.State().Channels)
}

func TestApplyConfig_UnchangedSourceDoesNotReload(t *testing.T) {
	b := newBrowser(t, srcOne)
	app := NewApp(zerolog.Nop(), newFakeServer(), b, nil)

	app.applyConfig(context.Background(), config.AppConfig{Sources: []string{srcOne, srcTwo}})
	st := b.State()
	assert.Equal(t, browser.StatusIdle, st.Status, "appending a source keeps the active one")
	assert.Equal(t, []string{srcOne, srcTwo}, b.Sources())
}

func TestRegisterHealthChecks(t *testing.T) {
	b := newBrowser(t, srcOne, "https://missing.example/x.m3u")
	hm := health.NewManager("test")
	RegisterHealthChecks(hm, b, favorites.NewMemoryBackend())

	ready := hm.Ready(context.Background())
	assert.False(t, ready.Ready, "not ready before the first load")
	assert.Equal(t, "playlist: no playlist loaded yet", ready.Reason)
	assert.Equal(t, health.StatusHealthy, ready.Checks["favorites_backend"].Status)

	require.NoError(t, b.LoadSource(context.Background(), 0))
	ready = hm.Ready(context.Background())
	assert.True(t, ready.Ready)

	require.Error(t, b.LoadSource(context.Background(), 1))
	ready = hm.Ready(context.Background())
	assert.True(t, ready.Ready, "failed reload still serves the previous list")
	assert.Equal(t, health.StatusDegraded, ready.Status)
	assert.Equal(t, "playlist: last reload failed, serving previous playlist", ready.Reason)
}
