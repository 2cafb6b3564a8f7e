// SPDX-License-Identifier: MIT

package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const body = "#EXTM3U\n#EXTINF:-1,A\nhttp://x/a\n"

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func TestHTTPFetcher_Direct(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(Options{UserAgent: "test-agent"})
	rc, err := f.Fetch(context.Background(), srv.URL+"/list.m3u")
	require.NoError(t, err)
	assert.Equal(t, body, readAll(t, rc))
	assert.Equal(t, "test-agent", gotUA)
}

func TestHTTPFetcher_Relay(t *testing.T) {
	source := "https://iptv-org.github.io/iptv/countries/bd.m3u?x=1&y=2"
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(Options{Relay: srv.URL + "/?"})
	assert.Equal(t, srv.URL+"/?"+url.QueryEscape(source), f.RequestURL(source))

	rc, err := f.Fetch(context.Background(), source)
	require.NoError(t, err)
	assert.Equal(t, body, readAll(t, rc))

	decoded, err := url.QueryUnescape(gotQuery)
	require.NoError(t, err)
	assert.Equal(t, source, decoded)
}

func TestHTTPFetcher_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(Options{}).Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrFetch)
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
}

func TestHTTPFetcher_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewHTTPFetcher(Options{}).Fetch(context.Background(), addr)
	require.ErrorIs(t, err, ErrFetch)
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Zero(t, fe.StatusCode)
}

func TestHTTPFetcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewHTTPFetcher(Options{Timeout: 50 * time.Millisecond}).Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrFetch)
}

func TestHTTPFetcher_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := NewHTTPFetcher(Options{}).Fetch(ctx, srv.URL)
	require.ErrorIs(t, err, ErrFetch)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPFetcher_BodyCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	t.Run("over limit fails", func(t *testing.T) {
		rc, err := NewHTTPFetcher(Options{MaxBodyBytes: 7}).Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
		defer rc.Close()

		got, err := io.ReadAll(rc)
		require.ErrorIs(t, err, ErrFetch)
		assert.ErrorIs(t, err, ErrBodyTooLarge)
		assert.Equal(t, "#EXTM3U", string(got))

		var fe *FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, srv.URL, fe.Source)
	})

	t.Run("exactly at limit succeeds", func(t *testing.T) {
		rc, err := NewHTTPFetcher(Options{MaxBodyBytes: int64(len(body))}).Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, body, readAll(t, rc))
	})
}
