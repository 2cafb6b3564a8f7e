// SPDX-License-Identifier: MIT

package playback

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayer_Dispatch(t *testing.T) {
	p := NewPlayer()
	assert.Empty(t, p.NowPlaying())

	setup, err := p.Dispatch(context.Background(), Request{StreamURL: " http://x/a.m3u8 "})
	require.NoError(t, err)
	assert.Equal(t, Setup{
		File:                 "http://x/a.m3u8",
		Type:                 TypeHLS,
		Width:                "100%",
		Height:               "100%",
		Autostart:            true,
		PlaybackRateControls: true,
		AllowFullscreen:      true,
	}, setup)
	assert.Equal(t, "http://x/a.m3u8", p.NowPlaying())

	_, err = p.Dispatch(context.Background(), Request{StreamURL: "https://x/b", Type: TypeHLS})
	require.NoError(t, err)
	assert.Equal(t, "https://x/b", p.NowPlaying(), "new dispatch replaces the previous one")
}

func TestPlayer_RejectsInvalidStream(t *testing.T) {
	p := NewPlayer()
	for _, u := range []string{"", "javascript:alert(1)", "rtmp://h/live", "http://"} {
		_, err := p.Dispatch(context.Background(), Request{StreamURL: u})
		require.ErrorIs(t, err, ErrInvalidStream, u)
	}
	assert.Empty(t, p.NowPlaying())
}
