package ffmpeg

import (
	"errors"
	"testing"

	"github.com/floostack/transcoder/ffmpeg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ReelVideoOptions_ProducesExpectedFlags(t *testing.T) {
	opts, ok := ReelVideoOptions().(*ffmpeg.Options)
	require.True(t, ok)

	require.NotNil(t, opts.SkipAudio)
	assert.True(t, *opts.SkipAudio)
	require.NotNil(t, opts.VideoFilter)
	assert.Equal(t, "scale=720:-2", *opts.VideoFilter)
	require.NotNil(t, opts.FrameRate)
	assert.Equal(t, 20, *opts.FrameRate)
	require.NotNil(t, opts.PixFmt)
	assert.Equal(t, "yuv420p", *opts.PixFmt)
	require.NotNil(t, opts.MovFlags)
	assert.Equal(t, "+faststart", *opts.MovFlags)
	require.NotNil(t, opts.OutputFormat)
	assert.Equal(t, "mp4", *opts.OutputFormat)
}

func Test_ReelAudioOptions_ProducesExpectedFlags(t *testing.T) {
	opts, ok := ReelAudioOptions().(*ffmpeg.Options)
	require.True(t, ok)

	require.NotNil(t, opts.SkipVideo)
	assert.True(t, *opts.SkipVideo)
	require.NotNil(t, opts.AudioCodec)
	assert.Equal(t, "pcm_s16le", *opts.AudioCodec)
	require.NotNil(t, opts.AudioRate)
	assert.Equal(t, 44100, *opts.AudioRate)
	require.NotNil(t, opts.AudioChannels)
	assert.Equal(t, 2, *opts.AudioChannels)
	require.NotNil(t, opts.OutputFormat)
	assert.Equal(t, "wav", *opts.OutputFormat)
}

func Test_ParseFfmpegError_ExtractsEmbeddedMessage(t *testing.T) {
	raw := errors.New(`ffmpeg version n6.0, built with gcc ... message: {"error": {"code": 1, "string": "no such file or directory"}}`)
	parsed := parseFfmpegError(raw)
	assert.EqualError(t, parsed, "no such file or directory")
}

func Test_ParseFfmpegError_PassesThroughUnstructuredErrors(t *testing.T) {
	raw := errors.New("exit status 1")
	assert.Same(t, raw, parseFfmpegError(raw))
}
