package ffmpeg

import (
	"github.com/floostack/transcoder"
	"github.com/floostack/transcoder/ffmpeg"
)

// ReelVideoOptions returns the ffmpeg options which produce the canonical
// reel video rendition: muted, capped at 720px wide (height preserved to an
// even value), 20fps, yuv420p, with the moov atom relocated for streaming.
func ReelVideoOptions() transcoder.Options {
	skipAudio := true
	videoFilter := "scale=720:-2"
	frameRate := 20
	pixFmt := "yuv420p"
	movFlags := "+faststart"
	outputFormat := "mp4"
	overwrite := true

	return &ffmpeg.Options{
		SkipAudio:    &skipAudio,
		VideoFilter:  &videoFilter,
		FrameRate:    &frameRate,
		PixFmt:       &pixFmt,
		MovFlags:     &movFlags,
		OutputFormat: &outputFormat,
		Overwrite:    &overwrite,
	}
}

// ReelAudioOptions returns the ffmpeg options used to extract the source
// audio track as uncompressed 44.1kHz stereo WAV.
func ReelAudioOptions() transcoder.Options {
	skipVideo := true
	audioCodec := "pcm_s16le"
	audioRate := 44100
	audioChannels := 2
	outputFormat := "wav"
	overwrite := true

	return &ffmpeg.Options{
		SkipVideo:     &skipVideo,
		AudioCodec:    &audioCodec,
		AudioRate:     &audioRate,
		AudioChannels: &audioChannels,
		OutputFormat:  &outputFormat,
		Overwrite:     &overwrite,
	}
}
