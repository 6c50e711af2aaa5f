package ffmpeg

import (
	"fmt"
	"strconv"

	"github.com/floostack/transcoder/ffmpeg"
)

// MediaInfo holds the subset of ffprobe output the reel pipeline
// persists alongside each artifact.
type MediaInfo struct {
	DurationSecs float64
	Width        int
	Height       int
	HasAudio     bool
}

// ProbeFile reads the media metadata using ffprobe, picking out the
// container duration and the dimensions of the first video stream.
func ProbeFile(path string, config *Config) (*MediaInfo, error) {
	cfg := ffmpeg.Config{FfmpegBinPath: config.FfmpegBinPath, FfprobeBinPath: config.FfprobeBinPath}
	transcoder := ffmpeg.New(&cfg).Input(path)
	metadata, err := transcoder.GetMetadata()
	if err != nil {
		return nil, fmt.Errorf("failed to extract file metadata information using ffprobe: %s", err.Error())
	}

	info := &MediaInfo{}
	if duration, err := strconv.ParseFloat(metadata.GetFormat().GetDuration(), 64); err == nil {
		info.DurationSecs = duration
	}

	for _, stream := range metadata.GetStreams() {
		switch stream.GetCodecType() {
		case "video":
			if info.Width == 0 {
				info.Width = stream.GetWidth()
				info.Height = stream.GetHeight()
			}
		case "audio":
			info.HasAudio = true
		}
	}

	return info, nil
}
