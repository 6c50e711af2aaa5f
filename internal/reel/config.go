package reel

import (
	"fmt"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

const reelUserDirSuffix = "reeld"

// Config is the subset of the configuration that concerns the reel
// pipeline: where artifacts are stored, where the external tools live,
// and how many downloads may run at once.
type Config struct {
	StorageDirPath         string `yaml:"storage_dir" env:"STORAGE_DIR"`
	TmpDirPath             string `yaml:"tmp_dir" env:"TMP_DIR"`
	YtDlpBinaryPath        string `yaml:"ytdlp_binary" env:"YTDLP_BINARY_PATH" env-default:"yt-dlp"`
	FfmpegBinaryPath       string `yaml:"ffmpeg_binary" env:"FFMPEG_BINARY_PATH" env-default:"ffmpeg"`
	FfprobeBinaryPath      string `yaml:"ffprobe_binary" env:"FFPROBE_BINARY_PATH" env-default:"ffprobe"`
	DownloadParallelism    int    `yaml:"download_parallelism" env:"DOWNLOAD_PARALLELISM" env-default:"2"`
	DownloadTimeoutSeconds int    `yaml:"download_timeout_seconds" env:"DOWNLOAD_TIMEOUT_SECONDS" env-default:"600"`
}

// StorageDir returns the base directory used for storing completed reel
// artifacts. It will first look in the config for a value, but if none is
// found a default under the users home directory is derived. If the default
// cannot be derived due to an error, a panic will occur.
func (config *Config) StorageDir() string {
	if config.StorageDirPath != "" {
		return config.StorageDirPath
	}

	dir, err := homedir.Dir()
	if err != nil {
		panic(fmt.Sprintf("FAILURE to derive user home dir for reel storage: %s", err))
	}

	return filepath.Join(dir, reelUserDirSuffix, "storage")
}

// TmpDir returns the directory used for in-flight downloads. Raw downloads
// are kept here until the pipeline has finished with them.
func (config *Config) TmpDir() string {
	if config.TmpDirPath != "" {
		return config.TmpDirPath
	}

	dir, err := homedir.Dir()
	if err != nil {
		panic(fmt.Sprintf("FAILURE to derive user home dir for reel tmp storage: %s", err))
	}

	return filepath.Join(dir, reelUserDirSuffix, "tmp")
}

func (config *Config) VideoDir() string { return filepath.Join(config.StorageDir(), "videos") }
func (config *Config) AudioDir() string { return filepath.Join(config.StorageDir(), "audio") }
