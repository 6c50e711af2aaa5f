package reel

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"time"
)

// ID derives the stable identifier for a reel from its source URL. The
// same URL always maps to the same reel, which is what allows repeated
// requests to be served from cache rather than re-downloading.
func ID(sourceUrl string) string {
	sum := sha256.Sum256([]byte(sourceUrl))
	return hex.EncodeToString(sum[:])[:12]
}

// Reel contains all the information persisted about a completed
// reel: where its artifacts live on disk, and the media metadata
// extracted from the transcoded video.
type Reel struct {
	ID           string    `db:"id" json:"id"`
	SourceURL    string    `db:"source_url" json:"source_url"`
	DurationSecs float64   `db:"duration_secs" json:"duration_secs"`
	Width        int       `db:"width" json:"width"`
	Height       int       `db:"height" json:"height"`
	HasAudio     bool      `db:"has_audio" json:"has_audio"`
	VideoPath    string    `db:"video_path" json:"-"`
	AudioPath    *string   `db:"audio_path" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

func VideoFileName(id string) string { return id + ".mp4" }
func AudioFileName(id string) string { return id + ".wav" }

func (config *Config) VideoPath(id string) string {
	return filepath.Join(config.VideoDir(), VideoFileName(id))
}

func (config *Config) AudioPath(id string) string {
	return filepath.Join(config.AudioDir(), AudioFileName(id))
}
