package reel

import "fmt"

// When the pipeline encounters an error while working on a job, a
// 'trouble' is recorded against it. The trouble captures which stage
// failed and why; it is returned to any callers waiting on the job, and
// the job itself is discarded so a later request for the same URL can
// retry from scratch.
type Trouble interface {
	error
	Type() TroubleType
	ReelID() string
}

type TroubleType int

const (
	DownloadFailure TroubleType = iota
	TranscodeFailure
	ProbeFailure
	DatabaseFailure
)

func (troubleType TroubleType) String() string {
	switch troubleType {
	case DownloadFailure:
		return "DOWNLOAD_FAILURE"
	case TranscodeFailure:
		return "TRANSCODE_FAILURE"
	case ProbeFailure:
		return "PROBE_FAILURE"
	case DatabaseFailure:
		return "DATABASE_FAILURE"
	}

	return "UNKNOWN"
}

type jobTrouble struct {
	message     string
	troubleType TroubleType
	reelID      string
}

func NewTrouble(troubleType TroubleType, reelID string, cause error) Trouble {
	return &jobTrouble{
		message:     fmt.Sprintf("%s while processing reel %s: %s", troubleType, reelID, cause.Error()),
		troubleType: troubleType,
		reelID:      reelID,
	}
}

func (trouble *jobTrouble) Error() string     { return trouble.message }
func (trouble *jobTrouble) Type() TroubleType { return trouble.troubleType }
func (trouble *jobTrouble) ReelID() string    { return trouble.reelID }
