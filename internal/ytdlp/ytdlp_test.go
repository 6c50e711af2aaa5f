package ytdlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ProgressPattern_ExtractsPercentages(t *testing.T) {
	tests := []struct {
		summary  string
		line     string
		expected string
	}{
		{"integer percentage", "[download]  42% of 12.34MiB at 1.23MiB/s ETA 00:05", "42"},
		{"fractional percentage", "[download]  99.8% of 12.34MiB at 1.23MiB/s ETA 00:01", "99.8"},
		{"completed download", "[download] 100% of 12.34MiB in 00:10", "100"},
	}

	for _, test := range tests {
		t.Run(test.summary, func(t *testing.T) {
			match := progressPattern.FindStringSubmatch(test.line)
			assert.NotNil(t, match)
			assert.Equal(t, test.expected, match[1])
		})
	}
}

func Test_ProgressPattern_IgnoresNonProgressLines(t *testing.T) {
	lines := []string{
		"[youtube] dQw4w9WgXcQ: Downloading webpage",
		"[info] dQw4w9WgXcQ: Downloading 1 format(s): 22",
		"[download] Destination: /tmp/abc123.mp4",
	}

	for _, line := range lines {
		assert.Nil(t, progressPattern.FindStringSubmatch(line), "line %q should not match", line)
	}
}

func Test_TailOf_KeepsFinalLines(t *testing.T) {
	assert.Equal(t, "only line", tailOf("only line\n"))
	assert.Equal(t, "c | d | e", tailOf("a\nb\nc\nd\ne"))
}
