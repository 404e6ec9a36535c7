package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// FFProbe reads durations with the ffprobe binary.
type FFProbe struct {
	path string
}

// NewFFProbe locates ffprobe. It returns an error when the binary is not
// installed; callers may run without a prober.
func NewFFProbe(bin string) (*FFProbe, error) {
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found: %w", err)
	}
	return &FFProbe{path: path}, nil
}

// Duration returns the container duration of the file in seconds.
func (p *FFProbe) Duration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, p.path,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	return ParseProbeDuration(output)
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Duration  string `json:"duration"`
	} `json:"streams"`
}

// ParseProbeDuration extracts the duration from ffprobe JSON output. The
// container duration wins; the first video stream's duration is used when
// the container carries none.
func ParseProbeDuration(output []byte) (float64, error) {
	var parsed probeOutput
	if err := json.Unmarshal(output, &parsed); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}

	if d, ok := parseSeconds(parsed.Format.Duration); ok {
		return d, nil
	}
	for _, s := range parsed.Streams {
		if s.CodecType != "video" {
			continue
		}
		if d, ok := parseSeconds(s.Duration); ok {
			return d, nil
		}
	}
	return 0, errors.New("no duration in ffprobe output")
}

func parseSeconds(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return 0, false
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil || d < 0 {
		return 0, false
	}
	return d, true
}
