package system

import (
	"encoding/json"
	"fmt"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// MediaInfo is the part of an ffprobe report the recorder cares about.
type MediaInfo struct {
	Duration float64
	Video    bool
	Audio    bool
	Width    int
	Height   int
	Codec    string
}

type probeReport struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeMedia runs ffprobe on path.
func ProbeMedia(path string) (MediaInfo, error) {
	out, err := ffmpeg.Probe(path)
	if err != nil {
		return MediaInfo{}, fmt.Errorf("probe %s: %w", path, err)
	}
	return parseProbe([]byte(out))
}

func parseProbe(data []byte) (MediaInfo, error) {
	var r probeReport
	if err := json.Unmarshal(data, &r); err != nil {
		return MediaInfo{}, fmt.Errorf("decode probe report: %w", err)
	}

	var info MediaInfo
	if r.Format.Duration != "" {
		d, err := strconv.ParseFloat(r.Format.Duration, 64)
		if err != nil {
			return MediaInfo{}, fmt.Errorf("bad duration %q: %w", r.Format.Duration, err)
		}
		info.Duration = d
	}
	for _, s := range r.Streams {
		switch s.CodecType {
		case "video":
			if !info.Video {
				info.Video = true
				info.Width, info.Height, info.Codec = s.Width, s.Height, s.CodecName
			}
		case "audio":
			info.Audio = true
		}
	}
	return info, nil
}

// GetAudioDuration returns the length of an audio file in seconds.
func GetAudioDuration(path string) (float64, error) {
	info, err := ProbeMedia(path)
	if err != nil {
		return 0, err
	}
	if !info.Audio {
		return 0, fmt.Errorf("%s has no audio stream", path)
	}
	if info.Duration <= 0 {
		return 0, fmt.Errorf("%s reports no duration", path)
	}
	return info.Duration, nil
}
