package transcode

import (
	"strconv"
	"strings"
	"time"
)

// ProgressUpdate captures one ffmpeg progress block.
type ProgressUpdate struct {
	Percent float64
	OutTime time.Duration
	Speed   float64
	FPS     float64
}

// progressSnapshot accumulates key=value lines from ffmpeg's -progress
// output. Blocks are terminated by a progress=continue|end line.
type progressSnapshot struct {
	outTime time.Duration
	fps     float64
	speed   float64
}

func (p *progressSnapshot) apply(line string, duration float64) (ProgressUpdate, bool) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return ProgressUpdate{}, false
	}
	value = strings.TrimSpace(value)

	switch key {
	case "out_time_us", "out_time_ms":
		// Both keys report microseconds.
		if us, err := strconv.ParseInt(value, 10, 64); err == nil && us >= 0 {
			p.outTime = time.Duration(us) * time.Microsecond
		}
	case "fps":
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			p.fps = parsed
		}
	case "speed":
		if parsed, err := strconv.ParseFloat(strings.TrimSuffix(value, "x"), 64); err == nil {
			p.speed = parsed
		}
	case "progress":
		update := ProgressUpdate{OutTime: p.outTime, FPS: p.fps, Speed: p.speed}
		switch {
		case value == "end":
			update.Percent = 100
		case duration > 0:
			percent := p.outTime.Seconds() / duration * 100
			if percent < 0 {
				percent = 0
			}
			if percent > 100 {
				percent = 100
			}
			update.Percent = percent
		}
		return update, true
	}
	return ProgressUpdate{}, false
}
