// SPDX-License-Identifier: EPL-2.0

package cli

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// ParseDuration reads the "Duration: HH:MM:SS.ss" entry of an ffmpeg log
// line. ok is false for other lines and for "N/A".
func ParseDuration(line string) (time.Duration, bool) {
	line = strings.TrimSpace(line)
	rest, found := strings.CutPrefix(line, "Duration:")
	if !found {
		return 0, false
	}
	stamp, _, _ := strings.Cut(strings.TrimSpace(rest), ",")
	return parseClock(stamp)
}

func parseClock(s string) (time.Duration, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, false
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	sec, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, false
	}

	d := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(sec*float64(time.Second))
	return d, d > 0
}

// progressTracker turns "-progress pipe:1" output into ratios. The duration
// comes from the log on stderr, so both streams feed it.
type progressTracker struct {
	mu       sync.Mutex
	duration time.Duration
	report   func(float64)
}

func (p *progressTracker) logLine(line string) {
	d, ok := ParseDuration(line)
	if !ok {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.duration == 0 {
		p.duration = d
	}
}

func (p *progressTracker) progressLine(line string) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch key {
	case "out_time_us", "out_time_ms":
		us, err := strconv.ParseInt(value, 10, 64)
		if err != nil || p.duration <= 0 {
			return
		}
		p.emit(float64(time.Duration(us)*time.Microsecond) / float64(p.duration))
	case "progress":
		if value == "end" {
			p.emit(1)
		}
	}
}

// emit clamps the ratio to [0, 1] and passes it on in the order ffmpeg
// reported it.
func (p *progressTracker) emit(ratio float64) {
	if p.report == nil {
		return
	}
	p.report(min(max(ratio, 0), 1))
}
