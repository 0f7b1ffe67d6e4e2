package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tcolgate/mp3"
)

var (
	durationRe = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+)\.(\d+)`)
	progressRe = regexp.MustCompile(`time=(\d+):(\d+):(\d+)\.(\d+)`)
)

// durationProber measures the total length of a source file. MP3 files are
// measured by summing frame durations, which stays exact for VBR encodes;
// everything else goes through FFmpeg's header report.
type durationProber struct {
	ffmpegPath string
	cmd        commandRunner
	open       fileOpener
}

func (p durationProber) probe(ctx context.Context, audioPath string) (time.Duration, error) {
	if strings.EqualFold(filepath.Ext(audioPath), ".mp3") && p.open != nil {
		if d, err := p.mp3Duration(audioPath); err == nil && d > 0 {
			return d, nil
		}
	}
	return p.ffmpegDuration(ctx, audioPath)
}

// mp3Duration decodes every frame header and sums the frame durations.
func (p durationProber) mp3Duration(audioPath string) (time.Duration, error) {
	f, err := p.open.Open(audioPath)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	d := mp3.NewDecoder(f)
	var (
		frame   mp3.Frame
		skipped int
		total   time.Duration
	)
	for {
		if err := d.Decode(&frame, &skipped); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, err
		}
		total += frame.Duration()
	}
	return total, nil
}

// ffmpegDuration runs "ffmpeg -i src -f null -" and parses the report.
func (p durationProber) ffmpegDuration(ctx context.Context, audioPath string) (time.Duration, error) {
	args := []string{
		"-i", audioPath,
		"-f", "null", "-",
	}
	output, err := p.cmd.CombinedOutput(ctx, p.ffmpegPath, args)
	if err != nil && len(output) == 0 {
		// FFmpeg exits non-zero for info-only runs; only a silent failure is fatal.
		return 0, err
	}

	return parseDurationFromFFmpegOutput(string(output))
}

// parseDurationFromFFmpegOutput extracts duration from FFmpeg stderr.
// Looks for "Duration: HH:MM:SS.ms", then the last "time=HH:MM:SS.ms".
func parseDurationFromFFmpegOutput(output string) (time.Duration, error) {
	if m := durationRe.FindStringSubmatch(output); m != nil {
		return parseTimeComponents(m[1], m[2], m[3], m[4])
	}

	if all := progressRe.FindAllStringSubmatch(output, -1); len(all) > 0 {
		m := all[len(all)-1]
		return parseTimeComponents(m[1], m[2], m[3], m[4])
	}

	return 0, fmt.Errorf("could not parse duration from ffmpeg output")
}

// parseTimeComponents converts HH:MM:SS.frac strings to a Duration.
// The fractional part may have any number of digits.
func parseTimeComponents(hours, minutes, seconds, fractional string) (time.Duration, error) {
	h, _ := strconv.Atoi(hours)
	m, _ := strconv.Atoi(minutes)
	s, _ := strconv.Atoi(seconds)

	// Pad or truncate to exactly three digits of milliseconds.
	frac := fractional
	if len(frac) > 3 {
		frac = frac[:3]
	}
	frac += strings.Repeat("0", 3-len(frac))
	ms, _ := strconv.Atoi(frac)

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}
