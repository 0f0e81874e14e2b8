package infrastructure

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yourusername/ytq-go/internal/domain"
)

// yt-dlp's output format is not a stable contract; every text pattern the
// system matches lives in this file so format drift is a one-file change.
var (
	rePercent = regexp.MustCompile(`^\[download\]\s+([0-9]+(?:\.[0-9]+)?)%`)
	reRate    = regexp.MustCompile(`\bat\s+([0-9.]+[^\s]*/s)`)
	reETA     = regexp.MustCompile(`\bETA\s+([0-9:]+)`)
	reSize    = regexp.MustCompile(`\bof\s+~?\s*([0-9.]+[^\s]+)`)
)

const (
	destinationPrefix = "[download] Destination:"
	warningPrefix     = "WARNING:"
	errorPrefix       = "ERROR:"
)

// ParsedLine pairs one complete raw output line with the event it parsed
// to, if any.
type ParsedLine struct {
	Raw   string
	Event *domain.ProgressEvent
}

// ProgressParser consumes raw process output and produces progress events.
// Chunks may split lines anywhere; a line is only parsed once a terminator
// is observed. yt-dlp redraws progress with bare carriage returns, so both
// \n and \r terminate a line.
type ProgressParser struct {
	buf []byte
}

// NewProgressParser creates a parser with an empty line buffer
func NewProgressParser() *ProgressParser {
	return &ProgressParser{}
}

// Feed appends a chunk and returns the lines it completed, in read order
func (p *ProgressParser) Feed(chunk []byte) []ParsedLine {
	p.buf = append(p.buf, chunk...)

	var out []ParsedLine
	start := 0
	for i := 0; i < len(p.buf); i++ {
		if p.buf[i] != '\n' && p.buf[i] != '\r' {
			continue
		}
		if i > start {
			out = append(out, newParsedLine(string(p.buf[start:i])))
		}
		start = i + 1
	}
	p.buf = p.buf[start:]
	return out
}

// Flush drains whatever partial line remains, for use at stream EOF
func (p *ProgressParser) Flush() []ParsedLine {
	if len(p.buf) == 0 {
		return nil
	}
	line := string(p.buf)
	p.buf = nil
	if strings.TrimSpace(line) == "" {
		return nil
	}
	return []ParsedLine{newParsedLine(line)}
}

func newParsedLine(raw string) ParsedLine {
	pl := ParsedLine{Raw: raw}
	if ev, ok := ParseLine(raw); ok {
		pl.Event = &ev
	}
	return pl
}

// ParseLine turns one output line into at most one progress event.
// Unrecognized lines produce nothing and never fail: the tool may print
// anything. Missing fields on a progress line stay unknown rather than
// defaulting to zero.
func ParseLine(line string) (domain.ProgressEvent, bool) {
	l := strings.TrimSpace(line)
	if l == "" {
		return domain.ProgressEvent{}, false
	}

	if strings.HasPrefix(l, errorPrefix) {
		return domain.ProgressEvent{
			Kind: domain.EventError,
			Text: strings.TrimSpace(strings.TrimPrefix(l, errorPrefix)),
		}, true
	}

	if strings.HasPrefix(l, warningPrefix) {
		return domain.ProgressEvent{
			Kind: domain.EventWarning,
			Text: strings.TrimSpace(strings.TrimPrefix(l, warningPrefix)),
		}, true
	}

	if strings.HasPrefix(l, destinationPrefix) {
		return domain.ProgressEvent{
			Kind:  domain.EventStageChange,
			Stage: domain.StageDownloading,
			Text:  strings.TrimSpace(strings.TrimPrefix(l, destinationPrefix)),
		}, true
	}

	if m := rePercent.FindStringSubmatch(l); len(m) > 1 {
		ev := domain.ProgressEvent{Kind: domain.EventDownloadProgress}
		if pct, err := strconv.ParseFloat(m[1], 64); err == nil {
			ev.Percent = &pct
		}
		if m := reRate.FindStringSubmatch(l); len(m) > 1 {
			ev.Rate = m[1]
		}
		if m := reETA.FindStringSubmatch(l); len(m) > 1 {
			ev.ETA = m[1]
		}
		if m := reSize.FindStringSubmatch(l); len(m) > 1 {
			ev.Size = m[1]
		}
		return ev, true
	}

	switch {
	case strings.Contains(l, "has already been downloaded"):
		return domain.ProgressEvent{Kind: domain.EventStageChange, Stage: domain.StageAlreadyDownloaded}, true
	case strings.HasPrefix(l, "[Merger]") || strings.Contains(l, "Merging formats"):
		return domain.ProgressEvent{Kind: domain.EventStageChange, Stage: domain.StageMerging}, true
	case strings.HasPrefix(l, "[ExtractAudio]"):
		return domain.ProgressEvent{Kind: domain.EventStageChange, Stage: domain.StageExtractingAudio}, true
	case strings.HasPrefix(l, "[EmbedSubtitle]"):
		return domain.ProgressEvent{Kind: domain.EventStageChange, Stage: domain.StageEmbeddingSubs}, true
	}

	return domain.ProgressEvent{}, false
}
