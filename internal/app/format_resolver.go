package app

import (
	"fmt"
	"strings"

	"github.com/yourusername/ytq-go/internal/domain"
)

// ResolvedFormat is the argument fragment requesting one exact format
// combination from yt-dlp, plus the merge/extract flags that combination
// needs.
type ResolvedFormat struct {
	Args    []string
	Format  string // the -f value
	Display string // short label embedded in the output filename
	Mode    domain.MediaMode
}

// ResolveFormat turns a format selection into tool arguments. The override
// string, when present, is passed through verbatim; "non-empty" is the only
// validation power users get. Selecting neither video nor audio is a
// configuration error, rejected before any process is spawned. info is
// optional and only improves the display label.
func ResolveFormat(sel domain.FormatSelection, info *domain.VideoInfo) (*ResolvedFormat, error) {
	if override := strings.TrimSpace(sel.Override); override != "" {
		args := []string{"-f", override}
		if strings.Contains(override, "+") {
			args = append(args, "--merge-output-format", "mp4")
		}
		return &ResolvedFormat{Args: args, Format: override, Display: override, Mode: domain.ModeDefault}, nil
	}

	video, audio := sel.VideoID, sel.AudioID
	if video == "" && audio == "" {
		return nil, domain.ErrEmptySelection
	}
	if video == domain.SelectionNone && audio == domain.SelectionNone {
		return nil, domain.ErrNothingSelected
	}

	switch {
	case video == domain.SelectionNone:
		id := audio
		if id == "" {
			id = domain.BestAudio
		}
		// extract the audio stream instead of keeping the container
		args := []string{"-f", id, "-x", "--audio-format", "mp3"}
		return &ResolvedFormat{Args: args, Format: id, Display: "audio only", Mode: domain.ModeAudioOnly}, nil

	case audio == domain.SelectionNone:
		id := video
		if id == "" {
			id = domain.BestVideo
		}
		args := []string{"-f", id}
		return &ResolvedFormat{Args: args, Format: id, Display: "video only", Mode: domain.ModeVideoOnly}, nil
	}

	var formatID, display string
	switch {
	case video != "" && audio != "":
		formatID = video + "+" + audio
		display = displayLabel(video, info, true) + "+" + displayLabel(audio, info, false)
	case video != "":
		formatID = video
		display = displayLabel(video, info, true)
	default:
		formatID = audio
		display = displayLabel(audio, info, false)
	}

	args := []string{"-f", formatID}
	if strings.Contains(formatID, "+") {
		// separate streams need a remux into one container
		args = append(args, "--merge-output-format", "mp4")
	}
	return &ResolvedFormat{Args: args, Format: formatID, Display: display, Mode: domain.ModeDefault}, nil
}

// displayLabel derives a short human label for a format id, matching how
// the selection was presented: height for video, codec/ext for audio.
func displayLabel(id string, info *domain.VideoInfo, isVideo bool) string {
	switch id {
	case domain.BestVideo:
		return "best"
	case domain.BestAudio:
		return "audio"
	}
	if info != nil {
		if f, ok := info.FormatByID(id); ok {
			if isVideo && f.Height > 0 {
				return fmt.Sprintf("%dp", f.Height)
			}
			if !isVideo && f.Ext != "" {
				return f.Ext
			}
		}
	}
	if isVideo {
		return "video"
	}
	return "audio"
}

// ResolveSubtitles builds the subtitle flag set. Manual subtitle languages
// and auto-generated captions are requested independently; a caption
// request is never assumed from a manual one.
func ResolveSubtitles(sub domain.SubtitleSelection) []string {
	if sub.Empty() {
		return nil
	}

	var args []string
	switch {
	case sub.AllLangs:
		args = append(args, "--write-subs", "--embed-subs", "--all-subs")
	case len(sub.Langs) > 0:
		args = append(args, "--write-subs", "--embed-subs", "--sub-lang", strings.Join(sub.Langs, ","))
	}
	if sub.AutoCaptions {
		if len(args) == 0 {
			args = append(args, "--embed-subs")
		}
		args = append(args, "--write-auto-subs")
	}
	return args
}

// SpecBuilder assembles complete job specs from resolved fragments plus
// the globally configured invocation options.
type SpecBuilder struct {
	cfg *domain.DownloadConfig
}

// NewSpecBuilder creates a spec builder for the given download config
func NewSpecBuilder(cfg *domain.DownloadConfig) *SpecBuilder {
	return &SpecBuilder{cfg: cfg}
}

// Build resolves the selection and wraps it with output template, rate
// limits, ffmpeg location and custom options into an immutable JobSpec.
func (b *SpecBuilder) Build(url, title string, sel domain.FormatSelection, sub domain.SubtitleSelection, info *domain.VideoInfo) (domain.JobSpec, error) {
	resolved, err := ResolveFormat(sel, info)
	if err != nil {
		return domain.JobSpec{}, err
	}

	args := append([]string{}, resolved.Args...)
	subArgs := ResolveSubtitles(sub)
	args = append(args, subArgs...)

	if resolved.Display != "" {
		args = append(args, "-o", fmt.Sprintf("%%(title)s [%s].%%(ext)s", resolved.Display))
	}
	if b.cfg.LimitRate != "" {
		args = append(args, "--limit-rate", b.cfg.LimitRate)
	}
	if b.cfg.ThrottledRate != "" {
		args = append(args, "--throttled-rate", b.cfg.ThrottledRate)
	}
	if opts := strings.TrimSpace(b.cfg.CustomOptions); opts != "" {
		args = append(strings.Fields(opts), args...)
	}
	if b.cfg.FFmpegLocation != "" {
		args = append([]string{"--ffmpeg-location", b.cfg.FFmpegLocation}, args...)
	}

	if title == "" && info != nil {
		title = info.Title
	}

	return domain.JobSpec{
		URL:       url,
		Title:     title,
		Args:      args,
		OutputDir: b.cfg.OutputDir,
		Mode:      resolved.Mode,
		Subtitles: len(subArgs) > 0,
	}, nil
}
