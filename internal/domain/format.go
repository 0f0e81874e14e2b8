package domain

import "fmt"

// SelectionNone is the sentinel for "no video" / "no audio" in a format
// selection. Both at once is a configuration error: there is nothing left
// to fetch.
const SelectionNone = "none"

// Default format ids used when the user picked nothing specific
const (
	BestVideo = "bestvideo"
	BestAudio = "bestaudio"
)

// FormatDescriptor describes one format yt-dlp discovered for a URL.
// Built from the tool's -J output; the core only depends on this shape,
// not on the JSON it came from.
type FormatDescriptor struct {
	ID         string  `json:"id"`
	Ext        string  `json:"ext"`
	Resolution string  `json:"resolution,omitempty"`
	Height     int     `json:"height,omitempty"`
	FPS        float64 `json:"fps,omitempty"`
	ABR        float64 `json:"abr,omitempty"` // audio bitrate, kbps
	VCodec     string  `json:"vcodec,omitempty"`
	ACodec     string  `json:"acodec,omitempty"`
	Filesize   int64   `json:"filesize,omitempty"` // bytes, 0 = unknown
}

// IsVideoOnly reports whether the format carries video without audio
func (f FormatDescriptor) IsVideoOnly() bool {
	return f.VCodec != "" && f.VCodec != "none" && (f.ACodec == "" || f.ACodec == "none")
}

// IsAudioOnly reports whether the format carries audio without video
func (f FormatDescriptor) IsAudioOnly() bool {
	return f.ACodec != "" && f.ACodec != "none" && (f.VCodec == "" || f.VCodec == "none")
}

// Label renders the descriptor the way it is presented for selection
func (f FormatDescriptor) Label() string {
	size := ""
	if f.Filesize > 0 {
		size = " (" + HumanSize(f.Filesize) + ")"
	}
	if f.IsAudioOnly() {
		bitrate := "unknown bitrate"
		if f.ABR > 0 {
			bitrate = fmt.Sprintf("%.0fkbps", f.ABR)
		}
		return fmt.Sprintf("%s: %s %s%s", f.ID, f.Ext, bitrate, size)
	}
	fps := ""
	if f.FPS > 0 {
		fps = fmt.Sprintf(" %.0ffps", f.FPS)
	}
	return fmt.Sprintf("%s: %s %s%s%s", f.ID, f.Resolution, f.Ext, fps, size)
}

// FormatSelection is the user's format intent for one URL. Override, when
// non-empty, wins over everything else and is passed to the tool verbatim.
type FormatSelection struct {
	VideoID  string `json:"video_id,omitempty"`
	AudioID  string `json:"audio_id,omitempty"`
	Override string `json:"override,omitempty"`
}

// SubtitleSelection requests subtitle tracks for a download. Manual
// subtitles and auto-generated captions are distinct: captions are only
// fetched when explicitly asked for, never inferred from a manual request.
type SubtitleSelection struct {
	Langs        []string `json:"langs,omitempty"`
	AllLangs     bool     `json:"all_langs,omitempty"`
	AutoCaptions bool     `json:"auto_captions,omitempty"`
}

// Empty reports whether no subtitle request was made at all
func (s SubtitleSelection) Empty() bool {
	return !s.AllLangs && !s.AutoCaptions && len(s.Langs) == 0
}

// VideoInfo is the result shape of the tool's describe-only query for a
// single URL: available formats plus subtitle language inventories.
type VideoInfo struct {
	Title            string             `json:"title"`
	Uploader         string             `json:"uploader"`
	Duration         float64            `json:"duration"`
	VideoFormats     []FormatDescriptor `json:"video_formats"`
	AudioFormats     []FormatDescriptor `json:"audio_formats"`
	SubtitleLangs    []string           `json:"subtitle_langs"`
	AutoCaptionLangs []string           `json:"auto_caption_langs"`
}

// FormatByID looks a descriptor up across both format lists
func (v *VideoInfo) FormatByID(id string) (FormatDescriptor, bool) {
	for _, f := range v.VideoFormats {
		if f.ID == id {
			return f, true
		}
	}
	for _, f := range v.AudioFormats {
		if f.ID == id {
			return f, true
		}
	}
	return FormatDescriptor{}, false
}

// EstimatedSize sums the known filesizes of the selected streams. A zero
// return means at least one part has no size on record, so no estimate is
// shown rather than a misleading partial one.
func (v *VideoInfo) EstimatedSize(videoID, audioID string) int64 {
	var total int64
	for _, id := range []string{videoID, audioID} {
		if id == "" || id == SelectionNone {
			continue
		}
		f, ok := v.FormatByID(id)
		if !ok || f.Filesize <= 0 {
			return 0
		}
		total += f.Filesize
	}
	return total
}

// HumanSize renders a byte count the way the tool's own output does
func HumanSize(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1fGB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(b)/float64(1<<10))
	case b > 0:
		return fmt.Sprintf("%dB", b)
	default:
		return "unknown"
	}
}
