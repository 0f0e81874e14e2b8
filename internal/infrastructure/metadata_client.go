package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/ytq-go/internal/domain"
)

// YTDLPClient runs the tool's describe-only query mode: -J for a single
// URL's formats, --flat-playlist -J for playlist membership. Output is
// JSON; this is the one place its schema is interpreted.
type YTDLPClient struct {
	binary string
	logger *zap.Logger
}

// NewYTDLPClient creates a metadata client for the configured binary
func NewYTDLPClient(binary string, logger *zap.Logger) *YTDLPClient {
	return &YTDLPClient{binary: binary, logger: logger}
}

// VideoInfo fetches the formats and subtitle inventory for one URL
func (c *YTDLPClient) VideoInfo(ctx context.Context, url string) (*domain.VideoInfo, error) {
	raw, err := c.query(ctx, []string{"-J", "--no-playlist", url})
	if err != nil {
		return nil, err
	}
	return ParseVideoInfo(raw)
}

// Playlist enumerates a playlist's members in order
func (c *YTDLPClient) Playlist(ctx context.Context, url string) (*domain.PlaylistPlan, error) {
	raw, err := c.query(ctx, []string{"--flat-playlist", "-J", url})
	if err != nil {
		return nil, err
	}
	plan, err := ParsePlaylistPlan(raw)
	if err != nil {
		return nil, err
	}
	plan.URL = url
	return plan, nil
}

func (c *YTDLPClient) query(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.Debug("Running metadata query",
		zap.String("binary", c.binary),
		zap.Strings("args", args))

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("yt-dlp query failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("yt-dlp returned empty output")
	}
	return stdout.Bytes(), nil
}

// videoInfoJSON mirrors the subset of yt-dlp's -J output the core needs
type videoInfoJSON struct {
	Title             string                `json:"title"`
	Uploader          string                `json:"uploader"`
	Duration          float64               `json:"duration"`
	Formats           []formatJSON          `json:"formats"`
	Subtitles         map[string]endpoint   `json:"subtitles"`
	AutomaticCaptions map[string]endpoint   `json:"automatic_captions"`
	Entries           []playlistEntriesJSON `json:"entries"`
}

type endpoint []map[string]interface{}

type formatJSON struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	Resolution     string  `json:"resolution"`
	Height         int     `json:"height"`
	FPS            float64 `json:"fps"`
	ABR            float64 `json:"abr"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	Filesize       int64   `json:"filesize"`
	FilesizeApprox int64   `json:"filesize_approx"`
}

type playlistEntriesJSON struct {
	ID       string  `json:"id"`
	URL      string  `json:"url"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	Uploader string  `json:"uploader"`
}

// ParseVideoInfo builds the format descriptor lists from -J output.
// Formats carrying both streams (or neither) are not individually
// selectable and are skipped, matching how selection is presented.
func ParseVideoInfo(raw []byte) (*domain.VideoInfo, error) {
	var data videoInfoJSON
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse video info: %w", err)
	}

	info := &domain.VideoInfo{
		Title:    data.Title,
		Uploader: data.Uploader,
		Duration: data.Duration,
	}

	for _, f := range data.Formats {
		size := f.Filesize
		if size == 0 {
			size = f.FilesizeApprox
		}
		desc := domain.FormatDescriptor{
			ID:         f.FormatID,
			Ext:        f.Ext,
			Resolution: f.Resolution,
			Height:     f.Height,
			FPS:        f.FPS,
			ABR:        f.ABR,
			VCodec:     f.VCodec,
			ACodec:     f.ACodec,
			Filesize:   size,
		}
		switch {
		case desc.IsVideoOnly():
			info.VideoFormats = append(info.VideoFormats, desc)
		case desc.IsAudioOnly():
			info.AudioFormats = append(info.AudioFormats, desc)
		}
	}

	// highest quality first, like the tool's own listing
	sort.SliceStable(info.VideoFormats, func(i, j int) bool {
		return info.VideoFormats[i].Height > info.VideoFormats[j].Height
	})
	sort.SliceStable(info.AudioFormats, func(i, j int) bool {
		return info.AudioFormats[i].ABR > info.AudioFormats[j].ABR
	})

	info.SubtitleLangs = sortedKeys(data.Subtitles)
	for _, lang := range sortedKeys(data.AutomaticCaptions) {
		if _, manual := data.Subtitles[lang]; !manual {
			info.AutoCaptionLangs = append(info.AutoCaptionLangs, lang)
		}
	}

	return info, nil
}

// ParsePlaylistPlan builds an ordered plan from --flat-playlist -J output
func ParsePlaylistPlan(raw []byte) (*domain.PlaylistPlan, error) {
	var data videoInfoJSON
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse playlist: %w", err)
	}
	if len(data.Entries) == 0 {
		return nil, fmt.Errorf("no videos found in playlist")
	}

	plan := &domain.PlaylistPlan{Title: data.Title}
	for i, e := range data.Entries {
		plan.Items = append(plan.Items, domain.PlaylistItem{
			Index:    i + 1,
			ID:       e.ID,
			URL:      e.URL,
			Title:    e.Title,
			Duration: e.Duration,
			Uploader: e.Uploader,
			Selected: true,
		})
	}
	return plan, nil
}

func sortedKeys(m map[string]endpoint) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
