package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ytq-go/internal/domain"
)

func testVideoInfo() *domain.VideoInfo {
	return &domain.VideoInfo{
		Title: "Test Video",
		VideoFormats: []domain.FormatDescriptor{
			{ID: "137", Ext: "mp4", Height: 1080, VCodec: "avc1", ACodec: "none"},
			{ID: "136", Ext: "mp4", Height: 720, VCodec: "avc1", ACodec: "none"},
		},
		AudioFormats: []domain.FormatDescriptor{
			{ID: "140", Ext: "m4a", ABR: 128, ACodec: "mp4a", VCodec: "none"},
		},
	}
}

func TestResolveFormatCombined(t *testing.T) {
	sel := domain.FormatSelection{VideoID: "137", AudioID: "140"}

	resolved, err := ResolveFormat(sel, testVideoInfo())
	require.NoError(t, err)

	assert.Equal(t, "137+140", resolved.Format)
	assert.Equal(t, []string{"-f", "137+140", "--merge-output-format", "mp4"}, resolved.Args)
	assert.Equal(t, "1080p+m4a", resolved.Display)
	assert.Equal(t, domain.ModeDefault, resolved.Mode)
}

func TestResolveFormatSingleStreamNoMerge(t *testing.T) {
	sel := domain.FormatSelection{VideoID: "137"}

	resolved, err := ResolveFormat(sel, testVideoInfo())
	require.NoError(t, err)

	assert.Equal(t, []string{"-f", "137"}, resolved.Args)
	assert.NotContains(t, resolved.Args, "--merge-output-format")
}

func TestResolveFormatAudioOnly(t *testing.T) {
	sel := domain.FormatSelection{VideoID: domain.SelectionNone, AudioID: "140"}

	resolved, err := ResolveFormat(sel, testVideoInfo())
	require.NoError(t, err)

	assert.Equal(t, []string{"-f", "140", "-x", "--audio-format", "mp3"}, resolved.Args)
	assert.Equal(t, "audio only", resolved.Display)
	assert.Equal(t, domain.ModeAudioOnly, resolved.Mode)
}

func TestResolveFormatAudioOnlyDefaultsToBestAudio(t *testing.T) {
	sel := domain.FormatSelection{VideoID: domain.SelectionNone}

	resolved, err := ResolveFormat(sel, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.BestAudio, resolved.Format)
	assert.Contains(t, resolved.Args, "-x")
}

func TestResolveFormatVideoOnly(t *testing.T) {
	sel := domain.FormatSelection{VideoID: "136", AudioID: domain.SelectionNone}

	resolved, err := ResolveFormat(sel, testVideoInfo())
	require.NoError(t, err)

	assert.Equal(t, []string{"-f", "136"}, resolved.Args)
	assert.Equal(t, domain.ModeVideoOnly, resolved.Mode)
	assert.NotContains(t, resolved.Args, "-x")
}

func TestResolveFormatNothingSelected(t *testing.T) {
	sel := domain.FormatSelection{
		VideoID: domain.SelectionNone,
		AudioID: domain.SelectionNone,
	}

	// rejected before any process would be spawned, with or without info
	_, err := ResolveFormat(sel, testVideoInfo())
	assert.ErrorIs(t, err, domain.ErrNothingSelected)

	_, err = ResolveFormat(sel, nil)
	assert.ErrorIs(t, err, domain.ErrNothingSelected)
}

func TestResolveFormatEmptySelection(t *testing.T) {
	_, err := ResolveFormat(domain.FormatSelection{}, nil)
	assert.ErrorIs(t, err, domain.ErrEmptySelection)
}

func TestResolveFormatOverrideVerbatim(t *testing.T) {
	sel := domain.FormatSelection{
		VideoID:  "137", // ignored when an override is present
		Override: "bv*[height<=720]+ba/b",
	}

	resolved, err := ResolveFormat(sel, testVideoInfo())
	require.NoError(t, err)

	assert.Equal(t, "bv*[height<=720]+ba/b", resolved.Format)
	assert.Contains(t, resolved.Args, "--merge-output-format")
}

func TestResolveFormatOverrideWithoutPlusNoMerge(t *testing.T) {
	sel := domain.FormatSelection{Override: "best"}

	resolved, err := ResolveFormat(sel, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"-f", "best"}, resolved.Args)
}

func TestResolveFormatDisplayFallsBackWithoutInfo(t *testing.T) {
	sel := domain.FormatSelection{VideoID: "137", AudioID: "140"}

	resolved, err := ResolveFormat(sel, nil)
	require.NoError(t, err)

	assert.Equal(t, "video+audio", resolved.Display)
}

func TestResolveSubtitlesEmpty(t *testing.T) {
	assert.Nil(t, ResolveSubtitles(domain.SubtitleSelection{}))
}

func TestResolveSubtitlesLanguages(t *testing.T) {
	args := ResolveSubtitles(domain.SubtitleSelection{Langs: []string{"en", "de"}})

	assert.Equal(t, []string{"--write-subs", "--embed-subs", "--sub-lang", "en,de"}, args)
	assert.NotContains(t, args, "--write-auto-subs")
}

func TestResolveSubtitlesAllLangs(t *testing.T) {
	args := ResolveSubtitles(domain.SubtitleSelection{AllLangs: true})

	assert.Contains(t, args, "--all-subs")
	assert.NotContains(t, args, "--sub-lang")
}

func TestResolveSubtitlesAutoCaptionsIndependent(t *testing.T) {
	// captions alone never imply a manual subtitle request
	args := ResolveSubtitles(domain.SubtitleSelection{AutoCaptions: true})
	assert.Contains(t, args, "--write-auto-subs")
	assert.NotContains(t, args, "--write-subs")

	// and a manual request never implies captions
	args = ResolveSubtitles(domain.SubtitleSelection{Langs: []string{"en"}, AutoCaptions: true})
	assert.Contains(t, args, "--write-subs")
	assert.Contains(t, args, "--write-auto-subs")
}

func TestSpecBuilderBuild(t *testing.T) {
	builder := NewSpecBuilder(&domain.DownloadConfig{
		OutputDir: "/tmp/downloads",
		LimitRate: "5M",
	})

	spec, err := builder.Build("https://example.com/watch?v=abc", "", domain.FormatSelection{VideoID: "137", AudioID: "140"}, domain.SubtitleSelection{}, testVideoInfo())
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/watch?v=abc", spec.URL)
	assert.Equal(t, "Test Video", spec.Title)
	assert.Equal(t, "/tmp/downloads", spec.OutputDir)
	assert.Contains(t, spec.Args, "-o")
	assert.Contains(t, spec.Args, "%(title)s [1080p+m4a].%(ext)s")
	assert.Contains(t, spec.Args, "--limit-rate")
	assert.False(t, spec.Subtitles)
}

func TestSpecBuilderCustomOptionsPrepended(t *testing.T) {
	builder := NewSpecBuilder(&domain.DownloadConfig{
		OutputDir:      "/tmp/downloads",
		CustomOptions:  "--no-mtime --restrict-filenames",
		FFmpegLocation: "/opt/ffmpeg",
	})

	spec, err := builder.Build("https://example.com/v", "", domain.FormatSelection{Override: "best"}, domain.SubtitleSelection{}, nil)
	require.NoError(t, err)

	assert.Equal(t, "--ffmpeg-location", spec.Args[0])
	assert.Equal(t, "/opt/ffmpeg", spec.Args[1])
	assert.Equal(t, "--no-mtime", spec.Args[2])
	assert.Equal(t, "--restrict-filenames", spec.Args[3])
}

func TestSpecBuilderRejectsBadSelection(t *testing.T) {
	builder := NewSpecBuilder(&domain.DownloadConfig{OutputDir: "/tmp"})

	_, err := builder.Build("https://example.com/v", "", domain.FormatSelection{
		VideoID: domain.SelectionNone,
		AudioID: domain.SelectionNone,
	}, domain.SubtitleSelection{}, nil)

	assert.ErrorIs(t, err, domain.ErrNothingSelected)
}
