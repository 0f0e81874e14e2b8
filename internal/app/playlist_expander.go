package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yourusername/ytq-go/internal/domain"
)

// PlaylistExpander fans one playlist URL into per-item job specs. A single
// quality preset applies uniformly to all selected items; per-item quality
// is deliberately unsupported.
type PlaylistExpander struct {
	client  domain.MetadataClient
	builder *SpecBuilder
	logger  *zap.Logger
}

// NewPlaylistExpander creates a playlist expander
func NewPlaylistExpander(client domain.MetadataClient, builder *SpecBuilder, logger *zap.Logger) *PlaylistExpander {
	return &PlaylistExpander{
		client:  client,
		builder: builder,
		logger:  logger,
	}
}

// Expand lists the playlist's members in order, every item selected
func (e *PlaylistExpander) Expand(ctx context.Context, url string) (*domain.PlaylistPlan, error) {
	plan, err := e.client.Playlist(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlist: %w", err)
	}
	plan.SelectAll()

	e.logger.Info("Playlist expanded",
		zap.String("url", url),
		zap.String("title", plan.Title),
		zap.Int("items", len(plan.Items)))
	return plan, nil
}

// ResolvePreset translates a quality preset into a format selection once;
// the expander reuses it for every selected item.
func ResolvePreset(preset domain.QualityPreset) (domain.FormatSelection, error) {
	if !domain.ValidatePreset(preset) {
		return domain.FormatSelection{}, fmt.Errorf("unknown quality preset: %s", preset)
	}

	switch preset {
	case domain.PresetAudioOnly:
		return domain.FormatSelection{VideoID: domain.SelectionNone, AudioID: domain.BestAudio}, nil
	case domain.PresetBest:
		return domain.FormatSelection{
			Override: "bv*[ext=mp4]+ba[ext=m4a]/b[ext=mp4] / bv*+ba/b",
		}, nil
	default:
		h := string(preset)
		return domain.FormatSelection{
			Override: fmt.Sprintf(
				"bv*[height<=%s][ext=mp4]+ba[ext=m4a]/b[height<=%s][ext=mp4] / bv*[height<=%s]+ba/b[height<=%s]",
				h, h, h, h),
		}, nil
	}
}

// BuildJobSpecs produces one spec per selected item, preserving playlist
// order. Each spec embeds the item's title for UI correlation.
func (e *PlaylistExpander) BuildJobSpecs(plan *domain.PlaylistPlan, preset domain.QualityPreset, sub domain.SubtitleSelection) ([]domain.JobSpec, error) {
	sel, err := ResolvePreset(preset)
	if err != nil {
		return nil, err
	}

	var specs []domain.JobSpec
	for _, item := range plan.Selected() {
		url := item.URL
		if url == "" {
			url = item.ID
		}
		spec, err := e.builder.Build(url, item.Title, sel, sub, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build spec for item %d: %w", item.Index, err)
		}
		specs = append(specs, spec)
	}

	e.logger.Info("Playlist job specs built",
		zap.String("playlist", plan.Title),
		zap.String("preset", string(preset)),
		zap.Int("selected", len(specs)),
		zap.Int("total", len(plan.Items)))
	return specs, nil
}
