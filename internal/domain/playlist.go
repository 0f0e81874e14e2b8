package domain

import "fmt"

// PlaylistItem is one member of a playlist as reported by the tool's
// flat listing query.
type PlaylistItem struct {
	Index    int     `json:"index"` // 1-based position in the playlist
	ID       string  `json:"id"`
	URL      string  `json:"url"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration,omitempty"` // seconds, 0 = unknown
	Uploader string  `json:"uploader,omitempty"`
	Selected bool    `json:"selected"`
}

// PlaylistPlan is the ordered, selectable list of a playlist's members.
// Ordering is fixed at creation; only the Selected flags change.
type PlaylistPlan struct {
	URL   string         `json:"url"`
	Title string         `json:"title"`
	Items []PlaylistItem `json:"items"`
}

// SetSelected toggles one item by its playlist index without affecting order
func (p *PlaylistPlan) SetSelected(index int, selected bool) error {
	for i := range p.Items {
		if p.Items[i].Index == index {
			p.Items[i].Selected = selected
			return nil
		}
	}
	return fmt.Errorf("playlist has no item with index %d", index)
}

// SelectAll marks every item selected
func (p *PlaylistPlan) SelectAll() {
	for i := range p.Items {
		p.Items[i].Selected = true
	}
}

// DeselectAll clears every item's selection
func (p *PlaylistPlan) DeselectAll() {
	for i := range p.Items {
		p.Items[i].Selected = false
	}
}

// Selected returns the selected items in playlist order
func (p *PlaylistPlan) Selected() []PlaylistItem {
	var out []PlaylistItem
	for _, it := range p.Items {
		if it.Selected {
			out = append(out, it)
		}
	}
	return out
}

// QualityPreset is a single reusable format-selection rule applied
// uniformly across playlist items. Per-item distinct quality is
// deliberately unsupported.
type QualityPreset string

const (
	PresetBest      QualityPreset = "best"
	Preset2160p     QualityPreset = "2160"
	Preset1440p     QualityPreset = "1440"
	Preset1080p     QualityPreset = "1080"
	Preset720p      QualityPreset = "720"
	Preset480p      QualityPreset = "480"
	Preset360p      QualityPreset = "360"
	PresetAudioOnly QualityPreset = "audio"
)

// ValidatePreset checks whether a preset value is one the expander knows
func ValidatePreset(p QualityPreset) bool {
	switch p {
	case PresetBest, Preset2160p, Preset1440p, Preset1080p, Preset720p, Preset480p, Preset360p, PresetAudioOnly:
		return true
	}
	return false
}
