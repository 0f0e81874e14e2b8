package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/ytq-go/internal/app"
	"github.com/yourusername/ytq-go/internal/domain"
)

type stubClient struct {
	info *domain.VideoInfo
	plan *domain.PlaylistPlan
	err  error
}

func (s *stubClient) VideoInfo(ctx context.Context, url string) (*domain.VideoInfo, error) {
	return s.info, s.err
}

func (s *stubClient) Playlist(ctx context.Context, url string) (*domain.PlaylistPlan, error) {
	return s.plan, s.err
}

func newMediaRouter(client domain.MetadataClient) *gin.Engine {
	gin.SetMode(gin.TestMode)

	factory := func(spec domain.JobSpec, onEvent func(domain.ProgressEvent), onLine func(string)) domain.Runner {
		return nopRunner{}
	}
	scheduler := app.NewQueueScheduler(nil, factory, nil, nil, 1)
	builder := app.NewSpecBuilder(&domain.DownloadConfig{OutputDir: "/tmp/downloads"})
	expander := app.NewPlaylistExpander(client, builder, zap.NewNop())
	handler := NewMediaHandler(client, expander, scheduler, zap.NewNop())

	router := gin.New()
	router.GET("/formats", handler.GetFormats)
	router.GET("/formats/estimate", handler.EstimateSize)
	router.POST("/playlists/expand", handler.ExpandPlaylist)
	return router
}

func TestGetFormatsRequiresURL(t *testing.T) {
	router := newMediaRouter(&stubClient{})
	w := doJSON(t, router, http.MethodGet, "/formats", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetFormatsFetchFailure(t *testing.T) {
	router := newMediaRouter(&stubClient{err: errors.New("yt-dlp: not found")})
	w := doJSON(t, router, http.MethodGet, "/formats?url=https%3A%2F%2Fexample.com%2Fv", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestEstimateSize(t *testing.T) {
	client := &stubClient{info: &domain.VideoInfo{
		VideoFormats: []domain.FormatDescriptor{
			{ID: "137", VCodec: "avc1", ACodec: "none", Filesize: 10 << 20},
		},
		AudioFormats: []domain.FormatDescriptor{
			{ID: "140", ACodec: "mp4a", VCodec: "none", Filesize: 2 << 20},
		},
	}}
	router := newMediaRouter(client)

	w := doJSON(t, router, http.MethodGet, "/formats/estimate?url=u&video=137&audio=140", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Known bool   `json:"known"`
		Bytes int64  `json:"bytes"`
		Human string `json:"human"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Known)
	assert.Equal(t, int64(12<<20), resp.Bytes)
	assert.Equal(t, "12.0MB", resp.Human)
}

func TestEstimateSizeUnknownFormat(t *testing.T) {
	client := &stubClient{info: &domain.VideoInfo{}}
	router := newMediaRouter(client)

	w := doJSON(t, router, http.MethodGet, "/formats/estimate?url=u&video=137", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Known bool `json:"known"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Known)
}

func TestExpandPlaylist(t *testing.T) {
	client := &stubClient{plan: &domain.PlaylistPlan{
		URL:   "https://example.com/list",
		Title: "mix",
		Items: []domain.PlaylistItem{
			{Index: 1, ID: "a", Title: "A", Selected: true},
			{Index: 2, ID: "b", Title: "B", Selected: true},
		},
	}}
	router := newMediaRouter(client)

	w := doJSON(t, router, http.MethodPost, "/playlists/expand", map[string]string{"url": "https://example.com/list"})
	require.Equal(t, http.StatusOK, w.Code)

	var plan domain.PlaylistPlan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	assert.Len(t, plan.Items, 2)
	assert.Equal(t, "mix", plan.Title)
}
