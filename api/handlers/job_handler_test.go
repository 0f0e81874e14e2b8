package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/ytq-go/internal/app"
	"github.com/yourusername/ytq-go/internal/domain"
)

type nopRunner struct{}

func (nopRunner) Run(ctx context.Context) error { return nil }
func (nopRunner) Cancel()                       {}

func newTestRouter() (*gin.Engine, *app.QueueScheduler) {
	gin.SetMode(gin.TestMode)

	factory := func(spec domain.JobSpec, onEvent func(domain.ProgressEvent), onLine func(string)) domain.Runner {
		return nopRunner{}
	}
	scheduler := app.NewQueueScheduler(nil, factory, nil, nil, 1)
	builder := app.NewSpecBuilder(&domain.DownloadConfig{OutputDir: "/tmp/downloads"})
	handler := NewJobHandler(scheduler, builder, zap.NewNop())

	router := gin.New()
	router.POST("/jobs", handler.AddJob)
	router.GET("/jobs", handler.ListJobs)
	router.GET("/jobs/:id", handler.GetJob)
	router.POST("/jobs/:id/cancel", handler.CancelJob)
	router.POST("/jobs/:id/reorder", handler.ReorderJob)
	router.DELETE("/jobs/:id", handler.DeleteJob)
	return router, scheduler
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAddJob(t *testing.T) {
	router, _ := newTestRouter()

	w := doJSON(t, router, http.MethodPost, "/jobs", AddJobRequest{
		URL:       "https://example.com/v",
		Selection: domain.FormatSelection{Override: "best"},
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var job domain.Job
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, domain.StatusPending, job.Status)
	assert.Equal(t, "https://example.com/v", job.Spec.URL)
}

func TestAddJobMissingURL(t *testing.T) {
	router, _ := newTestRouter()

	w := doJSON(t, router, http.MethodPost, "/jobs", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddJobNothingSelected(t *testing.T) {
	router, _ := newTestRouter()

	w := doJSON(t, router, http.MethodPost, "/jobs", AddJobRequest{
		URL: "https://example.com/v",
		Selection: domain.FormatSelection{
			VideoID: domain.SelectionNone,
			AudioID: domain.SelectionNone,
		},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "nothing to download")
}

func TestGetJobNotFound(t *testing.T) {
	router, _ := newTestRouter()

	w := doJSON(t, router, http.MethodGet, "/jobs/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListJobsFilterByStatus(t *testing.T) {
	router, scheduler := newTestRouter()

	j1, err := scheduler.Enqueue(domain.JobSpec{URL: "https://example.com/1", Args: []string{"-f", "best"}})
	require.NoError(t, err)
	_, err = scheduler.Enqueue(domain.JobSpec{URL: "https://example.com/2", Args: []string{"-f", "best"}})
	require.NoError(t, err)
	require.NoError(t, scheduler.CancelJob(j1.ID))

	w := doJSON(t, router, http.MethodGet, "/jobs?status=pending", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var jobs []domain.Job
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, "https://example.com/2", jobs[0].Spec.URL)
}

func TestCancelJob(t *testing.T) {
	router, scheduler := newTestRouter()

	job, err := scheduler.Enqueue(domain.JobSpec{URL: "https://example.com/v", Args: []string{"-f", "best"}})
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodPost, "/jobs/"+job.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// terminal now, a second cancel conflicts
	w = doJSON(t, router, http.MethodPost, "/jobs/"+job.ID+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodPost, "/jobs/nope/cancel", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReorderJob(t *testing.T) {
	router, scheduler := newTestRouter()

	j1, _ := scheduler.Enqueue(domain.JobSpec{URL: "https://example.com/1", Args: []string{"-f", "best"}})
	j2, _ := scheduler.Enqueue(domain.JobSpec{URL: "https://example.com/2", Args: []string{"-f", "best"}})

	w := doJSON(t, router, http.MethodPost, "/jobs/"+j2.ID+"/reorder", ReorderJobRequest{Index: 0})
	require.Equal(t, http.StatusOK, w.Code)

	jobs := scheduler.Jobs()
	assert.Equal(t, j2.ID, jobs[0].ID)
	assert.Equal(t, j1.ID, jobs[1].ID)
}

func TestDeleteJob(t *testing.T) {
	router, scheduler := newTestRouter()

	job, _ := scheduler.Enqueue(domain.JobSpec{URL: "https://example.com/v", Args: []string{"-f", "best"}})

	w := doJSON(t, router, http.MethodDelete, "/jobs/"+job.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, err := scheduler.GetJob(job.ID)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}
