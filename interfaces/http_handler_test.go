package interfaces

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentvibe/application"
	"talentvibe/domain"
	"talentvibe/infrastructure"
	"talentvibe/logger"
)

type captureDispatcher struct {
	mu      sync.Mutex
	batches []application.Batch
	err     error
}

func (d *captureDispatcher) Dispatch(batch application.Batch) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.batches = append(d.batches, batch)
	return nil
}

func (d *captureDispatcher) all() []application.Batch {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]application.Batch(nil), d.batches...)
}

type noopNotifier struct{}

func (noopNotifier) Publish(uint, string, domain.ProgressKind) {}

type testEnv struct {
	router     *gin.Engine
	store      *infrastructure.JobStore
	dispatcher *captureDispatcher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()

	cfg := infrastructure.Config{
		DBDriver:   "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	}
	db, err := infrastructure.NewDatabase(cfg, log)
	require.NoError(t, err)

	store := infrastructure.NewJobStore(db, log)
	dispatcher := &captureDispatcher{}

	router := gin.New()
	NewHTTPHandler(router, store, infrastructure.NewExtractor(log), dispatcher, noopNotifier{}, nil, log)
	return &testEnv{router: router, store: store, dispatcher: dispatcher}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return e.do(t, req)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func analyzeRequest(t *testing.T, description string, files map[string][]byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if description != "" {
		require.NoError(t, w.WriteField("jobDescription", description))
	}
	for name, data := range files {
		fw, err := w.CreateFormFile("resumes", name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

// seedResume writes one analyzed resume and returns its ID along with the
// owning job's ID.
func (e *testEnv) seedResume(t *testing.T, description, filename string) (resumeID, jobID uint) {
	t.Helper()
	job, err := e.store.FindOrCreateJob(description)
	require.NoError(t, err)

	analysis := `{"candidate_name":"Alice Smith","fit_score":95}`
	n, err := e.store.SaveResumes(job.ID, []domain.Resume{{
		Filename:      filename,
		CandidateName: "Alice Smith",
		Content:       "resume body for " + filename,
		ContentHash:   domain.Fingerprint("resume body for " + filename),
		Analysis:      &analysis,
	}})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	loaded, err := e.store.GetJob(job.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Resumes, 1)
	return loaded.Resumes[0].ID, job.ID
}

func TestAnalyzeRequiresJobDescription(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, analyzeRequest(t, "", map[string][]byte{"a.txt": []byte("text")}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No job description provided", decodeBody(t, rec)["error"])
	assert.Empty(t, env.dispatcher.all())
}

func TestAnalyzeQueuesValidResumes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, analyzeRequest(t, "Senior Go Engineer", map[string][]byte{
		"alice.txt": []byte("Alice, 10 years of Go."),
		"bob.txt":   []byte("Bob, distributed systems."),
	}))
	require.Equal(t, http.StatusAccepted, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "queued", body["status"])
	assert.EqualValues(t, 2, body["total_resumes"])
	assert.NotZero(t, body["job_id"])

	batches := env.dispatcher.all()
	require.Len(t, batches, 1)
	assert.Equal(t, "Senior Go Engineer", batches[0].JobDescription)
	assert.Len(t, batches[0].Resumes, 2)
	for _, in := range batches[0].Resumes {
		assert.NotEmpty(t, in.Text)
	}
}

func TestAnalyzeSkipsUnreadableFiles(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, analyzeRequest(t, "Senior Go Engineer", map[string][]byte{
		"good.txt": []byte("readable resume text"),
		"bad.txt":  {0xff, 0xfe, 0x00, 0x9f},
	}))
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.EqualValues(t, 1, decodeBody(t, rec)["total_resumes"])

	batches := env.dispatcher.all()
	require.Len(t, batches, 1)
	require.Len(t, batches[0].Resumes, 1)
	assert.Equal(t, "good.txt", batches[0].Resumes[0].Filename)
}

func TestAnalyzeAllFilesUnreadable(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, analyzeRequest(t, "Senior Go Engineer", map[string][]byte{
		"bad.txt":   {0xff, 0xfe},
		"blank.txt": []byte("   \n\t "),
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "No valid resumes to process", body["message"])
	assert.Len(t, body["skipped_files"], 2)
	assert.Empty(t, env.dispatcher.all())
}

func TestGetJobsListing(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	_, jobID := env.seedResume(t, "Backend role", "alice.txt")

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var jobs []infrastructure.JobSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, jobID, jobs[0].ID)
	assert.Equal(t, "Backend role", jobs[0].Description)
	assert.Equal(t, 1, jobs[0].ResumeCount)
}

func TestGetJobDetails(t *testing.T) {
	env := newTestEnv(t)
	_, jobID := env.seedResume(t, "Backend role", "alice.txt")

	rec := env.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/jobs/%d", jobID), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Backend role", body["description"])

	resumes, ok := body["resumes"].([]any)
	require.True(t, ok)
	require.Len(t, resumes, 1)

	first := resumes[0].(map[string]any)
	assert.Equal(t, "alice.txt", first["filename"])
	assert.Equal(t, "Alice Smith", first["candidate_name"])

	analysis, ok := first["analysis"].(map[string]any)
	require.True(t, ok, "analysis should decode as an object, not a string")
	assert.Equal(t, "Alice Smith", analysis["candidate_name"])
	assert.EqualValues(t, 95, analysis["fit_score"])
}

func TestGetJobDetailsNullAnalysis(t *testing.T) {
	env := newTestEnv(t)
	job, err := env.store.FindOrCreateJob("Backend role")
	require.NoError(t, err)
	_, err = env.store.SaveResumes(job.ID, []domain.Resume{{
		Filename:    "pending.txt",
		Content:     "body",
		ContentHash: domain.Fingerprint("body"),
	}})
	require.NoError(t, err)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/jobs/%d", job.ID), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	resumes := decodeBody(t, rec)["resumes"].([]any)
	require.Len(t, resumes, 1)
	assert.Nil(t, resumes[0].(map[string]any)["analysis"])
}

func TestGetJobDetailsNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/jobs/9999", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/jobs/not-a-number", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteJob(t *testing.T) {
	env := newTestEnv(t)
	_, jobID := env.seedResume(t, "Backend role", "alice.txt")

	rec := env.do(t, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/jobs/%d", jobID), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeBody(t, rec)["deleted_resumes"])

	rec = env.do(t, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/jobs/%d", jobID), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateAndListInterviews(t *testing.T) {
	env := newTestEnv(t)
	resumeID, jobID := env.seedResume(t, "Backend role", "alice.txt")

	rec := env.doJSON(t, http.MethodPost, "/api/interviews", gin.H{
		"resume_id":               resumeID,
		"title":                   "Technical screen",
		"scheduled_at":            "2026-09-15T14:30",
		"primary_interviewer":     "Sam Lee",
		"additional_interviewers": []string{"Kim Park"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotZero(t, decodeBody(t, rec)["interview_id"])

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/interviews", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var interviews []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &interviews))
	require.Len(t, interviews, 1)

	iv := interviews[0]
	assert.Equal(t, "Technical screen", iv["title"])
	assert.Equal(t, "video", iv["interview_type"])
	assert.EqualValues(t, 60, iv["duration_minutes"])
	assert.Equal(t, "UTC", iv["timezone"])
	assert.Equal(t, "scheduled", iv["status"])
	assert.Equal(t, "Alice Smith", iv["candidate_name"])
	assert.Equal(t, "alice.txt", iv["filename"])
	assert.EqualValues(t, jobID, iv["job_id"])
}

func TestCreateInterviewValidation(t *testing.T) {
	env := newTestEnv(t)
	resumeID, _ := env.seedResume(t, "Backend role", "alice.txt")

	rec := env.doJSON(t, http.MethodPost, "/api/interviews", gin.H{"resume_id": resumeID})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "title is required")

	rec = env.doJSON(t, http.MethodPost, "/api/interviews", gin.H{
		"resume_id": 9999, "title": "Screen",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.doJSON(t, http.MethodPost, "/api/interviews", gin.H{
		"resume_id": resumeID, "title": "Screen", "scheduled_at": "next tuesday",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFeedbackAndStats(t *testing.T) {
	env := newTestEnv(t)
	resumeID, _ := env.seedResume(t, "Backend role", "alice.txt")

	for _, kind := range []string{"incorrect_category", "incorrect_category", "analysis_quality"} {
		rec := env.doJSON(t, http.MethodPost, "/api/feedback", gin.H{
			"resume_id":     resumeID,
			"feedback_type": kind,
			"feedback_text": "details",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := env.doJSON(t, http.MethodPost, "/api/feedback", gin.H{
		"resume_id": 9999, "feedback_type": "analysis_quality",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/feedback/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats infrastructure.FeedbackStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.EqualValues(t, 3, stats.Total)
	assert.EqualValues(t, 2, stats.ByType["incorrect_category"])
	assert.EqualValues(t, 1, stats.ByType["analysis_quality"])
}

func TestCreateOverride(t *testing.T) {
	env := newTestEnv(t)
	resumeID, _ := env.seedResume(t, "Backend role", "alice.txt")

	rec := env.doJSON(t, http.MethodPost, "/api/override", gin.H{
		"resume_id":       resumeID,
		"original_bucket": domain.BucketRocket,
		"new_bucket":      domain.BucketCall,
		"reason":          "interviewed below expectations",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotZero(t, decodeBody(t, rec)["override_id"])

	rec = env.doJSON(t, http.MethodPost, "/api/override", gin.H{
		"resume_id": 9999, "new_bucket": domain.BucketCall,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetData(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/data", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["message"], "TalentVibe")
}
