package interfaces

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"talentvibe/application"
	"talentvibe/domain"
	"talentvibe/infrastructure"
	"talentvibe/logger"
)

type HTTPHandler struct {
	Store      *infrastructure.JobStore
	Extractor  *infrastructure.Extractor
	Dispatcher application.Dispatcher
	Notifier   application.Notifier
	Hub        *infrastructure.Hub
	Log        *logger.Logger
}

func NewHTTPHandler(router *gin.Engine, store *infrastructure.JobStore, ex *infrastructure.Extractor,
	dispatcher application.Dispatcher, notifier application.Notifier, hub *infrastructure.Hub, log *logger.Logger) {
	h := &HTTPHandler{
		Store:      store,
		Extractor:  ex,
		Dispatcher: dispatcher,
		Notifier:   notifier,
		Hub:        hub,
		Log:        log.With("component", "HTTPHandler"),
	}

	api := router.Group("/api")
	api.POST("/analyze", h.AnalyzeResumes)
	api.GET("/jobs", h.GetJobs)
	api.GET("/jobs/:id", h.GetJobDetails)
	api.DELETE("/jobs/:id", h.DeleteJob)
	api.POST("/interviews", h.CreateInterview)
	api.GET("/interviews", h.ListInterviews)
	api.POST("/feedback", h.CreateFeedback)
	api.GET("/feedback/stats", h.FeedbackStats)
	api.POST("/override", h.CreateOverride)
	api.GET("/data", h.GetData)
	if hub != nil {
		api.GET("/ws", func(c *gin.Context) { hub.ServeWS(c.Writer, c.Request) })
	}
}

type skippedFile struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// AnalyzeResumes accepts the multipart upload, extracts text
// synchronously, and hands the batch off for background processing. The
// response acknowledges the queue only; per-item outcomes arrive through
// the progress channel and later job-detail polls.
func (h *HTTPHandler) AnalyzeResumes(c *gin.Context) {
	jobDescription := c.PostForm("jobDescription")
	if strings.TrimSpace(jobDescription) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No job description provided"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	files := form.File["resumes"]

	job, err := h.Store.FindOrCreateJob(jobDescription)
	if err != nil {
		h.Log.Error("find or create job failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create job"})
		return
	}

	h.Notifier.Publish(job.ID,
		fmt.Sprintf("Preparing %d resumes for background processing...", len(files)),
		domain.ProgressStart)

	var (
		inputs  []application.ResumeInput
		skipped []skippedFile
	)
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			h.Notifier.Publish(job.ID,
				fmt.Sprintf("Error reading %s: %v", fh.Filename, err), domain.ProgressError)
			skipped = append(skipped, skippedFile{Filename: fh.Filename, Reason: "unreadable upload"})
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			h.Notifier.Publish(job.ID,
				fmt.Sprintf("Error reading %s: %v", fh.Filename, err), domain.ProgressError)
			skipped = append(skipped, skippedFile{Filename: fh.Filename, Reason: "unreadable upload"})
			continue
		}

		text, err := h.Extractor.ExtractText(data, fh.Filename)
		if err != nil || strings.TrimSpace(text) == "" {
			h.Notifier.Publish(job.ID,
				fmt.Sprintf("Skipped %s: Empty or unreadable", fh.Filename), domain.ProgressWarning)
			skipped = append(skipped, skippedFile{Filename: fh.Filename, Reason: "empty or unreadable"})
			continue
		}
		inputs = append(inputs, application.ResumeInput{Filename: fh.Filename, Text: text})
	}

	if len(inputs) == 0 {
		h.Notifier.Publish(job.ID, "No valid resumes to process", domain.ProgressWarning)
		c.JSON(http.StatusOK, gin.H{
			"message":       "No valid resumes to process",
			"job_id":        job.ID,
			"skipped_files": skipped,
		})
		return
	}

	batch := application.Batch{
		JobID:          job.ID,
		JobDescription: jobDescription,
		Resumes:        inputs,
	}
	if err := h.Dispatcher.Dispatch(batch); err != nil {
		h.Log.Error("batch dispatch failed", "job_id", job.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue resumes"})
		return
	}
	h.Notifier.Publish(job.ID,
		fmt.Sprintf("Queued %d resumes for background processing", len(inputs)),
		domain.ProgressQueued)

	c.JSON(http.StatusAccepted, gin.H{
		"message":       fmt.Sprintf("Queued %d resumes for background processing", len(inputs)),
		"job_id":        job.ID,
		"status":        "queued",
		"total_resumes": len(inputs),
	})
}

func (h *HTTPHandler) GetJobs(c *gin.Context) {
	jobs, err := h.Store.ListJobs()
	if err != nil {
		h.Log.Error("list jobs failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list jobs"})
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *HTTPHandler) GetJobDetails(c *gin.Context) {
	id, err := strconv.Atoi(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	job, err := h.Store.GetJob(uint(id))
	if errors.Is(err, domain.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	if err != nil {
		h.Log.Error("get job failed", "job_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load job"})
		return
	}

	resumes := make([]gin.H, 0, len(job.Resumes))
	for _, r := range job.Resumes {
		var analysis json.RawMessage
		if r.Analysis != nil {
			analysis = json.RawMessage(*r.Analysis)
		}
		resumes = append(resumes, gin.H{
			"id":             r.ID,
			"filename":       r.Filename,
			"candidate_name": r.CandidateName,
			"analysis":       analysis,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"id":          job.ID,
		"description": job.Description,
		"resumes":     resumes,
	})
}

func (h *HTTPHandler) DeleteJob(c *gin.Context) {
	id, err := strconv.Atoi(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	deleted, err := h.Store.DeleteJob(uint(id))
	if errors.Is(err, domain.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	if err != nil {
		h.Log.Error("delete job failed", "job_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete job"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":         "Job deleted successfully",
		"deleted_resumes": deleted,
		"job_id":          id,
	})
}

type interviewRequest struct {
	ResumeID               uint     `json:"resume_id" binding:"required"`
	Title                  string   `json:"title" binding:"required"`
	InterviewType          string   `json:"interview_type"`
	DurationMinutes        int      `json:"duration_minutes"`
	ScheduledAt            string   `json:"scheduled_at"`
	Timezone               string   `json:"timezone"`
	Location               string   `json:"location"`
	VideoLink              string   `json:"video_link"`
	PrimaryInterviewer     string   `json:"primary_interviewer"`
	AdditionalInterviewers []string `json:"additional_interviewers"`
	PreInterviewNotes      string   `json:"pre_interview_notes"`
}

func (h *HTTPHandler) CreateInterview(c *gin.Context) {
	var req interviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	iv := domain.Interview{
		ResumeID:           req.ResumeID,
		Title:              req.Title,
		InterviewType:      req.InterviewType,
		DurationMinutes:    req.DurationMinutes,
		Timezone:           req.Timezone,
		Location:           req.Location,
		VideoLink:          req.VideoLink,
		PrimaryInterviewer: req.PrimaryInterviewer,
		PreInterviewNotes:  req.PreInterviewNotes,
		Status:             "scheduled",
	}
	if iv.InterviewType == "" {
		iv.InterviewType = "video"
	}
	if iv.DurationMinutes == 0 {
		iv.DurationMinutes = 60
	}
	if iv.Timezone == "" {
		iv.Timezone = "UTC"
	}
	if req.ScheduledAt != "" {
		at, err := parseScheduledAt(req.ScheduledAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scheduled_at"})
			return
		}
		iv.ScheduledAt = &at
	}
	extra, _ := json.Marshal(req.AdditionalInterviewers)
	iv.AdditionalInterviewers = string(extra)

	if err := h.Store.CreateInterview(&iv); err != nil {
		if errors.Is(err, domain.ErrResumeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Resume not found"})
			return
		}
		h.Log.Error("create interview failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create interview"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"interview_id": iv.ID})
}

func (h *HTTPHandler) ListInterviews(c *gin.Context) {
	interviews, err := h.Store.ListInterviews()
	if err != nil {
		h.Log.Error("list interviews failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list interviews"})
		return
	}
	c.JSON(http.StatusOK, interviews)
}

type feedbackRequest struct {
	ResumeID        uint    `json:"resume_id" binding:"required"`
	FeedbackType    string  `json:"feedback_type" binding:"required"`
	FeedbackText    string  `json:"feedback_text"`
	SuggestedBucket *string `json:"suggested_bucket"`
}

func (h *HTTPHandler) CreateFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fb := domain.Feedback{
		ResumeID:        req.ResumeID,
		FeedbackType:    req.FeedbackType,
		FeedbackText:    req.FeedbackText,
		SuggestedBucket: req.SuggestedBucket,
	}
	if err := h.Store.CreateFeedback(&fb); err != nil {
		if errors.Is(err, domain.ErrResumeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Resume not found"})
			return
		}
		h.Log.Error("create feedback failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save feedback"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"feedback_id": fb.ID})
}

func (h *HTTPHandler) FeedbackStats(c *gin.Context) {
	stats, err := h.Store.GetFeedbackStats()
	if err != nil {
		h.Log.Error("feedback stats failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

type overrideRequest struct {
	ResumeID       uint   `json:"resume_id" binding:"required"`
	OriginalBucket string `json:"original_bucket"`
	NewBucket      string `json:"new_bucket" binding:"required"`
	Reason         string `json:"reason"`
}

func (h *HTTPHandler) CreateOverride(c *gin.Context) {
	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ov := domain.BucketOverride{
		ResumeID:       req.ResumeID,
		OriginalBucket: req.OriginalBucket,
		NewBucket:      req.NewBucket,
		Reason:         req.Reason,
	}
	if err := h.Store.CreateOverride(&ov); err != nil {
		if errors.Is(err, domain.ErrResumeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Resume not found"})
			return
		}
		h.Log.Error("create override failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save override"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"override_id": ov.ID})
}

func (h *HTTPHandler) GetData(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Hello from the TalentVibe backend!"})
}

// parseScheduledAt accepts RFC 3339 and the datetime-local format the
// interview form submits.
func parseScheduledAt(value string) (time.Time, error) {
	if at, err := time.Parse(time.RFC3339, value); err == nil {
		return at, nil
	}
	return time.Parse("2006-01-02T15:04", value)
}
