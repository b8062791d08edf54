package application

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"talentvibe/domain"
	"talentvibe/logger"
)

// ResumeInput is one extracted resume handed to the pipeline.
type ResumeInput struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

// Batch is a full upload's worth of work: every resume from one request,
// evaluated against one job description.
type Batch struct {
	JobID          uint          `json:"job_id"`
	JobDescription string        `json:"job_description"`
	Resumes        []ResumeInput `json:"resumes"`
}

// Store is the slice of the job store the orchestrator needs. Workers
// never touch it; all store access happens on the orchestrator's own
// goroutine after the fan-out has drained.
type Store interface {
	ExistsByHash(jobID uint, hash string) (bool, error)
	ExistsByFilename(jobID uint, filename string) (bool, error)
	SaveResumes(jobID uint, resumes []domain.Resume) (int64, error)
}

// Evaluator calls the external model. On failure it returns the sentinel
// payload together with the error; the sentinel is terminal for that item.
type Evaluator interface {
	Evaluate(ctx context.Context, jobDescription, resumeText string) (domain.ResumeAnalysis, error)
}

// Notifier broadcasts progress to live observers. Fire and forget.
type Notifier interface {
	Publish(jobID uint, message string, kind domain.ProgressKind)
}

// Orchestrator fans a batch out to a bounded pool of evaluation workers,
// then dedupes, classifies and commits the survivors in a single atomic
// save. Per-item failures never abort the batch.
type Orchestrator struct {
	store       Store
	evaluator   Evaluator
	notifier    Notifier
	tracker     *Tracker
	log         *logger.Logger
	workers     int
	evalTimeout time.Duration
}

func NewOrchestrator(store Store, evaluator Evaluator, notifier Notifier, log *logger.Logger, workers int, evalTimeout time.Duration) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	if evalTimeout <= 0 {
		evalTimeout = 60 * time.Second
	}
	return &Orchestrator{
		store:       store,
		evaluator:   evaluator,
		notifier:    notifier,
		tracker:     NewTracker(),
		log:         log.With("component", "Orchestrator"),
		workers:     workers,
		evalTimeout: evalTimeout,
	}
}

// Tracker exposes the completion tracker, mainly for tests and the
// dispatcher wiring.
func (o *Orchestrator) Tracker() *Tracker {
	return o.tracker
}

// ProcessBatch dispatches the batch off the caller's goroutine and
// returns immediately. The upload handler uses this path when no message
// broker is configured.
func (o *Orchestrator) ProcessBatch(jobID uint, resumes []ResumeInput, jobDescription string) {
	go o.Run(Batch{JobID: jobID, JobDescription: jobDescription, Resumes: resumes})
}

type evalResult struct {
	input    ResumeInput
	analysis domain.ResumeAnalysis
	failed   bool
}

// Run processes one batch to completion on the calling goroutine. The
// broker consumer calls it directly; ProcessBatch wraps it in a goroutine.
func (o *Orchestrator) Run(batch Batch) {
	total := len(batch.Resumes)
	if total == 0 {
		o.notifier.Publish(batch.JobID, "No valid resumes to process", domain.ProgressWarning)
		return
	}

	o.tracker.Register(batch.JobID, total)
	o.notifier.Publish(batch.JobID,
		fmt.Sprintf("Starting processing of %d resumes...", total), domain.ProgressStart)

	results := make([]evalResult, total)
	sem := make(chan struct{}, o.workers)
	var wg sync.WaitGroup
	for i, in := range batch.Resumes {
		wg.Add(1)
		go func(idx int, in ResumeInput) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			o.notifier.Publish(batch.JobID,
				fmt.Sprintf("Analyzing %s with AI...", in.Filename), domain.ProgressProcessing)

			ctx, cancel := context.WithTimeout(context.Background(), o.evalTimeout)
			defer cancel()
			analysis, err := o.evaluator.Evaluate(ctx, batch.JobDescription, in.Text)
			if err != nil || analysis.IsSentinel() {
				o.log.Warn("evaluation failed", "job_id", batch.JobID, "filename", in.Filename, "error", err)
				o.notifier.Publish(batch.JobID,
					fmt.Sprintf("Error processing %s: analysis failed", in.Filename), domain.ProgressError)
				results[idx] = evalResult{input: in, analysis: analysis, failed: true}
				return
			}
			o.notifier.Publish(batch.JobID,
				fmt.Sprintf("Completed analysis for %s", in.Filename), domain.ProgressSuccess)
			results[idx] = evalResult{input: in, analysis: analysis}
		}(i, in)
	}
	wg.Wait()

	// Everything below runs sequentially: dedup, classification and the
	// commit never race with workers or with another writer for this batch.
	var records []domain.Resume
	skipped := 0
	seenHash := make(map[string]bool)
	seenName := make(map[string]bool)
	for _, res := range results {
		if res.failed {
			skipped++
			o.tracker.Complete(batch.JobID)
			continue
		}

		hash := domain.Fingerprint(res.input.Text)
		dup, reason, err := o.isDuplicate(batch.JobID, res.input.Filename, hash, seenHash, seenName)
		if err != nil {
			o.log.Error("dedup lookup failed", "job_id", batch.JobID, "filename", res.input.Filename, "error", err)
			o.notifier.Publish(batch.JobID,
				fmt.Sprintf("Error processing %s: %v", res.input.Filename, err), domain.ProgressError)
			skipped++
			o.tracker.Complete(batch.JobID)
			continue
		}
		if dup {
			o.notifier.Publish(batch.JobID,
				fmt.Sprintf("Skipped %s: %s", res.input.Filename, reason), domain.ProgressWarning)
			skipped++
			o.tracker.Complete(batch.JobID)
			continue
		}
		seenHash[hash] = true
		seenName[res.input.Filename] = true

		analysis := res.analysis
		analysis.Bucket = domain.ClassifyFit(int(analysis.FitScore))
		name := domain.NormalizeCandidateName(analysis.CandidateName)
		if name == domain.NameNotProvided {
			name = nameFromFilename(res.input.Filename)
		}
		analysis.CandidateName = name

		payload, err := json.Marshal(analysis)
		if err != nil {
			o.notifier.Publish(batch.JobID,
				fmt.Sprintf("Error processing %s: %v", res.input.Filename, err), domain.ProgressError)
			skipped++
			o.tracker.Complete(batch.JobID)
			continue
		}
		raw := string(payload)
		records = append(records, domain.Resume{
			JobID:         batch.JobID,
			Filename:      res.input.Filename,
			CandidateName: name,
			Content:       res.input.Text,
			ContentHash:   hash,
			Analysis:      &raw,
		})
	}

	saved := 0
	if len(records) > 0 {
		n, err := o.store.SaveResumes(batch.JobID, records)
		if err != nil {
			// The whole attempt rolled back: every record in it failed.
			o.log.Error("batch save failed", "job_id", batch.JobID, "records", len(records), "error", err)
			o.notifier.Publish(batch.JobID,
				fmt.Sprintf("Failed to save %d resumes: %v", len(records), err), domain.ProgressError)
			skipped += len(records)
		} else {
			saved = int(n)
			// Rows rejected by the unique constraints at commit time (a
			// concurrent identical batch) count as skips, not failures.
			if dropped := len(records) - saved; dropped > 0 {
				o.notifier.Publish(batch.JobID,
					fmt.Sprintf("Skipped %d duplicate resumes at save", dropped), domain.ProgressWarning)
				skipped += dropped
			}
		}
		for range records {
			o.tracker.Complete(batch.JobID)
		}
	}

	o.notifier.Publish(batch.JobID,
		fmt.Sprintf("All %d resumes processed. Saved %d, skipped %d.", total, saved, skipped),
		domain.ProgressComplete)
	o.tracker.Remove(batch.JobID)
	o.log.Info("batch finished", "job_id", batch.JobID, "total", total, "saved", saved, "skipped", skipped)
}

func (o *Orchestrator) isDuplicate(jobID uint, filename, hash string, seenHash, seenName map[string]bool) (bool, string, error) {
	if seenHash[hash] || seenName[filename] {
		return true, "Duplicate content", nil
	}
	exists, err := o.store.ExistsByHash(jobID, hash)
	if err != nil {
		return false, "", err
	}
	if exists {
		return true, "Duplicate content", nil
	}
	exists, err = o.store.ExistsByFilename(jobID, filename)
	if err != nil {
		return false, "", err
	}
	if exists {
		return true, "Duplicate filename", nil
	}
	return false, "", nil
}

// nameFromFilename derives a human-readable fallback name when the
// evaluator could not find one: "jane_doe-cv.pdf" becomes "jane doe cv".
func nameFromFilename(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(base)
	base = strings.Join(strings.Fields(base), " ")
	if base == "" {
		return domain.NameNotProvided
	}
	return base
}
